// Package config loads the TOML runtime configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/hylla/gantry/internal/chart"
	"github.com/hylla/gantry/internal/domain"
	"github.com/hylla/gantry/internal/event"
	"github.com/hylla/gantry/internal/label"
	"github.com/hylla/gantry/internal/layout"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Chart    ChartConfig    `toml:"chart"`
	Label    label.Params   `toml:"label"`
	Events   EventsConfig   `toml:"events"`
	Server   ServerConfig   `toml:"server"`
	TUI      TUIConfig      `toml:"tui"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig controls the runtime log sinks.
type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig enables the logfmt file sink in dev mode.
type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// ChartConfig is the geometry and display table.
type ChartConfig struct {
	ViewMode string `toml:"view_mode"`
	// ColumnWidth applies to every view mode without an entry in ColumnWidths.
	ColumnWidth        float64            `toml:"column_width"`
	ColumnWidths       map[string]float64 `toml:"column_widths"`
	RowHeight          float64            `toml:"row_height"`
	BarFill            float64            `toml:"bar_fill"`
	HandleWidth        float64            `toml:"handle_width"`
	CornerRadius       float64            `toml:"corner_radius"`
	PreSteps           int                `toml:"pre_steps"`
	RightToLeft        bool               `toml:"rtl"`
	HorizontalDisplay  bool               `toml:"horizontal_display"`
	ArrowIndent        float64            `toml:"arrow_indent"`
	FontSize           float64            `toml:"font_size"`
	FontFamily         string             `toml:"font_family"`
	HeaderHeight       float64            `toml:"header_height"`
	DateChangeable     bool               `toml:"date_changeable"`
	ProgressChangeable bool               `toml:"progress_changeable"`
}

type EventsConfig struct {
	AllowDelete   bool `toml:"allow_delete"`
	DoubleClickMS int  `toml:"double_click_ms"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type TUIConfig struct {
	WatchDatabase bool   `toml:"watch_database"`
	ShowHelp      bool   `toml:"show_help"`
	MarkdownStyle string `toml:"markdown_style"`
}

func Default(dbPath string) Config {
	geometry := layout.DefaultOptions()
	base := chart.DefaultConfig()
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".gantry/log",
			},
		},
		Chart: ChartConfig{
			ViewMode:           string(geometry.ViewMode),
			ColumnWidth:        geometry.ColumnWidth,
			RowHeight:          geometry.RowHeight,
			BarFill:            geometry.BarFill,
			HandleWidth:        geometry.HandleWidth,
			CornerRadius:       geometry.CornerRadius,
			PreSteps:           geometry.PreSteps,
			ArrowIndent:        base.ArrowIndent,
			FontSize:           base.FontSize,
			FontFamily:         base.FontFamily,
			HeaderHeight:       base.HeaderHeight,
			DateChangeable:     base.DateChangeable,
			ProgressChangeable: base.ProgressChangeable,
		},
		Label: label.DefaultParams(),
		Events: EventsConfig{
			AllowDelete:   true,
			DoubleClickMS: int(event.DefaultDoubleClickWindow / time.Millisecond),
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		TUI: TUIConfig{
			WatchDatabase: true,
			ShowHelp:      true,
			MarkdownStyle: "dark",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}
	if _, err := charmLog.ParseLevel(strings.TrimSpace(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if _, err := domain.ParseViewMode(c.Chart.ViewMode); err != nil {
		return fmt.Errorf("invalid chart.view_mode: %q", c.Chart.ViewMode)
	}
	for mode, width := range c.Chart.ColumnWidths {
		if _, err := domain.ParseViewMode(mode); err != nil {
			return fmt.Errorf("chart.column_widths references unknown view mode %q", mode)
		}
		if width <= 0 {
			return fmt.Errorf("chart.column_widths.%s must be > 0", mode)
		}
	}
	switch {
	case c.Chart.ColumnWidth < 0:
		return errors.New("chart.column_width must be >= 0")
	case c.Chart.RowHeight < 0:
		return errors.New("chart.row_height must be >= 0")
	case c.Chart.BarFill < 0 || c.Chart.BarFill > 100:
		return errors.New("chart.bar_fill must be within 0..100")
	case c.Chart.HandleWidth < 0, c.Chart.CornerRadius < 0:
		return errors.New("chart.handle_width and chart.corner_radius must be >= 0")
	case c.Chart.PreSteps < 0:
		return errors.New("chart.pre_steps must be >= 0")
	case c.Chart.ArrowIndent < 0:
		return errors.New("chart.arrow_indent must be >= 0")
	case c.Chart.FontSize < 0:
		return errors.New("chart.font_size must be >= 0")
	case c.Chart.HeaderHeight < 0:
		return errors.New("chart.header_height must be >= 0")
	}

	if err := c.Label.Validate(); err != nil {
		return fmt.Errorf("invalid label table: %w", err)
	}
	if c.Events.DoubleClickMS < 0 {
		return errors.New("events.double_click_ms must be >= 0")
	}

	api := strings.Trim(strings.TrimSpace(c.Server.APIEndpoint), "/")
	mcp := strings.Trim(strings.TrimSpace(c.Server.MCPEndpoint), "/")
	if api != "" && api == mcp {
		return errors.New("server.api_endpoint and server.mcp_endpoint must differ")
	}
	return nil
}

// ChartConfig maps the chart and label tables onto chart settings.
func (c Config) ChartConfig() chart.Config {
	out := chart.DefaultConfig()
	mode, err := domain.ParseViewMode(c.Chart.ViewMode)
	if err == nil {
		out.Layout.ViewMode = mode
	}
	out.Layout.ColumnWidth = c.Chart.ColumnWidth
	if len(c.Chart.ColumnWidths) > 0 {
		out.Layout.ColumnWidths = make(map[domain.ViewMode]float64, len(c.Chart.ColumnWidths))
		for raw, width := range c.Chart.ColumnWidths {
			if m, err := domain.ParseViewMode(raw); err == nil {
				out.Layout.ColumnWidths[m] = width
			}
		}
	}
	out.Layout.RowHeight = c.Chart.RowHeight
	out.Layout.BarFill = c.Chart.BarFill
	out.Layout.HandleWidth = c.Chart.HandleWidth
	out.Layout.CornerRadius = c.Chart.CornerRadius
	out.Layout.PreSteps = c.Chart.PreSteps
	out.Layout.RightToLeft = c.Chart.RightToLeft
	out.Label = c.Label
	out.HorizontalDisplay = c.Chart.HorizontalDisplay
	if c.Chart.ArrowIndent > 0 {
		out.ArrowIndent = c.Chart.ArrowIndent
	}
	if c.Chart.FontSize > 0 {
		out.FontSize = c.Chart.FontSize
	}
	if family := strings.TrimSpace(c.Chart.FontFamily); family != "" {
		out.FontFamily = family
	}
	if c.Chart.HeaderHeight > 0 {
		out.HeaderHeight = c.Chart.HeaderHeight
	}
	out.DateChangeable = c.Chart.DateChangeable
	out.ProgressChangeable = c.Chart.ProgressChangeable
	return out
}

// Permissions returns the relay permissions from the events table.
func (c Config) Permissions() event.Permissions {
	return event.Permissions{Delete: c.Events.AllowDelete}
}

// DoubleClickWindow returns the synthesized double-click window; zero keeps the default.
func (c Config) DoubleClickWindow() time.Duration {
	if c.Events.DoubleClickMS <= 0 {
		return event.DefaultDoubleClickWindow
	}
	return time.Duration(c.Events.DoubleClickMS) * time.Millisecond
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Save writes cfg as TOML, creating the parent directory.
func Save(path string, cfg Config) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config path is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
