package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	serveradapter "github.com/hylla/gantry/internal/adapters/server"
	servercommon "github.com/hylla/gantry/internal/adapters/server/common"
	"github.com/hylla/gantry/internal/adapters/storage/sqlite"
	"github.com/hylla/gantry/internal/app"
	"github.com/hylla/gantry/internal/config"
	"github.com/hylla/gantry/internal/domain"
	"github.com/hylla/gantry/internal/platform"
	"github.com/hylla/gantry/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// run executes one CLI invocation. fang renders errors on stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// cliOptions holds the persistent flags shared by every command.
type cliOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool

	stdout io.Writer
	stderr io.Writer
}

// displayFlags are the chart direction and view overrides accepted by tui and render.
type displayFlags struct {
	viewMode    string
	rightToLeft bool
	horizontal  bool
}

func (d *displayFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.viewMode, "view-mode", "", "view mode (hour, quarter_day, half_day, day, week, month, year)")
	cmd.Flags().BoolVar(&d.rightToLeft, "rtl", false, "lay the timeline out right-to-left")
	cmd.Flags().BoolVar(&d.horizontal, "horizontal", false, "keep labels beside bars instead of inside them")
}

func (d displayFlags) mode() (domain.ViewMode, error) {
	if strings.TrimSpace(d.viewMode) == "" {
		return "", nil
	}
	return domain.ParseViewMode(d.viewMode)
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &cliOptions{stdout: stdout, stderr: stderr}
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("GANTRY_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	defaultApp := "gantry"
	if envApp := strings.TrimSpace(os.Getenv("GANTRY_APP_NAME")); envApp != "" {
		defaultApp = envApp
	}

	var display displayFlags
	root := &cobra.Command{
		Use:   "gantry",
		Short: "Interactive Gantt charts for projects and tasks",
		Long: `gantry stores projects and their tasks in SQLite and renders them as
Gantt charts: interactively in the terminal, as SVG or PDF files, or
over HTTP and MCP.

Running gantry without a command opens the terminal chart.`,
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts, display)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to config TOML")
	pf.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	pf.StringVar(&opts.appName, "app", defaultApp, "application name for config/data path resolution")
	pf.BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	display.register(root)

	root.AddCommand(
		newTUICommand(opts),
		newRenderCommand(opts),
		newServeCommand(opts),
		newImportCommand(opts),
		newExportCommand(opts),
		newProjectCommand(opts),
		newTaskCommand(opts),
		newFitCommand(opts),
		newInitCommand(opts),
		newPathsCommand(opts),
	)
	return root
}

func newTUICommand(opts *cliOptions) *cobra.Command {
	var display displayFlags
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive terminal chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts, display)
		},
	}
	display.register(cmd)
	return cmd
}

func runTUI(cmd *cobra.Command, opts *cliOptions, display displayFlags) error {
	mode, err := display.mode()
	if err != nil {
		return err
	}
	return opts.withSession(cmd.Context(), "tui", func(ctx context.Context, s *session) error {
		options := []tui.Option{
			tui.WithViewMode(mode),
			tui.WithHelpBar(s.cfg.TUI.ShowHelp),
			tui.WithMarkdownStyle(s.cfg.TUI.MarkdownStyle),
		}
		if cmd.Flags().Changed("rtl") || cmd.Flags().Changed("horizontal") {
			rtl, horizontal := s.cfg.Chart.RightToLeft, s.cfg.Chart.HorizontalDisplay
			if cmd.Flags().Changed("rtl") {
				rtl = display.rightToLeft
			}
			if cmd.Flags().Changed("horizontal") {
				horizontal = display.horizontal
			}
			options = append(options, tui.WithDisplay(rtl, horizontal))
		}
		if s.cfg.TUI.WatchDatabase {
			watcher, err := tui.NewFileWatcher(s.cfg.Database.Path)
			if err != nil {
				s.logger.Warn("database watch disabled", "db_path", s.cfg.Database.Path, "err", err)
			} else {
				defer func() {
					if closeErr := watcher.Close(); closeErr != nil {
						s.logger.Warn("database watcher close failed", "err", closeErr)
					}
				}()
				options = append(options, tui.WithFileWatcher(watcher))
			}
		}

		m := tui.NewModel(s.svc, options...)
		s.logger.Info("starting tui program loop")
		if _, err := programFactory(m).Run(); err != nil {
			s.logger.Error("tui program terminated with error", "err", err)
			return fmt.Errorf("run tui program: %w", err)
		}
		return nil
	})
}

func newRenderCommand(opts *cliOptions) *cobra.Command {
	var (
		display    displayFlags
		format     string
		outPath    string
		projectRef string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a project chart to SVG or PDF",
		Example: `  gantry render --project launch
  gantry render --format pdf --view-mode week --out launch.pdf
  gantry render --out - > chart.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := display.mode()
			if err != nil {
				return err
			}
			return opts.withSession(cmd.Context(), "render", func(ctx context.Context, s *session) error {
				project, err := resolveProject(ctx, s.svc, projectRef)
				if err != nil {
					return err
				}
				req := servercommon.ChartRequest{ProjectID: project.ID, ViewMode: string(mode)}
				if cmd.Flags().Changed("rtl") {
					req.RightToLeft = &display.rightToLeft
				}
				if cmd.Flags().Changed("horizontal") {
					req.HorizontalDisplay = &display.horizontal
				}
				rendered, err := servercommon.NewAppServiceAdapter(s.svc).RenderChart(ctx, req, format)
				if err != nil {
					return err
				}

				if outPath == "-" {
					if _, err := opts.stdout.Write(rendered.Body); err != nil {
						return fmt.Errorf("write chart to stdout: %w", err)
					}
					return nil
				}
				target := outPath
				if target == "" {
					target = filepath.Join(s.paths.ExportDir, project.Slug+"."+strings.ToLower(strings.TrimSpace(format)))
				}
				if err := writeFile(target, rendered.Body); err != nil {
					return err
				}
				s.logger.Info("chart rendered", "project", project.Slug, "format", format, "path", target)
				_, _ = fmt.Fprintf(opts.stdout, "wrote %s\n", target)
				return nil
			})
		},
	}
	display.register(cmd)
	cmd.Flags().StringVar(&format, "format", servercommon.FormatSVG, "output format (svg or pdf)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file path ('-' for stdout, default <export_dir>/<project>.<format>)")
	cmd.Flags().StringVarP(&projectRef, "project", "p", "", "project id, slug, or name (default first project)")
	return cmd
}

func newServeCommand(opts *cliOptions) *cobra.Command {
	var (
		httpBind    string
		apiEndpoint string
		mcpEndpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and MCP endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd.Context(), "serve", func(ctx context.Context, s *session) error {
				cfg := serveradapter.Config{
					HTTPBind:      firstNonEmpty(httpBind, s.cfg.Server.HTTPBind),
					APIEndpoint:   firstNonEmpty(apiEndpoint, s.cfg.Server.APIEndpoint),
					MCPEndpoint:   firstNonEmpty(mcpEndpoint, s.cfg.Server.MCPEndpoint),
					ServerName:    s.appName,
					ServerVersion: version,
				}
				s.logger.Info("serve configuration resolved", "http", cfg.HTTPBind, "api", cfg.APIEndpoint, "mcp", cfg.MCPEndpoint)
				return serveCommandRunner(ctx, cfg, serveradapter.Dependencies{
					Service: servercommon.NewAppServiceAdapter(s.svc),
				})
			})
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "HTTP API base endpoint (default from config)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP streamable HTTP endpoint (default from config)")
	return cmd
}

func newImportCommand(opts *cliOptions) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON snapshot or a YAML seed plan",
		Long: `Import reads a JSON snapshot written by 'gantry export', or a YAML seed
plan when the file ends in .yaml or .yml. A seed plan always creates a new
project; a snapshot upserts projects and tasks by id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return errors.New("--in is required")
			}
			return opts.withSession(cmd.Context(), "import", func(ctx context.Context, s *session) error {
				return runImport(ctx, s.svc, inPath, opts.stdout)
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON or seed plan YAML")
	return cmd
}

// runImport runs the requested command flow.
func runImport(ctx context.Context, svc *app.Service, inPath string, stdout io.Writer) error {
	switch strings.ToLower(filepath.Ext(inPath)) {
	case ".yaml", ".yml":
		f, err := os.Open(inPath)
		if err != nil {
			return fmt.Errorf("open seed plan: %w", err)
		}
		defer f.Close()
		plan, err := app.ParseSeedPlan(f)
		if err != nil {
			return err
		}
		project, tasks, err := svc.ImportSeedPlan(ctx, plan)
		if err != nil {
			return fmt.Errorf("import seed plan: %w", err)
		}
		_, _ = fmt.Fprintf(stdout, "imported project %s (%d tasks)\n", project.Slug, len(tasks))
		return nil
	}

	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return fmt.Errorf("decode snapshot json: %w", err)
	}
	if err := svc.ImportSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "imported snapshot (%d projects, %d tasks)\n", len(snap.Projects), len(snap.Tasks))
	return nil
}

func newExportCommand(opts *cliOptions) *cobra.Command {
	var (
		outPath         string
		includeArchived bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every project and task as a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd.Context(), "export", func(ctx context.Context, s *session) error {
				return runExport(ctx, s.svc, outPath, includeArchived, opts.stdout)
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	cmd.Flags().BoolVar(&includeArchived, "include-archived", true, "include archived projects")
	return cmd
}

// runExport runs the requested command flow.
func runExport(ctx context.Context, svc *app.Service, outPath string, includeArchived bool, stdout io.Writer) error {
	snap, err := svc.ExportSnapshot(ctx, includeArchived)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	return writeFile(outPath, encoded)
}

func newFitCommand(opts *cliOptions) *cobra.Command {
	var (
		req   servercommon.FitLabelRequest
		width float64
	)
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Decide where a bar label goes",
		Long: `fit runs the label placement heuristic for one bar and prints the
decision as JSON. Without --width the label width is estimated from the
configured font size.`,
		Example: `  gantry fit --text "Design review" --start 40 --end 160`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("width") {
				req.MeasuredWidth = &width
			}
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			svc := app.NewService(nil, nil, nil, serviceConfig(cfg))
			result, err := servercommon.NewAppServiceAdapter(svc).FitLabel(cmd.Context(), req)
			if err != nil {
				return err
			}
			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encode fit result: %w", err)
			}
			_, _ = fmt.Fprintln(opts.stdout, string(encoded))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Text, "text", "", "label text")
	f.Float64Var(&req.Start, "start", 0, "bar start x")
	f.Float64Var(&req.End, "end", 0, "bar end x")
	f.Float64Var(&width, "width", 0, "measured label width (default estimated)")
	f.BoolVar(&req.RightToLeft, "rtl", false, "right-to-left layout")
	f.BoolVar(&req.HorizontalDisplay, "horizontal", false, "horizontal display mode")
	f.BoolVar(&req.HasChildren, "has-children", false, "bar has child rows")
	f.Float64Var(&req.IndentUnit, "indent", 0, "indent unit for outside labels")
	return cmd
}

func newInitCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config and make sure one project exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := opts.resolvePaths()
			if err != nil {
				return err
			}
			configPath, dbPath, _ := opts.resolveConfigAndDB(paths)
			if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
				if err := config.Save(configPath, config.Default(dbPath)); err != nil {
					return fmt.Errorf("write default config: %w", err)
				}
				_, _ = fmt.Fprintf(opts.stdout, "wrote %s\n", configPath)
			} else if err != nil {
				return fmt.Errorf("stat config: %w", err)
			}
			return opts.withSession(cmd.Context(), "init", func(ctx context.Context, s *session) error {
				project, err := s.svc.EnsureDefaultProject(ctx)
				if err != nil {
					return fmt.Errorf("ensure default project: %w", err)
				}
				_, _ = fmt.Fprintf(opts.stdout, "project: %s (%s)\n", project.Name, project.Slug)
				return nil
			})
		},
	}
}

func newPathsCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data, and export paths",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := opts.resolvePaths()
			if err != nil {
				return err
			}
			configPath, dbPath, _ := opts.resolveConfigAndDB(paths)
			out := opts.stdout
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", configPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", dbPath)
			_, _ = fmt.Fprintf(out, "export_dir: %s\n", paths.ExportDir)
			return nil
		},
	}
}

// session is the opened runtime shared by data commands.
type session struct {
	appName    string
	devMode    bool
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
	repo       *sqlite.Repository
	svc        *app.Service
	stderr     io.Writer
}

func (o *cliOptions) resolvePaths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: o.devMode,
	})
}

// resolveConfigAndDB applies flag, then env, then platform defaults.
func (o *cliOptions) resolveConfigAndDB(paths platform.Paths) (string, string, bool) {
	configPath := strings.TrimSpace(o.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("GANTRY_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(o.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("GANTRY_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}
	return configPath, dbPath, dbOverridden
}

func (o *cliOptions) loadConfig() (config.Config, string, error) {
	paths, err := o.resolvePaths()
	if err != nil {
		return config.Config{}, "", err
	}
	configPath, dbPath, dbOverridden := o.resolveConfigAndDB(paths)
	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return config.Config{}, "", fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	return cfg, configPath, nil
}

func serviceConfig(cfg config.Config) app.ServiceConfig {
	return app.ServiceConfig{
		Chart:             cfg.ChartConfig(),
		Permissions:       cfg.Permissions(),
		DoubleClickWindow: cfg.DoubleClickWindow(),
	}
}

// openSession resolves config, starts logging, and opens the repository.
func (o *cliOptions) openSession(command string) (*session, error) {
	paths, err := o.resolvePaths()
	if err != nil {
		return nil, err
	}
	cfg, configPath, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := newRuntimeLogger(o.stderr, o.appName, o.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// Keep TUI rendering clean: runtime logs stay in the dev-file sink while the chart is active.
		logger.SetConsoleEnabled(false)
	}

	logger.Info("startup configuration resolved", "app", o.appName, "dev_mode", o.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "export_dir", paths.ExportDir)
	logger.Info("configuration loaded", "config_path", configPath, "db_path", cfg.Database.Path, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")

	svc := app.NewService(repo, uuid.NewString, nil, serviceConfig(cfg))
	logger.Debug("application service initialized", "view_mode", cfg.Chart.ViewMode, "allow_delete", cfg.Events.AllowDelete)

	return &session{
		appName:    o.appName,
		devMode:    o.devMode,
		paths:      paths,
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
		repo:       repo,
		svc:        svc,
		stderr:     o.stderr,
	}, nil
}

// Close releases the repository and the log sinks.
func (s *session) Close() {
	if closeErr := s.repo.Close(); closeErr != nil {
		s.logger.Warn("sqlite close failed", "db_path", s.cfg.Database.Path, "err", closeErr)
	}
	if closeErr := s.logger.Close(); closeErr != nil && s.logger.shouldLogToSink(s.logger.consoleSink) {
		_, _ = fmt.Fprintf(s.stderr, "warning: close runtime log sink: %v\n", closeErr)
	}
}

// withSession runs fn inside an opened session with start/complete logging.
func (o *cliOptions) withSession(ctx context.Context, command string, fn func(context.Context, *session) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := o.openSession(command)
	if err != nil {
		return err
	}
	defer s.Close()

	s.logger.Info("command flow start", "command", command)
	if err := fn(ctx, s); err != nil {
		s.logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	s.logger.Info("command flow complete", "command", command)
	return nil
}

// resolveProject matches ref against id, slug, then name. An empty ref picks
// the first active project.
func resolveProject(ctx context.Context, svc *app.Service, ref string) (domain.Project, error) {
	ref = strings.TrimSpace(ref)
	projects, err := svc.ListProjects(ctx, ref != "")
	if err != nil {
		return domain.Project{}, fmt.Errorf("list projects: %w", err)
	}
	if len(projects) == 0 {
		return domain.Project{}, errors.New("no projects: run 'gantry import' or 'gantry init' first")
	}
	if ref == "" {
		return projects[0], nil
	}
	for _, p := range projects {
		if p.ID == ref || p.Slug == ref {
			return p, nil
		}
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return domain.Project{}, fmt.Errorf("project %q not found", ref)
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseBoolEnv parses a boolean environment variable, reporting whether it was set.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
