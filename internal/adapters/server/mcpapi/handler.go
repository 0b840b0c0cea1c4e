// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hylla/gantry/internal/adapters/server/common"
	"github.com/hylla/gantry/internal/domain"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the chart tools.
func NewHandler(cfg Config, service common.Service) (*Handler, error) {
	if service == nil {
		return nil, fmt.Errorf("gantry service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerProjectTools(mcpSrv, service)
	registerChartTools(mcpSrv, service)
	registerLabelTools(mcpSrv, service)
	registerActionTools(mcpSrv, service)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "gantry"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerProjectTools registers `gantry.list_projects` and `gantry.list_tasks`.
func registerProjectTools(srv *mcpserver.MCPServer, service common.Service) {
	srv.AddTool(
		mcp.NewTool(
			"gantry.list_projects",
			mcp.WithDescription("List chart projects."),
			mcp.WithBoolean("include_archived", mcp.Description("Include archived projects")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			rows, err := service.ListProjects(ctx, req.GetBool("include_archived", false))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"projects": rows,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_projects result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantry.list_tasks",
			mcp.WithDescription("List the tasks of one project in display order."),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Project identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projectID, err := req.RequireString("project_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			rows, err := service.ListTasks(ctx, projectID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"project_id": projectID,
				"tasks":      rows,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_tasks result: %w", err)
			}
			return result, nil
		},
	)
}

// registerChartTools registers `gantry.render_svg`.
func registerChartTools(srv *mcpserver.MCPServer, service common.Service) {
	srv.AddTool(
		mcp.NewTool(
			"gantry.render_svg",
			mcp.WithDescription("Render one project chart as an SVG document."),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Project identifier")),
			mcp.WithString("view_mode", mcp.Description("Time scale"), mcp.Enum(viewModeNames()...)),
			mcp.WithBoolean("rtl", mcp.Description("Lay the chart out right to left")),
			mcp.WithBoolean("horizontal", mcp.Description("Hide labels that would sit outside their bars")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projectID, err := req.RequireString("project_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			doc, err := service.RenderChart(ctx, common.ChartRequest{
				ProjectID:         projectID,
				ViewMode:          req.GetString("view_mode", ""),
				RightToLeft:       optionalBool(req, "rtl"),
				HorizontalDisplay: optionalBool(req, "horizontal"),
			}, common.FormatSVG)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return mcp.NewToolResultText(string(doc.Body)), nil
		},
	)
}

// registerLabelTools registers `gantry.fit_label`.
func registerLabelTools(srv *mcpserver.MCPServer, service common.Service) {
	srv.AddTool(
		mcp.NewTool(
			"gantry.fit_label",
			mcp.WithDescription("Decide where and how a task label is drawn for one bar span."),
			mcp.WithString("text", mcp.Required(), mcp.Description("Full label text")),
			mcp.WithNumber("start", mcp.Required(), mcp.Description("Bar start x")),
			mcp.WithNumber("end", mcp.Required(), mcp.Description("Bar end x")),
			mcp.WithNumber("measured_width", mcp.Description("Rendered width of the full text; estimated when omitted")),
			mcp.WithBoolean("rtl", mcp.Description("Right-to-left layout")),
			mcp.WithBoolean("horizontal_display", mcp.Description("Hide outside labels")),
			mcp.WithBoolean("has_children", mcp.Description("Task has an expander")),
			mcp.WithNumber("indent_unit", mcp.Description("Arrow indent unit")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			text, err := req.RequireString("text")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			start, err := req.RequireFloat("start")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			end, err := req.RequireFloat("end")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			res, err := service.FitLabel(ctx, common.FitLabelRequest{
				Text:              text,
				Start:             start,
				End:               end,
				MeasuredWidth:     optionalFloat(req, "measured_width"),
				RightToLeft:       req.GetBool("rtl", false),
				HorizontalDisplay: req.GetBool("horizontal_display", false),
				HasChildren:       req.GetBool("has_children", false),
				IndentUnit:        req.GetFloat("indent_unit", 0),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(res)
			if err != nil {
				return nil, fmt.Errorf("encode fit_label result: %w", err)
			}
			return result, nil
		},
	)
}

// registerActionTools registers `gantry.task_action`.
func registerActionTools(srv *mcpserver.MCPServer, service common.Service) {
	srv.AddTool(
		mcp.NewTool(
			"gantry.task_action",
			mcp.WithDescription("Dispatch an action to a chart item by task id, or a pointer signal at chart coordinates."),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Project identifier")),
			mcp.WithString("task_id", mcp.Description("Target task identifier")),
			mcp.WithString("action", mcp.Description("Action to dispatch with task_id"), mcp.Enum(actionNames()...)),
			mcp.WithNumber("x", mcp.Description("Pointer x in chart coordinates")),
			mcp.WithNumber("y", mcp.Description("Pointer y in chart coordinates")),
			mcp.WithString("signal", mcp.Description("Pointer signal"), mcp.Enum("focus", "enter", "leave", "click", "dblclick")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projectID, err := req.RequireString("project_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			res, err := service.DispatchAction(ctx, common.ActionRequest{
				ProjectID: projectID,
				TaskID:    req.GetString("task_id", ""),
				Action:    req.GetString("action", ""),
				X:         optionalFloat(req, "x"),
				Y:         optionalFloat(req, "y"),
				Signal:    req.GetString("signal", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(res)
			if err != nil {
				return nil, fmt.Errorf("encode task_action result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps adapter errors into prefixed tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}

// optionalBool reads a boolean argument only when the caller sent it.
func optionalBool(req mcp.CallToolRequest, key string) *bool {
	if _, ok := req.GetArguments()[key]; !ok {
		return nil
	}
	v := req.GetBool(key, false)
	return &v
}

// optionalFloat reads a number argument only when the caller sent it.
func optionalFloat(req mcp.CallToolRequest, key string) *float64 {
	if _, ok := req.GetArguments()[key]; !ok {
		return nil
	}
	v := req.GetFloat(key, 0)
	return &v
}

func viewModeNames() []string {
	modes := domain.ViewModes()
	out := make([]string, 0, len(modes))
	for _, mode := range modes {
		out = append(out, string(mode))
	}
	return out
}

func actionNames() []string {
	actions := domain.Actions()
	out := make([]string, 0, len(actions))
	for _, action := range actions {
		out = append(out, string(action))
	}
	return out
}
