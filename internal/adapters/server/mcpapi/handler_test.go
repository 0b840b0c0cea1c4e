package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hylla/gantry/internal/adapters/server/common"
	"github.com/hylla/gantry/internal/domain"
)

// stubService provides deterministic responses for MCP tool tests.
type stubService struct {
	projects []common.ProjectSummary
	tasks    []common.TaskSummary
	chart    common.RenderedChart
	fit      common.FitLabelResult
	action   common.ActionResult
	err      error

	lastArchived  bool
	lastProjectID string
	lastChart     common.ChartRequest
	lastFormat    string
	lastFit       common.FitLabelRequest
	lastAction    common.ActionRequest
}

func (s *stubService) ListProjects(_ context.Context, includeArchived bool) ([]common.ProjectSummary, error) {
	s.lastArchived = includeArchived
	if s.err != nil {
		return nil, s.err
	}
	return append([]common.ProjectSummary(nil), s.projects...), nil
}

func (s *stubService) ListTasks(_ context.Context, projectID string) ([]common.TaskSummary, error) {
	s.lastProjectID = projectID
	if s.err != nil {
		return nil, s.err
	}
	return append([]common.TaskSummary(nil), s.tasks...), nil
}

func (s *stubService) RenderChart(_ context.Context, req common.ChartRequest, format string) (common.RenderedChart, error) {
	s.lastChart = req
	s.lastFormat = format
	if s.err != nil {
		return common.RenderedChart{}, s.err
	}
	return s.chart, nil
}

func (s *stubService) FitLabel(_ context.Context, req common.FitLabelRequest) (common.FitLabelResult, error) {
	s.lastFit = req
	if s.err != nil {
		return common.FitLabelResult{}, s.err
	}
	return s.fit, nil
}

func (s *stubService) DispatchAction(_ context.Context, req common.ActionRequest) (common.ActionResult, error) {
	s.lastAction = req
	if s.err != nil {
		return common.ActionResult{}, s.err
	}
	return s.action, nil
}

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()
	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, ok := first["text"].(string)
	if !ok {
		t.Fatalf("content text missing in tool result: %#v", first)
	}
	return text
}

// toolResultStructured decodes structuredContent as one map for stable assertions.
func toolResultStructured(t *testing.T, result map[string]any) map[string]any {
	t.Helper()
	structured, ok := result["structuredContent"].(map[string]any)
	if !ok {
		t.Fatalf("structuredContent missing in tool result: %#v", result)
	}
	return structured
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "gantry-test",
				"version": "1.0.0",
			},
		},
	}
}

// startServer builds one handler around svc and completes the MCP handshake.
func startServer(t *testing.T, svc common.Service) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{}, svc)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server
}

func TestNewHandlerRequiresService(t *testing.T) {
	if _, err := NewHandler(Config{}, nil); err == nil {
		t.Fatal("NewHandler() error = nil, want error")
	}
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	handler, err := NewHandler(Config{}, &stubService{})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decoded.ID != 1 {
		t.Fatalf("id = %v, want 1", decoded.ID)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id header = %q, want empty (stateless transport)", got)
	}
}

func TestHandlerRegistersChartTools(t *testing.T) {
	server := startServer(t, &stubService{})
	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})
	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	toolNames := make([]string, 0, len(toolsRaw))
	for _, toolRaw := range toolsRaw {
		toolMap, ok := toolRaw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := toolMap["name"].(string)
		toolNames = append(toolNames, name)
	}
	for _, required := range []string{
		"gantry.list_projects",
		"gantry.list_tasks",
		"gantry.render_svg",
		"gantry.fit_label",
		"gantry.task_action",
	} {
		if !slices.Contains(toolNames, required) {
			t.Fatalf("tool list missing %q: %#v", required, toolNames)
		}
	}
}

func TestHandlerListToolCalls(t *testing.T) {
	svc := &stubService{
		projects: []common.ProjectSummary{{ID: "p1", Slug: "roadmap", Name: "Roadmap"}},
		tasks:    []common.TaskSummary{{ID: "t1", Name: "Design", Type: "task", Dependencies: []string{}}},
	}
	server := startServer(t, svc)

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "gantry.list_projects", map[string]any{
		"include_archived": true,
	}))
	structured := toolResultStructured(t, callResp.Result)
	if rows, ok := structured["projects"].([]any); !ok || len(rows) != 1 {
		t.Fatalf("projects = %#v, want one row", structured["projects"])
	}
	if !svc.lastArchived {
		t.Fatal("include_archived = false, want true")
	}

	_, callResp = postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "gantry.list_tasks", map[string]any{
		"project_id": "p1",
	}))
	structured = toolResultStructured(t, callResp.Result)
	if structured["project_id"] != "p1" || svc.lastProjectID != "p1" {
		t.Fatalf("unexpected list_tasks result %#v", structured)
	}
}

func TestHandlerRenderSVGToolCall(t *testing.T) {
	svc := &stubService{chart: common.RenderedChart{ContentType: "image/svg+xml", Body: []byte("<svg>chart</svg>")}}
	server := startServer(t, svc)

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "gantry.render_svg", map[string]any{
		"project_id": "p1",
		"view_mode":  "week",
		"rtl":        true,
	}))
	if got := toolResultText(t, callResp.Result); got != "<svg>chart</svg>" {
		t.Fatalf("text = %q, want svg body", got)
	}
	if svc.lastFormat != common.FormatSVG || svc.lastChart.ViewMode != "week" {
		t.Fatalf("unexpected chart request %#v %q", svc.lastChart, svc.lastFormat)
	}
	if svc.lastChart.RightToLeft == nil || !*svc.lastChart.RightToLeft {
		t.Fatalf("rtl = %v, want true", svc.lastChart.RightToLeft)
	}
	if svc.lastChart.HorizontalDisplay != nil {
		t.Fatalf("horizontal = %v, want unset", *svc.lastChart.HorizontalDisplay)
	}
}

func TestHandlerFitLabelToolCall(t *testing.T) {
	svc := &stubService{fit: common.FitLabelResult{
		Decision: domain.PlacementDecision{
			Mode: domain.PlacementOutsideRight, Text: "Integration", X: 44, Anchor: domain.AnchorStart,
		},
		MeasuredWidth: 90,
	}}
	server := startServer(t, svc)

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "gantry.fit_label", map[string]any{
		"text":           "Integration",
		"start":          0,
		"end":            40,
		"measured_width": 90,
	}))
	structured := toolResultStructured(t, callResp.Result)
	decision, ok := structured["decision"].(map[string]any)
	if !ok || decision["mode"] != "outside_right" {
		t.Fatalf("unexpected decision %#v", structured)
	}
	if svc.lastFit.MeasuredWidth == nil || *svc.lastFit.MeasuredWidth != 90 || svc.lastFit.End != 40 {
		t.Fatalf("unexpected fit request %#v", svc.lastFit)
	}

	_, _ = postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "gantry.fit_label", map[string]any{
		"text":  "Design",
		"start": 0,
		"end":   300,
	}))
	if svc.lastFit.MeasuredWidth != nil {
		t.Fatalf("measured_width = %v, want unset", *svc.lastFit.MeasuredWidth)
	}
}

func TestHandlerTaskActionToolCall(t *testing.T) {
	svc := &stubService{action: common.ActionResult{Action: "dblclick", TaskID: "t1", Forwarded: true, Selected: "t1", Opened: "t1"}}
	server := startServer(t, svc)

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "gantry.task_action", map[string]any{
		"project_id": "p1",
		"task_id":    "t1",
		"action":     "dblclick",
	}))
	structured := toolResultStructured(t, callResp.Result)
	if structured["opened"] != "t1" {
		t.Fatalf("unexpected action result %#v", structured)
	}
	if svc.lastAction.ProjectID != "p1" || svc.lastAction.Action != "dblclick" || svc.lastAction.X != nil {
		t.Fatalf("unexpected action request %#v", svc.lastAction)
	}

	_, _ = postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "gantry.task_action", map[string]any{
		"project_id": "p1",
		"x":          30,
		"y":          65,
		"signal":     "click",
	}))
	if svc.lastAction.X == nil || *svc.lastAction.X != 30 || svc.lastAction.Signal != "click" {
		t.Fatalf("unexpected pointer request %#v", svc.lastAction)
	}
}

func TestHandlerToolErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantPrefix string
	}{
		{name: "not found", err: errors.Join(common.ErrNotFound, errors.New("project p9")), wantPrefix: "not_found: "},
		{name: "invalid", err: errors.Join(common.ErrInvalidRequest, errors.New("bad view")), wantPrefix: "invalid_request: "},
		{name: "internal", err: errors.New("boom"), wantPrefix: "internal_error: "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := startServer(t, &stubService{err: tc.err})
			_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "gantry.list_tasks", map[string]any{
				"project_id": "p9",
			}))
			if isErr, _ := callResp.Result["isError"].(bool); !isErr {
				t.Fatalf("isError = false, want true: %#v", callResp.Result)
			}
			if got := toolResultText(t, callResp.Result); !strings.HasPrefix(got, tc.wantPrefix) {
				t.Fatalf("text = %q, want prefix %q", got, tc.wantPrefix)
			}
		})
	}
}

func TestHandlerRequiresProjectID(t *testing.T) {
	svc := &stubService{}
	server := startServer(t, svc)
	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "gantry.render_svg", map[string]any{}))
	if isErr, _ := callResp.Result["isError"].(bool); !isErr {
		t.Fatalf("isError = false, want true: %#v", callResp.Result)
	}
	if svc.lastFormat != "" {
		t.Fatal("expected render to be skipped without project_id")
	}
}

func TestNormalizeConfigDefaults(t *testing.T) {
	got := normalizeConfig(Config{EndpointPath: "tools/mcp/"})
	if got.ServerName != "gantry" || got.ServerVersion != "dev" || got.EndpointPath != "/tools/mcp" {
		t.Fatalf("unexpected normalized config %#v", got)
	}
	if got := normalizeConfig(Config{}); got.EndpointPath != "/mcp" {
		t.Fatalf("endpoint = %q, want /mcp", got.EndpointPath)
	}
}
