package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hylla/gantry/internal/adapters/server/common"
	"github.com/hylla/gantry/internal/domain"
)

// stubService provides deterministic responses for handler tests.
type stubService struct {
	projects []common.ProjectSummary
	tasks    []common.TaskSummary
	chart    common.RenderedChart
	fit      common.FitLabelResult
	action   common.ActionResult
	err      error

	lastArchived   bool
	lastProjectID  string
	lastChart      common.ChartRequest
	lastFormat     string
	lastFit        common.FitLabelRequest
	lastAction     common.ActionRequest
	fitCalls       int
	dispatchCalled bool
}

func (s *stubService) ListProjects(_ context.Context, includeArchived bool) ([]common.ProjectSummary, error) {
	s.lastArchived = includeArchived
	if s.err != nil {
		return nil, s.err
	}
	return s.projects, nil
}

func (s *stubService) ListTasks(_ context.Context, projectID string) ([]common.TaskSummary, error) {
	s.lastProjectID = projectID
	if s.err != nil {
		return nil, s.err
	}
	return s.tasks, nil
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
	s.fitCalls++
	if s.err != nil {
		return common.FitLabelResult{}, s.err
	}
	return s.fit, nil
}

func (s *stubService) DispatchAction(_ context.Context, req common.ActionRequest) (common.ActionResult, error) {
	s.lastAction = req
	s.dispatchCalled = true
	if s.err != nil {
		return common.ActionResult{}, s.err
	}
	return s.action, nil
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return env
}

func TestHandlerListProjectsAndTasks(t *testing.T) {
	svc := &stubService{
		projects: []common.ProjectSummary{{ID: "p1", Slug: "launch", Name: "Launch"}},
		tasks:    []common.TaskSummary{{ID: "t1", Name: "Design", Type: "task", Dependencies: []string{}}},
	}
	handler := NewHandler(svc)

	rec := serve(handler, http.MethodGet, "/projects?include_archived=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var projects struct {
		Projects []common.ProjectSummary `json:"projects"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&projects); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(projects.Projects) != 1 || !svc.lastArchived {
		t.Fatalf("unexpected projects response %#v (archived=%v)", projects, svc.lastArchived)
	}

	rec = serve(handler, http.MethodGet, "/projects/p1/tasks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if svc.lastProjectID != "p1" {
		t.Fatalf("project_id = %q, want p1", svc.lastProjectID)
	}
	if !strings.Contains(rec.Body.String(), `"name":"Design"`) {
		t.Fatalf("unexpected tasks body %s", rec.Body.String())
	}
}

func TestHandlerChartEndpoints(t *testing.T) {
	svc := &stubService{chart: common.RenderedChart{ContentType: "image/svg+xml", Body: []byte("<svg/>")}}
	handler := NewHandler(svc)

	rec := serve(handler, http.MethodGet, "/projects/p1/chart.svg?view_mode=week&rtl=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Header().Get("Content-Type") != "image/svg+xml" || rec.Body.String() != "<svg/>" {
		t.Fatalf("unexpected chart response %q %q", rec.Header().Get("Content-Type"), rec.Body.String())
	}
	if svc.lastFormat != common.FormatSVG || svc.lastChart.ViewMode != "week" {
		t.Fatalf("unexpected chart request %#v %q", svc.lastChart, svc.lastFormat)
	}
	if svc.lastChart.RightToLeft == nil || !*svc.lastChart.RightToLeft || svc.lastChart.HorizontalDisplay != nil {
		t.Fatalf("unexpected display flags %#v", svc.lastChart)
	}

	_ = serve(handler, http.MethodGet, "/projects/p1/chart.pdf", "")
	if svc.lastFormat != common.FormatPDF {
		t.Fatalf("format = %q, want pdf", svc.lastFormat)
	}

	rec = serve(handler, http.MethodGet, "/projects/p1/chart.svg?rtl=maybe", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandlerActionAndFit(t *testing.T) {
	svc := &stubService{
		action: common.ActionResult{Action: "select", TaskID: "t1", Forwarded: true, Selected: "t1"},
		fit: common.FitLabelResult{Decision: domain.PlacementDecision{
			Mode: domain.PlacementInside, Text: "Quarterly Pl…", Truncated: true, X: 50, Anchor: domain.AnchorMiddle,
		}, MeasuredWidth: 160},
	}
	handler := NewHandler(svc)

	rec := serve(handler, http.MethodPost, "/projects/p1/actions", `{"task_id":"t1","action":"select"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if svc.lastAction.ProjectID != "p1" || svc.lastAction.TaskID != "t1" || svc.lastAction.Action != "select" {
		t.Fatalf("unexpected action request %#v", svc.lastAction)
	}
	var res common.ActionResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if res.Selected != "t1" || !res.Forwarded {
		t.Fatalf("unexpected action result %#v", res)
	}

	rec = serve(handler, http.MethodPost, "/projects/p1/actions", `{"x":12.5,"y":60,"signal":"click"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if svc.lastAction.X == nil || *svc.lastAction.X != 12.5 || svc.lastAction.Signal != "click" {
		t.Fatalf("unexpected pointer request %#v", svc.lastAction)
	}

	rec = serve(handler, http.MethodPost, "/label/fit", `{"text":"Quarterly Planning Review","start":0,"end":100,"measured_width":160}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if svc.lastFit.MeasuredWidth == nil || *svc.lastFit.MeasuredWidth != 160 || svc.lastFit.End != 100 {
		t.Fatalf("unexpected fit request %#v", svc.lastFit)
	}
	if !strings.Contains(rec.Body.String(), `"mode":"inside"`) {
		t.Fatalf("unexpected fit body %s", rec.Body.String())
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "invalid request", err: errors.Join(common.ErrInvalidRequest, errors.New("bad input")), wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "not found", err: errors.Join(common.ErrNotFound, errors.New("missing")), wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "internal error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHandler(&stubService{err: tc.err})
			rec := serve(handler, http.MethodGet, "/projects/p1/tasks", "")
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if env := decodeEnvelope(t, rec); env.Error.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", env.Error.Code, tc.wantCode)
			}
		})
	}
}

func TestHandlerRouteGuards(t *testing.T) {
	svc := &stubService{}
	handler := NewHandler(svc)
	cases := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantAllow  string
	}{
		{name: "unknown", method: http.MethodGet, target: "/nope", wantStatus: http.StatusNotFound},
		{name: "deep project path", method: http.MethodGet, target: "/projects/p1/tasks/t1", wantStatus: http.StatusNotFound},
		{name: "unknown resource", method: http.MethodGet, target: "/projects/p1/chart.png", wantStatus: http.StatusNotFound},
		{name: "projects post", method: http.MethodPost, target: "/projects", wantStatus: http.StatusMethodNotAllowed, wantAllow: http.MethodGet},
		{name: "actions get", method: http.MethodGet, target: "/projects/p1/actions", wantStatus: http.StatusMethodNotAllowed, wantAllow: http.MethodPost},
		{name: "fit get", method: http.MethodGet, target: "/label/fit", wantStatus: http.StatusMethodNotAllowed, wantAllow: http.MethodPost},
		{name: "unknown field", method: http.MethodPost, target: "/projects/p1/actions", body: `{"task":"t1"}`, wantStatus: http.StatusBadRequest},
		{name: "trailing content", method: http.MethodPost, target: "/label/fit", body: `{"text":"a"} {}`, wantStatus: http.StatusBadRequest},
		{name: "empty body", method: http.MethodPost, target: "/projects/p1/actions", wantStatus: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(handler, tc.method, tc.target, tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantAllow != "" && rec.Header().Get("Allow") != tc.wantAllow {
				t.Fatalf("Allow = %q, want %q", rec.Header().Get("Allow"), tc.wantAllow)
			}
		})
	}
	if svc.dispatchCalled {
		t.Fatal("expected malformed bodies never to reach the service")
	}
}

func TestHandlerServiceUnavailable(t *testing.T) {
	rec := serve(NewHandler(nil), http.MethodGet, "/projects", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
