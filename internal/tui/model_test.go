package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/hylla/gantry/internal/adapters/storage/sqlite"
	"github.com/hylla/gantry/internal/app"
	"github.com/hylla/gantry/internal/domain"
	"github.com/hylla/gantry/internal/event"
)

var fixtureNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *app.Service
	project domain.Project
	design  domain.Task
	build   domain.Task
	ship    domain.Task
}

// newFixture seeds an in-memory store with one three-row project.
func newFixture(t *testing.T, allowDelete bool) fixture {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	svc := app.NewService(repo, ids, func() time.Time { return fixtureNow }, app.ServiceConfig{
		Permissions: event.Permissions{Delete: allowDelete},
	})
	ctx := context.Background()
	project, err := svc.CreateProject(ctx, "Launch", "")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	design, err := svc.CreateTask(ctx, app.CreateTaskInput{
		ProjectID:   project.ID,
		Name:        "Design",
		Description: "## Scope\n\nWireframes and review.",
		Start:       fixtureNow,
		End:         fixtureNow.AddDate(0, 0, 3),
		Progress:    40,
	})
	if err != nil {
		t.Fatalf("CreateTask(design) error = %v", err)
	}
	build, err := svc.CreateTask(ctx, app.CreateTaskInput{
		ProjectID:    project.ID,
		Name:         "Build",
		Start:        fixtureNow.AddDate(0, 0, 3),
		End:          fixtureNow.AddDate(0, 0, 8),
		Dependencies: []string{design.ID},
	})
	if err != nil {
		t.Fatalf("CreateTask(build) error = %v", err)
	}
	ship, err := svc.CreateTask(ctx, app.CreateTaskInput{
		ProjectID: project.ID,
		Name:      "Ship",
		Type:      domain.TaskTypeMilestone,
		Start:     fixtureNow.AddDate(0, 0, 8),
	})
	if err != nil {
		t.Fatalf("CreateTask(ship) error = %v", err)
	}
	return fixture{svc: svc, project: project, design: design, build: build, ship: ship}
}

func TestModelLoadsChart(t *testing.T) {
	f := newFixture(t, true)
	m := loadReadyModel(t, NewModel(f.svc))

	if !m.loaded || len(m.projects) != 1 || len(m.frame.Items) != 3 {
		t.Fatalf("unexpected loaded model: loaded=%v projects=%d items=%d", m.loaded, len(m.projects), len(m.frame.Items))
	}
	if m.viewMode != domain.ViewModeDay {
		t.Fatalf("expected configured view mode, got %q", m.viewMode)
	}
	if m.status != "ready" {
		t.Fatalf("expected ready status, got %q", m.status)
	}
	if got := m.infoLine(); got != "3 tasks" {
		t.Fatalf("unexpected info line %q", got)
	}
	chartLines := strings.Split(m.renderChart(), "\n")
	if len(chartLines) != m.chartRows() {
		t.Fatalf("expected %d chart rows, got %d", m.chartRows(), len(chartLines))
	}
	v := m.View()
	if v.Content == nil || v.MouseMode != tea.MouseModeAllMotion || !v.AltScreen {
		t.Fatal("expected alt screen chart view with motion tracking")
	}
}

func TestModelKeyboardSelectionOpenAndClose(t *testing.T) {
	f := newFixture(t, true)
	m := loadReadyModel(t, NewModel(f.svc))

	m = applyMsg(t, m, keyRune('j'))
	if m.view.Selected != f.design.ID {
		t.Fatalf("expected first row selected, got %q", m.view.Selected)
	}
	if !m.frame.Items[0].Selected {
		t.Fatal("expected rebuilt frame to mark the selection")
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	if m.view.Selected != f.build.ID {
		t.Fatalf("expected second row selected, got %q", m.view.Selected)
	}
	if !strings.Contains(m.infoLine(), "selected: Build (2026-03-05 → 2026-03-10)") {
		t.Fatalf("unexpected info line %q", m.infoLine())
	}
	m = applyMsg(t, m, keyRune('k'))
	if m.view.Selected != f.design.ID {
		t.Fatalf("expected selection back on first row, got %q", m.view.Selected)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.detail == nil || m.detail.ID != f.design.ID {
		t.Fatalf("expected detail for design, got %#v", m.detail)
	}
	if f.svc.ViewState(f.project.ID).Opened != f.design.ID {
		t.Fatal("expected service view state to record the opened task")
	}
	overlay := m.renderDetailOverlay(*m.detail, lipgloss.Color("62"), lipgloss.Color("241"), lipgloss.Color("239"), 80)
	for _, want := range []string{"Design", "40%", "esc close"} {
		if !strings.Contains(overlay, want) {
			t.Fatalf("expected detail overlay to contain %q, got %q", want, overlay)
		}
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.detail != nil || m.view.Opened != "" {
		t.Fatal("expected esc to close the detail")
	}
	if f.svc.ViewState(f.project.ID).Opened != "" {
		t.Fatal("expected service view state cleared")
	}
}

func TestModelDeleteRoutesThroughRelay(t *testing.T) {
	f := newFixture(t, true)
	m := loadReadyModel(t, NewModel(f.svc))

	m = applyMsg(t, m, tea.KeyPressMsg{Code: 'd', Text: "d"})
	if m.status != "no task selected" {
		t.Fatalf("expected no selection status, got %q", m.status)
	}

	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDelete})
	if m.status != "deleted Build" {
		t.Fatalf("expected delete status, got %q", m.status)
	}
	if len(m.frame.Items) != 2 {
		t.Fatalf("expected chart rebuilt without the deleted task, got %d items", len(m.frame.Items))
	}
	if _, err := f.svc.GetTask(context.Background(), f.build.ID); !app.IsNotFound(err) {
		t.Fatalf("expected deleted task to be gone, got %v", err)
	}
}

func TestModelDeleteNotPermitted(t *testing.T) {
	f := newFixture(t, false)
	m := loadReadyModel(t, NewModel(f.svc))

	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('d'))
	if m.status != "delete not permitted" {
		t.Fatalf("expected permission status, got %q", m.status)
	}
	if len(m.frame.Items) != 3 {
		t.Fatalf("expected every task kept, got %d", len(m.frame.Items))
	}
}

func TestModelMouseHoverClickAndDoubleClick(t *testing.T) {
	f := newFixture(t, true)
	m := loadReadyModel(t, NewModel(f.svc))

	x, y := screenCellFor(t, m, f.build.ID)
	m = applyMsg(t, m, tea.MouseMotionMsg{X: x, Y: y})
	if m.view.Hovered != f.build.ID {
		t.Fatalf("expected hover on build, got %q", m.view.Hovered)
	}
	if !strings.Contains(m.infoLine(), "hover: Build") {
		t.Fatalf("expected hover in info line, got %q", m.infoLine())
	}

	m = applyMsg(t, m, tea.MouseMotionMsg{X: x, Y: 0})
	if m.view.Hovered != "" {
		t.Fatalf("expected hover cleared outside the chart, got %q", m.view.Hovered)
	}

	m = applyMsg(t, m, tea.MouseClickMsg{X: x, Y: y, Button: tea.MouseRight})
	if m.view.Selected != "" {
		t.Fatal("expected right click to be ignored")
	}
	m = applyMsg(t, m, tea.MouseClickMsg{X: x, Y: y, Button: tea.MouseLeft})
	if m.view.Selected != f.build.ID || m.detail != nil {
		t.Fatalf("expected single click to select only, got view %#v", m.view)
	}
	m = applyMsg(t, m, tea.MouseClickMsg{X: x, Y: y, Button: tea.MouseLeft})
	if m.detail == nil || m.detail.ID != f.build.ID {
		t.Fatal("expected second click to open the detail")
	}
}

func TestModelViewModeAndDisplayToggles(t *testing.T) {
	f := newFixture(t, true)
	m := loadReadyModel(t, NewModel(f.svc, WithViewMode(domain.ViewModeWeek)))
	if m.frame.Layout.ViewMode != domain.ViewModeWeek {
		t.Fatalf("expected week frame, got %q", m.frame.Layout.ViewMode)
	}

	m = applyMsg(t, m, keyRune('v'))
	if m.viewMode != domain.ViewModeMonth || m.frame.Layout.ViewMode != domain.ViewModeMonth {
		t.Fatalf("expected month after cycling, got %q / %q", m.viewMode, m.frame.Layout.ViewMode)
	}

	m = applyMsg(t, m, keyRune('R'))
	if !m.rightToLeft || !m.frame.Config().Layout.RightToLeft {
		t.Fatal("expected right-to-left frame")
	}
	m = applyMsg(t, m, keyRune('H'))
	if !m.horizontal || !m.frame.Config().HorizontalDisplay {
		t.Fatal("expected horizontal display frame")
	}
	if m.status != "horizontal labels on" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelCopySelectedName(t *testing.T) {
	f := newFixture(t, true)
	copied := ""
	m := loadReadyModel(t, NewModel(f.svc, WithClipboard(func(s string) error {
		copied = s
		return nil
	})))

	m = applyMsg(t, m, keyRune('y'))
	if m.status != "no task selected" || copied != "" {
		t.Fatalf("expected nothing copied without selection, status %q", m.status)
	}
	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('y'))
	if copied != "Design" || m.status != "copied Design" {
		t.Fatalf("expected design copied, got %q status %q", copied, m.status)
	}

	m.copy = func(string) error { return errors.New("no clipboard") }
	m = applyMsg(t, m, keyRune('y'))
	if m.status != "copy failed: no clipboard" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelProjectSwitch(t *testing.T) {
	f := newFixture(t, true)
	second, err := f.svc.CreateProject(context.Background(), "Zeta", "")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	m := loadReadyModel(t, NewModel(f.svc))
	if len(m.projects) != 2 {
		t.Fatalf("expected two projects, got %d", len(m.projects))
	}
	if project, _ := m.currentProject(); project.ID != f.project.ID {
		t.Fatalf("expected oldest project first, got %q", project.Name)
	}

	m = applyMsg(t, m, keyRune('p'))
	project, _ := m.currentProject()
	if project.ID != second.ID || len(m.frame.Items) != 0 {
		t.Fatalf("expected empty chart for %q, got %q with %d items", second.Name, project.Name, len(m.frame.Items))
	}
	m = applyMsg(t, m, keyRune('p'))
	if project, _ := m.currentProject(); project.ID != f.project.ID || len(m.frame.Items) != 3 {
		t.Fatal("expected project switch to wrap around")
	}
}

func TestModelScrollClamps(t *testing.T) {
	f := newFixture(t, true)
	m := loadReadyModel(t, NewModel(f.svc))
	m = applyMsg(t, m, tea.WindowSizeMsg{Width: 20, Height: 12})

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyLeft})
	if m.scrollX != 0 {
		t.Fatalf("expected scroll clamped at 0, got %d", m.scrollX)
	}
	for range 50 {
		m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	}
	if m.scrollX != m.maxScrollX() || m.scrollX == 0 {
		t.Fatalf("expected scroll clamped at max %d, got %d", m.maxScrollX(), m.scrollX)
	}
	m = applyMsg(t, m, tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	if m.scrollY > m.maxScrollY() {
		t.Fatalf("expected vertical scroll within bounds, got %d", m.scrollY)
	}
}

func TestModelHelpOverlayBlocksChartKeys(t *testing.T) {
	f := newFixture(t, true)
	m := loadReadyModel(t, NewModel(f.svc))

	m = applyMsg(t, m, keyRune('?'))
	if !m.help.ShowAll {
		t.Fatal("expected help overlay")
	}
	m = applyMsg(t, m, keyRune('j'))
	if m.view.Selected != "" {
		t.Fatal("expected chart keys ignored under help")
	}
	if !strings.Contains(m.renderHelpOverlay(lipgloss.Color("62"), lipgloss.Color("241"), lipgloss.Color("239"), 80), "gantry help") {
		t.Fatal("expected help overlay title")
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.help.ShowAll {
		t.Fatal("expected esc to close help")
	}
}

func TestModelNoProjectsAndErrors(t *testing.T) {
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	svc := app.NewService(repo, nil, nil, app.ServiceConfig{})

	m := NewModel(svc)
	if v := m.View(); v.Content == nil {
		t.Fatal("expected loading view")
	}
	m = loadReadyModel(t, m)
	if m.loaded || m.status != "no projects" {
		t.Fatalf("expected empty state, got loaded=%v status=%q", m.loaded, m.status)
	}

	m = applyMsg(t, m, loadedMsg{err: context.DeadlineExceeded})
	if !errors.Is(m.err, context.DeadlineExceeded) {
		t.Fatalf("expected load error kept, got %v", m.err)
	}
	if v := m.View(); v.Content == nil {
		t.Fatal("expected error view")
	}
	m = applyMsg(t, m, actionMsg{err: errors.New("boom")})
	if m.status != "boom" {
		t.Fatalf("expected action error in status, got %q", m.status)
	}
}

func TestModelQuitKey(t *testing.T) {
	f := newFixture(t, true)
	m := NewModel(f.svc)
	updated, cmd := m.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	if updated == nil {
		t.Fatal("expected model return value")
	}
	if cmd == nil {
		t.Fatal("expected quit cmd")
	}
}

func TestHelpersCoverage(t *testing.T) {
	if clamp(5, 0, 3) != 3 || clamp(-1, 0, 3) != 0 || clamp(2, 4, 1) != 4 {
		t.Fatal("unexpected clamp results")
	}
	if got := fitLines("a\nb\nc", 2); got != "a\n…" {
		t.Fatalf("unexpected fitLines truncation %q", got)
	}
	if got := fitLines("a", 3); got != "a\n\n" {
		t.Fatalf("unexpected fitLines padding %q", got)
	}
	if got := overlayOnContent("base", "top", 0, 0); got != "top\n\nbase" {
		t.Fatalf("unexpected overlay fallback %q", got)
	}
	if onOff(true) != "on" || onOff(false) != "off" {
		t.Fatal("unexpected onOff")
	}
	milestone := domain.Task{Type: domain.TaskTypeMilestone, Start: fixtureNow, End: fixtureNow}
	if got := formatRange(milestone); got != "2026-03-02" {
		t.Fatalf("unexpected milestone range %q", got)
	}
}

// screenCellFor returns the screen cell at the middle of a task bar.
func screenCellFor(t *testing.T, m Model, taskID string) (int, int) {
	t.Helper()
	item, ok := m.frame.Item(taskID)
	if !ok {
		t.Fatalf("task %q not on chart", taskID)
	}
	bar := item.Bar
	x := int(math.Floor((bar.X1+bar.X2)/2/m.cellWidth)) - m.scrollX
	y := chartTop + m.headerRows() + int(math.Floor((bar.Y+bar.Height/2-m.frame.HeaderHeight)/m.cellHeight)) - m.scrollY
	if _, _, inside := m.chartPoint(x, y); !inside {
		t.Fatalf("cell (%d,%d) for %q is outside the chart body", x, y, taskID)
	}
	return x, y
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	return applyMsg(t, applyCmd(t, m, m.Init()), tea.WindowSizeMsg{Width: 120, Height: 40})
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return applyCmd(t, out, cmd)
}

func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	out := m
	currentCmd := cmd
	for i := 0; i < 6 && currentCmd != nil; i++ {
		msg := currentCmd()
		updated, nextCmd := out.Update(msg)
		casted, ok := updated.(Model)
		if !ok {
			t.Fatalf("expected Model, got %T", updated)
		}
		out = casted
		currentCmd = nextCmd
	}
	return out
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}
