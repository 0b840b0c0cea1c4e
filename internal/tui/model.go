package tui

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/hylla/gantry/internal/app"
	"github.com/hylla/gantry/internal/chart"
	"github.com/hylla/gantry/internal/domain"
	"github.com/hylla/gantry/internal/event"
	"github.com/hylla/gantry/internal/measure"
)

// Service is the slice of the application service the chart view needs.
type Service interface {
	ListProjects(context.Context, bool) ([]domain.Project, error)
	BuildChart(context.Context, string, app.ChartOptions) (chart.Frame, error)
	GetTask(context.Context, string) (domain.Task, error)
	ViewState(string) app.ViewState
	CloseDetail(string) app.ViewState
	Relay() *event.Relay
	Tracker() *event.Tracker
}

// Model renders one project chart and routes terminal input into chart events.
type Model struct {
	svc     Service
	relay   *event.Relay
	tracker *event.Tracker
	labeler *chart.Labeler
	md      *markdownRenderer
	copy    func(string) error
	watcher *FileWatcher

	help        help.Model
	keys        keyMap
	showHelpBar bool

	ready  bool
	width  int
	height int

	projects         []domain.Project
	selectedProject  int
	pendingProjectID string
	frame            chart.Frame
	loaded           bool
	view             app.ViewState
	detail           *domain.Task

	viewMode    domain.ViewMode
	rightToLeft bool
	horizontal  bool
	displaySet  bool
	cellWidth   float64
	cellHeight  float64
	scrollX     int
	scrollY     int

	status string
	err    error
}

// loadedMsg carries a rebuilt chart.
type loadedMsg struct {
	projects        []domain.Project
	selectedProject int
	frame           chart.Frame
	view            app.ViewState
	detail          *domain.Task
	err             error
}

// actionMsg reports the outcome of an asynchronous action.
type actionMsg struct {
	err    error
	status string
	reload bool
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:         svc,
		relay:       svc.Relay(),
		tracker:     svc.Tracker(),
		md:          &markdownRenderer{},
		copy:        defaultClipboard,
		help:        h,
		keys:        newKeyMap(),
		showHelpBar: true,
		cellWidth:   defaultCellWidth,
		cellHeight:  defaultCellHeight,
		status:      "loading...",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.labeler = chart.NewLabeler(m.measurer())
	return m
}

func (m Model) measurer() measure.Cells {
	return measure.Cells{CellWidth: m.cellWidth}
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadData, m.watcher.wait())
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.clampScroll()
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.projects = msg.projects
		m.selectedProject = msg.selectedProject
		m.pendingProjectID = ""
		if len(m.projects) == 0 {
			m.loaded = false
			m.detail = nil
			m.status = "no projects"
			return m, nil
		}
		first := !m.loaded
		m.frame = msg.frame
		m.loaded = true
		m.view = msg.view
		m.detail = msg.detail
		if m.viewMode == "" {
			m.viewMode = msg.frame.Layout.ViewMode
		}
		if !m.displaySet {
			cfg := msg.frame.Config()
			m.rightToLeft = cfg.Layout.RightToLeft
			m.horizontal = cfg.HorizontalDisplay
			m.displaySet = true
		}
		if first && m.rightToLeft {
			m.scrollX = m.maxScrollX()
		}
		m.clampScroll()
		if m.status == "" || m.status == "loading..." || m.status == "reloading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.reload {
			return m, m.loadData
		}
		return m, nil

	case dbChangedMsg:
		if msg.err != nil {
			m.status = "watch: " + msg.err.Error()
		}
		return m, tea.Batch(m.loadData, m.watcher.wait())

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		return m, nil
	}
}

// loadData rebuilds the chart of the current project.
func (m Model) loadData() tea.Msg {
	ctx := context.Background()
	projects, err := m.svc.ListProjects(ctx, false)
	if err != nil {
		return loadedMsg{err: err}
	}
	if len(projects) == 0 {
		return loadedMsg{projects: projects}
	}

	idx := clamp(m.selectedProject, 0, len(projects)-1)
	if pending := strings.TrimSpace(m.pendingProjectID); pending != "" {
		for i, project := range projects {
			if project.ID == pending {
				idx = i
				break
			}
		}
	}
	projectID := projects[idx].ID

	opts := app.ChartOptions{
		ViewMode: m.viewMode,
		Measurer: m.measurer(),
		Labeler:  m.labeler,
	}
	if m.displaySet {
		rtl, horizontal := m.rightToLeft, m.horizontal
		opts.RightToLeft = &rtl
		opts.HorizontalDisplay = &horizontal
	}
	frame, err := m.svc.BuildChart(ctx, projectID, opts)
	if err != nil {
		return loadedMsg{err: err}
	}

	view := m.svc.ViewState(projectID)
	var detail *domain.Task
	if view.Opened != "" {
		task, err := m.svc.GetTask(ctx, view.Opened)
		if err == nil {
			detail = &task
		}
	}
	return loadedMsg{
		projects:        projects,
		selectedProject: idx,
		frame:           frame,
		view:            view,
		detail:          detail,
	}
}

func (m Model) currentProject() (domain.Project, bool) {
	if len(m.projects) == 0 {
		return domain.Project{}, false
	}
	return m.projects[clamp(m.selectedProject, 0, len(m.projects)-1)], true
}

// selectedIndex returns the row of the selected task, or -1.
func (m Model) selectedIndex() int {
	for i, item := range m.frame.Items {
		if item.Bar.Task.ID == m.view.Selected {
			return i
		}
	}
	return -1
}

func (m Model) selectedItem() (chart.Item, bool) {
	idx := m.selectedIndex()
	if idx < 0 {
		return chart.Item{}, false
	}
	return m.frame.Items[idx], true
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.closeTask):
		if m.help.ShowAll {
			m.help.ShowAll = false
			return m, nil
		}
		if project, ok := m.currentProject(); ok && m.view.Opened != "" {
			m.view = m.svc.CloseDetail(project.ID)
			m.detail = nil
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	}
	if m.help.ShowAll || !m.loaded {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.moveUp):
		return m.moveSelection(-1)
	case key.Matches(msg, m.keys.moveDown):
		return m.moveSelection(1)
	case key.Matches(msg, m.keys.scrollLeft):
		m.scrollX -= m.scrollStep()
		m.clampScroll()
		return m, nil
	case key.Matches(msg, m.keys.scrollRight):
		m.scrollX += m.scrollStep()
		m.clampScroll()
		return m, nil
	case key.Matches(msg, m.keys.openTask):
		return m.openSelected()
	case key.Matches(msg, m.keys.deleteTask):
		return m.deleteSelected()
	case key.Matches(msg, m.keys.copyName):
		item, ok := m.selectedItem()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		if err := m.copy(item.Bar.Task.Name); err != nil {
			m.status = "copy failed: " + err.Error()
			return m, nil
		}
		m.status = "copied " + item.Bar.Task.Name
		return m, nil
	case key.Matches(msg, m.keys.cycleViewMode):
		m.viewMode = m.viewMode.Next()
		m.scrollX = 0
		m.status = "view: " + string(m.viewMode)
		return m, m.loadData
	case key.Matches(msg, m.keys.toggleRTL):
		m.rightToLeft = !m.rightToLeft
		m.displaySet = true
		m.status = "right-to-left " + onOff(m.rightToLeft)
		return m, m.loadData
	case key.Matches(msg, m.keys.toggleVertical):
		m.horizontal = !m.horizontal
		m.displaySet = true
		m.status = "horizontal labels " + onOff(m.horizontal)
		return m, m.loadData
	case key.Matches(msg, m.keys.nextProject):
		if len(m.projects) < 2 {
			return m, nil
		}
		next := (m.selectedProject + 1) % len(m.projects)
		m.pendingProjectID = m.projects[next].ID
		m.scrollX, m.scrollY = 0, 0
		m.tracker = m.svc.Tracker()
		m.status = "project: " + m.projects[next].Name
		return m, m.loadData
	}
	return m, nil
}

// moveSelection focuses the task delta rows away from the current selection.
func (m Model) moveSelection(delta int) (tea.Model, tea.Cmd) {
	if len(m.frame.Items) == 0 {
		return m, nil
	}
	idx := m.selectedIndex()
	switch {
	case idx < 0 && delta > 0:
		idx = 0
	case idx < 0:
		idx = len(m.frame.Items) - 1
	default:
		idx = clamp(idx+delta, 0, len(m.frame.Items)-1)
	}
	bar := m.frame.Items[idx].Bar
	if err := m.relay.Pointer(context.Background(), event.SignalFocus, bar); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.view.Selected = bar.Task.ID
	m.scrollTo(bar)
	return m, m.loadData
}

// openSelected double clicks the selected task, which opens its detail.
func (m Model) openSelected() (tea.Model, tea.Cmd) {
	item, ok := m.selectedItem()
	if !ok {
		if len(m.frame.Items) == 0 {
			return m, nil
		}
		item = m.frame.Items[0]
	}
	if err := m.relay.Pointer(context.Background(), event.SignalDoubleClick, item.Bar); err != nil {
		m.status = err.Error()
		return m, nil
	}
	return m, m.loadData
}

// deleteSelected sends the delete key for the selected task through the relay.
func (m Model) deleteSelected() (tea.Model, tea.Cmd) {
	item, ok := m.selectedItem()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	relay := m.relay
	bar := item.Bar
	return m, func() tea.Msg {
		res, err := relay.Key(context.Background(), event.KeyDelete, bar)
		if err != nil {
			return actionMsg{err: err}
		}
		if !res.Forwarded {
			return actionMsg{status: "delete not permitted"}
		}
		return actionMsg{status: "deleted " + bar.Task.Name, reload: true}
	}
}

// chartTop is the screen row where the chart starts.
const chartTop = 2

func (m Model) headerRows() int {
	if m.frame.HeaderHeight <= 0 {
		return 0
	}
	return int(math.Ceil(m.frame.HeaderHeight / m.cellHeight))
}

// chartRows returns the screen rows available to the chart, header included.
func (m Model) chartRows() int {
	return max(0, m.height-chartTop-lipgloss.Height(m.renderFooter()))
}

func (m Model) bodyRows() int {
	return max(0, m.chartRows()-m.headerRows())
}

func (m Model) maxScrollX() int {
	cols := int(math.Ceil(m.frame.Width / m.cellWidth))
	return max(0, cols-m.width)
}

func (m Model) maxScrollY() int {
	rows := int(math.Ceil((m.frame.Height - m.frame.HeaderHeight) / m.cellHeight))
	return max(0, rows-m.bodyRows())
}

func (m *Model) clampScroll() {
	m.scrollX = clamp(m.scrollX, 0, m.maxScrollX())
	m.scrollY = clamp(m.scrollY, 0, m.maxScrollY())
}

func (m Model) scrollStep() int {
	return max(1, m.width/4)
}

// scrollTo brings bar into view.
func (m *Model) scrollTo(bar domain.BarTask) {
	row := int(math.Floor((bar.Y-m.frame.HeaderHeight)/m.cellHeight))
	rows := m.bodyRows()
	if row < m.scrollY {
		m.scrollY = row
	}
	if last := row + int(math.Ceil(bar.Height/m.cellHeight)); rows > 0 && last > m.scrollY+rows {
		m.scrollY = last - rows
	}
	col := int(math.Floor(bar.X1 / m.cellWidth))
	if col < m.scrollX || col >= m.scrollX+m.width {
		m.scrollX = col - 2
	}
	m.clampScroll()
}

// chartPoint maps a screen cell to chart coordinates at the cell center. Cells
// outside the body of the chart report false.
func (m Model) chartPoint(x, y int) (float64, float64, bool) {
	rel := y - chartTop - m.headerRows()
	if rel < 0 || rel >= m.bodyRows() || x < 0 || x >= m.width {
		return 0, 0, false
	}
	cx := (float64(x+m.scrollX) + 0.5) * m.cellWidth
	cy := m.frame.HeaderHeight + (float64(rel+m.scrollY)+0.5)*m.cellHeight
	return cx, cy, true
}

func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if !m.loaded || m.help.ShowAll || m.detail != nil {
		return m, nil
	}
	x, y, ok := m.chartPoint(msg.X, msg.Y)
	if !ok {
		x, y = -1, -1
	}
	if err := m.tracker.Move(context.Background(), m.frame.Bars(), x, y); err != nil {
		m.status = err.Error()
		return m, nil
	}
	if project, ok := m.currentProject(); ok {
		m.view = m.svc.ViewState(project.ID)
	}
	return m, nil
}

func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if !m.loaded || m.help.ShowAll || msg.Button != tea.MouseLeft {
		return m, nil
	}
	x, y, ok := m.chartPoint(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	_, hit, err := m.tracker.Click(context.Background(), m.frame.Bars(), x, y)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	if !hit {
		return m, nil
	}
	return m, m.loadData
}

func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if !m.loaded || m.help.ShowAll {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.scrollY--
	case tea.MouseWheelDown:
		m.scrollY++
	case tea.MouseWheelLeft:
		m.scrollX -= 2
	case tea.MouseWheelRight:
		m.scrollX += 2
	}
	m.clampScroll()
	return m, nil
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		return newView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
	}
	if !m.ready {
		return newView("loading...")
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	accent := lipgloss.Color("62")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	project, ok := m.currentProject()
	if !ok && m.status == "loading..." {
		return newView("loading...")
	}
	if !ok {
		content := strings.Join([]string{
			titleStyle.Render("gantry"),
			"",
			"No projects yet.",
			"Import a snapshot or seed plan with `gantry import`.",
			"Press q to quit.",
		}, "\n")
		return newView(fitLines(content, max(1, m.height-lipgloss.Height(m.renderFooter()))) + "\n" + m.renderFooter())
	}

	header := titleStyle.Render("gantry") + "  " + project.Name
	header += statusStyle.Render("  [" + string(m.viewMode) + "]")
	if m.rightToLeft {
		header += statusStyle.Render("  rtl")
	}
	if m.horizontal {
		header += statusStyle.Render("  horizontal")
	}
	if len(m.projects) > 1 {
		header += statusStyle.Render(fmt.Sprintf("  %d/%d", m.selectedProject+1, len(m.projects)))
	}

	sections := []string{
		header,
		lipgloss.NewStyle().Foreground(muted).Render(m.infoLine()),
		m.renderChart(),
	}
	content := fitLines(strings.Join(sections, "\n"), max(1, m.height-lipgloss.Height(m.renderFooter())))
	full := content + "\n" + m.renderFooter()

	overlay := ""
	switch {
	case m.help.ShowAll:
		overlay = m.renderHelpOverlay(accent, muted, dim, m.width-8)
	case m.detail != nil:
		overlay = m.renderDetailOverlay(*m.detail, accent, muted, dim, m.width-8)
	}
	if overlay != "" {
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, m.height))
	}
	return newView(full)
}

func newView(content string) tea.View {
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeAllMotion
	v.AltScreen = true
	return v
}

func (m Model) infoLine() string {
	parts := []string{}
	if item, ok := m.selectedItem(); ok {
		task := item.Bar.Task
		parts = append(parts, "selected: "+task.Name+" ("+formatRange(task)+")")
	}
	if m.view.Hovered != "" && m.view.Hovered != m.view.Selected {
		if item, ok := m.frame.Item(m.view.Hovered); ok {
			parts = append(parts, "hover: "+item.Bar.Task.Name)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d tasks", len(m.frame.Items))
	}
	return strings.Join(parts, "  •  ")
}

// renderChart rasterizes the frame: the calendar header stays pinned while
// the body scrolls.
func (m Model) renderChart() string {
	rows := m.chartRows()
	if rows <= 0 || m.width <= 0 {
		return ""
	}
	headerRows := min(m.headerRows(), rows)
	out := []string{}
	if headerRows > 0 {
		head := newCellCanvas(m.width, headerRows, m.cellWidth, m.cellHeight, m.scrollX, 0)
		m.frame.Draw(head)
		out = append(out, head.String())
	}
	if body := rows - headerRows; body > 0 {
		c := newCellCanvas(m.width, body, m.cellWidth, m.cellHeight, m.scrollX, m.scrollY+headerRows)
		m.frame.Draw(c)
		out = append(out, c.String())
	}
	return strings.Join(out, "\n")
}

func (m Model) renderFooter() string {
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Render(m.status)
	if !m.showHelpBar {
		return status
	}
	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		BorderTop(true).
		BorderForeground(lipgloss.Color("239")).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))
	return status + "\n" + helpLine
}

func (m Model) renderHelpOverlay(accent, muted, dim color.Color, maxWidth int) string {
	width := clamp(maxWidth, 40, 90)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("gantry help"),
		"",
		hb.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(muted).Render("click selects • double click opens • hover highlights"),
		lipgloss.NewStyle().Foreground(muted).Render("press ? or esc to close"),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderDetailOverlay(task domain.Task, accent, muted, dim color.Color, maxWidth int) string {
	width := clamp(maxWidth, 40, 90)
	meta := lipgloss.NewStyle().Foreground(muted)
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render(task.Name),
		meta.Render(fmt.Sprintf("%s • %s • %.0f%%", task.Type, formatRange(task), task.Progress)),
	}
	if len(task.Dependencies) > 0 {
		names := make([]string, 0, len(task.Dependencies))
		for _, id := range task.Dependencies {
			if item, ok := m.frame.Item(id); ok {
				names = append(names, item.Bar.Task.Name)
				continue
			}
			names = append(names, id)
		}
		lines = append(lines, meta.Render("depends on: "+strings.Join(names, ", ")))
	}
	if task.IsDisabled {
		lines = append(lines, meta.Render("disabled"))
	}
	if desc := m.md.render(task.Description, width-4); desc != "" {
		lines = append(lines, "", desc)
	}
	lines = append(lines, "", meta.Render("esc close"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

func formatRange(task domain.Task) string {
	start := task.Start.UTC().Format("2006-01-02")
	if task.Type == domain.TaskTypeMilestone || task.End.Equal(task.Start) {
		return start
	}
	return start + " → " + task.End.UTC().Format("2006-01-02")
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}
