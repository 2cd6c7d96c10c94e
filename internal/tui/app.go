// internal/tui/app.go
//
// This is the terminal UI for acmeblogs. It uses bubbletea, which follows
// The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// Remote work (loading employees, refreshing the post list) runs inside
// tea.Cmd goroutines and reports back as messages.

package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/kingrea/acme-blogs/internal/config"
	"github.com/kingrea/acme-blogs/internal/gateway"
	"github.com/kingrea/acme-blogs/internal/logbook"
	"github.com/kingrea/acme-blogs/internal/model"
	"github.com/kingrea/acme-blogs/internal/render"
	"github.com/kingrea/acme-blogs/internal/uitree"
)

const logPanelLines = 6

// paneFocus says which pane receives navigation keys.
type paneFocus int

const (
	focusEmployees paneFocus = iota
	focusPosts
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithGateway replaces the HTTP gateway built from config.
func WithGateway(gw gateway.Gateway) AppOption {
	return func(a *App) {
		if gw != nil {
			a.gateway = gw
		}
	}
}

// WithLogger routes structured logs (gateway requests, refresh outcomes).
func WithLogger(l logrus.FieldLogger) AppOption {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

type employeesLoadedMsg struct {
	employees []model.Employee
	err       error
}

type refreshDoneMsg struct {
	name   string
	result *render.SelectionResult
	err    error
}

// ExternalChangeMsg tells the App that something outside the update loop
// (the event bridge) changed the session. UserID is set when the change was
// a selection and names the employee now shown.
type ExternalChangeMsg struct {
	Kind   string
	Detail string
	UserID int
}

// employeeItem implements list.Item for the employee menu
type employeeItem struct {
	employee model.Employee
}

func (i employeeItem) Title() string { return i.employee.Name }
func (i employeeItem) Description() string {
	return fmt.Sprintf("@%s · %s", i.employee.Username, i.employee.Company.Name)
}
func (i employeeItem) FilterValue() string { return i.employee.Name }

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	config       *config.Config
	gateway      gateway.Gateway
	log          logrus.FieldLogger
	logbook      *logbook.Logbook
	session      *render.Session
	orchestrator *render.Orchestrator
	selector     *render.Selector

	// UI components
	employees list.Model
	posts     viewport.Model
	spinner   spinner.Model

	focus            paneFocus
	cursor           int
	loadingEmployees bool
	inFlight         int
	selectedName     string
	statusMsg        string
	err              error

	width  int
	height int
}

// NewApp creates a new App instance for projectDir.
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	logPath := filepath.Join(cfg.LogsDir(), "journey.log")
	lb, err := logbook.New(logPath)
	if err == nil {
		lb.Info("Session opened · API %s", cfg.APIBaseURL())
	}

	menu := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	menu.Title = "Employees"
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)
	menu.SetShowHelp(false)

	app := &App{
		config:           cfg,
		logbook:          lb,
		log:              discardLogger(),
		employees:        menu,
		posts:            viewport.New(0, 0),
		spinner:          spinner.New(spinner.WithSpinner(spinner.Dot)),
		focus:            focusEmployees,
		loadingEmployees: true,
		statusMsg:        "Loading employees...",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.gateway == nil {
		app.gateway = gateway.NewClient(cfg.APIBaseURL(),
			gateway.WithTimeout(cfg.APITimeout()),
			gateway.WithLogger(app.log))
	}
	app.session = render.NewSession()
	builder := render.NewBuilder(app.gateway,
		render.WithEnrichment(render.ParseEnrichment(cfg.Enrichment()), cfg.MaxParallel()),
		render.WithBuilderLogger(app.log))
	app.orchestrator = render.NewOrchestrator(app.session, builder, render.WithOrchestratorLogger(app.log))
	app.selector = render.NewSelector(app.gateway, app.orchestrator, cfg.DefaultEmployee())
	app.orchestrator.ShowPlaceholder()
	app.syncPosts()
	return app, nil
}

// Config returns the loaded project config.
func (a *App) Config() *config.Config {
	return a.config
}

// Session exposes the render session so the event bridge can share it.
func (a *App) Session() *render.Session {
	return a.session
}

// Selector exposes the selection controller for the event bridge.
func (a *App) Selector() *render.Selector {
	return a.selector
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.loadEmployees())
}

func (a *App) loadEmployees() tea.Cmd {
	gw := a.gateway
	return func() tea.Msg {
		employees, err := gw.FetchEmployees(context.Background())
		return employeesLoadedMsg{employees: employees, err: err}
	}
}

// selectEmployee starts a selection change for value (an employee id).
func (a *App) selectEmployee(value, name string) tea.Cmd {
	selector := a.selector
	a.inFlight++
	a.err = nil
	a.statusMsg = fmt.Sprintf("Loading posts for %s...", name)
	a.logInfo("Selected %s (%s)", name, value)
	fetch := func() tea.Msg {
		result, err := selector.OnSelectionChange(context.Background(), &render.SelectionEvent{Value: value})
		return refreshDoneMsg{name: name, result: result, err: err}
	}
	if a.inFlight == 1 {
		return tea.Batch(fetch, a.spinner.Tick)
	}
	return fetch
}

func (a *App) busy() bool {
	return a.loadingEmployees || a.inFlight > 0
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case spinner.TickMsg:
		if !a.busy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case employeesLoadedMsg:
		a.loadingEmployees = false
		if msg.err != nil {
			a.err = msg.err
			a.statusMsg = "Could not load employees"
			a.logError("Loading employees failed: %v", msg.err)
			return a, nil
		}
		items := make([]list.Item, len(msg.employees))
		for i, e := range msg.employees {
			items[i] = employeeItem{employee: e}
		}
		a.employees.SetItems(items)
		if idx := a.employeeIndex(a.config.DefaultEmployee()); idx >= 0 {
			a.employees.Select(idx)
		}
		a.statusMsg = fmt.Sprintf("%d employees · enter to show posts", len(items))
		a.logInfo("Loaded %d employees", len(items))
		return a, nil

	case refreshDoneMsg:
		if a.inFlight > 0 {
			a.inFlight--
		}
		switch {
		case errors.Is(msg.err, render.ErrStaleRefresh):
			a.logInfo("Refresh for %s superseded", msg.name)
			return a, nil
		case msg.err != nil:
			a.err = msg.err
			a.statusMsg = fmt.Sprintf("Could not load posts for %s", msg.name)
			a.logError("Refresh for %s failed: %v", msg.name, msg.err)
			return a, nil
		}
		a.err = nil
		a.selectedName = msg.name
		a.cursor = 0
		count := 0
		if msg.result != nil && msg.result.Refresh != nil {
			count = msg.result.Refresh.PostCount
		}
		a.statusMsg = fmt.Sprintf("%d posts by %s", count, msg.name)
		a.logInfo("Showing %d posts by %s", count, msg.name)
		a.syncPosts()
		a.posts.GotoTop()
		return a, nil

	case ExternalChangeMsg:
		if msg.UserID > 0 {
			a.adoptSelection(msg.UserID)
		}
		a.clampCursor()
		a.syncPosts()
		a.statusMsg = fmt.Sprintf("Bridge %s %s", msg.Kind, msg.Detail)
		if msg.UserID > 0 {
			a.statusMsg = fmt.Sprintf("Bridge %s · %d posts by %s", msg.Kind, len(a.session.PostIDs()), a.selectedName)
		}
		a.logInfo("Bridge event: %s %s", msg.Kind, msg.Detail)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		a.logInfo("Session closed")
		return a, tea.Quit
	case "tab", "shift+tab":
		if a.focus == focusEmployees && len(a.session.PostIDs()) > 0 {
			a.focus = focusPosts
		} else {
			a.focus = focusEmployees
		}
		a.syncPosts()
		return a, nil
	case "r":
		if item, ok := a.employees.SelectedItem().(employeeItem); ok && a.selectedName != "" {
			return a, a.selectEmployee(strconv.Itoa(item.employee.ID), item.employee.Name)
		}
		return a, nil
	}

	if a.focus == focusEmployees {
		switch msg.String() {
		case "enter":
			item, ok := a.employees.SelectedItem().(employeeItem)
			if !ok {
				return a, nil
			}
			return a, a.selectEmployee(strconv.Itoa(item.employee.ID), item.employee.Name)
		}
		var cmd tea.Cmd
		a.employees, cmd = a.employees.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "up", "k":
		a.moveCursor(-1)
		return a, nil
	case "down", "j":
		a.moveCursor(1)
		return a, nil
	case "enter", " ":
		ids := a.session.PostIDs()
		if a.cursor < len(ids) {
			id := ids[a.cursor]
			a.session.Click(id)
			if visible, ok := a.session.Visible(id); ok {
				state := "hidden"
				if visible {
					state = "shown"
				}
				a.logInfo("Post %d comments %s", id, state)
			}
			a.syncPosts()
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.posts, cmd = a.posts.Update(msg)
	return a, cmd
}

func (a *App) employeeIndex(id int) int {
	for idx, item := range a.employees.Items() {
		if e, ok := item.(employeeItem); ok && e.employee.ID == id {
			return idx
		}
	}
	return -1
}

// adoptSelection points the menu and title at an employee selected from
// outside the update loop.
func (a *App) adoptSelection(userID int) {
	a.err = nil
	a.cursor = 0
	a.posts.GotoTop()
	a.selectedName = fmt.Sprintf("Employee %d", userID)
	if idx := a.employeeIndex(userID); idx >= 0 {
		a.employees.Select(idx)
		if item, ok := a.employees.Items()[idx].(employeeItem); ok {
			a.selectedName = item.employee.Name
		}
	}
}

func (a *App) moveCursor(delta int) {
	a.cursor += delta
	a.clampCursor()
	a.syncPosts()
}

func (a *App) clampCursor() {
	n := len(a.session.PostIDs())
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a *App) focusedPost() int {
	if a.focus != focusPosts {
		return 0
	}
	ids := a.session.PostIDs()
	if a.cursor < len(ids) {
		return ids[a.cursor]
	}
	return 0
}

// syncPosts re-renders the session tree into the viewport and scrolls the
// focused button into view.
func (a *App) syncPosts() {
	focused := a.focusedPost()
	var view postsView
	a.session.Inspect(func(display *uitree.Node) {
		view = renderDisplay(display, focused, a.posts.Width)
	})
	a.posts.SetContent(view.content)
	if view.focusedLine < 0 || a.posts.Height <= 0 {
		return
	}
	switch {
	case view.focusedLine < a.posts.YOffset:
		a.posts.SetYOffset(view.focusedLine)
	case view.focusedLine >= a.posts.YOffset+a.posts.Height:
		a.posts.SetYOffset(view.focusedLine - a.posts.Height + 1)
	}
}

func (a *App) layout() {
	leftWidth := max(24, a.width/3)
	rightWidth := max(20, a.width-leftWidth-4)
	bodyHeight := max(6, a.height-logPanelLines-9)
	a.employees.SetSize(max(20, leftWidth-4), bodyHeight)
	a.posts.Width = max(20, rightWidth-4)
	a.posts.Height = max(3, bodyHeight-1)
	a.syncPosts()
}

// View renders the UI.
func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}
	leftWidth := max(24, a.width/3)
	rightWidth := max(20, a.width-leftWidth-4)

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("⬡ ACME BLOGS")

	left := a.employees.View()
	if a.loadingEmployees {
		left = fmt.Sprintf("%s Loading employees...", a.spinner.View())
	}
	leftBox := a.paneStyle(a.focus == focusEmployees).Width(leftWidth).Render(left)

	title := "Posts"
	if a.selectedName != "" {
		title = fmt.Sprintf("Posts · %s", a.selectedName)
	}
	if a.inFlight > 0 {
		title = fmt.Sprintf("%s %s", title, a.spinner.View())
	}
	titleLine := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Render(title)
	rightBox := a.paneStyle(a.focus == focusPosts).Width(rightWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, titleLine, a.posts.View()))

	body := lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	sections := []string{header, body, a.renderStatus()}
	if panel := a.renderLogPanel(); panel != "" {
		sections = append(sections, panel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render("tab: switch pane · ↑/↓: move · enter: select/toggle · r: reload · q: quit")
	sections = append(sections, footer)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) paneStyle(focused bool) lipgloss.Style {
	border := lipgloss.Color("#444444")
	if focused {
		border = lipgloss.Color("#5B8DEF")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}

func (a *App) renderStatus() string {
	if a.err != nil {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Render(fmt.Sprintf("%s: %v", a.statusMsg, a.err))
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(a.statusMsg)
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s (%d entries)", fileName, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
