package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazyteam/internal/members"
	"github.com/Joseda-hg/lazyteam/internal/model"
	"github.com/Joseda-hg/lazyteam/internal/profile"
	"github.com/Joseda-hg/lazyteam/internal/session"
	"github.com/Joseda-hg/lazyteam/internal/taskcard"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

const (
	viewHeader  = "header"
	viewFooter  = "footer"
	viewTasks   = "tasks"
	viewLogin   = "login"
	viewConfirm = "confirm"
	viewDetail  = "detail"
	viewRoster  = "roster"
	viewHelp    = "help"
)

type TaskService interface {
	Tasks(ctx context.Context, employeeID string) ([]model.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

type Deps struct {
	Tasks    TaskService
	Session  *session.Manager
	Members  *members.Store
	Profiles *profile.Store
}

type UI struct {
	tasks    TaskService
	session  *session.Manager
	members  *members.Store
	profiles *profile.Store
	gui      *gocui.Gui

	cards       []*taskcard.Presenter
	selected    int
	rosterIndex int

	login       *loginForm
	loginEditor *loginEditor
	helpActive  bool
	loadingList bool
	status      string

	unsubscribe []func()
}

type loginEditor struct {
	ui *UI
}

func Run(deps Deps) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(deps, gui)
	defer ui.close()
	gui.Mouse = true

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	ui.syncSession(ui.session.State())

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	return nil
}

func newUI(deps Deps, gui *gocui.Gui) *UI {
	u := &UI{
		tasks:    deps.Tasks,
		session:  deps.Session,
		members:  deps.Members,
		profiles: deps.Profiles,
		gui:      gui,
		login:    newLoginForm(""),
	}
	u.loginEditor = &loginEditor{ui: u}
	u.unsubscribe = append(u.unsubscribe,
		u.session.Subscribe(func(event session.Event) {
			u.update(func() error {
				u.syncSession(event.State)
				return nil
			})
		}),
		u.profiles.Subscribe(func(model.Profile) { u.redraw() }),
	)
	return u
}

func (u *UI) close() {
	for _, fn := range u.unsubscribe {
		fn()
	}
	u.unsubscribe = nil
	u.unmountCards()
}

// update applies fn on the UI loop. Without a gui (tests) it runs inline.
func (u *UI) update(fn func() error) {
	if u.gui == nil {
		_ = fn()
		return
	}
	u.gui.Update(func(*gocui.Gui) error {
		return fn()
	})
}

// async runs blocking work off the UI loop. Without a gui it runs inline.
func (u *UI) async(fn func()) {
	if u.gui == nil {
		fn()
		return
	}
	go fn()
}

func (u *UI) redraw() {
	if u.gui == nil {
		return
	}
	u.gui.Update(func(*gocui.Gui) error { return nil })
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	bindings := []struct {
		view    string
		key     any
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{"", gocui.KeyCtrlC, u.quit},
		{"", 'q', u.quitUnlessEditing},
		{"", '?', u.toggleHelp},
		{viewTasks, gocui.KeyArrowDown, u.moveDown},
		{viewTasks, 'j', u.moveDown},
		{viewTasks, gocui.KeyArrowUp, u.moveUp},
		{viewTasks, 'k', u.moveUp},
		{viewTasks, gocui.KeyEnter, u.openFirstMember},
		{viewTasks, '1', u.openFirstMember},
		{viewTasks, '2', u.openSecondMember},
		{viewTasks, 'm', u.openRoster},
		{viewTasks, 'd', u.requestDelete},
		{viewTasks, 'r', u.reload},
		{viewTasks, 'L', u.logout},
		{viewLogin, gocui.KeyEnter, u.submitLogin},
		{viewLogin, gocui.KeyTab, u.nextLoginField},
		{viewLogin, gocui.KeyArrowDown, u.nextLoginField},
		{viewLogin, gocui.KeyBacktab, u.prevLoginField},
		{viewLogin, gocui.KeyArrowUp, u.prevLoginField},
		{viewConfirm, 'y', u.confirmDelete},
		{viewConfirm, gocui.KeyEnter, u.confirmDelete},
		{viewConfirm, 'n', u.cancelDelete},
		{viewConfirm, gocui.KeyEsc, u.cancelDelete},
		{viewDetail, gocui.KeyEsc, u.closeDetail},
		{viewDetail, gocui.KeyEnter, u.closeDetail},
		{viewRoster, gocui.KeyArrowDown, u.rosterDown},
		{viewRoster, 'j', u.rosterDown},
		{viewRoster, gocui.KeyArrowUp, u.rosterUp},
		{viewRoster, 'k', u.rosterUp},
		{viewRoster, gocui.KeyEnter, u.rosterSelect},
		{viewRoster, gocui.KeyEsc, u.closeRoster},
		{viewHelp, gocui.KeyEsc, u.closeHelp},
		{viewHelp, '?', u.closeHelp},
	}
	for _, binding := range bindings {
		if err := gui.SetKeybinding(binding.view, binding.key, gocui.ModNone, binding.handler); err != nil {
			return err
		}
	}

	return gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewTasks, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		return u.onTaskClick(gui, opts)
	}})
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	u.renderHeader(headerView)

	footerY1 := max(maxY-2, 1)
	footerY0 := max(footerY1-2, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	bodyBottom := footerY0 - 1
	if bodyBottom < 2 {
		return nil
	}

	tasksView, err := gui.SetView(viewTasks, 0, 1, maxX-1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		tasksView.Title = "Tasks"
		tasksView.TitleColor = gocui.ColorCyan
	}
	applyViewStyle(tasksView, u.focusedView() == viewTasks)
	u.renderTasks(tasksView)

	if err := u.layoutDialogs(gui); err != nil {
		return err
	}

	_, _ = gui.SetCurrentView(u.focusedView())
	gui.Cursor = u.login != nil
	return nil
}

func (u *UI) layoutDialogs(gui *gocui.Gui) error {
	card := u.selectedCard()
	var dialogs taskcard.Dialogs
	if card != nil {
		dialogs = card.Dialogs()
	}

	steps := []struct {
		name   string
		active bool
		show   func(*gocui.Gui) error
	}{
		{viewLogin, u.login != nil, u.showLogin},
		{viewRoster, dialogs.RosterOpen, u.showRoster},
		{viewDetail, dialogs.DetailOpen, u.showDetail},
		{viewConfirm, dialogs.ConfirmOpen, u.showConfirm},
		{viewHelp, u.helpActive, u.showHelp},
	}
	for _, step := range steps {
		if !step.active {
			_ = gui.DeleteView(step.name)
			continue
		}
		if err := step.show(gui); err != nil {
			return err
		}
	}
	return nil
}

// focusedView picks the topmost active view; dialogs stack above the list.
func (u *UI) focusedView() string {
	if u.helpActive {
		return viewHelp
	}
	if u.login != nil {
		return viewLogin
	}
	if card := u.selectedCard(); card != nil {
		dialogs := card.Dialogs()
		switch {
		case dialogs.ConfirmOpen:
			return viewConfirm
		case dialogs.DetailOpen:
			return viewDetail
		case dialogs.RosterOpen:
			return viewRoster
		}
	}
	return viewTasks
}

func (u *UI) inputActive() bool {
	return u.focusedView() != viewTasks
}

func (u *UI) syncSession(state session.State) {
	switch {
	case state.Status == session.StatusLoading:
		u.status = "Logging in…"
	case state.Status == session.StatusError && !state.LoggedIn():
		u.status = state.Error
		if u.login == nil {
			u.login = newLoginForm("")
		}
		u.login.clearPassword()
	case state.LoggedIn():
		if u.login != nil {
			u.login = nil
			u.status = ""
			u.loadTasks()
		}
	default:
		if u.login == nil {
			u.login = newLoginForm("")
		}
	}
}

func (u *UI) currentUserID() string {
	state := u.session.State()
	if state.CurrentUser == nil {
		return ""
	}
	return state.CurrentUser.ID
}

func (u *UI) loadTasks() {
	userID := u.currentUserID()
	if userID == "" {
		return
	}
	u.loadingList = true
	u.async(func() {
		tasks, err := u.tasks.Tasks(context.Background(), userID)
		u.update(func() error {
			u.loadingList = false
			// A response that lands after logout or a user switch is dropped.
			if u.login != nil || u.currentUserID() != userID {
				return nil
			}
			if err != nil {
				u.status = fmt.Sprintf("load tasks: %v", err)
				return nil
			}
			u.setTasks(tasks)
			return nil
		})
	})
}

// setTasks reconciles presenters with a fresh task list, keeping the dialog
// state of cards that are still present.
func (u *UI) setTasks(tasks []model.Task) {
	existing := make(map[string]*taskcard.Presenter, len(u.cards))
	for _, card := range u.cards {
		existing[card.Task().ID] = card
	}

	cards := make([]*taskcard.Presenter, 0, len(tasks))
	for _, task := range tasks {
		if card, ok := existing[task.ID]; ok {
			card.SetTask(task)
			delete(existing, task.ID)
			cards = append(cards, card)
			continue
		}
		card := taskcard.New(task, u.members, u.deleteTask)
		card.OnChange(u.redraw)
		card.Mount()
		cards = append(cards, card)
	}
	for _, card := range existing {
		card.Unmount()
	}

	u.cards = cards
	if u.selected >= len(u.cards) {
		u.selected = max(len(u.cards)-1, 0)
	}
}

func (u *UI) unmountCards() {
	for _, card := range u.cards {
		card.Unmount()
	}
	u.cards = nil
	u.selected = 0
}

func (u *UI) deleteTask(ctx context.Context, id string) error {
	if err := u.tasks.DeleteTask(ctx, id); err != nil {
		u.update(func() error {
			u.status = fmt.Sprintf("delete task: %v", err)
			return nil
		})
		return err
	}
	u.update(func() error {
		u.status = "Task deleted"
		u.loadTasks()
		return nil
	})
	return nil
}

func (u *UI) selectedCard() *taskcard.Presenter {
	if u.selected >= 0 && u.selected < len(u.cards) {
		return u.cards[u.selected]
	}
	return nil
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	if u.login != nil {
		fmt.Fprint(view, "lazyteam | not logged in")
		return
	}

	who := u.currentUserID()
	if current, ok := u.profiles.Current(); ok && current.ID == who {
		who = displayName(current)
	}
	fmt.Fprintf(view, "lazyteam | %s | %d tasks", who, len(u.cards))
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	if u.login != nil {
		fmt.Fprintln(view, "enter log in | tab next field | ctrl+c quit")
	} else {
		fmt.Fprintln(view, "j/k move | enter/1/2 employee | m all employees | d delete | r reload | L logout | ? help | q quit")
	}
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderTasks(view *gocui.View) {
	view.Clear()
	if u.login != nil {
		return
	}
	if u.loadingList && len(u.cards) == 0 {
		fmt.Fprint(view, "Loading tasks…")
		return
	}
	if len(u.cards) == 0 {
		fmt.Fprint(view, "No tasks assigned")
		return
	}

	focused := u.focusedView() == viewTasks
	for i, card := range u.cards {
		prefix := " "
		if i == u.selected {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatCardSummary(card.Card()))
	}
	if focused {
		view.SetCursor(0, min(u.selected, len(u.cards)-1))
	}
}

func (u *UI) showLogin(gui *gocui.Gui) error {
	view, err := u.centeredView(gui, viewLogin, 50, 4)
	if err != nil {
		return err
	}
	view.Title = "Log in"
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.loginEditor
	u.renderLogin(view)
	return nil
}

func (u *UI) renderLogin(view *gocui.View) {
	if u.login == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.login.fields {
		prefix := "  "
		if index == u.login.index {
			prefix = "> "
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, field.display())
	}
	current := u.login.fields[u.login.index]
	cursorX := len([]rune(current.Label+": ")) + len([]rune(current.display())) + 2
	view.SetCursor(cursorX, u.login.index)
}

func (u *UI) showConfirm(gui *gocui.Gui) error {
	card := u.selectedCard()
	view, err := u.centeredView(gui, viewConfirm, 60, 3)
	if err != nil {
		return err
	}
	view.Title = "Delete task"
	view.Clear()
	fmt.Fprintln(view, card.ConfirmTitle())
	fmt.Fprint(view, "y delete | n cancel")
	return nil
}

func (u *UI) showDetail(gui *gocui.Gui) error {
	card := u.selectedCard()
	view, err := u.centeredView(gui, viewDetail, 40, 5)
	if err != nil {
		return err
	}
	view.Title = "Employee Details"
	view.Clear()
	detail := card.Detail()
	if detail.Loading {
		fmt.Fprint(view, taskcard.LoadingPlaceholder)
		return nil
	}
	fmt.Fprint(view, strings.Join(formatMemberDetail(detail.Member), "\n"))
	return nil
}

func (u *UI) showRoster(gui *gocui.Gui) error {
	card := u.selectedCard()
	roster := card.Roster()
	view, err := u.centeredView(gui, viewRoster, 40, max(len(roster)+1, 3))
	if err != nil {
		return err
	}
	view.Title = "Assigned Employees"
	view.Clear()
	if u.rosterIndex >= len(roster) {
		u.rosterIndex = max(len(roster)-1, 0)
	}
	for i, member := range roster {
		prefix := " "
		if i == u.rosterIndex {
			prefix = ">"
		}
		fmt.Fprintf(view, "%s (%s) %s %s\n", prefix, member.Initial(), member.FirstName, member.LastName)
	}
	if len(roster) == 0 {
		fmt.Fprint(view, taskcard.LoadingPlaceholder)
	}
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	view, err := u.centeredView(gui, viewHelp, 60, 14)
	if err != nil {
		return err
	}
	view.Title = "Help"
	view.Wrap = true
	view.Clear()
	fmt.Fprint(view, helpText())
	return nil
}

func (u *UI) centeredView(gui *gocui.Gui, name string, minWidth, height int) (*gocui.View, error) {
	maxX, maxY := gui.Size()
	width := max(minWidth, maxX/3)
	x0 := max((maxX-width)/2, 0)
	y0 := max((maxY-height)/2, 0)

	view, err := gui.SetView(name, x0, y0, x0+width, y0+height+1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return nil, err
	}
	_, _ = gui.SetViewOnTop(name)
	applyViewStyle(view, true)
	return view, nil
}

func (u *UI) onTaskClick(gui *gocui.Gui, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	view, err := gui.View(viewTasks)
	if err != nil {
		return nil
	}

	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	row := max(opts.Y-y0-1+oy, 0)
	u.selected = min(row, max(len(u.cards)-1, 0))
	return nil
}

func (u *UI) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected < len(u.cards)-1 {
		u.selected++
	}
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected > 0 {
		u.selected--
	}
	return nil
}

func (u *UI) openFirstMember(_ *gocui.Gui, _ *gocui.View) error {
	return u.openAvatar(0)
}

func (u *UI) openSecondMember(_ *gocui.Gui, _ *gocui.View) error {
	return u.openAvatar(1)
}

func (u *UI) openAvatar(index int) error {
	if u.inputActive() {
		return nil
	}
	card := u.selectedCard()
	if card == nil {
		return nil
	}
	avatars := card.Card().Avatars
	if index >= len(avatars) {
		return nil
	}
	card.OpenDetail(avatars[index].MemberID)
	return nil
}

func (u *UI) openRoster(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	card := u.selectedCard()
	if card == nil || card.Card().More == 0 {
		return nil
	}
	u.rosterIndex = 0
	card.OpenRoster()
	return nil
}

func (u *UI) rosterDown(_ *gocui.Gui, _ *gocui.View) error {
	if card := u.selectedCard(); card != nil && u.rosterIndex < len(card.Roster())-1 {
		u.rosterIndex++
	}
	return nil
}

func (u *UI) rosterUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.rosterIndex > 0 {
		u.rosterIndex--
	}
	return nil
}

func (u *UI) rosterSelect(_ *gocui.Gui, _ *gocui.View) error {
	card := u.selectedCard()
	if card == nil {
		return nil
	}
	roster := card.Roster()
	if u.rosterIndex < 0 || u.rosterIndex >= len(roster) {
		return nil
	}
	card.SelectFromRoster(roster[u.rosterIndex].ID)
	return nil
}

func (u *UI) closeRoster(_ *gocui.Gui, _ *gocui.View) error {
	if card := u.selectedCard(); card != nil {
		card.CloseRoster()
	}
	return nil
}

func (u *UI) closeDetail(_ *gocui.Gui, _ *gocui.View) error {
	if card := u.selectedCard(); card != nil {
		card.CloseDetail()
	}
	return nil
}

func (u *UI) requestDelete(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	card := u.selectedCard()
	if card == nil {
		return nil
	}
	if !card.RequestDelete() {
		u.status = "Only completed tasks can be deleted"
	}
	return nil
}

func (u *UI) confirmDelete(_ *gocui.Gui, _ *gocui.View) error {
	card := u.selectedCard()
	if card == nil {
		return nil
	}
	u.status = "Deleting…"
	u.async(func() {
		_ = card.ConfirmDelete(context.Background())
	})
	return nil
}

func (u *UI) cancelDelete(_ *gocui.Gui, _ *gocui.View) error {
	if card := u.selectedCard(); card != nil {
		card.CancelDelete()
	}
	return nil
}

func (u *UI) submitLogin(_ *gocui.Gui, _ *gocui.View) error {
	if u.login == nil {
		return nil
	}
	employeeID, password := u.login.credentials()
	if employeeID == "" {
		u.status = "Employee ID is required"
		u.login.index = fieldEmployeeID
		return nil
	}
	u.async(func() {
		_, _ = u.session.Login(context.Background(), employeeID, password)
	})
	return nil
}

func (u *UI) nextLoginField(_ *gocui.Gui, view *gocui.View) error {
	if u.login == nil {
		return nil
	}
	u.login.next()
	u.renderLogin(view)
	return nil
}

func (u *UI) prevLoginField(_ *gocui.Gui, view *gocui.View) error {
	if u.login == nil {
		return nil
	}
	u.login.prev()
	u.renderLogin(view)
	return nil
}

func (u *UI) logout(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	employeeID := u.currentUserID()
	u.unmountCards()
	u.profiles.Clear()
	u.login = newLoginForm(employeeID)
	u.status = ""
	u.session.Logout()
	return nil
}

func (u *UI) reload(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	u.loadTasks()
	return nil
}

func (u *UI) toggleHelp(_ *gocui.Gui, _ *gocui.View) error {
	if u.login != nil {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(_ *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	return nil
}

func (u *UI) quitUnlessEditing(gui *gocui.Gui, view *gocui.View) error {
	if u.login != nil {
		return nil
	}
	return u.quit(gui, view)
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func (e *loginEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.login == nil || view == nil {
		return false
	}
	field := &ui.login.fields[ui.login.index]

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		if field.Secret {
			field.Value += " "
		}
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	ui.renderLogin(view)
	return true
}

func helpText() string {
	return strings.Join([]string{
		"Tasks:",
		"  j/k or arrows move selection | mouse click selects",
		"  enter or 1 first employee | 2 second employee",
		"  m all assigned employees (when more than two)",
		"  d delete a completed task (y confirm, n cancel)",
		"  r reload | L log out",
		"",
		"Dialogs:",
		"  esc closes | enter picks an employee in the roster",
		"",
		"Other:",
		"  ? help | q quit | ctrl+c quit anywhere",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool) {
	view.Frame = true
	view.Highlight = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	if focused {
		view.FrameColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
	}
}
