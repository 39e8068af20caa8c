package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/usecase"
)

// DemoTimeLayout is the local-time format the demo form accepts.
const DemoTimeLayout = "2006-01-02 15:04"

const (
	demoFieldType = iota
	demoFieldStart
	demoFieldEnd
	demoFieldNotes
	demoFieldPlace
	demoFieldAttendees
	demoFieldPresenters
	demoFieldCount
)

var demoFieldLabels = [demoFieldCount]string{
	"Type (online/offline)",
	"Start (" + DemoTimeLayout + ")",
	"End (" + DemoTimeLayout + ")",
	"Notes",
	"Place",
	"Attendee ids",
	"Presenter ids",
}

var demoFieldKeys = [demoFieldCount]string{
	"type", "start_time", "end_time", "notes", "place", "attendees", "presenters",
}

type celebrationDoneMsg struct{}

// crmDoneMsg carries the result of a CRM call back to Update, where then
// applies it.
type crmDoneMsg struct {
	err  error
	then func(error) tea.Cmd
}

// Board is the status bar of one lead rendered as a Bubble Tea model. CRM
// calls run as commands; while one is in flight the board is busy, ignores
// keys and renders the last snapshot, so the controller only has one user.
type Board struct {
	ctrl    *usecase.ProgressionController
	timeout time.Duration
	busy    bool
	view    usecase.View

	cursor   int
	timeline int
	width    int

	demo      [demoFieldCount]textinput.Model
	demoFocus int
	amount    textinput.Model
	remark    textinput.Model
	value     textinput.Model
	remarkTab int

	errMessage string
	fieldErrs  usecase.ValidationErrors
}

func NewBoard(ctrl *usecase.ProgressionController, timeout time.Duration) *Board {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	b := &Board{ctrl: ctrl, timeout: timeout, timeline: -1}
	for i := range b.demo {
		b.demo[i] = textinput.New()
		b.demo[i].Prompt = ""
		b.demo[i].CharLimit = 500
	}
	b.amount = newInput("Amount", 32)
	b.remark = newInput("Remark", 500)
	b.value = newInput("Project value (optional)", 32)

	b.cursor = ctrl.Progress().CurrentStageIndex + 1
	b.clampCursor()
	b.view = ctrl.Snapshot()
	return b
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	return ti
}

func (b *Board) Init() tea.Cmd {
	return nil
}

func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := b.update(msg)
	if !b.busy {
		b.view = b.ctrl.Snapshot()
	}
	return model, cmd
}

func (b *Board) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		return b, nil
	case celebrationDoneMsg:
		return b, nil
	case crmDoneMsg:
		b.busy = false
		return b, msg.then(msg.err)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return b, tea.Quit
		}
		if b.busy {
			return b, nil
		}
		switch b.ctrl.Phase().(type) {
		case usecase.AwaitingDemoInput:
			return b.updateDemo(msg)
		case usecase.AwaitingAmountInput:
			return b.updateAmount(msg)
		case usecase.AwaitingRemark:
			return b.updateRemark(msg)
		default:
			return b.updateIdle(msg)
		}
	}
	return b, nil
}

func (b *Board) updateIdle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	stages := b.ctrl.Registry().Stages()
	entries := b.ctrl.Ledger().Entries()

	switch msg.String() {
	case "q":
		return b, tea.Quit
	case "left", "h":
		if b.cursor > 0 {
			b.cursor--
		}
	case "right", "l":
		if b.cursor < len(stages)-1 {
			b.cursor++
		}
	case "down", "j":
		if b.timeline < len(entries)-1 {
			b.timeline++
		}
		b.selectTimeline(entries)
	case "up", "k":
		if b.timeline > 0 {
			b.timeline--
		}
		b.selectTimeline(entries)
	case "esc":
		b.timeline = -1
		b.ctrl.Ledger().ClearSelection()
	case "r":
		return b, b.call(b.ctrl.Reload, func(err error) tea.Cmd {
			b.setErr(err)
			if err == nil {
				b.cursor = b.ctrl.Progress().CurrentStageIndex + 1
				b.clampCursor()
			}
			return nil
		})
	case "enter", " ":
		stage, ok := stages.At(b.cursor)
		if !ok {
			return b, nil
		}
		phase, err := b.ctrl.AttemptAdvance(b.cursor, stage.ID)
		b.setErr(err)
		if err == nil {
			return b, b.openDialog(phase)
		}
	}
	return b, nil
}

func (b *Board) selectTimeline(entries []entity.Remark) {
	if b.timeline >= 0 && b.timeline < len(entries) {
		b.ctrl.Ledger().Select(entries[b.timeline].ID)
	}
}

func (b *Board) openDialog(p usecase.Phase) tea.Cmd {
	b.fieldErrs = nil
	switch p := p.(type) {
	case usecase.AwaitingDemoInput:
		b.fillDemo(p.Draft)
		b.demoFocus = 0
		return b.focusDemo()
	case usecase.AwaitingAmountInput:
		b.amount.SetValue("")
		return b.amount.Focus()
	case usecase.AwaitingRemark:
		b.remark.SetValue("")
		b.value.SetValue("")
		b.remarkTab = 0
		b.value.Blur()
		return b.remark.Focus()
	}
	return nil
}

func (b *Board) fillDemo(d entity.DemoSessionDraft) {
	b.demo[demoFieldType].SetValue(string(d.Type))
	b.demo[demoFieldStart].SetValue(localTime(d.StartTime))
	b.demo[demoFieldEnd].SetValue(localTime(d.EndTime))
	b.demo[demoFieldNotes].SetValue(d.Notes)
	b.demo[demoFieldPlace].SetValue(d.Place)
	b.demo[demoFieldAttendees].SetValue(joinIDs(d.Attendees))
	b.demo[demoFieldPresenters].SetValue(joinIDs(d.Presenters))
}

func (b *Board) focusDemo() tea.Cmd {
	for i := range b.demo {
		b.demo[i].Blur()
	}
	return b.demo[b.demoFocus].Focus()
}

func (b *Board) updateDemo(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		b.cancel()
		return b, nil
	case "tab", "down":
		b.demoFocus = (b.demoFocus + 1) % demoFieldCount
		return b, b.focusDemo()
	case "shift+tab", "up":
		b.demoFocus = (b.demoFocus + demoFieldCount - 1) % demoFieldCount
		return b, b.focusDemo()
	case "enter":
		if b.demoFocus < demoFieldCount-1 {
			b.demoFocus++
			return b, b.focusDemo()
		}
		draft, errs := b.demoDraft()
		if errs = errs.Merge(b.ctrl.ValidateDemoSession(draft)); len(errs) > 0 {
			b.fieldErrs = errs
			b.errMessage = ""
			return b, nil
		}
		return b, b.call(func(ctx context.Context) error {
			return b.ctrl.SubmitDemoSession(ctx, draft)
		}, b.afterStep)
	}

	var cmd tea.Cmd
	b.demo[b.demoFocus], cmd = b.demo[b.demoFocus].Update(msg)
	return b, cmd
}

func (b *Board) demoDraft() (entity.DemoSessionDraft, usecase.ValidationErrors) {
	var errs usecase.ValidationErrors
	reg := b.ctrl.Registry()
	d := entity.DemoSessionDraft{
		Type:  entity.DemoSessionType(strings.ToLower(strings.TrimSpace(b.demo[demoFieldType].Value()))),
		Notes: b.demo[demoFieldNotes].Value(),
		Place: b.demo[demoFieldPlace].Value(),
	}

	for _, f := range []int{demoFieldStart, demoFieldEnd} {
		raw := strings.TrimSpace(b.demo[f].Value())
		if raw == "" {
			continue
		}
		t, err := time.ParseInLocation(DemoTimeLayout, raw, time.Local)
		if err != nil {
			errs = append(errs, usecase.ValidationError{Field: demoFieldKeys[f], Message: "use " + DemoTimeLayout})
			continue
		}
		if f == demoFieldStart {
			d.StartTime = t
		} else {
			d.EndTime = t
		}
	}

	for _, f := range []int{demoFieldAttendees, demoFieldPresenters} {
		ids, err := parseIDs(b.demo[f].Value())
		if err != nil {
			errs = append(errs, usecase.ValidationError{Field: demoFieldKeys[f], Message: "comma separated user ids"})
			continue
		}
		if f == demoFieldAttendees {
			d.Attendees = reg.ResolveUsers(ids)
		} else {
			d.Presenters = reg.ResolveUsers(ids)
		}
	}
	return d, errs
}

func (b *Board) updateAmount(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		b.cancel()
		return b, nil
	case "enter":
		raw := b.amount.Value()
		return b, b.call(func(ctx context.Context) error {
			return b.ctrl.SubmitAmount(ctx, raw)
		}, func(err error) tea.Cmd {
			if err == nil {
				b.amount.Blur()
			}
			return b.afterStep(err)
		})
	}

	var cmd tea.Cmd
	b.amount, cmd = b.amount.Update(msg)
	return b, cmd
}

func (b *Board) updateRemark(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		b.cancel()
		return b, nil
	case "tab", "shift+tab":
		b.remarkTab = 1 - b.remarkTab
		if b.remarkTab == 0 {
			b.value.Blur()
			return b, b.remark.Focus()
		}
		b.remark.Blur()
		return b, b.value.Focus()
	case "enter":
		in := usecase.RemarkInput{Remark: b.remark.Value(), ProjectValue: b.value.Value()}
		return b, b.call(func(ctx context.Context) error {
			return b.ctrl.SubmitRemark(ctx, in)
		}, b.afterCommit)
	}

	var cmd tea.Cmd
	if b.remarkTab == 0 {
		b.remark, cmd = b.remark.Update(msg)
	} else {
		b.value, cmd = b.value.Update(msg)
	}
	return b, cmd
}

// call runs fn off the update loop, bounded by the board timeout. then runs
// back on the loop with fn's error.
func (b *Board) call(fn func(context.Context) error, then func(error) tea.Cmd) tea.Cmd {
	b.busy = true
	timeout := b.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return crmDoneMsg{err: fn(ctx), then: then}
	}
}

// afterStep opens the dialog of the next phase once a demo session or an
// amount was saved.
func (b *Board) afterStep(err error) tea.Cmd {
	b.setErr(err)
	if err != nil {
		return nil
	}
	return b.openDialog(b.ctrl.Phase())
}

func (b *Board) afterCommit(err error) tea.Cmd {
	b.setErr(err)
	if err != nil {
		return nil
	}
	b.remark.Blur()
	b.value.Blur()
	b.advanceCursor()
	if b.ctrl.Celebrating() {
		return tea.Tick(b.ctrl.Celebration().Remaining(time.Now()), func(time.Time) tea.Msg {
			return celebrationDoneMsg{}
		})
	}
	return nil
}

func (b *Board) cancel() {
	b.ctrl.Cancel()
	b.fieldErrs = nil
	b.errMessage = ""
}

func (b *Board) advanceCursor() {
	next := b.ctrl.Progress().CurrentStageIndex + 1
	if next < len(b.ctrl.Registry().Stages()) {
		b.cursor = next
	}
}

func (b *Board) clampCursor() {
	if n := len(b.ctrl.Registry().Stages()); b.cursor >= n {
		b.cursor = n - 1
	}
	if b.cursor < 0 {
		b.cursor = 0
	}
}

func (b *Board) setErr(err error) {
	b.fieldErrs = nil
	b.errMessage = ""
	if err == nil {
		return
	}
	var verrs usecase.ValidationErrors
	if errors.As(err, &verrs) {
		b.fieldErrs = verrs
		return
	}
	b.errMessage = err.Error()
}

func (b *Board) View() string {
	v := b.view
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("Lead #%d", v.LeadID)))
	sections = append(sections, b.renderBar(v))

	if v.Celebrating {
		sections = append(sections, celebrateStyle.Render("Lead won! Congratulations!"))
	}
	if v.Notice != "" {
		sections = append(sections, noticeStyle.Render(v.Notice))
	}
	if b.errMessage != "" {
		sections = append(sections, errorStyle.Render(b.errMessage))
	}
	if b.busy {
		sections = append(sections, hintStyle.Render("Saving…"))
	}

	switch v.Phase {
	case usecase.PhaseAwaitingDemoInput:
		sections = append(sections, b.renderDemo(v))
	case usecase.PhaseAwaitingAmountInput:
		sections = append(sections, b.renderAmount(v))
	case usecase.PhaseAwaitingRemark:
		sections = append(sections, b.renderRemark(v))
	default:
		sections = append(sections, b.renderTimeline(v))
		sections = append(sections, hintStyle.Render("←/→ choose stage · enter advance · ↑/↓ remarks · r reload · q quit"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (b *Board) renderBar(v usecase.View) string {
	cells := make([]string, 0, len(v.Stages))
	var hint string
	for _, s := range v.Stages {
		var cell string
		switch {
		case s.Current:
			cell = currentStyle.Render(s.Name)
		case !s.Active:
			cell = inactiveStyle.Render(s.Name)
		case s.Completed:
			cell = completedStyle.Render("✓ " + s.Name)
		default:
			cell = pendingStyle.Render(s.Name)
		}
		if s.Index == b.cursor && v.Phase == usecase.PhaseIdle {
			cell = cursorStyle.Render(cell)
			hint = s.Hint
		}
		cells = append(cells, cell)
	}
	bar := strings.Join(cells, pendingStyle.Render(" › "))
	if v.Progress.IsLost {
		bar += "  " + errorStyle.Render("[lost]")
	}
	if hint != "" {
		bar += "\n" + hintStyle.Render(hint)
	}
	return bar
}

func (b *Board) renderDemo(v usecase.View) string {
	var lines []string
	lines = append(lines, titleStyle.Render("Schedule demo session for "+v.Transition.Stage.Name))
	for i, in := range b.demo {
		line := fmt.Sprintf("%-24s %s", demoFieldLabels[i], in.View())
		if msg := b.fieldError(demoFieldKeys[i]); msg != "" {
			line += "  " + errorStyle.Render(msg)
		}
		lines = append(lines, line)
	}

	users := make([]string, 0, len(v.Users))
	for _, u := range v.Users {
		users = append(users, fmt.Sprintf("%d %s", u.ID, u.Label()))
	}
	if len(users) > 0 {
		lines = append(lines, hintStyle.Render("Users: "+strings.Join(users, ", ")))
	}
	lines = append(lines, hintStyle.Render("tab next field · enter on last field saves · esc cancel"))
	return dialogStyle.Render(strings.Join(lines, "\n"))
}

func (b *Board) renderAmount(v usecase.View) string {
	lines := []string{
		titleStyle.Render(v.Transition.Stage.Name + " amount"),
		b.amount.View(),
	}
	if msg := b.fieldError("amount"); msg != "" {
		lines = append(lines, errorStyle.Render(msg))
	}
	lines = append(lines, hintStyle.Render("enter save · esc cancel"))
	return dialogStyle.Render(strings.Join(lines, "\n"))
}

func (b *Board) renderRemark(v usecase.View) string {
	lines := []string{
		titleStyle.Render("Remark for " + v.Transition.Stage.Name),
		b.remark.View(),
	}
	if msg := b.fieldError("remark"); msg != "" {
		lines = append(lines, errorStyle.Render(msg))
	}
	lines = append(lines, b.value.View())
	if msg := b.fieldError("project_value"); msg != "" {
		lines = append(lines, errorStyle.Render(msg))
	}
	lines = append(lines, hintStyle.Render("tab switch field · enter submit · esc cancel"))
	return dialogStyle.Render(strings.Join(lines, "\n"))
}

func (b *Board) renderTimeline(v usecase.View) string {
	if len(v.Timeline) == 0 {
		return hintStyle.Render("No remarks yet")
	}
	lines := []string{titleStyle.Render("Remarks")}
	for _, e := range v.Timeline {
		line := fmt.Sprintf("%s  %-12s %s", e.Remark.CreatedAt.Local().Format("02 Jan 15:04"), e.Remark.StatusName, e.Preview)
		if e.Selected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	for _, e := range v.Timeline {
		if !e.Selected {
			continue
		}
		r := e.Remark
		detail := fmt.Sprintf("%s by %s\n%s", r.StatusName, r.CreatedBy, r.Text)
		if r.ProjectValue != nil {
			detail += fmt.Sprintf("\nProject value: %.2f", *r.ProjectValue)
		}
		lines = append(lines, dialogStyle.Render(detail))
	}
	return strings.Join(lines, "\n")
}

func (b *Board) fieldError(field string) string {
	for _, e := range b.fieldErrs {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

func localTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(DemoTimeLayout)
}

func joinIDs(users []entity.UserRef) string {
	ids := make([]string, 0, len(users))
	for _, id := range entity.UserIDs(users) {
		ids = append(ids, strconv.Itoa(id))
	}
	return strings.Join(ids, ",")
}

func parseIDs(raw string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
