package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/studydesk/internal/formatter"
	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/reconciler"
	"github.com/desertthunder/studydesk/internal/shared"
	"github.com/desertthunder/studydesk/internal/stats"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	GroupsView ViewState = iota
	BookmarksView
	RemindersView
	StatsView
	NotesView
)

var tabs = []struct {
	view  ViewState
	label string
}{
	{GroupsView, "Notes"},
	{BookmarksView, "Bookmarks"},
	{RemindersView, "Reminders"},
	{StatsView, "Stats"},
}

// Options configures the dashboard. Pomodoro lengths are whole minutes.
type Options struct {
	Aggregator      *stats.Aggregator
	PomodoroMinutes int
	BreakMinutes    int
	Logger          *log.Logger
}

// pendingDelete is a delete awaiting confirmation.
type pendingDelete struct {
	label string
	run   func(ctx context.Context) error
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	ws      *reconciler.Workspace
	opts    Options
	logger  *log.Logger
	view    ViewState
	width   int
	height  int
	groups  list.Model
	notes   list.Model
	links   list.Model
	dates   list.Model
	groupID string
	input   textinput.Model
	typing  bool
	confirm *pendingDelete
	loading bool
	status  string
	err     error
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model over ws.
func NewModel(ctx context.Context, ws *reconciler.Workspace, opts Options) *Model {
	if opts.Aggregator == nil {
		opts.Aggregator = stats.New(nil)
	}
	if opts.PomodoroMinutes <= 0 {
		opts.PomodoroMinutes = 25
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	input := textinput.New()
	input.CharLimit = 512

	return &Model{
		ctx:    ctx,
		ws:     ws,
		opts:   opts,
		logger: shared.WithLogger(logger, "component", "ui"),
		view:   GroupsView,
		groups: newList("Note groups"),
		notes:  newList("Notes"),
		links:  newList("Bookmarks"),
		dates:  newList("Reminders"),
		input:  input,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}

// Init loads every domain of the workspace.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return m.load(false)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.groups, &m.notes, &m.links, &m.dates} {
			l.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.typing:
			return m.handleInputKeys(msg)
		case m.confirm != nil:
			return m.handleConfirmKeys(msg)
		}
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgLoaded:
			m.loading = false
			m.err = msg.Err()
			if m.err != nil {
				m.logger.Warn("load failed", "error", m.err)
			}
		case MsgMutated:
			data := msg.data.(mutation)
			m.err = data.err
			m.status = ""
			if data.err == nil {
				m.status = data.status
			} else {
				m.logger.Warn("change failed", "error", data.err)
			}
		}
		m.sync()
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case StatsView:
		body = m.renderStats()
	default:
		body = m.active().View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.view != StatsView && m.active().FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	m.status = ""
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		m.switchTab(msg.String())
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.loading = true
		return m, m.load(true)
	case key.Matches(msg, m.keys.back):
		if m.view == NotesView {
			m.view = GroupsView
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.groups.SelectedItem().(groupItem); ok && m.view == GroupsView {
			m.groupID = item.group.ID
			m.view = NotesView
			m.sync()
		}
		return m, nil
	case key.Matches(msg, m.keys.add):
		if m.view == StatsView {
			return m, nil
		}
		return m, m.startInput()
	case key.Matches(msg, m.keys.remove):
		m.confirm = m.selectedDelete()
		return m, nil
	case key.Matches(msg, m.keys.pomodoro):
		if m.view == StatsView {
			return m, m.recordPomodoro()
		}
		return m, nil
	}

	return m.updateList(msg)
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.stopInput()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		m.stopInput()
		if value == "" {
			return m, nil
		}
		return m, m.submit(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pending := m.confirm
	switch {
	case key.Matches(msg, m.keys.yes):
		m.confirm = nil
		return m, m.mutate(fmt.Sprintf("Deleted %s", pending.label), pending.run)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.confirm = nil
	}
	return m, nil
}

func (m *Model) switchTab(pressed string) {
	switch pressed {
	case "1":
		m.view = GroupsView
	case "2":
		m.view = BookmarksView
	case "3":
		m.view = RemindersView
	case "4":
		m.view = StatsView
	default:
		current := m.view
		if current == NotesView {
			current = GroupsView
		}
		m.view = tabs[(int(current)+1)%len(tabs)].view
	}
}

func (m *Model) active() *list.Model {
	switch m.view {
	case NotesView:
		return &m.notes
	case BookmarksView:
		return &m.links
	case RemindersView:
		return &m.dates
	default:
		return &m.groups
	}
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view == StatsView {
		return m, nil
	}
	l := m.active()
	var cmd tea.Cmd
	*l, cmd = l.Update(msg)
	return m, cmd
}

// sync rebuilds every list from the workspace snapshots.
func (m *Model) sync() {
	groups := m.ws.Notes.Groups()
	groupItems := make([]list.Item, 0, len(groups))
	var open *models.NoteGroup
	for i, g := range groups {
		groupItems = append(groupItems, groupItem{group: g})
		if g.ID == m.groupID {
			open = &groups[i]
		}
	}
	m.groups.SetItems(groupItems)

	noteItems := []list.Item{}
	if open != nil {
		m.notes.Title = open.Name
		for _, n := range open.Notes {
			noteItems = append(noteItems, noteItem{note: n})
		}
	} else if m.view == NotesView {
		m.view = GroupsView
	}
	m.notes.SetItems(noteItems)

	bookmarks := m.ws.Bookmarks.Bookmarks()
	linkItems := make([]list.Item, 0, len(bookmarks))
	for _, b := range bookmarks {
		linkItems = append(linkItems, bookmarkItem{bookmark: b})
	}
	m.links.SetItems(linkItems)

	reminders := m.ws.Reminders.Reminders()
	dateItems := make([]list.Item, 0, len(reminders))
	for _, r := range reminders {
		dateItems = append(dateItems, reminderItem{reminder: r})
	}
	m.dates.SetItems(dateItems)
}

func (m *Model) load(refresh bool) tea.Cmd {
	return func() tea.Msg {
		if refresh {
			return loadedMsg(m.ws.RefreshAll(m.ctx))
		}
		return loadedMsg(m.ws.LoadAll(m.ctx))
	}
}

func (m *Model) mutate(status string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return mutatedMsg(status, fn(m.ctx))
	}
}

func (m *Model) startInput() tea.Cmd {
	switch m.view {
	case GroupsView:
		m.input.Prompt = "Group name: "
		m.input.Placeholder = "Biology"
	case NotesView:
		m.input.Prompt = "Note title: "
		m.input.Placeholder = "Cell structure"
	case BookmarksView:
		m.input.Prompt = "URL [title]: "
		m.input.Placeholder = "https://go.dev The Go website"
	case RemindersView:
		m.input.Prompt = "Date and note: "
		m.input.Placeholder = "2025-03-12 Chemistry exam"
	}
	m.input.Reset()
	m.typing = true
	return m.input.Focus()
}

func (m *Model) stopInput() {
	m.typing = false
	m.input.Blur()
	m.input.Reset()
}

// submit turns the entered line into a workspace mutation for the current view.
func (m *Model) submit(value string) tea.Cmd {
	switch m.view {
	case GroupsView:
		return m.mutate(fmt.Sprintf("Created group %q", value), func(ctx context.Context) error {
			_, err := m.ws.Notes.CreateGroup(ctx, models.CreateGroupRequest{Name: value})
			return err
		})
	case NotesView:
		groupID := m.groupID
		return m.mutate(fmt.Sprintf("Created note %q", value), func(ctx context.Context) error {
			_, err := m.ws.Notes.CreateNote(ctx, models.CreateNoteRequest{GroupID: groupID, Title: value})
			return err
		})
	case BookmarksView:
		link, title, _ := strings.Cut(value, " ")
		return m.mutate("Saved bookmark", func(ctx context.Context) error {
			_, err := m.ws.Bookmarks.Add(ctx, models.CreateBookmarkRequest{Title: title, URL: link})
			return err
		})
	case RemindersView:
		date, note, _ := strings.Cut(value, " ")
		day, err := m.opts.Aggregator.ParseDay(date)
		if err != nil {
			m.err = err
			return nil
		}
		return m.mutate("Added reminder for "+date, func(ctx context.Context) error {
			_, err := m.ws.Reminders.Add(ctx, models.CreateReminderRequest{Date: day, Note: strings.TrimSpace(note)})
			return err
		})
	}
	return nil
}

func (m *Model) selectedDelete() *pendingDelete {
	if m.view == StatsView {
		return nil
	}
	switch item := m.active().SelectedItem().(type) {
	case groupItem:
		return &pendingDelete{
			label: fmt.Sprintf("group %q and its %d notes", item.group.Name, len(item.group.Notes)),
			run:   func(ctx context.Context) error { return m.ws.Notes.DeleteGroup(ctx, item.group.ID) },
		}
	case noteItem:
		return &pendingDelete{
			label: fmt.Sprintf("note %q", item.note.Title),
			run:   func(ctx context.Context) error { return m.ws.Notes.DeleteNote(ctx, item.note.ID) },
		}
	case bookmarkItem:
		return &pendingDelete{
			label: fmt.Sprintf("bookmark %q", item.bookmark.Title),
			run:   func(ctx context.Context) error { return m.ws.Bookmarks.Delete(ctx, item.bookmark.ID) },
		}
	case reminderItem:
		return &pendingDelete{
			label: fmt.Sprintf("reminder %q", item.reminder.Note),
			run:   func(ctx context.Context) error { return m.ws.Reminders.Delete(ctx, item.reminder.ID) },
		}
	}
	return nil
}

func (m *Model) recordPomodoro() tea.Cmd {
	req := models.PomodoroSession(1, m.opts.PomodoroMinutes, m.opts.BreakMinutes, nil)
	status := fmt.Sprintf("Logged a %d minute pomodoro", m.opts.PomodoroMinutes)
	return m.mutate(status, func(ctx context.Context) error {
		_, err := m.ws.Stats.RecordSession(ctx, req)
		return err
	})
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(tabs))
	for i, tab := range tabs {
		label := fmt.Sprintf("%d %s", i+1, tab.label)
		if tab.view == m.view || (tab.view == GroupsView && m.view == NotesView) {
			parts = append(parts, styles.activeTab.Render(label))
		} else {
			parts = append(parts, styles.tab.Render(label))
		}
	}

	who := m.ws.Identity()
	account := "anonymous (saved on this device)"
	if who.IsAuthenticated() {
		account = "signed in as " + who.String()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.title.Render("studydesk")+"  "+styles.help.Render(account),
		lipgloss.JoinHorizontal(lipgloss.Top, parts...),
		"",
	)
}

func (m *Model) renderStats() string {
	st := m.ws.Stats.Summary()

	var b strings.Builder
	b.WriteString(styles.title.Render("Study stats"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Minutes studied   %d (%s)\n", st.MinutesStudied, formatter.FormatMinutes(st.MinutesStudied))
	fmt.Fprintf(&b, "Sessions          %d\n", st.SessionsCompleted)
	fmt.Fprintf(&b, "Day streak        %d\n", st.DayStreak)
	fmt.Fprintf(&b, "Longest streak    %d\n", st.LongestStreak)

	if len(st.DailyStats) == 0 {
		b.WriteString("\n" + styles.help.Render("No sessions yet. Press p to log a pomodoro."))
		return b.String()
	}

	b.WriteString("\nRecent days\n")
	recent := st.DailyStats[max(0, len(st.DailyStats)-7):]
	for _, d := range recent {
		fmt.Fprintf(&b, "  %s  %-8s %s\n", d.Date.Format("Mon 02 Jan"), formatter.FormatMinutes(d.TotalTime),
			strings.Repeat("▇", min(d.TotalTime/15+1, 20)))
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	var line string
	switch {
	case m.typing:
		line = m.input.View()
	case m.confirm != nil:
		line = styles.warn.Render(fmt.Sprintf("Delete %s?", m.confirm.label)) + " " +
			m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	case m.loading:
		line = styles.help.Render("Loading…")
	case m.err != nil:
		line = styles.err.Render(describe(m.err))
	case m.status != "":
		line = styles.ok.Render("✓ " + m.status)
	}

	var keys []key.Binding
	switch m.view {
	case GroupsView:
		keys = []key.Binding{m.keys.enter, m.keys.add, m.keys.remove}
	case NotesView:
		keys = []key.Binding{m.keys.back, m.keys.add, m.keys.remove}
	case StatsView:
		keys = []key.Binding{m.keys.pomodoro}
	default:
		keys = []key.Binding{m.keys.add, m.keys.remove}
	}
	keys = append(keys, m.keys.next, m.keys.refresh, m.keys.quit)

	return lipgloss.JoinVertical(lipgloss.Left, "", line, m.help.ShortHelpView(keys))
}

// describe renders an error for the status line.
func describe(err error) string {
	switch {
	case errors.Is(err, shared.ErrRemoteUnavailable):
		return "Gateway unreachable, press r to retry"
	case errors.Is(err, shared.ErrNotLoaded):
		return "Data is not loaded yet, press r to retry"
	case errors.Is(err, shared.ErrNotFoundOrForbidden):
		return "That item no longer exists"
	default:
		return "Error: " + err.Error()
	}
}
