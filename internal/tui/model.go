package tui

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/sahilm/fuzzy"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/app"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/board"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"
)

// Service is the app-layer surface the board model drives.
type Service interface {
	Board(ctx context.Context) (board.Board, error)
	SearchBoard(ctx context.Context, q app.SearchQuery) (board.Board, error)
	CreateTask(ctx context.Context, in app.CreateTaskInput) (domain.Task, error)
	MoveTask(ctx context.Context, taskID string, status domain.Status, index int) (domain.Task, error)
	UpdateTask(ctx context.Context, taskID string, patch app.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
	BulkDelete(ctx context.Context, taskIDs []string) (app.BulkResult, error)
	BulkMove(ctx context.Context, taskIDs []string, status domain.Status) (app.BulkResult, error)
	BulkSetPriority(ctx context.Context, taskIDs []string, priority domain.Priority) (app.BulkResult, error)
}

// Logger matches the runtime logger surface the model emits events to.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// inputMode represents a selectable mode.
type inputMode int

const (
	modeNone inputMode = iota
	modeTaskForm
	modeSearch
	modePlace
	modeMove
	modeJump
	modeConfirmDelete
)

// Task form field order.
const (
	taskFieldTitle = iota
	taskFieldDescription
	taskFieldPriority
	taskFieldDue
)

// jumpMatch pairs one fuzzy title match with its board slot.
type jumpMatch struct {
	TaskID string
	Title  string
	Slot   board.Slot
}

// Model represents model data used by this package.
type Model struct {
	svc    Service
	logger Logger

	ready  bool
	width  int
	height int
	err    error

	status string

	help    help.Model
	keys    keyMap
	runtime RuntimeConfig

	recon     *board.Reconciler
	drag      board.Drag
	selection *board.Selection

	multiSelect bool

	// source tags which feed the reconciler currently observes; snapshots
	// from the other feed are dropped as stale.
	source      board.ViewMode
	searchQuery string
	searchInput textinput.Model

	selectedColumn int
	selectedTask   int

	mode inputMode

	formInputs    []textinput.Model
	formFocus     int
	editingTaskID string

	placements     []board.Placement
	placementIndex int
	placeInFlight  bool
	placeTaskID    string
	placeTaskTitle string

	moveTarget board.Slot

	jumpInput   textinput.Model
	jumpMatches []jumpMatch
	jumpIndex   int

	bulkInFlight bool
	confirmIDs   []string

	watchEvents <-chan struct{}
}

// snapshotMsg carries one authoritative board snapshot tagged with the feed
// it came from.
type snapshotMsg struct {
	source board.ViewMode
	board  board.Board
	adopt  bool
	err    error
}

// moveDoneMsg reports one settled durable move.
type moveDoneMsg struct {
	taskID string
	err    error
}

// actionMsg carries a settled create/update/delete outcome.
type actionMsg struct {
	status string
	err    error
	reload bool
}

// bulkDoneMsg reports one settled bulk batch.
type bulkDoneMsg struct {
	verb   string
	result app.BulkResult
	err    error
}

// tickMsg drives the periodic background refresh.
type tickMsg time.Time

// watchMsg signals one storage watcher event.
type watchMsg struct{}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false

	searchInput := textinput.New()
	searchInput.Prompt = "/ "
	searchInput.Placeholder = "title or description"
	searchInput.CharLimit = 120

	jumpInput := textinput.New()
	jumpInput.Prompt = ": "
	jumpInput.Placeholder = "jump to task"
	jumpInput.CharLimit = 120

	m := Model{
		svc:         svc,
		status:      "loading...",
		help:        h,
		runtime:     DefaultRuntimeConfig(),
		keys:        newKeyMap(KeyOverrides{}),
		recon:       board.NewReconciler(board.Empty()),
		selection:   board.NewSelection(),
		source:      board.ViewNormal,
		searchInput: searchInput,
		jumpInput:   jumpInput,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchSnapshot(false), m.scheduleTick(), m.waitForWatch())
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		return m.handleSnapshot(msg)

	case moveDoneMsg:
		m.placeInFlight = false
		if msg.err != nil {
			m.status = "move failed: " + msg.err.Error()
			m.logEvent("move failed", "task_id", msg.taskID, "err", msg.err)
		}
		// Refetch either way; the reconciler settles the optimistic view
		// against the authoritative snapshot.
		return m, m.fetchSnapshot(false)

	case bulkDoneMsg:
		return m.handleBulkDone(msg)

	case actionMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.reload {
			return m, m.fetchSnapshot(false)
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.scheduleTick(), m.fetchSnapshot(false))

	case watchMsg:
		return m, tea.Batch(m.waitForWatch(), m.fetchSnapshot(false))

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		return m, nil
	}
}

// handleSnapshot feeds one authoritative snapshot into the reconciler.
func (m Model) handleSnapshot(msg snapshotMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if !m.ready || m.recon.Display().Total() == 0 {
			m.err = msg.err
		}
		m.status = "refresh failed: " + msg.err.Error()
		m.logEvent("snapshot fetch failed", "source", msg.source.String(), "err", msg.err)
		return m, nil
	}
	if msg.source != m.source {
		// Stale feed: a normal-board fetch finishing after the user switched
		// to search (or back) must not clobber the active view.
		return m, nil
	}
	m.err = nil
	if msg.adopt {
		m.recon.Adopt(msg.board)
		m.status = "refreshed"
	} else {
		wasPending := m.recon.Pending()
		adopted := m.recon.Observe(msg.board)
		if wasPending && adopted {
			m.status = "synced"
		} else if m.status == "loading..." || m.status == "moving..." {
			m.status = "ready"
		}
	}
	m.clampCursor()
	return m, nil
}

// handleBulkDone settles one bulk batch outcome.
func (m Model) handleBulkDone(msg bulkDoneMsg) (tea.Model, tea.Cmd) {
	m.bulkInFlight = false
	// Selection clears only once the whole batch has settled.
	m.selection.Clear()
	m.multiSelect = false
	if msg.err != nil {
		m.status = msg.verb + " failed: " + msg.err.Error()
		m.logEvent("bulk batch failed", "verb", msg.verb, "err", msg.err)
		return m, m.fetchSnapshot(false)
	}
	if len(msg.result.Failures) > 0 {
		m.status = fmt.Sprintf("%s: %d/%d done, %d failed",
			msg.verb, msg.result.Succeeded(), msg.result.Attempted, len(msg.result.Failures))
		for _, failure := range msg.result.Failures {
			m.logEvent("bulk item failed", "verb", msg.verb, "task_id", failure.TaskID, "err", failure.Err)
		}
	} else {
		m.status = fmt.Sprintf("%s: %d done", msg.verb, msg.result.Succeeded())
	}
	return m, m.fetchSnapshot(false)
}

// handleNormalModeKey handles board navigation and action keys.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	display := m.recon.Display()

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.reload):
		m.status = "refreshing..."
		return m, m.fetchSnapshot(true)

	case key.Matches(msg, m.keys.left):
		m.selectedColumn = clamp(m.selectedColumn-1, 0, len(domain.Statuses())-1)
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.right):
		m.selectedColumn = clamp(m.selectedColumn+1, 0, len(domain.Statuses())-1)
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.up):
		m.selectedTask = clamp(m.selectedTask-1, 0, max(0, display.Len(m.cursorStatus())-1))
		return m, nil

	case key.Matches(msg, m.keys.down):
		m.selectedTask = clamp(m.selectedTask+1, 0, max(0, display.Len(m.cursorStatus())-1))
		return m, nil

	case key.Matches(msg, m.keys.addTask):
		return m, m.startTaskForm(nil)

	case key.Matches(msg, m.keys.editTask):
		task, ok := m.cursorTask()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m, m.startTaskForm(&task)

	case key.Matches(msg, m.keys.deleteTask):
		return m.startDelete()

	case key.Matches(msg, m.keys.moveMode):
		return m.startMoveMode()

	case key.Matches(msg, m.keys.placeMenu):
		return m.startPlaceMenu()

	case key.Matches(msg, m.keys.shiftLeft):
		return m.shiftColumn(-1)

	case key.Matches(msg, m.keys.shiftRight):
		return m.shiftColumn(1)

	case key.Matches(msg, m.keys.multiSelect):
		m.multiSelect = !m.multiSelect
		if m.multiSelect {
			m.status = "multi-select on"
		} else {
			m.selection.Clear()
			m.status = "multi-select off"
		}
		return m, nil

	case key.Matches(msg, m.keys.selectAll):
		if !m.multiSelect {
			return m, nil
		}
		m.selection.SelectAll(display.FlatIDs())
		m.status = fmt.Sprintf("%d selected", m.selection.Len())
		return m, nil

	case key.Matches(msg, m.keys.rangeMark):
		if !m.multiSelect {
			return m, nil
		}
		if task, ok := m.cursorTask(); ok {
			m.selection.Toggle(task.ID, true, display.FlatIDs())
			m.status = fmt.Sprintf("%d selected", m.selection.Len())
		}
		return m, nil

	case key.Matches(msg, m.keys.toggleMark):
		if !m.multiSelect {
			return m, nil
		}
		if task, ok := m.cursorTask(); ok {
			m.selection.Toggle(task.ID, false, display.FlatIDs())
			m.status = fmt.Sprintf("%d selected", m.selection.Len())
		}
		return m, nil

	case key.Matches(msg, m.keys.search):
		m.mode = modeSearch
		m.searchInput.SetValue(m.searchQuery)
		m.searchInput.CursorEnd()
		m.status = "search"
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.jump):
		m.mode = modeJump
		m.jumpInput.SetValue("")
		m.jumpMatches = nil
		m.jumpIndex = 0
		m.status = "jump"
		return m, m.jumpInput.Focus()

	case key.Matches(msg, m.keys.yank):
		task, ok := m.cursorTask()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		if err := clipboard.WriteAll(fmt.Sprintf("%s (%s)", task.Title, task.ID)); err != nil {
			m.status = "yank failed: " + err.Error()
			return m, nil
		}
		m.status = "yanked: " + truncate(task.Title, 40)
		return m, nil

	case key.Matches(msg, m.keys.priLow):
		return m.setPriority(domain.PriorityLow)

	case key.Matches(msg, m.keys.priMedium):
		return m.setPriority(domain.PriorityMedium)

	case key.Matches(msg, m.keys.priHigh):
		return m.setPriority(domain.PriorityHigh)

	case key.Matches(msg, m.keys.cancel):
		if m.multiSelect || m.selection.Len() > 0 {
			m.selection.Clear()
			m.multiSelect = false
			m.status = "selection cleared"
			return m, nil
		}
		if m.source == board.ViewSearch {
			return m.exitSearchView()
		}
		return m, nil

	default:
		return m, nil
	}
}

// handleInputModeKey dispatches keys while a modal mode is active.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeTaskForm:
		return m.handleTaskFormKey(msg)
	case modeSearch:
		return m.handleSearchKey(msg)
	case modePlace:
		return m.handlePlaceKey(msg)
	case modeMove:
		return m.handleMoveKey(msg)
	case modeJump:
		return m.handleJumpKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmDeleteKey(msg)
	default:
		m.mode = modeNone
		return m, nil
	}
}

// startDelete requests deletion of the focused task or the selection.
func (m Model) startDelete() (tea.Model, tea.Cmd) {
	if m.bulkInFlight {
		m.status = "bulk operation in flight"
		return m, nil
	}
	display := m.recon.Display()
	if m.multiSelect && m.selection.Len() > 0 {
		m.confirmIDs = m.selection.Ordered(display.FlatIDs())
	} else {
		task, ok := m.cursorTask()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		m.confirmIDs = []string{task.ID}
	}
	m.mode = modeConfirmDelete
	if len(m.confirmIDs) == 1 {
		m.status = "confirm delete"
	} else {
		m.status = fmt.Sprintf("confirm delete of %d tasks", len(m.confirmIDs))
	}
	return m, nil
}

// handleConfirmDeleteKey resolves a pending delete confirmation.
func (m Model) handleConfirmDeleteKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		ids := m.confirmIDs
		m.confirmIDs = nil
		m.mode = modeNone
		m.recon.ProjectRemoval(ids)
		m.clampCursor()
		if len(ids) == 1 {
			m.status = "deleting..."
			return m, m.deleteTaskCmd(ids[0])
		}
		m.bulkInFlight = true
		m.status = fmt.Sprintf("deleting %d tasks...", len(ids))
		return m, m.bulkDeleteCmd(ids)
	case "n", "esc", "q":
		m.confirmIDs = nil
		m.mode = modeNone
		m.status = "delete cancelled"
		return m, nil
	default:
		return m, nil
	}
}

// startMoveMode enters keyboard move mode for the focused task.
func (m Model) startMoveMode() (tea.Model, tea.Cmd) {
	display := m.recon.Display()
	source := board.Slot{Status: m.cursorStatus(), Index: m.selectedTask}
	if err := m.drag.Begin(display, source); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.mode = modeMove
	m.moveTarget = source
	m.status = "move: h/l column, j/k position, enter drop, esc cancel"
	return m, nil
}

// handleMoveKey adjusts the move target slot and completes or cancels the drag.
func (m Model) handleMoveKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	display := m.recon.Display()
	statuses := domain.Statuses()

	switch {
	case key.Matches(msg, m.keys.left), key.Matches(msg, m.keys.right):
		delta := 1
		if key.Matches(msg, m.keys.left) {
			delta = -1
		}
		targetCol := clamp(statusIndex(m.moveTarget.Status)+delta, 0, len(statuses)-1)
		m.moveTarget.Status = statuses[targetCol]
		m.moveTarget.Index = clamp(m.moveTarget.Index, 0, m.moveLimit(display))
		m.drag.Update(m.moveTarget.Status)
		return m, nil

	case key.Matches(msg, m.keys.up):
		m.moveTarget.Index = clamp(m.moveTarget.Index-1, 0, m.moveLimit(display))
		return m, nil

	case key.Matches(msg, m.keys.down):
		m.moveTarget.Index = clamp(m.moveTarget.Index+1, 0, m.moveLimit(display))
		return m, nil

	case msg.String() == "enter":
		dest := m.moveTarget
		intent := m.drag.Drop(&dest)
		m.mode = modeNone
		if intent == nil {
			m.status = "ready"
			return m, nil
		}
		return m.issueMove(*intent)

	case key.Matches(msg, m.keys.cancel):
		m.drag.Drop(nil)
		m.mode = modeNone
		m.status = "move cancelled"
		return m, nil

	default:
		return m, nil
	}
}

// moveLimit returns the maximum legal insertion index for the active move.
// Indexes are post-removal, so the task's own column tops out one short of
// its length while other columns allow the append slot.
func (m Model) moveLimit(display board.Board) int {
	length := display.Len(m.moveTarget.Status)
	if m.moveTarget.Status == m.drag.Source().Status {
		return max(0, length-1)
	}
	return length
}

// startPlaceMenu opens the positional move menu for the focused task.
func (m Model) startPlaceMenu() (tea.Model, tea.Cmd) {
	if m.placeInFlight {
		// One placement move at a time; refuse repeat submission while the
		// previous one is still pending.
		m.status = "placement move in flight"
		return m, nil
	}
	task, ok := m.cursorTask()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	placements, err := board.Placements(m.recon.Display(), task.ID)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.placements = placements
	m.placementIndex = 0
	m.placeTaskID = task.ID
	m.placeTaskTitle = task.Title
	m.mode = modePlace
	m.status = "place: " + truncate(task.Title, 40)
	return m, nil
}

// handlePlaceKey navigates the placement menu and issues the chosen move.
func (m Model) handlePlaceKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.up):
		m.placementIndex = clamp(m.placementIndex-1, 0, max(0, len(m.placements)-1))
		return m, nil

	case key.Matches(msg, m.keys.down):
		m.placementIndex = clamp(m.placementIndex+1, 0, max(0, len(m.placements)-1))
		return m, nil

	case msg.String() == "enter":
		if len(m.placements) == 0 {
			m.mode = modeNone
			return m, nil
		}
		choice := m.placements[clamp(m.placementIndex, 0, len(m.placements)-1)]
		taskID := m.placeTaskID
		m.mode = modeNone
		m.placeTaskID = ""
		m.placeTaskTitle = ""
		m.placeInFlight = true
		return m.issueMove(board.MoveIntent{TaskID: taskID, Status: choice.Status, Index: choice.Index})

	case key.Matches(msg, m.keys.cancel):
		m.mode = modeNone
		m.placeTaskID = ""
		m.placeTaskTitle = ""
		m.status = "ready"
		return m, nil

	default:
		return m, nil
	}
}

// issueMove projects one move optimistically and issues the durable write.
func (m Model) issueMove(in board.MoveIntent) (tea.Model, tea.Cmd) {
	if err := m.recon.Project(in); err != nil {
		m.placeInFlight = false
		m.status = err.Error()
		return m, nil
	}
	m.followTask(in.TaskID)
	m.status = "moving..."
	return m, m.moveTaskCmd(in)
}

// shiftColumn moves the focused task (or the whole selection) one column
// over, appended at the destination end.
func (m Model) shiftColumn(delta int) (tea.Model, tea.Cmd) {
	statuses := domain.Statuses()
	display := m.recon.Display()

	if m.multiSelect && m.selection.Len() > 0 {
		if m.bulkInFlight {
			m.status = "bulk operation in flight"
			return m, nil
		}
		anchorTask, ok := m.cursorTask()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		targetCol := statusIndex(anchorTask.Status) + delta
		if targetCol < 0 || targetCol >= len(statuses) {
			m.status = "no column there"
			return m, nil
		}
		status := statuses[targetCol]
		ordered := m.selection.Ordered(display.FlatIDs())
		// The durable batch treats a same-status patch as a no-op, so tasks
		// already in the destination keep their slot and stay out of the
		// batch; a projected reposition for them could never settle.
		ids := make([]string, 0, len(ordered))
		for _, id := range ordered {
			if current, _, ok := display.Find(id); ok && current == status {
				continue
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			m.status = "already in " + status.Label()
			return m, nil
		}
		// Project each move in selection order; the optimistic view grows
		// the destination column as intents compose.
		for _, id := range ids {
			in := board.MoveIntent{TaskID: id, Status: status, Index: m.recon.Display().Len(status)}
			if err := m.recon.Project(in); err != nil {
				m.status = err.Error()
				return m, nil
			}
		}
		m.bulkInFlight = true
		m.status = fmt.Sprintf("moving %d tasks to %s...", len(ids), status.Label())
		return m, m.bulkMoveCmd(ids, status)
	}

	task, ok := m.cursorTask()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	targetCol := statusIndex(task.Status) + delta
	if targetCol < 0 || targetCol >= len(statuses) {
		m.status = "no column there"
		return m, nil
	}
	status := statuses[targetCol]
	return m.issueMove(board.MoveIntent{TaskID: task.ID, Status: status, Index: display.Len(status)})
}

// setPriority applies one priority to the focused task or the selection.
func (m Model) setPriority(priority domain.Priority) (tea.Model, tea.Cmd) {
	if m.multiSelect && m.selection.Len() > 0 {
		if m.bulkInFlight {
			m.status = "bulk operation in flight"
			return m, nil
		}
		ids := m.selection.Ordered(m.recon.Display().FlatIDs())
		m.bulkInFlight = true
		m.status = fmt.Sprintf("setting %d tasks to %s...", len(ids), priority)
		return m, m.bulkPriorityCmd(ids, priority)
	}
	task, ok := m.cursorTask()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	p := priority
	return m, m.updateTaskCmd(task.ID, app.TaskPatch{Priority: &p}, "priority set to "+string(priority))
}

// handleSearchKey edits the search query and applies or cancels the overlay.
func (m Model) handleSearchKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		query := strings.TrimSpace(m.searchInput.Value())
		m.searchInput.Blur()
		m.mode = modeNone
		if query == "" {
			return m.exitSearchView()
		}
		m.searchQuery = query
		m.source = board.ViewSearch
		m.status = "searching: " + query
		return m, m.fetchSnapshot(false)
	case "esc":
		m.searchInput.Blur()
		m.mode = modeNone
		m.status = "ready"
		return m, nil
	default:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}
}

// exitSearchView leaves the search overlay and refetches the normal board.
// A projection still pending against the filtered feed can never match a
// full-board snapshot, so the switch adopts the next snapshot outright.
func (m Model) exitSearchView() (tea.Model, tea.Cmd) {
	m.searchQuery = ""
	m.source = board.ViewNormal
	m.status = "search cleared"
	return m, m.fetchSnapshot(m.recon.Pending())
}

// handleJumpKey fuzzy-filters visible task titles and moves the cursor.
func (m Model) handleJumpKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.jumpInput.Blur()
		m.mode = modeNone
		if len(m.jumpMatches) == 0 {
			m.status = "no match"
			return m, nil
		}
		match := m.jumpMatches[clamp(m.jumpIndex, 0, len(m.jumpMatches)-1)]
		m.selectedColumn = statusIndex(match.Slot.Status)
		m.selectedTask = match.Slot.Index
		m.clampCursor()
		m.status = "jumped to " + truncate(match.Title, 40)
		return m, nil
	case "esc":
		m.jumpInput.Blur()
		m.mode = modeNone
		m.status = "ready"
		return m, nil
	case "down", "ctrl+n":
		m.jumpIndex = clamp(m.jumpIndex+1, 0, max(0, len(m.jumpMatches)-1))
		return m, nil
	case "up", "ctrl+p":
		m.jumpIndex = clamp(m.jumpIndex-1, 0, max(0, len(m.jumpMatches)-1))
		return m, nil
	default:
		var cmd tea.Cmd
		m.jumpInput, cmd = m.jumpInput.Update(msg)
		m.refreshJumpMatches()
		return m, cmd
	}
}

// refreshJumpMatches recomputes the fuzzy match list for the jump palette.
func (m *Model) refreshJumpMatches() {
	query := strings.TrimSpace(m.jumpInput.Value())
	display := m.recon.Display()
	tasks := display.FlatTasks()
	m.jumpIndex = 0
	if query == "" {
		m.jumpMatches = nil
		return
	}
	titles := make([]string, 0, len(tasks))
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	results := fuzzy.Find(query, titles)
	matches := make([]jumpMatch, 0, len(results))
	for _, result := range results {
		task := tasks[result.Index]
		status, index, ok := display.Find(task.ID)
		if !ok {
			continue
		}
		matches = append(matches, jumpMatch{
			TaskID: task.ID,
			Title:  task.Title,
			Slot:   board.Slot{Status: status, Index: index},
		})
	}
	m.jumpMatches = matches
}

// startTaskForm opens the create or edit modal for a task.
func (m *Model) startTaskForm(task *domain.Task) tea.Cmd {
	m.formInputs = []textinput.Model{
		newModalInput("", "task title (required)", 120),
		newModalInput("", "short description", 240),
		newModalInput("", "low | medium | high", 16),
		newModalInput("", "YYYY-MM-DD or - to clear", 32),
	}
	m.formFocus = 0
	if task != nil {
		m.editingTaskID = task.ID
		m.formInputs[taskFieldTitle].SetValue(task.Title)
		m.formInputs[taskFieldDescription].SetValue(task.Description)
		m.formInputs[taskFieldPriority].SetValue(string(task.Priority))
		if task.DueAt != nil {
			m.formInputs[taskFieldDue].SetValue(task.DueAt.UTC().Format("2006-01-02"))
		}
		m.status = "edit task"
	} else {
		m.editingTaskID = ""
		m.formInputs[taskFieldPriority].Placeholder = "medium"
		m.status = "new task"
	}
	m.mode = modeTaskForm
	return m.formInputs[0].Focus()
}

// handleTaskFormKey edits task form fields and submits or cancels the form.
func (m Model) handleTaskFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.editingTaskID = ""
		m.status = "ready"
		return m, nil
	case "tab", "down":
		return m.focusFormField(m.formFocus + 1)
	case "shift+tab", "up":
		return m.focusFormField(m.formFocus - 1)
	case "enter":
		if m.formFocus < len(m.formInputs)-1 {
			return m.focusFormField(m.formFocus + 1)
		}
		return m.submitTaskForm()
	default:
		var cmd tea.Cmd
		m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
		return m, cmd
	}
}

// focusFormField moves focus between task form inputs.
func (m Model) focusFormField(idx int) (tea.Model, tea.Cmd) {
	if len(m.formInputs) == 0 {
		return m, nil
	}
	idx = clamp(idx, 0, len(m.formInputs)-1)
	m.formFocus = idx
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	return m, m.formInputs[idx].Focus()
}

// submitTaskForm validates the form and issues the create or update.
func (m Model) submitTaskForm() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.formInputs[taskFieldTitle].Value())
	description := strings.TrimSpace(m.formInputs[taskFieldDescription].Value())
	priorityRaw := strings.TrimSpace(m.formInputs[taskFieldPriority].Value())
	dueRaw := strings.TrimSpace(m.formInputs[taskFieldDue].Value())

	if title == "" {
		m.status = "title is required"
		return m, nil
	}
	priority := domain.PriorityMedium
	if priorityRaw != "" {
		parsed, err := domain.ParsePriority(priorityRaw)
		if err != nil {
			m.status = "priority must be low, medium, or high"
			return m, nil
		}
		priority = parsed
	}
	dueAt, clearDue, err := parseDueInput(dueRaw)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}

	editingID := m.editingTaskID
	m.mode = modeNone
	m.editingTaskID = ""

	if editingID == "" {
		in := app.CreateTaskInput{
			Status:      m.cursorStatus(),
			Title:       title,
			Description: description,
			Priority:    priority,
			DueAt:       dueAt,
		}
		m.status = "creating..."
		return m, m.createTaskCmd(in)
	}

	patch := app.TaskPatch{
		Title:       &title,
		Description: &description,
		Priority:    &priority,
	}
	if clearDue {
		patch.ClearDueAt = true
	} else if dueAt != nil {
		patch.DueAt = dueAt
	}
	m.status = "saving..."
	return m, m.updateTaskCmd(editingID, patch, "task updated")
}

// parseDueInput parses the due form value. "-" clears the due date.
func parseDueInput(raw string) (*time.Time, bool, error) {
	if raw == "" {
		return nil, false, nil
	}
	if raw == "-" {
		return nil, true, nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04", time.RFC3339} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			ts := parsed.UTC()
			return &ts, false, nil
		}
	}
	return nil, false, fmt.Errorf("due date must be YYYY-MM-DD, YYYY-MM-DDTHH:MM, RFC3339, or -")
}

// newModalInput constructs modal input.
func newModalInput(prompt, placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	return in
}

// handleMouseClick selects the clicked slot and picks the task up for a drag.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || m.help.ShowAll || msg.Button != tea.MouseLeft {
		return m, nil
	}
	slot, onTask := m.slotAt(msg.X, msg.Y)
	if !onTask {
		if status, ok := m.columnAt(msg.X); ok {
			m.selectedColumn = statusIndex(status)
			m.clampCursor()
		}
		return m, nil
	}
	display := m.recon.Display()
	m.selectedColumn = statusIndex(slot.Status)
	m.selectedTask = slot.Index

	if m.multiSelect {
		if task, ok := display.TaskAt(slot.Status, slot.Index); ok {
			m.selection.Toggle(task.ID, msg.Mod&tea.ModShift != 0, display.FlatIDs())
			m.status = fmt.Sprintf("%d selected", m.selection.Len())
		}
		return m, nil
	}
	if err := m.drag.Begin(display, slot); err == nil {
		m.status = "dragging: " + truncate(taskTitleAt(display, slot), 40)
	}
	return m, nil
}

// handleMouseMotion records the hovered column for live drag feedback.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if !m.drag.Active() {
		return m, nil
	}
	if status, ok := m.columnAt(msg.X); ok {
		m.drag.Update(status)
	}
	return m, nil
}

// handleMouseRelease drops an active drag at the release slot.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if !m.drag.Active() {
		return m, nil
	}
	status, ok := m.columnAt(msg.X)
	if !ok {
		m.drag.Drop(nil)
		m.status = "drop cancelled"
		return m, nil
	}
	display := m.recon.Display()
	limit := display.Len(status)
	if status == m.drag.Source().Status {
		limit = max(0, limit-1)
	}
	dest := board.Slot{Status: status, Index: clamp(m.rowAt(msg.Y), 0, limit)}
	intent := m.drag.Drop(&dest)
	if intent == nil {
		m.status = "ready"
		return m, nil
	}
	return m.issueMove(*intent)
}

// handleMouseWheel scrolls the cursor within the hovered column.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || m.help.ShowAll {
		return m, nil
	}
	if status, ok := m.columnAt(msg.X); ok {
		m.selectedColumn = statusIndex(status)
	}
	limit := max(0, m.recon.Display().Len(m.cursorStatus())-1)
	switch msg.Button {
	case tea.MouseWheelUp:
		m.selectedTask = clamp(m.selectedTask-1, 0, limit)
	case tea.MouseWheelDown:
		m.selectedTask = clamp(m.selectedTask+1, 0, limit)
	}
	return m, nil
}

// boardTop is the number of rendered rows above the column borders:
// header line plus one blank spacer.
const boardTop = 2

// rowsPerTask keeps mouse hit-testing aligned with column rendering; every
// task card renders as exactly two rows.
const rowsPerTask = 2

// slotAt resolves a terminal coordinate to a board slot.
func (m Model) slotAt(x, y int) (board.Slot, bool) {
	status, ok := m.columnAt(x)
	if !ok {
		return board.Slot{}, false
	}
	index := m.rowAt(y)
	if index < 0 || index >= m.recon.Display().Len(status) {
		return board.Slot{}, false
	}
	return board.Slot{Status: status, Index: index}, true
}

// columnAt resolves a terminal x coordinate to a status column.
func (m Model) columnAt(x int) (domain.Status, bool) {
	statuses := domain.Statuses()
	colWidth := m.columnWidth() + 3 // border + margin approximation for hit testing
	if colWidth <= 0 || x < 0 {
		return "", false
	}
	idx := x / colWidth
	if idx < 0 || idx >= len(statuses) {
		return "", false
	}
	return statuses[idx], true
}

// rowAt resolves a terminal y coordinate to a task index within a column.
// Rows above the first card map to index 0.
func (m Model) rowAt(y int) int {
	// boardTop rows, then column border and title before the first card.
	relative := y - boardTop - 2
	if relative < 0 {
		return 0
	}
	return relative / rowsPerTask
}

// cursorStatus returns the status of the focused column.
func (m Model) cursorStatus() domain.Status {
	statuses := domain.Statuses()
	return statuses[clamp(m.selectedColumn, 0, len(statuses)-1)]
}

// cursorTask returns the focused task.
func (m Model) cursorTask() (domain.Task, bool) {
	return m.recon.Display().TaskAt(m.cursorStatus(), m.selectedTask)
}

// followTask moves the cursor to a task's current display slot.
func (m *Model) followTask(taskID string) {
	if status, index, ok := m.recon.Display().Find(taskID); ok {
		m.selectedColumn = statusIndex(status)
		m.selectedTask = index
	}
}

// clampCursor keeps the cursor inside the displayed board.
func (m *Model) clampCursor() {
	statuses := domain.Statuses()
	m.selectedColumn = clamp(m.selectedColumn, 0, len(statuses)-1)
	display := m.recon.Display()
	m.selectedTask = clamp(m.selectedTask, 0, max(0, display.Len(m.cursorStatus())-1))
}

// fetchSnapshot fetches one authoritative snapshot from the active feed.
func (m Model) fetchSnapshot(adopt bool) tea.Cmd {
	svc := m.svc
	source := m.source
	query := m.searchQuery
	filters := m.runtime.Search
	return func() tea.Msg {
		if source == board.ViewSearch {
			b, err := svc.SearchBoard(context.Background(), app.SearchQuery{
				Text:       query,
				Statuses:   filters.Statuses,
				Priorities: filters.Priorities,
			})
			return snapshotMsg{source: source, board: b, adopt: adopt, err: err}
		}
		b, err := svc.Board(context.Background())
		return snapshotMsg{source: source, board: b, adopt: adopt, err: err}
	}
}

// scheduleTick schedules the next periodic refresh.
func (m Model) scheduleTick() tea.Cmd {
	interval := m.runtime.RefreshInterval
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForWatch blocks on the storage watcher channel.
func (m Model) waitForWatch() tea.Cmd {
	events := m.watchEvents
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-events; !ok {
			return nil
		}
		return watchMsg{}
	}
}

// moveTaskCmd issues one durable move.
func (m Model) moveTaskCmd(in board.MoveIntent) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		_, err := svc.MoveTask(context.Background(), in.TaskID, in.Status, in.Index)
		return moveDoneMsg{taskID: in.TaskID, err: err}
	}
}

// createTaskCmd issues one durable create.
func (m Model) createTaskCmd(in app.CreateTaskInput) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		task, err := svc.CreateTask(context.Background(), in)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "created: " + truncate(task.Title, 40), reload: true}
	}
}

// updateTaskCmd issues one durable partial update.
func (m Model) updateTaskCmd(taskID string, patch app.TaskPatch, doneStatus string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if _, err := svc.UpdateTask(context.Background(), taskID, patch); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: doneStatus, reload: true}
	}
}

// deleteTaskCmd issues one durable delete.
func (m Model) deleteTaskCmd(taskID string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if err := svc.DeleteTask(context.Background(), taskID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "deleted", reload: true}
	}
}

// bulkDeleteCmd issues one sequential bulk delete batch.
func (m Model) bulkDeleteCmd(ids []string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		result, err := svc.BulkDelete(context.Background(), ids)
		return bulkDoneMsg{verb: "bulk delete", result: result, err: err}
	}
}

// bulkMoveCmd issues one sequential bulk move batch.
func (m Model) bulkMoveCmd(ids []string, status domain.Status) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		result, err := svc.BulkMove(context.Background(), ids, status)
		return bulkDoneMsg{verb: "bulk move", result: result, err: err}
	}
}

// bulkPriorityCmd issues one sequential bulk priority batch.
func (m Model) bulkPriorityCmd(ids []string, priority domain.Priority) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		result, err := svc.BulkSetPriority(context.Background(), ids, priority)
		return bulkDoneMsg{verb: "bulk priority", result: result, err: err}
	}
}

// logEvent forwards one event to the attached logger, if any.
func (m Model) logEvent(msg string, keyvals ...any) {
	if m.logger == nil {
		return
	}
	m.logger.Warn(msg, keyvals...)
}

// View renders the board.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)
	pendingStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))

	display := m.recon.Display()

	header := titleStyle.Render("mbb") + statusStyle.Render("  ["+m.source.String()+"]")
	if m.source == board.ViewSearch && m.searchQuery != "" {
		header += statusStyle.Render("  search: " + truncate(m.searchQuery, 40))
	}
	if m.recon.Pending() {
		header += pendingStyle.Render("  ● syncing")
	}
	if misses := m.recon.Misses(); misses > 0 {
		header += pendingStyle.Render(fmt.Sprintf("  diverged ×%d", misses))
	}
	if count := m.selection.Len(); count > 0 {
		header += statusStyle.Render(fmt.Sprintf("  selected: %d", count))
	}

	body := m.renderColumns(display, accent, muted, dim)

	sections := []string{header, "", body}
	if m.multiSelect {
		sections = append(sections, statusStyle.Render(fmt.Sprintf(
			"multi-select • %s mark • %s range • %s all • esc clear",
			m.keys.toggleMark.Help().Key, m.keys.rangeMark.Help().Key, m.keys.selectAll.Help().Key)))
	}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		helpHeight := lipgloss.Height(helpLine)
		content = fitLines(content, max(0, m.height-helpHeight))
	}
	fullContent := content + "\n" + helpLine

	overlay := m.renderModeOverlay(accent, muted, m.width-8)
	if m.help.ShowAll {
		overlay = m.renderHelpOverlay(accent, muted, m.width-8)
	}
	if overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}

	v := tea.NewView(fullContent)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// renderColumns renders the four status columns side by side.
func (m Model) renderColumns(display board.Board, accent, muted, dim color.Color) string {
	colWidth := m.columnWidth()
	colHeight := m.columnHeight()

	baseColStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		MarginRight(1).
		Width(colWidth)
	selColStyle := baseColStyle.BorderForeground(accent)
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	cursorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	cursorMarkedStyle := cursorStyle.Underline(true)
	markedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("237")).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(muted)
	targetStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))

	statuses := domain.Statuses()
	columnViews := make([]string, 0, len(statuses))
	for colIdx, status := range statuses {
		tasks := display.Tasks(status)
		lines := []string{colTitle.Render(fmt.Sprintf("%s (%d)", status.Label(), len(tasks)))}

		if len(tasks) == 0 {
			lines = append(lines, emptyStyle.Render("(empty)"), "")
		}
		for taskIdx, task := range tasks {
			focused := colIdx == m.selectedColumn && taskIdx == m.selectedTask
			marked := m.selection.Has(task.ID)
			dragged := m.drag.Active() && m.drag.TaskID() == task.ID

			prefix := "   "
			switch {
			case focused && marked:
				prefix = "│* "
			case focused:
				prefix = "│  "
			case marked:
				prefix = " * "
			}
			title := prefix + truncate(task.Title, max(1, colWidth-6))
			switch {
			case dragged:
				title = targetStyle.Render(title)
			case focused && marked:
				title = cursorMarkedStyle.Render(title)
			case focused:
				title = cursorStyle.Render(title)
			case marked:
				title = markedStyle.Render(title)
			}

			sub := m.taskSecondary(task)
			subLine := " "
			if sub != "" {
				subLine = prefix + subStyle.Render(truncate(sub, max(1, colWidth-6)))
			}
			lines = append(lines, title, subLine)
		}
		if m.mode == modeMove && m.moveTarget.Status == status {
			lines = append(lines, targetStyle.Render(fmt.Sprintf("▸ drop at %s", board.Ordinal(m.moveTarget.Index+1))))
		}

		content := fitLines(strings.Join(lines, "\n"), max(1, colHeight-2))
		if colIdx == m.selectedColumn {
			columnViews = append(columnViews, selColStyle.Render(content))
		} else {
			columnViews = append(columnViews, baseColStyle.Render(content))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

// taskSecondary builds the second card row from the configured fields.
func (m Model) taskSecondary(task domain.Task) string {
	parts := make([]string, 0, 2)
	if m.runtime.TaskFields.ShowPriority {
		parts = append(parts, string(task.Priority))
	}
	if m.runtime.TaskFields.ShowDueDate && task.DueAt != nil {
		parts = append(parts, "due "+task.DueAt.UTC().Format("2006-01-02"))
	}
	return strings.Join(parts, " • ")
}

// renderModeOverlay renders the active modal, if any.
func (m Model) renderModeOverlay(accent, muted color.Color, maxWidth int) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	if maxWidth > 0 {
		boxStyle = boxStyle.Width(clamp(maxWidth, 32, 72))
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	switch m.mode {
	case modeTaskForm:
		formTitle := "New Task"
		if m.editingTaskID != "" {
			formTitle = "Edit Task"
		}
		labels := []string{"title", "description", "priority", "due"}
		lines := []string{titleStyle.Render(formTitle)}
		for idx, input := range m.formInputs {
			marker := "  "
			if idx == m.formFocus {
				marker = "│ "
			}
			lines = append(lines, marker+labels[idx]+": "+input.View())
		}
		lines = append(lines, hintStyle.Render("tab next field • enter submit • esc cancel"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeSearch:
		lines := []string{
			titleStyle.Render("Search"),
			m.searchInput.View(),
			hintStyle.Render("enter apply • empty query or esc back to board"),
		}
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeJump:
		lines := []string{titleStyle.Render("Jump"), m.jumpInput.View()}
		if len(m.jumpMatches) == 0 && strings.TrimSpace(m.jumpInput.Value()) != "" {
			lines = append(lines, hintStyle.Render("(no match)"))
		}
		for idx, match := range m.jumpMatches {
			if idx >= 8 {
				lines = append(lines, hintStyle.Render(fmt.Sprintf("+%d more", len(m.jumpMatches)-idx)))
				break
			}
			marker := "  "
			if idx == m.jumpIndex {
				marker = "│ "
			}
			lines = append(lines, marker+truncate(match.Title, 48)+hintStyle.Render("  "+match.Slot.Status.Label()))
		}
		lines = append(lines, hintStyle.Render("enter jump • esc cancel"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modePlace:
		lines := []string{titleStyle.Render("Place: " + truncate(m.placeTaskTitle, 40))}
		for idx, placement := range m.placements {
			marker := "  "
			if idx == m.placementIndex {
				marker = "│ "
			}
			line := marker + placement.Label
			if placement.Detail != "" {
				line += hintStyle.Render("  " + placement.Detail)
			}
			lines = append(lines, line)
		}
		lines = append(lines, hintStyle.Render("j/k choose • enter move • esc cancel"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeConfirmDelete:
		what := "this task"
		if len(m.confirmIDs) > 1 {
			what = fmt.Sprintf("%d tasks", len(m.confirmIDs))
		}
		lines := []string{
			titleStyle.Render("Delete " + what + "?"),
			hintStyle.Render("y/enter confirm • n/esc cancel"),
		}
		return boxStyle.Render(strings.Join(lines, "\n"))

	default:
		return ""
	}
}

// renderHelpOverlay renders the full keybinding reference.
func (m Model) renderHelpOverlay(accent, muted color.Color, maxWidth int) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	if maxWidth > 0 {
		boxStyle = boxStyle.Width(clamp(maxWidth, 40, 88))
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	helpBubble := m.help
	helpBubble.ShowAll = true
	helpBubble.SetWidth(clamp(maxWidth-4, 36, 84))
	lines := []string{
		titleStyle.Render("Keys"),
		helpBubble.View(m.keys),
		hintStyle.Render("? close"),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// columnWidth returns the inner width of one rendered column.
func (m Model) columnWidth() int {
	count := len(domain.Statuses())
	if m.width <= 0 {
		return 24
	}
	return max(16, m.width/count-3)
}

// columnHeight returns the outer height budget of one rendered column.
func (m Model) columnHeight() int {
	if m.height <= 0 {
		return 20
	}
	return max(6, m.height-6)
}

// taskTitleAt returns the title at a slot, or "" when empty.
func taskTitleAt(b board.Board, slot board.Slot) string {
	if task, ok := b.TaskAt(slot.Status, slot.Index); ok {
		return task.Title
	}
	return ""
}

// statusIndex returns the display column index of one status.
func statusIndex(status domain.Status) int {
	for idx, candidate := range domain.Statuses() {
		if candidate == status {
			return idx
		}
	}
	return 0
}

// clamp bounds v to [minV, maxV].
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

// max returns the larger of the provided values.
func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// fitLines fits content to exactly maxLines lines.
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

// overlayOnContent centers an overlay box over base content.
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

// truncate truncates s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
