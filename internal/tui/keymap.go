package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit        key.Binding
	reload      key.Binding
	toggleHelp  key.Binding
	left        key.Binding
	right       key.Binding
	up          key.Binding
	down        key.Binding
	addTask     key.Binding
	editTask    key.Binding
	deleteTask  key.Binding
	moveMode    key.Binding
	placeMenu   key.Binding
	shiftLeft   key.Binding
	shiftRight  key.Binding
	multiSelect key.Binding
	selectAll   key.Binding
	toggleMark  key.Binding
	rangeMark   key.Binding
	search      key.Binding
	jump        key.Binding
	yank        key.Binding
	priLow      key.Binding
	priMedium   key.Binding
	priHigh     key.Binding
	cancel      key.Binding
}

// KeyOverrides carries configurable key assignments loaded from config.
// Empty fields keep the built-in default.
type KeyOverrides struct {
	MultiSelect string
	SelectAll   string
	PlaceMenu   string
	MoveMode    string
	Jump        string
	Yank        string
}

// newKeyMap constructs key map.
func newKeyMap(overrides KeyOverrides) keyMap {
	pick := func(override, fallback string) string {
		if override != "" {
			return override
		}
		return fallback
	}
	multiSelect := pick(overrides.MultiSelect, "v")
	selectAll := pick(overrides.SelectAll, "a")
	placeMenu := pick(overrides.PlaceMenu, "p")
	moveMode := pick(overrides.MoveMode, "m")
	jump := pick(overrides.Jump, ":")
	yank := pick(overrides.Yank, "y")

	return keyMap{
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		left:        key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		right:       key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		addTask:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		editTask:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit task")),
		deleteTask:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		moveMode:    key.NewBinding(key.WithKeys(moveMode), key.WithHelp(moveMode, "move task")),
		placeMenu:   key.NewBinding(key.WithKeys(placeMenu), key.WithHelp(placeMenu, "place task")),
		shiftLeft:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "send left")),
		shiftRight:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "send right")),
		multiSelect: key.NewBinding(key.WithKeys(multiSelect), key.WithHelp(multiSelect, "multi-select")),
		selectAll:   key.NewBinding(key.WithKeys(selectAll), key.WithHelp(selectAll, "select all")),
		toggleMark:  key.NewBinding(key.WithKeys("space"), key.WithHelp("space", "toggle mark")),
		rangeMark:   key.NewBinding(key.WithKeys("V", "shift+space"), key.WithHelp("V", "range mark")),
		search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		jump:        key.NewBinding(key.WithKeys(jump), key.WithHelp(jump, "jump")),
		yank:        key.NewBinding(key.WithKeys(yank), key.WithHelp(yank, "yank task")),
		priLow:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "priority low")),
		priMedium:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "priority medium")),
		priHigh:     key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "priority high")),
		cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel/clear")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addTask, k.editTask, k.moveMode, k.placeMenu, k.multiSelect, k.search, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addTask, k.editTask, k.deleteTask, k.search, k.jump, k.yank, k.toggleHelp, k.reload, k.quit},
		{k.left, k.right, k.up, k.down, k.moveMode, k.placeMenu, k.shiftLeft, k.shiftRight},
		{k.multiSelect, k.selectAll, k.toggleMark, k.rangeMark, k.priLow, k.priMedium, k.priHigh, k.cancel},
	}
}
