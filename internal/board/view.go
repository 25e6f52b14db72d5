package board

// ViewMode tags the origin of the displayed column model.
type ViewMode int

const (
	ViewNormal ViewMode = iota
	ViewSearch
)

// String handles string.
func (m ViewMode) String() string {
	if m == ViewSearch {
		return "search"
	}
	return "normal"
}

// View pairs a column model with the source it came from, so drag,
// placement, selection, and bulk handling consume search results and the
// normal board through one shape instead of ad hoc precedence checks.
type View struct {
	Mode  ViewMode
	Board Board
}

// NormalView wraps a full board snapshot.
func NormalView(b Board) View {
	return View{Mode: ViewNormal, Board: b}
}

// SearchView wraps a filtered, grouped result set.
func SearchView(b Board) View {
	return View{Mode: ViewSearch, Board: b}
}
