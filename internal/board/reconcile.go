package board

// Reconciler decides, for every fresh authoritative snapshot, whether the
// optimistic projection shown to the user can be retired. It is owned by a
// single event loop and holds no locks; all methods must be called from
// that loop.
//
// While a projection is pending the displayed board and the last known
// authoritative truth deliberately diverge: the display stays optimistic
// until a snapshot agrees with it on task identity and order in every
// column. A stale or out-of-order refetch therefore never snaps a finished
// move back to its old position.
type Reconciler struct {
	truth   Board
	pending *Board
	misses  int
	limit   int
}

// NewReconciler starts from one authoritative snapshot with nothing
// pending.
func NewReconciler(initial Board) *Reconciler {
	return &Reconciler{truth: initial}
}

// SetDivergenceLimit bounds how many consecutive mismatched snapshots are
// tolerated while a projection is pending before the authoritative view is
// force-adopted. Zero (the default) keeps the optimistic view indefinitely
// and leaves recovery to an explicit reload.
func (r *Reconciler) SetDivergenceLimit(n int) {
	if n < 0 {
		n = 0
	}
	r.limit = n
}

// Display returns the board to render: the pending projection when one
// exists, the authoritative truth otherwise.
func (r *Reconciler) Display() Board {
	if r.pending != nil {
		return *r.pending
	}
	return r.truth
}

// Truth returns the last known authoritative snapshot, which may be hidden
// behind a pending projection.
func (r *Reconciler) Truth() Board {
	return r.truth
}

// Pending reports whether an optimistic projection is awaiting
// confirmation.
func (r *Reconciler) Pending() bool {
	return r.pending != nil
}

// Misses returns how many snapshots in a row disagreed with the pending
// projection. Zero when settled.
func (r *Reconciler) Misses() int {
	return r.misses
}

// Project applies a move intent on top of the current display and marks the
// result pending. Projections compose: a second intent issued before the
// first reconciles applies to the first's projected state.
func (r *Reconciler) Project(in MoveIntent) error {
	display := r.Display()
	next, err := Apply(display, in)
	if err != nil {
		return err
	}
	r.pending = &next
	return nil
}

// ProjectRemoval hides the given tasks from the display ahead of durable
// deletion and marks the result pending.
func (r *Reconciler) ProjectRemoval(taskIDs []string) {
	next := r.Display().Without(taskIDs)
	r.pending = &next
}

// Observe feeds one fresh authoritative snapshot in. The snapshot always
// replaces the stored truth. With nothing pending the snapshot simply
// becomes the display and Observe reports settled. With a projection
// pending, the snapshot retires it only when both agree on identity and
// order in all four columns; otherwise the projection stays on display and
// Observe reports unsettled, unless the divergence limit has been reached,
// in which case the snapshot is force-adopted.
func (r *Reconciler) Observe(snapshot Board) bool {
	r.truth = snapshot
	if r.pending == nil {
		return true
	}
	if SameOrder(snapshot, *r.pending) {
		r.pending = nil
		r.misses = 0
		return true
	}
	r.misses++
	if r.limit > 0 && r.misses >= r.limit {
		r.pending = nil
		r.misses = 0
		return true
	}
	return false
}

// Adopt discards any pending projection and takes the snapshot as both
// truth and display. This is the manual-refresh path.
func (r *Reconciler) Adopt(snapshot Board) {
	r.truth = snapshot
	r.pending = nil
	r.misses = 0
}
