package board

import "slices"

// Selection tracks the multi-select membership set and the anchor used for
// shift-range extension. Membership is only meaningful against the flat
// list that was displayed when it was built; callers pass the currently
// displayed flat id list into every operation so search and optimistic
// overlays are respected.
type Selection struct {
	members map[string]struct{}
	anchor  string
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{members: make(map[string]struct{})}
}

// Toggle flips or range-extends the selection. Without shift it flips
// membership of id and re-anchors on it. With shift and a usable anchor it
// replaces the whole selection with the contiguous range between the
// anchor and id in flat, inclusive, leaving the anchor where it was. When
// the anchor is unset or no longer present in flat the shift gesture
// degrades to a plain toggle.
func (s *Selection) Toggle(id string, shift bool, flat []string) {
	if shift {
		anchorIdx := slices.Index(flat, s.anchor)
		targetIdx := slices.Index(flat, id)
		if s.anchor != "" && anchorIdx >= 0 && targetIdx >= 0 {
			lo, hi := anchorIdx, targetIdx
			if lo > hi {
				lo, hi = hi, lo
			}
			s.members = make(map[string]struct{}, hi-lo+1)
			for _, member := range flat[lo : hi+1] {
				s.members[member] = struct{}{}
			}
			return
		}
	}

	if _, ok := s.members[id]; ok {
		delete(s.members, id)
	} else {
		s.members[id] = struct{}{}
	}
	s.anchor = id
}

// SelectAll replaces the selection with every id in the displayed list.
func (s *Selection) SelectAll(flat []string) {
	s.members = make(map[string]struct{}, len(flat))
	for _, id := range flat {
		s.members[id] = struct{}{}
	}
}

// Clear empties the selection and drops the anchor.
func (s *Selection) Clear() {
	s.members = make(map[string]struct{})
	s.anchor = ""
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.members[id]
	return ok
}

// Len returns the number of selected tasks.
func (s *Selection) Len() int {
	return len(s.members)
}

// Anchor returns the current anchor id, empty when unset.
func (s *Selection) Anchor() string {
	return s.anchor
}

// Ordered returns the selected ids in the order they appear in flat.
// Selected ids missing from flat are omitted, which keeps bulk operations
// scoped to what the user can currently see.
func (s *Selection) Ordered(flat []string) []string {
	out := make([]string, 0, len(s.members))
	for _, id := range flat {
		if _, ok := s.members[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
