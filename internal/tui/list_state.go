package tui

import (
	"github.com/studiowebux/proxyview/internal/filter"
)

// ListState is the view state of a history or bookmark panel: the visible
// (possibly filtered) entries and the cursor over them. Entries are rebuilt
// from the store on every change.
type ListState struct {
	title   string
	items   []string
	pattern string
	matches []filter.Match
	cursor  int
	offset  int
}

// NewListState creates an empty panel state
func NewListState(title string) *ListState {
	return &ListState{title: title}
}

// SetItems replaces the entries and reapplies the current filter
func (s *ListState) SetItems(items []string) {
	s.items = items
	s.refilter()
}

// SetFilter applies a fuzzy pattern; empty clears it
func (s *ListState) SetFilter(pattern string) {
	s.pattern = pattern
	s.cursor = 0
	s.offset = 0
	s.refilter()
}

func (s *ListState) refilter() {
	s.matches = filter.Fuzzy(s.items, s.pattern)
	s.clamp()
}

func (s *ListState) clamp() {
	if s.cursor >= len(s.matches) {
		s.cursor = len(s.matches) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *ListState) Title() string { return s.title }
func (s *ListState) Filter() string { return s.pattern }
func (s *ListState) Cursor() int { return s.cursor }
func (s *ListState) Len() int { return len(s.matches) }
func (s *ListState) Total() int { return len(s.items) }
func (s *ListState) Visible() []filter.Match { return s.matches }

// Selected returns the entry under the cursor and its index in the
// unfiltered list
func (s *ListState) Selected() (filter.Match, bool) {
	if len(s.matches) == 0 {
		return filter.Match{}, false
	}
	return s.matches[s.cursor], true
}

// Move shifts the cursor by delta, clamped to the visible entries
func (s *ListState) Move(delta int) {
	s.cursor += delta
	s.clamp()
}

func (s *ListState) Top() {
	s.cursor = 0
}

func (s *ListState) Bottom() {
	s.cursor = len(s.matches) - 1
	s.clamp()
}

// Window returns the [start, end) range to draw for a panel of height rows,
// keeping the cursor visible
func (s *ListState) Window(height int) (int, int) {
	if height < 1 {
		height = 1
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+height {
		s.offset = s.cursor - height + 1
	}
	if s.offset > len(s.matches)-height {
		s.offset = max(0, len(s.matches)-height)
	}

	end := s.offset + height
	if end > len(s.matches) {
		end = len(s.matches)
	}
	return s.offset, end
}
