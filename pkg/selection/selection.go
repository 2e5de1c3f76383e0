// Package selection tracks which piano-roll notes are selected and notifies
// subscribers when a rubber-band selection completes.
package selection

import (
	"sort"
	"sync"
)

// Rect is an axis-aligned rectangle in roll pixel space.
type Rect struct {
	X, Y, W, H float64
}

// Normalize returns the rectangle with non-negative width and height.
func (r Rect) Normalize() Rect {
	if r.W < 0 {
		r.X, r.W = r.X+r.W, -r.W
	}
	if r.H < 0 {
		r.Y, r.H = r.Y+r.H, -r.H
	}
	return r
}

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	r, o = r.Normalize(), o.Normalize()
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Selectable is anything with a note index and a hit rectangle.
type Selectable interface {
	NoteIndex() int
	Bounds() Rect
}

// Manager holds the selected note indexes.
type Manager struct {
	selected    map[int]struct{}
	subscribers []func([]int)
	mu          sync.Mutex
}

// NewManager creates an empty selection.
func NewManager() *Manager {
	return &Manager{selected: make(map[int]struct{})}
}

// Selected returns the selected indexes in index order.
func (m *Manager) Selected() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked()
}

func (m *Manager) sortedLocked() []int {
	out := make([]int, 0, len(m.selected))
	for idx := range m.selected {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// IsSelected reports whether idx is selected.
func (m *Manager) IsSelected(idx int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.selected[idx]
	return ok
}

// Len returns the number of selected notes.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.selected)
}

// Add selects indexes without notifying subscribers.
func (m *Manager) Add(indexes ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, idx := range indexes {
		m.selected[idx] = struct{}{}
	}
}

// Remove deselects indexes without notifying subscribers.
func (m *Manager) Remove(indexes ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, idx := range indexes {
		delete(m.selected, idx)
	}
}

// Clear deselects everything without notifying subscribers.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.selected)
}

// Subscribe registers fn to receive the selection after each completed
// rubber-band interaction.
func (m *Manager) Subscribe(fn func([]int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// SelectArea completes a rubber-band interaction. Items touching area become
// the selection; with additive set they are added to it instead.
func (m *Manager) SelectArea(area Rect, items []Selectable, additive bool) []int {
	var hits []int
	for _, it := range items {
		if area.Intersects(it.Bounds()) {
			hits = append(hits, it.NoteIndex())
		}
	}
	return m.Select(hits, additive)
}

// Select completes a pointer interaction that picked indexes directly.
// Subscribers are called with the sorted selection.
func (m *Manager) Select(indexes []int, additive bool) []int {
	m.mu.Lock()
	if !additive {
		clear(m.selected)
	}
	for _, idx := range indexes {
		m.selected[idx] = struct{}{}
	}
	sel := m.sortedLocked()
	subs := make([]func([]int), len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(sel)
	}
	return sel
}
