// Package view implements the live view controller: the rolling result
// buffer, event classification, filtering, and the dispatcher that owns all
// dashboard state for one app.
package view

import (
	"github.com/hookview/dashboard/internal/models"
)

// State is the complete client-side session state. It is owned by the
// controller's dispatch loop and must only be mutated there; the pure methods
// below never touch anything outside the struct.
type State struct {
	BufferCap int
	TableCap  int

	// Buffer is the rolling result list, newest-first, capped at BufferCap.
	Buffer []models.ValidationResult

	// UserRows / SystemRows are the visible tables, newest-first, each
	// capped at TableCap independent of the buffer cap.
	UserRows   []Row
	SystemRows []Row

	// Filtered is the derived view when FilterActive; FilteredRows is its
	// grouped rendering. Both are discarded on clear or full reload.
	FilterActive bool
	Criteria     Criteria
	Filtered     []models.ValidationResult
	FilteredRows []Row

	UserCount   int
	SystemCount int

	// Pagination cursor: drives the "load more" affordance only.
	Page      int
	PageSize  int
	TotalLogs int

	Options FilterOptions

	Stats     models.Stats
	Coverage  models.Coverage
	Connected bool

	// Alert is a pending user-visible message; empty means none.
	Alert string
}

// NewState returns an empty state with the given caps.
func NewState(bufferCap, tableCap, pageSize int) *State {
	return &State{
		BufferCap: bufferCap,
		TableCap:  tableCap,
		PageSize:  pageSize,
		Options:   newFilterOptions(),
	}
}

// Reset clears the buffer, both tables, the counters, and any filtered view.
// Stats and coverage are left alone; the next background tick corrects them.
func (s *State) Reset() {
	s.Buffer = nil
	s.UserRows = nil
	s.SystemRows = nil
	s.UserCount = 0
	s.SystemCount = 0
	s.Page = 0
	s.TotalLogs = 0
	s.ClearFilter()
	s.Options.Reset()
}

// ClearFilter discards the filtered view, restoring the unfiltered rendering.
func (s *State) ClearFilter() {
	s.FilterActive = false
	s.Criteria = Criteria{}
	s.Filtered = nil
	s.FilteredRows = nil
}

// InsertEvent classifies one event and applies it: user events get a header
// row plus one row per validation result, each result pushed onto the buffer
// front; system events get a single summary row and are never buffered.
// Counters increment exactly once per event and both tables are trimmed to
// TableCap afterwards.
func (s *State) InsertEvent(e models.LogEvent) EventKind {
	kind := Classify(&e)
	ts := e.DisplayTime()
	name := e.Name()

	switch kind {
	case UserEvent:
		s.UserCount++
		results := normalizeResults(e.ValidationResults, ts, name)
		s.UserRows = append(userEventRows(ts, name, results), s.UserRows...)
		s.pushResults(results)
		for _, r := range results {
			s.Options.Observe(r)
		}
	case SystemEvent:
		s.SystemCount++
		s.SystemRows = append([]Row{systemEventRow(ts, name, e.ValidationMessage)}, s.SystemRows...)
	}

	s.trimTables()
	return kind
}

// normalizeResults fills missing display fields with safe placeholders so a
// malformed result renders instead of failing.
func normalizeResults(results []models.ValidationResult, ts, name string) []models.ValidationResult {
	out := make([]models.ValidationResult, len(results))
	for i, r := range results {
		if r.Timestamp == "" {
			r.Timestamp = ts
		}
		if r.EventName == "" {
			r.EventName = name
		}
		if r.Key == "" {
			r.Key = "N/A"
		}
		if r.ExpectedType == "" {
			r.ExpectedType = "N/A"
		}
		if r.ReceivedType == "" {
			r.ReceivedType = "N/A"
		}
		out[i] = r
	}
	return out
}

// pushResults prepends results to the buffer and evicts from the back past
// the cap.
func (s *State) pushResults(results []models.ValidationResult) {
	if len(results) == 0 {
		return
	}
	s.Buffer = append(append([]models.ValidationResult{}, results...), s.Buffer...)
	if len(s.Buffer) > s.BufferCap {
		s.Buffer = s.Buffer[:s.BufferCap]
	}
}

// trimTables discards the oldest displayed rows past TableCap.
func (s *State) trimTables() {
	if len(s.UserRows) > s.TableCap {
		s.UserRows = s.UserRows[:s.TableCap]
	}
	if len(s.SystemRows) > s.TableCap {
		s.SystemRows = s.SystemRows[:s.TableCap]
	}
}

// ApplyFilter recomputes the filtered view from the current buffer. The
// buffer itself is never mutated.
func (s *State) ApplyFilter(c Criteria) {
	s.FilterActive = true
	s.Criteria = c
	s.Filtered = c.Filter(s.Buffer)
	s.FilteredRows = GroupRows(s.Filtered)
}

// ExportSet returns the results an export action sends. The scoped variant
// sends the filtered set when a filter is active, the full buffer otherwise;
// the unscoped variant always sends the full buffer.
func (s *State) ExportSet(scoped bool) []models.ValidationResult {
	src := s.Buffer
	if scoped && s.FilterActive {
		src = s.Filtered
	}
	return append([]models.ValidationResult{}, src...)
}

// HasMore reports whether another page of history exists.
func (s *State) HasMore() bool {
	return s.Page*s.PageSize < s.TotalLogs
}

// Snapshot is an immutable copy of everything a display surface needs.
type Snapshot struct {
	UserRows     []Row
	SystemRows   []Row
	UserCount    int
	SystemCount  int
	BufferLen    int
	FilterActive bool
	Criteria     Criteria
	Options      OptionLists
	Stats        models.Stats
	Coverage     models.Coverage
	Connected    bool
	Alert        string
	HasMore      bool
	Page         int
	TotalLogs    int
}

// Snapshot computes the render snapshot. When a filter is active the user
// table shows the grouped filtered rows.
func (s *State) Snapshot() Snapshot {
	userRows := s.UserRows
	if s.FilterActive {
		userRows = s.FilteredRows
	}
	return Snapshot{
		UserRows:     append([]Row{}, userRows...),
		SystemRows:   append([]Row{}, s.SystemRows...),
		UserCount:    s.UserCount,
		SystemCount:  s.SystemCount,
		BufferLen:    len(s.Buffer),
		FilterActive: s.FilterActive,
		Criteria:     s.Criteria,
		Options:      s.Options.Lists(),
		Stats:        s.Stats,
		Coverage:     s.Coverage,
		Connected:    s.Connected,
		Alert:        s.Alert,
		HasMore:      s.HasMore(),
		Page:         s.Page,
		TotalLogs:    s.TotalLogs,
	}
}
