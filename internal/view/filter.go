package view

import (
	"sort"
	"strings"

	"github.com/hookview/dashboard/internal/models"
)

// Criteria is the recognized filter configuration. An empty set for any
// field means "no constraint on that field"; a result passes iff it satisfies
// every non-empty constraint (AND across fields, OR within a set). The value
// substring match is case-insensitive.
type Criteria struct {
	Events        []string
	Fields        []string
	ExpectedTypes []string
	ReceivedTypes []string
	Statuses      []string
	ValueContains string
}

// IsEmpty reports whether no constraint is set at all.
func (c Criteria) IsEmpty() bool {
	return len(c.Events) == 0 &&
		len(c.Fields) == 0 &&
		len(c.ExpectedTypes) == 0 &&
		len(c.ReceivedTypes) == 0 &&
		len(c.Statuses) == 0 &&
		c.ValueContains == ""
}

// Matches reports whether a single result passes the criteria.
func (c Criteria) Matches(r models.ValidationResult) bool {
	if !memberOf(c.Events, r.EventName) {
		return false
	}
	if !memberOf(c.Fields, r.Key) {
		return false
	}
	if !memberOf(c.ExpectedTypes, r.ExpectedType) {
		return false
	}
	if !memberOf(c.ReceivedTypes, r.ReceivedType) {
		return false
	}
	if !memberOf(c.Statuses, string(r.ValidationStatus)) {
		return false
	}
	if c.ValueContains != "" {
		v := strings.ToLower(ValueString(r.Value))
		if !strings.Contains(v, strings.ToLower(c.ValueContains)) {
			return false
		}
	}
	return true
}

// Filter returns the ordered subsequence of results passing the criteria.
// The input is never mutated.
func (c Criteria) Filter(results []models.ValidationResult) []models.ValidationResult {
	out := make([]models.ValidationResult, 0)
	for _, r := range results {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

func memberOf(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// FilterOptions are the distinct values offered by the filter controls,
// accumulated from inserted user-event results and the event-name catalog.
type FilterOptions struct {
	events        map[string]struct{}
	fields        map[string]struct{}
	expectedTypes map[string]struct{}
	receivedTypes map[string]struct{}
	statuses      map[string]struct{}

	// seeded is the expected event catalog; it survives resets so the
	// event options never lose catalog entries after a full reload.
	seeded map[string]struct{}
}

func newFilterOptions() FilterOptions {
	return FilterOptions{
		events:        make(map[string]struct{}),
		fields:        make(map[string]struct{}),
		expectedTypes: make(map[string]struct{}),
		receivedTypes: make(map[string]struct{}),
		statuses:      make(map[string]struct{}),
		seeded:        make(map[string]struct{}),
	}
}

// Observe folds one result's values into the option sets.
func (o *FilterOptions) Observe(r models.ValidationResult) {
	addOption(o.events, r.EventName)
	addOption(o.fields, r.Key)
	addOption(o.expectedTypes, r.ExpectedType)
	addOption(o.receivedTypes, r.ReceivedType)
	addOption(o.statuses, string(r.ValidationStatus))
}

// SeedEvents adds the expected event catalog to the event options.
func (o *FilterOptions) SeedEvents(names []string) {
	for _, n := range names {
		addOption(o.events, n)
		addOption(o.seeded, n)
	}
}

// Reset discards every observed value but keeps the seeded catalog in the
// event options.
func (o *FilterOptions) Reset() {
	fresh := newFilterOptions()
	fresh.seeded = o.seeded
	for n := range o.seeded {
		fresh.events[n] = struct{}{}
	}
	*o = fresh
}

func addOption(set map[string]struct{}, v string) {
	if v == "" || v == "N/A" {
		return
	}
	set[v] = struct{}{}
}

// OptionLists is the sorted, render-ready form of the option sets.
type OptionLists struct {
	Events        []string
	Fields        []string
	ExpectedTypes []string
	ReceivedTypes []string
	Statuses      []string
}

// Lists returns the options sorted for display.
func (o *FilterOptions) Lists() OptionLists {
	return OptionLists{
		Events:        sortedKeys(o.events),
		Fields:        sortedKeys(o.fields),
		ExpectedTypes: sortedKeys(o.expectedTypes),
		ReceivedTypes: sortedKeys(o.receivedTypes),
		Statuses:      sortedKeys(o.statuses),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
