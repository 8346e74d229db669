package view

import (
	"fmt"
	"sort"

	"github.com/hookview/dashboard/internal/models"
)

// RowKind distinguishes table row types.
type RowKind int

const (
	// RowHeader introduces one event in the user table (timestamp + name).
	RowHeader RowKind = iota
	// RowField is one validation result under its event header.
	RowField
	// RowSystem is a single summary row in the system table.
	RowSystem
)

// Row is one renderable table row. Pure data; the display surface decides
// how to draw it.
type Row struct {
	Kind      RowKind
	Timestamp string
	EventName string
	Result    models.ValidationResult // field rows only
	Message   string                  // system rows only
}

// ValueString renders an arbitrary scalar value for display and matching.
// Nil stays empty rather than printing "<nil>".
func ValueString(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// userEventRows computes the rows for one user event: a header row followed
// by one row per validation result.
func userEventRows(ts, name string, results []models.ValidationResult) []Row {
	rows := make([]Row, 0, len(results)+1)
	rows = append(rows, Row{Kind: RowHeader, Timestamp: ts, EventName: name})
	for _, r := range results {
		rows = append(rows, Row{Kind: RowField, Timestamp: ts, EventName: name, Result: r})
	}
	return rows
}

// systemEventRow computes the single summary row for a system event.
func systemEventRow(ts, name, message string) Row {
	if message == "" {
		message = "N/A"
	}
	return Row{Kind: RowSystem, Timestamp: ts, EventName: name, Message: message}
}

// GroupRows renders a filtered result set grouped by (eventName, timestamp),
// one header row per group, groups ordered by timestamp descending. The group
// member order follows the input (buffer) order.
func GroupRows(results []models.ValidationResult) []Row {
	type group struct {
		ts, name string
		members  []models.ValidationResult
	}

	var groups []*group
	index := make(map[[2]string]*group)
	for _, r := range results {
		key := [2]string{r.EventName, r.Timestamp}
		g, ok := index[key]
		if !ok {
			g = &group{ts: r.Timestamp, name: r.EventName}
			index[key] = g
			groups = append(groups, g)
		}
		g.members = append(g.members, r)
	}

	// Display timestamps sort lexically; ties keep first-seen order.
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].ts > groups[j].ts
	})

	var rows []Row
	for _, g := range groups {
		rows = append(rows, userEventRows(g.ts, g.name, g.members)...)
	}
	return rows
}
