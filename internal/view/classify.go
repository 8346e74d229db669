package view

import (
	"encoding/json"
	"strings"

	"github.com/hookview/dashboard/internal/models"
)

// EventKind classifies an incoming event.
type EventKind int

const (
	// UserEvent is a user-triggered event carrying per-field validation rows.
	UserEvent EventKind = iota
	// SystemEvent is rendered as a single summary row and never buffered.
	SystemEvent
)

const eventIDField = "eventid"

// Classify decides whether an event is user-triggered. The eventid field is
// looked up first in the validation results, then in the raw payload. An
// event with no eventid at all counts as a user event; that fallback is
// intentional, not a missing case.
func Classify(e *models.LogEvent) EventKind {
	if v, ok := eventIDFromResults(e); ok {
		return kindFromID(v)
	}
	if v, ok := e.PayloadField(eventIDField); ok && v != nil {
		return kindFromID(v)
	}
	return UserEvent
}

func eventIDFromResults(e *models.LogEvent) (interface{}, bool) {
	for i := range e.ValidationResults {
		r := &e.ValidationResults[i]
		if strings.EqualFold(r.Key, eventIDField) && r.Value != nil {
			return r.Value, true
		}
	}
	return nil, false
}

func kindFromID(v interface{}) EventKind {
	if isZeroID(v) {
		return UserEvent
	}
	return SystemEvent
}

// isZeroID reports whether v is numeric or string zero.
func isZeroID(v interface{}) bool {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x) == "0"
	case float64:
		return x == 0
	case float32:
		return x == 0
	case int:
		return x == 0
	case int8:
		return x == 0
	case int16:
		return x == 0
	case int32:
		return x == 0
	case int64:
		return x == 0
	case uint:
		return x == 0
	case uint8:
		return x == 0
	case uint16:
		return x == 0
	case uint32:
		return x == 0
	case uint64:
		return x == 0
	case json.Number:
		return x.String() == "0"
	default:
		return false
	}
}
