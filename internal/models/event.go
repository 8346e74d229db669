// Package models contains domain types for the hookview dashboard.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// ValidationStatus is the outcome assigned to a single field of an event.
type ValidationStatus string

const (
	StatusValid             ValidationStatus = "Valid"
	StatusInvalid           ValidationStatus = "Invalid/Wrong datatype/value"
	StatusEmptyValue        ValidationStatus = "Payload value is Empty"
	StatusExtraKey          ValidationStatus = "Extra key present in the log"
	StatusMissingKey        ValidationStatus = "Payload not present in the log"
	StatusExtraEvent        ValidationStatus = "Extra event (not in sheet)"
	StatusExtraEventPayload ValidationStatus = "Payload from extra event"
)

// AllStatuses lists every validation status in display order.
var AllStatuses = []ValidationStatus{
	StatusValid,
	StatusInvalid,
	StatusEmptyValue,
	StatusExtraKey,
	StatusMissingKey,
	StatusExtraEvent,
	StatusExtraEventPayload,
}

// ValidationResult is one row of a single field's validation outcome.
// Identity is implicit; duplicates are possible and acceptable.
type ValidationResult struct {
	Timestamp        string           `json:"timestamp" msgpack:"timestamp"`
	EventName        string           `json:"event_name" msgpack:"event_name"`
	Key              string           `json:"key" msgpack:"key"`
	Value            interface{}      `json:"value" msgpack:"value"`
	ExpectedType     string           `json:"expected_type" msgpack:"expected_type"`
	ReceivedType     string           `json:"received_type" msgpack:"received_type"`
	ValidationStatus ValidationStatus `json:"validation_status" msgpack:"validation_status"`
	Comment          string           `json:"comment,omitempty" msgpack:"comment,omitempty"`
}

// LogEvent is one event as delivered by the live channel or the logs endpoint.
// User-triggered events carry ValidationResults; system events carry only
// ValidationMessage.
type LogEvent struct {
	CreatedAt         string             `json:"created_at,omitempty" msgpack:"created_at,omitempty"`
	Timestamp         string             `json:"timestamp,omitempty" msgpack:"timestamp,omitempty"`
	EventName         string             `json:"event_name" msgpack:"event_name"`
	Payload           interface{}        `json:"payload,omitempty" msgpack:"payload,omitempty"`
	ValidationResults []ValidationResult `json:"validation_results,omitempty" msgpack:"validation_results,omitempty"`
	ValidationMessage string             `json:"validation_message,omitempty" msgpack:"validation_message,omitempty"`
}

// timeLayouts are accepted creation-time formats, most specific first.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// CreationTime parses the event's creation time, preferring created_at over
// timestamp. Returns the zero time if neither parses.
func (e *LogEvent) CreationTime() time.Time {
	for _, raw := range []string{e.CreatedAt, e.Timestamp} {
		if raw == "" {
			continue
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// DisplayTime returns the creation time as shown in table rows, falling back
// to the raw string (or "N/A") when it does not parse.
func (e *LogEvent) DisplayTime() string {
	if t := e.CreationTime(); !t.IsZero() {
		return t.Format("2006-01-02 15:04:05")
	}
	if e.CreatedAt != "" {
		return e.CreatedAt
	}
	if e.Timestamp != "" {
		return e.Timestamp
	}
	return "N/A"
}

// Name returns the event name or "N/A" when absent.
func (e *LogEvent) Name() string {
	if e.EventName == "" {
		return "N/A"
	}
	return e.EventName
}

// PayloadMap returns the payload as a key/value map. String payloads holding
// JSON objects are decoded; anything else yields nil.
func (e *LogEvent) PayloadMap() map[string]interface{} {
	switch p := e.Payload.(type) {
	case map[string]interface{}:
		return p
	case string:
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(p), &m); err == nil {
			return m
		}
	}
	return nil
}

// PayloadField looks up a payload key case-insensitively.
func (e *LogEvent) PayloadField(key string) (interface{}, bool) {
	m := e.PayloadMap()
	if m == nil {
		return nil, false
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}
