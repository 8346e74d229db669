package models

// LogsPage is one page of historical events.
type LogsPage struct {
	Total int        `json:"total" msgpack:"total"`
	Logs  []LogEvent `json:"logs" msgpack:"logs"`
}

// Stats holds the aggregate validation counters for an app.
type Stats struct {
	Total   int `json:"total" msgpack:"total"`
	Valid   int `json:"valid" msgpack:"valid"`
	Invalid int `json:"invalid" msgpack:"invalid"`
}

// Coverage reports how much of the expected event catalog has been observed.
type Coverage struct {
	Captured      int      `json:"captured" msgpack:"captured"`
	Missing       int      `json:"missing" msgpack:"missing"`
	Total         int      `json:"total" msgpack:"total"`
	MissingEvents []string `json:"missing_events" msgpack:"missing_events"`
}

// EventNames is the expected event catalog for an app.
type EventNames struct {
	EventNames []string `json:"event_names" msgpack:"event_names"`
}

// DeleteResult is the acknowledgment of a bulk log deletion.
type DeleteResult struct {
	Success bool   `json:"success" msgpack:"success"`
	Deleted int    `json:"deleted" msgpack:"deleted"`
	Error   string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// ReportRequest is the body of the report download endpoints.
type ReportRequest struct {
	Results []ValidationResult `json:"results"`
}
