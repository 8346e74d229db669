package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hookview/dashboard/internal/models"
)

// fakeAPI is a deterministic API double for controller tests.
type fakeAPI struct {
	logs          *models.LogsPage
	logsErr       error
	stats         models.Stats
	coverage      models.Coverage
	names         []string
	deleteResp    *models.DeleteResult
	deleteErr     error
	downloadCalls chan []models.ValidationResult
	validCalls    chan []models.ValidationResult
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		downloadCalls: make(chan []models.ValidationResult, 4),
		validCalls:    make(chan []models.ValidationResult, 4),
	}
}

func (f *fakeAPI) Logs(_ context.Context, _, _, _ int) (*models.LogsPage, error) {
	return f.logs, f.logsErr
}
func (f *fakeAPI) Stats(_ context.Context, _ int) (*models.Stats, error) {
	return &f.stats, nil
}
func (f *fakeAPI) Coverage(_ context.Context, _ int) (*models.Coverage, error) {
	return &f.coverage, nil
}
func (f *fakeAPI) EventNames(_ context.Context, _ int) ([]string, error) {
	return f.names, nil
}
func (f *fakeAPI) DownloadReport(_ context.Context, _ int, results []models.ValidationResult) ([]byte, error) {
	f.downloadCalls <- results
	return []byte("csv"), nil
}
func (f *fakeAPI) DownloadValidEvents(_ context.Context, _ int, results []models.ValidationResult) ([]byte, error) {
	f.validCalls <- results
	return []byte("csv"), nil
}
func (f *fakeAPI) DeleteLogs(_ context.Context, _ int) (*models.DeleteResult, error) {
	return f.deleteResp, f.deleteErr
}

type fakeSaver struct{ saved [][]byte }

func (s *fakeSaver) Save(_ ReportKind, data []byte) (string, error) {
	s.saved = append(s.saved, data)
	return "/tmp/report.csv", nil
}

func newTestController(api API) *Controller {
	return NewController(api, &fakeSaver{}, nil, Config{
		AppID:            1,
		PageSize:         50,
		BufferCap:        1000,
		TableCap:         200,
		StatsInterval:    time.Hour,
		CoverageInterval: time.Hour,
		RequestTimeout:   time.Second,
	})
}

// nextMsg drains one posted message, failing the test on timeout.
func nextMsg(t *testing.T, c *Controller) message {
	t.Helper()
	select {
	case m := <-c.msgs:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for controller message")
		return nil
	}
}

func pageOf(events ...models.LogEvent) *models.LogsPage {
	return &models.LogsPage{Total: len(events), Logs: events}
}

func TestPageReplayRendersAscendingSorted(t *testing.T) {
	c := newTestController(newFakeAPI())

	// Unsorted page [t=2, t=1, t=3].
	c.handle(logsLoadedMsg{seq: c.loadSeq, page: 1, resp: pageOf(
		userEvent("2025-01-01T10:00:02Z", "Two", result("Two", "k", models.StatusValid)),
		userEvent("2025-01-01T10:00:01Z", "One", result("One", "k", models.StatusValid)),
		userEvent("2025-01-01T10:00:03Z", "Three", result("Three", "k", models.StatusValid)),
	)})

	rows := c.state.UserRows
	assert.Equal(t, "Three", rows[0].EventName, "t=3 on top")
	assert.Equal(t, "Two", rows[2].EventName, "t=2 in the middle")
	assert.Equal(t, "One", rows[4].EventName, "t=1 at the bottom")
	assert.Equal(t, 3, c.state.UserCount)
}

func TestPageOneIsFullReset(t *testing.T) {
	c := newTestController(newFakeAPI())

	c.handle(liveEventMsg{event: userEvent("2025-01-01T10:00:00Z", "Stale", result("Stale", "k", models.StatusValid))})
	assert.Equal(t, 1, c.state.UserCount)

	c.handle(logsLoadedMsg{seq: c.loadSeq, page: 1, resp: pageOf(
		userEvent("2025-01-01T10:00:05Z", "Fresh", result("Fresh", "k", models.StatusValid)),
	)})

	assert.Equal(t, 1, c.state.UserCount)
	assert.Equal(t, "Fresh", c.state.Buffer[0].EventName)
}

func TestLaterPagesAppend(t *testing.T) {
	c := newTestController(newFakeAPI())

	c.handle(logsLoadedMsg{seq: c.loadSeq, page: 1, resp: &models.LogsPage{Total: 100, Logs: []models.LogEvent{
		userEvent("2025-01-01T10:00:05Z", "A", result("A", "k", models.StatusValid)),
	}}})
	c.handle(logsLoadedMsg{seq: c.loadSeq, page: 2, resp: &models.LogsPage{Total: 100, Logs: []models.LogEvent{
		userEvent("2025-01-01T10:00:01Z", "B", result("B", "k", models.StatusValid)),
	}}})

	assert.Equal(t, 2, c.state.UserCount)
	assert.Equal(t, 2, c.state.Page)
	assert.True(t, c.state.HasMore())
}

func TestStaleLoadResponseDiscarded(t *testing.T) {
	c := newTestController(newFakeAPI())

	c.loadSeq = 2
	c.handle(logsLoadedMsg{seq: 1, page: 2, resp: pageOf(
		userEvent("2025-01-01T10:00:05Z", "Stale", result("Stale", "k", models.StatusValid)),
	)})

	assert.Zero(t, c.state.UserCount, "stale response must not be applied")
	assert.Empty(t, c.state.Buffer)
}

func TestClearFilterReproducesPageOneState(t *testing.T) {
	f := newFakeAPI()
	f.logs = pageOf(
		userEvent("2025-01-01T10:00:01Z", "Login", result("Login", "k", models.StatusValid)),
		userEvent("2025-01-01T10:00:02Z", "Logout", result("Logout", "k", models.StatusInvalid)),
	)
	c := newTestController(f)

	// Initial page 1 replay.
	c.loadPage(1)
	c.handle(nextMsg(t, c))
	before := c.state.Snapshot()

	c.handle(applyFilterAction{criteria: Criteria{Events: []string{"Login"}}})
	assert.True(t, c.state.FilterActive)
	assert.Len(t, c.state.Filtered, 1)

	// Clear triggers a fresh page-1 load; apply its response.
	c.handle(clearFilterAction{})
	c.handle(nextMsg(t, c))

	after := c.state.Snapshot()
	assert.False(t, after.FilterActive)
	assert.Equal(t, before.UserCount, after.UserCount)
	assert.Equal(t, before.SystemCount, after.SystemCount)
	assert.Equal(t, before.UserRows, after.UserRows)
	assert.Equal(t, before.BufferLen, after.BufferLen)
}

func TestExportScopes(t *testing.T) {
	f := newFakeAPI()
	c := newTestController(f)

	c.handle(logsLoadedMsg{seq: c.loadSeq, page: 1, resp: pageOf(
		userEvent("2025-01-01T10:00:01Z", "Login", result("Login", "k", models.StatusValid)),
		userEvent("2025-01-01T10:00:02Z", "Logout", result("Logout", "k", models.StatusInvalid)),
	)})
	c.handle(applyFilterAction{criteria: Criteria{Events: []string{"Login"}}})

	// Scoped export sends exactly the filtered subset.
	c.handle(exportAction{kind: ReportResults})
	select {
	case sent := <-f.downloadCalls:
		assert.Len(t, sent, 1)
		assert.Equal(t, "Login", sent[0].EventName)
	case <-time.After(2 * time.Second):
		t.Fatal("download-report was never called")
	}

	// Valid-events export sends the full buffer regardless of filter.
	c.handle(exportAction{kind: ReportValidEvents})
	select {
	case sent := <-f.validCalls:
		assert.Len(t, sent, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("download-valid-events was never called")
	}

	// Both leave the buffer unchanged.
	assert.Len(t, c.state.Buffer, 2)
	assert.True(t, c.state.FilterActive)
}

func TestDeleteAllSuccessClearsState(t *testing.T) {
	c := newTestController(newFakeAPI())
	c.handle(liveEventMsg{event: userEvent("2025-01-01T10:00:00Z", "Login", result("Login", "k", models.StatusValid))})
	c.handle(liveEventMsg{event: models.LogEvent{
		CreatedAt: "2025-01-01T10:00:01Z",
		EventName: "cron",
		Payload:   map[string]interface{}{"eventid": float64(2)},
	}})

	c.handle(deleteDoneMsg{resp: &models.DeleteResult{Success: true, Deleted: 2}})

	assert.Zero(t, c.state.UserCount)
	assert.Zero(t, c.state.SystemCount)
	assert.Empty(t, c.state.Buffer)
	assert.Empty(t, c.state.UserRows)
	assert.Empty(t, c.state.SystemRows)
	assert.Contains(t, c.state.Alert, "Deleted 2")
}

func TestDeleteAllFailureLeavesStateUntouched(t *testing.T) {
	c := newTestController(newFakeAPI())
	c.handle(liveEventMsg{event: userEvent("2025-01-01T10:00:00Z", "Login", result("Login", "k", models.StatusValid))})

	c.handle(deleteDoneMsg{resp: &models.DeleteResult{Success: false, Error: "db locked"}})
	assert.Equal(t, 1, c.state.UserCount)
	assert.Len(t, c.state.Buffer, 1)
	assert.Contains(t, c.state.Alert, "db locked")

	c.handle(deleteDoneMsg{err: errors.New("connection refused")})
	assert.Equal(t, 1, c.state.UserCount)
	assert.Contains(t, c.state.Alert, "connection refused")
}

func TestLiveEventClassifiedIntoTables(t *testing.T) {
	c := newTestController(newFakeAPI())

	c.handle(liveEventMsg{event: userEvent("2025-01-01T10:00:00Z", "Login", result("Login", "k", models.StatusValid))})
	c.handle(liveEventMsg{event: models.LogEvent{
		CreatedAt:         "2025-01-01T10:00:01Z",
		EventName:         "cron",
		Payload:           map[string]interface{}{"eventid": float64(9)},
		ValidationMessage: "scheduled run",
	}})

	assert.Equal(t, 1, c.state.UserCount)
	assert.Equal(t, 1, c.state.SystemCount)
	assert.Len(t, c.state.SystemRows, 1)
	assert.Equal(t, "scheduled run", c.state.SystemRows[0].Message)
	assert.Len(t, c.state.Buffer, 1, "system events never reach the buffer")
}

func TestConnectionStatusAndAlertDismiss(t *testing.T) {
	c := newTestController(newFakeAPI())

	c.handle(connStatusMsg{connected: true})
	assert.True(t, c.state.Connected)

	c.state.Alert = "something happened"
	c.handle(dismissAlertAction{})
	assert.Empty(t, c.state.Alert)
}
