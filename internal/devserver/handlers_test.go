package devserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hookview/dashboard/internal/models"
	"github.com/hookview/dashboard/internal/stream"
)

func testHandler(t *testing.T, expected []string) *Handler {
	t.Helper()
	store, err := NewLogStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewHandler(store, NewHub(), expected)
}

func appContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, appID string) echo.Context {
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(appID)
	return c
}

func TestIngestAndGetLogs(t *testing.T) {
	e := echo.New()
	h := testHandler(t, nil)

	body := `{"event_name":"Login","created_at":"2025-01-01T10:00:00Z","payload":{"eventid":0},
		"validation_results":[{"event_name":"Login","key":"userid","value":"u1","validation_status":"Valid"}]}`
	req := httptest.NewRequest(http.MethodPost, "/app/1/logs", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if assert.NoError(t, h.HandleIngestLog(appContext(e, req, rec, "1"))) {
		assert.Equal(t, http.StatusCreated, rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/app/1/logs?page=1&limit=10", nil)
	rec = httptest.NewRecorder()
	if assert.NoError(t, h.HandleGetLogs(appContext(e, req, rec, "1"))) {
		assert.Equal(t, http.StatusOK, rec.Code)

		var page models.LogsPage
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, "Login", page.Logs[0].EventName)
		assert.Len(t, page.Logs[0].ValidationResults, 1)
	}
}

func TestGetLogsMsgpack(t *testing.T) {
	e := echo.New()
	h := testHandler(t, nil)

	assert.NoError(t, h.store.Insert(1, models.LogEvent{
		CreatedAt: "2025-01-01T10:00:00Z", EventName: "Login",
	}))

	req := httptest.NewRequest(http.MethodGet, "/app/1/logs", nil)
	req.Header.Set("Accept", msgpackMIME)
	rec := httptest.NewRecorder()
	if assert.NoError(t, h.HandleGetLogs(appContext(e, req, rec, "1"))) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, msgpackMIME, rec.Header().Get(echo.HeaderContentType))

		var page models.LogsPage
		assert.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &page))
		assert.Equal(t, 1, page.Total)
	}
}

func TestCoverageAgainstCatalog(t *testing.T) {
	e := echo.New()
	h := testHandler(t, []string{"Login", "Logout", "Purchase"})

	assert.NoError(t, h.store.Insert(1, models.LogEvent{
		CreatedAt: "2025-01-01T10:00:00Z", EventName: "Login",
	}))

	req := httptest.NewRequest(http.MethodGet, "/app/1/coverage", nil)
	rec := httptest.NewRecorder()
	if assert.NoError(t, h.HandleCoverage(appContext(e, req, rec, "1"))) {
		var cov models.Coverage
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cov))
		assert.Equal(t, 1, cov.Captured)
		assert.Equal(t, 2, cov.Missing)
		assert.Equal(t, 3, cov.Total)
		assert.Equal(t, []string{"Logout", "Purchase"}, cov.MissingEvents)
	}
}

func TestEventNames(t *testing.T) {
	e := echo.New()
	h := testHandler(t, []string{"Login"})

	req := httptest.NewRequest(http.MethodGet, "/app/1/event-names", nil)
	rec := httptest.NewRecorder()
	if assert.NoError(t, h.HandleEventNames(appContext(e, req, rec, "1"))) {
		assert.Contains(t, rec.Body.String(), `"event_names":["Login"]`)
	}
}

func TestDownloadReportCSV(t *testing.T) {
	e := echo.New()
	h := testHandler(t, nil)

	body := `{"results":[{"timestamp":"2025-01-01 10:00:00","event_name":"Login","key":"userid",
		"value":"u1","expected_type":"string","received_type":"string","validation_status":"Valid"}]}`
	req := httptest.NewRequest(http.MethodPost, "/app/1/download-report", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if assert.NoError(t, h.HandleDownloadReport(appContext(e, req, rec, "1"))) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "validation-report.csv")

		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		assert.Len(t, lines, 2)
		assert.Contains(t, lines[0], "validation_status")
		assert.Contains(t, lines[1], "Login")
		assert.Contains(t, lines[1], "Valid")
	}
}

func TestDownloadValidEventsDropsInvalidGroups(t *testing.T) {
	e := echo.New()
	h := testHandler(t, nil)

	// Login@10:00:00 has one invalid row: the whole group must be dropped.
	body := `{"results":[
		{"timestamp":"2025-01-01 10:00:00","event_name":"Login","key":"a","validation_status":"Valid"},
		{"timestamp":"2025-01-01 10:00:00","event_name":"Login","key":"b","validation_status":"Invalid/Wrong datatype/value"},
		{"timestamp":"2025-01-01 10:00:05","event_name":"Logout","key":"c","validation_status":"Valid"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/app/1/download-valid-events", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if assert.NoError(t, h.HandleDownloadValidEvents(appContext(e, req, rec, "1"))) {
		out := rec.Body.String()
		assert.NotContains(t, out, "Login")
		assert.Contains(t, out, "Logout")
	}
}

func TestDeleteLogs(t *testing.T) {
	e := echo.New()
	h := testHandler(t, nil)

	assert.NoError(t, h.store.Insert(1, models.LogEvent{CreatedAt: "2025-01-01T10:00:00Z", EventName: "Login"}))
	assert.NoError(t, h.store.Insert(1, models.LogEvent{CreatedAt: "2025-01-01T10:00:01Z", EventName: "Logout"}))

	req := httptest.NewRequest(http.MethodPost, "/app/1/delete-logs", nil)
	rec := httptest.NewRecorder()
	if assert.NoError(t, h.HandleDeleteLogs(appContext(e, req, rec, "1"))) {
		var res models.DeleteResult
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.True(t, res.Success)
		assert.Equal(t, 2, res.Deleted)
	}
}

func TestInvalidAppID(t *testing.T) {
	e := echo.New()
	h := testHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/app/nope/stats", nil)
	rec := httptest.NewRecorder()
	if assert.NoError(t, h.HandleStats(appContext(e, req, rec, "nope"))) {
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid app id")
	}
}

func TestIngestBroadcasts(t *testing.T) {
	e := echo.New()
	h := testHandler(t, nil)

	updates, cancel := h.hub.Subscribe(1)
	defer cancel()

	body := `{"event_name":"Login","created_at":"2025-01-01T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/app/1/logs", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	assert.NoError(t, h.HandleIngestLog(appContext(e, req, rec, "1")))

	select {
	case env := <-updates:
		assert.Equal(t, 1, env.AppID)
		assert.Equal(t, "Login", env.Log.EventName)
	default:
		t.Fatal("expected a broadcast update")
	}
}

// Pongs and hub updates go out on the same connection; flooding both paths at
// once must not interleave writes.
func TestLiveConcurrentPingsAndBroadcasts(t *testing.T) {
	h := testHandler(t, nil)
	e := echo.New()
	e.GET("/ws/live", h.HandleLive)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(stream.Envelope{Type: stream.MsgTypeSubscribe, AppID: 1}))

	deadline := time.Now().Add(2 * time.Second)
	for h.hub.SubscriberCount(1) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never joined the room")
		}
		time.Sleep(5 * time.Millisecond)
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for i := 0; i < 200; i++ {
			if err := conn.WriteJSON(stream.Envelope{Type: stream.MsgTypePing}); err != nil {
				return
			}
		}
	}()
	for i := 0; i < 200; i++ {
		h.hub.Broadcast(1, models.LogEvent{EventName: "Login", CreatedAt: "2025-01-01T10:00:00Z"})
	}

	var pongs, received int
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for pongs == 0 || received == 0 {
		var env stream.Envelope
		require.NoError(t, conn.ReadJSON(&env))
		switch env.Type {
		case stream.MsgTypePong:
			pongs++
		case stream.MsgTypeValidationUpdate:
			received++
			assert.Equal(t, "Login", env.Log.EventName)
		}
	}
	<-writerDone
}
