package devserver

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hookview/dashboard/internal/models"
	"github.com/hookview/dashboard/internal/stream"
)

const msgpackMIME = "application/x-msgpack"

// Handler handles the dev server's API requests.
type Handler struct {
	store    *LogStore
	hub      *Hub
	expected []string
	upgrader websocket.Upgrader
}

// NewHandler creates a handler over a store, a hub, and the expected event
// catalog.
func NewHandler(store *LogStore, hub *Hub, expected []string) *Handler {
	return &Handler{
		store:    store,
		hub:      hub,
		expected: expected,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
		},
	}
}

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// HandleIngestLog stores an event and broadcasts it to the app's room.
func (h *Handler) HandleIngestLog(c echo.Context) error {
	appID, ok := appIDParam(c)
	if !ok {
		return nil
	}

	var e models.LogEvent
	if err := c.Bind(&e); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
	}
	if e.EventName == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "event_name is required"})
	}
	if e.CreatedAt == "" && e.Timestamp == "" {
		e.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	if err := h.store.Insert(appID, e); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("failed to store log: %v", err)})
	}

	h.hub.Broadcast(appID, e)
	return c.JSON(http.StatusCreated, e)
}

// HandleGetLogs returns one newest-first page of events, as msgpack when the
// client asks for it.
func (h *Handler) HandleGetLogs(c echo.Context) error {
	appID, ok := appIDParam(c)
	if !ok {
		return nil
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	resp, err := h.store.Page(appID, page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("failed to query logs: %v", err)})
	}

	if strings.Contains(c.Request().Header.Get("Accept"), msgpackMIME) {
		data, err := msgpack.Marshal(resp)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to encode response"})
		}
		return c.Blob(http.StatusOK, msgpackMIME, data)
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleStats returns the aggregate counters.
func (h *Handler) HandleStats(c echo.Context) error {
	appID, ok := appIDParam(c)
	if !ok {
		return nil
	}

	stats, err := h.store.Stats(appID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("failed to query stats: %v", err)})
	}
	return c.JSON(http.StatusOK, stats)
}

// HandleCoverage compares observed event names against the expected catalog.
func (h *Handler) HandleCoverage(c echo.Context) error {
	appID, ok := appIDParam(c)
	if !ok {
		return nil
	}

	observed, err := h.store.ObservedEventNames(appID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("failed to query coverage: %v", err)})
	}

	seen := make(map[string]struct{}, len(observed))
	for _, n := range observed {
		seen[n] = struct{}{}
	}

	cov := models.Coverage{Total: len(h.expected), MissingEvents: []string{}}
	for _, n := range h.expected {
		if _, ok := seen[n]; ok {
			cov.Captured++
		} else {
			cov.MissingEvents = append(cov.MissingEvents, n)
		}
	}
	cov.Missing = cov.Total - cov.Captured
	return c.JSON(http.StatusOK, cov)
}

// HandleEventNames returns the expected event catalog.
func (h *Handler) HandleEventNames(c echo.Context) error {
	if _, ok := appIDParam(c); !ok {
		return nil
	}
	names := h.expected
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, models.EventNames{EventNames: names})
}

// HandleDownloadReport formats the submitted results as CSV.
func (h *Handler) HandleDownloadReport(c echo.Context) error {
	if _, ok := appIDParam(c); !ok {
		return nil
	}

	var req models.ReportRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
	}

	return serveCSV(c, "validation-report.csv", req.Results)
}

// HandleDownloadValidEvents formats only fully-valid events as CSV: the
// (event, timestamp) groups whose every row is Valid.
func (h *Handler) HandleDownloadValidEvents(c echo.Context) error {
	if _, ok := appIDParam(c); !ok {
		return nil
	}

	var req models.ReportRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
	}

	return serveCSV(c, "valid-events.csv", fullyValidResults(req.Results))
}

// HandleDeleteLogs removes all logs for an app. Failure is reported in-band
// per the delete contract.
func (h *Handler) HandleDeleteLogs(c echo.Context) error {
	appID, ok := appIDParam(c)
	if !ok {
		return nil
	}

	n, err := h.store.DeleteAll(appID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.DeleteResult{
			Success: false,
			Error:   fmt.Sprintf("failed to delete logs: %v", err),
		})
	}
	return c.JSON(http.StatusOK, models.DeleteResult{Success: true, Deleted: n})
}

// HandleLive upgrades to websocket and joins the requested app room. The
// first frame must be a subscribe envelope.
func (h *Handler) HandleLive(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	var sub stream.Envelope
	if err := ws.ReadJSON(&sub); err != nil || sub.Type != stream.MsgTypeSubscribe {
		_ = ws.WriteJSON(map[string]string{"error": "expected subscribe message"})
		return nil
	}

	updates, cancel := h.hub.Subscribe(sub.AppID)
	defer cancel()

	// Read pump: detect disconnect and forward ping requests. The conn
	// allows one concurrent writer, so the pong is written below alongside
	// the hub updates rather than here.
	pings := make(chan struct{}, 4)
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			var env stream.Envelope
			if err := ws.ReadJSON(&env); err != nil {
				return
			}
			if env.Type == stream.MsgTypePing {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()

	// Write pump: the only goroutine writing to the conn.
	for {
		select {
		case <-gone:
			return nil
		case <-pings:
			pong := stream.Envelope{Type: stream.MsgTypePong, Timestamp: time.Now().UnixMilli()}
			if err := ws.WriteJSON(pong); err != nil {
				return nil
			}
		case env, ok := <-updates:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(env); err != nil {
				return nil
			}
		}
	}
}

// fullyValidResults keeps only the (event, timestamp) groups whose every
// member is Valid, preserving order.
func fullyValidResults(results []models.ValidationResult) []models.ValidationResult {
	type key struct{ event, ts string }

	invalid := make(map[key]bool)
	for _, r := range results {
		if r.ValidationStatus != models.StatusValid {
			invalid[key{r.EventName, r.Timestamp}] = true
		}
	}

	out := make([]models.ValidationResult, 0, len(results))
	for _, r := range results {
		if !invalid[key{r.EventName, r.Timestamp}] {
			out = append(out, r)
		}
	}
	return out
}

func serveCSV(c echo.Context, filename string, results []models.ValidationResult) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"timestamp", "event_name", "key", "value", "expected_type", "received_type", "validation_status", "comment"}
	if err := w.Write(header); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to write CSV"})
	}
	for _, r := range results {
		rec := []string{
			r.Timestamp, r.EventName, r.Key, valueString(r.Value),
			r.ExpectedType, r.ReceivedType, string(r.ValidationStatus), r.Comment,
		}
		if err := w.Write(rec); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to write CSV"})
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to write CSV"})
	}

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

func valueString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// appIDParam parses the app id path param, writing the 400 response itself
// when it is malformed.
func appIDParam(c echo.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 {
		_ = c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid app id"})
		return 0, false
	}
	return id, true
}
