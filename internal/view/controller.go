package view

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/hookview/dashboard/internal/models"
)

// API is the set of backend endpoints the controller consumes.
type API interface {
	Logs(ctx context.Context, appID, page, limit int) (*models.LogsPage, error)
	Stats(ctx context.Context, appID int) (*models.Stats, error)
	Coverage(ctx context.Context, appID int) (*models.Coverage, error)
	EventNames(ctx context.Context, appID int) ([]string, error)
	DownloadReport(ctx context.Context, appID int, results []models.ValidationResult) ([]byte, error)
	DownloadValidEvents(ctx context.Context, appID int, results []models.ValidationResult) ([]byte, error)
	DeleteLogs(ctx context.Context, appID int) (*models.DeleteResult, error)
}

// Renderer applies a snapshot to a display surface.
type Renderer interface {
	Render(Snapshot)
}

// ReportSaver persists a downloaded report byte stream and returns its path.
type ReportSaver interface {
	Save(kind ReportKind, data []byte) (string, error)
}

// ReportKind selects which export action was invoked.
type ReportKind int

const (
	// ReportResults exports the current filtered set, or the full buffer
	// when no filter is active.
	ReportResults ReportKind = iota
	// ReportValidEvents exports the full buffer regardless of filter; the
	// backend keeps only fully-valid events.
	ReportValidEvents
)

// Config carries the controller's tunables.
type Config struct {
	AppID            int
	PageSize         int
	BufferCap        int
	TableCap         int
	StatsInterval    time.Duration
	CoverageInterval time.Duration
	RequestTimeout   time.Duration
}

// Controller owns all dashboard state for one app. Every mutation happens on
// the dispatch loop; fetches run in goroutines and post their outcome back as
// messages, each tagged with a per-operation sequence number so stale
// responses are discarded rather than applied out of order.
type Controller struct {
	api      API
	saver    ReportSaver
	renderer Renderer
	cfg      Config

	state *State
	msgs  chan message

	loadSeq     uint64
	statsSeq    uint64
	coverageSeq uint64
	namesSeq    uint64
}

// NewController creates a controller; Run must be called to start dispatch.
func NewController(api API, saver ReportSaver, renderer Renderer, cfg Config) *Controller {
	return &Controller{
		api:      api,
		saver:    saver,
		renderer: renderer,
		cfg:      cfg,
		state:    NewState(cfg.BufferCap, cfg.TableCap, cfg.PageSize),
		msgs:     make(chan message, 64),
	}
}

// SetRenderer attaches the display surface. Must be called before Run; the
// TUI program and the controller reference each other, so one side has to be
// wired late.
func (c *Controller) SetRenderer(r Renderer) {
	c.renderer = r
}

// message is anything the dispatch loop consumes.
type message interface{ isMessage() }

type liveEventMsg struct{ event models.LogEvent }
type connStatusMsg struct{ connected bool }
type logsLoadedMsg struct {
	seq  uint64
	page int
	resp *models.LogsPage
	err  error
}
type statsLoadedMsg struct {
	seq   uint64
	stats *models.Stats
	err   error
}
type coverageLoadedMsg struct {
	seq      uint64
	coverage *models.Coverage
	err      error
}
type namesLoadedMsg struct {
	seq   uint64
	names []string
	err   error
}
type reportSavedMsg struct {
	kind ReportKind
	path string
	err  error
}
type deleteDoneMsg struct {
	resp *models.DeleteResult
	err  error
}

type loadMoreAction struct{}
type applyFilterAction struct{ criteria Criteria }
type clearFilterAction struct{}
type exportAction struct{ kind ReportKind }
type deleteAction struct{}
type dismissAlertAction struct{}

func (liveEventMsg) isMessage()      {}
func (connStatusMsg) isMessage()     {}
func (logsLoadedMsg) isMessage()     {}
func (statsLoadedMsg) isMessage()    {}
func (coverageLoadedMsg) isMessage() {}
func (namesLoadedMsg) isMessage()    {}
func (reportSavedMsg) isMessage()    {}
func (deleteDoneMsg) isMessage()     {}
func (loadMoreAction) isMessage()    {}
func (applyFilterAction) isMessage() {}
func (clearFilterAction) isMessage() {}
func (exportAction) isMessage()      {}
func (deleteAction) isMessage()      {}
func (dismissAlertAction) isMessage() {}

// User actions. Safe to call from any goroutine; each only enqueues a
// message for the dispatch loop.

// LoadMore requests the next history page.
func (c *Controller) LoadMore() { c.post(loadMoreAction{}) }

// ApplyFilter recomputes the filtered view with the given criteria.
func (c *Controller) ApplyFilter(criteria Criteria) { c.post(applyFilterAction{criteria}) }

// ClearFilter discards the filtered view and forces a full reload.
func (c *Controller) ClearFilter() { c.post(clearFilterAction{}) }

// Export downloads a CSV report of the chosen scope.
func (c *Controller) Export(kind ReportKind) { c.post(exportAction{kind}) }

// DeleteAllLogs issues the destructive bulk delete. Confirmation is the
// display surface's job; by the time this is called the user has confirmed.
func (c *Controller) DeleteAllLogs() { c.post(deleteAction{}) }

// DismissAlert clears the pending alert message.
func (c *Controller) DismissAlert() { c.post(dismissAlertAction{}) }

func (c *Controller) post(m message) {
	select {
	case c.msgs <- m:
	default:
		// A full queue means the dispatcher is gone; drop rather than block.
		log.Printf("[view] dropped message %T: queue full", m)
	}
}

// Run is the dispatch loop. It performs the initial fetches, then consumes
// live events, connection status changes, refresh ticks, and posted messages
// until the context is cancelled. All state mutation happens here.
func (c *Controller) Run(ctx context.Context, events <-chan models.LogEvent, status <-chan bool) {
	c.initialize()
	c.render()

	statsTick := time.NewTicker(c.cfg.StatsInterval)
	defer statsTick.Stop()
	coverageTick := time.NewTicker(c.cfg.CoverageInterval)
	defer coverageTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.handle(liveEventMsg{event: e})
		case connected, ok := <-status:
			if !ok {
				status = nil
				continue
			}
			c.handle(connStatusMsg{connected: connected})
		case <-statsTick.C:
			c.refreshStats()
		case <-coverageTick.C:
			c.refreshCoverage()
		case m := <-c.msgs:
			c.handle(m)
		}
	}
}

// initialize triggers the initial stats fetch, first page load, coverage
// fetch, and event-name catalog fetch.
func (c *Controller) initialize() {
	c.refreshStats()
	c.loadPage(1)
	c.refreshCoverage()
	c.fetchEventNames()
}

func (c *Controller) handle(m message) {
	switch m := m.(type) {
	case liveEventMsg:
		c.state.InsertEvent(m.event)

	case connStatusMsg:
		c.state.Connected = m.connected

	case loadMoreAction:
		c.loadPage(c.state.Page + 1)

	case logsLoadedMsg:
		c.applyLogsPage(m)

	case statsLoadedMsg:
		if m.seq != c.statsSeq {
			return
		}
		if m.err != nil {
			log.Printf("[view] stats refresh failed: %v", m.err)
			return
		}
		c.state.Stats = *m.stats

	case coverageLoadedMsg:
		if m.seq != c.coverageSeq {
			return
		}
		if m.err != nil {
			log.Printf("[view] coverage refresh failed: %v", m.err)
			return
		}
		c.state.Coverage = *m.coverage

	case namesLoadedMsg:
		if m.seq != c.namesSeq {
			return
		}
		if m.err != nil {
			log.Printf("[view] event-names fetch failed: %v", m.err)
			return
		}
		c.state.Options.SeedEvents(m.names)

	case applyFilterAction:
		c.state.ApplyFilter(m.criteria)

	case clearFilterAction:
		c.state.ClearFilter()
		c.loadPage(1)

	case exportAction:
		c.startExport(m.kind)

	case reportSavedMsg:
		if m.err != nil {
			c.state.Alert = fmt.Sprintf("Report download failed: %v", m.err)
		} else {
			c.state.Alert = fmt.Sprintf("Report saved to %s", m.path)
		}

	case deleteAction:
		c.startDelete()

	case deleteDoneMsg:
		c.applyDelete(m)

	case dismissAlertAction:
		c.state.Alert = ""
	}

	c.render()
}

func (c *Controller) render() {
	if c.renderer != nil {
		c.renderer.Render(c.state.Snapshot())
	}
}

func (c *Controller) callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.cfg.RequestTimeout)
}

// loadPage issues an asynchronous page fetch tagged with the next load
// sequence number.
func (c *Controller) loadPage(page int) {
	c.loadSeq++
	seq := c.loadSeq
	go func() {
		ctx, cancel := c.callCtx()
		defer cancel()
		resp, err := c.api.Logs(ctx, c.cfg.AppID, page, c.cfg.PageSize)
		c.post(logsLoadedMsg{seq: seq, page: page, resp: resp, err: err})
	}()
}

// applyLogsPage replays one fetched page through the live insertion path.
// Page 1 is a full reset; later pages append. The page is sorted ascending by
// creation time first so newest-first prepending lands newest on top.
func (c *Controller) applyLogsPage(m logsLoadedMsg) {
	if m.seq != c.loadSeq {
		log.Printf("[view] discarding stale page %d response (seq %d < %d)", m.page, m.seq, c.loadSeq)
		return
	}
	if m.err != nil {
		log.Printf("[view] page %d load failed: %v", m.page, m.err)
		return
	}

	if m.page == 1 {
		c.state.Reset()
	}

	logs := append([]models.LogEvent{}, m.resp.Logs...)
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreationTime().Before(logs[j].CreationTime())
	})
	for _, e := range logs {
		c.state.InsertEvent(e)
	}

	c.state.Page = m.page
	c.state.TotalLogs = m.resp.Total
}

func (c *Controller) refreshStats() {
	c.statsSeq++
	seq := c.statsSeq
	go func() {
		ctx, cancel := c.callCtx()
		defer cancel()
		stats, err := c.api.Stats(ctx, c.cfg.AppID)
		c.post(statsLoadedMsg{seq: seq, stats: stats, err: err})
	}()
}

func (c *Controller) refreshCoverage() {
	c.coverageSeq++
	seq := c.coverageSeq
	go func() {
		ctx, cancel := c.callCtx()
		defer cancel()
		coverage, err := c.api.Coverage(ctx, c.cfg.AppID)
		c.post(coverageLoadedMsg{seq: seq, coverage: coverage, err: err})
	}()
}

func (c *Controller) fetchEventNames() {
	c.namesSeq++
	seq := c.namesSeq
	go func() {
		ctx, cancel := c.callCtx()
		defer cancel()
		names, err := c.api.EventNames(ctx, c.cfg.AppID)
		c.post(namesLoadedMsg{seq: seq, names: names, err: err})
	}()
}

// startExport snapshots the export set on the dispatch loop, then downloads
// and saves off-loop. The buffer itself is never touched.
func (c *Controller) startExport(kind ReportKind) {
	results := c.state.ExportSet(kind == ReportResults)
	go func() {
		ctx, cancel := c.callCtx()
		defer cancel()

		var data []byte
		var err error
		switch kind {
		case ReportValidEvents:
			data, err = c.api.DownloadValidEvents(ctx, c.cfg.AppID, results)
		default:
			data, err = c.api.DownloadReport(ctx, c.cfg.AppID, results)
		}
		if err != nil {
			c.post(reportSavedMsg{kind: kind, err: err})
			return
		}

		path, err := c.saver.Save(kind, data)
		c.post(reportSavedMsg{kind: kind, path: path, err: err})
	}()
}

func (c *Controller) startDelete() {
	go func() {
		ctx, cancel := c.callCtx()
		defer cancel()
		resp, err := c.api.DeleteLogs(ctx, c.cfg.AppID)
		c.post(deleteDoneMsg{resp: resp, err: err})
	}()
}

// applyDelete clears all local state only on an explicit success
// acknowledgment; on failure state is left untouched and the backend's error
// detail is surfaced when present.
func (c *Controller) applyDelete(m deleteDoneMsg) {
	if m.err != nil {
		c.state.Alert = fmt.Sprintf("Delete failed: %v", m.err)
		return
	}
	if !m.resp.Success {
		detail := m.resp.Error
		if detail == "" {
			detail = "backend rejected the request"
		}
		c.state.Alert = fmt.Sprintf("Delete failed: %s", detail)
		return
	}

	c.state.Reset()
	c.state.Alert = fmt.Sprintf("Deleted %d logs", m.resp.Deleted)
}
