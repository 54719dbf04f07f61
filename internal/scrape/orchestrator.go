package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sharescrape/internal/logging"
	"sharescrape/internal/session"
	"sharescrape/internal/table"
	"sharescrape/internal/tabs"
	"sharescrape/internal/workbook"
)

// MainLabel names the default shareholder table.
const MainLabel = "股东信息"

// Stage is the last state a company reached.
type Stage int

const (
	Searching Stage = iota
	DetailOpened
	MainTableExtracted
	HistoricalTabAttempted
	HistoricalTableExtracted
	Cleanup
	Done
)

var stageNames = [...]string{
	"searching", "detail opened", "main table extracted", "historical tab attempted",
	"historical table extracted", "cleanup", "done",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// SheetWriter persists rows under a named sheet.
type SheetWriter interface {
	Merge(sheet string, columns []string, records [][]string) error
}

// Outcome is what happened to one company.
type Outcome struct {
	Company string
	Matched string
	Stage   Stage // furthest stage reached before cleanup

	MainStatus      string
	MainRows        int
	HistoricalLabel string
	HistoricalState string
	HistoricalRows  int

	Err error // per-company fatal condition
}

func (o Outcome) Failed() bool { return o.Err != nil }

// Orchestrator scrapes the main and historical shareholder tables of one company.
type Orchestrator struct {
	Navigator session.Navigator
	Extractor *table.Extractor
	Tabs      *tabs.Switcher
	Sheets    SheetWriter
	Logger    *slog.Logger
}

func NewOrchestrator(nav session.Navigator, ext *table.Extractor, sw *tabs.Switcher, sheets SheetWriter, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		Navigator: nav,
		Extractor: ext,
		Tabs:      sw,
		Sheets:    sheets,
		Logger:    logging.OrDiscard(logger),
	}
}

// Scrape runs one company through search, both tables and cleanup. Per-company
// failures are reported in the Outcome; the returned error is non-nil only when
// the session is lost or ctx is done, and the batch cannot continue.
func (o *Orchestrator) Scrape(ctx context.Context, company string) (out Outcome, err error) {
	log := o.Logger.With("company", company)
	out = Outcome{Company: company, Stage: Searching}
	var view session.DetailView

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("unexpected failure: %v", r)
			log.Error("error occurred while scraping company", "stage", out.Stage, "err", out.Err)
		}
		if cerr := o.cleanup(ctx, log, view); cerr != nil && err == nil {
			err = cerr
		}
		if err == nil && out.Err == nil {
			out.Stage = Done
		}
	}()

	log.Info("starting to scrape company")
	view, err = o.Navigator.OpenDetail(ctx, company)
	if err != nil {
		if fatal(ctx, err) {
			return out, err
		}
		if errors.Is(err, session.ErrNotFound) {
			log.Warn("no results found, skipping")
		} else {
			log.Error("failed to open detail view", "err", err)
		}
		out.Err = err
		return out, nil
	}
	out.Matched = view.MatchedName()
	out.Stage = DetailOpened
	log.Info("detail view loaded", "matched", out.Matched)

	primary := o.Extractor.Extract(ctx, view, company, out.Matched, MainLabel)
	out.MainStatus = primary.Status.String()
	if primary.Status == table.Ready {
		out.MainRows = o.store(log, workbook.SheetShareholders, primary.Snapshot)
		out.Stage = MainTableExtracted
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	log.Info("attempting to scrape historical shareholder information")
	out.Stage = HistoricalTabAttempted
	tab := o.Tabs.Activate(ctx, view)
	if !tab.Activated() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		log.Error("no historical shareholder tab found, skipping")
		out.HistoricalState = "no tab"
		return out, nil
	}
	out.HistoricalLabel = tab.Label

	hist := o.Extractor.Extract(ctx, view, company, out.Matched, tab.Label)
	out.HistoricalState = hist.Status.String()
	if hist.Status == table.Ready {
		out.HistoricalRows = o.store(log, workbook.SheetHistorical, hist.Snapshot)
		out.Stage = HistoricalTableExtracted
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

// store merges a snapshot and returns the number of rows written. Write failures
// are logged by the writer and cost only this table.
func (o *Orchestrator) store(log *slog.Logger, sheet string, snap *table.Snapshot) int {
	if err := o.Sheets.Merge(sheet, snap.Columns(), snap.Records()); err != nil {
		log.Warn("table scraped but not saved", "sheet", sheet, "err", err)
		return 0
	}
	return len(snap.Rows)
}

// cleanup closes the detail view, if any, and sends the primary page back to the
// landing location. It runs even when ctx is already done.
func (o *Orchestrator) cleanup(ctx context.Context, log *slog.Logger, view session.DetailView) error {
	ctx = context.WithoutCancel(ctx)
	if view != nil {
		if err := view.Close(); err != nil {
			log.Debug("detail view already closed", "err", err)
		}
	}
	if err := o.Navigator.ReturnToLanding(ctx); err != nil {
		if errors.Is(err, session.ErrSessionLost) {
			return err
		}
		log.Warn("failed to return to landing page", "err", err)
	}
	return nil
}

func fatal(ctx context.Context, err error) bool {
	return errors.Is(err, session.ErrSessionLost) || ctx.Err() != nil
}
