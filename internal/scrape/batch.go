package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sharescrape/internal/logging"
)

// Scraper processes a single company.
type Scraper interface {
	Scrape(ctx context.Context, company string) (Outcome, error)
}

// Report is the per-company outcome log of one batch.
type Report struct {
	Outcomes []Outcome
	Aborted  error // batch-fatal error, if the run stopped early
	Elapsed  time.Duration
}

// Failures counts companies that hit a per-company fatal condition.
func (r *Report) Failures() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// Batch runs a Scraper over a company list, strictly in order and one at a time.
type Batch struct {
	Scraper Scraper
	Logger  *slog.Logger
}

func NewBatch(s Scraper, logger *slog.Logger) *Batch {
	return &Batch{Scraper: s, Logger: logging.OrDiscard(logger)}
}

// Run scrapes every company in order. A failure of one company is recorded and
// the next one is processed; only a batch-fatal error stops the run, and it is
// returned along with the outcomes gathered so far.
func (b *Batch) Run(ctx context.Context, companies []string) (*Report, error) {
	start := time.Now()
	report := &Report{Outcomes: make([]Outcome, 0, len(companies))}

	for i, company := range companies {
		b.Logger.Info("processing company", "index", i+1, "total", len(companies), "company", company)

		out, err := b.scrapeOne(ctx, company)
		report.Outcomes = append(report.Outcomes, out)
		if err != nil {
			b.Logger.Log(ctx, logging.LevelCritical, "cannot continue batch", "company", company, "err", err)
			report.Aborted = err
			break
		}
	}

	report.Elapsed = time.Since(start)
	b.Logger.Info("batch finished",
		"processed", len(report.Outcomes), "total", len(companies),
		"failures", report.Failures(), "elapsed", report.Elapsed.Round(time.Second))
	return report, report.Aborted
}

func (b *Batch) scrapeOne(ctx context.Context, company string) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Company: company, Err: fmt.Errorf("unexpected failure: %v", r)}
			err = nil
			b.Logger.Error("error occurred while scraping company", "company", company, "err", out.Err)
		}
	}()
	return b.Scraper.Scrape(ctx, company)
}
