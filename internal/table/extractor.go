package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"sharescrape/internal/logging"
	"sharescrape/internal/wait"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

const (
	DefaultSelector = "table.table-wrap.expand-table-wrap"
	DefaultMarker   = "加载中"

	DefaultAttempts = 5
	DefaultInterval = 2 * time.Second

	previewLimit = 500
)

// Source exposes the rendered markup of a page.
type Source interface {
	InnerHTML(ctx context.Context, selector string) (string, error)
}

// Status is the outcome kind of an extraction.
type Status int

const (
	Ready Status = iota
	NotReady
	Malformed
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case NotReady:
		return "not ready"
	case Malformed:
		return "malformed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result carries a snapshot when Status is Ready, the cause otherwise.
type Result struct {
	Status   Status
	Snapshot *Snapshot
	Attempts int
	Err      error
}

// Extractor waits for a table to finish rendering and reads it into a Snapshot.
type Extractor struct {
	Selector string
	Marker   string // present in the markup while the table is still loading
	Policy   wait.Policy
	Logger   *slog.Logger
}

func NewExtractor(policy wait.Policy, logger *slog.Logger) *Extractor {
	return &Extractor{
		Selector: DefaultSelector,
		Marker:   DefaultMarker,
		Policy:   policy,
		Logger:   logging.OrDiscard(logger),
	}
}

// Extract polls src until the table no longer shows the loading marker, then parses it.
// Rows whose cell count differs from the header count are dropped with a warning.
func (e *Extractor) Extract(ctx context.Context, src Source, original, matched, label string) Result {
	log := e.Logger.With("company", original, "table", label)
	log.Info("scraping table")

	var markup string
	policy := e.Policy
	policy.OnRetry = func(attempt int) {
		log.Info("table still loading", "retry", attempt)
	}

	attempts, err := policy.Poll(ctx, func(ctx context.Context) (bool, error) {
		h, err := src.InnerHTML(ctx, e.Selector)
		if err != nil {
			return false, err
		}
		markup = h
		return !strings.Contains(h, e.Marker), nil
	})
	switch {
	case errors.Is(err, wait.ErrNotReady):
		log.Warn("table did not load completely after retries", "attempts", attempts)
		return Result{Status: NotReady, Attempts: attempts, Err: err}
	case err != nil:
		log.Error("failed to locate table", "err", err)
		return Result{Status: Malformed, Attempts: attempts, Err: fmt.Errorf("%w: %w", ErrMalformed, err)}
	}

	if log.Enabled(ctx, slog.LevelDebug) {
		log.Debug("table markup", "preview", preview(markup))
	}

	parsed, err := Parse(markup)
	if err != nil {
		log.Error("failed to parse table", "err", err)
		return Result{Status: Malformed, Attempts: attempts, Err: err}
	}
	for _, row := range parsed.Dropped {
		log.Warn("incomplete row skipped", "cells", row, "want", len(parsed.Headers))
	}

	return Result{
		Status:   Ready,
		Attempts: attempts,
		Snapshot: &Snapshot{
			OriginalName: original,
			MatchedName:  matched,
			Label:        label,
			Headers:      parsed.Headers,
			Rows:         parsed.Rows,
		},
	}
}

// preview renders the table as Markdown for the debug log, cut to previewLimit runes.
func preview(inner string) string {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.Table())

	text, err := converter.ConvertString("<table>" + inner + "</table>")
	if err != nil {
		text = inner
	}
	if utf8.RuneCountInString(text) <= previewLimit {
		return text
	}
	return string([]rune(text)[:previewLimit])
}
