package tabs

import (
	"context"
	"log/slog"
	"time"

	"sharescrape/internal/logging"
	"sharescrape/internal/wait"
)

const (
	DefaultSelector = "span.dim-tab-item"
	DefaultSettle   = 3 * time.Second
)

// DefaultHistoricalLabels are tried in order: current name first, legacy name second.
var DefaultHistoricalLabels = []string{"历史股东信息", "历史主要股东"}

// Clicker clicks the first element matching selector whose text contains text.
type Clicker interface {
	ClickText(ctx context.Context, selector, text string) error
}

// Result reports which label, if any, was activated.
type Result struct {
	Label string
}

// Activated reports whether a tab was switched to.
func (r Result) Activated() bool { return r.Label != "" }

// Switcher activates the first available tab among Labels.
type Switcher struct {
	Selector string
	Labels   []string
	Settle   time.Duration // pause after a successful click for content to start rendering
	Policy   wait.Policy
	Logger   *slog.Logger
}

func NewSwitcher(labels []string, settle time.Duration, policy wait.Policy, logger *slog.Logger) *Switcher {
	return &Switcher{
		Selector: DefaultSelector,
		Labels:   labels,
		Settle:   settle,
		Policy:   policy,
		Logger:   logging.OrDiscard(logger),
	}
}

// Activate clicks the candidate labels in order and stops at the first one that works.
// A label whose click fails is treated as absent.
func (s *Switcher) Activate(ctx context.Context, page Clicker) Result {
	for _, label := range s.Labels {
		if err := page.ClickText(ctx, s.Selector, label); err != nil {
			s.Logger.Warn("tab not found, trying next", "tab", label, "err", err)
			continue
		}
		if err := s.Policy.Sleep(ctx, s.Settle); err != nil {
			s.Logger.Warn("interrupted while waiting for tab content", "tab", label, "err", err)
			return Result{}
		}
		s.Logger.Info("clicked on tab", "tab", label)
		return Result{Label: label}
	}
	return Result{}
}
