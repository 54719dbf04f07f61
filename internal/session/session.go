package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

var (
	// ErrNotFound means a search produced no result for the identifier.
	ErrNotFound = errors.New("no search result")
	// ErrSessionLost means the browser session can no longer be used; the batch must stop.
	ErrSessionLost = errors.New("session lost")
)

// DetailView is the browsing context opened for one company. It is owned by the
// caller until Close.
type DetailView interface {
	// MatchedName is the company name the search resolved to.
	MatchedName() string
	InnerHTML(ctx context.Context, selector string) (string, error)
	ClickText(ctx context.Context, selector, text string) error
	Close() error
}

// Navigator drives the primary page of a logged-in session.
type Navigator interface {
	OpenDetail(ctx context.Context, identifier string) (DetailView, error)
	ReturnToLanding(ctx context.Context) error
	Close() error
}

// Options configure a provider's session.
type Options struct {
	ProxyURL   string
	BrowserBin string // browser executable; empty lets the launcher find or download one
	ShowUI     bool
	Timeout    time.Duration
	Phone      string
	Password   string
	SkipLogin  bool
	Prompt     io.Reader // operator input while the CAPTCHA is solved
	PromptOut  io.Writer
	Logger     *slog.Logger
}

// Provider opens sessions against one site.
type Provider interface {
	Name() string
	Open(ctx context.Context, opts Options) (Navigator, error)
}
