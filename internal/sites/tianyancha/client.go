package tianyancha

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sharescrape/internal/browser"
	"sharescrape/internal/session"
	"sharescrape/internal/wait"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

const (
	LandingURL = "https://www.tianyancha.com/"

	searchBoxSelector  = `input[placeholder="请输入公司名称、老板姓名、品牌名称等"]`
	resultLinkSelector = "a.index_alink__zcia5"
	resultNameSelector = "span em"

	defaultTimeout   = 30 * time.Second
	searchSettle     = 2 * time.Second
	probeTimeout     = 10 * time.Second
	tabLookupTimeout = 5 * time.Second
)

// Client drives the primary tianyancha page of one browser session.
type Client struct {
	browser *browser.Browser
	page    *rod.Page
	timeout time.Duration
	pause   wait.Policy
	log     *slog.Logger
}

// NewClient opens the primary page on b.
func NewClient(b *browser.Browser, timeout time.Duration, log *slog.Logger) (*Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	page, err := b.NewPage()
	if err != nil {
		return nil, err
	}
	return &Client{browser: b, page: page, timeout: timeout, log: log}, nil
}

// Close closes the browser.
func (c *Client) Close() error {
	return c.browser.Close()
}

// ReturnToLanding navigates the primary page to the landing URL. A page that no
// longer answers is reported as session.ErrSessionLost.
func (c *Client) ReturnToLanding(ctx context.Context) error {
	page := c.page.Context(ctx).Timeout(c.timeout)
	if err := page.Navigate(LandingURL); err != nil {
		return c.classify(fmt.Errorf("failed to navigate to landing page: %w", err))
	}
	if err := page.WaitLoad(); err != nil {
		return c.classify(fmt.Errorf("failed to wait for landing page: %w", err))
	}
	return nil
}

// OpenDetail searches for identifier and opens the first result in its popup.
func (c *Client) OpenDetail(ctx context.Context, identifier string) (session.DetailView, error) {
	page := c.page.Context(ctx).Timeout(c.timeout)

	box, err := c.visibleSearchBox(page)
	if err != nil {
		return nil, c.classify(err)
	}
	if err := box.SelectAllText(); err != nil {
		return nil, fmt.Errorf("failed to focus search box: %w", err)
	}
	if err := box.Input(identifier); err != nil {
		return nil, fmt.Errorf("failed to fill search box: %w", err)
	}
	if err := box.Type(input.Enter); err != nil {
		return nil, fmt.Errorf("failed to submit search: %w", err)
	}
	if err := c.pause.Sleep(ctx, searchSettle); err != nil {
		return nil, err
	}

	link, err := c.page.Context(ctx).Timeout(c.timeout).Element(resultLinkSelector)
	if err != nil {
		return nil, c.classify(searchResultErr(ctx, identifier, err))
	}

	matched := identifier
	if ems, err := link.Elements(resultNameSelector); err == nil && !ems.Empty() {
		if text, err := ems.First().Text(); err == nil && strings.TrimSpace(text) != "" {
			matched = strings.TrimSpace(text)
		}
	}

	waitPopup := page.WaitOpen()
	if err := link.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, fmt.Errorf("failed to click search result: %w", err)
	}
	popup, err := waitPopup()
	if err != nil {
		return nil, fmt.Errorf("detail view did not open: %w", err)
	}
	if err := popup.Context(ctx).Timeout(c.timeout).WaitLoad(); err != nil {
		_ = popup.Close()
		return nil, fmt.Errorf("detail view did not load: %w", err)
	}

	return &detailView{page: popup, matched: matched, timeout: c.timeout}, nil
}

func (c *Client) visibleSearchBox(page *rod.Page) (*rod.Element, error) {
	if _, err := page.Element(searchBoxSelector); err != nil {
		return nil, fmt.Errorf("search box not found: %w", err)
	}
	boxes, err := page.Elements(searchBoxSelector)
	if err != nil {
		return nil, fmt.Errorf("search box not found: %w", err)
	}
	for _, el := range boxes {
		if ok, err := el.Visible(); err == nil && ok {
			return el, nil
		}
	}
	return nil, errors.New("no visible search box")
}

// searchResultErr maps a result lookup that ran out of time to session.ErrNotFound.
// Cancellation of the caller's ctx and other failures are returned unchanged.
func searchResultErr(ctx context.Context, identifier string, err error) error {
	if ctx.Err() != nil {
		return err
	}
	var notFound *rod.ElementNotFoundError
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &notFound) {
		return fmt.Errorf("%q: %w", identifier, session.ErrNotFound)
	}
	return err
}

// classify wraps err with session.ErrSessionLost when the primary page stops answering.
func (c *Client) classify(err error) error {
	if _, perr := c.page.Timeout(probeTimeout).Eval(`() => document.title`); perr != nil {
		return fmt.Errorf("%w: %w", session.ErrSessionLost, err)
	}
	return err
}
