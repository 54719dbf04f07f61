package tianyancha

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"sharescrape/internal/browser"
	"sharescrape/internal/session"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/require"
)

func TestSearchResultErr(t *testing.T) {
	ctx := context.Background()

	timedOut := fmt.Errorf("wait for element: %w", context.DeadlineExceeded)
	require.ErrorIs(t, searchResultErr(ctx, "A公司", timedOut), session.ErrNotFound)
	require.ErrorIs(t, searchResultErr(ctx, "A公司", &rod.ElementNotFoundError{}), session.ErrNotFound)

	broken := errors.New("websocket closed")
	err := searchResultErr(ctx, "A公司", broken)
	require.ErrorIs(t, err, broken)
	require.NotErrorIs(t, err, session.ErrNotFound)
}

func TestSearchResultErrKeepsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := searchResultErr(ctx, "A公司", context.Canceled)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, session.ErrNotFound)
}

func TestBrowserConfig(t *testing.T) {
	cfg := browserConfig(session.Options{
		ProxyURL:   "http://127.0.0.1:7890",
		BrowserBin: "/usr/bin/chromium",
		ShowUI:     true,
	})
	require.Equal(t, browser.Config{
		ProxyURL: "http://127.0.0.1:7890",
		Headless: false,
		Bin:      "/usr/bin/chromium",
	}, cfg)
}
