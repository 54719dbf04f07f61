package tianyancha

import (
	"context"
	"fmt"
	"time"

	"sharescrape/internal/browser"
	"sharescrape/internal/logging"
	"sharescrape/internal/session"

	"github.com/cenkalti/backoff/v4"
)

const launchAttempts = 3

func init() {
	session.Register(&Provider{})
}

// Provider opens logged-in sessions on www.tianyancha.com.
type Provider struct{}

func (p *Provider) Name() string { return "tianyancha" }

// Open launches a browser, loads the landing page and, unless opts.SkipLogin is set,
// logs in and blocks until the operator confirms the CAPTCHA is solved.
func (p *Provider) Open(ctx context.Context, opts session.Options) (session.Navigator, error) {
	log := logging.OrDiscard(opts.Logger).With("site", p.Name())

	var b *browser.Browser
	attempt := 0
	launch := func() error {
		attempt++
		var err error
		b, err = browser.New(browserConfig(opts))
		return err
	}
	notify := func(err error, _ time.Duration) {
		log.Warn("browser launch failed", "attempt", attempt, "err", err)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, launchAttempts-1), ctx)
	if err := backoff.RetryNotify(launch, policy, notify); err != nil {
		return nil, fmt.Errorf("failed to launch browser after %d attempts: %w", attempt, err)
	}
	log.Info("browser launched", "attempt", attempt)

	c, err := NewClient(b, opts.Timeout, log)
	if err != nil {
		b.Close()
		return nil, err
	}
	if err := c.ReturnToLanding(ctx); err != nil {
		c.Close()
		return nil, err
	}

	if opts.SkipLogin {
		return c, nil
	}
	if err := c.Login(ctx, opts.Phone, opts.Password); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.WaitForOperator(opts.Prompt, opts.PromptOut); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func browserConfig(opts session.Options) browser.Config {
	return browser.Config{
		ProxyURL: opts.ProxyURL,
		Headless: !opts.ShowUI,
		Bin:      opts.BrowserBin,
	}
}
