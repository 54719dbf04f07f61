package tianyancha

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// detailView is the popup page opened from a search result.
type detailView struct {
	page    *rod.Page
	matched string
	timeout time.Duration
}

func (d *detailView) MatchedName() string { return d.matched }

func (d *detailView) InnerHTML(ctx context.Context, selector string) (string, error) {
	el, err := d.page.Context(ctx).Timeout(d.timeout).Element(selector)
	if err != nil {
		return "", fmt.Errorf("element %s not found: %w", selector, err)
	}
	v, err := el.Property("innerHTML")
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", selector, err)
	}
	return v.Str(), nil
}

// ClickText clicks the first selector match whose text contains text.
func (d *detailView) ClickText(ctx context.Context, selector, text string) error {
	el, err := d.page.Context(ctx).Timeout(tabLookupTimeout).ElementR(selector, regexp.QuoteMeta(text))
	if err != nil {
		return fmt.Errorf("no %s with text %q: %w", selector, text, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click %q: %w", text, err)
	}
	return nil
}

func (d *detailView) Close() error {
	return d.page.Close()
}
