package tabs

import (
	"context"
	"fmt"
	"testing"

	"sharescrape/internal/wait"
	"sharescrape/internal/wait/waittest"

	"github.com/stretchr/testify/require"
)

type tabPage struct {
	present map[string]bool
	clicked []string
}

func (p *tabPage) ClickText(_ context.Context, selector, text string) error {
	p.clicked = append(p.clicked, text)
	if selector != DefaultSelector || !p.present[text] {
		return fmt.Errorf("no %s with text %q", selector, text)
	}
	return nil
}

func newSwitcher() (*Switcher, *waittest.Timer) {
	timer := waittest.NewTimer()
	return NewSwitcher(DefaultHistoricalLabels, DefaultSettle, wait.Policy{}.WithTimer(timer), nil), timer
}

func TestActivateFallsBack(t *testing.T) {
	s, timer := newSwitcher()
	page := &tabPage{present: map[string]bool{"历史主要股东": true}}

	res := s.Activate(context.Background(), page)

	require.True(t, res.Activated())
	require.Equal(t, "历史主要股东", res.Label)
	require.Equal(t, []string{"历史股东信息", "历史主要股东"}, page.clicked)
	require.Equal(t, DefaultSettle, timer.Total())
}

func TestActivatePrefersFirstLabel(t *testing.T) {
	s, _ := newSwitcher()
	page := &tabPage{present: map[string]bool{"历史股东信息": true, "历史主要股东": true}}

	res := s.Activate(context.Background(), page)

	require.Equal(t, "历史股东信息", res.Label)
	require.Equal(t, []string{"历史股东信息"}, page.clicked)
}

func TestActivateNoneFound(t *testing.T) {
	s, timer := newSwitcher()
	page := &tabPage{}

	res := s.Activate(context.Background(), page)

	require.False(t, res.Activated())
	require.Len(t, page.clicked, 2)
	require.Empty(t, timer.Pauses())
}

func TestActivateCancelledDuringSettle(t *testing.T) {
	s := NewSwitcher(DefaultHistoricalLabels, DefaultSettle, wait.Policy{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.Activate(ctx, &tabPage{present: map[string]bool{"历史股东信息": true}})
	require.False(t, res.Activated())
}
