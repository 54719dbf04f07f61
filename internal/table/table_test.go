package table

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"sharescrape/internal/wait"
	"sharescrape/internal/wait/waittest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shareholders = `
<thead><tr><th>序号</th><th> 股东名称 </th><th>持股比例</th></tr></thead>
<tbody>
  <tr><td>1</td><td><a href="#"><span>张三</span></a></td><td>60%</td></tr>
  <tr><td>2</td><td>李四</td></tr>
  <tr><td>3</td><td>王五 <em>控股</em></td><td>40%</td></tr>
</tbody>`

const loading = `<tbody><tr><td>加载中</td></tr></tbody>`

// pageStub returns each frame in turn and repeats the last one.
type pageStub struct {
	frames    []string
	err       error
	calls     int
	selectors []string
}

func (p *pageStub) InnerHTML(_ context.Context, selector string) (string, error) {
	p.selectors = append(p.selectors, selector)
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	i := p.calls - 1
	if i >= len(p.frames) {
		i = len(p.frames) - 1
	}
	return p.frames[i], nil
}

func newTestExtractor() (*Extractor, *waittest.Timer) {
	timer := waittest.NewTimer()
	return NewExtractor(wait.Fixed(DefaultAttempts, DefaultInterval).WithTimer(timer), nil), timer
}

func TestParseDropsMismatchedRows(t *testing.T) {
	p, err := Parse(shareholders)
	require.NoError(t, err)

	assert.Equal(t, []string{"序号", "股东名称", "持股比例"}, p.Headers)
	assert.Equal(t, [][]string{
		{"1", "张三", "60%"},
		{"3", "王五控股", "40%"},
	}, p.Rows)
	assert.Equal(t, [][]string{{"2", "李四"}}, p.Dropped)
	for _, row := range p.Rows {
		assert.Len(t, row, len(p.Headers))
	}
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"no thead":        `<tbody><tr><td>1</td></tr></tbody>`,
		"no tbody":        `<thead><tr><th>序号</th></tr></thead>`,
		"no header cells": `<thead><tr></tr></thead><tbody><tr><td>1</td></tr></tbody>`,
		"empty":           ``,
	}
	for name, markup := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(markup)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParseEmptyBody(t *testing.T) {
	p, err := Parse(`<thead><tr><th>序号</th></tr></thead><tbody></tbody>`)
	require.NoError(t, err)
	require.Equal(t, []string{"序号"}, p.Headers)
	require.Empty(t, p.Rows)
}

func TestExtractReady(t *testing.T) {
	e, timer := newTestExtractor()
	page := &pageStub{frames: []string{loading, loading, shareholders}}

	res := e.Extract(context.Background(), page, "A公司", "A有限公司", "股东信息")

	require.Equal(t, Ready, res.Status)
	require.NoError(t, res.Err)
	require.Equal(t, 3, res.Attempts)
	require.Equal(t, []time.Duration{DefaultInterval, DefaultInterval}, timer.Pauses())
	require.Equal(t, DefaultSelector, page.selectors[0])

	snap := res.Snapshot
	require.Equal(t, "股东信息", snap.Label)
	require.Equal(t, []string{OriginalColumn, MatchedColumn, "序号", "股东名称", "持股比例"}, snap.Columns())
	require.Equal(t, [][]string{
		{"A公司", "A有限公司", "1", "张三", "60%"},
		{"A公司", "A有限公司", "3", "王五控股", "40%"},
	}, snap.Records())
}

func TestExtractNeverLoads(t *testing.T) {
	e, timer := newTestExtractor()
	page := &pageStub{frames: []string{loading}}

	res := e.Extract(context.Background(), page, "A公司", "A公司", "股东信息")

	require.Equal(t, NotReady, res.Status)
	require.Nil(t, res.Snapshot)
	require.Equal(t, DefaultAttempts, res.Attempts)
	require.Equal(t, DefaultAttempts, page.calls)
	require.Equal(t, 4*DefaultInterval, timer.Total())
}

func TestExtractLocatorFailure(t *testing.T) {
	e, _ := newTestExtractor()
	page := &pageStub{err: errors.New("element not found")}

	res := e.Extract(context.Background(), page, "A公司", "A公司", "股东信息")

	require.Equal(t, Malformed, res.Status)
	require.ErrorIs(t, res.Err, ErrMalformed)
	require.Equal(t, 1, page.calls)
}

func TestExtractUnparseable(t *testing.T) {
	e, _ := newTestExtractor()
	page := &pageStub{frames: []string{`<tbody><tr><td>1</td></tr></tbody>`}}

	res := e.Extract(context.Background(), page, "A公司", "A公司", "股东信息")

	require.Equal(t, Malformed, res.Status)
	require.ErrorIs(t, res.Err, ErrMalformed)
}

func TestPreviewTruncates(t *testing.T) {
	var rows string
	for i := 0; i < 100; i++ {
		rows += "<tr><td>股东股东股东</td></tr>"
	}
	out := preview("<thead><tr><th>名称</th></tr></thead><tbody>" + rows + "</tbody>")
	require.LessOrEqual(t, len([]rune(out)), previewLimit)
	require.Contains(t, out, "名称")
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "not ready", NotReady.String())
	require.Equal(t, "status(9)", Status(9).String())
}

func TestExtractNotReadyLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	e := NewExtractor(wait.Fixed(DefaultAttempts, DefaultInterval).WithTimer(waittest.NewTimer()), logger)

	res := e.Extract(context.Background(), &pageStub{frames: []string{loading}}, "A公司", "A公司", "股东信息")

	require.Equal(t, NotReady, res.Status)
	require.Contains(t, buf.String(), `level=WARN msg="table did not load completely after retries"`)
	require.NotContains(t, buf.String(), "level=ERROR")
}
