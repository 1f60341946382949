package journal

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXJournalRecord(t *testing.T) {
	t.Parallel()

	c, events := testCurve(t)
	path := filepath.Join(t.TempDir(), "equity.xlsx")
	j := NewXLSX(path)
	require.NoError(t, j.Record(testRun(c, events), c, events))
	require.NoError(t, j.Close())

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fx.Close() })

	assert.Equal(t, []string{"Run", "Equity", "BTC_USD", "ETH", "Trades"}, fx.GetSheetList())

	rows, err := fx.GetRows("Equity")
	require.NoError(t, err)
	require.Len(t, rows, c.Len()+1)
	assert.Equal(t, CurveHeader(c.Instruments), rows[0])
	assert.Equal(t, "2021-01-04 10:00:00", rows[2][0])
	assert.Equal(t, "10", rows[2][1])

	rows, err = fx.GetRows("Trades")
	require.NoError(t, err)
	require.Len(t, rows, len(events)+1)
	assert.Equal(t, "exit", rows[3][2])

	v, err := fx.GetCellValue("Run", "B2")
	require.NoError(t, err)
	assert.Equal(t, "01HTESTRUN0000000000000000", v)
}

func TestSheetName(t *testing.T) {
	t.Parallel()

	used := map[string]bool{"run": true}
	assert.Equal(t, "BTC_USD", SheetName("BTC/USD", used))
	assert.Equal(t, "BTC_USD~2", SheetName("BTC:USD", used))
	assert.Equal(t, "Run~2", SheetName("Run", used))
	assert.Equal(t, "instrument", SheetName("''", used))

	long := SheetName(strings.Repeat("Z", 40), used)
	assert.Len(t, long, maxSheetLen)
	again := SheetName(strings.Repeat("Z", 40), used)
	assert.Len(t, again, maxSheetLen)
	assert.True(t, strings.HasSuffix(again, "~2"))
}
