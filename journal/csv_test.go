package journal

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	recs, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestWriteCurve(t *testing.T) {
	t.Parallel()

	c, _ := testCurve(t)
	var buf bytes.Buffer
	require.NoError(t, WriteCurve(&buf, c))

	recs := readCSV(t, buf.Bytes())
	require.Len(t, recs, c.Len()+1)
	assert.Equal(t, CurveHeader([]string{"BTC/USD", "ETH"}), recs[0])
	assert.Equal(t, []string{"time", "BTC/USD", "ETH", "cash_no_commission"}, recs[0][:4])

	// hour 1: both entries, hour 3: BTC closed
	assert.Equal(t, "2021-01-04 10:00:00", recs[2][0])
	assert.Equal(t, "10.000000", recs[2][1])
	assert.Equal(t, "2.000000", recs[2][2])
	assert.Equal(t, "0.000000", recs[4][1])

	last := recs[len(recs)-1]
	assert.Equal(t, "198.000000", last[len(last)-1], "realized profit")
}

func TestWritePositions(t *testing.T) {
	t.Parallel()

	c, _ := testCurve(t)
	var buf bytes.Buffer
	require.NoError(t, WritePositions(&buf, c.Positions["ETH"]))

	recs := readCSV(t, buf.Bytes())
	require.Len(t, recs, c.Len()+1)
	assert.Equal(t, "quantity", recs[0][1])
	assert.Equal(t, "0.000000", recs[1][1], "before the first ETH bar")
	assert.Equal(t, "2.000000", recs[4][1])
}

func TestWriteTrades(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteTrades(&buf, testEvents()))

	recs := readCSV(t, buf.Bytes())
	require.Len(t, recs, 4)
	assert.Equal(t, []string{"2021-01-04 12:00:00", "BTC/USD", "exit", "3", "-10.000000", "120.000000", "1.000000", "LX", "1"}, recs[3])
}

func TestCSVJournalRecord(t *testing.T) {
	t.Parallel()

	c, events := testCurve(t)
	dir := t.TempDir()
	j := NewCSV(filepath.Join(dir, "equity.csv"), filepath.Join(dir, "positions"))
	require.NoError(t, j.Record(testRun(c, events), c, events))
	require.NoError(t, j.Close())

	data, err := os.ReadFile(filepath.Join(dir, "equity.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "time,BTC/USD,ETH,"))

	for _, name := range []string{"BTC_USD.csv", "ETH.csv"} {
		_, err := os.Stat(filepath.Join(dir, "positions", name))
		assert.NoError(t, err, name)
	}
}

func TestCSVJournalSkipsEmptyPaths(t *testing.T) {
	t.Parallel()

	c, events := testCurve(t)
	j := NewCSV("", "")
	assert.NoError(t, j.Record(testRun(c, events), c, events))
}

func TestFileSafe(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "BTC_USD", fileSafe("BTC/USD"))
	assert.Equal(t, "SPBFUT_SiH1", fileSafe("SPBFUT:SiH1"))
	assert.Equal(t, "GAZP", fileSafe("GAZP"))
}
