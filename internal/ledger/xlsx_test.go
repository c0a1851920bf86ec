package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWorkbookAppendCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	w := NewWorkbook(path, "Orders")

	stamp := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	err := w.Append(context.Background(), Row{
		Timestamp: stamp,
		Customer:  "(1) შპს მაგსი",
		Amount:    20,
		Product:   "საქონლის ბარკალი",
		Sender:    "Boris",
		Source:    "Direct",
	})
	require.NoError(t, err)

	err = w.Append(context.Background(), Row{
		Timestamp: stamp.Add(time.Minute),
		Customer:  "(2) ბაჩუკი",
		Amount:    15.5,
		Sender:    "Boris",
		Source:    "Edited",
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, headers, rows[0])
	require.Equal(t, "2025-03-14 10:30:00", rows[1][0])
	require.Equal(t, "(1) შპს მაგსი", rows[1][1])
	require.Equal(t, "20", rows[1][2])
	require.Equal(t, "საქონლის ბარკალი", rows[1][3])
	require.Equal(t, "(2) ბაჩუკი", rows[2][1])
}

func TestWorkbookSanitizesLineBreaks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	w := NewWorkbook(path, "Orders")

	err := w.Append(context.Background(), Row{
		Timestamp: time.Now(),
		Customer:  "line\r\nbroken",
		Amount:    1,
		Product:   "multi\nline",
		Sender:    "s",
		Source:    "Direct",
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	require.Equal(t, "line  broken", rows[1][1])
	require.Equal(t, "multi line", rows[1][3])
}

func TestWorkbookAppendCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	w := NewWorkbook(path, "Orders")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Append(ctx, Row{Timestamp: time.Now(), Customer: "x", Amount: 1})
	require.Error(t, err)
}
