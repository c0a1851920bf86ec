package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
)

var headers = []string{"Date", "Customer", "Amount", "Product", "Sender", "Source"}

// Workbook is a Ledger backed by a local xlsx file. The file and worksheet
// are created on first append; every append rewrites the file, which is fine
// at chat-bot volume.
type Workbook struct {
	mu    sync.Mutex
	path  string
	sheet string
	log   *slog.Logger
}

func NewWorkbook(path, sheet string) *Workbook {
	return &Workbook{
		path:  path,
		sheet: sheet,
		log:   slog.With("component", "ledger", "path", path),
	}
}

func (w *Workbook) Append(ctx context.Context, row Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, fresh, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(w.sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", w.sheet, err)
	}
	next := len(rows) + 1

	values := []interface{}{
		row.Timestamp.Format("2006-01-02 15:04:05"),
		sanitize(row.Customer),
		row.Amount,
		sanitize(row.Product),
		sanitize(row.Sender),
		sanitize(row.Source),
	}
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, next)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(w.sheet, cell, value); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	if fresh {
		w.log.Info("created ledger workbook", "sheet", w.sheet)
	}
	return nil
}

// open loads the workbook, creating it with a header row when the file or
// the worksheet does not exist yet. Caller holds the lock.
func (w *Workbook) open() (*excelize.File, bool, error) {
	f, err := excelize.OpenFile(w.path)
	if os.IsNotExist(err) {
		return w.create()
	}
	if err != nil {
		return nil, false, fmt.Errorf("open workbook: %w", err)
	}

	if idx, err := f.GetSheetIndex(w.sheet); err != nil || idx < 0 {
		if _, err := f.NewSheet(w.sheet); err != nil {
			f.Close()
			return nil, false, fmt.Errorf("create sheet %q: %w", w.sheet, err)
		}
		if err := w.writeHeader(f); err != nil {
			f.Close()
			return nil, false, err
		}
	}
	return f, false, nil
}

func (w *Workbook) create() (*excelize.File, bool, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(w.sheet)
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("create sheet %q: %w", w.sheet, err)
	}
	f.SetActiveSheet(idx)
	if w.sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			f.Close()
			return nil, false, err
		}
	}
	if err := w.writeHeader(f); err != nil {
		f.Close()
		return nil, false, err
	}
	return f, true, nil
}

func (w *Workbook) writeHeader(f *excelize.File) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(w.sheet, cell, header); err != nil {
			return fmt.Errorf("write header %s: %w", cell, err)
		}
	}
	return nil
}
