package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"LinkStrategist/internal/tabular"
)

// XLSXDecoder reads the first worksheet of an Excel workbook.
type XLSXDecoder struct{}

var _ tabular.Decoder = (*XLSXDecoder)(nil)

// NewXLSXDecoder returns a workbook decoder.
func NewXLSXDecoder() *XLSXDecoder {
	return &XLSXDecoder{}
}

// Name identifies the format inside the registry.
func (d *XLSXDecoder) Name() string {
	return "xlsx"
}

// Extensions lists file suffixes handled by the decoder.
func (d *XLSXDecoder) Extensions() []string {
	return []string{".xlsx"}
}

// Decode loads the workbook and returns the rows of its first sheet.
func (d *XLSXDecoder) Decode(r io.Reader) (tabular.Table, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return tabular.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return tabular.Table{}, fmt.Errorf("workbook has no sheets")
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return tabular.Table{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	return tabular.FromRecords(rows), nil
}

// NewRegistry returns a tabular registry with every built-in decoder.
func NewRegistry() *tabular.Registry {
	reg := tabular.NewRegistry()
	reg.Register(NewCSVDecoder(0))
	reg.Register(NewXLSXDecoder())
	return reg
}
