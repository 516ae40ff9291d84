package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"LinkStrategist/internal/tabular"
)

const utf8BOM = "\ufeff"

// CSVDecoder reads comma separated exports of the link planning sheet.
type CSVDecoder struct {
	comma rune
}

var _ tabular.Decoder = (*CSVDecoder)(nil)

// NewCSVDecoder builds a decoder; a zero comma defaults to ','.
func NewCSVDecoder(comma rune) *CSVDecoder {
	if comma == 0 {
		comma = ','
	}
	return &CSVDecoder{comma: comma}
}

// Name identifies the format inside the registry.
func (d *CSVDecoder) Name() string {
	return "csv"
}

// Extensions lists file suffixes handled by the decoder.
func (d *CSVDecoder) Extensions() []string {
	return []string{".csv"}
}

// Decode parses the whole stream; ragged rows are allowed.
func (d *CSVDecoder) Decode(r io.Reader) (tabular.Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = d.comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return tabular.Table{}, fmt.Errorf("read csv: %w", err)
	}

	table := tabular.FromRecords(records)
	if len(table.Header) > 0 {
		table.Header[0] = strings.TrimPrefix(table.Header[0], utf8BOM)
	}
	return table, nil
}
