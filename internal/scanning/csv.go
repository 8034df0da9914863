package scanning

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
)

// csvHeader is the fixed column set: document-level fields first, then
// the line-item fields. Every data row has exactly this many columns.
var csvHeader = []string{
	"store_name", "datetime", "total_amount",
	"item_name", "category", "subcategory",
	"unit_price", "quantity", "total_price",
}

// ConvertXMLToCSV flattens a canonical receipt document into delimited
// text, one row per line item. Document-level fields repeat on every row
// so each row is self-describing; a receipt with no items yields just the
// header. Missing values become empty cells, never placeholders.
func ConvertXMLToCSV(canonical string) (string, error) {
	var doc Document
	if err := xml.Unmarshal([]byte(canonical), &doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFormat, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFormat, err)
	}
	for _, item := range doc.Items.Item {
		row := []string{
			doc.StoreName, doc.DateTime, doc.TotalAmount,
			item.Name, item.Category, item.Subcategory,
			item.UnitPrice, item.Quantity, item.TotalPrice,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("%w: %v", ErrFormat, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return buf.String(), nil
}
