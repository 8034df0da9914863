package scanning

import (
	"context"
	"encoding/xml"
)

// Output formats accepted by Process.
const (
	FormatXML = "xml"
	FormatCSV = "csv"
)

// Document is the canonical structured result of a scan.
type Document struct {
	XMLName     xml.Name `xml:"receipt"`
	StoreName   string   `xml:"store_name"`
	DateTime    string   `xml:"datetime"`
	TotalAmount string   `xml:"total_amount"`
	Items       Items    `xml:"items"`
}

// Items wraps the line-item collection so an empty receipt still
// serializes with an <items> element.
type Items struct {
	Item []Item `xml:"item"`
}

// Item is a single receipt line. Prices and quantities are kept as text;
// the model is instructed to emit bare digits and anything else is
// surfaced to the caller untouched.
type Item struct {
	Name        string `xml:"name"`
	Category    string `xml:"category"`
	Subcategory string `xml:"subcategory"`
	UnitPrice   string `xml:"unit_price"`
	Quantity    string `xml:"quantity"`
	TotalPrice  string `xml:"total_price"`
}

// Request is one receipt to process.
type Request struct {
	Image        []byte
	ContentType  string
	Model        string
	Format       string // "xml" or "csv"; empty defaults to xml
	Instructions string // optional free-text instructions, may be empty
}

// Result carries the formatted output together with delivery diagnostics:
// which credential tier answered and whether an earlier tier had to fail
// first. Diagnostics are part of the return value, so a single Processor
// is safe to share across concurrent requests.
type Result struct {
	Data         string
	Format       string
	UsedFallback bool
	KeyLabel     string
}

// CompletionRequest is one attempt against a remote model.
type CompletionRequest struct {
	Model    string
	Prompt   string
	ImagePNG []byte
	// APIKey is the credential chosen by the fallback selector. Empty
	// means the transport applies its own ambient default.
	APIKey string
}

// Completer issues a single multimodal completion. Implementations must
// honor ctx cancellation; the pipeline imposes no timeout of its own.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CategorySource supplies the taxonomy text injected into the scan
// prompt. Implementations never fail; they degrade to a cached or static
// snapshot internally.
type CategorySource interface {
	Snapshot(ctx context.Context) string
}
