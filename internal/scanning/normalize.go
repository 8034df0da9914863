package scanning

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// PlaceholderItemName is substituted when the model omits a line item's
// name entirely.
const PlaceholderItemName = "Unknown Item"

const indentUnit = "    "

// Allowed children per element; nil means a leaf.
var receiptShape = map[string][]string{
	"receipt": {"store_name", "datetime", "total_amount", "items"},
	"items":   {"item"},
	"item":    {"name", "category", "subcategory", "unit_price", "quantity", "total_price"},
}

// Normalize validates an extracted receipt fragment and re-serializes it
// into the canonical form the converter depends on: four-space
// indentation, one element per line, an empty <items> collection keeping
// its closing tag on its own line. Normalizing an already-canonical
// document returns it byte-identical.
func Normalize(fragment string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(fragment); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFormat, err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "receipt" {
		return "", fmt.Errorf("%w: root element must be <receipt>", ErrFormat)
	}
	if err := validateShape(root); err != nil {
		return "", err
	}
	for _, items := range root.SelectElements("items") {
		for _, item := range items.SelectElements("item") {
			ensureItemName(item)
		}
	}

	var b strings.Builder
	writeElement(&b, root, 0)
	b.WriteByte('\n')
	return b.String(), nil
}

// validateShape walks the tree rejecting elements the receipt schema does
// not know about.
func validateShape(e *etree.Element) error {
	allowed, ok := receiptShape[e.Tag]
	if !ok {
		// Leaf elements hold text only.
		if children := e.ChildElements(); len(children) > 0 {
			return fmt.Errorf("%w: unexpected element <%s> inside <%s>", ErrFormat, children[0].Tag, e.Tag)
		}
		return nil
	}
	for _, child := range e.ChildElements() {
		found := false
		for _, tag := range allowed {
			if child.Tag == tag {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: unexpected element <%s> inside <%s>", ErrFormat, child.Tag, e.Tag)
		}
		if err := validateShape(child); err != nil {
			return err
		}
	}
	return nil
}

// ensureItemName guarantees every line item carries a name, inserting the
// placeholder when the model dropped it.
func ensureItemName(item *etree.Element) {
	name := item.SelectElement("name")
	if name == nil {
		name = etree.NewElement("name")
		name.SetText(PlaceholderItemName)
		item.InsertChildAt(0, name)
		return
	}
	if strings.TrimSpace(name.Text()) == "" {
		name.SetText(PlaceholderItemName)
	}
}

// writeElement emits the canonical serialization. Elements with children
// put each child on its own line one indent level deeper; an empty items
// collection still gets its closing tag on its own line; other empty
// elements collapse to an inline open/close pair.
func writeElement(b *strings.Builder, e *etree.Element, level int) {
	indent := strings.Repeat(indentUnit, level)
	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(e.Tag)
	for _, attr := range e.Attr {
		fmt.Fprintf(b, ` %s="%s"`, attr.Key, attrEscaper.Replace(attr.Value))
	}
	b.WriteByte('>')

	children := e.ChildElements()
	if len(children) == 0 {
		text := strings.TrimSpace(e.Text())
		if text == "" && e.Tag == "items" {
			b.WriteByte('\n')
			b.WriteString(indent)
		} else {
			b.WriteString(escapeText(text))
		}
	} else {
		b.WriteByte('\n')
		for _, child := range children {
			writeElement(b, child, level+1)
			b.WriteByte('\n')
		}
		b.WriteString(indent)
	}

	b.WriteString("</")
	b.WriteString(e.Tag)
	b.WriteByte('>')
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
