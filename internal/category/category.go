// Package category keeps the product taxonomy synchronized between its
// XML source, a relational store and the snapshot text injected into scan
// prompts. Readers always get a snapshot: live from Postgres when
// possible, otherwise the last one cached on disk, otherwise the bundled
// static document.
package category

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

//go:embed product_categories.xml
var staticXML string

// Static returns the bundled taxonomy document shipped with the binary.
func Static() string {
	return staticXML
}

// Definition is one category with its ordered subcategories.
type Definition struct {
	Name          string
	Subcategories []string
}

// ParseXML reads a product_categories document into ordered definitions.
// Categories without a name and blank subcategories are skipped.
func ParseXML(payload string) ([]Definition, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(payload); err != nil {
		return nil, fmt.Errorf("parsing categories xml: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "product_categories" {
		return nil, fmt.Errorf("parsing categories xml: root element must be <product_categories>")
	}

	var defs []Definition
	for _, cat := range root.SelectElements("category") {
		name := strings.TrimSpace(cat.SelectAttrValue("name", ""))
		if name == "" {
			continue
		}
		def := Definition{Name: name}
		for _, sub := range cat.SelectElements("subcategory") {
			if text := strings.TrimSpace(sub.Text()); text != "" {
				def.Subcategories = append(def.Subcategories, text)
			}
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// BuildXML renders definitions back into the snapshot document format.
func BuildXML(defs []Definition) string {
	doc := etree.NewDocument()
	root := doc.CreateElement("product_categories")
	for _, def := range defs {
		cat := root.CreateElement("category")
		cat.CreateAttr("name", def.Name)
		for _, sub := range def.Subcategories {
			cat.CreateElement("subcategory").SetText(sub)
		}
	}
	doc.Indent(4)
	out, err := doc.WriteToString()
	if err != nil {
		// An in-memory build cannot fail to serialize; keep the reader
		// contract of never returning an error.
		return ""
	}
	return strings.TrimSpace(out)
}

// Stats counts categories and subcategories in a snapshot document.
// Unparseable input counts as zero of each.
func Stats(payload string) (categories, subcategories int) {
	defs, err := ParseXML(payload)
	if err != nil {
		return 0, 0
	}
	for _, def := range defs {
		categories++
		subcategories += len(def.Subcategories)
	}
	return categories, subcategories
}
