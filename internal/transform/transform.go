// Package transform groups raw source rows into logical product/collection
// entities and normalizes cell values into the shapes the commerce platform
// expects.
package transform

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"pedalhouse/internal/domain"
	applog "pedalhouse/internal/log"
)

// Columns names the source columns the transformer reads. The zero value is
// unusable; start from DefaultColumns.
type Columns struct {
	Slug        string
	SlugAlt     string
	Name        string
	Description string
	Category    string
	Price       string
	SKU         string
	Stock       string
	Images      string
	Parent      string

	OptionNames  [3]string
	OptionValues [3]string

	MetadataPrefixes []string
}

func DefaultColumns() Columns {
	return Columns{
		Slug:             "Slug",
		SlugAlt:          "Handle",
		Name:             "Name",
		Description:      "Description",
		Category:         "Category",
		Price:            "Price",
		SKU:              "SKU",
		Stock:            "Stock",
		Images:           "Images",
		Parent:           "Parent",
		OptionNames:      [3]string{"Option1 Name", "Option2 Name", "Option3 Name"},
		OptionValues:     [3]string{"Option1 Value", "Option2 Value", "Option3 Value"},
		MetadataPrefixes: []string{"Metadata:", "Metafield:"},
	}
}

var reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases, collapses runs of non-alphanumeric characters into a
// single hyphen and trims leading/trailing hyphens.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = reNonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ParsePriceCents strips currency symbols and thousands separators, parses a
// decimal and returns cents rounded to the nearest integer. Anything that does
// not parse to a non-negative number yields 0, which callers treat as "no price".
func ParsePriceCents(s string) int {
	clean := strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return 0
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || v < 0 {
		return 0
	}
	return int(math.Round(v * 100))
}

// SplitImages splits a comma-separated image cell into trimmed non-empty URLs.
func SplitImages(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(cell, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// metadataFrom collects cells whose header starts with one of the configured
// prefixes. The key is the remainder of the header, lowercased with spaces
// replaced by underscores; empty cells contribute nothing.
func metadataFrom(row domain.SourceRow, prefixes []string) map[string]string {
	md := map[string]string{}
	for header, cell := range row {
		if cell == "" {
			continue
		}
		for _, p := range prefixes {
			if strings.HasPrefix(header, p) {
				key := strings.TrimSpace(strings.TrimPrefix(header, p))
				key = strings.ReplaceAll(strings.ToLower(key), " ", "_")
				if key != "" {
					if _, ok := md[key]; !ok {
						md[key] = cell
					}
				}
				break
			}
		}
	}
	return md
}

func parseStock(cell string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// slugColumn returns the grouping-key column present in the row, preferring
// the primary name over the alternate. Empty when neither exists.
func slugColumn(row domain.SourceRow, cols Columns) string {
	if _, ok := row[cols.Slug]; ok {
		return cols.Slug
	}
	if _, ok := row[cols.SlugAlt]; ok {
		return cols.SlugAlt
	}
	return ""
}

// GroupProducts groups rows by slug into ProductGroups, preserving first-seen
// order. Rows with an empty grouping key are dropped with a warning. When the
// source has no slug column at all, the key is synthesized from name+category;
// a source with neither column is unusable and fails the run.
func GroupProducts(rows []domain.SourceRow, cols Columns, runID string) ([]domain.ProductGroup, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	slugCol := slugColumn(rows[0], cols)
	if slugCol == "" {
		if _, ok := rows[0][cols.Name]; !ok {
			return nil, fmt.Errorf("source has no %q/%q or %q column", cols.Slug, cols.SlugAlt, cols.Name)
		}
	}

	groups := map[string]*domain.ProductGroup{}
	var order []string

	for _, row := range rows {
		var key string
		if slugCol != "" {
			key = row[slugCol]
		} else {
			// No unique slug in the source: synthesize name+category so
			// products sharing a human name stay distinct across categories.
			key = Slugify(row[cols.Name] + "-" + row[cols.Category])
			key = strings.Trim(key, "-")
		}
		if key == "" {
			applog.RunWarn(runID, "transform.row.no_key", map[string]any{"name": row[cols.Name]})
			continue
		}

		g, ok := groups[key]
		if !ok {
			g = &domain.ProductGroup{
				Slug:         key,
				DisplayName:  row[cols.Name],
				Description:  row[cols.Description],
				CategoryName: row[cols.Category],
				CategorySlug: Slugify(row[cols.Category]),
				Metadata:     metadataFrom(row, cols.MetadataPrefixes),
			}
			groups[key] = g
			order = append(order, key)
		} else {
			// Later rows only fill metadata keys the first row left empty.
			for k, v := range metadataFrom(row, cols.MetadataPrefixes) {
				if _, exists := g.Metadata[k]; !exists {
					g.Metadata[k] = v
				}
			}
		}

		for i := 0; i < 3; i++ {
			if name := row[cols.OptionNames[i]]; name != "" {
				for len(g.OptionNames) <= i {
					g.OptionNames = append(g.OptionNames, "")
				}
				if g.OptionNames[i] == "" {
					g.OptionNames[i] = name
				}
			}
		}

		v := domain.VariantSpec{
			PriceCents:    ParsePriceCents(row[cols.Price]),
			Position:      len(g.Variants) + 1,
			SKU:           row[cols.SKU],
			Option1:       row[cols.OptionValues[0]],
			Option2:       row[cols.OptionValues[1]],
			Option3:       row[cols.OptionValues[2]],
			StockQuantity: parseStock(row[cols.Stock]),
		}
		if imgs := SplitImages(row[cols.Images]); len(imgs) > 0 {
			v.ImageURL = imgs[0]
			if len(imgs) > 1 {
				// Additional images ride along as metadata, never as the
				// primary image field.
				g.Metadata["additional_images"] = appendImages(g.Metadata["additional_images"], imgs[1:])
			}
		}
		g.Variants = append(g.Variants, v)
	}

	out := make([]domain.ProductGroup, 0, len(order))
	for _, key := range order {
		g := groups[key]
		g.Simple = len(g.OptionNames) == 0
		out = append(out, *g)
	}
	return out, nil
}

func appendImages(existing string, more []string) string {
	seen := map[string]bool{}
	var all []string
	for _, u := range strings.Split(existing, ",") {
		if u = strings.TrimSpace(u); u != "" && !seen[u] {
			seen[u] = true
			all = append(all, u)
		}
	}
	for _, u := range more {
		if !seen[u] {
			seen[u] = true
			all = append(all, u)
		}
	}
	return strings.Join(all, ",")
}

// GroupCollections maps rows to CollectionSpecs, one per distinct slug, first
// row wins. Rows with neither slug nor name are dropped with a warning.
func GroupCollections(rows []domain.SourceRow, cols Columns, runID string) ([]domain.CollectionSpec, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	slugCol := slugColumn(rows[0], cols)
	if slugCol == "" {
		if _, ok := rows[0][cols.Name]; !ok {
			return nil, fmt.Errorf("source has no %q/%q or %q column", cols.Slug, cols.SlugAlt, cols.Name)
		}
	}

	seen := map[string]bool{}
	var out []domain.CollectionSpec
	for _, row := range rows {
		slug := ""
		if slugCol != "" {
			slug = row[slugCol]
		}
		if slug == "" {
			slug = Slugify(row[cols.Name])
		}
		if slug == "" {
			applog.RunWarn(runID, "transform.collection.no_key", nil)
			continue
		}
		if seen[slug] {
			continue
		}
		seen[slug] = true

		spec := domain.CollectionSpec{
			Name:        row[cols.Name],
			Slug:        slug,
			Description: row[cols.Description],
			ParentSlug:  Slugify(row[cols.Parent]),
			Metadata:    metadataFrom(row, cols.MetadataPrefixes),
		}
		if imgs := SplitImages(row[cols.Images]); len(imgs) > 0 {
			spec.ImageURL = imgs[0]
		}
		out = append(out, spec)
	}
	return out, nil
}
