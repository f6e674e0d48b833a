package transform_test

import (
	"testing"

	"pedalhouse/internal/domain"
	"pedalhouse/internal/transform"
)

func TestParsePriceCents(t *testing.T) {
	cases := map[string]int{
		"$1,234.50": 123450,
		"$100.00":   10000,
		"€99.99":    9999,
		"120":       12000,
		"":          0,
		"n/a":       0,
		"-5":        0,
		" $7.25 ":   725,
	}
	for in, want := range cases {
		if got := transform.ParsePriceCents(in); got != want {
			t.Errorf("ParsePriceCents(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Road Bikes & Gravel ": "road-bikes-gravel",
		"E-Bikes":              "e-bikes",
		"--Kids--":             "kids",
		"":                     "",
	}
	for in, want := range cases {
		if got := transform.Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

// row builds a SourceRow with every default column present, as the parser
// guarantees for real sources.
func row(overrides map[string]string) domain.SourceRow {
	cols := transform.DefaultColumns()
	r := domain.SourceRow{
		cols.Slug: "", cols.Name: "", cols.Description: "", cols.Category: "",
		cols.Price: "", cols.SKU: "", cols.Stock: "", cols.Images: "",
		cols.OptionNames[0]: "", cols.OptionNames[1]: "", cols.OptionNames[2]: "",
		cols.OptionValues[0]: "", cols.OptionValues[1]: "", cols.OptionValues[2]: "",
	}
	for k, v := range overrides {
		r[k] = v
	}
	return r
}

func TestGroupProductsTotality(t *testing.T) {
	rows := []domain.SourceRow{
		row(map[string]string{"Slug": "bike-a", "Name": "Bike A"}),
		row(map[string]string{"Slug": "", "Name": "Dropped"}),
		row(map[string]string{"Slug": "bike-b", "Name": "Bike B"}),
		row(map[string]string{"Slug": "bike-a", "Name": "Bike A"}),
	}
	groups, err := transform.GroupProducts(rows, transform.DefaultColumns(), "test")
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("want 2 groups, got %d", len(groups))
	}
	total := 0
	for _, g := range groups {
		total += len(g.Variants)
	}
	if total != 3 {
		t.Fatalf("want 3 grouped rows (one dropped), got %d", total)
	}
	if groups[0].Slug != "bike-a" || groups[1].Slug != "bike-b" {
		t.Fatalf("group order not first-seen: %s, %s", groups[0].Slug, groups[1].Slug)
	}
}

func TestGroupProductsVariantScenario(t *testing.T) {
	rows := []domain.SourceRow{
		row(map[string]string{"Slug": "bike-a", "Name": "Bike A", "Price": "$100.00"}),
		row(map[string]string{"Slug": "bike-a", "Name": "Bike A", "Price": "$120.00",
			"Option1 Name": "Color", "Option1 Value": "Red"}),
	}
	groups, err := transform.GroupProducts(rows, transform.DefaultColumns(), "test")
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 {
		t.Fatalf("want 1 group, got %d", len(groups))
	}
	g := groups[0]
	if len(g.Variants) != 2 {
		t.Fatalf("want 2 variants, got %d", len(g.Variants))
	}
	// One row shows option data, so the whole group is variant-classified.
	if g.Simple {
		t.Fatal("group with option columns must not be simple")
	}
	if g.Variants[0].PriceCents != 10000 || g.Variants[1].PriceCents != 12000 {
		t.Fatalf("bad prices: %d, %d", g.Variants[0].PriceCents, g.Variants[1].PriceCents)
	}
	if g.Variants[0].Position != 1 || g.Variants[1].Position != 2 {
		t.Fatalf("bad positions: %d, %d", g.Variants[0].Position, g.Variants[1].Position)
	}
	if len(g.OptionNames) != 1 || g.OptionNames[0] != "Color" {
		t.Fatalf("bad option names: %v", g.OptionNames)
	}
}

func TestGroupProductsSimpleClassification(t *testing.T) {
	rows := []domain.SourceRow{
		row(map[string]string{"Slug": "pump", "Name": "Floor Pump", "Price": "$35.00", "SKU": "PMP-1", "Stock": "12"}),
	}
	groups, err := transform.GroupProducts(rows, transform.DefaultColumns(), "test")
	if err != nil {
		t.Fatal(err)
	}
	g := groups[0]
	if !g.Simple {
		t.Fatal("group without option columns must be simple")
	}
	if g.Variants[0].SKU != "PMP-1" {
		t.Fatalf("bad sku: %q", g.Variants[0].SKU)
	}
	if g.Variants[0].StockQuantity == nil || *g.Variants[0].StockQuantity != 12 {
		t.Fatalf("bad stock: %v", g.Variants[0].StockQuantity)
	}
}

func TestGroupProductsMetadataAndImages(t *testing.T) {
	r := row(map[string]string{
		"Slug": "bike-a", "Name": "Bike A", "Category": "Road Bikes",
		"Images":          "https://img.example/a/main.jpg, https://img.example/a/side.jpg ,",
		"Metadata: Frame Size": "54cm",
		"Metadata: Empty":      "",
	})
	groups, err := transform.GroupProducts([]domain.SourceRow{r}, transform.DefaultColumns(), "test")
	if err != nil {
		t.Fatal(err)
	}
	g := groups[0]
	if g.Metadata["frame_size"] != "54cm" {
		t.Fatalf("bad metadata: %v", g.Metadata)
	}
	if _, ok := g.Metadata["empty"]; ok {
		t.Fatal("empty cells must not contribute metadata")
	}
	if g.Variants[0].ImageURL != "https://img.example/a/main.jpg" {
		t.Fatalf("bad primary image: %q", g.Variants[0].ImageURL)
	}
	if g.Metadata["additional_images"] != "https://img.example/a/side.jpg" {
		t.Fatalf("bad additional images: %q", g.Metadata["additional_images"])
	}
	if g.CategorySlug != "road-bikes" {
		t.Fatalf("bad category slug: %q", g.CategorySlug)
	}
}

func TestGroupProductsSynthesizedKey(t *testing.T) {
	// No slug/handle column at all: key is name+category so products sharing a
	// name stay distinct across categories.
	mk := func(name, cat string) domain.SourceRow {
		return domain.SourceRow{"Name": name, "Category": cat, "Price": "$10.00"}
	}
	rows := []domain.SourceRow{mk("Tube", "Road"), mk("Tube", "MTB"), mk("", "")}
	groups, err := transform.GroupProducts(rows, transform.DefaultColumns(), "test")
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("want 2 groups, got %d", len(groups))
	}
	if groups[0].Slug != "tube-road" || groups[1].Slug != "tube-mtb" {
		t.Fatalf("bad synthesized slugs: %s, %s", groups[0].Slug, groups[1].Slug)
	}
}

func TestGroupProductsNoUsableColumnsFails(t *testing.T) {
	rows := []domain.SourceRow{{"Price": "$10.00"}}
	if _, err := transform.GroupProducts(rows, transform.DefaultColumns(), "test"); err == nil {
		t.Fatal("want error when source has neither slug nor name column")
	}
}

func TestGroupCollections(t *testing.T) {
	mk := func(name, slug, parent string) domain.SourceRow {
		return domain.SourceRow{"Name": name, "Slug": slug, "Parent": parent, "Description": "", "Images": ""}
	}
	rows := []domain.SourceRow{
		mk("Road Bikes", "road-bikes", ""),
		mk("Gravel", "gravel", "Road Bikes"),
		mk("Road Bikes", "road-bikes", ""), // duplicate slug, first wins
		mk("No Slug Either", "", ""),
	}
	specs, err := transform.GroupCollections(rows, transform.DefaultColumns(), "test")
	if err != nil {
		t.Fatal(err)
	}
	if len(specs) != 3 {
		t.Fatalf("want 3 specs, got %d", len(specs))
	}
	if specs[1].ParentSlug != "road-bikes" {
		t.Fatalf("parent reference should be slugified: %q", specs[1].ParentSlug)
	}
	if specs[2].Slug != "no-slug-either" {
		t.Fatalf("missing slug should fall back to slugified name: %q", specs[2].Slug)
	}
}
