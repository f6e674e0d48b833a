package domain

// SourceRow is one line of the tabular export, keyed by column header.
// Every header present in the source maps to a key, even when the cell is empty.
type SourceRow map[string]string

type VariantSpec struct {
	PriceCents    int
	Position      int
	SKU           string
	Option1       string
	Option2       string
	Option3       string
	ImageURL      string
	StockQuantity *int
}

// ProductGroup is the unit of product identity: all source rows sharing one slug.
type ProductGroup struct {
	Slug         string
	DisplayName  string
	Description  string
	CategoryName string
	CategorySlug string
	OptionNames  []string // up to three, in column order
	Metadata     map[string]string
	Variants     []VariantSpec

	// Simple products carry price/sku/stock directly on the product; set when
	// no row in the group populated an option-name column.
	Simple bool
}

type CollectionSpec struct {
	Name        string
	Slug        string
	Description string
	ParentSlug  string
	ImageURL    string
	Metadata    map[string]string
}

// MediaRecord is a remote media asset. Dedup identity is Filename, not ID or
// the full URL: the same physical file is frequently referenced through
// cosmetically different URLs across source rows.
type MediaRecord struct {
	ID        int64
	SourceURL string
	Filename  string
	PublicURL string
}

type SyncRun struct {
	ID         string `db:"id"`
	Kind       string `db:"kind"`   // products | collections | reset
	Status     string `db:"status"` // running | completed | failed
	Total      int    `db:"total"`
	Succeeded  int    `db:"succeeded"`
	Failed     int    `db:"failed"`
	Error      string `db:"error"`
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
}
