package syncer

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"pedalhouse/internal/commerce"
	"pedalhouse/internal/domain"
	applog "pedalhouse/internal/log"
	"pedalhouse/internal/media"
	"pedalhouse/internal/transform"
)

const defaultDeleteBatch = 20

type ProductResult struct {
	Slug      string `json:"slug"`
	ProductID string `json:"productId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type ProductSummary struct {
	TotalProducts      int             `json:"totalProducts"`
	SuccessfulProducts int             `json:"successfulProducts"`
	FailedProducts     int             `json:"failedProducts"`
	TotalImages        int             `json:"totalImages"`
	UploadedImages     int             `json:"uploadedImages"`
	ReusedImages       int             `json:"reusedImages"`
	FailedImages       int             `json:"failedImages"`
	Results            []ProductResult `json:"results,omitempty"`
}

type ResetSummary struct {
	ProductsDeleted int `json:"productsDeleted"`
	ProductsFailed  int `json:"productsFailed"`
	VariantsDeleted int `json:"variantsDeleted"`
	VariantsFailed  int `json:"variantsFailed"`
}

type ProductSyncer struct {
	Commerce  *commerce.Client
	Uploader  *media.Uploader
	Pacer     Pacer
	BatchSize int
}

func NewProductSyncer(c *commerce.Client, u *media.Uploader, p Pacer) *ProductSyncer {
	return &ProductSyncer{Commerce: c, Uploader: u, Pacer: p, BatchSize: defaultDeleteBatch}
}

// Reset deletes every remote product, then every remote variant. Variant ids
// are collected up front and deleted in fixed-size batches with a pacer wait
// between batches. Per-item failures are counted, never fatal.
func (s *ProductSyncer) Reset(ctx context.Context, runID string) (*ResetSummary, error) {
	sum := &ResetSummary{}

	products, err := s.Commerce.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if err := s.Commerce.DeleteProduct(ctx, p.ID); err != nil {
			applog.RunError(runID, "products.delete.fail", err, map[string]any{"id": p.ID})
			sum.ProductsFailed++
			continue
		}
		sum.ProductsDeleted++
	}

	variants, err := s.Commerce.ListVariants(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(variants))
	for _, v := range variants {
		ids = append(ids, v.ID)
	}

	batch := s.BatchSize
	if batch <= 0 {
		batch = defaultDeleteBatch
	}
	for start := 0; start < len(ids); start += batch {
		end := start + batch
		if end > len(ids) {
			end = len(ids)
		}
		var g errgroup.Group
		deleted := make([]bool, end-start)
		for i, id := range ids[start:end] {
			i, id := i, id
			g.Go(func() error {
				if err := s.Commerce.DeleteVariant(ctx, id); err != nil {
					applog.RunError(runID, "variants.delete.fail", err, map[string]any{"id": id})
					return nil
				}
				deleted[i] = true
				return nil
			})
		}
		_ = g.Wait()
		for _, ok := range deleted {
			if ok {
				sum.VariantsDeleted++
			} else {
				sum.VariantsFailed++
			}
		}
		if end < len(ids) && s.Pacer != nil {
			if err := s.Pacer.Wait(ctx); err != nil {
				return sum, err
			}
		}
	}

	applog.RunInfo(runID, "products.reset.done", map[string]any{
		"products_deleted": sum.ProductsDeleted, "products_failed": sum.ProductsFailed,
		"variants_deleted": sum.VariantsDeleted, "variants_failed": sum.VariantsFailed,
	})
	return sum, nil
}

// Sync runs the full product pipeline: destructive reset, media resolution,
// then one create per group with collection resolution and a supplementary
// price object. One product's failure is recorded and the loop continues.
func (s *ProductSyncer) Sync(ctx context.Context, runID string, groups []domain.ProductGroup) (*ProductSummary, error) {
	if _, err := s.Reset(ctx, runID); err != nil {
		return nil, err
	}

	var urls []string
	for _, g := range groups {
		for _, v := range g.Variants {
			if v.ImageURL != "" {
				urls = append(urls, v.ImageURL)
			}
		}
		for _, u := range strings.Split(g.Metadata["additional_images"], ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
	}
	mediaByURL, mediaStats, err := s.Uploader.Sync(ctx, runID, urls)
	if err != nil {
		return nil, err
	}

	existing, err := s.Commerce.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	collBySlug := map[string]string{}
	collByName := map[string]string{}
	for _, c := range existing {
		if _, ok := collBySlug[c.Slug]; !ok {
			collBySlug[c.Slug] = c.ID
		}
		if k := strings.ToLower(c.Name); k != "" {
			if _, ok := collByName[k]; !ok {
				collByName[k] = c.ID
			}
		}
	}

	sum := &ProductSummary{
		TotalProducts:  len(groups),
		TotalImages:    mediaStats.Total,
		UploadedImages: mediaStats.Uploaded,
		ReusedImages:   mediaStats.Reused,
		FailedImages:   mediaStats.Failed,
	}

	for _, g := range groups {
		collectionID := s.resolveCollection(ctx, runID, g, collBySlug, collByName)
		input, minPrice := buildProductInput(g, collectionID, mediaByURL)

		created, err := s.Commerce.CreateProduct(ctx, input)
		if err != nil {
			applog.RunError(runID, "products.create.fail", err, map[string]any{"slug": g.Slug})
			sum.FailedProducts++
			sum.Results = append(sum.Results, ProductResult{Slug: g.Slug, Error: err.Error()})
			continue
		}

		if minPrice > 0 {
			if _, err := s.Commerce.CreatePrice(ctx, commerce.PriceInput{
				Product: created.ID, Amount: minPrice, Currency: "usd",
			}); err != nil {
				// The product exists; a failed price object is not rolled back.
				applog.RunError(runID, "products.price.fail", err, map[string]any{"slug": g.Slug, "product": created.ID})
			}
		} else {
			applog.RunWarn(runID, "products.price.none", map[string]any{"slug": g.Slug})
		}

		sum.SuccessfulProducts++
		sum.Results = append(sum.Results, ProductResult{Slug: g.Slug, ProductID: created.ID})
	}

	applog.RunInfo(runID, "products.sync.done", map[string]any{
		"total": sum.TotalProducts, "ok": sum.SuccessfulProducts, "failed": sum.FailedProducts,
		"images": sum.TotalImages, "uploaded": sum.UploadedImages,
	})
	return sum, nil
}

// resolveCollection maps a product's category to a remote collection id.
// Category and collection taxonomies drift independently, hence three tiers:
// slug lookup, case-insensitive name lookup, create-on-the-fly; if even the
// create fails, adopt the first remote search-by-name match.
func (s *ProductSyncer) resolveCollection(ctx context.Context, runID string, g domain.ProductGroup,
	bySlug, byName map[string]string) string {

	if g.CategorySlug == "" && g.CategoryName == "" {
		return ""
	}
	if id, ok := bySlug[g.CategorySlug]; ok {
		return id
	}
	if id, ok := byName[strings.ToLower(g.CategoryName)]; ok && g.CategoryName != "" {
		return id
	}

	slug := g.CategorySlug
	if slug == "" {
		slug = transform.Slugify(g.CategoryName)
	}
	created, err := s.Commerce.CreateCollection(ctx, commerce.CollectionInput{Name: g.CategoryName, Slug: slug})
	if err == nil {
		if slug != "" {
			bySlug[slug] = created.ID
		}
		byName[strings.ToLower(g.CategoryName)] = created.ID
		return created.ID
	}

	matches, serr := s.Commerce.SearchCollectionsByName(ctx, g.CategoryName)
	if serr == nil && len(matches) > 0 {
		id := matches[0].ID
		if g.CategorySlug != "" {
			bySlug[g.CategorySlug] = id
		}
		byName[strings.ToLower(g.CategoryName)] = id
		return id
	}
	applog.RunWarn(runID, "products.collection.unresolved", map[string]any{
		"slug": g.Slug, "category": g.CategoryName, "err": err.Error(),
	})
	return ""
}

// buildProductInput maps a group to the create shape the platform expects,
// branching exhaustively on the simple/variant classification, and returns
// the representative price: the minimum strictly-positive cents across
// variants, 0 when no variant has a positive price.
func buildProductInput(g domain.ProductGroup, collectionID string, mediaByURL map[string]domain.MediaRecord) (commerce.ProductInput, int) {
	md := map[string]string{}
	for k, v := range g.Metadata {
		md[k] = v
	}

	// Gallery: bracketed numeric media ids, first-seen order, de-duplicated.
	var galleryIDs []string
	seenID := map[int64]bool{}
	addGallery := func(url string) {
		rec, ok := mediaByURL[url]
		if !ok || seenID[rec.ID] {
			return
		}
		seenID[rec.ID] = true
		galleryIDs = append(galleryIDs, strconv.FormatInt(rec.ID, 10))
	}
	for _, v := range g.Variants {
		addGallery(v.ImageURL)
	}
	for _, u := range strings.Split(md["additional_images"], ",") {
		addGallery(strings.TrimSpace(u))
	}
	if len(galleryIDs) > 0 {
		md["gallery_ids"] = "[" + strings.Join(galleryIDs, ",") + "]"
	}

	in := commerce.ProductInput{
		Name:        g.DisplayName,
		Slug:        g.Slug,
		Description: g.Description,
		Metadata:    md,
	}
	if collectionID != "" {
		in.Collections = []string{collectionID}
	}

	minPrice := 0
	for _, v := range g.Variants {
		if v.PriceCents > 0 && (minPrice == 0 || v.PriceCents < minPrice) {
			minPrice = v.PriceCents
		}
	}

	if g.Simple {
		v := g.Variants[0]
		in.SKU = v.SKU
		if v.StockQuantity != nil {
			in.StockEnabled = true
			in.StockQuantity = v.StockQuantity
		}
		if rec, ok := mediaByURL[v.ImageURL]; ok {
			md["image"] = rec.PublicURL
			md["image_id"] = strconv.FormatInt(rec.ID, 10)
		}
		return in, minPrice
	}

	for i, name := range g.OptionNames {
		if name != "" {
			in.VariantOptions = append(in.VariantOptions, commerce.VariantOptionInput{Name: name, Position: i + 1})
		}
	}
	for _, v := range g.Variants {
		vi := commerce.VariantInput{
			SKU:           v.SKU,
			Position:      v.Position,
			Amount:        v.PriceCents,
			Option1:       v.Option1,
			Option2:       v.Option2,
			Option3:       v.Option3,
			StockQuantity: v.StockQuantity,
		}
		if v.StockQuantity != nil {
			vi.StockEnabled = true
		}
		if rec, ok := mediaByURL[v.ImageURL]; ok {
			vi.Metadata = map[string]string{
				"image":    rec.PublicURL,
				"image_id": strconv.FormatInt(rec.ID, 10),
			}
		}
		in.Variants = append(in.Variants, vi)
	}
	return in, minPrice
}
