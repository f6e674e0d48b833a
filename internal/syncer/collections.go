// Package syncer reconciles locally-derived entities against remote commerce
// platform state: it decides create vs. skip per entity, honors hierarchy
// ordering (parents before children) and isolates per-entity failures so a
// batch always runs to completion.
package syncer

import (
	"context"
	"strconv"
	"strings"

	"pedalhouse/internal/commerce"
	"pedalhouse/internal/domain"
	applog "pedalhouse/internal/log"
	"pedalhouse/internal/media"
)

// parentMetaKey holds the remote parent collection id on child collections.
const parentMetaKey = "parent_collection"

type CollectionSummary struct {
	TotalCollections int `json:"totalCollections"`
	Created          int `json:"created"`
	Existing         int `json:"existing"`
	Skipped          int `json:"skipped"`
	Failed           int `json:"failed"`
}

type CollectionSyncer struct {
	Commerce *commerce.Client
	Uploader *media.Uploader // nil disables collection image handling
}

// Sync creates every collection that does not yet exist remotely. Creation is
// two-pass: roots first, then children, so a child's parent id is always
// resolvable from either the in-batch map or the pre-existing remote index.
// Running twice against unchanged remote state creates nothing the second time.
func (s *CollectionSyncer) Sync(ctx context.Context, runID string, specs []domain.CollectionSpec) (*CollectionSummary, error) {
	sum := &CollectionSummary{TotalCollections: len(specs)}

	existing, err := s.Commerce.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	bySlug := map[string]string{}
	byName := map[string]string{}
	for _, c := range existing {
		if _, ok := bySlug[c.Slug]; !ok {
			bySlug[c.Slug] = c.ID
		}
		if k := strings.ToLower(c.Name); k != "" {
			if _, ok := byName[k]; !ok {
				byName[k] = c.ID
			}
		}
	}

	var imageByURL map[string]domain.MediaRecord
	if s.Uploader != nil {
		var urls []string
		for _, spec := range specs {
			if spec.ImageURL != "" {
				urls = append(urls, spec.ImageURL)
			}
		}
		imageByURL, _, err = s.Uploader.Sync(ctx, runID, urls)
		if err != nil {
			applog.RunWarn(runID, "collections.media.skip", map[string]any{"err": err.Error()})
		}
	}

	created := map[string]string{} // slug -> remote id, this batch

	var roots, children []domain.CollectionSpec
	for _, spec := range specs {
		if spec.ParentSlug == "" {
			roots = append(roots, spec)
		} else {
			children = append(children, spec)
		}
	}

	for _, spec := range roots {
		s.syncOne(ctx, runID, spec, "", bySlug, byName, created, imageByURL, sum)
	}
	for _, spec := range children {
		parentID := created[spec.ParentSlug]
		if parentID == "" {
			parentID = bySlug[spec.ParentSlug]
		}
		if parentID == "" {
			applog.RunError(runID, "collections.parent.unresolved", nil,
				map[string]any{"slug": spec.Slug, "parent": spec.ParentSlug})
			sum.Skipped++
			continue
		}
		s.syncOne(ctx, runID, spec, parentID, bySlug, byName, created, imageByURL, sum)
	}

	applog.RunInfo(runID, "collections.sync.done", map[string]any{
		"total": sum.TotalCollections, "created": sum.Created,
		"existing": sum.Existing, "skipped": sum.Skipped, "failed": sum.Failed,
	})
	return sum, nil
}

func (s *CollectionSyncer) syncOne(ctx context.Context, runID string, spec domain.CollectionSpec, parentID string,
	bySlug, byName, created map[string]string, imageByURL map[string]domain.MediaRecord, sum *CollectionSummary) {

	// Slug first, then a case-insensitive name match: slugs drift while names
	// tend to stay stable, and a name hit means the collection already exists.
	if id, ok := bySlug[spec.Slug]; ok {
		created[spec.Slug] = id
		sum.Existing++
		return
	}
	if id, ok := byName[strings.ToLower(spec.Name)]; ok && spec.Name != "" {
		created[spec.Slug] = id
		sum.Existing++
		return
	}

	md := map[string]string{}
	for k, v := range spec.Metadata {
		md[k] = v
	}
	if parentID != "" {
		md[parentMetaKey] = parentID
	}
	if rec, ok := imageByURL[spec.ImageURL]; ok {
		md["image"] = rec.PublicURL
		md["image_id"] = strconv.FormatInt(rec.ID, 10)
	}

	out, err := s.Commerce.CreateCollection(ctx, commerce.CollectionInput{
		Name:        spec.Name,
		Slug:        spec.Slug,
		Description: spec.Description,
		Metadata:    md,
	})
	if err != nil {
		applog.RunError(runID, "collections.create.fail", err, map[string]any{"slug": spec.Slug})
		sum.Failed++
		return
	}
	created[spec.Slug] = out.ID
	bySlug[spec.Slug] = out.ID
	if k := strings.ToLower(spec.Name); k != "" {
		byName[k] = out.ID
	}
	sum.Created++
}

type DeleteSummary struct {
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// DeleteAll removes every remote collection, children before parents, the
// reverse of creation dependency order. Mid-batch failures are counted and do
// not stop the batch.
func (s *CollectionSyncer) DeleteAll(ctx context.Context, runID string) (*DeleteSummary, error) {
	existing, err := s.Commerce.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	var ordered []commerce.Collection
	for _, c := range existing {
		if c.Metadata[parentMetaKey] != "" {
			ordered = append(ordered, c)
		}
	}
	for _, c := range existing {
		if c.Metadata[parentMetaKey] == "" {
			ordered = append(ordered, c)
		}
	}
	return s.deleteCollections(ctx, runID, ordered), nil
}

// DeleteByIDs removes the named collections only.
func (s *CollectionSyncer) DeleteByIDs(ctx context.Context, runID string, ids []string) *DeleteSummary {
	targets := make([]commerce.Collection, 0, len(ids))
	for _, id := range ids {
		targets = append(targets, commerce.Collection{ID: id})
	}
	return s.deleteCollections(ctx, runID, targets)
}

func (s *CollectionSyncer) deleteCollections(ctx context.Context, runID string, targets []commerce.Collection) *DeleteSummary {
	sum := &DeleteSummary{}
	for _, c := range targets {
		if err := s.Commerce.DeleteCollection(ctx, c.ID); err != nil {
			applog.RunError(runID, "collections.delete.fail", err, map[string]any{"id": c.ID})
			sum.Failed++
			continue
		}
		sum.Deleted++
	}
	applog.RunInfo(runID, "collections.delete.done", map[string]any{"deleted": sum.Deleted, "failed": sum.Failed})
	return sum
}
