package media

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"pedalhouse/internal/domain"
	applog "pedalhouse/internal/log"
)

const defaultConcurrency = 8

type Stats struct {
	Total    int // distinct source URLs referenced by the batch
	Reused   int // filenames already present in the remote index
	Uploaded int
	Failed   int
}

// Uploader resolves source image URLs to remote media records, uploading only
// the assets whose filename is not already in the media library.
type Uploader struct {
	CMS         *Client
	FolderName  string
	Concurrency int
}

func NewUploader(cms *Client, folderName string) *Uploader {
	return &Uploader{CMS: cms, FolderName: folderName, Concurrency: defaultConcurrency}
}

// Sync returns a url -> MediaRecord mapping for every URL it could resolve.
// Two URLs sharing a final path segment resolve to the same record with a
// single upload attempt. Individual upload failures are counted and logged
// but never abort the batch.
func (u *Uploader) Sync(ctx context.Context, runID string, urls []string) (map[string]domain.MediaRecord, Stats, error) {
	// Distinct URLs, insertion order kept; then collapse to one owner URL per
	// filename so each asset is attempted at most once.
	seenURL := map[string]bool{}
	ownerByFile := map[string]string{}
	var fileOrder []string
	stats := Stats{}
	for _, raw := range urls {
		if raw == "" || seenURL[raw] {
			continue
		}
		seenURL[raw] = true
		stats.Total++
		fn := Filename(raw)
		if fn == "" {
			stats.Failed++
			applog.RunWarn(runID, "media.url.no_filename", map[string]any{"url": raw})
			continue
		}
		if _, ok := ownerByFile[fn]; !ok {
			ownerByFile[fn] = raw
			fileOrder = append(fileOrder, fn)
		}
	}
	if len(fileOrder) == 0 {
		return map[string]domain.MediaRecord{}, stats, nil
	}

	// Remote index, fetched once per run. A failure here degrades to "upload
	// everything" rather than aborting the sync.
	index := map[string]domain.MediaRecord{}
	existing, err := u.CMS.ListMedia(ctx)
	if err != nil {
		applog.RunWarn(runID, "media.index.unavailable", map[string]any{"err": err.Error()})
	}
	for _, m := range existing {
		if _, ok := index[m.Filename]; !ok {
			index[m.Filename] = m
		}
	}

	folderID, err := u.CMS.ResolveFolder(ctx, u.FolderName)
	if err != nil {
		applog.RunWarn(runID, "media.folder.unresolved", map[string]any{"folder": u.FolderName, "err": err.Error()})
	}

	var mu sync.Mutex
	resolved := map[string]domain.MediaRecord{} // filename -> record

	// Index hits are settled before the fan-out starts; once a goroutine is
	// running, resolved is only written under mu.
	var pending []string
	for _, fn := range fileOrder {
		if rec, ok := index[fn]; ok {
			resolved[fn] = rec
			stats.Reused++
			continue
		}
		pending = append(pending, fn)
	}

	limit := u.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, fn := range pending {
		fn, src := fn, ownerByFile[fn]
		g.Go(func() error {
			if err := u.CMS.Probe(gctx, src); err != nil {
				mu.Lock()
				stats.Failed++
				mu.Unlock()
				applog.RunWarn(runID, "media.probe.reject", map[string]any{"url": src, "err": err.Error()})
				return nil
			}
			rec, err := u.CMS.Upload(gctx, src, folderID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				applog.RunError(runID, "media.upload.fail", err, map[string]any{"url": src})
				return nil // one failed upload must not abort the batch
			}
			resolved[fn] = *rec
			stats.Uploaded++
			return nil
		})
	}
	_ = g.Wait()

	// Fan the per-filename records back out to every referencing URL,
	// correlated by filename rather than request order.
	out := map[string]domain.MediaRecord{}
	for raw := range seenURL {
		if rec, ok := resolved[Filename(raw)]; ok {
			out[raw] = rec
		}
	}
	applog.RunInfo(runID, "media.sync.done", map[string]any{
		"total": stats.Total, "reused": stats.Reused, "uploaded": stats.Uploaded, "failed": stats.Failed,
	})
	return out, stats, nil
}
