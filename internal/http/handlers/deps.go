package handlers

import (
	"github.com/jmoiron/sqlx"

	"pedalhouse/internal/commerce"
	"pedalhouse/internal/config"
	"pedalhouse/internal/media"
	"pedalhouse/internal/metrics"
	"pedalhouse/internal/repos"
	"pedalhouse/internal/sheet"
	"pedalhouse/internal/syncer"
)

type Deps struct {
	SyncProducts    *SyncProductsHandler
	SyncCollections *SyncCollectionsHandler
	Dashboard       *DashboardHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, reg *metrics.Registry) *Deps {
	runRepo := repos.NewRunRepo(db)
	sheets := sheet.NewClient()

	commerceClient := commerce.NewClient(cfg.CommerceURL, cfg.CommerceKey)
	cms := media.NewClient(cfg.CMSURL, cfg.CMSUser, cfg.CMSAppPassword)
	uploader := media.NewUploader(cms, cfg.CMSFolder)

	// Two variant deletes per second keeps the platform's documented limits
	// with batches of 20.
	pacer := syncer.NewRatePacer(2, 1)
	productSyncer := syncer.NewProductSyncer(commerceClient, uploader, pacer)
	collectionSyncer := &syncer.CollectionSyncer{Commerce: commerceClient, Uploader: uploader}

	return &Deps{
		SyncProducts: &SyncProductsHandler{
			Sheets: sheets, Products: productSyncer, Runs: runRepo,
			Metrics: reg, SheetURL: cfg.ProductsSheetURL,
		},
		SyncCollections: &SyncCollectionsHandler{
			Sheets: sheets, Collections: collectionSyncer, Runs: runRepo,
			Metrics: reg, SheetURL: cfg.CollectionsSheetURL,
		},
		Dashboard: &DashboardHandler{Runs: runRepo},
	}
}
