package main

import (
	"github.com/jmoiron/sqlx"

	"pedalhouse/internal/commerce"
	"pedalhouse/internal/config"
	"pedalhouse/internal/media"
	"pedalhouse/internal/repos"
	"pedalhouse/internal/sheet"
	"pedalhouse/internal/syncer"
)

// pipeline bundles the pieces a one-shot CLI sync needs.
type pipeline struct {
	DB          *sqlx.DB
	Runs        *repos.RunRepo
	Sheets      *sheet.Client
	Products    *syncer.ProductSyncer
	Collections *syncer.CollectionSyncer
}

func buildPipeline(cfg config.Config) (*pipeline, error) {
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	commerceClient := commerce.NewClient(cfg.CommerceURL, cfg.CommerceKey)
	cms := media.NewClient(cfg.CMSURL, cfg.CMSUser, cfg.CMSAppPassword)
	uploader := media.NewUploader(cms, cfg.CMSFolder)
	pacer := syncer.NewRatePacer(2, 1)

	return &pipeline{
		DB:          db,
		Runs:        repos.NewRunRepo(db),
		Sheets:      sheet.NewClient(),
		Products:    syncer.NewProductSyncer(commerceClient, uploader, pacer),
		Collections: &syncer.CollectionSyncer{Commerce: commerceClient, Uploader: uploader},
	}, nil
}
