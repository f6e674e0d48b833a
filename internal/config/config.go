package config

import (
	"log"
	"os"
)

type Config struct {
	Port        string
	DBDSN       string
	LogFile     string
	MetricsAddr string

	CommerceURL string
	CommerceKey string

	CMSURL         string
	CMSUser        string
	CMSAppPassword string
	CMSFolder      string

	ProductsSheetURL    string
	CollectionsSheetURL string

	SyncUser         string
	SyncPasswordHash string
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() Config {
	cfg := Config{
		Port:        env("PORT", "8080"),
		DBDSN:       env("DB_DSN", "pedalhouse.db"), // sqlite file in project root
		LogFile:     env("LOG_FILE", "./pedalhouse.log"),
		MetricsAddr: env("METRICS_ADDR", ":9091"),

		CommerceURL: env("COMMERCE_API_URL", "https://api.surecart.com/v1"),
		CommerceKey: os.Getenv("COMMERCE_API_KEY"),

		CMSURL:         os.Getenv("CMS_URL"),
		CMSUser:        os.Getenv("CMS_USER"),
		CMSAppPassword: os.Getenv("CMS_APP_PASSWORD"),
		CMSFolder:      env("CMS_MEDIA_FOLDER", "Products"),

		ProductsSheetURL:    os.Getenv("PRODUCTS_SHEET_URL"),
		CollectionsSheetURL: os.Getenv("COLLECTIONS_SHEET_URL"),

		SyncUser:         env("SYNC_USER", "sync"),
		SyncPasswordHash: os.Getenv("SYNC_PASSWORD_HASH"),
	}

	// Never log credentials, only which ones are set.
	log.Printf("[config] PORT=%s DB_DSN=%s METRICS_ADDR=%s COMMERCE_API_URL=%s CMS_URL=%s commerce_key_set=%t cms_auth_set=%t",
		cfg.Port, cfg.DBDSN, cfg.MetricsAddr, cfg.CommerceURL, cfg.CMSURL,
		cfg.CommerceKey != "", cfg.CMSUser != "" && cfg.CMSAppPassword != "")
	return cfg
}
