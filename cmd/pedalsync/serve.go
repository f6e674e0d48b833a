package main

import (
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/spf13/cobra"

	"pedalhouse/internal/config"
	"pedalhouse/internal/http/handlers"
	applog "pedalhouse/internal/log"
	"pedalhouse/internal/metrics"
	"pedalhouse/internal/repos"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sync HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		// Optional file logging
		if cfg.LogFile != "" {
			f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
			} else {
				log.SetOutput(io.MultiWriter(os.Stdout, f))
			}
		}

		db, err := repos.OpenDB(cfg.DBDSN)
		if err != nil {
			return err
		}

		reg := metrics.NewRegistry()
		deps := handlers.NewDeps(db, cfg, reg)

		engine := html.New("./web/templates", ".html")
		app := fiber.New(fiber.Config{
			Views: engine,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				applog.Error(c, "server.error", err, nil)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"success": false, "message": "Something went wrong. Please try again.",
				})
			},
		})
		app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

		app.Use(requestid.New())
		app.Use(logger.New())

		guard := handlers.RequireSync(cfg.SyncUser, cfg.SyncPasswordHash)
		app.Post("/sync-product", guard, deps.SyncProducts.Run)
		app.Delete("/sync-product", guard, deps.SyncProducts.Reset)
		app.Post("/sync-collections", guard, deps.SyncCollections.Run)
		app.Get("/sync-collections", guard, deps.SyncCollections.Passthrough)
		app.Delete("/sync-collections", guard, deps.SyncCollections.Delete)

		app.Get("/", deps.Dashboard.Home)
		app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
		app.Use(func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
		})

		if cfg.MetricsAddr != "" {
			go func() {
				log.Printf("[metrics] listening on %s", cfg.MetricsAddr)
				if err := http.ListenAndServe(cfg.MetricsAddr, reg.Handler()); err != nil {
					log.Printf("[warn] metrics listener: %v", err)
				}
			}()
		}

		return app.Listen(":" + cfg.Port)
	},
}
