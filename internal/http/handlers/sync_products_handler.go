package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "pedalhouse/internal/log"
	"pedalhouse/internal/metrics"
	"pedalhouse/internal/repos"
	"pedalhouse/internal/sheet"
	"pedalhouse/internal/syncer"
	"pedalhouse/internal/transform"
	"pedalhouse/internal/validate"
)

type SyncProductsHandler struct {
	Sheets   *sheet.Client
	Products *syncer.ProductSyncer
	Runs     *repos.RunRepo
	Metrics  *metrics.Registry
	SheetURL string
}

// sheetURL picks the source override from the query string, falling back to
// the configured default.
func (h *SyncProductsHandler) sheetURL(c *fiber.Ctx) (string, bool) {
	if q := c.Query("sheetUrl"); q != "" {
		return validate.SheetURL(q)
	}
	return validate.SheetURL(h.SheetURL)
}

// Run executes the full product pipeline.
func (h *SyncProductsHandler) Run(c *fiber.Ctx) error {
	srcURL, ok := h.sheetURL(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "missing or invalid sheet URL",
		})
	}

	runID, err := h.Runs.Start("products")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	applog.Info(c, "sync.products.start", map[string]any{"run_id": runID})

	rows, err := h.Sheets.Fetch(c.UserContext(), srcURL)
	if err != nil {
		return h.fail(c, runID, err)
	}
	groups, err := transform.GroupProducts(rows, transform.DefaultColumns(), runID)
	if err != nil {
		return h.fail(c, runID, err)
	}

	sum, err := h.Products.Sync(c.UserContext(), runID, groups)
	if err != nil {
		return h.fail(c, runID, err)
	}

	_ = h.Runs.Finish(runID, "completed", sum.TotalProducts, sum.SuccessfulProducts, sum.FailedProducts, "")
	if h.Metrics != nil {
		h.Metrics.Runs.WithLabelValues("products", "completed").Inc()
		h.Metrics.ProductsSynced.Add(float64(sum.SuccessfulProducts))
		h.Metrics.ProductsFailed.Add(float64(sum.FailedProducts))
		h.Metrics.MediaUploaded.Add(float64(sum.UploadedImages))
		h.Metrics.MediaReused.Add(float64(sum.ReusedImages))
		h.Metrics.MediaFailed.Add(float64(sum.FailedImages))
	}
	return c.JSON(fiber.Map{
		"success": true,
		"runId":   runID,
		"summary": fiber.Map{
			"totalProducts":      sum.TotalProducts,
			"successfulProducts": sum.SuccessfulProducts,
			"failedProducts":     sum.FailedProducts,
			"totalImages":        sum.TotalImages,
			"uploadedImages":     sum.UploadedImages,
		},
		"results": sum.Results,
	})
}

// Reset runs only the destructive reset step.
func (h *SyncProductsHandler) Reset(c *fiber.Ctx) error {
	runID, err := h.Runs.Start("reset")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	sum, err := h.Products.Reset(c.UserContext(), runID)
	if err != nil {
		return h.fail(c, runID, err)
	}
	total := sum.ProductsDeleted + sum.ProductsFailed + sum.VariantsDeleted + sum.VariantsFailed
	_ = h.Runs.Finish(runID, "completed", total, sum.ProductsDeleted+sum.VariantsDeleted, sum.ProductsFailed+sum.VariantsFailed, "")
	if h.Metrics != nil {
		h.Metrics.Runs.WithLabelValues("reset", "completed").Inc()
	}
	return c.JSON(fiber.Map{"success": true, "runId": runID, "summary": sum})
}

func (h *SyncProductsHandler) fail(c *fiber.Ctx, runID string, err error) error {
	applog.Error(c, "sync.products.fail", err, map[string]any{"run_id": runID})
	_ = h.Runs.Finish(runID, "failed", 0, 0, 0, err.Error())
	if h.Metrics != nil {
		h.Metrics.Runs.WithLabelValues("products", "failed").Inc()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false, "runId": runID, "message": err.Error(),
	})
}
