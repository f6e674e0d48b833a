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

type SyncCollectionsHandler struct {
	Sheets      *sheet.Client
	Collections *syncer.CollectionSyncer
	Runs        *repos.RunRepo
	Metrics     *metrics.Registry
	SheetURL    string
}

func (h *SyncCollectionsHandler) sheetURL(c *fiber.Ctx) (string, bool) {
	if q := c.Query("sheetUrl"); q != "" {
		return validate.SheetURL(q)
	}
	return validate.SheetURL(h.SheetURL)
}

// Run executes the collection pipeline.
func (h *SyncCollectionsHandler) Run(c *fiber.Ctx) error {
	srcURL, ok := h.sheetURL(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "missing or invalid sheet URL",
		})
	}

	runID, err := h.Runs.Start("collections")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	applog.Info(c, "sync.collections.start", map[string]any{"run_id": runID})

	rows, err := h.Sheets.Fetch(c.UserContext(), srcURL)
	if err != nil {
		return h.fail(c, runID, err)
	}
	specs, err := transform.GroupCollections(rows, transform.DefaultColumns(), runID)
	if err != nil {
		return h.fail(c, runID, err)
	}

	sum, err := h.Collections.Sync(c.UserContext(), runID, specs)
	if err != nil {
		return h.fail(c, runID, err)
	}

	_ = h.Runs.Finish(runID, "completed", sum.TotalCollections, sum.Created+sum.Existing, sum.Failed, "")
	if h.Metrics != nil {
		h.Metrics.Runs.WithLabelValues("collections", "completed").Inc()
	}
	return c.JSON(fiber.Map{
		"success": true,
		"runId":   runID,
		"summary": sum,
	})
}

// Passthrough streams the parsed source back to the caller without touching
// remote state.
func (h *SyncCollectionsHandler) Passthrough(c *fiber.Ctx) error {
	srcURL, ok := h.sheetURL(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "missing or invalid sheet URL",
		})
	}
	rows, err := h.Sheets.Fetch(c.UserContext(), srcURL)
	if err != nil {
		applog.Error(c, "sync.collections.passthrough.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "count": len(rows), "rows": rows})
}

type deleteCollectionsBody struct {
	CollectionIDs []string `json:"collectionIds"`
}

// Delete removes collections: everything (children before parents) with
// ?all=true, or the ids named in the body.
func (h *SyncCollectionsHandler) Delete(c *fiber.Ctx) error {
	runID, err := h.Runs.Start("collections")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	if c.Query("all") == "true" {
		sum, err := h.Collections.DeleteAll(c.UserContext(), runID)
		if err != nil {
			return h.fail(c, runID, err)
		}
		_ = h.Runs.Finish(runID, "completed", sum.Deleted+sum.Failed, sum.Deleted, sum.Failed, "")
		return c.JSON(fiber.Map{"success": true, "runId": runID, "summary": sum})
	}

	var body deleteCollectionsBody
	if err := c.BodyParser(&body); err != nil || len(body.CollectionIDs) == 0 {
		_ = h.Runs.Finish(runID, "failed", 0, 0, 0, "no collection ids")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "pass ?all=true or a collectionIds body",
		})
	}
	ids := make([]string, 0, len(body.CollectionIDs))
	for _, raw := range body.CollectionIDs {
		if id, ok := validate.ID(raw); ok {
			ids = append(ids, id)
		} else {
			applog.Security(c, "validation.fail", map[string]any{"field": "collectionId"})
		}
	}
	sum := h.Collections.DeleteByIDs(c.UserContext(), runID, ids)
	_ = h.Runs.Finish(runID, "completed", sum.Deleted+sum.Failed, sum.Deleted, sum.Failed, "")
	return c.JSON(fiber.Map{"success": true, "runId": runID, "summary": sum})
}

func (h *SyncCollectionsHandler) fail(c *fiber.Ctx, runID string, err error) error {
	applog.Error(c, "sync.collections.fail", err, map[string]any{"run_id": runID})
	_ = h.Runs.Finish(runID, "failed", 0, 0, 0, err.Error())
	if h.Metrics != nil {
		h.Metrics.Runs.WithLabelValues("collections", "failed").Inc()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false, "runId": runID, "message": err.Error(),
	})
}
