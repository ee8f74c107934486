// handlers/progress_routes.go
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"scout-admin-system/apperrors"
	"scout-admin-system/middleware"
	"scout-admin-system/models"
	"scout-admin-system/services"
	"scout-admin-system/store"
)

type ProgressRouteServices struct {
	Ledger     *services.LedgerService
	Manual     *services.ManualProgressService
	Attendance *services.AttendanceService
	Aggregator *services.BadgeAggregator
	Reconciler *services.AwardReconciler
	Gold       *services.GoldAwardService
	Tenure     *services.TenureService
}

func SetupProgressRoutes(app *fiber.App, svc ProgressRouteServices) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	// Member-facing read of badge progress and awards.
	securedGroup.Get("/members/:memberId/badges", func(c *fiber.Ctx) error {
		memberID := c.Params("memberId")

		progress, err := svc.Ledger.Store.BadgeProgress.Filter(c.Context(), map[string]any{"member_id": memberID})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load badge progress"})
		}
		awards, err := svc.Ledger.Store.Awards.Filter(c.Context(), map[string]any{"member_id": memberID})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load awards"})
		}

		return c.JSON(fiber.Map{
			"badges": progress,
			"awards": awards,
		})
	})

	// Per-badge completion percentage for the progress bars.
	securedGroup.Get("/members/:memberId/badges/:badgeId/progress", func(c *fiber.Ctx) error {
		memberID := c.Params("memberId")
		badgeID := c.Params("badgeId")

		fraction, err := svc.Aggregator.BadgeCompletionFraction(c.Context(), memberID, badgeID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to compute progress"})
		}

		row, found, err := store.First(c.Context(), svc.Ledger.Store.BadgeProgress, map[string]any{
			"member_id": memberID,
			"badge_id":  badgeID,
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load status"})
		}
		status := models.BadgeNotStarted
		if found {
			status = row.Status
		}

		return c.JSON(fiber.Map{
			"member_id": memberID,
			"badge_id":  badgeID,
			"status":    status,
			"percent":   int(fraction * 100),
		})
	})

	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware())

	// Attendance-awarding trigger: award all badge links on a programme item
	// or event to everyone marked present.
	adminGroup.Post("/attendance/:parentType/:parentId/award", func(c *fiber.Ctx) error {
		actorID, _ := c.Locals("user_id").(string)
		parentType := models.ParentType(c.Params("parentType"))
		parentID := c.Params("parentId")

		summary, err := svc.Attendance.AwardForParent(c.Context(), parentType, parentID, actorID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			}
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) && appErr.Code == apperrors.ErrCodeValidation {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "awarding failed", "cause": err.Error()})
		}

		skipped := make([]fiber.Map, 0, len(summary.Skipped))
		for _, item := range summary.Skipped {
			skipped = append(skipped, fiber.Map{
				"member_id":      item.MemberID,
				"requirement_id": item.RequirementID,
				"reason":         item.Err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"summary":       summary,
			"skipped_pairs": skipped,
		})
	})

	// Manual single-requirement toggle.
	adminGroup.Post("/progress/toggle", func(c *fiber.Ctx) error {
		actorID, _ := c.Locals("user_id").(string)

		var req struct {
			MemberID      string `json:"member_id" validate:"required,uuid"`
			RequirementID string `json:"requirement_id" validate:"required,uuid"`
			Increment     bool   `json:"increment"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.MemberID == "" || req.RequirementID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "member_id and requirement_id are required"})
		}

		outcome, err := svc.Manual.Toggle(c.Context(), req.MemberID, req.RequirementID, req.Increment, actorID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			case errors.Is(err, apperrors.ErrGatingUnmet):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "toggle failed", "cause": err.Error()})
			}
		}
		return c.JSON(outcome)
	})

	// Mark a pending award physically presented.
	adminGroup.Post("/awards/:memberId/:badgeId/present", func(c *fiber.Ctx) error {
		actorID, _ := c.Locals("user_id").(string)

		award, err := svc.Reconciler.PresentAward(c.Context(), c.Params("memberId"), c.Params("badgeId"), actorID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrAlreadyAwarded):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "award already presented"})
			case errors.Is(err, apperrors.ErrNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "present failed", "cause": err.Error()})
			}
		}
		return c.JSON(award)
	})

	// On-demand sweep triggers; the scheduler runs the same jobs on a timer.
	adminGroup.Post("/sweeps/gold", func(c *fiber.Ctx) error {
		result, err := svc.Gold.Run(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "sweep failed", "cause": err.Error()})
		}
		return c.JSON(result)
	})

	adminGroup.Post("/sweeps/tenure", func(c *fiber.Ctx) error {
		result, err := svc.Tenure.Run(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "sweep failed", "cause": err.Error()})
		}
		return c.JSON(result)
	})
}
