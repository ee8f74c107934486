// services/badge_catalog.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"scout-admin-system/apperrors"
	"scout-admin-system/models"
	"scout-admin-system/store"
	"scout-admin-system/utils"
)

var titleCaser = cases.Title(language.BritishEnglish)

// BadgeCatalogService is the administrative surface over badge definitions.
// Handlers live on the service, same shape as the progression routes.
type BadgeCatalogService struct {
	Store *store.Store
}

func NewBadgeCatalogService(s *store.Store) *BadgeCatalogService {
	return &BadgeCatalogService{Store: s}
}

type requirementReq struct {
	Order               int    `json:"order"`
	Text                string `json:"text"`
	RequiredCompletions int    `json:"required_completions"`
	NightsAwayRequired  int    `json:"nights_away_required"`
}

type moduleReq struct {
	Name          string            `json:"name"`
	Order         int               `json:"order"`
	Rule          models.ModuleRule `json:"rule"`
	RequiredCount int               `json:"required_count"`
	Requirements  []requirementReq  `json:"requirements"`
}

// CreateBadge creates a badge definition together with its modules and
// requirements (Admin only).
func (s *BadgeCatalogService) CreateBadge(c *fiber.Ctx) error {
	var req struct {
		Name          string                  `json:"name" validate:"required"`
		Section       string                  `json:"section"`
		Category      models.BadgeCategory    `json:"category" validate:"required,oneof=challenge activity staged core special"`
		Description   string                  `json:"description"`
		BadgeFamilyID *string                 `json:"badge_family_id"`
		StageNumber   *int                    `json:"stage_number"`
		SpecialType   models.SpecialBadgeType `json:"special_type"`
		YearsRequired int                     `json:"years_required"`
		IsCapstone    bool                    `json:"is_capstone"`
		Modules       []moduleReq             `json:"modules"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name is required"})
	}
	for _, m := range req.Modules {
		if m.Rule == models.RuleXOfN && m.RequiredCount < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "required_count must be >= 1 for x_of_n_required modules"})
		}
	}
	if req.Section == "" {
		req.Section = models.SectionAll
	}

	badge := models.BadgeDefinition{
		ID:            uuid.NewString(),
		Slug:          slug.Make(req.Name),
		Name:          titleCaser.String(req.Name),
		Section:       req.Section,
		Category:      req.Category,
		Description:   req.Description,
		BadgeFamilyID: req.BadgeFamilyID,
		StageNumber:   req.StageNumber,
		SpecialType:   req.SpecialType,
		YearsRequired: req.YearsRequired,
		IsCapstone:    req.IsCapstone,
		Active:        true,
	}
	if err := s.Store.Badges.Create(c.Context(), badge); err != nil {
		utils.Error("badge create failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create badge"})
	}

	for _, m := range req.Modules {
		module := models.BadgeModule{
			ID:            uuid.NewString(),
			BadgeID:       badge.ID,
			Name:          m.Name,
			Order:         m.Order,
			Rule:          m.Rule,
			RequiredCount: m.RequiredCount,
		}
		if module.Rule == "" {
			module.Rule = models.RuleAllRequired
		}
		if err := s.Store.Modules.Create(c.Context(), module); err != nil {
			utils.Error("module create failed", "badge_id", badge.ID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create module"})
		}
		for _, r := range m.Requirements {
			completions := r.RequiredCompletions
			if completions < 1 {
				completions = 1
			}
			requirement := models.BadgeRequirement{
				ID:                  uuid.NewString(),
				BadgeID:             badge.ID,
				ModuleID:            module.ID,
				Order:               r.Order,
				Text:                r.Text,
				RequiredCompletions: completions,
				NightsAwayRequired:  r.NightsAwayRequired,
			}
			if err := s.Store.Requirements.Create(c.Context(), requirement); err != nil {
				utils.Error("requirement create failed", "module_id", module.ID, "error", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create requirement"})
			}
		}
	}

	return c.Status(fiber.StatusCreated).JSON(badge)
}

// UpdateBadge applies administrative edits to an existing definition.
func (s *BadgeCatalogService) UpdateBadge(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid badge ID"})
	}

	badge, err := s.Store.Badges.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Badge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Name          *string                  `json:"name"`
		Section       *string                  `json:"section"`
		Description   *string                  `json:"description"`
		SpecialType   *models.SpecialBadgeType `json:"special_type"`
		YearsRequired *int                     `json:"years_required"`
		IsCapstone    *bool                    `json:"is_capstone"`
		Active        *bool                    `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name != nil {
		badge.Name = titleCaser.String(*req.Name)
		badge.Slug = slug.Make(*req.Name)
	}
	if req.Section != nil {
		badge.Section = *req.Section
	}
	if req.Description != nil {
		badge.Description = *req.Description
	}
	if req.SpecialType != nil {
		badge.SpecialType = *req.SpecialType
	}
	if req.YearsRequired != nil {
		badge.YearsRequired = *req.YearsRequired
	}
	if req.IsCapstone != nil {
		badge.IsCapstone = *req.IsCapstone
	}
	if req.Active != nil {
		badge.Active = *req.Active
	}

	if err := s.Store.Badges.Update(c.Context(), badge); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update badge"})
	}
	return c.JSON(badge)
}

// GetBadges lists definitions, filterable by section and category.
func (s *BadgeCatalogService) GetBadges(c *fiber.Ctx) error {
	filter := map[string]any{"active": true}
	if section := c.Query("section"); section != "" {
		filter["section"] = section
	}
	if category := c.Query("category"); category != "" {
		filter["category"] = category
	}

	badges, err := s.Store.Badges.Filter(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list badges"})
	}
	return c.JSON(badges)
}

// GetBadge returns one definition with its full module/requirement tree.
func (s *BadgeCatalogService) GetBadge(c *fiber.Ctx) error {
	id := c.Params("id")

	badge, err := s.Store.Badges.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Badge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	modules, err := s.Store.Modules.Filter(c.Context(), map[string]any{"badge_id": id})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load modules"})
	}
	requirements, err := s.Store.Requirements.Filter(c.Context(), map[string]any{"badge_id": id})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load requirements"})
	}

	type moduleView struct {
		models.BadgeModule
		Requirements []models.BadgeRequirement `json:"requirements"`
	}
	views := make([]moduleView, 0, len(modules))
	for _, module := range modules {
		view := moduleView{BadgeModule: module}
		for _, req := range requirements {
			if req.ModuleID == module.ID {
				view.Requirements = append(view.Requirements, req)
			}
		}
		views = append(views, view)
	}

	return c.JSON(fiber.Map{
		"badge":   badge,
		"modules": views,
	})
}

// SeedTimeBadges creates the time-in-scouting staged family on first boot.
// Idempotent: stages already present are left alone.
func (s *BadgeCatalogService) SeedTimeBadges(ctx context.Context) error {
	familyID := "time-in-scouting"
	for _, stage := range models.TimeBadgeStages {
		name := fmt.Sprintf("time in scouting %d years", stage.Years)
		if stage.Years == 1 {
			name = "time in scouting 1 year"
		}
		stageSlug := slug.Make(name)

		_, found, err := store.First(ctx, s.Store.Badges, map[string]any{"slug": stageSlug})
		if err != nil {
			return err
		}
		if found {
			continue
		}

		stageNumber := stage.Stage
		badge := models.BadgeDefinition{
			ID:            uuid.NewString(),
			Slug:          stageSlug,
			Name:          titleCaser.String(name),
			Section:       models.SectionAll,
			Category:      models.BadgeCategoryStaged,
			BadgeFamilyID: &familyID,
			StageNumber:   &stageNumber,
			SpecialType:   models.SpecialBadgeTimeInScouting,
			YearsRequired: stage.Years,
			Active:        true,
		}
		if err := s.Store.Badges.Create(ctx, badge); err != nil {
			return err
		}
		utils.Info("seeded time badge", "slug", stageSlug, "years", stage.Years)
	}
	return nil
}
