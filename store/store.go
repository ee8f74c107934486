// Package store is the record-store boundary: every entity type is exposed as
// a collection supporting filter-by-exact-match-fields, create, update and
// delete. There are no multi-record transactions and no upsert primitive;
// callers implement upsert as filter-then-create-or-update and must tolerate
// at-least-once re-invocation.
package store

import (
	"context"

	"scout-admin-system/models"
)

// Entity is anything the store can hold. IDs are assigned by the caller
// before Create (uuid strings everywhere).
type Entity interface {
	GetID() string
}

// Collection is the per-entity contract. Filter keys are column names
// (snake_case), values are compared for exact equality. Delete is permanent:
// creating a record that reuses the deleted record's unique keys must succeed,
// since the ledger and award flows delete and recreate the same pair.
type Collection[T Entity] interface {
	Filter(ctx context.Context, fields map[string]any) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, rec T) error
	Update(ctx context.Context, rec T) error
	Delete(ctx context.Context, id string) error
}

// Store bundles one collection per entity type the engine touches.
type Store struct {
	Badges       Collection[models.BadgeDefinition]
	Modules      Collection[models.BadgeModule]
	Requirements Collection[models.BadgeRequirement]

	RequirementProgress Collection[models.MemberRequirementProgress]
	BadgeProgress       Collection[models.MemberBadgeProgress]
	Awards              Collection[models.MemberBadgeAward]

	Members        Collection[models.Member]
	NightsAwayLogs Collection[models.NightsAwayLog]

	Programmes Collection[models.Programme]
	Events     Collection[models.Event]
	Attendance Collection[models.Attendance]
	BadgeLinks Collection[models.BadgeLink]
}

// First returns one record matching the filter and whether any matched.
// Upsert flows use it as the "filter" half of filter-then-create-or-update.
func First[T Entity](ctx context.Context, c Collection[T], fields map[string]any) (T, bool, error) {
	var zero T
	recs, err := c.Filter(ctx, fields)
	if err != nil {
		return zero, false, err
	}
	if len(recs) == 0 {
		return zero, false, nil
	}
	return recs[0], true, nil
}
