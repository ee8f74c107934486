package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"scout-admin-system/apperrors"
	"scout-admin-system/models"
)

// memoryCollection keeps records in a mutex-guarded map. It exists for tests
// and favors clarity over performance; filter semantics mirror the GORM
// collection (exact match on column names).
type memoryCollection[T Entity] struct {
	mu   sync.RWMutex
	recs map[string]T
}

func newMemoryCollection[T Entity]() *memoryCollection[T] {
	return &memoryCollection[T]{recs: make(map[string]T)}
}

func (c *memoryCollection[T]) Filter(_ context.Context, fields map[string]any) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []T
	for _, rec := range c.recs {
		if matchesFields(rec, fields) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (c *memoryCollection[T]) Get(_ context.Context, id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if rec, ok := c.recs[id]; ok {
		return rec, nil
	}
	var zero T
	return zero, apperrors.ErrNotFound
}

func (c *memoryCollection[T]) Create(_ context.Context, rec T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec.GetID() == "" {
		return apperrors.New(apperrors.ErrCodeValidation, "record has no id")
	}
	c.recs[rec.GetID()] = rec
	return nil
}

func (c *memoryCollection[T]) Update(_ context.Context, rec T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.recs[rec.GetID()]; !ok {
		return apperrors.ErrNotFound
	}
	c.recs[rec.GetID()] = rec
	return nil
}

func (c *memoryCollection[T]) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.recs, id)
	return nil
}

// matchesFields compares filter values against struct fields by column name,
// walking embedded structs and dereferencing pointers. Values compare by
// their printed form, which is exact for the id/string/int/bool fields the
// engine filters on.
func matchesFields(rec any, fields map[string]any) bool {
	for key, want := range fields {
		got, ok := fieldByColumn(reflect.ValueOf(rec), key)
		if !ok {
			return false
		}
		if got.Kind() == reflect.Ptr {
			if got.IsNil() {
				if want == nil {
					continue
				}
				return false
			}
			got = got.Elem()
		}
		if fmt.Sprint(got.Interface()) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func fieldByColumn(v reflect.Value, column string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			if sub, ok := fieldByColumn(v.Field(i), column); ok {
				return sub, true
			}
			continue
		}
		if columnName(f) == column {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func columnName(f reflect.StructField) string {
	for _, part := range strings.Split(f.Tag.Get("gorm"), ";") {
		if name, ok := strings.CutPrefix(part, "column:"); ok {
			return name
		}
	}
	return toSnake(f.Name)
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(name[i-1] >= 'A' && name[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NewMemoryStore returns a fully in-memory store, used by the unit tests.
func NewMemoryStore() *Store {
	return &Store{
		Badges:       newMemoryCollection[models.BadgeDefinition](),
		Modules:      newMemoryCollection[models.BadgeModule](),
		Requirements: newMemoryCollection[models.BadgeRequirement](),

		RequirementProgress: newMemoryCollection[models.MemberRequirementProgress](),
		BadgeProgress:       newMemoryCollection[models.MemberBadgeProgress](),
		Awards:              newMemoryCollection[models.MemberBadgeAward](),

		Members:        newMemoryCollection[models.Member](),
		NightsAwayLogs: newMemoryCollection[models.NightsAwayLog](),

		Programmes: newMemoryCollection[models.Programme](),
		Events:     newMemoryCollection[models.Event](),
		Attendance: newMemoryCollection[models.Attendance](),
		BadgeLinks: newMemoryCollection[models.BadgeLink](),
	}
}
