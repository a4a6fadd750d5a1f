package inmemdb

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/penilaian/core/grade"
)

type (
	DB struct {
		mutex  sync.RWMutex
		tables *tables
	}

	tables struct {
		categories map[uuid.UUID]grade.Category // SubAspects left empty
		subAspects map[uuid.UUID]grade.SubAspect
		scores     map[uuid.UUID]grade.Score
		finals     map[string]grade.FinalGrade // by user id
	}
)

// Open returns an in-memory database seeded with the default categories.
func Open() (*DB, error) {
	t := newTables()
	now := time.Now().UTC()
	for i, title := range grade.DefaultCategories() {
		cat := grade.Category{
			ID:        uuid.New(),
			Title:     title,
			Code:      grade.Normalize(title),
			Position:  i + 1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		t.categories[cat.ID] = cat

		sa := grade.SubAspect{
			ID:         uuid.New(),
			CategoryID: cat.ID,
			Name:       grade.DefaultSubAspectName,
			Code:       grade.Normalize(grade.DefaultSubAspectName),
			Position:   1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		t.subAspects[sa.ID] = sa
	}
	return &DB{tables: t}, nil
}

func newTables() *tables {
	return &tables{
		categories: make(map[uuid.UUID]grade.Category),
		subAspects: make(map[uuid.UUID]grade.SubAspect),
		scores:     make(map[uuid.UUID]grade.Score),
		finals:     make(map[string]grade.FinalGrade),
	}
}

func (t *tables) clone() *tables {
	c := &tables{
		categories: make(map[uuid.UUID]grade.Category, len(t.categories)),
		subAspects: make(map[uuid.UUID]grade.SubAspect, len(t.subAspects)),
		scores:     make(map[uuid.UUID]grade.Score, len(t.scores)),
		finals:     make(map[string]grade.FinalGrade, len(t.finals)),
	}
	for k, v := range t.categories {
		c.categories[k] = v
	}
	for k, v := range t.subAspects {
		c.subAspects[k] = v
	}
	for k, v := range t.scores {
		c.scores[k] = v
	}
	for k, v := range t.finals {
		c.finals[k] = v
	}
	return c
}
