package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/penilaian/core/grade"
)

type gradeRepository struct {
	db *DB
	tx *tables // set inside Atomic, where the write lock is already held
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) read(fn func(t *tables) error) error {
	if repo.tx != nil {
		return fn(repo.tx)
	}
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return fn(repo.db.tables)
}

func (repo *gradeRepository) write(fn func(t *tables) error) error {
	if repo.tx != nil {
		return fn(repo.tx)
	}
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	return fn(repo.db.tables)
}

// Atomic runs fn against a copy of the tables, swapped in only when fn succeeds.
func (repo *gradeRepository) Atomic(_ context.Context, fn func(repo grade.Repository) error) error {
	if repo.tx != nil {
		return fn(repo)
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	tx := repo.db.tables.clone()
	if err := fn(&gradeRepository{db: repo.db, tx: tx}); err != nil {
		return err
	}
	repo.db.tables = tx
	return nil
}

func (t *tables) subAspectsOf(catID uuid.UUID) []grade.SubAspect {
	subs := make([]grade.SubAspect, 0)
	for _, sa := range t.subAspects {
		if sa.CategoryID == catID {
			subs = append(subs, sa)
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].Position == subs[j].Position {
			return subs[i].Name < subs[j].Name
		}
		return subs[i].Position < subs[j].Position
	})
	return subs
}

func (t *tables) withSubAspects(cat grade.Category) grade.Category {
	cat.SubAspects = t.subAspectsOf(cat.ID)
	return cat
}

func (t *tables) categoryByCode(code string) (grade.Category, bool) {
	for _, cat := range t.categories {
		if cat.Code == code {
			return cat, true
		}
	}
	return grade.Category{}, false
}

func (t *tables) deleteScoresOf(subAspectID uuid.UUID) {
	for id, s := range t.scores {
		if s.SubAspectID == subAspectID {
			delete(t.scores, id)
		}
	}
}

func (repo *gradeRepository) QueryCategories(_ context.Context) ([]grade.Category, error) {
	var cats []grade.Category
	err := repo.read(func(t *tables) error {
		cats = make([]grade.Category, 0, len(t.categories))
		for _, cat := range t.categories {
			cats = append(cats, t.withSubAspects(cat))
		}
		return nil
	})
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Position == cats[j].Position {
			return cats[i].Title < cats[j].Title
		}
		return cats[i].Position < cats[j].Position
	})
	return cats, err
}

func (repo *gradeRepository) GetCategory(_ context.Context, code string) (grade.Category, error) {
	var cat grade.Category
	err := repo.read(func(t *tables) error {
		c, ok := t.categoryByCode(code)
		if !ok {
			return grade.ErrCategoryNotFound
		}
		cat = t.withSubAspects(c)
		return nil
	})
	return cat, err
}

func (repo *gradeRepository) CreateCategory(_ context.Context, cat grade.Category) (grade.Category, error) {
	err := repo.write(func(t *tables) error {
		if _, ok := t.categoryByCode(cat.Code); ok {
			return grade.ErrCategoryExists
		}
		cat.SubAspects = nil
		t.categories[cat.ID] = cat
		return nil
	})
	if err != nil {
		return grade.Category{}, err
	}
	return cat, nil
}

func (repo *gradeRepository) DeleteCategory(_ context.Context, id uuid.UUID) error {
	return repo.write(func(t *tables) error {
		if _, ok := t.categories[id]; !ok {
			return grade.ErrCategoryNotFound
		}
		for _, sa := range t.subAspectsOf(id) {
			t.deleteScoresOf(sa.ID)
			delete(t.subAspects, sa.ID)
		}
		delete(t.categories, id)
		return nil
	})
}

func (repo *gradeRepository) CreateSubAspect(_ context.Context, sa grade.SubAspect) (grade.SubAspect, error) {
	err := repo.write(func(t *tables) error {
		if _, ok := t.categories[sa.CategoryID]; !ok {
			return grade.ErrCategoryNotFound
		}
		for _, other := range t.subAspectsOf(sa.CategoryID) {
			if other.Code == sa.Code {
				return grade.ErrSubAspectExists
			}
		}
		t.subAspects[sa.ID] = sa
		return nil
	})
	if err != nil {
		return grade.SubAspect{}, err
	}
	return sa, nil
}

func (repo *gradeRepository) UpdateSubAspect(_ context.Context, sa grade.SubAspect) (grade.SubAspect, error) {
	err := repo.write(func(t *tables) error {
		orig, ok := t.subAspects[sa.ID]
		if !ok {
			return grade.ErrSubAspectNotFound
		}
		for _, other := range t.subAspectsOf(orig.CategoryID) {
			if other.ID != sa.ID && other.Code == sa.Code {
				return grade.ErrSubAspectExists
			}
		}
		orig.Name = sa.Name
		orig.Code = sa.Code
		orig.UpdatedAt = sa.UpdatedAt
		t.subAspects[sa.ID] = orig
		sa = orig
		return nil
	})
	if err != nil {
		return grade.SubAspect{}, err
	}
	return sa, nil
}

func (repo *gradeRepository) DeleteSubAspect(_ context.Context, id uuid.UUID) error {
	return repo.write(func(t *tables) error {
		if _, ok := t.subAspects[id]; !ok {
			return grade.ErrSubAspectNotFound
		}
		t.deleteScoresOf(id)
		delete(t.subAspects, id)
		return nil
	})
}

func (repo *gradeRepository) UpsertScore(_ context.Context, score grade.Score) (grade.Score, error) {
	err := repo.write(func(t *tables) error {
		if _, ok := t.subAspects[score.SubAspectID]; !ok {
			return grade.ErrSubAspectNotFound
		}
		for id, s := range t.scores {
			if s.UserID == score.UserID && s.SubAspectID == score.SubAspectID {
				s.Value = score.Value
				s.UpdatedAt = score.UpdatedAt
				t.scores[id] = s
				score = s
				return nil
			}
		}
		t.scores[score.ID] = score
		return nil
	})
	if err != nil {
		return grade.Score{}, err
	}
	return score, nil
}

func (repo *gradeRepository) QueryScores(_ context.Context, userID string) ([]grade.ScoreRow, error) {
	type sortableRow struct {
		grade.ScoreRow
		catPos, subPos int
	}

	var rows []sortableRow
	err := repo.read(func(t *tables) error {
		for _, s := range t.scores {
			if s.UserID != userID {
				continue
			}
			sa := t.subAspects[s.SubAspectID]
			cat := t.categories[sa.CategoryID]
			rows = append(rows, sortableRow{
				ScoreRow: grade.ScoreRow{CategoryTitle: cat.Title, SubAspectName: sa.Name, Value: s.Value},
				catPos:   cat.Position,
				subPos:   sa.Position,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].catPos != rows[j].catPos {
			return rows[i].catPos < rows[j].catPos
		}
		return rows[i].subPos < rows[j].subPos
	})
	result := make([]grade.ScoreRow, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.ScoreRow)
	}
	return result, nil
}

func (repo *gradeRepository) SumScores(_ context.Context, userID string) (int, error) {
	var total int
	err := repo.read(func(t *tables) error {
		for _, s := range t.scores {
			if s.UserID == userID {
				total += s.Value
			}
		}
		return nil
	})
	return total, err
}

func (repo *gradeRepository) UpsertFinalGrade(_ context.Context, fg grade.FinalGrade) (grade.FinalGrade, error) {
	err := repo.write(func(t *tables) error {
		if orig, ok := t.finals[fg.UserID]; ok {
			fg.ID = orig.ID
			fg.CreatedAt = orig.CreatedAt
		}
		t.finals[fg.UserID] = fg
		return nil
	})
	return fg, err
}

func (repo *gradeRepository) GetFinalGrade(_ context.Context, userID string) (grade.FinalGrade, error) {
	var fg grade.FinalGrade
	err := repo.read(func(t *tables) error {
		f, ok := t.finals[userID]
		if !ok {
			return grade.ErrFinalGradeNotFound
		}
		fg = f
		return nil
	})
	return fg, err
}

func (repo *gradeRepository) QueryGradedUsers(_ context.Context) ([]string, error) {
	var users []string
	err := repo.read(func(t *tables) error {
		users = make([]string, 0, len(t.finals))
		for id := range t.finals {
			users = append(users, id)
		}
		return nil
	})
	sort.Strings(users)
	return users, err
}
