package grade

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/penilaian/core"
)

// schema operations, as reported to the Recorder
const (
	OpAddCategory     = "add_category"
	OpDeleteCategory  = "delete_category"
	OpAddSubAspect    = "add_sub_aspect"
	OpRenameSubAspect = "rename_sub_aspect"
	OpDeleteSubAspect = "delete_sub_aspect"
)

type (
	Repository interface {
		// QueryCategories returns every category with its sub-aspects, both ordered by position.
		QueryCategories(ctx context.Context) ([]Category, error)
		GetCategory(ctx context.Context, code string) (Category, error)
		CreateCategory(ctx context.Context, cat Category) (Category, error)
		// DeleteCategory also deletes its sub-aspects and their scores.
		DeleteCategory(ctx context.Context, id uuid.UUID) error
		CreateSubAspect(ctx context.Context, sa SubAspect) (SubAspect, error)
		UpdateSubAspect(ctx context.Context, sa SubAspect) (SubAspect, error)
		// DeleteSubAspect also deletes its scores.
		DeleteSubAspect(ctx context.Context, id uuid.UUID) error
		// UpsertScore inserts the score or updates the value stored for (UserID, SubAspectID).
		UpsertScore(ctx context.Context, score Score) (Score, error)
		QueryScores(ctx context.Context, userID string) ([]ScoreRow, error)
		SumScores(ctx context.Context, userID string) (int, error)
		UpsertFinalGrade(ctx context.Context, fg FinalGrade) (FinalGrade, error)
		GetFinalGrade(ctx context.Context, userID string) (FinalGrade, error)
		// QueryGradedUsers returns the ids of the users having a final grade.
		QueryGradedUsers(ctx context.Context) ([]string, error)
		// Atomic runs fn against a repository bound to a single transaction.
		// The transaction is rolled back if fn returns an error.
		Atomic(ctx context.Context, fn func(repo Repository) error) error
	}

	// Recorder is notified of successful operations.
	Recorder interface {
		SubmissionRecorded(predicate string)
		SchemaChanged(op string)
	}

	Service interface {
		Structure(ctx context.Context) ([]Category, error)
		AddCategory(ctx context.Context, nc NewCategory) (Category, error)
		DeleteCategory(ctx context.Context, dc DeleteCategory) error
		AddSubAspect(ctx context.Context, ns NewSubAspect) (SubAspect, error)
		RenameSubAspect(ctx context.Context, rs RenameSubAspect) (SubAspect, error)
		DeleteSubAspect(ctx context.Context, ds DeleteSubAspect) error
		Submit(ctx context.Context, userID string, sub Submission) (FinalGrade, error)
		Scores(ctx context.Context, userID string) (Scores, error)
		FinalGrade(ctx context.Context, userID string) (FinalGrade, error)
		Recompute(ctx context.Context, userID string) (FinalGrade, error)
		RecomputeAll(ctx context.Context) (int, error)
		ImportLegacy(ctx context.Context, rows []LegacyRow) (int, error)
	}

	service struct {
		repo   Repository
		logger core.Logger
		rec    Recorder
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, logger core.Logger, rec Recorder) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	if rec == nil {
		rec = nopRecorder{}
	}
	return &service{repo: repo, logger: logger, rec: rec}
}

type nopRecorder struct{}

func (nopRecorder) SubmissionRecorded(string) {}
func (nopRecorder) SchemaChanged(string)      {}

func (svc *service) Structure(ctx context.Context) ([]Category, error) {
	return svc.repo.QueryCategories(ctx)
}

// getCategory looks a category up by title, suggesting a close one when missing.
func (svc *service) getCategory(ctx context.Context, repo Repository, title string) (Category, error) {
	cat, err := repo.GetCategory(ctx, Normalize(title))
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			var hint string
			if cats, qErr := repo.QueryCategories(ctx); qErr == nil {
				titles := make([]string, 0, len(cats))
				for _, c := range cats {
					titles = append(titles, c.Title)
				}
				hint = suggest(title, titles)
			}
			return Category{}, core.NewNotFoundError(errors.Wrap(err, title), hint)
		}
		return Category{}, err
	}
	return cat, nil
}

func (svc *service) getSubAspect(cat Category, name string) (SubAspect, error) {
	if sa, ok := cat.SubAspect(Normalize(name)); ok {
		return sa, nil
	}
	return SubAspect{}, core.NewNotFoundError(
		errors.Wrap(ErrSubAspectNotFound, cat.Title+"/"+name),
		suggest(name, cat.subAspectNames()),
	)
}

func nextCategoryPosition(cats []Category) int {
	var pos int
	for _, c := range cats {
		if c.Position > pos {
			pos = c.Position
		}
	}
	return pos + 1
}

func nextSubAspectPosition(cat Category) int {
	var pos int
	for _, sa := range cat.SubAspects {
		if sa.Position > pos {
			pos = sa.Position
		}
	}
	return pos + 1
}

func newCategory(title string, position int) Category {
	now := time.Now().UTC()
	return Category{
		ID:        uuid.New(),
		Title:     title,
		Code:      Normalize(title),
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newSubAspect(cat Category, name string, position int) SubAspect {
	now := time.Now().UTC()
	return SubAspect{
		ID:         uuid.New(),
		CategoryID: cat.ID,
		Name:       name,
		Code:       Normalize(name),
		Position:   position,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// conflict turns the "already exists" sentinels into a core.ConflictError.
func conflict(err error) error {
	if errors.Is(err, ErrCategoryExists) || errors.Is(err, ErrSubAspectExists) {
		return core.NewConflictError(err)
	}
	return err
}

func (svc *service) AddCategory(ctx context.Context, nc NewCategory) (Category, error) {
	var cat Category
	err := svc.repo.Atomic(ctx, func(repo Repository) error {
		if _, err := repo.GetCategory(ctx, Normalize(nc.ParameterName)); err == nil {
			return core.NewConflictError(ErrCategoryExists)
		} else if !errors.Is(err, ErrCategoryNotFound) {
			return err
		}

		cats, err := repo.QueryCategories(ctx)
		if err != nil {
			return err
		}
		if cat, err = repo.CreateCategory(ctx, newCategory(nc.ParameterName, nextCategoryPosition(cats))); err != nil {
			return conflict(err)
		}

		sa, err := repo.CreateSubAspect(ctx, newSubAspect(cat, DefaultSubAspectName, 1))
		if err != nil {
			return conflict(err)
		}
		cat.SubAspects = []SubAspect{sa}
		return nil
	})
	if err != nil {
		return Category{}, err
	}

	svc.logger.Info(fmt.Sprintf("category %q added", cat.Title))
	svc.rec.SchemaChanged(OpAddCategory)
	return cat, nil
}

func (svc *service) DeleteCategory(ctx context.Context, dc DeleteCategory) error {
	var title string
	err := svc.repo.Atomic(ctx, func(repo Repository) error {
		cat, err := svc.getCategory(ctx, repo, dc.CategoryTitle)
		if err != nil {
			return err
		}
		title = cat.Title

		if err = repo.DeleteCategory(ctx, cat.ID); err != nil {
			return err
		}
		_, err = svc.recomputeAll(ctx, repo)
		return err
	})
	if err != nil {
		return err
	}

	svc.logger.Info(fmt.Sprintf("category %q deleted", title))
	svc.rec.SchemaChanged(OpDeleteCategory)
	return nil
}

func (svc *service) AddSubAspect(ctx context.Context, ns NewSubAspect) (SubAspect, error) {
	var sa SubAspect
	err := svc.repo.Atomic(ctx, func(repo Repository) error {
		cat, err := svc.getCategory(ctx, repo, ns.CategoryTitle)
		if err != nil {
			return err
		}
		if _, ok := cat.SubAspect(Normalize(ns.AspectName)); ok {
			return core.NewConflictError(ErrSubAspectExists)
		}

		sa, err = repo.CreateSubAspect(ctx, newSubAspect(cat, ns.AspectName, nextSubAspectPosition(cat)))
		return conflict(err)
	})
	if err != nil {
		return SubAspect{}, err
	}

	svc.logger.Info(fmt.Sprintf("sub-aspect %q added to %q", sa.Name, ns.CategoryTitle))
	svc.rec.SchemaChanged(OpAddSubAspect)
	return sa, nil
}

// RenameSubAspect renames a sub-aspect in place: its stored values follow it.
func (svc *service) RenameSubAspect(ctx context.Context, rs RenameSubAspect) (SubAspect, error) {
	var sa SubAspect
	err := svc.repo.Atomic(ctx, func(repo Repository) error {
		cat, err := svc.getCategory(ctx, repo, rs.CategoryTitle)
		if err != nil {
			return err
		}
		if sa, err = svc.getSubAspect(cat, rs.OldAspectName); err != nil {
			return err
		}

		newCode := Normalize(rs.NewAspectName)
		if newCode != sa.Code {
			if _, ok := cat.SubAspect(newCode); ok {
				return core.NewConflictError(ErrSubAspectExists)
			}
		}

		sa.Name = rs.NewAspectName
		sa.Code = newCode
		sa.UpdatedAt = time.Now().UTC()
		sa, err = repo.UpdateSubAspect(ctx, sa)
		return conflict(err)
	})
	if err != nil {
		return SubAspect{}, err
	}

	svc.logger.Info(fmt.Sprintf("sub-aspect %q of %q renamed to %q", rs.OldAspectName, rs.CategoryTitle, sa.Name))
	svc.rec.SchemaChanged(OpRenameSubAspect)
	return sa, nil
}

// DeleteSubAspect deletes a sub-aspect and every value stored for it.
func (svc *service) DeleteSubAspect(ctx context.Context, ds DeleteSubAspect) error {
	err := svc.repo.Atomic(ctx, func(repo Repository) error {
		cat, err := svc.getCategory(ctx, repo, ds.CategoryTitle)
		if err != nil {
			return err
		}
		sa, err := svc.getSubAspect(cat, ds.AspectName)
		if err != nil {
			return err
		}
		if len(cat.SubAspects) == 1 {
			return core.NewValidationError(ErrLastSubAspect, core.FieldError{
				Field: "aspectName",
				Error: ErrLastSubAspect.Error(),
			})
		}

		if err = repo.DeleteSubAspect(ctx, sa.ID); err != nil {
			return err
		}
		_, err = svc.recomputeAll(ctx, repo)
		return err
	})
	if err != nil {
		return err
	}

	svc.logger.Info(fmt.Sprintf("sub-aspect %q deleted from %q", ds.AspectName, ds.CategoryTitle))
	svc.rec.SchemaChanged(OpDeleteSubAspect)
	return nil
}

// Submit stores the submitted scores of a user and recomputes their final grade, all or nothing.
// Unknown categories and sub-aspects are created. A submitted category that already exists must
// carry a value for each of its sub-aspects.
func (svc *service) Submit(ctx context.Context, userID string, sub Submission) (FinalGrade, error) {
	var fg FinalGrade
	err := svc.repo.Atomic(ctx, func(repo Repository) error {
		cats, err := repo.QueryCategories(ctx)
		if err != nil {
			return err
		}
		byCode := make(map[string]Category, len(cats))
		for _, c := range cats {
			byCode[c.Code] = c
		}

		if err = checkComplete(sub.Scores, byCode); err != nil {
			return err
		}

		nextPos := nextCategoryPosition(cats)
		now := time.Now().UTC()
		for _, title := range sub.Scores.categories() {
			cat, ok := byCode[Normalize(title)]
			if !ok {
				if cat, err = repo.CreateCategory(ctx, newCategory(title, nextPos)); err != nil {
					return conflict(err)
				}
				nextPos++
			}

			values := sub.Scores[title]
			for _, name := range sortedKeys(values) {
				sa, ok := cat.SubAspect(Normalize(name))
				if !ok {
					if sa, err = repo.CreateSubAspect(ctx, newSubAspect(cat, name, nextSubAspectPosition(cat))); err != nil {
						return conflict(err)
					}
					cat.SubAspects = append(cat.SubAspects, sa)
				}

				score := Score{
					ID:          uuid.New(),
					UserID:      userID,
					SubAspectID: sa.ID,
					Value:       values[name],
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if _, err = repo.UpsertScore(ctx, score); err != nil {
					return err
				}
			}
		}

		fg, err = svc.recompute(ctx, repo, userID)
		return err
	})
	if err != nil {
		return FinalGrade{}, err
	}

	svc.logger.Info(
		fmt.Sprintf("grades submitted (%s): final score %d, predicate %s", sub.Parameter, fg.FinalScore, fg.Predicate),
		core.UserID(userID),
	)
	svc.rec.SubmissionRecorded(fg.Predicate)
	return fg, nil
}

// checkComplete reports the known sub-aspects missing from the submitted categories.
func checkComplete(scores Scores, byCode map[string]Category) error {
	var flds []core.FieldError
	for _, title := range scores.categories() {
		cat, ok := byCode[Normalize(title)]
		if !ok {
			continue
		}
		submitted := make(map[string]bool, len(scores[title]))
		for name := range scores[title] {
			submitted[Normalize(name)] = true
		}
		for _, sa := range cat.SubAspects {
			if !submitted[sa.Code] {
				flds = append(flds, core.FieldError{
					Field: "data." + title + "." + sa.Name,
					Error: "this field is required",
				})
			}
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(errInvalidSubmission, flds...)
	}
	return nil
}

func (svc *service) Scores(ctx context.Context, userID string) (Scores, error) {
	rows, err := svc.repo.QueryScores(ctx, userID)
	if err != nil {
		return nil, err
	}
	scores := make(Scores)
	for _, row := range rows {
		scores.add(row.CategoryTitle, row.SubAspectName, row.Value)
	}
	return scores, nil
}

func (svc *service) FinalGrade(ctx context.Context, userID string) (FinalGrade, error) {
	fg, err := svc.repo.GetFinalGrade(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrFinalGradeNotFound) {
			return FinalGrade{}, core.NewNotFoundError(err)
		}
		return FinalGrade{}, err
	}
	return fg, nil
}

// recompute derives the final grade of a user from all their stored scores.
func (svc *service) recompute(ctx context.Context, repo Repository, userID string) (FinalGrade, error) {
	total, err := repo.SumScores(ctx, userID)
	if err != nil {
		return FinalGrade{}, err
	}
	score, predicate := Calculate(total)

	now := time.Now().UTC()
	return repo.UpsertFinalGrade(ctx, FinalGrade{
		ID:         uuid.New(),
		UserID:     userID,
		FinalScore: score,
		Predicate:  predicate,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (svc *service) recomputeAll(ctx context.Context, repo Repository) (int, error) {
	users, err := repo.QueryGradedUsers(ctx)
	if err != nil {
		return 0, err
	}
	for _, userID := range users {
		if _, err = svc.recompute(ctx, repo, userID); err != nil {
			return 0, errors.Wrapf(err, "recomputing %s", userID)
		}
	}
	return len(users), nil
}

func (svc *service) Recompute(ctx context.Context, userID string) (FinalGrade, error) {
	var fg FinalGrade
	err := svc.repo.Atomic(ctx, func(repo Repository) (err error) {
		fg, err = svc.recompute(ctx, repo, userID)
		return err
	})
	if err != nil {
		return FinalGrade{}, err
	}
	return fg, nil
}

// RecomputeAll recomputes the final grade of every graded user and returns how many were updated.
func (svc *service) RecomputeAll(ctx context.Context) (int, error) {
	var count int
	err := svc.repo.Atomic(ctx, func(repo Repository) (err error) {
		count, err = svc.recomputeAll(ctx, repo)
		return err
	})
	if err != nil {
		return 0, err
	}
	svc.logger.Info(fmt.Sprintf("%d final grades recomputed", count))
	return count, nil
}

// ImportLegacy stores rows read from the per-category tables, creating the categories and
// sub-aspects they name, then recomputes the imported users. It returns the number of users.
func (svc *service) ImportLegacy(ctx context.Context, rows []LegacyRow) (int, error) {
	users := make(map[string]bool)
	err := svc.repo.Atomic(ctx, func(repo Repository) error {
		cats, err := repo.QueryCategories(ctx)
		if err != nil {
			return err
		}
		byCode := make(map[string]Category, len(cats))
		for _, c := range cats {
			byCode[c.Code] = c
		}
		nextPos := nextCategoryPosition(cats)
		now := time.Now().UTC()

		for _, row := range rows {
			code := Normalize(row.CategoryTitle)
			cat, ok := byCode[code]
			if !ok {
				if cat, err = repo.CreateCategory(ctx, newCategory(row.CategoryTitle, nextPos)); err != nil {
					return conflict(err)
				}
				nextPos++
			}

			for _, col := range sortedKeys(row.Values) {
				sa, ok := cat.SubAspect(Normalize(col))
				if !ok {
					if sa, err = repo.CreateSubAspect(ctx, newSubAspect(cat, col, nextSubAspectPosition(cat))); err != nil {
						return conflict(err)
					}
					cat.SubAspects = append(cat.SubAspects, sa)
				}
				score := Score{
					ID:          uuid.New(),
					UserID:      row.UserID,
					SubAspectID: sa.ID,
					Value:       row.Values[col],
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if _, err = repo.UpsertScore(ctx, score); err != nil {
					return errors.Wrapf(err, "importing %s/%s of %s", row.CategoryTitle, col, row.UserID)
				}
			}
			byCode[code] = cat
			users[row.UserID] = true
		}

		ids := make([]string, 0, len(users))
		for id := range users {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if _, err = svc.recompute(ctx, repo, id); err != nil {
				return errors.Wrapf(err, "recomputing %s", id)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	svc.logger.Info(fmt.Sprintf("%d legacy rows imported for %d users", len(rows), len(users)))
	return len(users), nil
}
