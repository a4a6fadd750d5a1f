package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/penilaian/core/grade"
)

// postgres error codes
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

type (
	categoryRow struct {
		ID        uuid.UUID `db:"id"`
		Title     string    `db:"nama"`
		Code      string    `db:"kode"`
		Position  int       `db:"urutan"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	subAspectRow struct {
		ID         uuid.UUID `db:"id"`
		CategoryID uuid.UUID `db:"parameter_id"`
		Name       string    `db:"nama"`
		Code       string    `db:"kode"`
		Position   int       `db:"urutan"`
		CreatedAt  time.Time `db:"created_at"`
		UpdatedAt  time.Time `db:"updated_at"`
	}

	scoreRow struct {
		ID          uuid.UUID `db:"id"`
		UserID      string    `db:"user_id"`
		SubAspectID uuid.UUID `db:"sub_aspek_id"`
		Value       int       `db:"sub_aspek_nilai"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	labeledScoreRow struct {
		CategoryTitle string `db:"category_title"`
		SubAspectName string `db:"sub_aspect_name"`
		Value         int    `db:"value"`
	}

	finalGradeRow struct {
		ID         uuid.UUID `db:"id"`
		UserID     string    `db:"user_id"`
		FinalScore int       `db:"nilai_akhir"`
		Predicate  string    `db:"predikat"`
		CreatedAt  time.Time `db:"created_at"`
		UpdatedAt  time.Time `db:"updated_at"`
	}
)

func (r categoryRow) toCategory(subs []subAspectRow) grade.Category {
	cat := grade.Category{
		ID:         r.ID,
		Title:      r.Title,
		Code:       r.Code,
		Position:   r.Position,
		SubAspects: make([]grade.SubAspect, 0, len(subs)),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
	for _, sr := range subs {
		cat.SubAspects = append(cat.SubAspects, sr.toSubAspect())
	}
	return cat
}

func (r subAspectRow) toSubAspect() grade.SubAspect {
	return grade.SubAspect{
		ID:         r.ID,
		CategoryID: r.CategoryID,
		Name:       r.Name,
		Code:       r.Code,
		Position:   r.Position,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

func (r scoreRow) toScore() grade.Score {
	return grade.Score{
		ID:          r.ID,
		UserID:      r.UserID,
		SubAspectID: r.SubAspectID,
		Value:       r.Value,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func (r finalGradeRow) toFinalGrade() grade.FinalGrade {
	return grade.FinalGrade{
		ID:         r.ID,
		UserID:     r.UserID,
		FinalScore: r.FinalScore,
		Predicate:  r.Predicate,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

const (
	categoryColumns   = "id, nama, kode, urutan, created_at, updated_at"
	subAspectColumns  = "id, parameter_id, nama, kode, urutan, created_at, updated_at"
	scoreColumns      = "id, user_id, sub_aspek_id, sub_aspek_nilai, created_at, updated_at"
	finalGradeColumns = "id, user_id, nilai_akhir, predikat, created_at, updated_at"
)

type gradeRepository struct {
	db   *sqlx.DB // nil when bound to a transaction
	exec sqlx.ExtContext
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *sqlx.DB) grade.Repository {
	return &gradeRepository{db: db, exec: db}
}

func isPqError(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

func (repo *gradeRepository) Atomic(ctx context.Context, fn func(repo grade.Repository) error) error {
	if repo.db == nil {
		return fn(repo)
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(&gradeRepository{exec: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back transaction: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo *gradeRepository) subAspectsByCategory(ctx context.Context, where string, args ...interface{}) (map[uuid.UUID][]subAspectRow, error) {
	var rows []subAspectRow
	q := "SELECT " + subAspectColumns + " FROM sub_aspek " + where + " ORDER BY urutan, nama"
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting sub-aspects")
	}
	byCat := make(map[uuid.UUID][]subAspectRow)
	for _, r := range rows {
		byCat[r.CategoryID] = append(byCat[r.CategoryID], r)
	}
	return byCat, nil
}

func (repo *gradeRepository) QueryCategories(ctx context.Context) ([]grade.Category, error) {
	var rows []categoryRow
	q := "SELECT " + categoryColumns + " FROM parameter_penilaian ORDER BY urutan, nama"
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting categories")
	}
	subs, err := repo.subAspectsByCategory(ctx, "")
	if err != nil {
		return nil, err
	}

	cats := make([]grade.Category, 0, len(rows))
	for _, r := range rows {
		cats = append(cats, r.toCategory(subs[r.ID]))
	}
	return cats, nil
}

func (repo *gradeRepository) GetCategory(ctx context.Context, code string) (grade.Category, error) {
	var row categoryRow
	q := "SELECT " + categoryColumns + " FROM parameter_penilaian WHERE kode = $1"
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return grade.Category{}, grade.ErrCategoryNotFound
		}
		return grade.Category{}, errors.Wrap(err, "selecting category")
	}
	subs, err := repo.subAspectsByCategory(ctx, "WHERE parameter_id = $1", row.ID)
	if err != nil {
		return grade.Category{}, err
	}
	return row.toCategory(subs[row.ID]), nil
}

func (repo *gradeRepository) CreateCategory(ctx context.Context, cat grade.Category) (grade.Category, error) {
	var row categoryRow
	q := `INSERT INTO parameter_penilaian (` + categoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + categoryColumns
	err := sqlx.GetContext(ctx, repo.exec, &row, q, cat.ID, cat.Title, cat.Code, cat.Position, cat.CreatedAt, cat.UpdatedAt)
	if err != nil {
		if isPqError(err, uniqueViolation) {
			return grade.Category{}, grade.ErrCategoryExists
		}
		return grade.Category{}, errors.Wrap(err, "inserting category")
	}
	return row.toCategory(nil), nil
}

func (repo *gradeRepository) delete(ctx context.Context, table string, id uuid.UUID, notFound error) error {
	res, err := repo.exec.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// DeleteCategory relies on ON DELETE CASCADE for sub-aspects and scores.
func (repo *gradeRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return repo.delete(ctx, "parameter_penilaian", id, grade.ErrCategoryNotFound)
}

func (repo *gradeRepository) CreateSubAspect(ctx context.Context, sa grade.SubAspect) (grade.SubAspect, error) {
	var row subAspectRow
	q := `INSERT INTO sub_aspek (` + subAspectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + subAspectColumns
	err := sqlx.GetContext(ctx, repo.exec, &row, q, sa.ID, sa.CategoryID, sa.Name, sa.Code, sa.Position, sa.CreatedAt, sa.UpdatedAt)
	if err != nil {
		switch {
		case isPqError(err, uniqueViolation):
			return grade.SubAspect{}, grade.ErrSubAspectExists
		case isPqError(err, foreignKeyViolation):
			return grade.SubAspect{}, grade.ErrCategoryNotFound
		}
		return grade.SubAspect{}, errors.Wrap(err, "inserting sub-aspect")
	}
	return row.toSubAspect(), nil
}

func (repo *gradeRepository) UpdateSubAspect(ctx context.Context, sa grade.SubAspect) (grade.SubAspect, error) {
	var row subAspectRow
	q := `UPDATE sub_aspek SET nama = $2, kode = $3, updated_at = $4
		WHERE id = $1
		RETURNING ` + subAspectColumns
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, sa.ID, sa.Name, sa.Code, sa.UpdatedAt); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return grade.SubAspect{}, grade.ErrSubAspectNotFound
		case isPqError(err, uniqueViolation):
			return grade.SubAspect{}, grade.ErrSubAspectExists
		}
		return grade.SubAspect{}, errors.Wrap(err, "updating sub-aspect")
	}
	return row.toSubAspect(), nil
}

// DeleteSubAspect relies on ON DELETE CASCADE for scores.
func (repo *gradeRepository) DeleteSubAspect(ctx context.Context, id uuid.UUID) error {
	return repo.delete(ctx, "sub_aspek", id, grade.ErrSubAspectNotFound)
}

func (repo *gradeRepository) UpsertScore(ctx context.Context, score grade.Score) (grade.Score, error) {
	var row scoreRow
	q := `INSERT INTO penilaian (` + scoreColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, sub_aspek_id) DO UPDATE
		SET sub_aspek_nilai = EXCLUDED.sub_aspek_nilai, updated_at = EXCLUDED.updated_at
		RETURNING ` + scoreColumns
	err := sqlx.GetContext(ctx, repo.exec, &row, q,
		score.ID, score.UserID, score.SubAspectID, score.Value, score.CreatedAt, score.UpdatedAt)
	if err != nil {
		if isPqError(err, foreignKeyViolation) {
			return grade.Score{}, grade.ErrSubAspectNotFound
		}
		return grade.Score{}, errors.Wrap(err, "upserting score")
	}
	return row.toScore(), nil
}

func (repo *gradeRepository) QueryScores(ctx context.Context, userID string) ([]grade.ScoreRow, error) {
	var rows []labeledScoreRow
	q := `SELECT p.nama AS category_title, s.nama AS sub_aspect_name, n.sub_aspek_nilai AS value
		FROM penilaian n
		JOIN sub_aspek s ON s.id = n.sub_aspek_id
		JOIN parameter_penilaian p ON p.id = s.parameter_id
		WHERE n.user_id = $1
		ORDER BY p.urutan, p.nama, s.urutan, s.nama`
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "selecting scores")
	}

	scores := make([]grade.ScoreRow, 0, len(rows))
	for _, r := range rows {
		scores = append(scores, grade.ScoreRow{CategoryTitle: r.CategoryTitle, SubAspectName: r.SubAspectName, Value: r.Value})
	}
	return scores, nil
}

// SumScores returns 0 for a user without scores.
func (repo *gradeRepository) SumScores(ctx context.Context, userID string) (int, error) {
	var total null.Int64
	q := "SELECT SUM(sub_aspek_nilai) FROM penilaian WHERE user_id = $1"
	if err := sqlx.GetContext(ctx, repo.exec, &total, q, userID); err != nil {
		return 0, errors.Wrap(err, "summing scores")
	}
	return int(total.Int64), nil
}

func (repo *gradeRepository) UpsertFinalGrade(ctx context.Context, fg grade.FinalGrade) (grade.FinalGrade, error) {
	var row finalGradeRow
	q := `INSERT INTO nilai_akhir (` + finalGradeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET nilai_akhir = EXCLUDED.nilai_akhir, predikat = EXCLUDED.predikat, updated_at = EXCLUDED.updated_at
		RETURNING ` + finalGradeColumns
	err := sqlx.GetContext(ctx, repo.exec, &row, q,
		fg.ID, fg.UserID, fg.FinalScore, fg.Predicate, fg.CreatedAt, fg.UpdatedAt)
	if err != nil {
		return grade.FinalGrade{}, errors.Wrap(err, "upserting final grade")
	}
	return row.toFinalGrade(), nil
}

func (repo *gradeRepository) GetFinalGrade(ctx context.Context, userID string) (grade.FinalGrade, error) {
	var row finalGradeRow
	q := "SELECT " + finalGradeColumns + " FROM nilai_akhir WHERE user_id = $1"
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return grade.FinalGrade{}, grade.ErrFinalGradeNotFound
		}
		return grade.FinalGrade{}, errors.Wrap(err, "selecting final grade")
	}
	return row.toFinalGrade(), nil
}

func (repo *gradeRepository) QueryGradedUsers(ctx context.Context) ([]string, error) {
	var users []string
	if err := sqlx.SelectContext(ctx, repo.exec, &users, "SELECT user_id FROM nilai_akhir ORDER BY user_id"); err != nil {
		return nil, errors.Wrap(err, "selecting graded users")
	}
	return users, nil
}
