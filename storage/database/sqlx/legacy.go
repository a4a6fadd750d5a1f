package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/penilaian/core/grade"
)

// LegacyReader reads the scores of the per-category tables used before the unified model:
// one table per category, one integer column per sub-aspect and one row per user.
type LegacyReader struct {
	db sqlx.QueryerContext
}

func NewLegacyReader(db *sqlx.DB) *LegacyReader {
	return &LegacyReader{db: db}
}

// ReadLegacyScores returns a row per user and category, skipping the tables that do not exist
// and the NULL values.
func (r *LegacyReader) ReadLegacyScores(ctx context.Context) ([]grade.LegacyRow, error) {
	var result []grade.LegacyRow
	for _, title := range grade.DefaultCategories() {
		table, _ := grade.TableFor(title)

		cols, err := r.scoreColumns(ctx, table)
		if err != nil {
			return nil, err
		}
		if len(cols) == 0 { // missing table or no sub-aspect
			continue
		}

		rows, err := r.readTable(ctx, title, table, cols)
		if err != nil {
			return nil, err
		}
		result = append(result, rows...)
	}
	return result, nil
}

// scoreColumns lists the integer columns of table, in table order.
func (r *LegacyReader) scoreColumns(ctx context.Context, table string) ([]string, error) {
	var cols []string
	q := `SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema()
		AND table_name = $1
		AND data_type IN ('smallint', 'integer', 'bigint')
		AND column_name NOT IN ('id', 'user_id', 'created_at', 'updated_at')
		ORDER BY ordinal_position`
	if err := sqlx.SelectContext(ctx, r.db, &cols, q, table); err != nil {
		return nil, errors.Wrapf(err, "listing columns of %s", table)
	}
	return cols, nil
}

func (r *LegacyReader) readTable(ctx context.Context, title, table string, cols []string) ([]grade.LegacyRow, error) {
	quoted := make([]string, 0, len(cols))
	for _, col := range cols {
		quoted = append(quoted, grade.Quote(col))
	}
	q := fmt.Sprintf("SELECT user_id, %s FROM %s ORDER BY user_id", strings.Join(quoted, ", "), grade.Quote(table))

	rows, err := r.db.QueryxContext(ctx, q)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", table)
	}
	defer func() { _ = rows.Close() }()

	var result []grade.LegacyRow
	for rows.Next() {
		m := make(map[string]interface{}, len(cols)+1)
		if err = rows.MapScan(m); err != nil {
			return nil, errors.Wrapf(err, "reading %s", table)
		}

		row := grade.LegacyRow{
			UserID:        asString(m["user_id"]),
			CategoryTitle: title,
			Values:        make(map[string]int, len(cols)),
		}
		for _, col := range cols {
			v, ok := m[col].(int64)
			if !ok { // NULL
				continue
			}
			if v < 0 {
				return nil, errors.Errorf("%s.%s of user %s: negative value %d", table, col, row.UserID, v)
			}
			row.Values[col] = int(v)
		}
		if row.UserID != "" && len(row.Values) > 0 {
			result = append(result, row)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", table)
	}
	return result, nil
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
