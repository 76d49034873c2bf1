package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/catalog/internal/platform/db"
	"github.com/odyssey-erp/catalog/internal/shared"
)

// Table describes how an entity maps onto a PostgreSQL table. The id column
// is always named "id" and generated by the database.
type Table[T Entity] struct {
	Name string
	// Columns lists the non-id columns in the order produced by Values.
	Columns []string
	// Scan reads one row selected as id followed by Columns.
	Scan   func(row pgx.Row) (T, error)
	Values func(entity T) []any
	WithID func(entity T, id int64) T
}

// PGRepository implements Repository on top of a pgx pool.
type PGRepository[T Entity] struct {
	pool  db.Pool
	table Table[T]

	selectSQL string
	insertSQL string
	updateSQL string
	deleteSQL string
	countSQL  string
}

// NewPGRepository builds the statements for table once.
func NewPGRepository[T Entity](pool db.Pool, table Table[T]) *PGRepository[T] {
	name := pgx.Identifier{table.Name}.Sanitize()
	cols := make([]string, len(table.Columns))
	placeholders := make([]string, len(table.Columns))
	assignments := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = pgx.Identifier{c}.Sanitize()
		placeholders[i] = "$" + strconv.Itoa(i+1)
		assignments[i] = cols[i] + " = " + placeholders[i]
	}
	colList := strings.Join(cols, ", ")
	return &PGRepository[T]{
		pool:      pool,
		table:     table,
		selectSQL: "SELECT id, " + colList + " FROM " + name,
		insertSQL: "INSERT INTO " + name + " (" + colList + ") VALUES (" + strings.Join(placeholders, ", ") + ") RETURNING id",
		updateSQL: "UPDATE " + name + " SET " + strings.Join(assignments, ", ") + " WHERE id = $" + strconv.Itoa(len(cols)+1),
		deleteSQL: "DELETE FROM " + name + " WHERE id = $1",
		countSQL:  "SELECT COUNT(*) FROM " + name,
	}
}

// Pool exposes the underlying pool to specialized repositories.
func (r *PGRepository[T]) Pool() db.Pool {
	return r.pool
}

// TableName returns the sanitized table name for specialized queries.
func (r *PGRepository[T]) TableName() string {
	return pgx.Identifier{r.table.Name}.Sanitize()
}

func (r *PGRepository[T]) GetByID(ctx context.Context, id int64) (T, bool, error) {
	entity, err := r.table.Scan(r.pool.QueryRow(ctx, r.selectSQL+" WHERE id = $1", id))
	if err != nil {
		var zero T
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("store: get %s %d: %w", r.table.Name, id, err)
	}
	return entity, true, nil
}

func (r *PGRepository[T]) GetPage(ctx context.Context, pageNumber, pageSize int) ([]T, error) {
	if pageSize < 1 {
		return []T{}, nil
	}
	skip, ok := offset(pageNumber, pageSize)
	if !ok {
		return []T{}, nil
	}
	return r.query(ctx, r.selectSQL+" ORDER BY id LIMIT $1 OFFSET $2", pageSize, skip)
}

func (r *PGRepository[T]) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, r.countSQL).Scan(&total); err != nil {
		return 0, fmt.Errorf("store: count %s: %w", r.table.Name, err)
	}
	return total, nil
}

func (r *PGRepository[T]) GetAll(ctx context.Context) ([]T, error) {
	return r.query(ctx, r.selectSQL+" ORDER BY id")
}

func (r *PGRepository[T]) Add(ctx context.Context, entity T) (T, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, r.insertSQL, r.table.Values(entity)...).Scan(&id)
	})
	if err != nil {
		var zero T
		return zero, r.wrapWrite("insert", err)
	}
	return r.table.WithID(entity, id), nil
}

func (r *PGRepository[T]) Update(ctx context.Context, entity T) error {
	args := append(r.table.Values(entity), entity.EntityID())
	return r.execOne(ctx, "update", r.updateSQL, args...)
}

func (r *PGRepository[T]) Delete(ctx context.Context, entity T) error {
	return r.execOne(ctx, "delete", r.deleteSQL, entity.EntityID())
}

// execOne runs a single-row mutation in its own transaction and reports a
// missing row as shared.ErrNotFound.
func (r *PGRepository[T]) execOne(ctx context.Context, op, sql string, args ...any) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return r.wrapWrite(op, err)
	}
	return nil
}

func (r *PGRepository[T]) wrapWrite(op string, err error) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("store: %s %s: %w", op, r.table.Name, ErrDuplicate)
	}
	return fmt.Errorf("store: %s %s: %w", op, r.table.Name, err)
}

func (r *PGRepository[T]) query(ctx context.Context, sql string, args ...any) ([]T, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", r.table.Name, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := r.table.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", r.table.Name, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list %s: %w", r.table.Name, err)
	}
	return items, nil
}
