package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Gateway over a pgx pool. Identifiers are validated, then
// quoted with pgx.Identifier; values always travel as bind parameters.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, now: time.Now}
}

func (p *Postgres) Insert(ctx context.Context, table string, rec Record) (string, error) {
	if err := checkRecord(table, rec); err != nil {
		return "", err
	}
	rec, _ = withID(rec)
	cols := columns(rec)
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = rec[c]
	}

	var id string
	if err := p.pool.QueryRow(ctx, insertSQL(table, cols), args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", fmt.Errorf("%w: %s", ErrDuplicate, pgErr.Detail)
		}
		return "", fmt.Errorf("insert into %s: %w", table, err)
	}
	return id, nil
}

func (p *Postgres) Update(ctx context.Context, table, id string, fields Record) (bool, error) {
	if err := checkRecord(table, fields); err != nil {
		return false, err
	}
	set := clone(fields)
	delete(set, "id")
	set["updated_at"] = p.now().UTC()

	cols := columns(set)
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		args = append(args, set[c])
	}
	args = append(args, id)

	tag, err := p.pool.Exec(ctx, updateSQL(table, cols), args...)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", table, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) Delete(ctx context.Context, table, id string) (bool, error) {
	if err := checkIdent(table); err != nil {
		return false, err
	}
	tag, err := p.pool.Exec(ctx, "DELETE FROM "+quote(table)+" WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) QueryOne(ctx context.Context, table, column string, value any) (Record, error) {
	if err := checkIdent(table, column); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, selectOneSQL(table, column), value)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	return Record(row), nil
}

func (p *Postgres) List(ctx context.Context, table string, opts ListOptions) ([]Record, error) {
	opts = opts.normalize()
	if err := checkIdent(table, opts.OrderBy); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, listSQL(table, opts.OrderBy), opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	out := make([]Record, len(maps))
	for i, m := range maps {
		out[i] = Record(m)
	}
	return out, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func quote(name string) string { return pgx.Identifier{name}.Sanitize() }

func insertSQL(table string, cols []string) string {
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quote(c)
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		quote(table), strings.Join(names, ", "), strings.Join(marks, ", "))
}

// updateSQL binds the columns as $1..$n and the id as $n+1.
func updateSQL(table string, cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s = $%d", quote(c), i+1)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", quote(table), strings.Join(parts, ", "), len(cols)+1)
}

func selectOneSQL(table, column string) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s = $1 LIMIT 1", quote(table), quote(column))
}

func listSQL(table, orderBy string) string {
	return fmt.Sprintf("SELECT * FROM %s ORDER BY %s DESC LIMIT $1", quote(table), quote(orderBy))
}
