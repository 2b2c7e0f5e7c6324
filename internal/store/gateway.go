// Package store is the persistence gateway: a small table/record interface
// over whichever database the deployment uses.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/google/uuid"
)

// Record is one row keyed by snake_case column name.
type Record map[string]any

var (
	ErrInvalidIdentifier = errors.New("store: invalid table or column name")
	// ErrDuplicate is returned when an insert collides with an existing id or
	// unique constraint.
	ErrDuplicate = errors.New("store: duplicate record")
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 100
	DefaultOrderBy   = "created_at"
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Gateway is implemented by the memory, Postgres and Mongo backends.
// Insert returns the row id, generating one when rec has none. QueryOne returns (nil, nil) when nothing matches. Update and Delete report
// whether a row with that id existed.
type Gateway interface {
	Insert(ctx context.Context, table string, rec Record) (string, error)
	Update(ctx context.Context, table, id string, fields Record) (bool, error)
	Delete(ctx context.Context, table, id string) (bool, error)
	QueryOne(ctx context.Context, table, column string, value any) (Record, error)
	List(ctx context.Context, table string, opts ListOptions) ([]Record, error)
	Ping(ctx context.Context) error
}

// ListOptions bounds List. Rows are returned newest first by OrderBy.
type ListOptions struct {
	OrderBy string
	Limit   int
}

func (o ListOptions) normalize() ListOptions {
	if o.OrderBy == "" {
		o.OrderBy = DefaultOrderBy
	}
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	return o
}

// ValidIdentifier reports whether s is safe to use as a table or column name.
func ValidIdentifier(s string) bool { return identPattern.MatchString(s) }

func checkIdent(names ...string) error {
	for _, n := range names {
		if !ValidIdentifier(n) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, n)
		}
	}
	return nil
}

func checkRecord(table string, rec Record) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	for k := range rec {
		if err := checkIdent(k); err != nil {
			return err
		}
	}
	return nil
}

// withID returns a copy of rec whose "id" is a non-empty string, generating a
// UUID when the caller did not supply one.
func withID(rec Record) (Record, string) {
	out := clone(rec)
	id, _ := out["id"].(string)
	if id == "" {
		id = uuid.NewString()
		out["id"] = id
	}
	return out, id
}

// columns returns rec's keys in a stable order.
func columns(rec Record) []string {
	cols := make([]string, 0, len(rec))
	for k := range rec {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func clone(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
