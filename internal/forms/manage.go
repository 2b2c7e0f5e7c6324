package forms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mhc-gc/mhc-site/backend/go-api/internal/store"
)

// ErrInvalidStatus is returned when an admin sets a status the form does not define.
var ErrInvalidStatus = errors.New("invalid status")

// Retrieve lists the newest rows of table. limit <= 0 means the default; it is
// capped at store.MaxListLimit.
func Retrieve(ctx context.Context, gw store.Gateway, table string, limit int) ([]store.Record, error) {
	rows, err := gw.List(ctx, table, store.ListOptions{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return rows, nil
}

// Retrieve lists this pipeline's submissions, newest first.
func (p *Pipeline[T]) Retrieve(ctx context.Context, limit int) ([]store.Record, error) {
	return Retrieve(ctx, p.deps.Gateway, p.form.TableName, limit)
}

// SetStatus updates one submission's status. found is false when no row has id.
func (p *Pipeline[T]) SetStatus(ctx context.Context, id, status string) (found bool, err error) {
	status = strings.TrimSpace(status)
	if !p.allowsStatus(status) {
		return false, fmt.Errorf("%w: must be one of %s", ErrInvalidStatus, strings.Join(p.form.Statuses, ", "))
	}
	found, err = p.deps.Gateway.Update(ctx, p.form.TableName, id, store.Record{"status": status})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return found, nil
}

// Remove deletes one submission. found is false when no row has id.
func (p *Pipeline[T]) Remove(ctx context.Context, id string) (bool, error) {
	found, err := p.deps.Gateway.Delete(ctx, p.form.TableName, id)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return found, nil
}

func (p *Pipeline[T]) allowsStatus(s string) bool {
	for _, allowed := range p.form.Statuses {
		if s == allowed {
			return true
		}
	}
	return false
}
