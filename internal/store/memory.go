package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Gateway for tests and local development.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]map[string]Record
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string]map[string]Record), now: time.Now}
}

func (m *Memory) Insert(ctx context.Context, table string, rec Record) (string, error) {
	if err := checkRecord(table, rec); err != nil {
		return "", err
	}
	row, id := withID(rec)
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table]
	if !ok {
		t = make(map[string]Record)
		m.tables[table] = t
	}
	if _, exists := t[id]; exists {
		return "", fmt.Errorf("%w: id %q in %s", ErrDuplicate, id, table)
	}
	t[id] = row
	return id, nil
}

func (m *Memory) Update(ctx context.Context, table, id string, fields Record) (bool, error) {
	if err := checkRecord(table, fields); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.tables[table][id]
	if !ok {
		return false, nil
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		row[k] = v
	}
	row["updated_at"] = m.now().UTC()
	return true, nil
}

func (m *Memory) Delete(ctx context.Context, table, id string) (bool, error) {
	if err := checkIdent(table); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[table][id]; !ok {
		return false, nil
	}
	delete(m.tables[table], id)
	return true, nil
}

func (m *Memory) QueryOne(ctx context.Context, table, column string, value any) (Record, error) {
	if err := checkIdent(table, column); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, row := range m.tables[table] {
		if v, ok := row[column]; ok && v == value {
			return clone(row), nil
		}
	}
	return nil, nil
}

func (m *Memory) List(ctx context.Context, table string, opts ListOptions) ([]Record, error) {
	opts = opts.normalize()
	if err := checkIdent(table, opts.OrderBy); err != nil {
		return nil, err
	}
	m.mu.RLock()
	rows := make([]Record, 0, len(m.tables[table]))
	for _, row := range m.tables[table] {
		rows = append(rows, clone(row))
	}
	m.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		return after(rows[i][opts.OrderBy], rows[j][opts.OrderBy])
	})
	if len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}
	return rows, nil
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

// Len reports the number of rows in table.
func (m *Memory) Len(table string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[table])
}

// after orders values descending; values of unknown type sort last.
func after(a, b any) bool {
	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		return !ok || av.After(bv)
	case string:
		bv, ok := b.(string)
		return !ok || av > bv
	case int:
		bv, ok := b.(int)
		return !ok || av > bv
	case int64:
		bv, ok := b.(int64)
		return !ok || av > bv
	}
	return false
}
