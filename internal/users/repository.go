package users

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mhc-gc/mhc-site/backend/go-api/internal/models"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/store"
)

// Directory finds accounts by email or id. Both return (nil, nil) when absent.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// StaticDirectory serves a fixed list of accounts loaded from configuration.
type StaticDirectory struct {
	byEmail map[string]models.Account
	byID    map[string]models.Account
}

func NewStaticDirectory(accounts []models.Account) *StaticDirectory {
	d := &StaticDirectory{
		byEmail: make(map[string]models.Account, len(accounts)),
		byID:    make(map[string]models.Account, len(accounts)),
	}
	for _, a := range accounts {
		a.Email = normalizeEmail(a.Email)
		d.byEmail[a.Email] = a
		d.byID[a.ID] = a
	}
	return d
}

func (d *StaticDirectory) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	a, ok := d.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (d *StaticDirectory) FindByID(_ context.Context, id string) (*models.Account, error) {
	a, ok := d.byID[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// StaticID derives a stable account id from an email address.
func StaticID(email string) string {
	sum := sha256.Sum256([]byte(normalizeEmail(email)))
	return "adm_" + hex.EncodeToString(sum[:6])
}

// ParseAccounts reads "email|name|bcrypt-hash" entries. Every entry gets the
// admin role.
func ParseAccounts(entries []string) ([]models.Account, error) {
	out := make([]models.Account, 0, len(entries))
	for i, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		parts := strings.Split(e, "|")
		if len(parts) != 3 {
			return nil, fmt.Errorf("admin account %d: want email|name|hash", i+1)
		}
		email, name, hash := normalizeEmail(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
		if email == "" || hash == "" {
			return nil, fmt.Errorf("admin account %d: email and hash are required", i+1)
		}
		if !strings.HasPrefix(hash, "$2") {
			return nil, fmt.Errorf("admin account %d (%s): password must be a bcrypt hash", i+1, email)
		}
		out = append(out, models.Account{
			Identity:     models.Identity{ID: StaticID(email), Email: email, Role: models.RoleAdmin, Name: name},
			PasswordHash: hash,
			Active:       true,
		})
	}
	return out, nil
}

const usersTable = "users"

// GatewayDirectory reads accounts from the users table.
type GatewayDirectory struct {
	gw store.Gateway
}

func NewGatewayDirectory(gw store.Gateway) *GatewayDirectory {
	return &GatewayDirectory{gw: gw}
}

func (d *GatewayDirectory) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return d.find(ctx, "email", normalizeEmail(email))
}

func (d *GatewayDirectory) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return d.find(ctx, "id", id)
}

func (d *GatewayDirectory) find(ctx context.Context, column, value string) (*models.Account, error) {
	row, err := d.gw.QueryOne(ctx, usersTable, column, value)
	if err != nil {
		return nil, fmt.Errorf("users lookup: %w", err)
	}
	if row == nil {
		return nil, nil
	}
	return accountFromRecord(row), nil
}

func accountFromRecord(r store.Record) *models.Account {
	str := func(k string) string {
		s, _ := r[k].(string)
		return s
	}
	name := strings.TrimSpace(str("first_name") + " " + str("last_name"))
	role := str("role")
	if role == "" {
		role = models.RoleUser
	}
	return &models.Account{
		Identity: models.Identity{
			ID:    str("id"),
			Email: normalizeEmail(str("email")),
			Role:  role,
			Name:  name,
		},
		PasswordHash: str("password_hash"),
		Active:       truthy(r["is_active"]),
	}
}

// truthy accepts the boolean shapes the backends return; a missing column
// counts as active.
func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return true
	case bool:
		return b
	case int:
		return b != 0
	case int32:
		return b != 0
	case int64:
		return b != 0
	case string:
		return b == "1" || strings.EqualFold(b, "true")
	}
	return false
}

// Chain consults each directory in order and returns the first hit.
type Chain []Directory

func (c Chain) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	for _, d := range c {
		a, err := d.FindByEmail(ctx, email)
		if err != nil || a != nil {
			return a, err
		}
	}
	return nil, nil
}

func (c Chain) FindByID(ctx context.Context, id string) (*models.Account, error) {
	for _, d := range c {
		a, err := d.FindByID(ctx, id)
		if err != nil || a != nil {
			return a, err
		}
	}
	return nil, nil
}
