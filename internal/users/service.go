package users

import (
	"context"
	"errors"
	"sync"

	"github.com/mhc-gc/mhc-site/backend/go-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is the only failure reported to clients, whatever the
// reason (unknown email, wrong password, inactive account, not an admin).
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword returns a bcrypt hash suitable for ADMIN_ACCOUNTS or the users table.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// burnCompare spends the same time as a real check so unknown emails cannot
// be told apart by latency.
func burnCompare(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// Service authenticates against a Directory.
type Service struct {
	dir    Directory
	admins map[string]struct{}
}

// NewService builds a service; adminEmails is the allowlist for AuthenticateAdmin.
func NewService(dir Directory, adminEmails []string) *Service {
	s := &Service{dir: dir, admins: make(map[string]struct{}, len(adminEmails))}
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			s.admins[e] = struct{}{}
		}
	}
	return s
}

// IsAdminEmail reports whether email is on the admin allowlist.
func (s *Service) IsAdminEmail(email string) bool {
	_, ok := s.admins[normalizeEmail(email)]
	return ok
}

// Authenticate checks email and password and returns the account's identity.
// Admin accounts come back with the user role: admin sessions are only
// issued by AuthenticateAdmin.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	id, err := s.verify(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if id.IsAdmin() {
		id.Role = models.RoleUser
	}
	return id, nil
}

// AuthenticateAdmin is Authenticate restricted to allowlisted admin accounts.
func (s *Service) AuthenticateAdmin(ctx context.Context, email, password string) (*models.Identity, error) {
	if !s.IsAdminEmail(email) {
		burnCompare(password)
		return nil, ErrInvalidCredentials
	}
	id, err := s.verify(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !id.IsAdmin() {
		return nil, ErrInvalidCredentials
	}
	return id, nil
}

func (s *Service) verify(ctx context.Context, email, password string) (*models.Identity, error) {
	acct, err := s.dir.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if acct == nil || acct.PasswordHash == "" {
		burnCompare(password)
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !acct.Active {
		return nil, ErrInvalidCredentials
	}
	id := acct.Identity
	return &id, nil
}

// Lookup resolves an id to its current identity; inactive or missing
// accounts yield (nil, nil). It satisfies tokens.LookupFunc.
func (s *Service) Lookup(ctx context.Context, id string) (*models.Identity, error) {
	acct, err := s.dir.FindByID(ctx, id)
	if err != nil || acct == nil || !acct.Active {
		return nil, err
	}
	ident := acct.Identity
	return &ident, nil
}
