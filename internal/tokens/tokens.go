package tokens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/models"
)

var (
	// ErrInvalidToken covers bad signatures, wrong algorithm, missing claims
	// and tokens of the wrong type.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired matches ErrInvalidToken under errors.Is.
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)
	// ErrTokenRevoked matches ErrInvalidToken under errors.Is.
	ErrTokenRevoked = fmt.Errorf("%w: revoked", ErrInvalidToken)
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// Config holds signing parameters. Now defaults to time.Now. A nil
// Revocations disables logout.
type Config struct {
	Secret      string
	Issuer      string
	Audience    string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	Now         func() time.Time
	Revocations Revocations
}

// Pair is what a successful login returns. ExpiresIn is the access token
// lifetime in seconds.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Claims is the JWT payload. Refresh tokens only carry UID, Role and Type.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	Name  string `json:"name,omitempty"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// LookupFunc resolves an identity id to its current record. A nil identity
// with a nil error means the identity no longer exists.
type LookupFunc func(ctx context.Context, id string) (*models.Identity, error)

type Service struct {
	cfg Config
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("tokens: signing secret is empty")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{cfg: cfg}, nil
}

// CanRevoke reports whether a revocation list is configured.
func (s *Service) CanRevoke() bool { return s.cfg.Revocations != nil }

// AccessTTL returns the default access token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.cfg.AccessTTL }

// Issue mints an access/refresh pair with the default access TTL.
func (s *Service) Issue(id models.Identity) (Pair, error) {
	return s.IssueWithTTL(id, s.cfg.AccessTTL)
}

// IssueWithTTL mints a pair whose access token lives for accessTTL.
func (s *Service) IssueWithTTL(id models.Identity, accessTTL time.Duration) (Pair, error) {
	access, err := s.IssueAccess(id, accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.sign(Claims{
		UID:              id.ID,
		Role:             id.Role,
		Type:             typeRefresh,
		RegisteredClaims: s.registered(id.ID, s.cfg.RefreshTTL),
	})
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int64(accessTTL / time.Second)}, nil
}

// IssueAccess mints an access token only.
func (s *Service) IssueAccess(id models.Identity, ttl time.Duration) (string, error) {
	if id.ID == "" {
		return "", errors.New("tokens: identity id is empty")
	}
	role := id.Role
	if role == "" {
		role = models.RoleUser
	}
	return s.sign(Claims{
		UID:              id.ID,
		Email:            id.Email,
		Role:             role,
		Name:             id.Name,
		Type:             typeAccess,
		RegisteredClaims: s.registered(id.ID, ttl),
	})
}

// Verify checks an access token and returns the identity it carries. It
// does not consult the revocation list; use Validate for that.
func (s *Service) Verify(token string) (models.Identity, error) {
	c, err := s.parseAccess(token)
	if err != nil {
		return models.Identity{}, err
	}
	return identityOf(c), nil
}

// Validate is Verify plus the revocation check.
func (s *Service) Validate(ctx context.Context, token string) (models.Identity, error) {
	c, err := s.parseAccess(token)
	if err != nil {
		return models.Identity{}, err
	}
	if err := s.checkRevoked(ctx, c); err != nil {
		return models.Identity{}, err
	}
	return identityOf(c), nil
}

// Refresh exchanges a refresh token for a new access token. The identity is
// looked up again so changed or removed accounts take effect immediately; the
// new token carries the looked-up claims, not the old ones. A refresh token
// from a non-admin session never yields an admin token.
func (s *Service) Refresh(ctx context.Context, refreshToken string, lookup LookupFunc) (string, error) {
	c, err := s.parse(refreshToken)
	if err != nil {
		return "", err
	}
	if c.Type != typeRefresh {
		return "", fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}
	if err := s.checkRevoked(ctx, c); err != nil {
		return "", err
	}
	id, err := lookup(ctx, c.UID)
	if err != nil {
		return "", fmt.Errorf("identity lookup: %w", err)
	}
	if id == nil {
		return "", fmt.Errorf("%w: unknown subject", ErrInvalidToken)
	}
	fresh := *id
	if fresh.IsAdmin() && c.Role != models.RoleAdmin {
		fresh.Role = models.RoleUser
	}
	return s.IssueAccess(fresh, s.cfg.AccessTTL)
}

// Revoke puts a valid access or refresh token on the revocation list until
// it expires. Invalid tokens return ErrInvalidToken.
func (s *Service) Revoke(ctx context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil {
		return err
	}
	if s.cfg.Revocations == nil || c.ID == "" {
		return nil
	}
	ttl := c.ExpiresAt.Sub(s.cfg.Now())
	if ttl <= 0 {
		return nil
	}
	if err := s.cfg.Revocations.Revoke(ctx, c.ID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *Service) checkRevoked(ctx context.Context, c *Claims) error {
	if s.cfg.Revocations == nil || c.ID == "" {
		return nil
	}
	revoked, err := s.cfg.Revocations.IsRevoked(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

func (s *Service) parseAccess(token string) (*Claims, error) {
	c, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	if c.Type != typeAccess {
		return nil, fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}
	return c, nil
}

func identityOf(c *Claims) models.Identity {
	return models.Identity{ID: c.UID, Email: c.Email, Role: c.Role, Name: c.Name}
}

func (s *Service) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := s.cfg.Now()
	rc := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if s.cfg.Issuer != "" {
		rc.Issuer = s.cfg.Issuer
	}
	if s.cfg.Audience != "" {
		rc.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}
	return rc
}

func (s *Service) sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(s.cfg.Secret))
}

func (s *Service) parse(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.cfg.Now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.Audience))
	}
	c := &Claims{}
	_, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.UID == "" {
		return nil, fmt.Errorf("%w: missing uid", ErrInvalidToken)
	}
	return c, nil
}

// ExtractBearer returns the token from an "Authorization: Bearer <token>"
// header value, or "" when the header has another shape.
func ExtractBearer(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
