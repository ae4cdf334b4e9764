package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/secure-calc-api/internal/config"
	"github.com/iliyamo/secure-calc-api/internal/model"
	q "github.com/iliyamo/secure-calc-api/internal/queue"
	"github.com/iliyamo/secure-calc-api/internal/repository"
	"github.com/iliyamo/secure-calc-api/internal/utils"
)

// Service-level auth failures.  Login and refresh deliberately collapse
// every internal cause into one sentinel each, so the HTTP surface
// never reveals whether an identifier exists or why a token was
// rejected.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrInvalidRole        = errors.New("invalid role")
)

// UserStore is the persistence surface the auth service needs for
// users.  *repository.UserRepo satisfies it; tests substitute mocks.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (model.User, error)
	List(ctx context.Context, offset, limit int) ([]model.User, error)
	ListWithTokenCounts(ctx context.Context, offset, limit int) ([]model.UserTokenCount, error)
	UpdateRole(ctx context.Context, username string, role model.Role) error
	UpdateProfile(ctx context.Context, id uint64, username, email string) error
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
}

// TokenStore is the persistence surface for refresh tokens.
// *repository.TokenRepo satisfies it.
type TokenStore interface {
	Store(ctx context.Context, t model.RefreshToken) (uint64, error)
	FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	FindByID(ctx context.Context, id uint64) (model.RefreshToken, error)
	Revoke(ctx context.Context, id uint64) error
	RevokeAllForUser(ctx context.Context, userID uint64) (int64, error)
	ListForUser(ctx context.Context, userID uint64) ([]model.RefreshToken, error)
	ListAll(ctx context.Context, offset, limit int) ([]model.RefreshToken, error)
}

// TokenPair is what a successful login hands back.
type TokenPair struct {
	Access  utils.Token
	Refresh utils.Token
}

// AuthService orchestrates registration, login, refresh, logout and
// revocation on top of the codec, the hasher and the two stores.  All
// configuration (secret, TTLs, bcrypt cost) is captured once at
// construction; nothing reads ambient state afterwards.
type AuthService struct {
	users      UserStore
	tokens     TokenStore
	audit      AuditPublisher // optional; nil disables audit events
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
}

func NewAuthService(cfg config.Config, users UserStore, tokens TokenStore, audit AuditPublisher) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		audit:      audit,
		secret:     cfg.JWTSecret,
		accessTTL:  time.Duration(cfg.AccessTTLMin) * time.Minute,
		refreshTTL: time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates a user with the default role.  Uniqueness of
// username and email is enforced by the database, so concurrent
// registrations of the same name produce exactly one success; the
// loser sees repository.ErrUsernameExists or ErrEmailExists.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (model.User, error) {
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return model.User{}, err
	}
	id, err := s.users.Create(ctx, username, email, hash)
	if err != nil {
		return model.User{}, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	s.emit(ctx, q.AuthEvent{Type: q.EventUserRegistered, UserID: u.ID, Username: u.Username})
	return u, nil
}

// Login verifies credentials and mints a fresh access+refresh pair.
// The refresh token's hash is recorded so it can later be revoked.
// Unknown identifier and wrong password are indistinguishable from the
// outside.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (TokenPair, model.User, error) {
	u, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		return TokenPair{}, model.User{}, ErrInvalidCredentials
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return TokenPair{}, model.User{}, ErrInvalidCredentials
	}
	if _, ok := model.ParseRole(string(u.Role)); !ok {
		// A corrupted role column must not produce a signed token.
		return TokenPair{}, model.User{}, ErrInvalidRole
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return TokenPair{}, model.User{}, err
	}
	s.emit(ctx, q.AuthEvent{Type: q.EventUserLogin, UserID: u.ID, Username: u.Username})
	return pair, u, nil
}

func (s *AuthService) issuePair(ctx context.Context, u model.User) (TokenPair, error) {
	access, err := utils.NewToken(s.secret, u.ID, string(u.Role), utils.TokenTypeAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewToken(s.secret, u.ID, string(u.Role), utils.TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	_, err = s.tokens.Store(ctx, model.RefreshToken{
		UserID:    u.ID,
		TokenHash: utils.HashToken(refresh.Raw),
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: refresh.Exp,
	})
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token.  The token
// is not rotated: it stays valid until its own expiry or revocation.
// Two layers must both pass: the codec (signature, expiry, typ) and the
// store (existence, revoked flag).  A revoked token fails here even
// though its signature alone would still verify.  All causes collapse
// to ErrInvalidRefresh; the distinction is logged only.
func (s *AuthService) Refresh(ctx context.Context, refreshRaw string) (utils.Token, error) {
	claims, err := utils.ParseToken(s.secret, refreshRaw, utils.TokenTypeRefresh)
	if err != nil {
		log.Printf("auth: refresh rejected by codec: %v", err)
		return utils.Token{}, ErrInvalidRefresh
	}
	rec, err := s.tokens.FindByHash(ctx, utils.HashToken(refreshRaw))
	if err != nil {
		log.Printf("auth: refresh not on record for user %d", claims.UserID)
		return utils.Token{}, ErrInvalidRefresh
	}
	if !rec.Active(time.Now().UTC()) {
		log.Printf("auth: refresh revoked or lapsed (token %d, user %d)", rec.ID, rec.UserID)
		return utils.Token{}, ErrInvalidRefresh
	}
	u, err := s.users.GetByID(ctx, rec.UserID)
	if err != nil {
		log.Printf("auth: refresh for unresolvable user %d", rec.UserID)
		return utils.Token{}, ErrInvalidRefresh
	}
	if _, ok := model.ParseRole(string(u.Role)); !ok {
		return utils.Token{}, ErrInvalidRefresh
	}

	// The new access token carries the user's current role, so a role
	// change takes effect at the next refresh.
	access, err := utils.NewToken(s.secret, u.ID, string(u.Role), utils.TokenTypeAccess, s.accessTTL)
	if err != nil {
		return utils.Token{}, err
	}
	s.emit(ctx, q.AuthEvent{Type: q.EventTokenRefreshed, UserID: u.ID, Username: u.Username})
	return access, nil
}

// Logout revokes exactly the presented refresh token.  Revoking an
// already-revoked token succeeds; a token the store has never seen is
// rejected like any other invalid refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshRaw string) error {
	if _, err := utils.ParseToken(s.secret, refreshRaw, utils.TokenTypeRefresh); err != nil {
		return ErrInvalidRefresh
	}
	rec, err := s.tokens.FindByHash(ctx, utils.HashToken(refreshRaw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidRefresh
		}
		return err
	}
	if err := s.tokens.Revoke(ctx, rec.ID); err != nil {
		return err
	}
	s.emit(ctx, q.AuthEvent{Type: q.EventTokenRevoked, UserID: rec.UserID, Detail: "logout"})
	return nil
}

// RevokeAll revokes every refresh token a user owns ("log out
// everywhere").  Returns how many tokens were actually flipped.
func (s *AuthService) RevokeAll(ctx context.Context, userID uint64) (int64, error) {
	n, err := s.tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.emit(ctx, q.AuthEvent{Type: q.EventTokensRevoked, UserID: userID})
	return n, nil
}

// RevokeByID revokes one token by primary key.  Non-admin callers can
// only touch their own records; a foreign token looks like it does not
// exist.
func (s *AuthService) RevokeByID(ctx context.Context, caller model.User, tokenID uint64) error {
	rec, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		return err
	}
	if caller.Role != model.RoleAdmin && rec.UserID != caller.ID {
		return repository.ErrNotFound
	}
	if err := s.tokens.Revoke(ctx, rec.ID); err != nil {
		return err
	}
	s.emit(ctx, q.AuthEvent{Type: q.EventTokenRevoked, UserID: rec.UserID, Detail: "revoke by id"})
	return nil
}

// RevokeByString revokes one token by raw token string, with the same
// ownership scoping as RevokeByID.
func (s *AuthService) RevokeByString(ctx context.Context, caller model.User, refreshRaw string) error {
	rec, err := s.tokens.FindByHash(ctx, utils.HashToken(refreshRaw))
	if err != nil {
		return err
	}
	if caller.Role != model.RoleAdmin && rec.UserID != caller.ID {
		return repository.ErrNotFound
	}
	if err := s.tokens.Revoke(ctx, rec.ID); err != nil {
		return err
	}
	s.emit(ctx, q.AuthEvent{Type: q.EventTokenRevoked, UserID: rec.UserID, Detail: "revoke by string"})
	return nil
}

// ChangeRole sets a named user's role.  The handler has already
// established the caller is an admin; here only the enum is validated.
func (s *AuthService) ChangeRole(ctx context.Context, username, newRole string) (model.User, error) {
	role, ok := model.ParseRole(newRole)
	if !ok {
		return model.User{}, ErrInvalidRole
	}
	if err := s.users.UpdateRole(ctx, username, role); err != nil {
		return model.User{}, err
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return model.User{}, err
	}
	s.emit(ctx, q.AuthEvent{Type: q.EventRoleChanged, UserID: u.ID, Username: u.Username, Detail: string(role)})
	return u, nil
}

// ListTokens returns the caller's own refresh tokens.
func (s *AuthService) ListTokens(ctx context.Context, userID uint64) ([]model.RefreshToken, error) {
	return s.tokens.ListForUser(ctx, userID)
}

// ListAllTokens returns tokens across all users.  Admin surface.
func (s *AuthService) ListAllTokens(ctx context.Context, offset, limit int) ([]model.RefreshToken, error) {
	return s.tokens.ListAll(ctx, offset, limit)
}

// TokensForUser returns a named user's tokens.  Admin surface;
// ErrNotFound when the user does not exist.
func (s *AuthService) TokensForUser(ctx context.Context, username string) ([]model.RefreshToken, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.tokens.ListForUser(ctx, u.ID)
}

// ListUsers returns users with their token counts.  Admin surface.
func (s *AuthService) ListUsers(ctx context.Context, offset, limit int) ([]model.UserTokenCount, error) {
	return s.users.ListWithTokenCounts(ctx, offset, limit)
}

// ListUsersPlain returns users without token counts, for callers that
// only need the directory and want to skip the JOIN.
func (s *AuthService) ListUsersPlain(ctx context.Context, offset, limit int) ([]model.User, error) {
	return s.users.List(ctx, offset, limit)
}

// GetUser resolves a user by id.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (model.User, error) {
	return s.users.GetByID(ctx, id)
}

// RevokeAllForUsername is the admin variant of RevokeAll addressed by
// username.
func (s *AuthService) RevokeAllForUsername(ctx context.Context, username string) (int64, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	return s.RevokeAll(ctx, u.ID)
}

// UpdateProfile changes the caller's username and/or email, re-checking
// uniqueness at the storage layer.
func (s *AuthService) UpdateProfile(ctx context.Context, id uint64, username, email string) (model.User, error) {
	if err := s.users.UpdateProfile(ctx, id, username, email); err != nil {
		return model.User{}, err
	}
	return s.users.GetByID(ctx, id)
}

// ChangePassword verifies the current password before storing a hash of
// the new one.
func (s *AuthService) ChangePassword(ctx context.Context, id uint64, current, next string) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	hash, err := utils.HashPassword(next, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, hash)
}

// emit publishes an audit event, stamping the time.  Publish failures
// are already logged by the publisher and never fail the request.
func (s *AuthService) emit(ctx context.Context, ev q.AuthEvent) {
	if s.audit == nil {
		return
	}
	ev.At = time.Now().UTC().Format(time.RFC3339)
	_ = s.audit.Publish(ctx, ev)
}
