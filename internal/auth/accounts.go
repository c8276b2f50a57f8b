// Package auth issues tokens, manages accounts and resolves the request actor.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"roster/internal/apperr"
	"roster/internal/model"
	"roster/internal/validate"
)

// UserStore persists accounts. Lookups return (nil, nil) when nothing matches.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByID(ctx context.Context, id string) (*model.User, error)
	UserByLogin(ctx context.Context, login string) (*model.User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

type RegisterInput struct {
	Username string     `json:"username" validate:"required,min=3,max=50"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=ADMIN EMPLOYEE"`
}

// LoginInput takes a username or an email in Username.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is what a successful login, registration or refresh returns.
type Session struct {
	User *model.User `json:"user"`
	TokenPair
}

// Accounts implements registration, login and token rotation.
type Accounts struct {
	users    UserStore
	tokens   *Tokens
	sessions Sessions
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewAccounts(users UserStore, tokens *Tokens, sessions Sessions, log logrus.FieldLogger) *Accounts {
	return &Accounts{users: users, tokens: tokens, sessions: sessions, log: log, now: time.Now}
}

func invalidCredentials() error {
	return &apperr.Error{Kind: apperr.KindAuthenticationRequired, Message: "invalid credentials"}
}

// Register creates an account and logs it in. Only an active ADMIN may create
// another ADMIN.
func (a *Accounts) Register(ctx context.Context, actor *model.Actor, in RegisterInput) (*Session, error) {
	if in.Role == "" {
		in.Role = model.RoleEmployee
	}
	if in.Role == model.RoleAdmin && (actor == nil || !actor.IsActive || actor.Role != model.RoleAdmin) {
		return nil, apperr.InsufficientRole(string(model.RoleAdmin))
	}
	u, err := a.CreateUser(ctx, in)
	if err != nil {
		return nil, err
	}
	return a.issue(ctx, u)
}

// CreateUser validates and stores a new account without any role check.
func (a *Accounts) CreateUser(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = model.RoleEmployee
	}
	if err := validate.Struct(&in); err != nil {
		return nil, err
	}
	exists, err := a.users.UserExists(ctx, in.Username, in.Email)
	if err != nil {
		return nil, apperr.Store("check user", err)
	}
	if exists {
		return nil, apperr.AlreadyExists("user with this username or email")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Store("hash password", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperr.Store("generate id", err)
	}
	now := a.now().UTC().Truncate(time.Millisecond)
	u := &model.User{
		ID:           id.String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.users.CreateUser(ctx, u); err != nil {
		return nil, apperr.Store("create user", err)
	}
	a.log.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("user created")
	return u, nil
}

// Login accepts a username or an email.
func (a *Accounts) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := validate.Struct(&in); err != nil {
		return nil, err
	}
	u, err := a.users.UserByLogin(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		return nil, apperr.Store("load user", err)
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return nil, invalidCredentials()
	}
	if !u.IsActive {
		return nil, &apperr.Error{Kind: apperr.KindAuthenticationRequired, Message: "account is deactivated"}
	}
	now := a.now().UTC().Truncate(time.Millisecond)
	if err := a.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, apperr.Store("update last login", err)
	}
	u.LastLogin = &now
	return a.issue(ctx, u)
}

// Refresh exchanges a refresh token for a new pair. The old token stops working.
func (a *Accounts) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := a.tokens.Parse(refreshToken, TypeRefresh)
	if err != nil {
		return nil, invalidCredentials()
	}
	userID, ok, err := a.sessions.Take(ctx, claims.ID)
	if err != nil {
		return nil, apperr.Store("load session", err)
	}
	if !ok || userID != claims.Subject {
		return nil, &apperr.Error{Kind: apperr.KindAuthenticationRequired, Message: "refresh token revoked"}
	}
	u, err := a.users.UserByID(ctx, userID)
	if err != nil {
		return nil, apperr.Store("load user", err)
	}
	if u == nil || !u.IsActive {
		return nil, invalidCredentials()
	}
	return a.issue(ctx, u)
}

// Logout revokes a refresh token. Unknown or already used tokens are not an error.
func (a *Accounts) Logout(ctx context.Context, refreshToken string) error {
	claims, err := a.tokens.Parse(refreshToken, TypeRefresh)
	if err != nil {
		return invalidCredentials()
	}
	if _, _, err := a.sessions.Take(ctx, claims.ID); err != nil {
		return apperr.Store("revoke session", err)
	}
	return nil
}

// Authenticate resolves an access token to its user. It returns (nil, nil) when
// the token is invalid or the user no longer exists or is inactive.
func (a *Accounts) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := a.tokens.Parse(accessToken, TypeAccess)
	if err != nil {
		return nil, nil
	}
	u, err := a.users.UserByID(ctx, claims.Subject)
	if err != nil {
		return nil, apperr.Store("load user", err)
	}
	if u == nil || !u.IsActive {
		return nil, nil
	}
	return u, nil
}

// Me returns the account behind actor.
func (a *Accounts) Me(ctx context.Context, actor *model.Actor) (*model.User, error) {
	if actor == nil || !actor.IsActive {
		return nil, apperr.AuthenticationRequired()
	}
	u, err := a.users.UserByID(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Store("load user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user")
	}
	return u, nil
}

func (a *Accounts) issue(ctx context.Context, u *model.User) (*Session, error) {
	pair, err := a.tokens.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, apperr.Store("issue tokens", err)
	}
	if err := a.sessions.Save(ctx, pair.refreshID, u.ID, a.tokens.refreshTTL); err != nil {
		return nil, apperr.Store("save session", err)
	}
	return &Session{User: u, TokenPair: pair}, nil
}
