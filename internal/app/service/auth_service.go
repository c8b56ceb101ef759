package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"quizgen/internal/common"
	"quizgen/internal/common/security"
	"quizgen/internal/domain/model"
	"quizgen/internal/domain/repository"
	"quizgen/internal/platform/config"
	"quizgen/internal/platform/session"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const minPasswordLength = 6

type AuthService struct {
	userRepo  repository.UserRepository
	loginLogs repository.LoginLogRepository // optional attempt log, may be nil
	sessions  *session.Store                // optional issuance audit, may be nil
}

func NewAuthService(userRepo repository.UserRepository, loginLogs repository.LoginLogRepository, sessions *session.Store) *AuthService {
	return &AuthService{userRepo: userRepo, loginLogs: loginLogs, sessions: sessions}
}

// ClientInfo carries the request metadata recorded with login attempts.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AdminRegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // ADMIN or MOD
}

type LoginRequest struct {
	LoginField string `json:"username_or_email"`
	Password   string `json:"password"`
}

type AuthResponse struct {
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
	User    *model.User `json:"user"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type RefreshResponse struct {
	Access string `json:"access"`
}

// Register creates a self-service account. The role is always USER and the
// status always ACTIVE, whatever the caller sends.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	if err := s.validateRegistration(ctx, req.Username, req.Email, req.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Role:           model.RoleUser,
		Status:         model.StatusActive,
		TotalScore:     0,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.createUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RegisterPrivileged creates a MOD or ADMIN account. These always start
// PENDING and cannot sign in to the admin surface until approved.
func (s *AuthService) RegisterPrivileged(ctx context.Context, req AdminRegisterRequest) (*model.User, error) {
	if req.Role != model.RoleAdmin && req.Role != model.RoleMod {
		return nil, fmt.Errorf("%w: role must be ADMIN or MOD", common.ErrValidation)
	}
	if err := s.validateRegistration(ctx, req.Username, req.Email, req.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Role:           req.Role,
		Status:         model.StatusPending,
		TotalScore:     0,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.createUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates against a single username-or-email field. Unknown
// account and wrong password collapse into the same error so callers cannot
// enumerate accounts. Only a BLOCKED status refuses issuance here. Every
// attempt, granted or refused, lands in the login log.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, client ClientInfo) (*AuthResponse, error) {
	user, err := s.authenticate(ctx, req)
	if err != nil {
		s.logAttempt(ctx, req.LoginField, nil, client, err)
		return nil, err
	}
	if user.Status == model.StatusBlocked {
		err := fmt.Errorf("%w: account is blocked", common.ErrForbidden)
		s.logAttempt(ctx, req.LoginField, user, client, err)
		return nil, err
	}

	resp, err := s.issueTokens(ctx, user, client)
	if err != nil {
		return nil, err
	}
	s.logAttempt(ctx, req.LoginField, user, client, nil)
	return resp, nil
}

// AdminLogin is the role-scoped issuance path: MOD/ADMIN only, and the
// account must be ACTIVE, with a distinct reason for the pending case.
func (s *AuthService) AdminLogin(ctx context.Context, req LoginRequest, client ClientInfo) (*AuthResponse, error) {
	user, err := s.authenticate(ctx, req)
	if err != nil {
		s.logAttempt(ctx, req.LoginField, nil, client, err)
		return nil, err
	}
	if err := adminPortalGate(user); err != nil {
		s.logAttempt(ctx, req.LoginField, user, client, err)
		return nil, err
	}

	resp, err := s.issueTokens(ctx, user, client)
	if err != nil {
		return nil, err
	}
	s.logAttempt(ctx, req.LoginField, user, client, nil)
	return resp, nil
}

func adminPortalGate(user *model.User) error {
	if !user.IsPrivileged() {
		return fmt.Errorf("%w: admin or moderator account required", common.ErrForbidden)
	}
	if user.Status == model.StatusPending {
		return fmt.Errorf("%w: account is pending approval", common.ErrForbidden)
	}
	if user.Status != model.StatusActive {
		return fmt.Errorf("%w: account is not active", common.ErrForbidden)
	}
	return nil
}

// Refresh redeems a refresh token for a new access token. The claim set is
// rebuilt from the freshly resolved account, not copied from the refresh
// token, and the same status gate applies as for any bearer token.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	if req.Refresh == "" {
		return nil, fmt.Errorf("%w: refresh token required", common.ErrValidation)
	}
	claims, err := security.ParseRefreshToken(req.Refresh)
	if err != nil {
		return nil, err
	}
	user, err := s.ResolveAccount(ctx, claims)
	if err != nil {
		return nil, err
	}

	access, jti, err := security.GenerateAccessToken(user.ID.Hex(), user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.audit(ctx, jti, user, access, req.Refresh, "")
	return &RefreshResponse{Access: access}, nil
}

// ResolveAccount maps verified token claims to the authoritative account
// record using an ordered fallback chain:
//
//  1. the subject claim parsed as an ObjectID,
//  2. the subject claim as a literal document id,
//  3. the username claim.
//
// A miss on one strategy falls through to the next; only store failures
// abort early. The caller is told nothing about which strategy matched.
// Resolution then applies the status gate: BLOCKED accounts are always
// refused, PENDING only blocks privileged roles.
func (s *AuthService) ResolveAccount(ctx context.Context, claims map[string]interface{}) (*model.User, error) {
	var user *model.User

	if sub, ok := claims["user_id"].(string); ok && sub != "" {
		if oid, perr := bson.ObjectIDFromHex(sub); perr == nil {
			u, err := s.userRepo.FindByID(ctx, oid)
			if err != nil && !errors.Is(err, common.ErrNotFound) {
				return nil, err
			}
			user = u
		}
		if user == nil {
			u, err := s.userRepo.FindByRawID(ctx, sub)
			if err != nil && !errors.Is(err, common.ErrNotFound) {
				return nil, err
			}
			user = u
		}
	}
	if user == nil {
		if username, ok := claims["username"].(string); ok && username != "" {
			u, err := s.userRepo.FindByUsername(ctx, username)
			if err != nil && !errors.Is(err, common.ErrNotFound) {
				return nil, err
			}
			user = u
		}
	}
	if user == nil {
		return nil, fmt.Errorf("%w: token does not match any account", common.ErrInvalidToken)
	}

	if user.Status == model.StatusBlocked {
		return nil, fmt.Errorf("%w: account is blocked", common.ErrForbidden)
	}
	if user.Status == model.StatusPending && user.IsPrivileged() {
		return nil, fmt.Errorf("%w: account is pending approval", common.ErrForbidden)
	}
	return user, nil
}

func (s *AuthService) validateRegistration(ctx context.Context, username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return fmt.Errorf("%w: username, email and password are required", common.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLength)
	}

	// Username and email are checked independently so the caller learns
	// which field collides.
	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return fmt.Errorf("%w: username already exists", common.ErrValidation)
	} else if !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return fmt.Errorf("%w: email already exists", common.ErrValidation)
	} else if !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}

func (s *AuthService) createUser(ctx context.Context, user *model.User) error {
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Unique index races surface here when two registrations collide.
		if errors.Is(err, common.ErrConflict) {
			return fmt.Errorf("%w: username or email already exists", common.ErrValidation)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *AuthService) authenticate(ctx context.Context, req LoginRequest) (*model.User, error) {
	if req.LoginField == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: credentials are required", common.ErrValidation)
	}

	user, err := s.userRepo.FindByUsername(ctx, req.LoginField)
	if errors.Is(err, common.ErrNotFound) {
		user, err = s.userRepo.FindByEmail(ctx, req.LoginField)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *model.User, client ClientInfo) (*AuthResponse, error) {
	access, jti, err := security.GenerateAccessToken(user.ID.Hex(), user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	refresh, err := security.GenerateRefreshToken(user.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	s.audit(ctx, jti, user, access, refresh, client.IP)
	return &AuthResponse{Access: access, Refresh: refresh, User: user}, nil
}

// logAttempt records the outcome of a credential login. Like the issuance
// audit, a write failure never fails the login itself.
func (s *AuthService) logAttempt(ctx context.Context, identifier string, user *model.User, client ClientInfo, cause error) {
	if s.loginLogs == nil {
		return
	}
	entry := &model.LoginLog{
		Identifier: identifier,
		IPAddress:  client.IP,
		UserAgent:  client.UserAgent,
		Status:     model.LoginStatusSuccess,
		CreatedAt:  time.Now().UTC(),
	}
	if user != nil {
		id := user.ID
		entry.UserID = &id
	}
	if cause != nil {
		entry.Status = model.LoginStatusFailed
		entry.Reason = common.PublicMessage(cause)
	}
	if err := s.loginLogs.Create(ctx, entry); err != nil {
		log.Printf("login log write failed: %v", err)
	}
}

func (s *AuthService) audit(ctx context.Context, jti string, user *model.User, access, refresh, clientIP string) {
	if s.sessions == nil {
		return
	}
	rec := session.Record{
		UserID:       user.ID.Hex(),
		AccessToken:  access,
		RefreshToken: refresh,
		IPAddress:    clientIP,
		ExpiresAt:    time.Now().Add(config.AppConfig.JWTRefreshExp),
	}
	if err := s.sessions.Save(ctx, jti, rec); err != nil {
		log.Printf("session audit failed for user %s: %v", user.ID.Hex(), err)
	}
}
