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

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	ApproveActionApprove = "approve"
	ApproveActionReject  = "reject"
)

type AdminService struct {
	userRepo repository.UserRepository
}

func NewAdminService(userRepo repository.UserRepository) *AdminService {
	return &AdminService{userRepo: userRepo}
}

type ApproveRequest struct {
	UserID string `json:"user_id"`
	Action string `json:"action"` // approve or reject
}

type StatusUpdateRequest struct {
	Email  string `json:"email"`
	Status string `json:"status"` // ACTIVE or BLOCKED
}

// Approve decides a pending MOD/ADMIN registration: approve activates the
// account, reject blocks it. Approving an already-ACTIVE privileged account
// is a no-op success.
func (s *AdminService) Approve(ctx context.Context, actor *model.User, req ApproveRequest) (*model.User, error) {
	if err := requireActiveAdmin(actor); err != nil {
		return nil, err
	}
	if req.Action != ApproveActionApprove && req.Action != ApproveActionReject {
		return nil, fmt.Errorf("%w: action must be approve or reject", common.ErrValidation)
	}
	targetID, err := bson.ObjectIDFromHex(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", common.ErrValidation)
	}

	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !target.IsPrivileged() {
		return nil, fmt.Errorf("%w: only moderator or admin accounts go through approval", common.ErrBadRequest)
	}
	if req.Action == ApproveActionApprove && target.Status == model.StatusActive {
		return target, nil
	}

	newStatus := model.StatusActive
	if req.Action == ApproveActionReject {
		newStatus = model.StatusBlocked
	}
	updated, err := s.userRepo.UpdateStatus(ctx, targetID, newStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	return updated, nil
}

// SetStatusByEmail blocks or unblocks an account selected by its email,
// which is what operator tooling keys on.
func (s *AdminService) SetStatusByEmail(ctx context.Context, actor *model.User, req StatusUpdateRequest) (*model.User, error) {
	if err := requireActiveAdmin(actor); err != nil {
		return nil, err
	}
	if req.Status != model.StatusActive && req.Status != model.StatusBlocked {
		return nil, fmt.Errorf("%w: status must be ACTIVE or BLOCKED", common.ErrValidation)
	}
	if req.Email == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrValidation)
	}

	updated, err := s.userRepo.UpdateStatusByEmail(ctx, req.Email, req.Status)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	return updated, nil
}

// ListPending returns MOD/ADMIN accounts awaiting approval, newest first.
func (s *AdminService) ListPending(ctx context.Context, actor *model.User) ([]model.User, error) {
	if err := requireActiveAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListPendingPrivileged(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending accounts: %w", err)
	}
	return users, nil
}

// ListUsers returns every account, newest first.
func (s *AdminService) ListUsers(ctx context.Context, actor *model.User) ([]model.User, error) {
	if err := requireActiveAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// EnsureBootstrapAdmin creates (or repairs) the configured seed admin so a
// fresh deployment always has one ACTIVE admin to approve the rest. No-op
// when the bootstrap credentials are not configured.
func (s *AdminService) EnsureBootstrapAdmin(ctx context.Context, username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return nil
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		if existing.Role == model.RoleAdmin && existing.Status == model.StatusActive {
			return nil
		}
		hashedPassword, herr := security.HashPassword(password)
		if herr != nil {
			return fmt.Errorf("failed to hash bootstrap password: %w", herr)
		}
		if _, err := s.userRepo.Promote(ctx, existing.ID, model.RoleAdmin, model.StatusActive, hashedPassword); err != nil {
			return fmt.Errorf("failed to promote bootstrap admin: %w", err)
		}
		log.Printf("Bootstrap admin %q promoted to ACTIVE ADMIN", username)
		return nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("failed to check bootstrap admin: %w", err)
	}

	hashedPassword, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}
	admin := &model.User{
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           model.RoleAdmin,
		Status:         model.StatusActive,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	log.Printf("Bootstrap admin %q created", username)
	return nil
}

func requireActiveAdmin(actor *model.User) error {
	if actor == nil || actor.Role != model.RoleAdmin || actor.Status != model.StatusActive {
		return fmt.Errorf("%w: admin access required", common.ErrForbidden)
	}
	return nil
}
