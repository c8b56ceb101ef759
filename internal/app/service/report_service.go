package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizgen/internal/common"
	"quizgen/internal/domain/model"
	"quizgen/internal/domain/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ReportService struct {
	reportRepo repository.ReportRepository
}

func NewReportService(reportRepo repository.ReportRepository) *ReportService {
	return &ReportService{reportRepo: reportRepo}
}

type CreateReportRequest struct {
	TargetUserID string `json:"target_user_id,omitempty"`
	QuestionID   string `json:"question_id,omitempty"`
	Reason       string `json:"reason"`
}

type ResolveReportRequest struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"` // RESOLVED or REJECTED
}

// Create files a new PENDING report on behalf of the reporter.
func (s *ReportService) Create(ctx context.Context, reporter *model.User, req CreateReportRequest) (*model.Report, error) {
	if req.Reason == "" {
		return nil, fmt.Errorf("%w: reason is required", common.ErrValidation)
	}

	report := &model.Report{
		ReporterID: reporter.ID,
		Reason:     req.Reason,
		Status:     model.ReportStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if req.TargetUserID != "" {
		oid, err := bson.ObjectIDFromHex(req.TargetUserID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid target user id", common.ErrValidation)
		}
		report.TargetUserID = &oid
	}
	if req.QuestionID != "" {
		oid, err := bson.ObjectIDFromHex(req.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid question id", common.ErrValidation)
		}
		report.QuestionID = &oid
	}

	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return report, nil
}

// List returns every report, newest first. Admin only.
func (s *ReportService) List(ctx context.Context, actor *model.User) ([]model.Report, error) {
	if err := requireActiveAdmin(actor); err != nil {
		return nil, err
	}
	reports, err := s.reportRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// Resolve moves a PENDING report into one of the terminal states, stamping
// resolved_by and resolved_at. RESOLVED and REJECTED are final: touching a
// report that already left PENDING is a conflict, not a silent overwrite.
func (s *ReportService) Resolve(ctx context.Context, actor *model.User, req ResolveReportRequest) (*model.Report, error) {
	if err := requireActiveAdmin(actor); err != nil {
		return nil, err
	}
	if req.Status != model.ReportStatusResolved && req.Status != model.ReportStatusRejected {
		return nil, fmt.Errorf("%w: status must be RESOLVED or REJECTED", common.ErrValidation)
	}
	reportID, err := bson.ObjectIDFromHex(req.ReportID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid report id", common.ErrValidation)
	}

	updated, err := s.reportRepo.Resolve(ctx, reportID, req.Status, actor.ID, time.Now().UTC())
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to resolve report: %w", err)
	}

	// No PENDING report matched: either it does not exist, or it has
	// already been decided.
	if _, ferr := s.reportRepo.FindByID(ctx, reportID); ferr == nil {
		return nil, fmt.Errorf("%w: report already resolved", common.ErrConflict)
	} else if errors.Is(ferr, common.ErrNotFound) {
		return nil, common.ErrNotFound
	} else {
		return nil, fmt.Errorf("failed to resolve report: %w", ferr)
	}
}
