package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizgen/internal/common"
	"quizgen/internal/domain/model"
	"quizgen/internal/platform/database"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const reportsCollection = "reports"

type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	FindByID(ctx context.Context, id bson.ObjectID) (*model.Report, error)
	// ListAll returns every report, newest first.
	ListAll(ctx context.Context) ([]model.Report, error)
	// Resolve moves a PENDING report to the given terminal status, stamping
	// resolved_by/resolved_at in the same atomic update. Returns ErrNotFound
	// when no PENDING report matches the id, which callers must disambiguate
	// from a missing report.
	Resolve(ctx context.Context, id bson.ObjectID, status string, resolvedBy bson.ObjectID, resolvedAt time.Time) (*model.Report, error)
}

type mongoReportRepository struct {
	db *database.Mongo
}

func NewMongoReportRepository(db *database.Mongo) ReportRepository {
	return &mongoReportRepository{db: db}
}

func (r *mongoReportRepository) Create(ctx context.Context, report *model.Report) error {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	coll, err := r.db.Collection(ctx, reportsCollection)
	if err != nil {
		return fmt.Errorf("mongoReportRepository.Create: %w", err)
	}
	if report.ID.IsZero() {
		report.ID = bson.NewObjectID()
	}
	if _, err := coll.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("mongoReportRepository.Create: %w", err)
	}
	return nil
}

func (r *mongoReportRepository) FindByID(ctx context.Context, id bson.ObjectID) (*model.Report, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	coll, err := r.db.Collection(ctx, reportsCollection)
	if err != nil {
		return nil, fmt.Errorf("mongoReportRepository.FindByID: %w", err)
	}
	report := &model.Report{}
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(report); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongoReportRepository.FindByID: %w", err)
	}
	return report, nil
}

func (r *mongoReportRepository) ListAll(ctx context.Context) ([]model.Report, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	coll, err := r.db.Collection(ctx, reportsCollection)
	if err != nil {
		return nil, fmt.Errorf("mongoReportRepository.ListAll: %w", err)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongoReportRepository.ListAll: %w", err)
	}
	var reports []model.Report
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("mongoReportRepository.ListAll: %w", err)
	}
	return reports, nil
}

func (r *mongoReportRepository) Resolve(ctx context.Context, id bson.ObjectID, status string, resolvedBy bson.ObjectID, resolvedAt time.Time) (*model.Report, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	coll, err := r.db.Collection(ctx, reportsCollection)
	if err != nil {
		return nil, fmt.Errorf("mongoReportRepository.Resolve: %w", err)
	}

	// The PENDING filter makes the transition one-way: a report that has
	// already left PENDING can never be re-resolved.
	filter := bson.M{"_id": id, "status": model.ReportStatusPending}
	update := bson.M{"$set": bson.M{
		"status":      status,
		"resolved_by": resolvedBy,
		"resolved_at": resolvedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	report := &model.Report{}
	if err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(report); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongoReportRepository.Resolve: %w", err)
	}
	return report, nil
}
