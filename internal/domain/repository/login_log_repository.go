package repository

import (
	"context"
	"fmt"

	"quizgen/internal/domain/model"
	"quizgen/internal/platform/database"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const loginLogsCollection = "login_logs"

type LoginLogRepository interface {
	Create(ctx context.Context, entry *model.LoginLog) error
}

type mongoLoginLogRepository struct {
	db *database.Mongo
}

func NewMongoLoginLogRepository(db *database.Mongo) LoginLogRepository {
	return &mongoLoginLogRepository{db: db}
}

func (r *mongoLoginLogRepository) Create(ctx context.Context, entry *model.LoginLog) error {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	coll, err := r.db.Collection(ctx, loginLogsCollection)
	if err != nil {
		return fmt.Errorf("mongoLoginLogRepository.Create: %w", err)
	}
	if entry.ID.IsZero() {
		entry.ID = bson.NewObjectID()
	}
	if _, err := coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("mongoLoginLogRepository.Create: %w", err)
	}
	return nil
}
