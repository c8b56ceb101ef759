package repository

import (
	"context"
	"errors"
	"fmt"

	"quizgen/internal/common"
	"quizgen/internal/domain/model"
	"quizgen/internal/platform/database"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const usersCollection = "users"

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id bson.ObjectID) (*model.User, error)
	// FindByRawID looks a document up with the given value as its literal _id,
	// without reinterpreting it as an ObjectID.
	FindByRawID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateStatus(ctx context.Context, id bson.ObjectID, status string) (*model.User, error)
	UpdateStatusByEmail(ctx context.Context, email, status string) (*model.User, error)
	// Promote sets role, status and password digest in one atomic update.
	Promote(ctx context.Context, id bson.ObjectID, role, status, hashedPassword string) (*model.User, error)
	ListPendingPrivileged(ctx context.Context) ([]model.User, error)
	ListAll(ctx context.Context) ([]model.User, error)
}

type mongoUserRepository struct {
	db *database.Mongo
}

func NewMongoUserRepository(db *database.Mongo) UserRepository {
	return &mongoUserRepository{db: db}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	coll, err := r.db.Collection(ctx, usersCollection)
	if err != nil {
		return fmt.Errorf("mongoUserRepository.Create: %w", err)
	}
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	if _, err := coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("mongoUserRepository.Create: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id bson.ObjectID) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) FindByRawID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) UpdateStatus(ctx context.Context, id bson.ObjectID, status string) (*model.User, error) {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
}

func (r *mongoUserRepository) UpdateStatusByEmail(ctx context.Context, email, status string) (*model.User, error) {
	return r.updateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"status": status}})
}

func (r *mongoUserRepository) Promote(ctx context.Context, id bson.ObjectID, role, status, hashedPassword string) (*model.User, error) {
	update := bson.M{"$set": bson.M{"role": role, "status": status, "password": hashedPassword}}
	return r.updateOne(ctx, bson.M{"_id": id}, update)
}

func (r *mongoUserRepository) ListPendingPrivileged(ctx context.Context) ([]model.User, error) {
	filter := bson.M{
		"status": model.StatusPending,
		"role":   bson.M{"$in": []string{model.RoleMod, model.RoleAdmin}},
	}
	return r.list(ctx, filter)
}

func (r *mongoUserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	return r.list(ctx, bson.M{})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	coll, err := r.db.Collection(ctx, usersCollection)
	if err != nil {
		return nil, fmt.Errorf("mongoUserRepository.findOne: %w", err)
	}
	user := &model.User{}
	if err := coll.FindOne(ctx, filter).Decode(user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongoUserRepository.findOne: %w", err)
	}
	return user, nil
}

func (r *mongoUserRepository) updateOne(ctx context.Context, filter, update bson.M) (*model.User, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	coll, err := r.db.Collection(ctx, usersCollection)
	if err != nil {
		return nil, fmt.Errorf("mongoUserRepository.updateOne: %w", err)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	user := &model.User{}
	if err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongoUserRepository.updateOne: %w", err)
	}
	return user, nil
}

func (r *mongoUserRepository) list(ctx context.Context, filter bson.M) ([]model.User, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	coll, err := r.db.Collection(ctx, usersCollection)
	if err != nil {
		return nil, fmt.Errorf("mongoUserRepository.list: %w", err)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongoUserRepository.list: %w", err)
	}
	var users []model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("mongoUserRepository.list: %w", err)
	}
	return users, nil
}
