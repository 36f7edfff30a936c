package repositories

import (
	"context"
	"errors"
	"fmt"

	"taskmanager/backend/logging"
	"taskmanager/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(collection *mongo.Collection) *UserRepo {
	return &UserRepo{collection: collection}
}

// EnsureIndexes creates the unique index backing email uniqueness.
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.M{"email": 1},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create unique index on user email: %w", err)
	}
	logging.Logger.Info("Event ID: DB_USER_INDEXES_READY, Description: Unique index on user email created")
	return nil
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepo) FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users by id: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to parse users: %w", err)
	}
	return users, nil
}

// FindUsers lists users with the given role, or every user when role is empty.
func (r *UserRepo) FindUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to parse users: %w", err)
	}
	return users, nil
}

func (r *UserRepo) InsertUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (r *UserRepo) SaveUser(ctx context.Context, user *models.User) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user %s: %w", user.ID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
