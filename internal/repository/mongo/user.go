package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/snippet-vault/internal/apperror"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

const userNotFound = "User not found."

type UserRepository struct {
	coll *mongo.Collection
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	GitHubID     int64              `bson:"github_id"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (d userDoc) toModel() *model.User {
	return &model.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		GitHubID:     d.GitHubID,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

// duplicateField names the unique index a duplicate-key error was raised on.
func duplicateField(err error) string {
	msg := err.Error()
	for _, field := range []string{"username", "email", "github_id"} {
		if strings.Contains(msg, field) {
			return field
		}
	}
	return "user"
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	doc := userDoc{
		ID:           primitive.NewObjectID(),
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		GitHubID:     user.GitHubID,
		CreatedAt:    time.Now(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			field := duplicateField(err)
			return apperror.Conflict(field, fmt.Sprintf("%s already exists", field))
		}
		return fmt.Errorf("mongo: inserting user: %w", err)
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt = doc.CreatedAt
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperror.NotFound(userNotFound)
		}
		return nil, fmt.Errorf("mongo: finding user: %w", err)
	}
	return doc.toModel(), nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := objectID(id, userNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// UpsertGitHub mirrors the sqlite behaviour: keep ID and username of an
// existing linked account, refresh its email.
func (r *UserRepository) UpsertGitHub(ctx context.Context, user *model.User) error {
	existing, err := r.findOne(ctx, bson.M{"github_id": user.GitHubID})
	if err != nil {
		if apperrorIsNotFound(err) {
			return r.Create(ctx, user)
		}
		return err
	}

	if user.Email != "" && user.Email != existing.Email {
		oid, _ := primitive.ObjectIDFromHex(existing.ID)
		if _, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"email": user.Email}}); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return apperror.Conflict("email", "email already exists")
			}
			return fmt.Errorf("mongo: updating user %s: %w", existing.ID, err)
		}
		existing.Email = user.Email
	}

	*user = *existing
	return nil
}
