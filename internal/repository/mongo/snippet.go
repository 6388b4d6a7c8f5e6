package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/snippet-vault/internal/apperror"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/repository"
)

var _ repository.SnippetRepository = (*SnippetRepository)(nil)

const snippetNotFound = "Snippet not found."

type SnippetRepository struct {
	coll *mongo.Collection
}

type snippetDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Language  string             `bson:"language"`
	Code      string             `bson:"code"`
	Usecase   string             `bson:"usecase"`
	Tags      []string           `bson:"tags"`
	CreatedBy primitive.ObjectID `bson:"created_by"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d snippetDoc) toModel() model.Snippet {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return model.Snippet{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Language:  model.Language(d.Language),
		Code:      d.Code,
		Usecase:   d.Usecase,
		Tags:      tags,
		CreatedBy: d.CreatedBy.Hex(),
		CreatedAt: d.CreatedAt.UTC(),
	}
}

func (r *SnippetRepository) Create(ctx context.Context, snippet *model.Snippet) error {
	owner, err := primitive.ObjectIDFromHex(snippet.CreatedBy)
	if err != nil {
		return fmt.Errorf("mongo: invalid owner id %q: %w", snippet.CreatedBy, err)
	}
	if snippet.CreatedAt.IsZero() {
		snippet.CreatedAt = time.Now()
	}
	tags := snippet.Tags
	if tags == nil {
		tags = []string{}
	}

	doc := snippetDoc{
		ID:        primitive.NewObjectID(),
		Title:     snippet.Title,
		Language:  string(snippet.Language),
		Code:      snippet.Code,
		Usecase:   snippet.Usecase,
		Tags:      tags,
		CreatedBy: owner,
		CreatedAt: snippet.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: inserting snippet: %w", err)
	}

	snippet.ID = doc.ID.Hex()
	return nil
}

func (r *SnippetRepository) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	oid, err := objectID(id, snippetNotFound)
	if err != nil {
		return nil, err
	}

	var doc snippetDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperror.NotFound(snippetNotFound)
		}
		return nil, fmt.Errorf("mongo: finding snippet %s: %w", id, err)
	}

	s := doc.toModel()
	return &s, nil
}

func (r *SnippetRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Snippet, error) {
	snippets := make([]model.Snippet, 0)

	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return snippets, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"created_by": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing snippets: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc snippetDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decoding snippet: %w", err)
		}
		snippets = append(snippets, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo: iterating snippets: %w", err)
	}

	return snippets, nil
}

// Update sets the editable fields only; created_by and created_at are never
// part of the $set document.
func (r *SnippetRepository) Update(ctx context.Context, snippet *model.Snippet) error {
	oid, err := objectID(snippet.ID, snippetNotFound)
	if err != nil {
		return err
	}
	tags := snippet.Tags
	if tags == nil {
		tags = []string{}
	}

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"title":    snippet.Title,
		"language": string(snippet.Language),
		"code":     snippet.Code,
		"usecase":  snippet.Usecase,
		"tags":     tags,
	}})
	if err != nil {
		return fmt.Errorf("mongo: updating snippet %s: %w", snippet.ID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound(snippetNotFound)
	}
	return nil
}

func (r *SnippetRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, snippetNotFound)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo: deleting snippet %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound(snippetNotFound)
	}
	return nil
}
