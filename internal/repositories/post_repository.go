package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
	"github.com/anonto42/nano-midea/threads/internal/feed"
	"github.com/anonto42/nano-midea/threads/internal/models"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetAllPosts(ctx context.Context, policy feed.Policy) ([]models.Post, error)
	DeletePost(ctx context.Context, id string) error
	AdjustLikesCount(ctx context.Context, postID string, delta int64) (int64, error)
	SetLikesCount(ctx context.Context, postID string, value int64) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureIndexes creates the indexes both feed orderings sort on
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "like_count", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
	})
	return apperr.Transient("create post indexes", err)
}

// CreatePost creates a new post in MongoDB. An empty ID gets a fresh ObjectID.
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, post)
	return apperr.Transient("insert post", err)
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		return nil, mongoErr("get post", id, err)
	}
	return &post, nil
}

// GetAllPosts retrieves every post ordered by policy
func (r *MongoPostRepository) GetAllPosts(ctx context.Context, policy feed.Policy) ([]models.Post, error) {
	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	if policy == feed.Popularity {
		sort = append(bson.D{{Key: "like_count", Value: -1}}, sort...)
	}

	cursor, err := r.collection.Find(ctx, bson.D{}, options.Find().SetSort(sort))
	if err != nil {
		return nil, apperr.Transient("list posts", err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, apperr.Transient("decode posts", err)
	}
	return posts, nil
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Transient("delete post", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("post", id)
	}
	return nil
}

// AdjustLikesCount adds delta to like_count in one update pipeline that
// clamps the result at zero, and returns the stored value.
func (r *MongoPostRepository) AdjustLikesCount(ctx context.Context, postID string, delta int64) (int64, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"like_count": bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{"$like_count", delta}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"like_count": 1})

	var post models.Post
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": postID}, update, opts).Decode(&post)
	if err != nil {
		return 0, mongoErr("adjust post likes", postID, err)
	}
	return post.LikeCount, nil
}

// SetLikesCount overwrites like_count
func (r *MongoPostRepository) SetLikesCount(ctx context.Context, postID string, value int64) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$set": bson.M{"like_count": max(value, 0)}})
	if err != nil {
		return apperr.Transient("set post likes", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("post", postID)
	}
	return nil
}

func mongoErr(op, id string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("post", id)
	}
	return apperr.Transient(op, err)
}
