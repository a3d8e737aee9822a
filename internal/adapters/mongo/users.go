package mongo

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewUserRepository(db *mongo.Database, logger observability.Logger) *UserRepository {
	return &UserRepository{
		coll:   db.Collection("users"),
		logger: logger,
	}
}

type UserDoc struct {
	ID        uuid.UUID `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	Role      string    `bson:"role"`
	Avatar    string    `bson:"avatar"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d UserDoc) toDomain() domain.User {
	return domain.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         domain.Role(d.Role),
		Avatar:       d.Avatar,
		CreatedAt:    d.CreatedAt,
	}
}

func (u *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := u.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return errors.Wrap(err, "create users email index")
}

func (u *UserRepository) findOne(ctx context.Context, filter bson.M) (domain.User, error) {
	var doc UserDoc
	err := u.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		u.logger.WithError(err).Error("failed to get user")
		return domain.User{}, errors.Wrap(err, "get user")
	}
	return doc.toDomain(), nil
}

func (u *UserRepository) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return u.findOne(ctx, bson.M{"_id": id})
}

func (u *UserRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return u.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (u *UserRepository) CreateUser(ctx context.Context, user domain.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	_, err := u.coll.InsertOne(ctx, UserDoc{
		ID:        user.ID,
		Name:      user.Name,
		Email:     strings.ToLower(strings.TrimSpace(user.Email)),
		Password:  user.PasswordHash,
		Role:      string(user.Role),
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
		UpdatedAt: now,
	})
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrapf(domain.ErrConflict, "email %s already registered", user.Email)
	}
	if err != nil {
		u.logger.WithError(err).Error("failed to create user")
		return errors.Wrap(err, "create user")
	}
	return nil
}

func (u *UserRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) (domain.User, error) {
	var doc UserDoc
	err := u.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"avatar": avatar, "updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		u.logger.WithError(err).Error("failed to update avatar")
		return domain.User{}, errors.Wrap(err, "update avatar")
	}
	return doc.toDomain(), nil
}

func (u *UserRepository) DeleteAll(ctx context.Context) error {
	_, err := u.coll.DeleteMany(ctx, bson.M{})
	return errors.Wrap(err, "delete users")
}
