package mongo

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AvatarStore keeps uploaded avatar images in the "avatars" GridFS bucket.
type AvatarStore struct {
	bucket *gridfs.Bucket
	logger observability.Logger
}

func NewAvatarStore(db *mongo.Database, logger observability.Logger) (*AvatarStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("avatars"))
	if err != nil {
		return nil, errors.Wrap(err, "open avatars bucket")
	}
	return &AvatarStore{bucket: bucket, logger: logger}, nil
}

type avatarMeta struct {
	UserID      uuid.UUID `bson:"user_id"`
	ContentType string    `bson:"content_type"`
}

// SaveAvatar streams r into the bucket and returns the new file id in hex.
func (s *AvatarStore) SaveAvatar(ctx context.Context, userID uuid.UUID, filename, contentType string, r io.Reader) (string, error) {
	opts := options.GridFSUpload().SetMetadata(avatarMeta{UserID: userID, ContentType: contentType})
	id, err := s.bucket.UploadFromStream(filename, r, opts)
	if err != nil {
		s.logger.WithError(err).Error("failed to store avatar")
		return "", errors.Wrap(err, "upload avatar")
	}
	return id.Hex(), nil
}

// OpenAvatar returns a reader over the stored file and its content type.
func (s *AvatarStore) OpenAvatar(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	oid, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, "", errors.Wrap(domain.ErrNotFound, "malformed avatar id")
	}
	stream, err := s.bucket.OpenDownloadStream(oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, "", domain.ErrNotFound
	}
	if err != nil {
		return nil, "", errors.Wrap(err, "open avatar")
	}
	var meta avatarMeta
	if raw := stream.GetFile().Metadata; raw != nil {
		if err := bson.Unmarshal(raw, &meta); err != nil {
			s.logger.WithError(err).Warn("avatar metadata unreadable")
		}
	}
	if meta.ContentType == "" {
		meta.ContentType = "application/octet-stream"
	}
	return stream, meta.ContentType, nil
}
