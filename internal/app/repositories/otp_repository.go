package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/db"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// OTPStore persists at most one pending code per (identifier, purpose).
// Save replaces any earlier code, attempts included.
type OTPStore interface {
	Save(ctx context.Context, otp *models.OTP) error
	Get(ctx context.Context, identifier string, purpose models.OTPPurpose) (*models.OTP, error)
	// IncrementAttempts records a failed check and returns the new count
	IncrementAttempts(ctx context.Context, identifier string, purpose models.OTPPurpose) (int, error)
	Delete(ctx context.Context, identifier string, purpose models.OTPPurpose) error
}

// PostgresOTPStore keeps codes in the otps table. Expired rows are
// ignored on read and overwritten on the next Save.
type PostgresOTPStore struct {
	db db.DBTX
}

// NewPostgresOTPStore creates a new PostgresOTPStore
func NewPostgresOTPStore(conn db.DBTX) *PostgresOTPStore {
	return &PostgresOTPStore{db: conn}
}

// Save upserts the code for an identifier
func (s *PostgresOTPStore) Save(ctx context.Context, otp *models.OTP) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO otps (identifier, purpose, code_hash, created_at, expires_at, attempts)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (identifier, purpose) DO UPDATE SET
			code_hash = EXCLUDED.code_hash,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at,
			attempts = EXCLUDED.attempts`,
		otp.Identifier, otp.Purpose, otp.CodeHash, otp.CreatedAt, otp.ExpiresAt, otp.Attempts)
	if err != nil {
		logger.Error().Err(err).Str("identifier", otp.Identifier).Msg("Error saving OTP")
		return fmt.Errorf("error saving otp: %w", err)
	}
	return nil
}

// Get returns the pending code. Expired codes read as not found.
func (s *PostgresOTPStore) Get(ctx context.Context, identifier string, purpose models.OTPPurpose) (*models.OTP, error) {
	var otp models.OTP
	err := s.db.QueryRow(ctx, `
		SELECT identifier, purpose, code_hash, created_at, expires_at, attempts
		FROM otps
		WHERE identifier = $1 AND purpose = $2 AND expires_at > NOW()`,
		identifier, purpose).Scan(&otp.Identifier, &otp.Purpose, &otp.CodeHash, &otp.CreatedAt, &otp.ExpiresAt, &otp.Attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrResourceNotFound
		}
		return nil, fmt.Errorf("error reading otp: %w", err)
	}
	return &otp, nil
}

// IncrementAttempts bumps the failure counter of a pending code
func (s *PostgresOTPStore) IncrementAttempts(ctx context.Context, identifier string, purpose models.OTPPurpose) (int, error) {
	var attempts int
	err := s.db.QueryRow(ctx, `
		UPDATE otps SET attempts = attempts + 1
		WHERE identifier = $1 AND purpose = $2
		RETURNING attempts`,
		identifier, purpose).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrResourceNotFound
		}
		return 0, fmt.Errorf("error counting otp attempt: %w", err)
	}
	return attempts, nil
}

// Delete consumes a code
func (s *PostgresOTPStore) Delete(ctx context.Context, identifier string, purpose models.OTPPurpose) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM otps WHERE identifier = $1 AND purpose = $2`, identifier, purpose); err != nil {
		return fmt.Errorf("error deleting otp: %w", err)
	}
	return nil
}

// MongoOTPStore keeps codes in a MongoDB collection with a TTL index on createdAt
type MongoOTPStore struct {
	coll *mongo.Collection
	ttl  time.Duration
}

// NewMongoOTPStore creates a new MongoOTPStore
func NewMongoOTPStore(database *mongo.Database, collection string, ttl time.Duration) *MongoOTPStore {
	return &MongoOTPStore{coll: database.Collection(collection), ttl: ttl}
}

// EnsureIndexes creates the TTL index and the (identifier, purpose) unique index
func (s *MongoOTPStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(s.ttl.Seconds())),
		},
		{
			Keys:    bson.D{{Key: "identifier", Value: 1}, {Key: "purpose", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create otp indexes: %w", err)
	}
	return nil
}

func otpFilter(identifier string, purpose models.OTPPurpose) bson.M {
	return bson.M{"identifier": identifier, "purpose": purpose}
}

// Save upserts the code for an identifier
func (s *MongoOTPStore) Save(ctx context.Context, otp *models.OTP) error {
	_, err := s.coll.ReplaceOne(ctx, otpFilter(otp.Identifier, otp.Purpose), otp, options.Replace().SetUpsert(true))
	if err != nil {
		logger.Error().Err(err).Str("identifier", otp.Identifier).Msg("Error saving OTP")
		return fmt.Errorf("error saving otp: %w", err)
	}
	return nil
}

// Get returns the pending code. The TTL monitor runs about once a minute,
// so expiry is also checked here.
func (s *MongoOTPStore) Get(ctx context.Context, identifier string, purpose models.OTPPurpose) (*models.OTP, error) {
	var otp models.OTP
	err := s.coll.FindOne(ctx, otpFilter(identifier, purpose)).Decode(&otp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrResourceNotFound
		}
		return nil, fmt.Errorf("error reading otp: %w", err)
	}
	if otp.Expired(time.Now()) {
		return nil, apperrors.ErrResourceNotFound
	}
	return &otp, nil
}

// IncrementAttempts bumps the failure counter of a pending code
func (s *MongoOTPStore) IncrementAttempts(ctx context.Context, identifier string, purpose models.OTPPurpose) (int, error) {
	var otp models.OTP
	err := s.coll.FindOneAndUpdate(ctx,
		otpFilter(identifier, purpose),
		bson.M{"$inc": bson.M{"attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&otp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, apperrors.ErrResourceNotFound
		}
		return 0, fmt.Errorf("error counting otp attempt: %w", err)
	}
	return otp.Attempts, nil
}

// Delete consumes a code
func (s *MongoOTPStore) Delete(ctx context.Context, identifier string, purpose models.OTPPurpose) error {
	if _, err := s.coll.DeleteOne(ctx, otpFilter(identifier, purpose)); err != nil {
		return fmt.Errorf("error deleting otp: %w", err)
	}
	return nil
}
