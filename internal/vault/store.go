// Package vault implements the encrypted connection-profile store: a single
// SQLite file holding the KDF salt, a key-check canary, and every saved
// ConnectionProfile with its secret encrypted at rest.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/crypto"
	"github.com/andrewtheguy/s3browser-sub000/internal/logger"
)

// Store is the vault: GORM over a pure-Go SQLite driver, with the derived
// data key held in memory only for the lifetime of the process.
type Store struct {
	db  *gorm.DB
	key []byte
}

// Open creates (on first use) or loads the vault file at dbPath, deriving
// the data key from masterSecret and the stored (or freshly generated)
// salt, then verifying it against the key-check canary. A key or salt
// mismatch is fatal and reported as apperr.ConfigurationError, matching
// spec.md §4.1's startup consistency check.
func Open(dbPath string, masterSecret []byte) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, apperr.Wrap(apperr.ConfigurationError, "creating vault directory", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.ConfigurationError, "opening vault database", err)
	}

	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, apperr.Wrap(apperr.ConfigurationError, "migrating vault schema", err)
	}

	store := &Store{db: db}
	if err := store.establishKey(masterSecret); err != nil {
		return nil, err
	}

	return store, nil
}

// establishKey implements the initialize() operation of spec.md §4.1: on a
// fresh vault it generates a salt and canary; on an existing one it
// re-derives the key and verifies it against the stored canary.
func (s *Store) establishKey(masterSecret []byte) error {
	var saltRow VaultMetadata
	saltErr := s.db.First(&saltRow, "key = ?", metadataKeyEncryptionSalt).Error

	switch {
	case errors.Is(saltErr, gorm.ErrRecordNotFound):
		return s.initializeFresh(masterSecret)
	case saltErr != nil:
		return apperr.Wrap(apperr.ConfigurationError, "reading vault salt", saltErr)
	}

	if len(saltRow.Value) != crypto.SaltLength {
		return apperr.New(apperr.ConfigurationError, "encryption salt has unexpected length, vault file may be corrupted")
	}

	var canaryRow VaultMetadata
	canaryErr := s.db.First(&canaryRow, "key = ?", metadataKeyKeyCheck).Error
	if errors.Is(canaryErr, gorm.ErrRecordNotFound) {
		var count int64
		if err := s.db.Model(&ConnectionProfile{}).Count(&count).Error; err != nil {
			return apperr.Wrap(apperr.ConfigurationError, "checking existing connections", err)
		}
		if count > 0 {
			return apperr.New(apperr.ConfigurationError, "vault key-check canary missing but connections exist; database may be partially initialized or corrupted")
		}
		return s.writeCanary(masterSecret, saltRow.Value)
	}
	if canaryErr != nil {
		return apperr.Wrap(apperr.ConfigurationError, "reading key-check canary", canaryErr)
	}

	key := crypto.DeriveKey(masterSecret, saltRow.Value)
	plaintext, err := crypto.Decrypt(key, canaryRow.Value)
	if err != nil || string(plaintext) != crypto.Canary {
		return apperr.New(apperr.ConfigurationError, "encryption key mismatch: the provided secret does not match the key that encrypted this vault")
	}

	s.key = key
	return nil
}

func (s *Store) initializeFresh(masterSecret []byte) error {
	salt, err := crypto.NewSalt()
	if err != nil {
		return apperr.Wrap(apperr.ConfigurationError, "generating vault salt", err)
	}

	return s.writeCanary(masterSecret, salt)
}

func (s *Store) writeCanary(masterSecret []byte, salt []byte) error {
	key := crypto.DeriveKey(masterSecret, salt)
	canary, err := crypto.Encrypt(key, []byte(crypto.Canary))
	if err != nil {
		return apperr.Wrap(apperr.ConfigurationError, "sealing key-check canary", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&VaultMetadata{Key: metadataKeyEncryptionSalt, Value: salt}).Error; err != nil {
			return err
		}
		return tx.Create(&VaultMetadata{Key: metadataKeyKeyCheck, Value: canary}).Error
	})
	if err != nil {
		return apperr.Wrap(apperr.ConfigurationError, "initializing vault metadata", err)
	}

	s.key = key
	return nil
}

// SaveConnection implements spec.md §4.1's saveConnection. A nil id inserts
// (secret required); a non-nil id updates (secret optional, meaning "keep
// existing"). Duplicate profile_name returns apperr.Conflict.
func (s *Store) SaveConnection(ctx context.Context, id *uint, profileName, endpoint, accessKeyID string, secret *string, bucket, region string, autoDetect bool) (*ConnectionProfile, error) {
	now := time.Now()

	if id == nil {
		if secret == nil {
			return nil, apperr.New(apperr.InvalidInput, "secret is required when creating a new connection")
		}
		ciphertext, err := crypto.Encrypt(s.key, []byte(*secret))
		if err != nil {
			return nil, apperr.Wrap(apperr.InternalError, "sealing connection secret", err)
		}

		profile := &ConnectionProfile{
			ProfileName:      profileName,
			Endpoint:         endpoint,
			AccessKeyID:      accessKeyID,
			SecretCiphertext: ciphertext,
			Bucket:           bucket,
			Region:           region,
			AutoDetectRegion: autoDetect,
			LastUsedAt:       now,
		}

		if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
			if isUniqueConstraintError(err) {
				return nil, apperr.New(apperr.Conflict, fmt.Sprintf("a connection named %q already exists", profileName))
			}
			return nil, apperr.Wrap(apperr.InternalError, "saving connection", err)
		}
		return profile, nil
	}

	var profile ConnectionProfile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", *id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "connection not found")
		}
		return nil, apperr.Wrap(apperr.InternalError, "loading connection", err)
	}

	profile.ProfileName = profileName
	profile.Endpoint = endpoint
	profile.AccessKeyID = accessKeyID
	profile.Bucket = bucket
	profile.Region = region
	profile.AutoDetectRegion = autoDetect
	profile.LastUsedAt = now

	if secret != nil {
		ciphertext, err := crypto.Encrypt(s.key, []byte(*secret))
		if err != nil {
			return nil, apperr.Wrap(apperr.InternalError, "sealing connection secret", err)
		}
		profile.SecretCiphertext = ciphertext
	}

	if err := s.db.WithContext(ctx).Save(&profile).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperr.New(apperr.Conflict, fmt.Sprintf("a connection named %q already exists", profileName))
		}
		return nil, apperr.Wrap(apperr.InternalError, "saving connection", err)
	}

	return &profile, nil
}

// GetConnection returns the connection with the given id.
func (s *Store) GetConnection(ctx context.Context, id uint) (*ConnectionProfile, error) {
	var profile ConnectionProfile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "connection not found")
		}
		return nil, apperr.Wrap(apperr.InternalError, "loading connection", err)
	}
	return &profile, nil
}

// ListConnections returns every saved connection, most recently used first.
func (s *Store) ListConnections(ctx context.Context) ([]ConnectionProfile, error) {
	var profiles []ConnectionProfile
	if err := s.db.WithContext(ctx).Order("last_used_at DESC").Find(&profiles).Error; err != nil {
		return nil, apperr.Wrap(apperr.InternalError, "listing connections", err)
	}
	return profiles, nil
}

// DeleteConnection removes the connection with the given id, reporting
// whether a row was actually removed.
func (s *Store) DeleteConnection(ctx context.Context, id uint) (bool, error) {
	result := s.db.WithContext(ctx).Delete(&ConnectionProfile{}, "id = ?", id)
	if result.Error != nil {
		return false, apperr.Wrap(apperr.InternalError, "deleting connection", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// TouchLastUsed updates last_used_at to now for id, used whenever a
// connection is bound to a session or materializes an S3 client.
func (s *Store) TouchLastUsed(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Model(&ConnectionProfile{}).Where("id = ?", id).Update("last_used_at", time.Now()).Error
	if err != nil {
		return apperr.Wrap(apperr.InternalError, "updating last_used_at", err)
	}
	return nil
}

// DecryptSecret decrypts profile's stored secret. Callers must not retain
// the plaintext beyond the S3 client construction that needs it.
func (s *Store) DecryptSecret(ctx context.Context, profile *ConnectionProfile) (string, error) {
	plaintext, err := crypto.Decrypt(s.key, profile.SecretCiphertext)
	if err != nil {
		logger.ErrorCtx(ctx, "failed to decrypt connection secret", logger.KeyConnectionID, profile.ID)
		return "", apperr.Wrap(apperr.InternalError, "decrypting connection secret", err)
	}
	return string(plaintext), nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
