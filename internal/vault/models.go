package vault

import "time"

// ConnectionProfile is a saved set of credentials for one S3-compatible
// endpoint. SecretCiphertext always holds nonce||ciphertext||tag produced by
// internal/crypto; the plaintext secret is never written to disk.
type ConnectionProfile struct {
	ID                uint   `gorm:"primaryKey"`
	ProfileName       string `gorm:"uniqueIndex;size:64;not null"`
	Endpoint          string `gorm:"not null"`
	AccessKeyID       string `gorm:"not null"`
	SecretCiphertext  []byte `gorm:"not null"`
	Bucket            string
	Region            string
	AutoDetectRegion  bool
	LastUsedAt        time.Time `gorm:"not null"`
}

func (ConnectionProfile) TableName() string { return "connections" }

// VaultMetadata is one row of a key/value table holding vault-wide values:
// one row for the KDF salt and one for the key-check canary ciphertext.
type VaultMetadata struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value []byte
}

func (VaultMetadata) TableName() string { return "metadata" }

const (
	metadataKeyEncryptionSalt = "encryption_salt"
	metadataKeyKeyCheck       = "key_check"
)

// AllModels returns every GORM model the vault schema needs, for AutoMigrate.
func AllModels() []any {
	return []any{
		&ConnectionProfile{},
		&VaultMetadata{},
	}
}
