// Package config loads the two startup secrets and the on-disk layout
// described in spec.md's CLI section: a home directory holding the vault
// database and, optionally, the encryption key and login password, each
// overridable by an environment variable that takes precedence over its
// file.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
)

const (
	// EnvPrefix is the common prefix for every s3browser environment
	// variable, bound through viper the way the teacher binds its own
	// DITTOFS_* variables.
	EnvPrefix = "S3BROWSER"

	dirName           = ".s3browser"
	dbFileName        = "s3browser.db"
	encryptionKeyFile = "encryption.key"
	loginPasswordFile = "login.password"

	minEncryptionKeyLength = 32
	minLoginPasswordLength = 16
)

// Secrets holds the two process-wide secrets every startup needs: the
// vault's master encryption secret and the single login password.
type Secrets struct {
	EncryptionKey string
	LoginPassword string
}

// Dir returns ~/.s3browser, creating it with mode 0700 if it does not
// already exist.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", apperr.Wrap(apperr.ConfigurationError, "resolving home directory", err)
	}

	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", apperr.Wrap(apperr.ConfigurationError, "creating "+dir, err)
	}

	return dir, nil
}

// DBPath returns the path to the vault database file under Dir().
func DBPath(dir string) string {
	return filepath.Join(dir, dbFileName)
}

// LoadSecrets resolves the encryption key and login password per spec.md's
// on-disk layout: an environment variable, bound through viper, always
// wins over the corresponding file in dir; when neither is present it is a
// fatal apperr.ConfigurationError, matching §7's "missing password" case.
func LoadSecrets(dir string) (*Secrets, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("encryption_key")
	_ = v.BindEnv("login_password")

	key, err := resolveSecret(v, "encryption_key", filepath.Join(dir, encryptionKeyFile), minEncryptionKeyLength, "encryption key")
	if err != nil {
		return nil, err
	}

	password, err := resolveSecret(v, "login_password", filepath.Join(dir, loginPasswordFile), minLoginPasswordLength, "login password")
	if err != nil {
		return nil, err
	}

	return &Secrets{EncryptionKey: key, LoginPassword: password}, nil
}

// resolveSecret reads name from the environment (via v, already bound by
// LoadSecrets) or, failing that, from path, rejecting whichever value it
// finds if it is shorter than minLen.
func resolveSecret(v *viper.Viper, envKey, path string, minLen int, label string) (string, error) {
	if fromEnv := v.GetString(envKey); fromEnv != "" {
		if len(fromEnv) < minLen {
			return "", apperr.Newf(apperr.ConfigurationError, "%s from environment is too short, need at least %d characters", label, minLen)
		}
		return fromEnv, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperr.Newf(apperr.ConfigurationError, "%s not set: expected env %s_%s or file %s", label, EnvPrefix, strings.ToUpper(envKey), path)
		}
		return "", apperr.Wrap(apperr.ConfigurationError, "stating "+path, err)
	}
	if info.Mode().Perm() != 0o600 {
		return "", apperr.Newf(apperr.ConfigurationError, "%s has wrong permissions %s, expected 0600: chmod 0600 %s", label, info.Mode().Perm(), path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", apperr.Wrap(apperr.ConfigurationError, "reading "+path, err)
	}

	value := strings.TrimSpace(string(raw))
	if len(value) < minLen {
		return "", apperr.Newf(apperr.ConfigurationError, "%s in %s is too short, need at least %d characters", label, path, minLen)
	}

	return value, nil
}
