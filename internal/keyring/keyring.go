// Package keyring keeps storage connection strings in the OS keyring so they
// never land in config files.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/skillpulse/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// account returns the keyring user under which backend's DSN is stored.
func account(backend string) string {
	return constants.DefaultKeyringUser + "-" + backend
}

// GetDSN retrieves the connection string of backend.
// Returns ErrNotFound if none is stored.
func GetDSN(backend string) (string, error) {
	dsn, err := keyring.Get(constants.AppName, account(backend))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return dsn, nil
}

func SetDSN(backend, dsn string) error {
	if dsn == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := keyring.Set(constants.AppName, account(backend), dsn); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

func DeleteDSN(backend string) error {
	if err := keyring.Delete(constants.AppName, account(backend)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// IsAvailable is a best-effort probe: a read that fails with anything other
// than ErrNotFound means no usable keyring.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// Mask hides the password of a URL or key=value connection string.
func Mask(dsn string) string {
	if i := strings.Index(dsn, "://"); i != -1 {
		rest := dsn[i+3:]
		if at := strings.LastIndex(rest, "@"); at != -1 {
			userInfo := rest[:at]
			if colon := strings.Index(userInfo, ":"); colon != -1 {
				return dsn[:i+3] + userInfo[:colon] + ":****" + rest[at:]
			}
		}
		return dsn
	}

	if !strings.Contains(dsn, "password=") {
		return dsn
	}
	parts := strings.Fields(dsn)
	for i, p := range parts {
		if strings.HasPrefix(p, "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
