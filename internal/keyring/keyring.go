package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/hemma/internal/constants"
)

var (
	// ErrNotFound is returned when no credential is stored in the keyring
	ErrNotFound = errors.New("credential not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// GetToken retrieves the sync endpoint bearer token from the OS keyring.
// Returns ErrNotFound if the user has never signed in or has signed out.
func GetToken() (string, error) {
	token, err := keyring.Get(constants.AppName, constants.DefaultKeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return token, nil
}

// SetToken stores the bearer token in the OS keyring.
func SetToken(token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if err := keyring.Set(constants.AppName, constants.DefaultKeyringUser, token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

// DeleteToken removes the bearer token. Deleting a missing token is not an error.
func DeleteToken() error {
	err := keyring.Delete(constants.AppName, constants.DefaultKeyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
