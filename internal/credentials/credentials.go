// Package credentials stores the Dexcom Share login in the OS keyring
// (macOS Keychain, Windows Credential Manager, Linux Secret Service).
//
// The username and password live as two secrets under the "dexcom" service,
// with account names "username" and "password".
package credentials

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	// Service is the keyring service name both secrets are stored under.
	Service = "dexcom"

	usernameKey = "username"
	passwordKey = "password"
)

// ErrNotFound is returned by Load when no complete credential pair is stored.
var ErrNotFound = errors.New("credentials not found")

// Credentials is a Dexcom Share login.
type Credentials struct {
	Username string
	Password string
}

// Complete reports whether both fields are set.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// Store reads, writes and deletes the stored credential pair.
type Store interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Delete() error
}

// Keyring is a Store backed by the OS keyring.
type Keyring struct {
	service string
}

// NewKeyring returns a keyring store for the standard service name.
func NewKeyring() *Keyring {
	return &Keyring{service: Service}
}

// Load returns the stored credentials, or ErrNotFound if either half is
// missing or empty.
func (k *Keyring) Load() (Credentials, error) {
	username, err := k.get(usernameKey)
	if err != nil {
		return Credentials{}, err
	}

	password, err := k.get(passwordKey)
	if err != nil {
		return Credentials{}, err
	}

	creds := Credentials{Username: username, Password: password}
	if !creds.Complete() {
		return Credentials{}, ErrNotFound
	}

	return creds, nil
}

// Save writes both secrets. Incomplete credentials are rejected.
func (k *Keyring) Save(creds Credentials) error {
	if !creds.Complete() {
		return fmt.Errorf("save credentials: username and password are required")
	}

	if err := keyring.Set(k.service, usernameKey, creds.Username); err != nil {
		return fmt.Errorf("save username: %w", err)
	}

	if err := keyring.Set(k.service, passwordKey, creds.Password); err != nil {
		return fmt.Errorf("save password: %w", err)
	}

	return nil
}

// Delete removes both secrets. Missing entries are not an error.
func (k *Keyring) Delete() error {
	var errs []error

	for _, key := range []string{usernameKey, passwordKey} {
		if err := keyring.Delete(k.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

func (k *Keyring) get(key string) (string, error) {
	value, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}

	if err != nil {
		return "", fmt.Errorf("read %s from keyring: %w", key, err)
	}

	return value, nil
}
