package secret

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// keychainNotFound is the exit status of `security` for a missing item.
const keychainNotFound = 44

// runner executes the `security` CLI and returns its stdout.
type runner func(args ...string) ([]byte, error)

func runSecurity(args ...string) ([]byte, error) {
	cmd := exec.Command("security", args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s: %w", strings.TrimSpace(string(exitErr.Stderr)), err)
		}
	}
	return out, err
}

// KeychainStore keeps storage credentials in the macOS login Keychain as
// generic passwords, one account per secret key.
type KeychainStore struct {
	service string
	run     runner
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{service: "pagebuilder", run: runSecurity}
}

// Set creates or replaces the password for key.
func (k *KeychainStore) Set(key string, value []byte) error {
	_, err := k.run("add-generic-password", "-U", "-a", key, "-s", k.service, "-w", string(value))
	if err != nil {
		return fmt.Errorf("keychain set %s: %w", key, err)
	}
	return nil
}

// Get returns nil without error when the Keychain has no item for key.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	out, err := k.run("find-generic-password", "-a", key, "-s", k.service, "-w")
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("keychain get %s: %w", key, err)
	}
	return []byte(strings.TrimRight(string(out), "\n")), nil
}

func (k *KeychainStore) Delete(key string) error {
	_, err := k.run("delete-generic-password", "-a", key, "-s", k.service)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("keychain delete %s: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == keychainNotFound
}
