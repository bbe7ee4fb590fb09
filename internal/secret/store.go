package secret

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// SecretStore holds credentials that must not live in the config file, such
// as database passwords referenced by storage.password_secret.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// EnvStore reads secrets from environment variables named
// PAGEBUILDER_SECRET_<KEY>, with the key upper-cased and dashes and dots
// turned into underscores.
type EnvStore struct {
	prefix string
}

func NewEnvStore() *EnvStore {
	return &EnvStore{prefix: "PAGEBUILDER_SECRET_"}
}

// Var returns the environment variable that holds key.
func (e *EnvStore) Var(key string) string {
	r := strings.NewReplacer("-", "_", ".", "_", " ", "_")
	return e.prefix + strings.ToUpper(r.Replace(key))
}

func (e *EnvStore) Set(key string, value []byte) error {
	return os.Setenv(e.Var(key), string(value))
}

func (e *EnvStore) Get(key string) ([]byte, error) {
	v, ok := os.LookupEnv(e.Var(key))
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (e *EnvStore) Delete(key string) error {
	return os.Unsetenv(e.Var(key))
}

// Chain returns the first non-empty secret among stores.
type Chain []SecretStore

func (c Chain) Get(key string) ([]byte, error) {
	for _, s := range c {
		v, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		if len(v) > 0 {
			return v, nil
		}
	}
	return nil, nil
}

// Set writes to the first store.
func (c Chain) Set(key string, value []byte) error {
	if len(c) == 0 {
		return fmt.Errorf("secret set %s: no store configured", key)
	}
	return c[0].Set(key, value)
}

func (c Chain) Delete(key string) error {
	for _, s := range c {
		if err := s.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// Default is the environment first and, on macOS, the Keychain.
func Default() SecretStore {
	if runtime.GOOS == "darwin" {
		return Chain{NewEnvStore(), NewKeychainStore()}
	}
	return Chain{NewEnvStore()}
}

// Resolve returns the secret stored under key. An empty key resolves to "".
func Resolve(store SecretStore, key string) (string, error) {
	if key == "" || store == nil {
		return "", nil
	}
	v, err := store.Get(key)
	if err != nil {
		return "", fmt.Errorf("resolve secret %s: %w", key, err)
	}
	if len(v) == 0 {
		return "", fmt.Errorf("resolve secret %s: not found", key)
	}
	return string(v), nil
}
