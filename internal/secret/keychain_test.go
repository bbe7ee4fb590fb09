package secret

import (
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKeychain mimics the `security` CLI over a map.
type fakeKeychain struct {
	items map[string]string
	calls [][]string
}

func (f *fakeKeychain) run(args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	account := ""
	for i, a := range args {
		if a == "-a" && i+1 < len(args) {
			account = args[i+1]
		}
	}
	switch args[0] {
	case "add-generic-password":
		f.items[account] = args[len(args)-1]
		return nil, nil
	case "find-generic-password":
		v, ok := f.items[account]
		if !ok {
			return nil, exitStatus(keychainNotFound)
		}
		return []byte(v + "\n"), nil
	case "delete-generic-password":
		if _, ok := f.items[account]; !ok {
			return nil, exitStatus(keychainNotFound)
		}
		delete(f.items, account)
		return nil, nil
	}
	return nil, errors.New("unexpected command")
}

func exitStatus(code int) error {
	return exec.Command("sh", "-c", fmt.Sprintf("exit %d", code)).Run()
}

func TestKeychainStore(t *testing.T) {
	fake := &fakeKeychain{items: map[string]string{}}
	k := &KeychainStore{service: "pagebuilder", run: fake.run}

	v, err := k.Get("db-password")
	require.NoError(t, err)
	assert.Nil(t, v, "missing item is not an error")

	require.NoError(t, k.Set("db-password", []byte("s3cret")))
	v, err = k.Get("db-password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", string(v))

	require.NoError(t, k.Delete("db-password"))
	require.NoError(t, k.Delete("db-password"), "deleting a missing item is fine")

	assert.Contains(t, fake.calls[1], "-U")
	assert.Contains(t, fake.calls[1], "pagebuilder")
}

func TestKeychainStore_Failure(t *testing.T) {
	k := &KeychainStore{service: "pagebuilder", run: func(args ...string) ([]byte, error) {
		return nil, exitStatus(1)
	}}
	_, err := k.Get("db-password")
	assert.ErrorContains(t, err, "keychain get db-password")
	assert.Error(t, k.Delete("db-password"))
}
