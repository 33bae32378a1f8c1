package cryptox_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/arcade/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestEncryption_RoundTrip(t *testing.T) {
	modes := []string{cryptox.ModeNone, cryptox.ModeAESGCM, cryptox.ModeXChaCha}

	for _, mode := range modes {
		t.Run(mode, func(t *testing.T) {
			enc, err := cryptox.New(mode, []byte("test-master-key-for-encryption-12345"))
			require.NoError(t, err)
			require.Equal(t, mode != cryptox.ModeNone, enc.IsEnabled())

			plaintext := `{"message":"hello","code":3}`
			c1, err := enc.Encrypt(plaintext)
			require.NoError(t, err)

			got, err := enc.Decrypt(c1)
			require.NoError(t, err)
			require.Equal(t, plaintext, got)

			if enc.IsEnabled() {
				c2, err := enc.Encrypt(plaintext)
				require.NoError(t, err)
				require.NotEqual(t, c1, c2, "random nonce should vary ciphertext")
				require.NotContains(t, string(c1), "hello")
			}
		})
	}
}

func TestEncryption_WrongKeyFails(t *testing.T) {
	for _, mode := range []string{cryptox.ModeAESGCM, cryptox.ModeXChaCha} {
		a, err := cryptox.New(mode, []byte("key-one"))
		require.NoError(t, err)
		b, err := cryptox.New(mode, []byte("key-two"))
		require.NoError(t, err)

		ciphertext, err := a.Encrypt("secret")
		require.NoError(t, err)

		_, err = b.Decrypt(ciphertext)
		require.Error(t, err, mode)
	}
}

func TestEncryption_ShortAndTampered(t *testing.T) {
	enc, err := cryptox.NewXChaCha([]byte("material"), nil)
	require.NoError(t, err)

	_, err = enc.Decrypt([]byte{1, 2, 3})
	require.ErrorIs(t, err, cryptox.ErrCiphertextTooShort)

	ciphertext, err := enc.Encrypt("payload")
	require.NoError(t, err)
	ciphertext[len(ciphertext)-1] ^= 0xff
	_, err = enc.Decrypt(ciphertext)
	require.Error(t, err)
}

func TestNew_Errors(t *testing.T) {
	_, err := cryptox.New("rot13", []byte("k"))
	require.ErrorIs(t, err, cryptox.ErrUnknownMode)

	_, err = cryptox.New(cryptox.ModeAESGCM, nil)
	require.ErrorIs(t, err, cryptox.ErrMissingKey)
}

func TestLoadKeyMaterial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))

	got, err := cryptox.LoadKeyMaterial(path, "")
	require.NoError(t, err)
	require.Equal(t, []byte("from-file"), got)

	t.Setenv("ARCADE_TEST_ENCRYPTION_KEY", "from-env")
	got, err = cryptox.LoadKeyMaterial("", "ARCADE_TEST_ENCRYPTION_KEY")
	require.NoError(t, err)
	require.Equal(t, []byte("from-env"), got)

	_, err = cryptox.LoadKeyMaterial("", "ARCADE_TEST_UNSET_KEY")
	require.ErrorIs(t, err, cryptox.ErrMissingKey)

	_, err = cryptox.LoadKeyMaterial(filepath.Join(t.TempDir(), "missing"), "")
	require.Error(t, err)
}
