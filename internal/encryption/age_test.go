package encryption

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age"

	"inlet/internal/config"
)

func newTestAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	dir := t.TempDir()
	cfg := config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "keys", "inlet.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "inlet.key"),
	}
	return NewAgeEncryptor(cfg)
}

func TestAgeEncryptor_IsConfigured_BeforeSetup(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)
	if e.IsConfigured() {
		t.Error("IsConfigured() = true before Setup, want false")
	}
}

func TestAgeEncryptor_Setup_IsConfigured(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)

	if err := e.Setup("test-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	if !e.IsConfigured() {
		t.Error("IsConfigured() = false after Setup, want true")
	}
}

func TestAgeEncryptor_PublicKeyIsPlaintext(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)

	if err := e.Setup("test-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	data, err := os.ReadFile(e.publicKeyPath)
	if err != nil {
		t.Fatalf("reading public key: %v", err)
	}
	if !strings.HasPrefix(string(data), "age1") {
		t.Errorf("public key %q is not a bech32 age recipient", data)
	}
}

// decryptIdentity unlocks the stored private key with the passphrase,
// the same way the standalone age tooling would during a restore.
func decryptIdentity(t *testing.T, e *AgeEncryptor, passphrase string) age.Identity {
	t.Helper()

	encKey, err := os.Open(e.privateKeyPath)
	if err != nil {
		t.Fatalf("opening private key: %v", err)
	}
	defer encKey.Close()

	scrypt, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		t.Fatalf("creating scrypt identity: %v", err)
	}

	plainKey, err := age.Decrypt(encKey, scrypt)
	if err != nil {
		t.Fatalf("decrypting private key: %v", err)
	}

	identities, err := age.ParseIdentities(plainKey)
	if err != nil {
		t.Fatalf("parsing identities: %v", err)
	}
	if len(identities) != 1 {
		t.Fatalf("got %d identities, want 1", len(identities))
	}
	return identities[0]
}

func TestAgeEncryptor_EncryptRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "simple text", input: []byte("hello world")},
		{name: "empty", input: []byte{}},
		{name: "binary data", input: []byte{0x00, 0xff, 0x01, 0xfe}},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			passphrase := "test-passphrase"
			e := newTestAgeEncryptor(t)
			if err := e.Setup(passphrase); err != nil {
				t.Fatalf("Setup() error = %v", err)
			}

			var encrypted bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &encrypted); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(tt.input) > 0 && bytes.Equal(encrypted.Bytes(), tt.input) {
				t.Error("encrypted output is identical to plaintext")
			}

			identity := decryptIdentity(t, e, passphrase)
			plain, err := age.Decrypt(&encrypted, identity)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			got, err := io.ReadAll(plain)
			if err != nil {
				t.Fatalf("reading decrypted data: %v", err)
			}
			if !bytes.Equal(got, tt.input) {
				t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_WrongPassphrase(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	if err := e.Setup("correct"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	encKey, err := os.Open(e.privateKeyPath)
	if err != nil {
		t.Fatalf("opening private key: %v", err)
	}
	defer encKey.Close()

	scrypt, err := age.NewScryptIdentity("wrong")
	if err != nil {
		t.Fatalf("creating scrypt identity: %v", err)
	}
	if _, err := age.Decrypt(encKey, scrypt); err == nil {
		t.Error("expected decryption to fail with the wrong passphrase")
	}
}
