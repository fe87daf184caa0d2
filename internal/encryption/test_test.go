package encryption

import (
	"bytes"
	"testing"
)

func TestTestEncryptor(t *testing.T) {
	t.Parallel()

	e := NewTestEncryptor()
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false, want true")
	}

	var out bytes.Buffer
	if err := e.Encrypt(bytes.NewReader([]byte("payload")), &out); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	want := append([]byte("INLETENC"), []byte("payload")...)
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("output = %q, want header-prefixed payload", out.Bytes())
	}
}
