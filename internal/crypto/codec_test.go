package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestCodec_RoundTrip(t *testing.T) {
	codec, err := NewCodec("test-secret", 1, testLogger(t))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	if !codec.Enabled() {
		t.Fatalf("expected encryption enabled")
	}

	for _, plaintext := range [][]byte{
		[]byte(""),
		[]byte("hello"),
		[]byte("مرحبا بالعالم 👋"),
		bytes.Repeat([]byte{0x00, 0xff}, 512),
	} {
		blob, err := codec.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", plaintext, err)
		}
		if bytes.Contains(blob, plaintext) && len(plaintext) > 0 {
			t.Fatalf("ciphertext contains plaintext %q", plaintext)
		}
		got, err := codec.Decrypt(blob)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
		}
	}
}

func TestCodec_TamperedBlobFailsDecryption(t *testing.T) {
	codec, err := NewCodec("test-secret", 1, testLogger(t))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	blob, err := codec.Encrypt([]byte("sensitive content"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	// every byte, header included: a flipped format byte must not downgrade
	// ciphertext into the plaintext path
	for i := 0; i < len(blob); i++ {
		tampered := append([]byte(nil), blob...)
		tampered[i] ^= 0x01
		plaintext, err := codec.Decrypt(tampered)
		if !errors.Is(err, types.ErrDecrypt) {
			t.Fatalf("byte %d: expected ErrDecrypt, got %v (plaintext %q)", i, err, plaintext)
		}
	}
}

func TestCodec_WrongKeyFailsDecryption(t *testing.T) {
	log := testLogger(t)
	codec, err := NewCodec("secret-a", 1, log)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	other, err := NewCodec("secret-b", 1, log)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	blob, err := codec.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := other.Decrypt(blob); !errors.Is(err, types.ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt with wrong key, got %v", err)
	}
}

func TestCodec_KeyVersionMismatch(t *testing.T) {
	log := testLogger(t)
	v1, err := NewCodec("secret", 1, log)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	v2, err := NewCodec("secret", 2, log)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	blob, err := v1.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := v2.Decrypt(blob); !errors.Is(err, types.ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt on key version mismatch, got %v", err)
	}
}

func TestCodec_PlaintextFallback(t *testing.T) {
	codec, err := NewCodec("", 0, testLogger(t))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	if codec.Enabled() {
		t.Fatalf("expected degraded plaintext mode")
	}

	blob, err := codec.Encrypt([]byte("visible"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := codec.Decrypt(blob)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(got) != "visible" {
		t.Fatalf("plaintext round trip mismatch: %q", got)
	}
}

func TestCodec_EncryptedBlobWithoutKey(t *testing.T) {
	log := testLogger(t)
	enc, err := NewCodec("secret", 1, log)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	plain, err := NewCodec("", 0, log)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	blob, err := enc.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := plain.Decrypt(blob); !errors.Is(err, types.ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt reading ciphertext without key, got %v", err)
	}
}

func TestCodec_UnknownFormat(t *testing.T) {
	codec, err := NewCodec("secret", 1, testLogger(t))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	if _, err := codec.Decrypt([]byte{0x7f, 0x00, 0x01}); !errors.Is(err, types.ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt for unknown format, got %v", err)
	}
	if _, err := codec.Decrypt([]byte{0x01}); !errors.Is(err, types.ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt for truncated blob, got %v", err)
	}
}
