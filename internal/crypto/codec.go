package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/types"
)

// Blob format: [format version][key version][nonce][ciphertext+tag].
// Format 0 carries plaintext verbatim (explicit degraded mode when no
// encryption secret is configured). Format 1 is AES-256-GCM. The key version
// byte permits key rotation without a mandatory re-encryption migration.
const (
	formatPlain  byte = 0x00
	formatAESGCM byte = 0x01
)

var hkdfInfo = []byte("vaultchat payload encryption v1")

// Codec encrypts and decrypts opaque payload blobs. It is the only component
// allowed to see both ciphertext and plaintext of a stored payload.
type Codec struct {
	log        *logger.Logger
	aead       cipher.AEAD
	keyVersion byte
}

// NewCodec derives an AES-256 key from the configured secret via
// HKDF-SHA256. An empty secret disables encryption: payloads are stored
// verbatim and the degraded mode is logged loudly, never entered silently.
func NewCodec(secret string, keyVersion byte, log *logger.Logger) (*Codec, error) {
	codecLog := log.With("component", "Codec")
	if secret == "" {
		codecLog.Warn("No encryption secret configured, payloads will be stored as PLAINTEXT")
		return &Codec{log: codecLog}, nil
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM cipher: %w", err)
	}
	codecLog.Info("Payload encryption enabled", "key_version", keyVersion)
	return &Codec{log: codecLog, aead: aead, keyVersion: keyVersion}, nil
}

// Enabled reports whether payloads are actually encrypted at rest.
func (c *Codec) Enabled() bool {
	return c.aead != nil
}

// Encrypt seals plaintext into a versioned blob. In degraded mode the blob
// carries the plaintext behind a format-0 header so readers can tell the
// difference from ciphertext.
func (c *Codec) Encrypt(plaintext []byte) ([]byte, error) {
	if c.aead == nil {
		blob := make([]byte, 2+len(plaintext))
		blob[0] = formatPlain
		copy(blob[2:], plaintext)
		return blob, nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	blob := make([]byte, 0, 2+len(nonce)+len(plaintext)+c.aead.Overhead())
	blob = append(blob, formatAESGCM, c.keyVersion)
	blob = append(blob, nonce...)
	blob = c.aead.Seal(blob, nonce, plaintext, nil)
	return blob, nil
}

// Decrypt opens a blob produced by Encrypt. Any integrity failure (unknown
// format, missing key, key version mismatch, truncated blob, tag mismatch)
// surfaces as types.ErrDecrypt. Callers must never treat that as absence.
func (c *Codec) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < 2 {
		return nil, fmt.Errorf("%w: blob too short", types.ErrDecrypt)
	}
	switch blob[0] {
	case formatPlain:
		// Plaintext blobs are only readable while no key is configured.
		// With encryption enabled a format-0 header cannot be legitimate:
		// accepting it would let a flipped format byte downgrade ciphertext
		// to garbage plaintext.
		if c.aead != nil {
			return nil, fmt.Errorf("%w: plaintext blob with encryption enabled", types.ErrDecrypt)
		}
		return blob[2:], nil
	case formatAESGCM:
		if c.aead == nil {
			return nil, fmt.Errorf("%w: encrypted blob but no key configured", types.ErrDecrypt)
		}
		if blob[1] != c.keyVersion {
			return nil, fmt.Errorf("%w: key version %d not available", types.ErrDecrypt, blob[1])
		}
		rest := blob[2:]
		if len(rest) < c.aead.NonceSize() {
			return nil, fmt.Errorf("%w: blob shorter than nonce", types.ErrDecrypt)
		}
		nonce, ciphertext := rest[:c.aead.NonceSize()], rest[c.aead.NonceSize():]
		plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrDecrypt, err)
		}
		return plaintext, nil
	default:
		return nil, fmt.Errorf("%w: unknown blob format %d", types.ErrDecrypt, blob[0])
	}
}
