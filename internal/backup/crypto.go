package backup

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4
)

// magic marks an encrypted snapshot so a plain SQLite file is never fed to
// the decrypter.
var magic = []byte("RBK1")

// ErrDecrypt means the passphrase is wrong or the snapshot was tampered with.
var ErrDecrypt = errors.New("cannot decrypt backup: wrong passphrase or corrupt file")

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMem, argonPar, keySize)
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// seal encrypts plaintext under a fresh salt and nonce.
// Layout: magic | salt | nonce | AES-256-GCM ciphertext.
func seal(plaintext []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(magic)+saltSize+nonceSize+len(plaintext)+gcm.Overhead())
	out = append(out, magic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	// The header is authenticated along with the body.
	aad := bytes.Clone(out[:len(magic)+saltSize])
	return gcm.Seal(out, nonce, plaintext, aad), nil
}

// unseal reverses seal.
func unseal(data []byte, passphrase string) ([]byte, error) {
	header := len(magic) + saltSize
	if len(data) < header+nonceSize || !bytes.Equal(data[:len(magic)], magic) {
		return nil, fmt.Errorf("not an encrypted backup")
	}
	salt := data[len(magic):header]
	nonce := data[header : header+nonceSize]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, data[header+nonceSize:], data[:header])
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
