package rsvariables

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"filippo.io/age"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// sealedVersion is the current version byte of password-sealed variables
// files. The version byte doubles as additional authenticated data, so a
// version change invalidates existing ciphertexts.
const sealedVersion = 1

// Key derivation parameters for password-sealed variables files.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// LoadSensitiveFile loads a password-sealed variables file into the store.
// The file is decrypted with a key derived from the password and salt, and
// its plaintext is a JSON object in the same form as a plain .json
// variables file.
//
// If the file does not exist, the returned error matches ErrFileNotFound.
// If decryption fails, it returns an error of type DecryptError.
func LoadSensitiveFile(store *Store, path, password, salt string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("\"%s\": %w", path, ErrFileNotFound)
		}
		return fmt.Errorf("failed to read the sensitive variables file \"%s\": %w", path, err)
	}

	plaintext, err := openSealed(data, password, salt)
	if err != nil {
		return DecryptError{Path: path, Err: err}
	}

	if err := loadJSON(store, plaintext); err != nil {
		return fmt.Errorf("failed to load the sensitive variables file \"%s\": %w", path, err)
	}
	return nil
}

// LoadSensitiveFileAge loads an age-encrypted variables file into the
// store. The file is decrypted with the identities in the identity file,
// and its plaintext is a JSON object in the same form as a plain .json
// variables file.
//
// If the variables file does not exist, the returned error matches
// ErrFileNotFound. If decryption fails, it returns an error of type
// DecryptError.
func LoadSensitiveFileAge(store *Store, path, identityPath string) error {
	identityData, err := os.ReadFile(identityPath)
	if err != nil {
		return fmt.Errorf("failed to read the identity file \"%s\": %w", identityPath, err)
	}
	identities, err := age.ParseIdentities(bytes.NewReader(identityData))
	if err != nil {
		return fmt.Errorf("failed to parse the identity file \"%s\": %w", identityPath, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("\"%s\": %w", path, ErrFileNotFound)
		}
		return fmt.Errorf("failed to read the sensitive variables file \"%s\": %w", path, err)
	}

	decrypted, err := age.Decrypt(bytes.NewReader(data), identities...)
	if err != nil {
		return DecryptError{Path: path, Err: err}
	}
	plaintext, err := io.ReadAll(decrypted)
	if err != nil {
		return DecryptError{Path: path, Err: err}
	}

	if err := loadJSON(store, plaintext); err != nil {
		return fmt.Errorf("failed to load the sensitive variables file \"%s\": %w", path, err)
	}
	return nil
}

// SealWithPassword encrypts a plaintext variables document with a key
// derived from the password and salt. The result can be loaded with
// LoadSensitiveFile.
func SealWithPassword(plaintext []byte, password, salt string) ([]byte, error) {
	aead, err := newSealedAEAD(password, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate a nonce: %w", err)
	}

	out := make([]byte, 0, 1+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, sealedVersion)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, []byte{sealedVersion}), nil
}

// SealWithRecipient encrypts a plaintext variables document to an age
// recipient. The result can be loaded with LoadSensitiveFileAge.
func SealWithRecipient(plaintext []byte, recipient age.Recipient) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// openSealed decrypts a password-sealed variables document.
func openSealed(data []byte, password, salt string) ([]byte, error) {
	if len(data) < 1+chacha20poly1305.NonceSizeX {
		return nil, errors.New("the file is too short to be a sealed variables document")
	}
	if data[0] != sealedVersion {
		return nil, fmt.Errorf("the file has an unsupported seal version %d", data[0])
	}

	aead, err := newSealedAEAD(password, salt)
	if err != nil {
		return nil, err
	}

	nonce := data[1 : 1+chacha20poly1305.NonceSizeX]
	ciphertext := data[1+chacha20poly1305.NonceSizeX:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, data[:1])
	if err != nil {
		return nil, errors.New("the password or salt is wrong, or the file has been altered")
	}
	return plaintext, nil
}

// newSealedAEAD derives the cipher for password-sealed variables documents.
func newSealedAEAD(password, salt string) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive the encryption key: %w", err)
	}
	return chacha20poly1305.NewX(key)
}
