package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
)

const DefaultTokenLength = 32 // 256 bits

var ErrEmptyToken = errors.New("token and hash cannot be empty")

// TokenPair is a bearer token and the hash stored in its place.
type TokenPair struct {
	Token string // handed to the client
	Hash  string // persisted
}

func generateToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultTokenLength
	}

	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateHashedToken creates a random URL-safe token. A non-positive
// byteLength uses DefaultTokenLength.
func GenerateHashedToken(byteLength int) (*TokenPair, error) {
	token, err := generateToken(byteLength)
	if err != nil {
		return nil, err
	}

	return &TokenPair{Token: token, Hash: HashToken(token)}, nil
}

// VerifyToken compares token against storedHash in constant time.
func VerifyToken(token, storedHash string) (bool, error) {
	if token == "" || storedHash == "" {
		return false, ErrEmptyToken
	}

	return subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(storedHash)) == 1, nil
}

// HashToken returns the hex encoded SHA-256 of token.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// NewID returns a random identifier for stored records.
func NewID() string {
	return uuid.NewString()
}

// NewCorrelationID returns an unguessable key tying a browser to state kept
// server side between two requests.
func NewCorrelationID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
