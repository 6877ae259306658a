package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token parsing errors surfaced to callers that want to distinguish a bad
// token from an expired one.
var (
	ErrTokenMalformed = errors.New("storage: malformed token")
	ErrTokenSignature = errors.New("storage: token signature mismatch")
	ErrTokenExpired   = errors.New("storage: token expired")
)

// SignedURLSigner mints and verifies expiring HMAC download tokens. A token
// binds a file's owning record ID to its storage path so the download
// endpoint never trusts client-supplied paths.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner builds a signer. A non-positive TTL defaults to 24h.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl}
}

func (s *SignedURLSigner) sign(fileID, exp, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%s", fileID, exp, encodedPath)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Generate returns a token for the file plus its expiry time.
func (s *SignedURLSigner) Generate(fileID, relPath string) (string, time.Time, error) {
	if fileID == "" || relPath == "" {
		return "", time.Time{}, errors.New("storage: file id and path are required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("storage: signing secret is not configured")
	}

	expiresAt := time.Now().Add(s.ttl)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	token := strings.Join([]string{fileID, exp, encodedPath, s.sign(fileID, exp, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Parse verifies a token and returns its embedded file reference. With
// allowExpired set the expiry check is skipped, which cleanup routines use
// to resolve paths for stale artifacts.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (fileID, relPath string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	fileID, exp, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(fileID, exp, encodedPath)), []byte(signature)) {
		return "", "", time.Time{}, ErrTokenSignature
	}

	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	expiresAt = time.Unix(expUnix, 0)
	if !allowExpired && time.Now().After(expiresAt) {
		return "", "", time.Time{}, ErrTokenExpired
	}

	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	return fileID, string(rawPath), expiresAt, nil
}
