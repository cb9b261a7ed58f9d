package shared

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"time"
)

const (
	// CSRFSessionKey is the browser session value holding the token.
	CSRFSessionKey = "csrf_token"
	// CSRFFormField is the form field name carrying the CSRF token.
	CSRFFormField = "csrf_token"
	// CSRFHeader is the header alternative to the form field.
	CSRFHeader = "X-CSRF-Token"
)

// CSRFManager issues and verifies CSRF tokens bound to a browser session.
type CSRFManager struct {
	secret []byte
	now    func() time.Time
}

// NewCSRFManager returns a CSRFManager using the provided secret key.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret), now: time.Now}
}

// EnsureToken retrieves or generates the CSRF token for b.
func (m *CSRFManager) EnsureToken(b *Browser) (string, error) {
	if b == nil {
		return "", ErrBrowserMissing
	}
	if token := b.Get(CSRFSessionKey); token != "" {
		return token, nil
	}
	token := m.generateToken(b.ID)
	b.Set(CSRFSessionKey, token)
	return token, nil
}

// VerifyToken compares the supplied token with the one held by b.
func (m *CSRFManager) VerifyToken(b *Browser, token string) error {
	if b == nil {
		return ErrCSRFTokenMissing
	}
	expected := b.Get(CSRFSessionKey)
	if expected == "" || token == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *CSRFManager) generateToken(browserID string) string {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(browserID))
	_, _ = mac.Write([]byte{'|'})
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(m.now().UnixNano()))
	_, _ = mac.Write(buf)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
