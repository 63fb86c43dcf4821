// internal/token/signer.go
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Signer produces and verifies the tokens carried by tracking and
// unsubscribe links. Tokens are HMAC-SHA256 over the payload with the
// site-wide secret, hex encoded. They carry no expiry: links in mail
// that is already delivered must keep working.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the token for a payload.
func (s *Signer) Sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the token and compares in constant time.
func (s *Signer) Verify(payload, token string) bool {
	return hmac.Equal([]byte(s.Sign(payload)), []byte(token))
}

// ForQueueItem is the open-pixel payload, bound to one queue item.
func ForQueueItem(queueID int) string {
	return fmt.Sprintf("%d", queueID)
}

// ForClick binds a queue item to the link's original URL so a valid
// click token cannot be replayed against a different destination.
func ForClick(queueID int, originalURL string) string {
	return fmt.Sprintf("%d|%s", queueID, originalURL)
}

// ForEmail is the unsubscribe/confirm payload, keyed on the address.
func ForEmail(email string) string {
	return email
}
