// internal/tracking/tracking.go
package tracking

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/valmironeto-lab/Bluesendmail/internal/token"
)

// Public action names, dispatched from the single query parameter on
// the public endpoint.
const (
	ActionOpen        = "track_open"
	ActionClick       = "track_click"
	ActionUnsubscribe = "unsubscribe"
	ActionConfirm     = "confirm"
)

var anchorHrefRe = regexp.MustCompile(`(?i)<a\s[^>]*?href=(?:"([^"]*)"|'([^']*)')`)

// Tracker builds signed public URLs and rewrites outbound HTML with
// click tracking and the open pixel.
type Tracker struct {
	signer       *token.Signer
	baseURL      string
	enableOpens  bool
	enableClicks bool
}

func New(signer *token.Signer, baseURL string, enableOpens, enableClicks bool) *Tracker {
	return &Tracker{
		signer:       signer,
		baseURL:      strings.TrimRight(baseURL, "/"),
		enableOpens:  enableOpens,
		enableClicks: enableClicks,
	}
}

// UnsubscribeURL returns the signed unsubscribe link for a contact.
func (t *Tracker) UnsubscribeURL(email string) string {
	return t.emailActionURL(ActionUnsubscribe, email)
}

// ConfirmURL returns the signed double opt-in confirmation link.
func (t *Tracker) ConfirmURL(email string) string {
	return t.emailActionURL(ActionConfirm, email)
}

func (t *Tracker) emailActionURL(action, email string) string {
	q := url.Values{}
	q.Set("action", action)
	q.Set("email", email)
	q.Set("token", t.signer.Sign(token.ForEmail(email)))
	return t.baseURL + "/email?" + q.Encode()
}

// OpenPixelURL returns the signed tracking-pixel URL for a queue item.
func (t *Tracker) OpenPixelURL(queueID int) string {
	q := url.Values{}
	q.Set("action", ActionOpen)
	q.Set("queue_id", strconv.Itoa(queueID))
	q.Set("token", t.signer.Sign(token.ForQueueItem(queueID)))
	return t.baseURL + "/email?" + q.Encode()
}

// ClickURL returns the signed redirect URL wrapping originalURL. The
// destination travels base64url encoded with padding stripped.
func (t *Tracker) ClickURL(queueID int, originalURL string) string {
	q := url.Values{}
	q.Set("action", ActionClick)
	q.Set("qid", strconv.Itoa(queueID))
	q.Set("url", base64.RawURLEncoding.EncodeToString([]byte(originalURL)))
	q.Set("token", t.signer.Sign(token.ForClick(queueID, originalURL)))
	return t.baseURL + "/email?" + q.Encode()
}

// DecodeClickURL reverses the encoding done by ClickURL. Padded input
// is accepted too, since some clients re-pad query values.
func DecodeClickURL(encoded string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return "", fmt.Errorf("decode url: %w", err)
	}
	return string(raw), nil
}

// Inject applies click-link rewriting and appends the open pixel,
// according to the enabled toggles. It runs after merge-token
// substitution so the unsubscribe link is already in place, and that
// link is deliberately left untouched.
func (t *Tracker) Inject(body string, queueID int) string {
	if t.enableClicks {
		body = t.rewriteLinks(body, queueID)
	}
	if t.enableOpens {
		body += fmt.Sprintf(`<img src="%s" width="1" height="1" style="display:none;" alt="">`, t.OpenPixelURL(queueID))
	}
	return body
}

func (t *Tracker) rewriteLinks(body string, queueID int) string {
	return anchorHrefRe.ReplaceAllStringFunc(body, func(match string) string {
		groups := anchorHrefRe.FindStringSubmatch(match)
		original := groups[1]
		if original == "" {
			original = groups[2]
		}
		if original == "" || skipLink(original) {
			return match
		}
		return strings.Replace(match, original, t.ClickURL(queueID, original), 1)
	})
}

// Fragment links, mailto links and already-signed unsubscribe links
// must never be wrapped.
func skipLink(href string) bool {
	return strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.Contains(href, "action="+ActionUnsubscribe)
}
