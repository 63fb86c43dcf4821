package tracking

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valmironeto-lab/Bluesendmail/internal/token"
)

func newTestTracker(opens, clicks bool) *Tracker {
	return New(token.NewSigner("test-secret"), "https://acme.example.com/", opens, clicks)
}

func TestClickURLRoundTrip(t *testing.T) {
	tr := newTestTracker(true, true)
	original := "https://example.com/page?a=1&b=2"

	clickURL := tr.ClickURL(7, original)
	u, err := url.Parse(clickURL)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, ActionClick, q.Get("action"))
	assert.Equal(t, "7", q.Get("qid"))
	assert.NotContains(t, q.Get("url"), "=", "base64url padding must be stripped")

	decoded, err := DecodeClickURL(q.Get("url"))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)

	signer := token.NewSigner("test-secret")
	assert.True(t, signer.Verify(token.ForClick(7, original), q.Get("token")))
}

func TestOpenPixelURL(t *testing.T) {
	tr := newTestTracker(true, true)

	u, err := url.Parse(tr.OpenPixelURL(12))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, ActionOpen, q.Get("action"))
	assert.Equal(t, "12", q.Get("queue_id"))
	assert.True(t, token.NewSigner("test-secret").Verify(token.ForQueueItem(12), q.Get("token")))
}

func TestInjectRewritesLinks(t *testing.T) {
	tr := newTestTracker(false, true)
	body := `<p><a href="https://example.com/page">read</a> and <a href='https://example.com/other'>more</a></p>`

	got := tr.Inject(body, 7)

	assert.NotContains(t, got, `href="https://example.com/page"`)
	assert.NotContains(t, got, `href='https://example.com/other'`)
	assert.Equal(t, 2, strings.Count(got, "action="+ActionClick))
}

func TestInjectSkipsExcludedLinks(t *testing.T) {
	tr := newTestTracker(false, true)
	unsub := tr.UnsubscribeURL("alice@example.com")
	body := `<a href="#section">top</a>` +
		`<a href="mailto:hi@example.com">mail us</a>` +
		`<a href="` + unsub + `">unsubscribe</a>`

	got := tr.Inject(body, 7)

	assert.Contains(t, got, `href="#section"`)
	assert.Contains(t, got, `href="mailto:hi@example.com"`)
	assert.Contains(t, got, `href="`+unsub+`"`)
	assert.NotContains(t, got, "action="+ActionClick+"&qid")
}

func TestInjectAppendsPixel(t *testing.T) {
	tr := newTestTracker(true, false)

	got := tr.Inject("<p>hello</p>", 9)

	assert.Contains(t, got, `width="1" height="1"`)
	assert.Contains(t, got, "action="+ActionOpen)
	assert.True(t, strings.HasPrefix(got, "<p>hello</p>"))
}

func TestInjectDisabled(t *testing.T) {
	tr := newTestTracker(false, false)
	body := `<a href="https://example.com/page">read</a>`

	assert.Equal(t, body, tr.Inject(body, 7))
}

func TestDecodeClickURLAcceptsPadding(t *testing.T) {
	tr := newTestTracker(true, true)
	u, _ := url.Parse(tr.ClickURL(1, "https://example.com/ab"))
	encoded := u.Query().Get("url")

	decoded, err := DecodeClickURL(encoded + "==")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/ab", decoded)
}

func TestDecodeClickURLRejectsGarbage(t *testing.T) {
	_, err := DecodeClickURL("!!!not-base64!!!")
	assert.Error(t, err)
}
