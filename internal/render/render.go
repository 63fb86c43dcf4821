// internal/render/render.go
package render

import (
	"html"
	"strings"

	"github.com/valmironeto-lab/Bluesendmail/internal/model"
)

// Site metadata substituted into {{site.*}} tokens.
type Site struct {
	Name string
	URL  string
}

// Subject performs merge-token substitution on a subject line. Only the
// site name and contact tokens apply to subjects.
func Subject(tmpl string, contact model.Contact, site Site) string {
	out := strings.ReplaceAll(tmpl, "{{site.name}}", site.Name)
	return replaceContactTokens(out, contact)
}

// Body performs merge-token substitution on the HTML body, including
// the unsubscribe link. Tokens are disjoint literals, so replacement
// order does not matter.
func Body(tmpl string, contact model.Contact, site Site, unsubscribeURL string) string {
	out := strings.ReplaceAll(tmpl, "{{site.name}}", site.Name)
	out = strings.ReplaceAll(out, "{{site.url}}", site.URL)
	out = replaceContactTokens(out, contact)
	return strings.ReplaceAll(out, "{{unsubscribe_link}}", unsubscribeURL)
}

func replaceContactTokens(tmpl string, contact model.Contact) string {
	out := strings.ReplaceAll(tmpl, "{{contact.first_name}}", contact.FirstName)
	out = strings.ReplaceAll(out, "{{contact.last_name}}", contact.LastName)
	return strings.ReplaceAll(out, "{{contact.email}}", contact.Email)
}

// PreheaderSpan wraps preview text in the hidden span mail clients pick
// up without displaying. Returns "" for an empty preheader.
func PreheaderSpan(preheader string) string {
	if preheader == "" {
		return ""
	}
	return `<span style="display:none !important; visibility:hidden; mso-hide:all; font-size:1px; color:#ffffff; line-height:1px; max-height:0px; max-width:0px; opacity:0; overflow:hidden;">` +
		html.EscapeString(preheader) + `</span>`
}
