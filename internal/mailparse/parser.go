// Package mailparse derives display fields from raw MIME payloads. The
// provider normally returns parsed sender and preview fields; this is the
// fallback for records where only the raw content survived.
package mailparse

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"
)

// previewLimit caps derived previews to the preview column size
const previewLimit = 255

// ParsedMessage carries the display fields derived from one MIME payload
type ParsedMessage struct {
	SenderName     string
	SenderEmail    string
	Subject        string
	Preview        string
	HasAttachments bool
}

// Parse derives display fields from a raw MIME payload
func Parse(raw []byte) (*ParsedMessage, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	parsed := &ParsedMessage{
		Subject:        env.GetHeader("Subject"),
		HasAttachments: len(env.Attachments) > 0,
	}

	parsed.SenderName, parsed.SenderEmail = parseFromHeader(env.GetHeader("From"))
	parsed.Preview = derivePreview(env.Text, env.HTML)

	return parsed, nil
}

// parseFromHeader extracts name and email from a From header
func parseFromHeader(from string) (name, email string) {
	from = strings.TrimSpace(from)
	if from == "" {
		return "", ""
	}

	// Pattern: "Name" <email@example.com> or Name <email@example.com>
	re := regexp.MustCompile(`^(?:"?([^"<]*)"?\s*)?<?([^<>]+@[^<>]+)>?$`)
	matches := re.FindStringSubmatch(from)

	if len(matches) >= 3 {
		name = strings.TrimSpace(matches[1])
		email = strings.TrimSpace(matches[2])
		name = strings.Trim(name, `"`)
	} else {
		// Fallback: treat entire string as email
		email = from
	}

	return name, email
}

// derivePreview builds a single-line preview from the message body,
// preferring plain text over stripped HTML
func derivePreview(bodyText, bodyHTML string) string {
	var text string

	if bodyText != "" {
		text = bodyText
	} else if bodyHTML != "" {
		text = stripHTMLTags(bodyHTML)
	}

	// Collapse whitespace to a single line
	text = strings.Join(strings.Fields(text), " ")
	text = strings.TrimSpace(text)

	if len(text) > previewLimit {
		text = text[:previewLimit-3] + "..."
	}

	return text
}

// stripHTMLTags removes HTML tags from a string
func stripHTMLTags(html string) string {
	// Remove script and style elements
	re := regexp.MustCompile(`(?i)<(script|style)[^>]*>[\s\S]*?</\1>`)
	html = re.ReplaceAllString(html, "")

	// Remove HTML tags
	re = regexp.MustCompile(`<[^>]*>`)
	html = re.ReplaceAllString(html, " ")

	// Decode common HTML entities
	html = strings.ReplaceAll(html, "&nbsp;", " ")
	html = strings.ReplaceAll(html, "&amp;", "&")
	html = strings.ReplaceAll(html, "&lt;", "<")
	html = strings.ReplaceAll(html, "&gt;", ">")
	html = strings.ReplaceAll(html, "&quot;", `"`)
	html = strings.ReplaceAll(html, "&#39;", "'")

	return html
}
