// ABOUTME: Renders a reconciled conversation view into shareable transcripts
// ABOUTME: Message bodies are markdown, converted to HTML with goldmark

package transcript

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/2389/parley/internal/timeline"
)

//go:embed templates/*.html
var templateFS embed.FS

// entry holds one rendered message for the HTML template
type entry struct {
	ID         string
	Author     string
	Timestamp  string
	Body       template.HTML
	Streaming  bool
	Pending    bool
	Failed     bool
	ReplyCount int
	ReplyLine  string
	HasReplies bool
}

// pageData holds data for the transcript page
type pageData struct {
	Title       string
	GeneratedAt string
	Entries     []entry
}

// WriteHTML renders the display view as a standalone HTML transcript.
func WriteHTML(w io.Writer, title string, view []timeline.DisplayMessage) error {
	data := pageData{
		Title:       title,
		GeneratedAt: time.Now().UTC().Format(time.RFC1123),
		Entries:     make([]entry, 0, len(view)),
	}

	for _, m := range view {
		body, err := renderMarkdown(m.Content)
		if err != nil {
			return fmt.Errorf("rendering message %s: %w", m.ID, err)
		}

		data.Entries = append(data.Entries, entry{
			ID:         m.ID,
			Author:     m.Author,
			Timestamp:  m.CreatedAt.UTC().Format(time.RFC3339),
			Body:       body,
			Streaming:  m.Streaming,
			Pending:    m.Status == timeline.StatusPending,
			Failed:     m.Status == timeline.StatusFailed,
			ReplyCount: m.NestedReplyCount,
			ReplyLine:  replyLine(m),
			HasReplies: m.NestedReplyCount > 0,
		})
	}

	tmpl, err := template.ParseFS(templateFS, "templates/transcript.html")
	if err != nil {
		return fmt.Errorf("parsing transcript template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("executing transcript template: %w", err)
	}
	return nil
}

// WriteText renders the display view as a plain text transcript.
func WriteText(w io.Writer, view []timeline.DisplayMessage) error {
	for _, m := range view {
		header := fmt.Sprintf("[%s] %s", m.CreatedAt.UTC().Format(time.RFC3339), m.Author)
		if m.Streaming {
			header += " (typing…)"
		}
		if m.Status == timeline.StatusPending {
			header += " (sending)"
		}
		if m.Status == timeline.StatusFailed {
			header += " (failed)"
		}

		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, m.Content); err != nil {
			return err
		}
		if line := replyLine(m); line != "" {
			if _, err := fmt.Fprintln(w, "  └ "+line); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// renderMarkdown converts markdown message content to HTML.
// goldmark escapes raw HTML in the source by default.
func renderMarkdown(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// replyLine formats the collapsed nested-reply summary shown under a message.
func replyLine(m timeline.DisplayMessage) string {
	if m.NestedReplyCount == 0 {
		return ""
	}

	noun := "replies"
	if m.NestedReplyCount == 1 {
		noun = "reply"
	}

	if len(m.NestedReplyAuthors) == 0 {
		return fmt.Sprintf("%d %s", m.NestedReplyCount, noun)
	}
	return fmt.Sprintf("%d %s from %s", m.NestedReplyCount, noun, strings.Join(m.NestedReplyAuthors, ", "))
}
