package codec

import (
	"html"
	"strings"
)

// blockTags end with a line break when converting HTML to text.
var blockTags = map[string]bool{
	"br": true, "p": true, "div": true, "tr": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "table": true, "ul": true, "ol": true,
}

// HTMLToText converts an HTML body into readable plain text for
// display. The conversion is lossy and one-way: tags are dropped,
// block elements become line breaks, entities are decoded, and runs of
// blank lines collapse. Script and style contents are removed.
func HTMLToText(s string) string {
	var out strings.Builder
	var tag strings.Builder
	inTag := false
	skipDepth := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '<':
			inTag = true
			tag.Reset()
		case c == '>' && inTag:
			inTag = false
			name, closing := tagName(tag.String())
			switch name {
			case "script", "style":
				if closing {
					if skipDepth > 0 {
						skipDepth--
					}
				} else {
					skipDepth++
				}
			default:
				if blockTags[name] {
					out.WriteByte('\n')
				}
			}
		case inTag:
			tag.WriteByte(c)
		case skipDepth == 0:
			out.WriteByte(c)
		}
	}

	text := html.UnescapeString(out.String())
	return collapseBlank(text)
}

// tagName extracts the lowercase element name from raw tag contents.
func tagName(raw string) (name string, closing bool) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "/") {
		closing = true
		raw = raw[1:]
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '/' {
			raw = raw[:i]
			break
		}
	}
	return strings.ToLower(raw), closing
}

// collapseBlank trims trailing space per line and collapses runs of
// blank lines into one.
func collapseBlank(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := true
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
