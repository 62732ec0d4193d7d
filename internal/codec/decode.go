// Package codec translates between protocol representations and the
// domain model: fetched IMAP messages into EmailMessage values, and
// send requests into RFC 5322 payloads.
package codec

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"github.com/mnohosten/mailbridge/internal/model"
)

// Decode converts a fetched message buffer into a domain message.
// Missing optional headers default to empty collections. The section
// must be the same fetch item the session used for body retrieval.
func Decode(buf *imapclient.FetchMessageBuffer, section *imap.FetchItemBodySection) *model.EmailMessage {
	msg := &model.EmailMessage{
		ID:    strconv.FormatUint(uint64(buf.UID), 10),
		To:    []string{},
		Cc:    []string{},
		Flags: []string{},
	}

	if env := buf.Envelope; env != nil {
		msg.Subject = env.Subject
		msg.Date = env.Date
		if len(env.From) > 0 {
			msg.From = env.From[0].Addr()
		}
		for _, addr := range env.To {
			msg.To = append(msg.To, addr.Addr())
		}
		for _, addr := range env.Cc {
			msg.Cc = append(msg.Cc, addr.Addr())
		}
	}

	for _, flag := range buf.Flags {
		msg.Flags = append(msg.Flags, string(flag))
	}

	if section != nil {
		if raw := buf.FindBodySection(section); raw != nil {
			decodeBody(raw, msg)
		}
	}

	return msg
}

// decodeBody parses the raw message source and fills body, HTML body
// and attachment metadata. A message that cannot be parsed as MIME is
// kept verbatim as plain text.
func decodeBody(raw []byte, msg *model.EmailMessage) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		msg.Body = string(raw)
		return
	}
	defer mr.Close()

	plain, html, attachments := walkParts(mr)

	msg.HTMLBody = html
	msg.Attachments = attachments
	if plain != "" {
		msg.Body = plain
	} else if html != "" {
		// Display fallback: lossy conversion of the HTML part.
		msg.Body = HTMLToText(html)
	}
}

// walkParts collects text parts and attachment metadata, recursing
// into nested multiparts.
func walkParts(mr *mail.Reader) (plain, html string, attachments []model.AttachmentInfo) {
	var plainBuf, htmlBuf strings.Builder

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				if b, err := io.ReadAll(part.Body); err == nil {
					plainBuf.Write(b)
				}
			case strings.HasPrefix(contentType, "text/html"):
				if b, err := io.ReadAll(part.Body); err == nil {
					htmlBuf.Write(b)
				}
			case strings.HasPrefix(contentType, "multipart/"):
				if nested, err := mail.CreateReader(part.Body); err == nil {
					p, ht, atts := walkParts(nested)
					plainBuf.WriteString(p)
					htmlBuf.WriteString(ht)
					attachments = append(attachments, atts...)
				} else {
					io.Copy(io.Discard, part.Body)
				}
			default:
				io.Copy(io.Discard, part.Body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			b, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			attachments = append(attachments, model.AttachmentInfo{
				Filename:    filename,
				Size:        int64(len(b)),
				ContentType: contentType,
			})
		}
	}

	return plainBuf.String(), htmlBuf.String(), attachments
}
