package codec

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/mnohosten/mailbridge/internal/mailerr"
	"github.com/mnohosten/mailbridge/internal/model"
)

// ValidateAddress checks the basic local@domain shape.
func ValidateAddress(addr string) error {
	at := strings.IndexByte(addr, '@')
	if at <= 0 || at == len(addr)-1 {
		return fmt.Errorf("%w: invalid email address %q", mailerr.ErrValidation, addr)
	}
	if strings.ContainsAny(addr, " \t\r\n") || strings.Count(addr, "@") != 1 {
		return fmt.Errorf("%w: invalid email address %q", mailerr.ErrValidation, addr)
	}
	if !strings.Contains(addr[at+1:], ".") {
		return fmt.Errorf("%w: invalid email address %q", mailerr.ErrValidation, addr)
	}
	return nil
}

// Encode builds the RFC 5322 payload for a send request and returns it
// together with the generated Message-ID. The recipient list must be
// non-empty and every address well formed.
func Encode(from string, req *model.SendRequest) ([]byte, string, error) {
	if len(req.To) == 0 {
		return nil, "", fmt.Errorf("%w: at least one recipient is required", mailerr.ErrValidation)
	}
	for _, addr := range append(append([]string{}, req.To...), req.Cc...) {
		if err := ValidateAddress(addr); err != nil {
			return nil, "", err
		}
	}

	messageID := generateMessageID(from)

	var h mail.Header
	h.SetDate(time.Now())
	h.SetSubject(req.Subject)
	h.SetMessageID(messageID)
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	h.SetAddressList("To", addressList(req.To))
	if len(req.Cc) > 0 {
		h.SetAddressList("Cc", addressList(req.Cc))
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, "", fmt.Errorf("creating message writer: %w", err)
	}

	if err := writeTextParts(mw, req); err != nil {
		return nil, "", err
	}

	for i := range req.Attachments {
		if err := writeAttachment(mw, &req.Attachments[i]); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("finishing message: %w", err)
	}

	return buf.Bytes(), "<" + messageID + ">", nil
}

func writeTextParts(mw *mail.Writer, req *model.SendRequest) error {
	iw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("creating inline part: %w", err)
	}

	var ph mail.InlineHeader
	ph.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	pw, err := iw.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("creating text part: %w", err)
	}
	if _, err := io.WriteString(pw, req.Body); err != nil {
		return fmt.Errorf("writing text part: %w", err)
	}
	pw.Close()

	// The HTML part is optional; when absent only plain text is sent.
	if req.HTMLBody != "" {
		var hh mail.InlineHeader
		hh.SetContentType("text/html", map[string]string{"charset": "utf-8"})
		hw, err := iw.CreatePart(hh)
		if err != nil {
			return fmt.Errorf("creating html part: %w", err)
		}
		if _, err := io.WriteString(hw, req.HTMLBody); err != nil {
			return fmt.Errorf("writing html part: %w", err)
		}
		hw.Close()
	}

	return iw.Close()
}

func writeAttachment(mw *mail.Writer, att *model.Attachment) error {
	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var ah mail.AttachmentHeader
	ah.SetFilename(att.Filename)
	ah.SetContentType(contentType, nil)

	aw, err := mw.CreateAttachment(ah)
	if err != nil {
		return fmt.Errorf("creating attachment %s: %w", att.Filename, err)
	}
	if _, err := aw.Write(att.Data); err != nil {
		aw.Close()
		return fmt.Errorf("writing attachment %s: %w", att.Filename, err)
	}
	return aw.Close()
}

func addressList(addrs []string) []*mail.Address {
	list := make([]*mail.Address, len(addrs))
	for i, a := range addrs {
		list[i] = &mail.Address{Address: a}
	}
	return list
}

// generateMessageID builds a unique id under the sender's domain.
func generateMessageID(from string) string {
	domain := "mailbridge.local"
	if at := strings.LastIndexByte(from, '@'); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return fmt.Sprintf("%s@%s", uuid.NewString(), domain)
}
