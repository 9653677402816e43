package content

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

// Render maps a normalized Message onto the wire representation the
// chat models consume. Images travel as data-URI image parts. Documents
// are rendered to labelled text blocks: PDFs through text extraction,
// text-like kinds by decoding their bytes. Rendering never fails; a
// document that cannot be read degrades to a short placeholder block so
// the model still learns the attachment existed.
func Render(msg Message) *schema.Message {
	// The common case: no attachments survived normalization.
	if len(msg.Parts) == 1 {
		if text, ok := msg.Parts[0].(TextPart); ok {
			return schema.UserMessage(text.Text)
		}
	}

	parts := make([]schema.ChatMessagePart, 0, len(msg.Parts))
	for _, part := range msg.Parts {
		switch p := part.(type) {
		case TextPart:
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeText,
				Text: p.Text,
			})
		case ImagePart:
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", p.Mimetype, base64.StdEncoding.EncodeToString(p.Data)),
				},
			})
		case DocumentPart:
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeText,
				Text: renderDocument(p),
			})
		}
	}

	return &schema.Message{
		Role:         schema.User,
		MultiContent: parts,
	}
}

func renderDocument(doc DocumentPart) string {
	body := documentBody(doc)
	return fmt.Sprintf("[Attached document (%s)]:\n%s", doc.Kind, body)
}

func documentBody(doc DocumentPart) string {
	if doc.Kind == DocumentPDF {
		text, err := extractPDFText(doc.Data)
		if err != nil {
			log.Warn().Err(err).Msg("pdf text extraction failed")
			return "(unreadable PDF document)"
		}
		return text
	}

	if !utf8.Valid(doc.Data) {
		log.Warn().Str("mimetype", doc.Mimetype).Msg("document payload is not valid UTF-8")
		return fmt.Sprintf("(unreadable %s document)", doc.Kind)
	}
	return string(doc.Data)
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}
