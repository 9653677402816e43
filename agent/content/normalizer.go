package content

import (
	"encoding/base64"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/svergara/concierge/agent/contract"
)

// SystemContextMarker prefixes history turns that carry injected
// background rather than a customer utterance. The orchestrator's
// preamble instructs the model to treat marked text as context.
const SystemContextMarker = "[System Context]: "

// ImageKind classifies a supported image mimetype.
type ImageKind string

const (
	ImageJPEG ImageKind = "jpeg"
	ImagePNG  ImageKind = "png"
	ImageGIF  ImageKind = "gif"
	ImageWebP ImageKind = "webp"
	ImageHEIC ImageKind = "heic"
	ImageHEIF ImageKind = "heif"
	ImageSVG  ImageKind = "svg"
)

// DocumentKind classifies a supported document mimetype.
type DocumentKind string

const (
	DocumentPDF        DocumentKind = "pdf"
	DocumentText       DocumentKind = "text"
	DocumentHTML       DocumentKind = "html"
	DocumentCSS        DocumentKind = "css"
	DocumentMarkdown   DocumentKind = "markdown"
	DocumentCSV        DocumentKind = "csv"
	DocumentXML        DocumentKind = "xml"
	DocumentRTF        DocumentKind = "rtf"
	DocumentJavaScript DocumentKind = "javascript"
	DocumentPython     DocumentKind = "python"
)

var imageKinds = map[string]ImageKind{
	"image/jpeg":    ImageJPEG,
	"image/jpg":     ImageJPEG,
	"image/png":     ImagePNG,
	"image/gif":     ImageGIF,
	"image/webp":    ImageWebP,
	"image/heic":    ImageHEIC,
	"image/heif":    ImageHEIF,
	"image/svg+xml": ImageSVG,
}

var documentKinds = map[string]DocumentKind{
	"application/pdf":        DocumentPDF,
	"text/plain":             DocumentText,
	"text/html":              DocumentHTML,
	"text/css":               DocumentCSS,
	"text/markdown":          DocumentMarkdown,
	"text/x-markdown":        DocumentMarkdown,
	"text/csv":               DocumentCSV,
	"text/xml":               DocumentXML,
	"application/xml":        DocumentXML,
	"application/rtf":        DocumentRTF,
	"text/javascript":        DocumentJavaScript,
	"application/javascript": DocumentJavaScript,
	"text/x-python":          DocumentPython,
	"application/x-python":   DocumentPython,
}

// Part is one piece of a normalized message. The set is closed: Text,
// Image and Document.
type Part interface {
	PartKind() string
}

type TextPart struct {
	Text string
}

func (TextPart) PartKind() string { return "text" }

type ImagePart struct {
	Data     []byte
	Mimetype string
	Kind     ImageKind
}

func (ImagePart) PartKind() string { return "image" }

type DocumentPart struct {
	Data     []byte
	Mimetype string
	Kind     DocumentKind
}

func (DocumentPart) PartKind() string { return "document" }

// Message is the provider-neutral unit built from one request. It
// always ends with a TextPart holding the prompt, so a model is never
// asked to reason over attachments without an instruction.
type Message struct {
	Parts []Part
}

// BuildMessage normalizes the prompt and its attachments. Attachment
// order is preserved and the prompt text is appended last. Attachments
// whose mimetype matches neither table, and attachments whose payload
// is not valid base64, are dropped with a warning; a single bad file
// must not abort an otherwise valid request. BuildMessage never fails.
func BuildMessage(prompt string, attachments []contractx.Attachment) Message {
	parts := make([]Part, 0, len(attachments)+1)

	for i, att := range attachments {
		mimetype := canonicalMimetype(att.Mimetype)

		kind, isImage := imageKinds[mimetype]
		docKind, isDocument := documentKinds[mimetype]
		if !isImage && !isDocument {
			log.Warn().
				Int("attachment", i+1).
				Str("mimetype", att.Mimetype).
				Msg("dropping attachment with unsupported mimetype")
			continue
		}

		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(att.Data))
		if err != nil {
			log.Warn().
				Int("attachment", i+1).
				Str("mimetype", att.Mimetype).
				Err(err).
				Msg("dropping attachment with invalid base64 payload")
			continue
		}

		if isImage {
			parts = append(parts, ImagePart{Data: data, Mimetype: mimetype, Kind: kind})
		} else {
			parts = append(parts, DocumentPart{Data: data, Mimetype: mimetype, Kind: docKind})
		}
	}

	parts = append(parts, TextPart{Text: prompt})
	return Message{Parts: parts}
}

// NormalizeHistory maps stored turns to role-tagged model messages,
// oldest first. System-context turns become user messages carrying the
// explicit marker.
func NormalizeHistory(turns []contractx.ConversationTurn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case contractx.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(turn.Content, nil))
		case contractx.RoleSystemContext:
			msgs = append(msgs, schema.UserMessage(SystemContextMarker+turn.Content))
		default:
			msgs = append(msgs, schema.UserMessage(turn.Content))
		}
	}
	return msgs
}

// canonicalMimetype lowercases and strips any ";charset=..." style
// parameters so table lookups are exact.
func canonicalMimetype(mimetype string) string {
	mimetype = strings.ToLower(strings.TrimSpace(mimetype))
	if idx := strings.IndexByte(mimetype, ';'); idx >= 0 {
		mimetype = strings.TrimSpace(mimetype[:idx])
	}
	return mimetype
}
