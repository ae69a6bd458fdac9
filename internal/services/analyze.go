package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-hatch-backend/internal/ai"
	"github.com/tbourn/go-hatch-backend/internal/prompts"
)

// FallbackDescriptors are returned when the vision reply is not valid JSON.
var FallbackDescriptors = []string{"mystical", "unique", "beautiful", "magical"}

// ImageInput is an image to analyze: either raw upload bytes with their
// original filename, or an already base64-encoded string.
type ImageInput struct {
	Filename string
	Data     []byte
	Base64   string
}

// Analysis is the description and descriptors derived from an image.
type Analysis struct {
	Description string   `json:"description"`
	Descriptors []string `json:"descriptors"`
}

// mimeByExt maps upload extensions to MIME types; anything else is JPEG.
var mimeByExt = map[string]string{
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

func (in ImageInput) inline() (ai.InlineImage, bool) {
	if len(in.Data) > 0 {
		mt, ok := mimeByExt[strings.ToLower(filepath.Ext(in.Filename))]
		if !ok {
			mt = "image/jpeg"
		}
		return ai.InlineImage{MIMEType: mt, Base64: base64.StdEncoding.EncodeToString(in.Data)}, true
	}
	b64 := strings.TrimSpace(in.Base64)
	if b64 == "" {
		return ai.InlineImage{}, false
	}
	mt := "image/jpeg"
	// Accept a full data URL as well as the bare payload.
	if rest, ok := strings.CutPrefix(b64, "data:"); ok {
		if head, payload, ok := strings.Cut(rest, ";base64,"); ok {
			if head != "" {
				mt = head
			}
			b64 = payload
		}
	}
	return ai.InlineImage{MIMEType: mt, Base64: b64}, true
}

// AnalyzeImage asks the vision model for a description and descriptors. A
// reply that cannot be decoded falls back to the raw text plus
// FallbackDescriptors; only provider failures are errors.
func (h *Hatchery) AnalyzeImage(ctx context.Context, in ImageInput) (*Analysis, error) {
	ctx, span := h.tracer().Start(ctx, "AnalyzeImage",
		trace.WithAttributes(
			attribute.String("image.filename", in.Filename),
			attribute.Int("image.bytes", len(in.Data)),
		),
	)
	defer span.End()

	img, ok := in.inline()
	if !ok {
		return nil, ErrInvalidInput
	}

	done := track(stepAnalyze)
	reply, err := h.Provider.DescribeImage(ctx, prompts.ImageAnalysis(), img, visionMaxTokens)
	done(err)
	if err != nil {
		return nil, fail(span, upstream("image analysis", err))
	}

	a, ok := parseAnalysis(reply)
	if !ok {
		zerolog.Ctx(ctx).Warn().Msg("image analysis reply not JSON; using fallback descriptors")
	}
	return a, nil
}

func parseAnalysis(reply string) (*Analysis, bool) {
	fallback := &Analysis{
		Description: reply,
		Descriptors: append([]string(nil), FallbackDescriptors...),
	}
	obj, ok := extractJSONObject(stripFences(reply))
	if !ok {
		return fallback, false
	}
	var a Analysis
	if err := json.Unmarshal([]byte(obj), &a); err != nil {
		return fallback, false
	}
	if strings.TrimSpace(a.Description) == "" {
		a.Description = reply
	}
	if len(a.Descriptors) == 0 {
		a.Descriptors = fallback.Descriptors
	}
	return &a, true
}
