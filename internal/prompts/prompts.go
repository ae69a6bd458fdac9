// Package prompts builds the provider-ready prompt strings used by the
// hatchery and holds the fixed vocabularies (phonetic sounds, care
// questions). Everything here is pure: no I/O, no randomness.
//
// Callers are responsible for rejecting empty inputs; an empty description or
// descriptor list still yields a syntactically valid prompt.
package prompts

import (
	"fmt"
	"strings"

	"github.com/tbourn/go-hatch-backend/internal/domain"
)

// ConceptPromptPrefix is the phrase every concept-supplied image prompt must
// lead with.
const ConceptPromptPrefix = "40x40 pixel art sprite of"

// DefaultCareContext is used when no care response was given.
const DefaultCareContext = "with love and care"

// ArtStyle is the illustration-style paragraph embedded in egg prompts.
const ArtStyle = "A whimsical, emotionally resonant 2D animation style characterized by soft, " +
	"painterly environments and clean-lined character design. It blends naturalistic scenery " +
	"with a gentle sense of fantasy, emphasizing warmth, nostalgia, and childlike wonder. " +
	"Characters are designed with rounded, approachable forms and expressive features, using a " +
	"simplified but charming aesthetic. The color palette is vibrant but balanced, often evoking " +
	"seasonal atmospheres. Lighting is natural and gentle, contributing to a dreamlike but " +
	"grounded mood. The overall tone is optimistic, quiet, and heartfelt, suitable for adventures " +
	"rooted in connection with nature, community, and magical realism."

// JoinDescriptors renders a descriptor list the way every prompt embeds it.
func JoinDescriptors(descriptors []string) string {
	return strings.Join(descriptors, ", ")
}

// EggCreation returns the image-generation prompt for a new egg.
func EggCreation(description string, descriptors []string) string {
	return fmt.Sprintf(`Create a beautiful, mystical egg that represents the following:

Description: %s
Descriptors: %s

The egg should be:
- In a 2D Japanese anime inspired style (see below)
- Visually stunning and detailed
- Mystical and magical in appearance
- Unique and one-of-a-kind
- Suitable for a creature that will hatch from it
- Against an aesthetically pleasing background that doesn't distract from the egg

Style: %s
`, description, JoinDescriptors(descriptors), ArtStyle)
}

// ImageAnalysis returns the vision instruction that turns an uploaded image
// into egg metadata.
func ImageAnalysis() string {
	return `Analyze this image and provide:
1. A detailed description of an egg inspired by what you see (focus on visual elements, colors, textures, patterns). The egg should not directly recreate the image, it should capture the spirit and aesthetics of the image.
2. A list of 5-8 descriptive keywords/traits that capture the essence of this image

Format your response as JSON with these keys:
- description: (string)
- descriptors: (array of strings)
`
}

// CreatureConcept asks the model to invent a creature and answer with JSON
// holding its name and a ready-to-use image prompt.
func CreatureConcept(descriptorText, careContext string) string {
	return fmt.Sprintf(`Create a creature and then name and generate a prompt that I can use to create a pixel art sprite of it using dall-e.
The dall-e prompt should be a fully copy-paste ready prompt that describes a simple 40x40 pixel sprite of the creature. Make sure the prompt leads with "%s" and keep the description relatively short, no more than 16 words.

Subject:
- Cute, fantastical infant inspired by %s
- Personality reflects %s
- Surprising, delightful, unexpected details

Style:
- Pixel art style consisting of a 40x40 pixel image

Return JSON with these keys: name: (name), image_prompt: (image_prompt).
`, ConceptPromptPrefix, descriptorText, careContext)
}

// CreatureImage is the deterministic image prompt used when the concept reply
// cannot be parsed.
func CreatureImage(descriptorText, careContext string) string {
	return fmt.Sprintf(`Full-body portrait of a newborn magical creature. Absolutely NO text, letters, numbers, captions, watermarks, or logos.

Subject:
- Cute, fantastical infant inspired by %s
- Personality reflects %s
- Surprising, delightful design details

Style:
- 2-D Japanese anime-inspired illustration
- Whimsical, emotionally resonant

Composition:
- Single subject, centered, isolated on a plain soft background
- No environment, props, patterns, or particles

Negative prompt: text, lettering, type, logo, caption, watermark, signature, calligraphy, symbols, glyphs
`, descriptorText, careContext)
}

// VoiceDescription asks for a one or two sentence description of the
// creature's voice.
func VoiceDescription(descriptorText, careContext string) string {
	return fmt.Sprintf(`Based on this creature's characteristics, describe the voice qualities for a baby creature sound:

EGG TRAITS: %s
CARE CONTEXT: %s

Describe the voice in 1-2 sentences, focusing on:
- Pitch (high/low)
- Speed (fast/slow)
- Emotion (happy/sleepy/excited/curious)
- Quality (soft/harsh/melodic/whispery)

Keep it brief and focused on voice characteristics.
`, descriptorText, careContext)
}

// careClauses maps a care-question id to its context template.
var careClauses = map[string]string{
	"activities":     "enjoyed activities like %s",
	"feelings":       "made you feel %s",
	"time_spent":     "spent %s together",
	"description":    "described as %s",
	"sounds":         "made sounds like %s",
	"favorite_thing": "loved for %s",
	"comfort":        "comforted by %s",
	"whispers":       "heard whispers of %s",
	"favorite_spot":  "loved being in %s",
	"celebration":    "celebrated with %s",
}

// CareContext turns the first care response into a personality clause.
func CareContext(responses domain.CareResponses) string {
	first, ok := responses.First()
	if !ok {
		return DefaultCareContext
	}
	if tmpl, ok := careClauses[first.QuestionID]; ok {
		return fmt.Sprintf(tmpl, first.Answer)
	}
	return fmt.Sprintf("cared for with %s", first.Answer)
}
