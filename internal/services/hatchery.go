// Package services – Hatchery
//
// This file implements Hatchery, the orchestrator behind every generation
// endpoint. It builds prompts, calls the injected AI provider, downloads the
// provider-hosted images into the local asset store and persists egg and
// creature records through the injected repositories.
//
// Failure policy:
//   - Provider errors abort the operation and are wrapped with ErrUpstream;
//     nothing is persisted for an aborted operation.
//   - Unparseable model replies are not errors; they select fallbacks.
//   - Speech synthesis failure is logged and yields a nil AudioURL.
//   - Record writes after a successful pipeline are logged and swallowed.
//
// Observability: public methods are OpenTelemetry-instrumented and log
// through the request-scoped zerolog logger found in the context.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-hatch-backend/internal/ai"
	"github.com/tbourn/go-hatch-backend/internal/domain"
	"github.com/tbourn/go-hatch-backend/internal/prompts"
	"github.com/tbourn/go-hatch-backend/internal/repo"
)

// Completion budgets per call kind.
const (
	visionMaxTokens  = 500
	conceptMaxTokens = 300
	voiceMaxTokens   = 100
)

// Provider is the AI capability set the hatchery depends on.
type Provider interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
	DescribeImage(ctx context.Context, instruction string, img ai.InlineImage, maxTokens int) (string, error)
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
	Speak(ctx context.Context, text string) (io.ReadCloser, error)
}

// EggRepo persists eggs.
type EggRepo interface {
	AppendEgg(ctx context.Context, egg domain.Egg) error
	FindEgg(ctx context.Context, id string) (*domain.Egg, error)
	UpdateEggStatus(ctx context.Context, id string, status domain.EggStatus) error
	ListEggs(ctx context.Context) ([]domain.Egg, error)
}

// CreatureRepo persists creatures.
type CreatureRepo interface {
	AppendCreature(ctx context.Context, c domain.Creature) error
	ListCreatures(ctx context.Context) ([]domain.Creature, error)
}

// AssetWriter stores generated binaries and returns their public path.
type AssetWriter interface {
	Save(kind repo.AssetKind, filename string, r io.Reader) (string, error)
}

// RandSource picks uniformly in [0, n). *rand.Rand satisfies it, so tests
// can inject a seeded source.
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Hatchery coordinates generation and persistence.
type Hatchery struct {
	Provider  Provider
	Eggs      EggRepo
	Creatures CreatureRepo
	Assets    AssetWriter

	// Fetch downloads provider-hosted images. Defaults to http.DefaultClient.
	Fetch *http.Client
	// Rand selects sound tokens and care questions. Defaults to math/rand/v2.
	Rand RandSource
	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// NewHatchery wires a Hatchery with default randomness, clock and ids.
func NewHatchery(p Provider, eggs EggRepo, creatures CreatureRepo, assets AssetWriter, fetch *http.Client) *Hatchery {
	return &Hatchery{
		Provider:  p,
		Eggs:      eggs,
		Creatures: creatures,
		Assets:    assets,
		Fetch:     fetch,
	}
}

func (h *Hatchery) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *Hatchery) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

func (h *Hatchery) rand() RandSource {
	if h.Rand != nil {
		return h.Rand
	}
	return globalRand{}
}

func (h *Hatchery) tracer() trace.Tracer {
	return otel.Tracer("services/Hatchery")
}

// upstream wraps a provider failure for step.
func upstream(step string, err error) error {
	return fmt.Errorf("%s: %w: %w", step, ErrUpstream, err)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// CreateEgg generates an egg illustration from description and descriptors,
// stores it locally and appends the egg record.
func (h *Hatchery) CreateEgg(ctx context.Context, description string, descriptors []string) (*domain.Egg, error) {
	ctx, span := h.tracer().Start(ctx, "CreateEgg",
		trace.WithAttributes(attribute.Int("egg.descriptors", len(descriptors))),
	)
	defer span.End()
	lg := zerolog.Ctx(ctx)

	if strings.TrimSpace(description) == "" || len(descriptors) == 0 {
		return nil, ErrInvalidInput
	}

	done := track(stepEggImage)
	remote, err := h.Provider.GenerateImage(ctx, prompts.EggCreation(description, descriptors))
	done(err)
	if err != nil {
		return nil, fail(span, upstream("egg image", err))
	}

	imageURL, err := h.saveRemoteImage(ctx, remote, "egg")
	if err != nil {
		return nil, fail(span, err)
	}

	egg := domain.Egg{
		ID:              h.newID(),
		Description:     description,
		Descriptors:     descriptors,
		ImageURL:        imageURL,
		CreatedAt:       h.now(),
		Status:          domain.EggCreated,
		IncubationStage: 0,
	}
	span.SetAttributes(attribute.String("egg.id", egg.ID))

	if err := h.Eggs.AppendEgg(ctx, egg); err != nil {
		lg.Error().Err(err).Str("egg_id", egg.ID).Msg("store egg")
	}
	lg.Info().Str("egg_id", egg.ID).Str("image_url", imageURL).Msg("egg created")
	return &egg, nil
}

// FindEgg returns the egg with id or ErrEggNotFound.
func (h *Hatchery) FindEgg(ctx context.Context, id string) (*domain.Egg, error) {
	egg, err := h.Eggs.FindEgg(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrEggNotFound
	}
	return egg, err
}

// ListEggs returns every stored egg.
func (h *Hatchery) ListEggs(ctx context.Context) ([]domain.Egg, error) {
	ctx, span := h.tracer().Start(ctx, "ListEggs")
	defer span.End()
	return h.Eggs.ListEggs(ctx)
}

// ListCreatures returns every stored creature.
func (h *Hatchery) ListCreatures(ctx context.Context) ([]domain.Creature, error) {
	ctx, span := h.tracer().Start(ctx, "ListCreatures")
	defer span.End()
	return h.Creatures.ListCreatures(ctx)
}

// CareQuestion picks one care question uniformly at random.
func (h *Hatchery) CareQuestion() prompts.CareQuestion {
	return prompts.CareQuestions[h.rand().IntN(len(prompts.CareQuestions))]
}

// Hatch turns egg eggID into a creature shaped by the first care response.
func (h *Hatchery) Hatch(ctx context.Context, eggID string, care domain.CareResponses) (*domain.Creature, error) {
	ctx, span := h.tracer().Start(ctx, "Hatch",
		trace.WithAttributes(
			attribute.String("egg.id", eggID),
			attribute.Int("care.responses", len(care)),
		),
	)
	defer span.End()
	lg := zerolog.Ctx(ctx)

	egg, err := h.FindEgg(ctx, eggID)
	if err != nil {
		return nil, fail(span, err)
	}

	descriptorText := prompts.JoinDescriptors(egg.Descriptors)
	careContext := prompts.CareContext(care)

	// Concept
	done := track(stepConcept)
	reply, err := h.Provider.Complete(ctx, prompts.CreatureConcept(descriptorText, careContext), conceptMaxTokens)
	done(err)
	if err != nil {
		return nil, fail(span, upstream("creature concept", err))
	}

	var name, imagePrompt string
	switch c := ParseConcept(reply).(type) {
	case ParsedConcept:
		name, imagePrompt = c.Name, c.ImagePrompt
	case FallbackConcept:
		lg.Warn().Str("reason", c.Reason).Str("egg_id", eggID).Msg("creature concept fallback")
		name, imagePrompt = FallbackName, prompts.CreatureImage(descriptorText, careContext)
	}

	// Image
	done = track(stepCreatureImage)
	remote, err := h.Provider.GenerateImage(ctx, imagePrompt)
	done(err)
	if err != nil {
		return nil, fail(span, upstream("creature image", err))
	}
	imageURL, err := h.saveRemoteImage(ctx, remote, "creature")
	if err != nil {
		return nil, fail(span, err)
	}

	// Sound and voice
	sound := prompts.PhoneticSounds[h.rand().IntN(len(prompts.PhoneticSounds))]

	done = track(stepVoice)
	voice, err := h.Provider.Complete(ctx, prompts.VoiceDescription(descriptorText, careContext), voiceMaxTokens)
	done(err)
	if err != nil {
		return nil, fail(span, upstream("voice description", err))
	}

	creatureID := h.newID()
	audioURL := h.synthesize(ctx, sound, creatureID)

	creature := domain.Creature{
		ID:               creatureID,
		Name:             name,
		EggID:            egg.ID,
		ImageURL:         imageURL,
		SoundText:        sound,
		SoundName:        SoundName(sound),
		VoiceDescription: voice,
		AudioURL:         audioURL,
		CareResponses:    care,
		HatchedAt:        h.now(),
		EggTraits:        egg.Descriptors,
		EggDescription:   egg.Description,
	}
	span.SetAttributes(attribute.String("creature.id", creature.ID))

	// The egg only turns hatched once a creature record references it.
	if err := h.Creatures.AppendCreature(ctx, creature); err != nil {
		lg.Error().Err(err).Str("creature_id", creature.ID).Msg("store creature")
	} else if err := h.Eggs.UpdateEggStatus(ctx, egg.ID, domain.EggHatched); err != nil {
		lg.Error().Err(err).Str("egg_id", egg.ID).Msg("mark egg hatched")
	}

	lg.Info().
		Str("egg_id", egg.ID).
		Str("creature_id", creature.ID).
		Str("name", creature.Name).
		Bool("audio", audioURL != nil).
		Msg("creature hatched")
	return &creature, nil
}

// synthesize voices sound and stores it as creature_sound_<id>.mp3. Any
// failure is logged and reported as nil.
func (h *Hatchery) synthesize(ctx context.Context, sound, creatureID string) *string {
	lg := zerolog.Ctx(ctx)

	done := track(stepSpeech)
	audio, err := h.Provider.Speak(ctx, sound)
	if err != nil {
		done(err)
		lg.Warn().Err(err).Str("creature_id", creatureID).Msg("speech synthesis failed")
		return nil
	}
	defer audio.Close()

	url, err := h.Assets.Save(repo.AssetAudio, "creature_sound_"+creatureID+".mp3", audio)
	done(err)
	if err != nil {
		lg.Warn().Err(err).Str("creature_id", creatureID).Msg("store creature sound")
		return nil
	}
	return &url
}

// SoundName derives the sound file label from a phonetic token, e.g.
// "Hoo hoo!" becomes "hoo_hoo_sound".
func SoundName(token string) string {
	s := strings.ReplaceAll(token, "!", "")
	s = strings.ReplaceAll(s, " ", "_")
	return cases.Lower(language.Und).String(s) + "_sound"
}
