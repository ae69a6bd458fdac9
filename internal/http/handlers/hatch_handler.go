// Hatchery HTTP handlers.
//
// This file exposes the JSON endpoints behind the egg lifecycle:
//   - POST /api/create-egg      (generate an egg from a description)
//   - POST /api/analyze-image   (derive a description from an upload)
//   - GET  /api/eggs            (list eggs)
//   - GET  /api/creatures       (list creatures)
//   - GET  /api/care-questions  (one random incubation question)
//   - POST /api/hatch-creature  (turn an egg into a creature)
//
// Handlers are transport-thin: they validate input, call the hatchery, and
// translate results into the success/error envelopes.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-hatch-backend/internal/domain"
	"github.com/tbourn/go-hatch-backend/internal/prompts"
	"github.com/tbourn/go-hatch-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// HatcheryService is the orchestration surface consumed by the handlers.
//
// Implementations must be safe for concurrent use and honor ctx for
// cancellation of in-flight provider calls.
type HatcheryService interface {
	CreateEgg(ctx context.Context, description string, descriptors []string) (*domain.Egg, error)
	AnalyzeImage(ctx context.Context, in services.ImageInput) (*services.Analysis, error)
	ListEggs(ctx context.Context) ([]domain.Egg, error)
	ListCreatures(ctx context.Context) ([]domain.Creature, error)
	CareQuestion() prompts.CareQuestion
	Hatch(ctx context.Context, eggID string, care domain.CareResponses) (*domain.Creature, error)
}

//
// Handler wiring
//

// Handlers groups the hatchery endpoints.
type Handlers struct {
	svc HatcheryService
	now func() time.Time
}

// New constructs and returns a Handlers instance bound to svc.
func New(svc HatcheryService) *Handlers {
	return &Handlers{svc: svc, now: time.Now}
}

//
// DTOs
//

// CreateEggRequest is the JSON payload for creating an egg.
type CreateEggRequest struct {
	Description string   `json:"description" example:"A swirling galaxy trapped in glass"`
	Descriptors []string `json:"descriptors" example:"cosmic,blue,shimmering"`
}

// AnalyzeImageRequest carries a base64 image (bare payload or data URL).
type AnalyzeImageRequest struct {
	ImageData string `json:"image_data" example:"iVBORw0KGgo..."`
}

// HatchCreatureRequest is the JSON payload for hatching an egg. Only the first
// care response shapes the creature.
type HatchCreatureRequest struct {
	EggID         string               `json:"egg_id" example:"0b0f6c1e-7d55-4a57-a8f7-3c1c8f4a52e1"`
	CareResponses domain.CareResponses `json:"care_responses" swaggertype:"object,string" example:"feelings:peaceful and curious"`
}

// EggResponse wraps a newly created egg.
type EggResponse struct {
	Success bool        `json:"success" example:"true"`
	Egg     *domain.Egg `json:"egg"`
	Message string      `json:"message" example:"Egg created successfully!"`
}

// AnalysisResponse wraps an image analysis.
type AnalysisResponse struct {
	Success  bool               `json:"success" example:"true"`
	Analysis *services.Analysis `json:"analysis"`
	Message  string             `json:"message" example:"Image analyzed successfully!"`
}

// EggListResponse lists every egg.
type EggListResponse struct {
	Success bool         `json:"success" example:"true"`
	Eggs    []domain.Egg `json:"eggs"`
}

// CreatureListResponse lists every creature.
type CreatureListResponse struct {
	Success   bool              `json:"success" example:"true"`
	Creatures []domain.Creature `json:"creatures"`
}

// CareQuestionSet nests the selected questions the way the frontend reads them.
type CareQuestionSet struct {
	Questions []prompts.CareQuestion `json:"questions"`
}

// CareQuestionsResponse wraps one randomly selected care question.
type CareQuestionsResponse struct {
	Success   bool            `json:"success" example:"true"`
	Questions CareQuestionSet `json:"questions"`
}

// CreatureResponse wraps a freshly hatched creature.
type CreatureResponse struct {
	Success  bool             `json:"success" example:"true"`
	Creature *domain.Creature `json:"creature"`
	Message  string           `json:"message" example:"Creature hatched successfully!"`
}

// HealthResponse is the unauthenticated liveness payload.
type HealthResponse struct {
	Status    string `json:"status" example:"healthy"`
	Message   string `json:"message" example:"Hatch is running!"`
	Timestamp string `json:"timestamp" example:"2025-01-01T10:00:00Z"`
}

// allowedImageExts are the upload extensions accepted by AnalyzeImage.
var allowedImageExts = []string{"png", "jpg", "jpeg", "gif", "webp"}

//
// Helpers
//

// cleanDescriptors trims each descriptor and drops blanks.
func cleanDescriptors(in []string) []string {
	out := make([]string, 0, len(in))
	for _, d := range in {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// readUpload extracts the "image" part and validates its extension.
func readUpload(c *gin.Context) (services.ImageInput, int, string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if tooLarge(err) {
			return services.ImageInput{}, http.StatusRequestEntityTooLarge, "Request body too large", err
		}
		return services.ImageInput{}, http.StatusBadRequest, "No image file provided", err
	}
	if fh.Filename == "" {
		return services.ImageInput{}, http.StatusBadRequest, "No image file provided", services.ErrInvalidInput
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
	if !slices.Contains(allowedImageExts, ext) {
		return services.ImageInput{}, http.StatusBadRequest,
			"Invalid file type. Allowed types: " + strings.Join(allowedImageExts, ", "),
			services.ErrInvalidInput
	}
	f, err := fh.Open()
	if err != nil {
		return services.ImageInput{}, http.StatusBadRequest, "Could not read image file", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return services.ImageInput{}, http.StatusBadRequest, "Could not read image file", err
	}
	if len(data) == 0 {
		return services.ImageInput{}, http.StatusBadRequest, "No image file provided", services.ErrInvalidInput
	}
	return services.ImageInput{Filename: fh.Filename, Data: data}, 0, "", nil
}

//
// Handlers
//

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ok(c, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Message:   "Hatch is running!",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// CreateEgg godoc
// @ID          createEgg
// @Summary     Create an egg
// @Description Generates an egg illustration from a description and descriptors and stores the egg.
// @Tags        Eggs
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CreateEggRequest  true  "Egg metadata"
// @Success     200   {object}  handlers.EggResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     502   {object}  handlers.ErrorResponse  "Provider failure"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /api/create-egg [post]
func (h *Handlers) CreateEgg(c *gin.Context) {
	var req CreateEggRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if tooLarge(err) {
			serviceError(c, err, "Failed to create egg")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", err)
		return
	}
	descriptors := cleanDescriptors(req.Descriptors)
	if strings.TrimSpace(req.Description) == "" || len(descriptors) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Description and descriptors are required", services.ErrInvalidInput)
		return
	}

	egg, err := h.svc.CreateEgg(c.Request.Context(), req.Description, descriptors)
	if err != nil {
		serviceError(c, err, "Failed to create egg")
		return
	}
	ok(c, http.StatusOK, EggResponse{Success: true, Egg: egg, Message: "Egg created successfully!"})
}

// AnalyzeImage godoc
// @ID          analyzeImage
// @Summary     Analyze an image
// @Description Accepts a multipart "image" upload (png, jpg, jpeg, gif, webp) or a JSON body with base64 "image_data", and returns a description plus descriptors.
// @Tags        Eggs
// @Accept      mpfd,json
// @Produce     json
// @Param       image  formData  file                          false  "Image upload"
// @Param       body   body      handlers.AnalyzeImageRequest  false  "Base64 image"
// @Success     200    {object}  handlers.AnalysisResponse
// @Failure     400    {object}  handlers.ErrorResponse  "Bad request"
// @Failure     413    {object}  handlers.ErrorResponse  "Payload too large"
// @Failure     502    {object}  handlers.ErrorResponse  "Provider failure"
// @Router      /api/analyze-image [post]
func (h *Handlers) AnalyzeImage(c *gin.Context) {
	var in services.ImageInput
	if isMultipart(c) {
		upload, status, msg, err := readUpload(c)
		if err != nil {
			code := ErrCodeBadRequest
			if status == http.StatusRequestEntityTooLarge {
				code = ErrCodePayloadTooLarge
			}
			fail(c, status, code, msg, err)
			return
		}
		in = upload
	} else {
		var req AnalyzeImageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if tooLarge(err) {
				serviceError(c, err, "Failed to analyze image")
				return
			}
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "No image data provided", err)
			return
		}
		if strings.TrimSpace(req.ImageData) == "" {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "No image_data in request", services.ErrInvalidInput)
			return
		}
		in = services.ImageInput{Base64: req.ImageData}
	}

	a, err := h.svc.AnalyzeImage(c.Request.Context(), in)
	if err != nil {
		serviceError(c, err, "Failed to analyze image")
		return
	}
	ok(c, http.StatusOK, AnalysisResponse{Success: true, Analysis: a, Message: "Image analyzed successfully!"})
}

// ListEggs godoc
// @ID          listEggs
// @Summary     List eggs
// @Tags        Eggs
// @Produce     json
// @Success     200  {object}  handlers.EggListResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /api/eggs [get]
func (h *Handlers) ListEggs(c *gin.Context) {
	eggs, err := h.svc.ListEggs(c.Request.Context())
	if err != nil {
		serviceError(c, err, "Failed to retrieve eggs")
		return
	}
	if eggs == nil {
		eggs = []domain.Egg{}
	}
	ok(c, http.StatusOK, EggListResponse{Success: true, Eggs: eggs})
}

// ListCreatures godoc
// @ID          listCreatures
// @Summary     List creatures
// @Tags        Creatures
// @Produce     json
// @Success     200  {object}  handlers.CreatureListResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /api/creatures [get]
func (h *Handlers) ListCreatures(c *gin.Context) {
	creatures, err := h.svc.ListCreatures(c.Request.Context())
	if err != nil {
		serviceError(c, err, "Failed to retrieve creatures")
		return
	}
	if creatures == nil {
		creatures = []domain.Creature{}
	}
	ok(c, http.StatusOK, CreatureListResponse{Success: true, Creatures: creatures})
}

// CareQuestions godoc
// @ID          careQuestions
// @Summary     Get a care question
// @Description Returns one incubation question chosen at random.
// @Tags        Creatures
// @Produce     json
// @Success     200  {object}  handlers.CareQuestionsResponse
// @Router      /api/care-questions [get]
func (h *Handlers) CareQuestions(c *gin.Context) {
	q := h.svc.CareQuestion()
	ok(c, http.StatusOK, CareQuestionsResponse{
		Success:   true,
		Questions: CareQuestionSet{Questions: []prompts.CareQuestion{q}},
	})
}

// HatchCreature godoc
// @ID          hatchCreature
// @Summary     Hatch a creature
// @Description Generates a named creature with an image and sound from an egg and the first care response.
// @Tags        Creatures
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.HatchCreatureRequest  true  "Egg id and care responses"
// @Success     200   {object}  handlers.CreatureResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404   {object}  handlers.ErrorResponse  "Egg not found"
// @Failure     502   {object}  handlers.ErrorResponse  "Provider failure"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /api/hatch-creature [post]
func (h *Handlers) HatchCreature(c *gin.Context) {
	var req HatchCreatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if tooLarge(err) {
			serviceError(c, err, "Failed to hatch creature")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", err)
		return
	}
	eggID := strings.TrimSpace(req.EggID)
	if eggID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Egg ID is required", services.ErrInvalidInput)
		return
	}

	creature, err := h.svc.Hatch(c.Request.Context(), eggID, req.CareResponses)
	if err != nil {
		serviceError(c, err, "Failed to hatch creature")
		return
	}
	ok(c, http.StatusOK, CreatureResponse{Success: true, Creature: creature, Message: "Creature hatched successfully!"})
}
