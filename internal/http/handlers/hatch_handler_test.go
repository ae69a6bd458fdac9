package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-hatch-backend/internal/domain"
	"github.com/tbourn/go-hatch-backend/internal/prompts"
	"github.com/tbourn/go-hatch-backend/internal/services"
)

//
// Fakes
//

type fakeHatchery struct {
	createFn   func(ctx context.Context, description string, descriptors []string) (*domain.Egg, error)
	analyzeFn  func(ctx context.Context, in services.ImageInput) (*services.Analysis, error)
	eggs       []domain.Egg
	creatures  []domain.Creature
	listErr    error
	question   prompts.CareQuestion
	hatchFn    func(ctx context.Context, eggID string, care domain.CareResponses) (*domain.Creature, error)
	gotAnalyze services.ImageInput
	gotCare    domain.CareResponses
}

func (f *fakeHatchery) CreateEgg(ctx context.Context, description string, descriptors []string) (*domain.Egg, error) {
	return f.createFn(ctx, description, descriptors)
}

func (f *fakeHatchery) AnalyzeImage(ctx context.Context, in services.ImageInput) (*services.Analysis, error) {
	f.gotAnalyze = in
	if f.analyzeFn != nil {
		return f.analyzeFn(ctx, in)
	}
	return &services.Analysis{Description: "a cat", Descriptors: []string{"fluffy"}}, nil
}

func (f *fakeHatchery) ListEggs(context.Context) ([]domain.Egg, error) {
	return f.eggs, f.listErr
}

func (f *fakeHatchery) ListCreatures(context.Context) ([]domain.Creature, error) {
	return f.creatures, f.listErr
}

func (f *fakeHatchery) CareQuestion() prompts.CareQuestion { return f.question }

func (f *fakeHatchery) Hatch(ctx context.Context, eggID string, care domain.CareResponses) (*domain.Creature, error) {
	f.gotCare = care
	return f.hatchFn(ctx, eggID, care)
}

func newHatchRouter(svc HatcheryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(svc)
	h.now = func() time.Time { return time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC) }
	r.GET("/health", h.Health)
	r.POST("/api/create-egg", h.CreateEgg)
	r.POST("/api/analyze-image", h.AnalyzeImage)
	r.GET("/api/eggs", h.ListEggs)
	r.GET("/api/creatures", h.ListCreatures)
	r.GET("/api/care-questions", h.CareQuestions)
	r.POST("/api/hatch-creature", h.HatchCreature)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return er
}

//
// Tests
//

func TestHealth(t *testing.T) {
	r := newHatchRouter(&fakeHatchery{})
	w := doJSON(r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var got HealthResponse
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Status != "healthy" || got.Message == "" || got.Timestamp != "2025-01-01T10:00:00Z" {
		t.Fatalf("unexpected health: %+v", got)
	}
}

func TestCreateEgg_KeepsDescriptionAsSent(t *testing.T) {
	var gotDesc string
	var gotDescriptors []string
	svc := &fakeHatchery{createFn: func(_ context.Context, d string, ds []string) (*domain.Egg, error) {
		gotDesc, gotDescriptors = d, ds
		return &domain.Egg{ID: "e1", Description: d, Descriptors: ds, Status: domain.EggCreated}, nil
	}}
	r := newHatchRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/create-egg",
		`{"description":"  A swirling galaxy  ","descriptors":["cosmic"," ","blue"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if gotDesc != "  A swirling galaxy  " || len(gotDescriptors) != 2 || gotDescriptors[1] != "blue" {
		t.Fatalf("service got %q %v", gotDesc, gotDescriptors)
	}
	var resp EggResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Success || resp.Egg == nil || resp.Egg.ID != "e1" || resp.Message == "" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestCreateEgg_Validation(t *testing.T) {
	called := false
	svc := &fakeHatchery{createFn: func(context.Context, string, []string) (*domain.Egg, error) {
		called = true
		return nil, nil
	}}
	r := newHatchRouter(svc)

	for _, body := range []string{
		`{"description":"","descriptors":["a"]}`,
		`{"description":"x","descriptors":[]}`,
		`{"description":"x","descriptors":["  "]}`,
		`{"description":"x"}`,
		`not json`,
	} {
		w := doJSON(r, http.MethodPost, "/api/create-egg", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", body, w.Code)
		}
		if er := decodeError(t, w); er.Success || er.Code != ErrCodeBadRequest {
			t.Fatalf("%s: body=%+v", body, er)
		}
	}
	if called {
		t.Fatalf("service must not be called for invalid input")
	}
}

func TestCreateEgg_UpstreamIs502(t *testing.T) {
	svc := &fakeHatchery{createFn: func(context.Context, string, []string) (*domain.Egg, error) {
		return nil, fmt.Errorf("egg image: %w: %w", services.ErrUpstream, errors.New("rate limited"))
	}}
	r := newHatchRouter(svc)
	w := doJSON(r, http.MethodPost, "/api/create-egg", `{"description":"d","descriptors":["a"]}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status=%d", w.Code)
	}
	er := decodeError(t, w)
	if er.Code != ErrCodeUpstream || er.Message != "Failed to create egg" || !strings.Contains(er.Error, "rate limited") {
		t.Fatalf("unexpected body: %+v", er)
	}
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestAnalyzeImage_Multipart(t *testing.T) {
	svc := &fakeHatchery{}
	r := newHatchRouter(svc)

	body, ct := multipartBody(t, "image", "Cat.PNG", []byte("PNGDATA"))
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-image", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if svc.gotAnalyze.Filename != "Cat.PNG" || string(svc.gotAnalyze.Data) != "PNGDATA" {
		t.Fatalf("service got %+v", svc.gotAnalyze)
	}
	var resp AnalysisResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Success || resp.Analysis == nil || resp.Analysis.Description != "a cat" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestAnalyzeImage_MultipartRejectsBadInput(t *testing.T) {
	r := newHatchRouter(&fakeHatchery{})
	cases := []struct {
		name, field, file string
		data              []byte
		wantMsg           string
	}{
		{"wrong extension", "image", "notes.txt", []byte("x"), "Invalid file type"},
		{"no extension", "image", "image", []byte("x"), "Invalid file type"},
		{"missing part", "photo", "cat.png", []byte("x"), "No image file provided"},
		{"empty file", "image", "cat.png", nil, "No image file provided"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, ct := multipartBody(t, tc.field, tc.file, tc.data)
			req := httptest.NewRequest(http.MethodPost, "/api/analyze-image", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d", w.Code)
			}
			if er := decodeError(t, w); !strings.HasPrefix(er.Message, tc.wantMsg) {
				t.Fatalf("message=%q", er.Message)
			}
		})
	}
}

func TestAnalyzeImage_JSON(t *testing.T) {
	svc := &fakeHatchery{}
	r := newHatchRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/analyze-image", `{"image_data":"aGVsbG8="}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if svc.gotAnalyze.Base64 != "aGVsbG8=" || len(svc.gotAnalyze.Data) != 0 {
		t.Fatalf("service got %+v", svc.gotAnalyze)
	}

	w = doJSON(r, http.MethodPost, "/api/analyze-image", `{"image_data":""}`)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Message != "No image_data in request" {
		t.Fatalf("empty image_data: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(r, http.MethodPost, "/api/analyze-image", `{`)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Message != "No image data provided" {
		t.Fatalf("bad json: %d %s", w.Code, w.Body.String())
	}
}

func TestAnalyzeImage_TooLargeIs413(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 16)
		c.Next()
	})
	r.POST("/api/analyze-image", New(&fakeHatchery{}).AnalyzeImage)

	w := doJSON(r, http.MethodPost, "/api/analyze-image", `{"image_data":"`+strings.Repeat("A", 64)+`"}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if er := decodeError(t, w); er.Code != ErrCodePayloadTooLarge {
		t.Fatalf("code=%q", er.Code)
	}
}

func TestListEggsAndCreatures_EmptyIsArray(t *testing.T) {
	r := newHatchRouter(&fakeHatchery{})

	w := doJSON(r, http.MethodGet, "/api/eggs", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"eggs":[]`) {
		t.Fatalf("eggs: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(r, http.MethodGet, "/api/creatures", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"creatures":[]`) {
		t.Fatalf("creatures: %d %s", w.Code, w.Body.String())
	}
}

func TestListEggs_ReadErrorIs500(t *testing.T) {
	r := newHatchRouter(&fakeHatchery{listErr: errors.New("corrupt document")})
	w := doJSON(r, http.MethodGet, "/api/eggs", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if er := decodeError(t, w); er.Message != "Failed to retrieve eggs" {
		t.Fatalf("message=%q", er.Message)
	}
}

func TestCareQuestions_Shape(t *testing.T) {
	q := prompts.CareQuestion{ID: "feelings", Question: "How does the egg make you feel?", Placeholder: "e.g."}
	r := newHatchRouter(&fakeHatchery{question: q})

	w := doJSON(r, http.MethodGet, "/api/care-questions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var raw struct {
		Success   bool `json:"success"`
		Questions struct {
			Questions []prompts.CareQuestion `json:"questions"`
		} `json:"questions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !raw.Success || len(raw.Questions.Questions) != 1 || raw.Questions.Questions[0] != q {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestHatchCreature_Success(t *testing.T) {
	audio := "/static/audio/creature_sound_c1.mp3"
	svc := &fakeHatchery{hatchFn: func(_ context.Context, eggID string, _ domain.CareResponses) (*domain.Creature, error) {
		return &domain.Creature{ID: "c1", EggID: eggID, Name: "Glimmer", AudioURL: &audio}, nil
	}}
	r := newHatchRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/hatch-creature",
		`{"egg_id":"e1","care_responses":{"feelings":"peaceful and curious","sounds":"humming"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if first, ok := svc.gotCare.First(); !ok || first.QuestionID != "feelings" || first.Answer != "peaceful and curious" {
		t.Fatalf("care order lost: %+v", svc.gotCare)
	}
	var resp CreatureResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Success || resp.Creature == nil || resp.Creature.EggID != "e1" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestHatchCreature_Errors(t *testing.T) {
	svc := &fakeHatchery{hatchFn: func(_ context.Context, eggID string, _ domain.CareResponses) (*domain.Creature, error) {
		switch eggID {
		case "missing":
			return nil, services.ErrEggNotFound
		default:
			return nil, fmt.Errorf("creature concept: %w: %w", services.ErrUpstream, errors.New("down"))
		}
	}}
	r := newHatchRouter(svc)

	cases := []struct {
		body   string
		status int
		code   string
	}{
		{`{"care_responses":{}}`, http.StatusBadRequest, ErrCodeBadRequest},
		{`{"egg_id":"  "}`, http.StatusBadRequest, ErrCodeBadRequest},
		{`{"egg_id":"e1","care_responses":["not","an","object"]}`, http.StatusBadRequest, ErrCodeBadRequest},
		{`{"egg_id":"missing"}`, http.StatusNotFound, ErrCodeNotFound},
		{`{"egg_id":"e1"}`, http.StatusBadGateway, ErrCodeUpstream},
	}
	for _, tc := range cases {
		w := doJSON(r, http.MethodPost, "/api/hatch-creature", tc.body)
		if w.Code != tc.status {
			t.Fatalf("%s: status=%d want %d", tc.body, w.Code, tc.status)
		}
		if er := decodeError(t, w); er.Code != tc.code || er.Success {
			t.Fatalf("%s: body=%+v", tc.body, er)
		}
	}
}
