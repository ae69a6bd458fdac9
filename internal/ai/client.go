// Package ai adapts the OpenAI HTTP API to the small capability set the
// hatchery needs: image generation, vision description, text completion and
// speech synthesis. The adapter is constructed once in main and injected into
// the services layer; nothing here holds global state.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Default model identifiers.
const (
	DefaultImageModel  = openai.CreateImageModelDallE3
	DefaultChatModel   = openai.GPT4o
	DefaultSpeechModel = string(openai.TTSModel1)
	DefaultVoice       = string(openai.VoiceAlloy)
)

// ErrEmptyResponse is returned when the provider answers 2xx but with no
// usable payload (no image, no choices).
var ErrEmptyResponse = errors.New("provider returned an empty response")

// Config configures the adapter. Zero values fall back to the defaults above;
// an empty BaseURL keeps the library default.
type Config struct {
	APIKey      string
	BaseURL     string
	ImageModel  string
	ChatModel   string
	SpeechModel string
	Voice       string

	// HTTPClient is used for every provider call. Pass a traced client.
	HTTPClient *http.Client
}

// InlineImage is a base64-encoded image sent inline with a vision request.
type InlineImage struct {
	MIMEType string
	Base64   string
}

// DataURL renders the image as a data: URL.
func (i InlineImage) DataURL() string {
	mt := i.MIMEType
	if mt == "" {
		mt = "image/jpeg"
	}
	return "data:" + mt + ";base64," + i.Base64
}

// Client is the OpenAI-backed provider.
type Client struct {
	api *openai.Client
	cfg Config
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = DefaultSpeechModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	return &Client{api: openai.NewClientWithConfig(oc), cfg: cfg}
}

// GenerateImage requests a single 1024x1024 standard-quality image and
// returns the provider-hosted URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.cfg.ImageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		Quality:        openai.CreateImageQualityStandard,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("image generation: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("image generation: %w", ErrEmptyResponse)
	}
	return resp.Data[0].URL, nil
}

// DescribeImage sends instruction plus img to the chat model and returns the
// raw reply text.
func (c *Client) DescribeImage(ctx context.Context, instruction string, img InlineImage, maxTokens int) (string, error) {
	msg := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: instruction},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    img.DataURL(),
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	}
	return c.chat(ctx, msg, maxTokens)
}

// Complete runs a single-turn text completion.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return c.chat(ctx, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	}, maxTokens)
}

func (c *Client) chat(ctx context.Context, msg openai.ChatCompletionMessage, maxTokens int) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.cfg.ChatModel,
		Messages:  []openai.ChatCompletionMessage{msg},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: %w", ErrEmptyResponse)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Speak synthesizes text as MP3 audio. The caller must close the returned
// reader.
func (c *Client) Speak(ctx context.Context, text string) (io.ReadCloser, error) {
	resp, err := c.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.cfg.SpeechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(c.cfg.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	return resp.ReadCloser, nil
}
