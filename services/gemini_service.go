package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nutrilens/utils"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

var ErrAIUnavailable = errors.New("AI service unavailable")

// Generator produces text (ideally JSON) from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TextExtractor reads the printed text on a label photo.
type TextExtractor interface {
	ExtractText(ctx context.Context, img utils.Image) (string, error)
}

// GeminiService talks to the Gemini API for OCR and analysis.
type GeminiService struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiService(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiService{client: client, model: model, timeout: timeout}, nil
}

const ocrInstruction = `Transcribe all printed text visible on this label exactly as written, ` +
	`line by line. Include nutrition facts tables, ingredient lists, drug facts, dosage and warnings. ` +
	`Return only the transcribed text. If there is no readable text, return an empty response.`

func (g *GeminiService) ExtractText(ctx context.Context, img utils.Image) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, img.MIMEType),
			genai.NewPartFromText(ocrInstruction),
		}, genai.RoleUser),
	}
	text, err := g.generate(ctx, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (g *GeminiService) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	return g.generate(ctx, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
	})
}

func (g *GeminiService) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		utils.Log.Warn("gemini request failed", zap.String("model", g.model), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}
	utils.Log.Debug("gemini response", zap.String("model", g.model), zap.Duration("took", time.Since(start)))
	return resp.Text(), nil
}
