package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

var ErrDisabled = errors.New("GEMINI_API_KEY is not set")

// DescriptionWriter asks Gemini for a short listing description.
type DescriptionWriter struct {
	client *genai.Client
	model  string
	log    *slog.Logger
}

func NewDescriptionWriter(ctx context.Context, apiKey, model string, log *slog.Logger) (*DescriptionWriter, error) {
	if apiKey == "" {
		return nil, ErrDisabled
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if log == nil {
		log = slog.Default()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &DescriptionWriter{client: client, model: model, log: log}, nil
}

func (w *DescriptionWriter) Suggest(ctx context.Context, name, category, notes string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(BuildDescriptionPrompt(category)),
		genai.NewPartFromText(fmt.Sprintf("Cake name: %s\nCategory: %s\nBaker notes: %s", name, category, notes)),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	temp := float32(0.7)
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
	}

	start := time.Now()
	res, err := w.client.Models.GenerateContent(ctx, w.model, contents, config)
	if err != nil {
		w.log.WarnContext(ctx, "gemini generate failed", "model", w.model, "err", err)
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	desc, err := CleanDescription(res.Text())
	if err != nil {
		w.log.WarnContext(ctx, "gemini output unusable", "model", w.model, "len", len(res.Text()))
		return "", err
	}
	w.log.DebugContext(ctx, "description generated", "model", w.model, "gen_ms", time.Since(start).Milliseconds(), "len", len(desc))
	return desc, nil
}
