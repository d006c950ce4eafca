package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/neuralplan/neuralplan-backend/internal/logger"
)

var (
	// ErrNoCredentials means no API keys were configured at all.
	ErrNoCredentials = errors.New("no gemini api keys configured")
	// ErrQuotaExhausted means every configured key hit its quota.
	ErrQuotaExhausted = errors.New("all gemini api keys exhausted")
)

// GeminiClient generates model output, rotating through the configured
// API keys in order. A quota failure moves on to the next key; any other
// failure stops immediately since retrying it with a different key would
// just burn quota on the same bad request.
type GeminiClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateVision(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error)
}

type geminiClient struct {
	log   *logger.Logger
	keys  []string
	model string

	// generate is swapped out in tests. It runs one request against one key.
	generate func(ctx context.Context, key string, parts []genai.Part) (string, error)
}

func NewGeminiClient(baseLog *logger.Logger, keys []string, model string) GeminiClient {
	gc := &geminiClient{
		log:   baseLog.With("service", "GeminiClient"),
		keys:  keys,
		model: model,
	}
	gc.generate = gc.generateOnce
	return gc
}

func (gc *geminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return gc.withRotation(ctx, []genai.Part{genai.Text(prompt)})
}

func (gc *geminiClient) GenerateVision(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error) {
	format := strings.TrimPrefix(mimeType, "image/")
	parts := []genai.Part{
		genai.ImageData(format, imageData),
		genai.Text(prompt),
	}
	return gc.withRotation(ctx, parts)
}

func (gc *geminiClient) withRotation(ctx context.Context, parts []genai.Part) (string, error) {
	if len(gc.keys) == 0 {
		return "", ErrNoCredentials
	}
	for i, key := range gc.keys {
		text, err := gc.generate(ctx, key, parts)
		if err == nil {
			return text, nil
		}
		if isQuotaErr(err) {
			gc.log.Warn("Gemini key exhausted, rotating", "key_index", i, "error", err)
			continue
		}
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return "", ErrQuotaExhausted
}

func (gc *geminiClient) generateOnce(ctx context.Context, key string, parts []genai.Part) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(gc.model)
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("response contained no text parts")
	}
	return sb.String(), nil
}

// isQuotaErr reports whether the failure is a rate or quota rejection,
// the only class worth retrying on the next key.
func isQuotaErr(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == 429 {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"quota", "resource_exhausted", "rate limit", "429"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// extractJSON pulls a JSON document out of model output that may be
// wrapped in markdown fences or surrounded by prose. It returns the
// first balanced object or array found.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return "", fmt.Errorf("no json found in model output")
	}
	open := s[start]
	closer := byte('}')
	if open == '[' {
		closer = ']'
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced json in model output")
}
