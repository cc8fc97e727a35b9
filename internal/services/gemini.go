package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"vestia-backend/internal/models"
	"vestia-backend/internal/store"
)

// GeminiService sends chat turns to the generative-language API, walking the
// model priority list until one yields a usable answer. The walk always
// starts from the top of the static list; a success on a lower-priority model
// promotes it to sticky preferred for display only.
type GeminiService struct {
	catalog  *store.ModelCatalog
	notifier store.Notifier
	timeout  time.Duration
	attempt  attemptFunc
}

// SendResult is a successful chat turn.
type SendResult struct {
	Text     string
	Model    string
	Promoted bool
}

// promptRequest is the snapshot handed to each model attempt. History is
// frozen at build time; a concurrent send cannot mutate it mid-walk.
type promptRequest struct {
	history []models.ChatTurn
	message string
	images  []models.StoredImage
}

// attemptFunc issues one request against one model. Injected in tests.
type attemptFunc func(ctx context.Context, apiKey, model string, req promptRequest) (string, error)

func NewGeminiService(catalog *store.ModelCatalog, notifier store.Notifier, timeout time.Duration) *GeminiService {
	if notifier == nil {
		notifier = store.NopNotifier{}
	}
	return &GeminiService{
		catalog:  catalog,
		notifier: notifier,
		timeout:  timeout,
		attempt:  geminiAttempt,
	}
}

// Catalog exposes the model priority list backing this service.
func (s *GeminiService) Catalog() *store.ModelCatalog {
	return s.catalog
}

// Send runs the fallback walk for one chat turn. history must not include the
// new user turn. Images are attached only when the currently preferred model
// is flagged image-capable; the flag is checked once, before iterating.
func (s *GeminiService) Send(ctx context.Context, sessionID, apiKey string, history []models.ChatTurn, message string, images []models.StoredImage) (*SendResult, error) {
	if !store.ImageCapable(s.catalog.Preferred()) {
		images = nil
	}

	req := promptRequest{
		history: history,
		message: buildUserPrompt(message),
		images:  images,
	}

	preferred := s.catalog.Preferred()
	var attempted []string
	var lastErr error

	for _, model := range s.catalog.List() {
		attempted = append(attempted, model)

		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		text, err := s.attempt(attemptCtx, apiKey, model, req)
		cancel()

		if err == nil {
			promoted := false
			if model != preferred && s.catalog.Promote(model) {
				promoted = true
				s.notifier.ModelPromoted(ctx, sessionID, model, store.DisplayName(model))
				log.Printf("gemini: promoted model %s for session %s", model, sessionID)
			}
			return &SendResult{Text: text, Model: model, Promoted: promoted}, nil
		}

		// Caller cancellation wins over any classification, wherever in the
		// walk it fires.
		if errors.Is(err, ErrCancelled) || ctx.Err() != nil {
			return nil, ErrCancelled
		}

		var unavailable *ModelUnavailableError
		var network *NetworkError
		switch {
		case errors.As(err, &unavailable), errors.As(err, &network):
			// Try the next candidate.
			log.Printf("gemini: model %s failed for session %s, trying next: %v", model, sessionID, err)
			lastErr = err
			continue
		default:
			// API errors, safety blocks and empty responses are not
			// model-specific: stop the walk.
			return nil, err
		}
	}

	return nil, &ExhaustedError{Attempted: attempted, Last: lastErr}
}

// geminiAttempt issues one request against one model via the Gemini SDK.
func geminiAttempt(ctx context.Context, apiKey, model string, req promptRequest) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", classifyAttemptError(ctx, model, err)
	}
	defer client.Close()

	m := client.GenerativeModel(model)
	m.SetTemperature(0.7)
	m.SetTopK(40)
	m.SetTopP(0.95)
	m.SetMaxOutputTokens(2048)
	m.SafetySettings = defaultSafetySettings()

	cs := m.StartChat()
	for _, turn := range req.history {
		role := "user"
		if turn.Role == models.RoleBot {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Text)},
		})
	}

	parts := []genai.Part{genai.Text(req.message)}
	for _, img := range req.images {
		decoded, decErr := base64.StdEncoding.DecodeString(img.Data)
		if decErr != nil {
			continue
		}
		parts = append(parts, genai.Blob{MIMEType: img.MIMEType, Data: decoded})
	}

	resp, err := cs.SendMessage(ctx, parts...)
	if err != nil {
		return "", classifyAttemptError(ctx, model, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", &SafetyBlockedError{Reason: fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)}
		}
		return "", &NoTextError{Model: model}
	}

	text := extractText(resp)
	if text == "" {
		return "", &NoTextError{Model: model}
	}
	return text, nil
}

// classifyAttemptError maps a raw SDK error onto the error taxonomy using
// the substrings the provider's error messages are known to carry.
func classifyAttemptError(ctx context.Context, model string, err error) error {
	if errors.Is(err, context.Canceled) {
		return ErrCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		// Per-attempt timeout behaves like any transport failure.
		return &NetworkError{Err: err}
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "not found"), strings.Contains(lower, "not supported"):
		return &ModelUnavailableError{Model: model}
	case strings.Contains(lower, "api key"), strings.Contains(lower, "api_key"):
		return &APIError{Kind: KindInvalidKey, Message: msg}
	case strings.Contains(lower, "quota"):
		return &APIError{Kind: KindQuotaExceeded, Message: msg}
	case strings.Contains(lower, "safety"):
		return &APIError{Kind: KindSafetyBlocked, Message: msg}
	case strings.Contains(lower, "connection"), strings.Contains(lower, "dial"),
		strings.Contains(lower, "timeout"), strings.Contains(lower, "unavailable"):
		return &NetworkError{Err: err}
	default:
		return &APIError{Kind: KindUnknown, Message: msg}
	}
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func defaultSafetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockMediumAndAbove},
	}
}

// buildUserPrompt wraps the user's message with the stylist persona. The
// persona rides inside the user turn so every model in the fallback list
// honors it, no matter how it treats system instructions.
func buildUserPrompt(message string) string {
	var b strings.Builder

	b.WriteString(systemPrompt())
	b.WriteString("\n\nUser question: ")
	b.WriteString(message)
	b.WriteString("\n\nRemember: stay focused on fashion and style. If the question is not about fashion, gently steer the conversation back to clothing and personal style.")

	return b.String()
}

func systemPrompt() string {
	return `You are Edna Modas, a fashion advisor for the VestIA boutique.
Your purpose is to help users with fashion recommendations, outfit combinations, styles and clothing advice.

WHEN YOU RECEIVE IMAGES:
1. Analyze the garments, colors, styles and accessories
2. Give specific recommendations based on what you see
3. Suggest combinations with other garments
4. Identify the style (casual, formal, sporty, etc.)
5. Recommend complementary accessories
6. If it is a photo of a person, analyze their current style and suggest improvements

IMPORTANT RULES:
1. ONLY answer questions related to fashion, style, clothing, accessories and outfits
2. If you are sent images unrelated to fashion, reply kindly:
   "I can see you shared an image, but as your fashion advisor I can only help with garments and style. Do you have a piece you would like me to look at?"
3. Keep a friendly, professional and constructive tone
4. Be specific in your recommendations
5. Always relate your answers to fashion and personal style`
}
