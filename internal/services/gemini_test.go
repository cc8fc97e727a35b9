package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"vestia-backend/internal/models"
	"vestia-backend/internal/store"
)

func testModels() []string {
	return []string{"model-a", "model-b", "model-c"}
}

// scripted builds an attemptFunc that replays per-model outcomes and records
// the order of attempts.
func scripted(outcomes map[string]error, texts map[string]string, attempted *[]string) attemptFunc {
	return func(ctx context.Context, apiKey, model string, req promptRequest) (string, error) {
		*attempted = append(*attempted, model)
		if err := outcomes[model]; err != nil {
			return "", err
		}
		return texts[model], nil
	}
}

func newTestService(catalog *store.ModelCatalog, attempt attemptFunc) *GeminiService {
	svc := NewGeminiService(catalog, store.NopNotifier{}, time.Second)
	svc.attempt = attempt
	return svc
}

func TestFallbackSkipsUnavailableModels(t *testing.T) {
	catalog := store.NewModelCatalog(testModels())
	var attempted []string

	svc := newTestService(catalog, scripted(
		map[string]error{"model-a": &ModelUnavailableError{Model: "model-a"}},
		map[string]string{"model-b": "hello from b"},
		&attempted,
	))

	result, err := svc.Send(context.Background(), "s1", "key", nil, "hi", nil)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(attempted) != 2 || attempted[0] != "model-a" || attempted[1] != "model-b" {
		t.Errorf("Expected attempts [model-a model-b], got %v", attempted)
	}
	if result.Text != "hello from b" {
		t.Errorf("Expected text from model-b, got %q", result.Text)
	}
	if result.Model != "model-b" {
		t.Errorf("Expected model-b, got %q", result.Model)
	}
	if !result.Promoted {
		t.Error("Expected model-b to be promoted")
	}
	if catalog.Preferred() != "model-b" {
		t.Errorf("Expected preferred model-b, got %q", catalog.Preferred())
	}
}

func TestFallbackStopsOnQuotaError(t *testing.T) {
	catalog := store.NewModelCatalog([]string{"model-a", "model-b"})
	var attempted []string

	svc := newTestService(catalog, scripted(
		map[string]error{"model-a": &APIError{Kind: KindQuotaExceeded, Message: "quota exceeded"}},
		map[string]string{"model-b": "never reached"},
		&attempted,
	))

	_, err := svc.Send(context.Background(), "s1", "key", nil, "hi", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Kind != KindQuotaExceeded {
		t.Errorf("Expected quota kind, got %s", apiErr.Kind)
	}
	if len(attempted) != 1 || attempted[0] != "model-a" {
		t.Errorf("Expected only model-a attempted, got %v", attempted)
	}
}

func TestFallbackStopsOnSafetyBlock(t *testing.T) {
	catalog := store.NewModelCatalog(testModels())
	var attempted []string

	svc := newTestService(catalog, scripted(
		map[string]error{"model-a": &SafetyBlockedError{Reason: "SAFETY"}},
		nil,
		&attempted,
	))

	_, err := svc.Send(context.Background(), "s1", "key", nil, "hi", nil)

	var blocked *SafetyBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("Expected SafetyBlockedError, got %v", err)
	}
	if len(attempted) != 1 {
		t.Errorf("Expected 1 attempt, got %v", attempted)
	}
}

func TestFallbackContinuesPastNetworkFailures(t *testing.T) {
	catalog := store.NewModelCatalog(testModels())
	var attempted []string

	svc := newTestService(catalog, scripted(
		map[string]error{"model-a": &NetworkError{Err: errors.New("dial tcp: connection refused")}},
		map[string]string{"model-b": "recovered"},
		&attempted,
	))

	result, err := svc.Send(context.Background(), "s1", "key", nil, "hi", nil)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if result.Text != "recovered" {
		t.Errorf("Expected reply from model-b, got %q", result.Text)
	}
}

func TestFallbackExhaustionCarriesAttempts(t *testing.T) {
	catalog := store.NewModelCatalog(testModels())
	var attempted []string

	svc := newTestService(catalog, scripted(
		map[string]error{
			"model-a": &ModelUnavailableError{Model: "model-a"},
			"model-b": &ModelUnavailableError{Model: "model-b"},
			"model-c": &ModelUnavailableError{Model: "model-c"},
		},
		nil,
		&attempted,
	))

	_, err := svc.Send(context.Background(), "s1", "key", nil, "hi", nil)

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Expected ExhaustedError, got %v", err)
	}
	if len(exhausted.Attempted) != 3 {
		t.Errorf("Expected 3 attempted models, got %v", exhausted.Attempted)
	}

	var unavailable *ModelUnavailableError
	if !errors.As(exhausted.Last, &unavailable) {
		t.Errorf("Expected last error to be ModelUnavailableError, got %v", exhausted.Last)
	}
}

func TestCancellationWinsOverExhaustion(t *testing.T) {
	catalog := store.NewModelCatalog(testModels())

	ctx, cancel := context.WithCancel(context.Background())

	var attempted []string
	svc := newTestService(catalog, func(attemptCtx context.Context, apiKey, model string, req promptRequest) (string, error) {
		attempted = append(attempted, model)
		cancel()
		return "", ErrCancelled
	})

	_, err := svc.Send(ctx, "s1", "key", nil, "hi", nil)

	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Expected ErrCancelled, got %v", err)
	}
	if len(attempted) != 1 {
		t.Errorf("Expected the walk to abort after 1 attempt, got %v", attempted)
	}
}

func TestSuccessOnPreferredModelDoesNotPromote(t *testing.T) {
	catalog := store.NewModelCatalog(testModels())
	var attempted []string

	svc := newTestService(catalog, scripted(
		nil,
		map[string]string{"model-a": "from the top"},
		&attempted,
	))

	result, err := svc.Send(context.Background(), "s1", "key", nil, "hi", nil)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if result.Promoted {
		t.Error("Expected no promotion when the preferred model succeeds")
	}
}

func TestWalkRestartsFromTopAfterPromotion(t *testing.T) {
	catalog := store.NewModelCatalog(testModels())
	catalog.Promote("model-b")

	var attempted []string
	svc := newTestService(catalog, scripted(
		nil,
		map[string]string{"model-a": "a is back"},
		&attempted,
	))

	// Even with model-b sticky preferred, iteration starts at model-a.
	result, err := svc.Send(context.Background(), "s1", "key", nil, "hi", nil)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if attempted[0] != "model-a" {
		t.Errorf("Expected walk to start at model-a, got %v", attempted)
	}
	if result.Model != "model-a" {
		t.Errorf("Expected success on model-a, got %q", result.Model)
	}
	if !result.Promoted {
		t.Error("Expected model-a to become preferred again")
	}
}

func TestImagesDroppedWhenPreferredModelLacksImageSupport(t *testing.T) {
	catalog := store.NewModelCatalog([]string{"gemini-pro", "gemini-1.5-flash"})

	var gotImages int
	svc := newTestService(catalog, func(ctx context.Context, apiKey, model string, req promptRequest) (string, error) {
		gotImages = len(req.images)
		return "ok", nil
	})

	images := []models.StoredImage{{ID: "img1", MIMEType: "image/png", Data: "aGk="}}
	if _, err := svc.Send(context.Background(), "s1", "key", nil, "hi", images); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotImages != 0 {
		t.Errorf("Expected images stripped for non-image-capable preferred model, got %d", gotImages)
	}
}

func TestClassifyAttemptError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checkFn func(t *testing.T, got error)
	}{
		{
			"model not found",
			errors.New("models/gemini-x is not found for API version v1beta"),
			func(t *testing.T, got error) {
				var e *ModelUnavailableError
				if !errors.As(got, &e) {
					t.Errorf("Expected ModelUnavailableError, got %v", got)
				}
			},
		},
		{
			"invalid api key",
			errors.New("API key not valid. Please pass a valid API key."),
			func(t *testing.T, got error) {
				var e *APIError
				if !errors.As(got, &e) || e.Kind != KindInvalidKey {
					t.Errorf("Expected invalid key APIError, got %v", got)
				}
			},
		},
		{
			"quota",
			errors.New("Quota exceeded for quota metric"),
			func(t *testing.T, got error) {
				var e *APIError
				if !errors.As(got, &e) || e.Kind != KindQuotaExceeded {
					t.Errorf("Expected quota APIError, got %v", got)
				}
			},
		},
		{
			"cancelled",
			context.Canceled,
			func(t *testing.T, got error) {
				if !errors.Is(got, ErrCancelled) {
					t.Errorf("Expected ErrCancelled, got %v", got)
				}
			},
		},
		{
			"connection refused",
			errors.New("dial tcp 1.2.3.4:443: connection refused"),
			func(t *testing.T, got error) {
				var e *NetworkError
				if !errors.As(got, &e) {
					t.Errorf("Expected NetworkError, got %v", got)
				}
			},
		},
		{
			"anything else",
			errors.New("internal server error"),
			func(t *testing.T, got error) {
				var e *APIError
				if !errors.As(got, &e) || e.Kind != KindUnknown {
					t.Errorf("Expected unknown APIError, got %v", got)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyAttemptError(context.Background(), "gemini-x", tc.err)
			tc.checkFn(t, got)
		})
	}
}
