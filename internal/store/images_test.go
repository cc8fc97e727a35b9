package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"vestia-backend/internal/models"
	"vestia-backend/internal/storage"
)

func validUpload() models.ImageUpload {
	return models.ImageUpload{
		MIMEType: "image/png",
		Data:     base64.StdEncoding.EncodeToString([]byte("fake png bytes")),
	}
}

func TestAddBatchValidatesEachImageIndependently(t *testing.T) {
	images := NewImageStore(storage.NewMemoryStore(), 1024, 50)
	ctx := context.Background()

	uploads := []models.ImageUpload{
		validUpload(),
		{MIMEType: "application/pdf", Data: base64.StdEncoding.EncodeToString([]byte("doc"))},
		{MIMEType: "image/jpeg", Data: "%%% not base64 %%%"},
		{MIMEType: "image/gif", Data: base64.StdEncoding.EncodeToString(make([]byte, 2048))},
		validUpload(),
	}

	accepted, rejected := images.AddBatch(ctx, testSession, uploads)

	if len(accepted) != 2 {
		t.Errorf("Expected 2 accepted images, got %d", len(accepted))
	}
	if len(rejected) != 3 {
		t.Fatalf("Expected 3 rejected images, got %d", len(rejected))
	}

	// The bad entries keep their original batch positions.
	wantIndexes := []int{1, 2, 3}
	for i, rej := range rejected {
		if rej.Index != wantIndexes[i] {
			t.Errorf("Expected rejected index %d, got %d", wantIndexes[i], rej.Index)
		}
	}
}

func TestSweepEvictsOldestBeyondCap(t *testing.T) {
	backend := storage.NewMemoryStore()
	images := NewImageStore(backend, 1024*1024, 50)
	ctx := context.Background()

	// Seed 55 images with strictly increasing timestamps.
	stored := map[string]models.StoredImage{}
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 55; i++ {
		id := fmt.Sprintf("img-%02d", i)
		stored[id] = models.StoredImage{
			ID:        id,
			MIMEType:  "image/png",
			SizeBytes: 10,
			Data:      base64.StdEncoding.EncodeToString([]byte("x")),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
	}
	raw, _ := json.Marshal(stored)
	backend.Set(ctx, testSession, storage.KeyImages, raw)

	evicted, err := images.Sweep(ctx, testSession)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if evicted != 5 {
		t.Errorf("Expected 5 evictions, got %d", evicted)
	}

	// The 5 oldest are gone, the 50 newest remain.
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("img-%02d", i)
		if _, err := images.Get(ctx, testSession, id); err == nil {
			t.Errorf("Expected %s evicted", id)
		}
	}
	for i := 5; i < 55; i++ {
		id := fmt.Sprintf("img-%02d", i)
		if _, err := images.Get(ctx, testSession, id); err != nil {
			t.Errorf("Expected %s retained: %v", id, err)
		}
	}
}

func TestSweepUnderCapIsNoop(t *testing.T) {
	images := NewImageStore(storage.NewMemoryStore(), 1024, 50)
	ctx := context.Background()

	images.AddBatch(ctx, testSession, []models.ImageUpload{validUpload(), validUpload()})

	evicted, err := images.Sweep(ctx, testSession)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if evicted != 0 {
		t.Errorf("Expected no evictions under cap, got %d", evicted)
	}
}

func TestGetManySkipsEvictedImages(t *testing.T) {
	images := NewImageStore(storage.NewMemoryStore(), 1024, 50)
	ctx := context.Background()

	accepted, _ := images.AddBatch(ctx, testSession, []models.ImageUpload{validUpload()})
	if len(accepted) != 1 {
		t.Fatalf("Expected 1 accepted image, got %d", len(accepted))
	}

	got := images.GetMany(ctx, testSession, []string{accepted[0].ID, "long-gone"})
	if len(got) != 1 || got[0].ID != accepted[0].ID {
		t.Errorf("Expected only the stored image resolved, got %v", got)
	}
}

func TestImageSizeLimit(t *testing.T) {
	images := NewImageStore(storage.NewMemoryStore(), 16, 50)
	ctx := context.Background()

	big := models.ImageUpload{
		MIMEType: "image/png",
		Data:     base64.StdEncoding.EncodeToString(make([]byte, 17)),
	}

	accepted, rejected := images.AddBatch(ctx, testSession, []models.ImageUpload{big})
	if len(accepted) != 0 {
		t.Errorf("Expected oversize image rejected, got %d accepted", len(accepted))
	}
	if len(rejected) != 1 {
		t.Errorf("Expected 1 rejection, got %d", len(rejected))
	}
}
