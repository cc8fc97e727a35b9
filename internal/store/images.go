package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vestia-backend/internal/models"
	"vestia-backend/internal/storage"
)

// ErrImageNotFound is returned when a referenced image has been evicted or
// never existed.
var ErrImageNotFound = errors.New("images: image not found")

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ImageStore keeps uploaded chat images in a bounded per-session map keyed by
// id. Retention is pure oldest-by-timestamp eviction over the cap; an evicted
// image may still be referenced by a turn, which then renders without it.
type ImageStore struct {
	backend  storage.Store
	maxBytes int
	cap      int

	mu       sync.Mutex
	sessions map[string]struct{} // sessions touched since startup, for the sweeper
}

func NewImageStore(backend storage.Store, maxBytes, cap int) *ImageStore {
	return &ImageStore{
		backend:  backend,
		maxBytes: maxBytes,
		cap:      cap,
		sessions: make(map[string]struct{}),
	}
}

// AddBatch validates and stores each upload independently: a rejected image
// is dropped with a reason while the rest of the batch is still processed.
func (s *ImageStore) AddBatch(ctx context.Context, sessionID string, uploads []models.ImageUpload) ([]models.StoredImage, []models.RejectedImage) {
	var accepted []models.StoredImage
	var rejected []models.RejectedImage

	images := s.load(ctx, sessionID)

	for i, up := range uploads {
		img, err := s.validate(up)
		if err != nil {
			rejected = append(rejected, models.RejectedImage{Index: i, Reason: err.Error()})
			continue
		}
		images[img.ID] = img
		accepted = append(accepted, img)
	}

	if len(accepted) > 0 {
		if err := s.save(ctx, sessionID, images); err != nil {
			log.Printf("images: persist for session %s: %v", sessionID, err)
		}
	}

	s.trackSession(sessionID)
	return accepted, rejected
}

// Get returns a stored image by id.
func (s *ImageStore) Get(ctx context.Context, sessionID, imageID string) (models.StoredImage, error) {
	images := s.load(ctx, sessionID)
	img, ok := images[imageID]
	if !ok {
		return models.StoredImage{}, ErrImageNotFound
	}
	return img, nil
}

// GetMany resolves image ids, silently skipping evicted ones.
func (s *ImageStore) GetMany(ctx context.Context, sessionID string, imageIDs []string) []models.StoredImage {
	images := s.load(ctx, sessionID)

	var out []models.StoredImage
	for _, id := range imageIDs {
		if img, ok := images[id]; ok {
			out = append(out, img)
		}
	}
	return out
}

// Sweep evicts the oldest images beyond the cap. Eviction ignores whether a
// turn still references the image.
func (s *ImageStore) Sweep(ctx context.Context, sessionID string) (int, error) {
	images := s.load(ctx, sessionID)
	if len(images) <= s.cap {
		return 0, nil
	}

	sorted := make([]models.StoredImage, 0, len(images))
	for _, img := range images {
		sorted = append(sorted, img)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	evict := len(sorted) - s.cap
	for _, img := range sorted[:evict] {
		delete(images, img.ID)
	}

	if err := s.save(ctx, sessionID, images); err != nil {
		return 0, err
	}
	return evict, nil
}

// Clear removes all images for the session.
func (s *ImageStore) Clear(ctx context.Context, sessionID string) error {
	return s.backend.Delete(ctx, sessionID, storage.KeyImages)
}

// Sessions lists the sessions the sweeper should visit.
func (s *ImageStore) Sessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		out = append(out, id)
	}
	return out
}

func (s *ImageStore) trackSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = struct{}{}
}

func (s *ImageStore) validate(up models.ImageUpload) (models.StoredImage, error) {
	if !allowedImageTypes[up.MIMEType] {
		return models.StoredImage{}, fmt.Errorf("unsupported image type %q", up.MIMEType)
	}

	decoded, err := base64.StdEncoding.DecodeString(up.Data)
	if err != nil {
		return models.StoredImage{}, fmt.Errorf("invalid base64 image data")
	}
	if len(decoded) == 0 {
		return models.StoredImage{}, fmt.Errorf("empty image")
	}
	if len(decoded) > s.maxBytes {
		return models.StoredImage{}, fmt.Errorf("image exceeds %d bytes", s.maxBytes)
	}

	return models.StoredImage{
		ID:        uuid.NewString(),
		MIMEType:  up.MIMEType,
		SizeBytes: len(decoded),
		Data:      up.Data,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (s *ImageStore) load(ctx context.Context, sessionID string) map[string]models.StoredImage {
	raw, err := s.backend.Get(ctx, sessionID, storage.KeyImages)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("images: load for session %s: %v", sessionID, err)
		}
		return map[string]models.StoredImage{}
	}

	var images map[string]models.StoredImage
	if err := json.Unmarshal(raw, &images); err != nil {
		log.Printf("images: corrupt image store for session %s: %v", sessionID, err)
		return map[string]models.StoredImage{}
	}
	if images == nil {
		images = map[string]models.StoredImage{}
	}
	return images
}

func (s *ImageStore) save(ctx context.Context, sessionID string, images map[string]models.StoredImage) error {
	raw, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("images: encode: %w", err)
	}
	if err := s.backend.Set(ctx, sessionID, storage.KeyImages, raw); err != nil {
		return fmt.Errorf("images: persist: %w", err)
	}
	return nil
}
