// Package worker runs the background jobs that keep session state bounded.
package worker

import (
	"context"
	"log"
	"time"

	"vestia-backend/internal/store"
)

// ImageSweeper periodically trims each session's stored chat images down to
// the retention cap, oldest first.
type ImageSweeper struct {
	images   *store.ImageStore
	interval time.Duration
	stopChan chan struct{}
}

func NewImageSweeper(images *store.ImageStore, interval time.Duration) *ImageSweeper {
	return &ImageSweeper{
		images:   images,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (s *ImageSweeper) Start() {
	if s.images == nil {
		return
	}

	go s.loop()
	log.Printf("Image sweeper started (interval %s)", s.interval)
}

func (s *ImageSweeper) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *ImageSweeper) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweepAll(context.Background())
		}
	}
}

func (s *ImageSweeper) sweepAll(ctx context.Context) {
	for _, sessionID := range s.images.Sessions() {
		evicted, err := s.images.Sweep(ctx, sessionID)
		if err != nil {
			log.Printf("image sweeper: sweep session %s: %v", sessionID, err)
			continue
		}
		if evicted > 0 {
			log.Printf("image sweeper: evicted %d images from session %s", evicted, sessionID)
		}
	}
}
