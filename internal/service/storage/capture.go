// Package storage archives photos whose display could not be read, so the
// recognizer settings can be tuned against real failures.
package storage

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"bpmonitor/internal/logger"
)

const (
	// DefaultBufferLimit caps how many photos wait in memory between flushes.
	DefaultBufferLimit = 10
	// DefaultFlushInterval is how often buffered photos are written to disk.
	DefaultFlushInterval = 30 * time.Second

	timestampLayout = "2006-01-02_15-04-05.000"
)

type capture struct {
	taken  time.Time
	reason string
	data   []byte
}

// CaptureService buffers photos in memory and periodically flushes them to disk.
type CaptureService struct {
	dir      string
	limit    int
	captures []capture
	dropped  int
	mu       sync.Mutex
	logger   *logger.Logger
	now      func() time.Time
}

func NewCaptureService(dir string, limit int, logger *logger.Logger) *CaptureService {
	if limit <= 0 {
		limit = DefaultBufferLimit
	}
	return &CaptureService{
		dir:      dir,
		limit:    limit,
		captures: make([]capture, 0, limit),
		logger:   logger,
		now:      time.Now,
	}
}

// Add queues a copy of data. It returns false when the buffer is full.
func (s *CaptureService) Add(data []byte, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.captures) >= s.limit {
		s.dropped++
		return false
	}
	s.captures = append(s.captures, capture{
		taken:  s.now(),
		reason: reason,
		data:   append([]byte(nil), data...),
	})
	return true
}

// Pending returns the number of buffered photos.
func (s *CaptureService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.captures)
}

// Flush writes buffered photos as <timestamp>_<reason>.<ext> and empties the
// buffer. Photos that fail to write are logged and dropped.
func (s *CaptureService) Flush() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.captures) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create capture directory: %w", err)
	}

	saved := 0
	for i, c := range s.captures {
		filename := fmt.Sprintf("%s_%s_%d%s", c.taken.Format(timestampLayout), c.reason, i, extensionFor(c.data))
		if err := os.WriteFile(filepath.Join(s.dir, filename), c.data, 0644); err != nil {
			s.logger.Error("Error saving capture %s: %v", filename, err)
			continue
		}
		saved++
	}

	if s.dropped > 0 {
		s.logger.Warning("Capture buffer was full, %d photos dropped", s.dropped)
	}
	s.logger.Info("Flushed %d captures to %s", saved, s.dir)
	s.captures = s.captures[:0]
	s.dropped = 0
	return saved, nil
}

// Run flushes every interval until ctx is done, then flushes once more.
func (s *CaptureService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Flush(); err != nil {
				s.logger.Error("Capture flush failed: %v", err)
			}
		case <-ctx.Done():
			if _, err := s.Flush(); err != nil {
				s.logger.Error("Capture flush failed: %v", err)
			}
			return
		}
	}
}

func extensionFor(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	}
	return ".bin"
}
