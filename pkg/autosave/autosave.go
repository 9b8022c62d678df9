package autosave

import (
	"log"
	"sync"
	"time"
)

// SaveFunc persists one chapter's text.
type SaveFunc func(userID int64, storyID string, chapter int64, text string) error

type editKey struct {
	userID  int64
	storyID string
	chapter int64
}

type pendingEdit struct {
	text    string
	flushAt time.Time
}

// Saver debounces chapter edits: every Queue call resets the quiet
// window for that chapter, and only the last text within the window is
// written. It is a flush policy, not a durability guarantee — callers
// needing an immediate write should call Flush.
type Saver struct {
	mu      sync.Mutex
	pending map[editKey]*pendingEdit

	quiet time.Duration
	save  SaveFunc

	stopCh chan struct{}
	doneCh chan struct{}
}

const defaultQuietWindow = 2 * time.Second

func NewSaver(quiet time.Duration, save SaveFunc) *Saver {
	if quiet <= 0 {
		quiet = defaultQuietWindow
	}
	return &Saver{
		pending: make(map[editKey]*pendingEdit),
		quiet:   quiet,
		save:    save,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Queue records the latest text for a chapter and restarts its quiet
// window.
func (s *Saver) Queue(userID int64, storyID string, chapter int64, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := editKey{userID: userID, storyID: storyID, chapter: chapter}
	edit, ok := s.pending[k]
	if !ok {
		edit = &pendingEdit{}
		s.pending[k] = edit
	}
	edit.text = text
	edit.flushAt = time.Now().Add(s.quiet)
}

// Run starts the background flusher. Call Stop to flush the remaining
// edits and terminate it.
func (s *Saver) Run() {
	go func() {
		defer close(s.doneCh)
		interval := s.quiet / 2
		if interval < 10*time.Millisecond {
			interval = 10 * time.Millisecond
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				s.Flush()
				return
			case now := <-ticker.C:
				s.flushBefore(now)
			}
		}
	}()
}

// Flush writes every pending edit immediately.
func (s *Saver) Flush() {
	s.flushBefore(time.Time{})
}

// Stop flushes pending edits and stops the background flusher.
func (s *Saver) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// flushBefore writes edits whose quiet window expired before now; a
// zero now flushes everything.
func (s *Saver) flushBefore(now time.Time) {
	s.mu.Lock()
	ready := make(map[editKey]string)
	for k, edit := range s.pending {
		if now.IsZero() || edit.flushAt.Before(now) {
			ready[k] = edit.text
			delete(s.pending, k)
		}
	}
	s.mu.Unlock()

	for k, text := range ready {
		if err := s.save(k.userID, k.storyID, k.chapter, text); err != nil {
			log.Printf("autosave of story %s chapter %d failed: %v", k.storyID, k.chapter, err)
		}
	}
}
