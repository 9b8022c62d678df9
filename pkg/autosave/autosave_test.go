package autosave

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSave struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingSave) save(userID int64, storyID string, chapter int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingSave) saved() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func TestSaver_debouncesEdits(t *testing.T) {
	rec := &recordingSave{}
	saver := NewSaver(30*time.Millisecond, rec.save)
	saver.Run()
	defer saver.Stop()

	saver.Queue(1, "story", 1, "first draft")
	saver.Queue(1, "story", 1, "second draft")
	saver.Queue(1, "story", 1, "final draft")

	require.Eventually(t, func() bool {
		return len(rec.saved()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"final draft"}, rec.saved())
}

func TestSaver_separateChaptersFlushSeparately(t *testing.T) {
	rec := &recordingSave{}
	saver := NewSaver(20*time.Millisecond, rec.save)
	saver.Run()
	defer saver.Stop()

	saver.Queue(1, "story", 1, "chapter one")
	saver.Queue(1, "story", 2, "chapter two")

	require.Eventually(t, func() bool {
		return len(rec.saved()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"chapter one", "chapter two"}, rec.saved())
}

func TestSaver_stopFlushesPending(t *testing.T) {
	rec := &recordingSave{}
	saver := NewSaver(time.Hour, rec.save)
	saver.Run()

	saver.Queue(1, "story", 1, "unsaved work")
	saver.Stop()

	assert.Equal(t, []string{"unsaved work"}, rec.saved())
}
