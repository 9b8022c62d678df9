package catalog

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/pechorka/storyvault/internal/storage"
)

// Catalog holds the editorial content shipped with the app: featured
// stories and authors the reader can discover without having authored
// anything. It is loaded from a JSON file and safe to reload while
// serving (see pkg/watcher).
type Catalog struct {
	mu      sync.RWMutex
	stories []storage.Story
	byID    map[string]storage.Story
	authors map[string]storage.Author
}

type catalogFile struct {
	Stories []storage.Story  `json:"stories"`
	Authors []storage.Author `json:"authors"`
}

func New() *Catalog {
	return &Catalog{
		byID:    make(map[string]storage.Story),
		authors: make(map[string]storage.Author),
	}
}

// Load replaces the catalog content with the file's. On error the
// previous content stays in place.
func (c *Catalog) Load(path string) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close catalog file")
		}
	}()

	var file catalogFile
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		return errors.Wrap(err, "failed to decode catalog")
	}

	byID := make(map[string]storage.Story, len(file.Stories))
	for _, story := range file.Stories {
		byID[story.ID] = story
	}
	authors := make(map[string]storage.Author, len(file.Authors))
	for _, author := range file.Authors {
		authors[author.Name] = author
	}

	c.mu.Lock()
	c.stories = file.Stories
	c.byID = byID
	c.authors = authors
	c.mu.Unlock()
	return nil
}

// Story looks up a featured story by id.
func (c *Catalog) Story(id string) (storage.Story, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	story, ok := c.byID[id]
	return story, ok
}

// Stories returns the featured stories in file order.
func (c *Catalog) Stories() []storage.Story {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]storage.Story(nil), c.stories...)
}

// StoriesByGenre filters featured stories by genre, case-insensitive.
func (c *Catalog) StoriesByGenre(genre string) []storage.Story {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []storage.Story
	for _, story := range c.stories {
		if strings.EqualFold(story.Genre, genre) {
			result = append(result, story)
		}
	}
	return result
}

// Author looks up a featured author by display name.
func (c *Catalog) Author(name string) (storage.Author, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	author, ok := c.authors[name]
	return author, ok
}

// Authors returns every featured author, order unspecified.
func (c *Catalog) Authors() []storage.Author {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]storage.Author, 0, len(c.authors))
	for _, author := range c.authors {
		result = append(result, author)
	}
	return result
}
