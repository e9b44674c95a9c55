package chronicle

import (
	"sync"
	"time"
)

// PostCache is an in-memory snapshot of one blog index's live posts plus
// the tag and category listings, refreshed from the Store on TTL expiry.
// Every admin write calls Invalidate.
type PostCache struct {
	mu         sync.RWMutex
	posts      []Post
	tags       []Tag
	categories []Category
	fetched    time.Time
	ttl        time.Duration
	store      *Store
	blogID     int64
}

// NewPostCache creates a PostCache for one blog index backed by the given Store.
func NewPostCache(s *Store, blogID int64, ttl time.Duration) *PostCache {
	return &PostCache{store: s, blogID: blogID, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.tags = nil
	c.categories = nil
	c.mu.Unlock()
}

func (c *PostCache) load() error {
	if c.valid() {
		return nil
	}
	posts, err := c.store.LivePosts(c.blogID)
	if err != nil {
		return err
	}
	tags, err := c.store.ListTags()
	if err != nil {
		return err
	}
	categories, err := c.store.ListCategories()
	if err != nil {
		return err
	}
	c.posts = posts
	c.tags = tags
	c.categories = categories
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns the cached snapshot after ensuring it is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded() ([]Post, []Tag, []Category, error) {
	c.mu.RLock()
	if c.valid() {
		posts, tags, categories := c.posts, c.tags, c.categories
		c.mu.RUnlock()
		return posts, tags, categories, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return nil, nil, nil, err
	}
	return c.posts, c.tags, c.categories, nil
}

// LivePosts returns the blog's published posts, newest first.
func (c *PostCache) LivePosts() ([]Post, error) {
	posts, _, _, err := c.ensureLoaded()
	return posts, err
}

// Tags returns all tags.
func (c *PostCache) Tags() ([]Tag, error) {
	_, tags, _, err := c.ensureLoaded()
	return tags, err
}

// Categories returns all categories.
func (c *PostCache) Categories() ([]Category, error) {
	_, _, categories, err := c.ensureLoaded()
	return categories, err
}
