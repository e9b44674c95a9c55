package chronicle

import (
	"testing"
	"time"
)

func TestCacheServesAndInvalidates(t *testing.T) {
	s, blog := setupTestStore(t)
	cache := NewPostCache(s, blog.ID, time.Hour)

	p := Post{BlogID: blog.ID, Slug: "one", Title: "One", Date: date(2024, time.April, 1), Published: true}
	if err := s.SavePost(&p); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}

	posts, err := cache.LivePosts()
	if err != nil {
		t.Fatalf("LivePosts failed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}

	// Within the TTL the snapshot is reused, so a write without
	// Invalidate is not visible yet.
	p2 := Post{BlogID: blog.ID, Slug: "two", Title: "Two", Date: date(2024, time.April, 2), Published: true}
	if err := s.SavePost(&p2); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	posts, err = cache.LivePosts()
	if err != nil {
		t.Fatalf("LivePosts failed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected stale snapshot of 1 post, got %d", len(posts))
	}

	cache.Invalidate()
	posts, err = cache.LivePosts()
	if err != nil {
		t.Fatalf("LivePosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts after invalidate, got %d", len(posts))
	}
}

func TestCacheTermListings(t *testing.T) {
	s, blog := setupTestStore(t)
	cache := NewPostCache(s, blog.ID, time.Hour)

	p := Post{
		BlogID: blog.ID, Slug: "p", Title: "P",
		Date: date(2024, time.April, 1), Published: true,
		Tags:       []Tag{{Name: "go"}},
		Categories: []Category{{Name: "Engineering"}},
	}
	if err := s.SavePost(&p); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}

	tags, err := cache.Tags()
	if err != nil {
		t.Fatalf("Tags failed: %v", err)
	}
	if len(tags) != 1 || tags[0].Slug != "go" {
		t.Errorf("Tags = %v, want [go]", tags)
	}
	categories, err := cache.Categories()
	if err != nil {
		t.Fatalf("Categories failed: %v", err)
	}
	if len(categories) != 1 || categories[0].Slug != "engineering" {
		t.Errorf("Categories = %v, want [engineering]", categories)
	}
}
