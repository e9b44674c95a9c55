package chronicle

import "time"

// BlogIndex is the listing/landing entity for a blog. It aggregates the
// posts created under it and carries a short description shown on the
// listing page.
type BlogIndex struct {
	ID          int64
	Slug        string
	Title       string
	Description string
}

// Post is a single dated content item belonging to exactly one BlogIndex.
// Body is markdown rendered at view time. Date defaults to creation time
// but is editable, so it is not guaranteed monotonic with insertion order.
type Post struct {
	ID         int64
	BlogID     int64
	Slug       string
	Title      string
	Body       string
	Date       time.Time
	Published  bool
	Categories []Category
	Tags       []Tag
}

// Link returns the canonical path of the post under its blog mount,
// following the date-archive URL scheme.
func (p Post) Link() string {
	return "/blog/" + p.Date.Format("2006/01/02") + "/" + p.Slug + "/"
}

// HasTag reports whether the post carries a tag with the given slug.
func (p Post) HasTag(slug string) bool {
	for _, t := range p.Tags {
		if t.Slug == slug {
			return true
		}
	}
	return false
}

// HasCategory reports whether the post belongs to the category with the
// given slug.
func (p Post) HasCategory(slug string) bool {
	for _, c := range p.Categories {
		if c.Slug == slug {
			return true
		}
	}
	return false
}

// Category is a flat lookup entity with a display name and a globally
// unique URL-safe slug.
type Category struct {
	ID   int64
	Name string
	Slug string
}

// Tag is a flat label entity attached to posts through a join table.
type Tag struct {
	ID   int64
	Name string
	Slug string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}
