package chronicle

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database and provides CRUD operations for blog
// indexes, posts, categories and tags.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// foreign_keys must be set per connection, so it goes in the DSN where
	// the driver applies it to every new connection in the pool. Cascade
	// deletes on the tag/category join tables depend on it.
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent read/write access, set a busy timeout
	// so writers wait instead of returning SQLITE_BUSY immediately, and tune
	// performance: synchronous=NORMAL is safe with WAL and avoids an fsync
	// per transaction; larger cache and mmap reduce disk I/O.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS blog_indexes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    blog_id INTEGER NOT NULL REFERENCES blog_indexes(id) ON DELETE CASCADE,
    slug TEXT NOT NULL,
    title TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    date TEXT NOT NULL,
    published INTEGER NOT NULL DEFAULT 0,
    UNIQUE (blog_id, slug)
);
CREATE INDEX IF NOT EXISTS idx_posts_blog_date ON posts (blog_id, date DESC);
CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS tags (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS post_categories (
    post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    PRIMARY KEY (post_id, category_id)
);
CREATE TABLE IF NOT EXISTS post_tags (
    post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (post_id, tag_id)
);
CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

const dateFormat = time.RFC3339

// SaveBlogIndex upserts a blog index by slug and sets b.ID.
func (s *Store) SaveBlogIndex(b *BlogIndex) error {
	if b.Slug == "" {
		b.Slug = Slugify(b.Title)
	}
	if b.Slug == "" {
		return fmt.Errorf("chronicle: blog index needs a slug or title")
	}
	_, err := s.db.Exec(`
INSERT INTO blog_indexes (slug, title, description) VALUES (?, ?, ?)
ON CONFLICT (slug) DO UPDATE SET title = excluded.title, description = excluded.description`,
		b.Slug, b.Title, b.Description)
	if err != nil {
		return err
	}
	return s.db.QueryRow(`SELECT id FROM blog_indexes WHERE slug = ?`, b.Slug).Scan(&b.ID)
}

// GetBlogIndex returns a blog index by id.
func (s *Store) GetBlogIndex(id int64) (BlogIndex, error) {
	var b BlogIndex
	err := s.db.QueryRow(`SELECT id, slug, title, description FROM blog_indexes WHERE id = ?`, id).
		Scan(&b.ID, &b.Slug, &b.Title, &b.Description)
	return b, err
}

// GetBlogIndexBySlug returns a blog index by slug.
func (s *Store) GetBlogIndexBySlug(slug string) (BlogIndex, error) {
	var b BlogIndex
	err := s.db.QueryRow(`SELECT id, slug, title, description FROM blog_indexes WHERE slug = ?`, slug).
		Scan(&b.ID, &b.Slug, &b.Title, &b.Description)
	return b, err
}

// ListBlogIndexes returns all blog indexes ordered by slug.
func (s *Store) ListBlogIndexes() ([]BlogIndex, error) {
	rows, err := s.db.Query(`SELECT id, slug, title, description FROM blog_indexes ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []BlogIndex
	for rows.Next() {
		var b BlogIndex
		if err := rows.Scan(&b.ID, &b.Slug, &b.Title, &b.Description); err != nil {
			return nil, err
		}
		indexes = append(indexes, b)
	}
	return indexes, rows.Err()
}

// LivePosts returns the published posts of one blog index ordered by date
// descending, newest first. Ties on date fall back to insertion order.
// Drafts are never included.
func (s *Store) LivePosts(blogID int64) ([]Post, error) {
	return s.queryPosts(`SELECT id, blog_id, slug, title, body, date, published FROM posts
WHERE blog_id = ? AND published = 1 ORDER BY date DESC, id ASC`, blogID)
}

// ListAllPosts returns every post of a blog index, drafts included, ordered
// by date descending (for the admin dashboard).
func (s *Store) ListAllPosts(blogID int64) ([]Post, error) {
	return s.queryPosts(`SELECT id, blog_id, slug, title, body, date, published FROM posts
WHERE blog_id = ? ORDER BY date DESC, id ASC`, blogID)
}

// GetPostAny returns a post by slug regardless of published status (for admin).
func (s *Store) GetPostAny(blogID int64, slug string) (Post, error) {
	posts, err := s.queryPosts(`SELECT id, blog_id, slug, title, body, date, published FROM posts
WHERE blog_id = ? AND slug = ?`, blogID, slug)
	if err != nil {
		return Post{}, err
	}
	if len(posts) == 0 {
		return Post{}, sql.ErrNoRows
	}
	return posts[0], nil
}

func (s *Store) queryPosts(query string, args ...any) ([]Post, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		var date string
		var published int
		if err := rows.Scan(&p.ID, &p.BlogID, &p.Slug, &p.Title, &p.Body, &date, &published); err != nil {
			return nil, err
		}
		t, err := time.Parse(dateFormat, date)
		if err != nil {
			return nil, fmt.Errorf("chronicle: bad date %q for post %s: %w", date, p.Slug, err)
		}
		p.Date = t
		p.Published = published == 1
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachTerms(posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// attachTerms loads the category and tag sets for each post in one pass
// over the join tables.
func (s *Store) attachTerms(posts []Post) error {
	if len(posts) == 0 {
		return nil
	}
	byID := make(map[int64]*Post, len(posts))
	ids := make([]string, 0, len(posts))
	args := make([]any, 0, len(posts))
	for i := range posts {
		byID[posts[i].ID] = &posts[i]
		ids = append(ids, "?")
		args = append(args, posts[i].ID)
	}
	in := strings.Join(ids, ",")

	rows, err := s.db.Query(`SELECT pc.post_id, c.id, c.name, c.slug
FROM post_categories pc JOIN categories c ON c.id = pc.category_id
WHERE pc.post_id IN (`+in+`) ORDER BY c.name`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var postID int64
		var c Category
		if err := rows.Scan(&postID, &c.ID, &c.Name, &c.Slug); err != nil {
			return err
		}
		p := byID[postID]
		p.Categories = append(p.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.Query(`SELECT pt.post_id, t.id, t.name, t.slug
FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
WHERE pt.post_id IN (`+in+`) ORDER BY t.slug`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var postID int64
		var t Tag
		if err := rows.Scan(&postID, &t.ID, &t.Name, &t.Slug); err != nil {
			return err
		}
		p := byID[postID]
		p.Tags = append(p.Tags, t)
	}
	return rows.Err()
}

// SavePost upserts a post by (blog, slug) and rewrites its category and tag
// links. Tags and categories are matched by slug and created on first use.
// A zero Date defaults to the current time.
func (s *Store) SavePost(p *Post) error {
	if p.BlogID == 0 {
		return fmt.Errorf("chronicle: post %q has no blog index", p.Slug)
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.Slug == "" {
		return fmt.Errorf("chronicle: post needs a slug or title")
	}
	if p.Date.IsZero() {
		p.Date = time.Now().UTC()
	}
	published := 0
	if p.Published {
		published = 1
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
INSERT INTO posts (blog_id, slug, title, body, date, published) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (blog_id, slug) DO UPDATE SET
    title = excluded.title, body = excluded.body,
    date = excluded.date, published = excluded.published`,
		p.BlogID, p.Slug, p.Title, p.Body, p.Date.UTC().Format(dateFormat), published)
	if err != nil {
		return err
	}
	if err := tx.QueryRow(`SELECT id FROM posts WHERE blog_id = ? AND slug = ?`, p.BlogID, p.Slug).Scan(&p.ID); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM post_categories WHERE post_id = ?`, p.ID); err != nil {
		return err
	}
	for i := range p.Categories {
		c, err := ensureTerm(tx, "categories", p.Categories[i].Name, p.Categories[i].Slug)
		if err != nil {
			return err
		}
		p.Categories[i] = Category(c)
		if _, err := tx.Exec(`INSERT OR IGNORE INTO post_categories (post_id, category_id) VALUES (?, ?)`, p.ID, c.ID); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`DELETE FROM post_tags WHERE post_id = ?`, p.ID); err != nil {
		return err
	}
	for i := range p.Tags {
		t, err := ensureTerm(tx, "tags", p.Tags[i].Name, p.Tags[i].Slug)
		if err != nil {
			return err
		}
		p.Tags[i] = Tag(t)
		if _, err := tx.Exec(`INSERT OR IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)`, p.ID, t.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// term is the shared shape of the categories and tags tables.
type term struct {
	ID   int64
	Name string
	Slug string
}

// ensureTerm finds or creates a row in the categories or tags table by slug.
// The table name is always a literal at the call site, never caller input.
func ensureTerm(tx *sql.Tx, table, name, slug string) (term, error) {
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return term{}, fmt.Errorf("chronicle: %s entry needs a name or slug", table)
	}
	if name == "" {
		name = slug
	}
	if _, err := tx.Exec(`INSERT INTO `+table+` (name, slug) VALUES (?, ?) ON CONFLICT (slug) DO NOTHING`, name, slug); err != nil {
		return term{}, err
	}
	var t term
	err := tx.QueryRow(`SELECT id, name, slug FROM `+table+` WHERE slug = ?`, slug).Scan(&t.ID, &t.Name, &t.Slug)
	return t, err
}

// DeletePost removes a post by slug. Its tag and category links go with it
// via the cascade.
func (s *Store) DeletePost(blogID int64, slug string) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE blog_id = ? AND slug = ?`, blogID, slug)
	return err
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories() ([]Category, error) {
	rows, err := s.db.Query(`SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// SaveCategory upserts a category by slug and sets c.ID.
func (s *Store) SaveCategory(c *Category) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	t, err := ensureTerm(tx, "categories", c.Name, c.Slug)
	if err != nil {
		return err
	}
	if c.Name != "" && c.Name != t.Name {
		if _, err := tx.Exec(`UPDATE categories SET name = ? WHERE id = ?`, c.Name, t.ID); err != nil {
			return err
		}
		t.Name = c.Name
	}
	*c = Category(t)
	return tx.Commit()
}

// DeleteCategory removes a category and its post links.
func (s *Store) DeleteCategory(slug string) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE slug = ?`, slug)
	return err
}

// ListTags returns all tags ordered by slug.
func (s *Store) ListTags() ([]Tag, error) {
	rows, err := s.db.Query(`SELECT id, name, slug FROM tags ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// DeleteTag removes a tag and its post links.
func (s *Store) DeleteTag(slug string) error {
	_, err := s.db.Exec(`DELETE FROM tags WHERE slug = ?`, slug)
	return err
}
