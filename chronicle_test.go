package chronicle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

// testViews render plain markers so handler tests can assert on which view
// ran and with what resolution.
func testViews() ViewFuncs {
	return ViewFuncs{
		Listing: func(blog BlogIndex, res Resolution, tags []Tag, categories []Category, siteURL string) templ.Component {
			return text(fmt.Sprintf("listing n=%d type=%s term=%s label=%s", len(res.Posts), res.SearchType, res.SearchTerm, res.Label))
		},
		PostDetail: func(post Post, blog BlogIndex, siteURL string) templ.Component {
			return text("detail " + post.Slug)
		},
		NotFound:    func() templ.Component { return text("not found") },
		BadRequest:  func() templ.Component { return text("bad request") },
		ServerError: func() templ.Component { return text("server error") },
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := SiteConfig{
		DatabasePath:  filepath.Join(t.TempDir(), "blog.db"),
		AdminPassword: "pw",
		SecretKey:     "secret",
	}
	a := New(cfg, testViews())
	require.NoError(t, a.init())
	t.Cleanup(func() { a.Close() })

	posts := []Post{
		{BlogID: a.Blog.ID, Slug: "my-post", Title: "My Post",
			Date: time.Date(2021, time.January, 5, 9, 0, 0, 0, time.UTC), Published: true,
			Tags: []Tag{{Name: "golang"}}},
		{BlogID: a.Blog.ID, Slug: "february-notes", Title: "February Notes",
			Date: time.Date(2021, time.February, 10, 9, 0, 0, 0, time.UTC), Published: true,
			Tags: []Tag{{Name: "golang"}}},
		{BlogID: a.Blog.ID, Slug: "draft", Title: "Draft",
			Date: time.Date(2021, time.January, 6, 9, 0, 0, 0, time.UTC), Published: false},
	}
	for i := range posts {
		require.NoError(t, a.Store.SavePost(&posts[i]))
	}
	a.Cache.Invalidate()
	return a
}

func get(a *App, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func TestBlogListingRoutes(t *testing.T) {
	a := newTestApp(t)

	rec := get(a, "/blog/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "listing n=2", "drafts stay out of the listing")

	rec = get(a, "/blog/2021/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "n=2")
	assert.Contains(t, rec.Body.String(), "label=2021")

	rec = get(a, "/blog/tag/golang/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "type=tag term=golang")
}

func TestBlogDetailRoute(t *testing.T) {
	a := newTestApp(t)

	rec := get(a, "/blog/2021/01/05/my-post/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "detail my-post", rec.Body.String())

	rec = get(a, "/blog/2021/01/05/missing/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", rec.Body.String())
}

func TestBlogMalformedDateIsClientError(t *testing.T) {
	a := newTestApp(t)

	rec := get(a, "/blog/2021/13/")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad request", rec.Body.String())
}

func TestRootRedirectsToBlog(t *testing.T) {
	a := newTestApp(t)

	rec := get(a, "/")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/blog/", rec.Header().Get("Location"))
}

func TestFeedAndSitemap(t *testing.T) {
	a := newTestApp(t)

	rec := get(a, "/feed.xml")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/blog/2021/01/05/my-post/")
	assert.NotContains(t, rec.Body.String(), "draft")

	rec = get(a, "/sitemap.xml")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/blog/2021/02/10/february-notes/")
}

func TestAllowedHostsRejectsUnknownHost(t *testing.T) {
	cfg := SiteConfig{
		DatabasePath:  filepath.Join(t.TempDir(), "blog.db"),
		AdminPassword: "pw",
		SecretKey:     "secret",
		AllowedHosts:  []string{"blog.example.com"},
	}
	a := New(cfg, testViews())
	require.NoError(t, a.init())
	t.Cleanup(func() { a.Close() })

	req := httptest.NewRequest(http.MethodGet, "/blog/", nil)
	req.Host = "evil.example.com"
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/blog/", nil)
	req.Host = "blog.example.com"
	rec = httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
