package chronicle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// archiveFixture returns live posts newest-first, the order LivePosts
// produces them in.
func archiveFixture() []Post {
	return []Post{
		{
			ID: 3, Slug: "new-year", Title: "New Year",
			Date: time.Date(2022, time.January, 1, 9, 0, 0, 0, time.UTC),
			Tags: []Tag{{Name: "life", Slug: "life"}},
		},
		{
			ID: 2, Slug: "february-notes", Title: "February Notes",
			Date:       time.Date(2021, time.February, 10, 9, 0, 0, 0, time.UTC),
			Tags:       []Tag{{Name: "golang", Slug: "golang"}},
			Categories: []Category{{Name: "Web", Slug: "web"}},
		},
		{
			ID: 1, Slug: "my-post", Title: "My Post",
			Date:       time.Date(2021, time.January, 5, 9, 0, 0, 0, time.UTC),
			Tags:       []Tag{{Name: "golang", Slug: "golang"}},
			Categories: []Category{{Name: "Web", Slug: "web"}},
		},
	}
}

func slugs(posts []Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Slug
	}
	return out
}

func TestResolveRootIsIdentity(t *testing.T) {
	r := NewRouter()
	posts := archiveFixture()

	for _, path := range []string{"", "/", "//"} {
		res, err := r.Resolve(posts, path)
		require.NoError(t, err, "path %q", path)
		assert.Equal(t, KindListing, res.Kind)
		assert.Equal(t, slugs(posts), slugs(res.Posts), "root route must not narrow")
		assert.Empty(t, res.SearchType)
		assert.Empty(t, res.SearchTerm)
	}
}

func TestResolveYearArchive(t *testing.T) {
	r := NewRouter()

	res, err := r.Resolve(archiveFixture(), "/2021/")
	require.NoError(t, err)
	assert.Equal(t, []string{"february-notes", "my-post"}, slugs(res.Posts),
		"2021 posts only, newest first")
	assert.Equal(t, "2021", res.Label)
}

func TestResolveMonthAndDayArchives(t *testing.T) {
	r := NewRouter()
	posts := archiveFixture()

	res, err := r.Resolve(posts, "/2021/01/")
	require.NoError(t, err)
	assert.Equal(t, []string{"my-post"}, slugs(res.Posts))
	assert.Equal(t, "January 2021", res.Label)

	res, err = r.Resolve(posts, "/2021/1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"my-post"}, slugs(res.Posts), "single-digit month accepted")

	res, err = r.Resolve(posts, "/2021/01/05/")
	require.NoError(t, err)
	assert.Equal(t, []string{"my-post"}, slugs(res.Posts))
	assert.Equal(t, "5 January 2021", res.Label)

	res, err = r.Resolve(posts, "/2021/01/06/")
	require.NoError(t, err)
	assert.Empty(t, res.Posts, "no posts on that day")
}

func TestDateFilterComposition(t *testing.T) {
	// Narrowing by year, month and day together must equal full-date
	// equality over the whole collection.
	posts := archiveFixture()
	composed := filterDate(filterDate(filterDate(posts, 2021, 0, 0), 2021, 2, 0), 2021, 2, 10)
	direct := filterDate(posts, 2021, 2, 10)
	assert.Equal(t, slugs(direct), slugs(composed))
	assert.Equal(t, []string{"february-notes"}, slugs(direct))
}

func TestResolvePostDetail(t *testing.T) {
	r := NewRouter()
	posts := archiveFixture()

	res, err := r.Resolve(posts, "/2021/01/05/my-post/")
	require.NoError(t, err)
	assert.Equal(t, KindDetail, res.Kind)
	assert.Equal(t, "my-post", res.Post.Slug)

	_, err = r.Resolve(posts, "/2021/01/05/missing/")
	assert.ErrorIs(t, err, ErrNotFound)

	// Right slug, wrong day.
	_, err = r.Resolve(posts, "/2021/01/06/my-post/")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveTagArchive(t *testing.T) {
	r := NewRouter()

	res, err := r.Resolve(archiveFixture(), "/tag/golang/")
	require.NoError(t, err)
	assert.Equal(t, []string{"february-notes", "my-post"}, slugs(res.Posts))
	assert.Equal(t, "tag", res.SearchType)
	assert.Equal(t, "golang", res.SearchTerm)

	res, err = r.Resolve(archiveFixture(), "/tag/nothing-here/")
	require.NoError(t, err)
	assert.Empty(t, res.Posts, "unknown tag yields an empty listing, not an error")
	assert.Equal(t, "nothing-here", res.SearchTerm)
}

func TestResolveCategoryArchive(t *testing.T) {
	r := NewRouter()

	res, err := r.Resolve(archiveFixture(), "/category/web/")
	require.NoError(t, err)
	assert.Equal(t, []string{"february-notes", "my-post"}, slugs(res.Posts))
	assert.Equal(t, "category", res.SearchType)
	assert.Equal(t, "web", res.SearchTerm)
}

func TestResolveRejectsMalformedDates(t *testing.T) {
	r := NewRouter()
	posts := archiveFixture()

	for _, path := range []string{
		"/0000/",
		"/2021/13/",
		"/2021/00/",
		"/2021/02/30/",
		"/2021/04/31/",
		"/2021/02/30/some-slug/",
	} {
		_, err := r.Resolve(posts, path)
		assert.ErrorIs(t, err, ErrBadRequest, "path %q", path)
	}

	// Leap-day handling: valid in 2020, not in 2021.
	_, err := r.Resolve(posts, "/2021/02/29/")
	assert.ErrorIs(t, err, ErrBadRequest)
	res, err := r.Resolve(posts, "/2020/02/29/")
	require.NoError(t, err)
	assert.Empty(t, res.Posts)
}

func TestResolveUnmatchedPaths(t *testing.T) {
	r := NewRouter()
	posts := archiveFixture()

	for _, path := range []string{
		"/21/",            // two-digit year
		"/20211/",         // five digits
		"/tag/",           // missing term
		"/category/",      // missing term
		"/tag/a/b/",       // extra segment
		"/about/",         // unknown section
		"/2021/01/05/my-post/extra/",
	} {
		_, err := r.Resolve(posts, path)
		assert.ErrorIs(t, err, ErrNotFound, "path %q", path)
	}
}

func TestRoutePrecedence(t *testing.T) {
	// A slug that is all digits must still hit the detail route, not fall
	// through to a shorter date pattern.
	r := NewRouter()
	posts := []Post{{
		ID: 1, Slug: "2020", Title: "Year In Review",
		Date: time.Date(2021, time.January, 5, 0, 0, 0, 0, time.UTC),
	}}

	res, err := r.Resolve(posts, "/2021/01/05/2020/")
	require.NoError(t, err)
	assert.Equal(t, KindDetail, res.Kind)
	assert.Equal(t, "2020", res.Post.Slug)
}
