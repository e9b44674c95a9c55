package chronicle

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when a path resolves to no live content.
var ErrNotFound = errors.New("chronicle: not found")

// ErrBadRequest is returned for malformed path segments, such as an
// out-of-range month or a day that does not exist in its month. Bad input
// is rejected here, at the routing boundary, instead of being turned into
// an empty or nonsensical filter.
var ErrBadRequest = errors.New("chronicle: bad request")

// ResolutionKind says whether a resolved path renders the blog listing or
// a single post's detail view.
type ResolutionKind int

const (
	KindListing ResolutionKind = iota
	KindDetail
)

// Resolution is the outcome of routing one request path against a blog's
// live posts. For KindListing, Posts holds the (possibly narrowed) post
// collection and SearchType/SearchTerm/Label describe the narrowing for
// display. For KindDetail, Post holds the single matched post.
type Resolution struct {
	Kind       ResolutionKind
	Posts      []Post
	Post       Post
	SearchType string // "tag" or "category"; empty for date and root routes
	SearchTerm string
	Label      string // human-readable archive label, advisory only
}

// route binds one path pattern to its resolver. The resolver receives the
// live-post collection and the pattern's submatches.
type route struct {
	name    string
	pattern *regexp.Regexp
	resolve func(posts []Post, m []string) (Resolution, error)
}

// Router matches request paths against an ordered table of archive
// patterns and narrows a blog's live-post collection accordingly. It holds
// no mutable state; one Router can serve concurrent requests.
type Router struct {
	routes []route
}

// NewRouter builds the route table. Order is precedence: the most specific
// pattern comes first so that, for example, the post-detail route is never
// shadowed by the day archive.
func NewRouter() *Router {
	return &Router{routes: []route{
		{
			name:    "post-detail",
			pattern: regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})/([-\w]+)$`),
			resolve: resolveDetail,
		},
		{
			name:    "day-archive",
			pattern: regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`),
			resolve: resolveDay,
		},
		{
			name:    "month-archive",
			pattern: regexp.MustCompile(`^(\d{4})/(\d{1,2})$`),
			resolve: resolveMonth,
		},
		{
			name:    "year-archive",
			pattern: regexp.MustCompile(`^(\d{4})$`),
			resolve: resolveYear,
		},
		{
			name:    "tag-archive",
			pattern: regexp.MustCompile(`^tag/([-\w]+)$`),
			resolve: resolveTag,
		},
		{
			name:    "category-archive",
			pattern: regexp.MustCompile(`^category/([-\w]+)$`),
			resolve: resolveCategory,
		},
		{
			name:    "listing",
			pattern: regexp.MustCompile(`^$`),
			resolve: resolveRoot,
		},
	}}
}

// Resolve matches path against the route table and applies the matched
// route's filter to posts. The path is the subpath below the blog mount;
// leading and trailing slashes are ignored. An unmatched path yields
// ErrNotFound.
func (r *Router) Resolve(posts []Post, path string) (Resolution, error) {
	path = strings.Trim(path, "/")
	for _, rt := range r.routes {
		m := rt.pattern.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		return rt.resolve(posts, m)
	}
	return Resolution{}, ErrNotFound
}

func resolveRoot(posts []Post, _ []string) (Resolution, error) {
	return Resolution{Kind: KindListing, Posts: posts}, nil
}

func resolveYear(posts []Post, m []string) (Resolution, error) {
	year, err := parseYear(m[1])
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{
		Kind:  KindListing,
		Posts: filterDate(posts, year, 0, 0),
		Label: strconv.Itoa(year),
	}, nil
}

func resolveMonth(posts []Post, m []string) (Resolution, error) {
	year, month, err := parseYearMonth(m[1], m[2])
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{
		Kind:  KindListing,
		Posts: filterDate(posts, year, month, 0),
		Label: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006"),
	}, nil
}

func resolveDay(posts []Post, m []string) (Resolution, error) {
	year, month, day, err := parseDate(m[1], m[2], m[3])
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{
		Kind:  KindListing,
		Posts: filterDate(posts, year, month, day),
		Label: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format("2 January 2006"),
	}, nil
}

func resolveDetail(posts []Post, m []string) (Resolution, error) {
	year, month, day, err := parseDate(m[1], m[2], m[3])
	if err != nil {
		return Resolution{}, err
	}
	slug := m[4]
	// Post slugs are unique per blog index (store constraint), so at most
	// one post can match.
	for _, p := range filterDate(posts, year, month, day) {
		if p.Slug == slug {
			return Resolution{Kind: KindDetail, Post: p}, nil
		}
	}
	return Resolution{}, ErrNotFound
}

func resolveTag(posts []Post, m []string) (Resolution, error) {
	slug := m[1]
	return Resolution{
		Kind:       KindListing,
		Posts:      filterTag(posts, slug),
		SearchType: "tag",
		SearchTerm: slug,
	}, nil
}

func resolveCategory(posts []Post, m []string) (Resolution, error) {
	slug := m[1]
	return Resolution{
		Kind:       KindListing,
		Posts:      filterCategory(posts, slug),
		SearchType: "category",
		SearchTerm: slug,
	}, nil
}

func parseYear(ys string) (int, error) {
	year, err := strconv.Atoi(ys)
	if err != nil || year < 1 {
		return 0, ErrBadRequest
	}
	return year, nil
}

func parseYearMonth(ys, ms string) (year, month int, err error) {
	year, err = parseYear(ys)
	if err != nil {
		return 0, 0, err
	}
	month, err = strconv.Atoi(ms)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, ErrBadRequest
	}
	return year, month, nil
}

func parseDate(ys, ms, ds string) (year, month, day int, err error) {
	year, month, err = parseYearMonth(ys, ms)
	if err != nil {
		return 0, 0, 0, err
	}
	day, err = strconv.Atoi(ds)
	if err != nil || day < 1 || day > 31 {
		return 0, 0, 0, ErrBadRequest
	}
	// Reject days that do not exist in the given month (e.g. Feb 30):
	// time.Date normalizes those into the next month.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return 0, 0, 0, ErrBadRequest
	}
	return year, month, day, nil
}

// filterDate narrows posts to those whose date matches the given
// components. Zero month or day means "any". Composing year, month and day
// is therefore equivalent to full-date equality. Input order is preserved.
func filterDate(posts []Post, year, month, day int) []Post {
	var out []Post
	for _, p := range posts {
		y, m, d := p.Date.Date()
		if y != year {
			continue
		}
		if month != 0 && int(m) != month {
			continue
		}
		if day != 0 && d != day {
			continue
		}
		out = append(out, p)
	}
	return out
}

// filterTag narrows posts to those carrying a tag with the given slug.
func filterTag(posts []Post, slug string) []Post {
	var out []Post
	for _, p := range posts {
		if p.HasTag(slug) {
			out = append(out, p)
		}
	}
	return out
}

// filterCategory narrows posts to those in the category with the given slug.
func filterCategory(posts []Post, slug string) []Post {
	var out []Post
	for _, p := range posts {
		if p.HasCategory(slug) {
			out = append(out, p)
		}
	}
	return out
}
