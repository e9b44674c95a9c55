package chronicle

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// handleBlog serves everything under the blog mount. The subpath is handed
// to the archive router, which either narrows the live-post collection
// (listing) or picks a single post (detail).
func (a *App) handleBlog(c echo.Context) error {
	posts, err := a.Cache.LivePosts()
	if err != nil {
		return err
	}
	subpath := strings.TrimPrefix(c.Request().URL.Path, "/blog")
	res, err := a.Router.Resolve(posts, subpath)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound)
		case errors.Is(err, ErrBadRequest):
			return echo.NewHTTPError(http.StatusBadRequest)
		}
		return err
	}

	if res.Kind == KindDetail {
		return Render(c, a.Views.PostDetail(res.Post, a.Blog, a.Config.URL))
	}

	tags, err := a.Cache.Tags()
	if err != nil {
		return err
	}
	categories, err := a.Cache.Categories()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Listing(a.Blog, res, tags, categories, a.Config.URL))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.LivePosts()
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.LivePosts()
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func handleRootRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/blog/")
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok {
		switch he.Code {
		case http.StatusNotFound:
			_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
			return
		case http.StatusBadRequest:
			if a.Views.BadRequest != nil {
				_ = RenderStatus(c, http.StatusBadRequest, a.Views.BadRequest())
				return
			}
		}
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
