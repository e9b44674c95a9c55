package chronicle

import (
	"crypto/subtle"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminPost(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	slug := c.Param("slug")
	post, err := a.Store.GetPostAny(a.Blog.ID, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	categories, err := a.Store.ListCategories()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminPostForm(post, categories, CsrfToken(c)))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	if !a.loginLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	title := strings.TrimSpace(c.FormValue("title"))
	slug := strings.TrimSpace(c.FormValue("slug"))
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return c.Redirect(http.StatusSeeOther, "/admin/?msg=Slug+is+required.+Add+a+title+or+slug.")
	}

	date := time.Now().UTC()
	if ds := strings.TrimSpace(c.FormValue("date")); ds != "" {
		t, err := time.Parse("2006-01-02", ds)
		if err != nil {
			return c.Redirect(http.StatusSeeOther, "/admin/?msg=Invalid+date+format.+Use+YYYY-MM-DD.")
		}
		date = t
	}

	var tags []Tag
	for _, name := range FilterEmpty(strings.Split(c.FormValue("tags"), ",")) {
		tags = append(tags, Tag{Name: name})
	}
	var categories []Category
	for _, cs := range FilterEmpty(c.Request().Form["categories"]) {
		categories = append(categories, Category{Slug: cs})
	}

	wasLive := false
	if prev, err := a.Store.GetPostAny(a.Blog.ID, slug); err == nil {
		wasLive = prev.Published
	}

	post := Post{
		BlogID:     a.Blog.ID,
		Slug:       slug,
		Title:      title,
		Body:       c.FormValue("body"),
		Date:       date,
		Published:  c.FormValue("published") != "",
		Categories: categories,
		Tags:       tags,
	}
	if err := a.Store.SavePost(&post); err != nil {
		return err
	}
	a.Cache.Invalidate()

	if post.Published && !wasLive {
		a.notifyPublished(c, post)
	}
	return a.renderAdminDashboard(c, "saved")
}

// notifyPublished sends the publish notification mail. Failures are logged,
// never surfaced to the author.
func (a *App) notifyPublished(c echo.Context, post Post) {
	if a.Config.Mail.From == "" {
		return
	}
	err := a.mailer.Send(MailMessage{
		To:      []string{a.Config.Mail.From},
		Subject: "Published: " + post.Title,
		Body:    "Now live at " + BuildURL(a.Config.URL, "blog", post.Date.Format("2006/01/02"), post.Slug),
	})
	if err != nil {
		c.Logger().Errorf("publish notification: %v", err)
	}
}

func (a *App) handleAdminDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	slug := c.Param("slug")
	if err := a.Store.DeletePost(a.Blog.ID, slug); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "deleted")
}

func (a *App) handleAdminBlogSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	blog := a.Blog
	blog.Title = strings.TrimSpace(c.FormValue("title"))
	if blog.Title == "" {
		blog.Title = a.Blog.Title
	}
	blog.Description = strings.TrimSpace(c.FormValue("description"))
	if err := a.Store.SaveBlogIndex(&blog); err != nil {
		return err
	}
	a.Blog = blog
	return a.renderAdminDashboard(c, "saved")
}

func (a *App) handleAdminCategorySave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	cat := Category{
		Name: strings.TrimSpace(c.FormValue("name")),
		Slug: strings.TrimSpace(c.FormValue("slug")),
	}
	if cat.Name == "" && cat.Slug == "" {
		return c.Redirect(http.StatusSeeOther, "/admin/?msg=Category+needs+a+name+or+slug.")
	}
	if err := a.Store.SaveCategory(&cat); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "saved")
}

func (a *App) handleAdminCategoryDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := a.Store.DeleteCategory(c.Param("slug")); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "deleted")
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	posts, err := a.Store.ListAllPosts(a.Blog.ID)
	if err != nil {
		return err
	}
	categories, err := a.Store.ListCategories()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(a.Blog, posts, categories, msg, CsrfToken(c)))
}
