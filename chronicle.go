// Package chronicle is a blog content-modeling and archive-routing engine
// built with Go, Echo, and templ. It owns the content model (blog index,
// posts, categories, tags), the SQLite store, and the date/tag/category
// archive router, while page templates stay user-provided.
//
// Users provide their own templ components via the ViewFuncs struct, and
// chronicle handles handler logic, middleware, and database operations.
package chronicle

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// ViewFuncs holds user-provided templ components that the engine calls
// when rendering pages. This is the inversion-of-control mechanism that
// lets users own and customize all templates.
type ViewFuncs struct {
	Listing        func(blog BlogIndex, res Resolution, tags []Tag, categories []Category, siteURL string) templ.Component
	PostDetail     func(post Post, blog BlogIndex, siteURL string) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(blog BlogIndex, posts []Post, categories []Category, message string, csrfToken string) templ.Component
	AdminPostForm  func(post Post, categories []Category, csrfToken string) templ.Component
	AdminImages    func(images []Image, csrfToken string) templ.Component
	NotFound       func() templ.Component
	BadRequest     func() templ.Component
	ServerError    func() templ.Component
}

// App is the central chronicle application. It wires together the store,
// cache, router, handlers, middleware, and user-provided templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *PostCache
	Router *Router
	Views  ViewFuncs
	Blog   BlogIndex

	mailer       *Mailer
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
}

// New creates a new chronicle App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the database, cache, router, middleware, and routes,
// then starts the server.
func (a *App) Start() error {
	if err := a.init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// init brings up everything short of the listener. Split from Start so
// tests can exercise a fully wired App without binding a port.
func (a *App) init() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("chronicle: AdminPassword is required")
	}
	if a.Config.SecretKey == "" {
		return fmt.Errorf("chronicle: SecretKey is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("chronicle: init store: %w", err)
	}
	a.Store = store

	// The served blog index is created on first boot; afterwards its
	// description is edited through the admin surface.
	blog, err := store.GetBlogIndexBySlug(a.Config.BlogSlug)
	if errors.Is(err, sql.ErrNoRows) {
		blog = BlogIndex{Slug: a.Config.BlogSlug, Title: a.Config.BlogTitle}
		err = store.SaveBlogIndex(&blog)
	}
	if err != nil {
		return fmt.Errorf("chronicle: init blog index: %w", err)
	}
	a.Blog = blog

	a.Cache = NewPostCache(a.Store, a.Blog.ID, a.Config.PostCacheTTL)
	a.Router = NewRouter()
	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	if a.mailer == nil {
		a.mailer = NewMailer(a.Config.Mail, a.Config.Debug)
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// User's static assets
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Public routes. Everything below the blog mount goes through the
	// archive router.
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", handleRootRedirect)
	e.GET("/blog", a.handleBlog)
	e.GET("/blog/*", a.handleBlog)

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.GET("/admin/post/:slug/", a.handleAdminPost)
	e.POST("/admin/save/", a.handleAdminSave)
	e.DELETE("/admin/post/:slug/", a.handleAdminDelete)
	e.POST("/admin/blog/save/", a.handleAdminBlogSave)
	e.POST("/admin/category/save/", a.handleAdminCategorySave)
	e.DELETE("/admin/category/:slug/", a.handleAdminCategoryDelete)
	e.GET("/admin/images/", a.handleImageList)
	e.POST("/admin/images/upload/", a.handleImageUpload)
	e.DELETE("/admin/images/:filename/", a.handleImageDelete)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
