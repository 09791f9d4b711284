package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"expert-qa/internal/archive"
	"expert-qa/internal/service"
	"expert-qa/internal/session"
)

// ArchiveService creates and lists data archives.
type ArchiveService interface {
	Create(ctx context.Context) (archive.Archive, error)
	List(ctx context.Context) ([]archive.Archive, error)
}

// Config carries the optional collaborators and cookie settings of a Handler.
type Config struct {
	CookieName   string
	SecureCookie bool
	// Revoker is optional; without it logout only clears the cookie.
	Revoker session.Revoker
	// Archives is optional; the archive routes are registered only when set.
	Archives ArchiveService
	Logger   *logrus.Logger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	questions service.QuestionService
	sessions  *session.Manager
	revoker   session.Revoker
	archives  ArchiveService
	cookie    string
	secure    bool
	logger    *logrus.Logger
}

// NewHandler builds a Handler; an empty cookie name falls back to "session".
func NewHandler(cfg Config, users service.UserService, questions service.QuestionService, sessions *session.Manager) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "session"
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Handler{
		users:     users,
		questions: questions,
		sessions:  sessions,
		revoker:   cfg.Revoker,
		archives:  cfg.Archives,
		cookie:    cfg.CookieName,
		secure:    cfg.SecureCookie,
		logger:    cfg.Logger,
	}
}

// RegisterRoutes installs the templates, middleware and all page routes.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(pageTemplates)
	router.Use(h.requestLogger(), h.resolveUser())
	router.NoRoute(func(c *gin.Context) {
		h.renderError(c, http.StatusNotFound, "Page not found.")
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	router.GET("/", h.feed)
	router.GET("/register", h.registerForm)
	router.POST("/register", h.register)
	router.GET("/login", h.loginForm)
	router.POST("/login", h.login)
	router.GET("/logout", h.logout)
	router.GET("/question/:id", h.question)

	member := router.Group("/", h.requireUser())
	{
		member.GET("/ask", h.askForm)
		member.POST("/ask", h.ask)
		member.GET("/answer/:id", h.answerForm)
		member.POST("/answer/:id", h.answer)
		member.GET("/unanswered", h.unanswered)
	}

	admin := router.Group("/", h.requireAdmin())
	{
		admin.GET("/users", h.listUsers)
		admin.GET("/promote/:id", h.promote)
		if h.archives != nil {
			admin.GET("/admin/archives", h.listArchives)
			admin.POST("/admin/archives", h.createArchive)
		}
	}
}
