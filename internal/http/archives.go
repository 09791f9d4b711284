package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listArchives(c *gin.Context) {
	archives, err := h.archives.List(c.Request.Context())
	if err != nil {
		h.serverError(c, "list archives", err)
		return
	}
	h.render(c, http.StatusOK, "archives.html", gin.H{"title": "Archives", "archives": archives})
}

func (h *Handler) createArchive(c *gin.Context) {
	a, err := h.archives.Create(c.Request.Context())
	if err != nil {
		h.serverError(c, "create archive", err)
		return
	}
	h.logger.Infof("archive %s created by %s", a.Location, currentUser(c).Name)
	c.Redirect(http.StatusFound, "/admin/archives")
}
