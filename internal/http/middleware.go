package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"expert-qa/internal/domain"
	"expert-qa/internal/service"
	"expert-qa/internal/session"
)

const (
	currentUserKey   = "qa.currentUser"
	sessionClaimsKey = "qa.sessionClaims"
)

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := h.logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request completed")
			return
		}
		entry.Info("request completed")
	}
}

// resolveUser turns the session cookie into the acting user for this request.
// Any problem with the cookie leaves the request anonymous.
func (h *Handler) resolveUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(h.cookie)
		if err != nil || token == "" {
			c.Next()
			return
		}

		claims, err := h.sessions.Parse(token)
		if err != nil {
			h.clearSession(c)
			c.Next()
			return
		}

		if h.revoker != nil {
			revoked, err := h.revoker.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				h.logger.Warnf("check session revocation: %v", err)
			}
			if revoked || err != nil {
				h.clearSession(c)
				c.Next()
				return
			}
		}

		user, err := h.users.GetByName(c.Request.Context(), claims.Name())
		if err != nil {
			if !errors.Is(err, service.ErrUserNotFound) {
				h.serverError(c, "resolve session user", err)
				c.Abort()
				return
			}
			h.clearSession(c)
			c.Next()
			return
		}

		c.Set(currentUserKey, user)
		c.Set(sessionClaimsKey, claims)
		c.Next()
	}
}

func (h *Handler) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if !user.Admin {
			h.renderError(c, http.StatusForbidden, "Only administrators can do that.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUser returns the logged-in user or nil for anonymous requests.
func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

func sessionClaims(c *gin.Context) *session.Claims {
	v, ok := c.Get(sessionClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*session.Claims)
	return claims
}

func (h *Handler) startSession(c *gin.Context, name string) error {
	token, expires, err := h.sessions.Issue(name)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie, token, int(time.Until(expires).Seconds()), "/", "", h.secure, true)
	return nil
}

func (h *Handler) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie, "", -1, "/", "", h.secure, true)
}
