package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"expert-qa/internal/service"
)

const (
	msgUserExists     = "User already exist."
	msgBadCredentials = "Please check username and password again"
	msgInvalidID      = "Invalid id."
)

// formMessage maps validation errors to the text shown next to a form.
func formMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrNameRequired):
		return "Name is required.", true
	case errors.Is(err, service.ErrPasswordRequired):
		return "Password is required.", true
	case errors.Is(err, service.ErrPasswordTooLong):
		return "Password must be at most 72 bytes.", true
	case errors.Is(err, service.ErrQuestionRequired):
		return "Please enter a question.", true
	case errors.Is(err, service.ErrNotExpert):
		return "Please choose one of the listed experts.", true
	case errors.Is(err, service.ErrAnswerRequired):
		return "Please enter an answer.", true
	}
	return "", false
}

func (h *Handler) feed(c *gin.Context) {
	questions, err := h.questions.Feed(c.Request.Context())
	if err != nil {
		h.serverError(c, "list feed", err)
		return
	}
	h.render(c, http.StatusOK, "home.html", gin.H{"questions": questions})
}

func (h *Handler) registerForm(c *gin.Context) {
	h.render(c, http.StatusOK, "register.html", gin.H{"title": "Register"})
}

func (h *Handler) register(c *gin.Context) {
	name := c.PostForm("name")
	user, err := h.users.Register(c.Request.Context(), name, c.PostForm("password"))
	if err != nil {
		data := gin.H{"title": "Register", "name": name}
		if errors.Is(err, service.ErrUserAlreadyExists) {
			data["error"] = msgUserExists
			h.render(c, http.StatusConflict, "register.html", data)
			return
		}
		if msg, ok := formMessage(err); ok {
			data["error"] = msg
			h.render(c, http.StatusBadRequest, "register.html", data)
			return
		}
		h.serverError(c, "register user", err)
		return
	}

	if err := h.startSession(c, user.Name); err != nil {
		h.serverError(c, "start session", err)
		return
	}
	h.logger.Infof("registered user %s (id %d)", user.Name, user.ID)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) loginForm(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", gin.H{"title": "Log in"})
}

func (h *Handler) login(c *gin.Context) {
	name := c.PostForm("name")
	user, err := h.users.Authenticate(c.Request.Context(), name, c.PostForm("password"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.render(c, http.StatusUnauthorized, "login.html", gin.H{
				"title": "Log in",
				"name":  name,
				"error": msgBadCredentials,
			})
			return
		}
		h.serverError(c, "authenticate", err)
		return
	}

	if err := h.startSession(c, user.Name); err != nil {
		h.serverError(c, "start session", err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) logout(c *gin.Context) {
	if claims := sessionClaims(c); claims != nil && h.revoker != nil {
		if err := h.revoker.Revoke(c.Request.Context(), claims.ID, h.sessions.Remaining(claims)); err != nil {
			h.logger.Warnf("revoke session for %s: %v", claims.Name(), err)
		}
	}
	h.clearSession(c)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) question(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.renderError(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	q, err := h.questions.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			h.renderError(c, http.StatusNotFound, "Question not found.")
			return
		}
		h.serverError(c, "get question", err)
		return
	}
	h.render(c, http.StatusOK, "question.html", gin.H{"title": "Question", "question": q})
}

func (h *Handler) askForm(c *gin.Context) {
	h.renderAsk(c, http.StatusOK, gin.H{})
}

func (h *Handler) ask(c *gin.Context) {
	text := c.PostForm("question")
	// an unparsable id can never name an expert
	expertID, _ := strconv.ParseInt(strings.TrimSpace(c.PostForm("expert")), 10, 64)

	q, err := h.questions.Ask(c.Request.Context(), currentUser(c), expertID, text)
	if err != nil {
		if msg, ok := formMessage(err); ok {
			h.renderAsk(c, http.StatusBadRequest, gin.H{"error": msg, "text": text, "selected": expertID})
			return
		}
		h.serverError(c, "ask question", err)
		return
	}

	h.logger.Infof("question %d asked by user %d to expert %d", q.ID, q.AskedByID, q.ExpertID)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) renderAsk(c *gin.Context, status int, data gin.H) {
	experts, err := h.users.ListExperts(c.Request.Context())
	if err != nil {
		h.serverError(c, "list experts", err)
		return
	}
	if _, ok := data["selected"]; !ok {
		data["selected"] = int64(0)
	}
	data["title"] = "Ask a question"
	data["experts"] = experts
	h.render(c, status, "ask.html", data)
}

func (h *Handler) answerForm(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.renderError(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	q, err := h.questions.ForExpert(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.questionError(c, err)
		return
	}
	h.render(c, http.StatusOK, "answer.html", gin.H{"title": "Answer", "question": q})
}

func (h *Handler) answer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.renderError(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	user := currentUser(c)
	err := h.questions.Answer(c.Request.Context(), user, id, c.PostForm("answer"))
	if err == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	msg, ok := formMessage(err)
	if !ok {
		h.questionError(c, err)
		return
	}
	q, err := h.questions.ForExpert(c.Request.Context(), user, id)
	if err != nil {
		h.questionError(c, err)
		return
	}
	h.render(c, http.StatusBadRequest, "answer.html", gin.H{"title": "Answer", "question": q, "error": msg})
}

func (h *Handler) questionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrQuestionNotFound):
		h.renderError(c, http.StatusNotFound, "Question not found.")
	case errors.Is(err, service.ErrForbidden):
		h.renderError(c, http.StatusForbidden, "This question is not assigned to you.")
	default:
		h.serverError(c, "answer question", err)
	}
}

func (h *Handler) unanswered(c *gin.Context) {
	questions, err := h.questions.Inbox(c.Request.Context(), currentUser(c))
	if err != nil {
		h.serverError(c, "list unanswered", err)
		return
	}
	h.render(c, http.StatusOK, "unanswered.html", gin.H{"title": "Unanswered", "questions": questions})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.serverError(c, "list users", err)
		return
	}
	h.render(c, http.StatusOK, "users.html", gin.H{"title": "Users", "users": users})
}

func (h *Handler) promote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.renderError(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	if err := h.users.Promote(c.Request.Context(), currentUser(c), id); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			h.renderError(c, http.StatusNotFound, "User not found.")
		case errors.Is(err, service.ErrForbidden):
			h.renderError(c, http.StatusForbidden, "Only administrators can do that.")
		default:
			h.serverError(c, "promote user", err)
		}
		return
	}

	h.logger.Infof("user %d promoted to expert by %s", id, currentUser(c).Name)
	c.Redirect(http.StatusFound, "/users")
}
