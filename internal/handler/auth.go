package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roster/internal/auth"
)

type tokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) register(c *gin.Context) {
	var in auth.RegisterInput
	if !h.bind(c, &in) {
		return
	}
	sess, err := h.accounts.Register(c.Request.Context(), auth.ActorFrom(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *Handler) login(c *gin.Context) {
	var in auth.LoginInput
	if !h.bind(c, &in) {
		return
	}
	sess, err := h.accounts.Login(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) refresh(c *gin.Context) {
	var in tokenRequest
	if !h.bind(c, &in) {
		return
	}
	sess, err := h.accounts.Refresh(c.Request.Context(), in.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) logout(c *gin.Context) {
	var in tokenRequest
	if !h.bind(c, &in) {
		return
	}
	if err := h.accounts.Logout(c.Request.Context(), in.RefreshToken); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.accounts.Me(c.Request.Context(), auth.ActorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
