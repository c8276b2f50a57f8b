// Package handler exposes the employee and account operations over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"roster/internal/apperr"
	"roster/internal/auth"
	"roster/internal/employee"
	"roster/internal/httpmiddleware"
)

// Handler serves the HTTP API.
type Handler struct {
	employees  *employee.Service
	accounts   *auth.Accounts
	users      auth.UserStore
	health     func(context.Context) map[string]error
	log        logrus.FieldLogger
	production bool
}

type Options struct {
	Employees   *employee.Service
	Accounts    *auth.Accounts
	Users       auth.UserStore
	Health      func(context.Context) map[string]error
	Limiter     *httpmiddleware.TokenBucket
	Log         logrus.FieldLogger
	Production  bool
	CORSOrigins []string
}

// New builds the gin engine with middleware and routes.
func New(opts Options) *gin.Engine {
	h := &Handler{
		employees:  opts.Employees,
		accounts:   opts.Accounts,
		users:      opts.Users,
		health:     opts.Health,
		log:        opts.Log,
		production: opts.Production,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.CORS(opts.CORSOrigins))
	r.Use(httpmiddleware.SecurityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.healthz)

	v1 := r.Group("/v1", auth.Optional(opts.Accounts, h.fail))
	if opts.Limiter != nil {
		v1.Use(opts.Limiter.GinMiddleware())
	}

	v1.POST("/auth/register", h.register)
	v1.POST("/auth/login", h.login)
	v1.POST("/auth/refresh", h.refresh)
	v1.POST("/auth/logout", h.logout)
	v1.GET("/me", h.me)

	emp := v1.Group("/employees")
	emp.GET("", h.listEmployees)
	emp.GET("/search", h.searchEmployees)
	emp.GET("/stats", h.employeeStats)
	emp.GET("/by-employee-id/:employeeId", h.getByEmployeeID)
	emp.GET("/:id", h.getEmployee)
	emp.POST("", h.createEmployee)
	emp.PATCH("/:id", h.updateEmployee)
	emp.DELETE("/:id", h.deleteEmployee)
	emp.POST("/:id/attendance", h.addAttendance)
	emp.PUT("/:id/attendance/:attendanceId", h.updateAttendance)

	return r
}

func (h *Handler) healthz(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}
	if h.health != nil {
		for name, err := range h.health(c.Request.Context()) {
			deps[name] = err == nil
			if err != nil {
				status = http.StatusServiceUnavailable
				h.log.WithError(err).WithField("dependency", name).Warn("health check failed")
			}
		}
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "dependencies": deps})
}

// fail writes err as a JSON error. Store failures are logged in full and, in
// production, reported without detail.
func (h *Handler) fail(c *gin.Context, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = &apperr.Error{Kind: apperr.KindStore, Message: "internal error", Err: err}
	}
	body := gin.H{"code": ae.Kind.String(), "message": ae.Message}
	if len(ae.Details) > 0 {
		body["details"] = ae.Details
	}
	if ae.Kind == apperr.KindStore {
		h.log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		if h.production {
			body = gin.H{"code": ae.Kind.String(), "message": "internal server error"}
		} else if ae.Err != nil {
			body["details"] = []string{ae.Err.Error()}
		}
	}
	c.AbortWithStatusJSON(ae.Kind.Status(), gin.H{"error": body})
}

func (h *Handler) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		h.fail(c, apperr.Validation("invalid request body", err.Error()))
		return false
	}
	return true
}
