package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"roster/internal/apperr"
	"roster/internal/attendance"
	"roster/internal/auth"
	"roster/internal/employee"
	"roster/internal/model"
	"roster/internal/query"
)

// listParams reads filter, sort and window from the query string.
func listParams(c *gin.Context) (*query.Filter, *query.SortRequest, query.Window, error) {
	var (
		f    query.Filter
		w    query.Window
		errs []string
	)
	str := func(key string) *string {
		if v, ok := c.GetQuery(key); ok {
			return &v
		}
		return nil
	}
	num := func(key string) *int {
		v, ok := c.GetQuery(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, key+" must be an integer")
			return nil
		}
		return &n
	}

	f.Name, f.Class, f.Department = str("name"), str("class"), str("department")
	f.AgeMin, f.AgeMax = num("ageMin"), num("ageMax")
	if v, ok := c.GetQuery("isActive"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, "isActive must be a boolean")
		} else {
			f.IsActive = &b
		}
	}

	var sort *query.SortRequest
	if field := c.Query("sortField"); field != "" {
		order := query.Direction(strings.ToUpper(c.DefaultQuery("sortOrder", string(query.Asc))))
		if order != query.Asc && order != query.Desc {
			errs = append(errs, "sortOrder must be ASC or DESC")
		}
		sort = &query.SortRequest{Field: field, Order: order}
	}

	w.First, w.Last = num("first"), num("last")
	w.After, w.Before = str("after"), str("before")

	if len(errs) > 0 {
		return nil, nil, w, apperr.Validation("invalid query parameters", errs...)
	}
	return &f, sort, w, nil
}

func (h *Handler) listEmployees(c *gin.Context) {
	f, sort, w, err := listParams(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	conn, err := h.employees.List(ctx, auth.ActorFrom(c), h.employees.Loader(), f, sort, w)
	if err != nil {
		h.fail(c, err)
		return
	}
	view, err := h.presenter().connection(ctx, conn)
	if err != nil {
		h.fail(c, apperr.Store("load users", err))
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) searchEmployees(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.fail(c, apperr.Validation("invalid query parameters", "limit must be an integer"))
			return
		}
		limit = n
	}
	ctx := c.Request.Context()
	recs, err := h.employees.Search(ctx, auth.ActorFrom(c), c.Query("q"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	views, err := h.presenter().employees(ctx, recs)
	if err != nil {
		h.fail(c, apperr.Store("load users", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": views})
}

func (h *Handler) employeeStats(c *gin.Context) {
	stats, err := h.employees.Stats(c.Request.Context(), auth.ActorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) getEmployee(c *gin.Context) {
	rec, err := h.employees.Get(c.Request.Context(), auth.ActorFrom(c), h.employees.Loader(), c.Param("id"))
	h.writeEmployee(c, http.StatusOK, rec, err)
}

func (h *Handler) getByEmployeeID(c *gin.Context) {
	rec, err := h.employees.GetByEmployeeID(c.Request.Context(), auth.ActorFrom(c), h.employees.Loader(), c.Param("employeeId"))
	h.writeEmployee(c, http.StatusOK, rec, err)
}

func (h *Handler) createEmployee(c *gin.Context) {
	var in employee.CreateInput
	if !h.bind(c, &in) {
		return
	}
	rec, err := h.employees.Create(c.Request.Context(), auth.ActorFrom(c), in)
	h.writeEmployee(c, http.StatusCreated, rec, err)
}

func (h *Handler) updateEmployee(c *gin.Context) {
	var in employee.UpdateInput
	if !h.bind(c, &in) {
		return
	}
	rec, err := h.employees.Update(c.Request.Context(), auth.ActorFrom(c), c.Param("id"), in)
	h.writeEmployee(c, http.StatusOK, rec, err)
}

func (h *Handler) deleteEmployee(c *gin.Context) {
	ok, err := h.employees.Delete(c.Request.Context(), auth.ActorFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": ok})
}

func (h *Handler) addAttendance(c *gin.Context) {
	var in attendance.Input
	if !h.bind(c, &in) {
		return
	}
	rec, err := h.employees.AddAttendance(c.Request.Context(), auth.ActorFrom(c), c.Param("id"), in)
	h.writeEmployee(c, http.StatusCreated, rec, err)
}

func (h *Handler) updateAttendance(c *gin.Context) {
	var in attendance.Input
	if !h.bind(c, &in) {
		return
	}
	rec, err := h.employees.UpdateAttendance(c.Request.Context(), auth.ActorFrom(c), c.Param("id"), c.Param("attendanceId"), in)
	h.writeEmployee(c, http.StatusOK, rec, err)
}

func (h *Handler) writeEmployee(c *gin.Context, status int, rec *model.Employee, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	view, err := h.presenter().employee(c.Request.Context(), rec)
	if err != nil {
		h.fail(c, apperr.Store("load users", err))
		return
	}
	c.JSON(status, view)
}
