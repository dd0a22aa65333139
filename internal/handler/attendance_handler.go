package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edcenter/tutorcenter-api/internal/service"
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
	"github.com/edcenter/tutorcenter-api/pkg/response"
)

// AttendanceHandler exposes the per-student attendance ledger.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	metrics    *service.MetricsService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService, metrics *service.MetricsService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, metrics: metrics}
}

// List godoc
// @Summary List a student's attendance ledger
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	studentID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	events, err := h.attendance.List(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Check godoc
// @Summary Record or toggle attendance for one date
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param payload body service.AttendanceCheckRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance [post]
func (h *AttendanceHandler) Check(c *gin.Context) {
	studentID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AttendanceCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.attendance.Check(c.Request.Context(), studentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveAttendanceCheck(event.IsAbsent)
	response.JSON(c, http.StatusOK, event, nil)
}

// Update godoc
// @Summary Edit an attendance event without touching counters
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param payload body service.AttendanceUpdateRequest true "Attendance payload"
// @Success 204
// @Router /students/{id}/attendance [put]
func (h *AttendanceHandler) Update(c *gin.Context) {
	studentID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AttendanceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.attendance.Update(c.Request.Context(), studentID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Remove an attendance event without touching counters
// @Tags Attendance
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param date query string true "Event date (YYYY-MM-DD)"
// @Param course_id query int false "Course scope"
// @Success 204
// @Router /students/{id}/attendance [delete]
func (h *AttendanceHandler) Delete(c *gin.Context) {
	studentID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var courseID *int64
	if raw := c.Query("course_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course_id"))
			return
		}
		courseID = &parsed
	}
	if err := h.attendance.Delete(c.Request.Context(), studentID, c.Query("date"), courseID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
