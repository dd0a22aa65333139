package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edcenter/tutorcenter-api/internal/service"
	"github.com/edcenter/tutorcenter-api/pkg/response"
)

// DebtHandler exposes the monthly debt views.
type DebtHandler struct {
	debts *service.DebtService
}

// NewDebtHandler constructs DebtHandler.
func NewDebtHandler(debts *service.DebtService) *DebtHandler {
	return &DebtHandler{debts: debts}
}

// StudentDebt godoc
// @Summary Per-course debt breakdown for one student
// @Tags Debts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/monthly-debt [get]
func (h *DebtHandler) StudentDebt(c *gin.Context) {
	studentID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	debt, err := h.debts.StudentDebt(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, debt, nil)
}

// MonthlySummary godoc
// @Summary Debt rollup across all active students
// @Tags Debts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /debts/monthly-summary [get]
func (h *DebtHandler) MonthlySummary(c *gin.Context) {
	summary, err := h.debts.MonthlySummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// CourseDebts godoc
// @Summary Debt position of every student in one course
// @Tags Debts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/students-debt [get]
func (h *DebtHandler) CourseDebts(c *gin.Context) {
	courseID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.debts.CourseDebts(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
