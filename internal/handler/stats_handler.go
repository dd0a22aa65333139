package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edcenter/tutorcenter-api/internal/service"
	"github.com/edcenter/tutorcenter-api/pkg/response"
)

// StatsHandler exposes dashboard statistics.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs StatsHandler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// General godoc
// @Summary General statistics snapshot
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *StatsHandler) General(c *gin.Context) {
	stats, err := h.stats.General(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// PaymentsByCourse godoc
// @Summary Payment totals grouped by course
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/by-course [get]
func (h *StatsHandler) PaymentsByCourse(c *gin.Context) {
	totals, err := h.stats.PaymentsByCourse(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, totals, nil)
}

// PaymentsByMonth godoc
// @Summary Payment totals per month for one year
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Param year path int true "Year"
// @Success 200 {object} response.Envelope
// @Router /stats/monthly/{year} [get]
func (h *StatsHandler) PaymentsByMonth(c *gin.Context) {
	year, _ := strconv.Atoi(c.Param("year"))
	totals, err := h.stats.PaymentsByMonth(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, totals, nil)
}
