package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neuralplan/neuralplan-backend/internal/logger"
	"github.com/neuralplan/neuralplan-backend/internal/services"
)

type InsightsHandler struct {
	log             *logger.Logger
	insightsService services.InsightsService
}

func NewInsightsHandler(log *logger.Logger, insightsService services.InsightsService) *InsightsHandler {
	return &InsightsHandler{
		log:             log.With("handler", "InsightsHandler"),
		insightsService: insightsService,
	}
}

func (h *InsightsHandler) GetHistory(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "0"))
	var (
		entries any
		err     error
	)
	if days > 0 {
		entries, err = h.insightsService.Trend(days)
	} else {
		entries, err = h.insightsService.History()
	}
	if err != nil {
		h.log.Error("GetHistory failed", "error", err)
		RespondServiceError(c, "load_history_failed", err)
		return
	}
	RespondOK(c, gin.H{"history": entries})
}

func (h *InsightsHandler) GetSummary(c *gin.Context) {
	summary, err := h.insightsService.Summary()
	if err != nil {
		h.log.Error("GetSummary failed", "error", err)
		RespondServiceError(c, "load_summary_failed", err)
		return
	}
	RespondOK(c, summary)
}

func (h *InsightsHandler) ExportHistory(c *gin.Context) {
	data, err := h.insightsService.ExportCSV()
	if err != nil {
		h.log.Error("ExportHistory failed", "error", err)
		RespondServiceError(c, "export_failed", err)
		return
	}
	filename := fmt.Sprintf("history_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}
