package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/neuralplan/neuralplan-backend/internal/logger"
	"github.com/neuralplan/neuralplan-backend/internal/services"
)

type ScheduleHandler struct {
	log             *logger.Logger
	scheduleService services.ScheduleService
	planService     services.PlanService
}

func NewScheduleHandler(log *logger.Logger, scheduleService services.ScheduleService, planService services.PlanService) *ScheduleHandler {
	return &ScheduleHandler{
		log:             log.With("handler", "ScheduleHandler"),
		scheduleService: scheduleService,
		planService:     planService,
	}
}

func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	table, err := h.scheduleService.Table()
	if err != nil {
		h.log.Error("GetSchedule failed", "error", err)
		RespondServiceError(c, "load_schedule_failed", err)
		return
	}
	RespondOK(c, gin.H{"schedule": table})
}

func (h *ScheduleHandler) GetMetrics(c *gin.Context) {
	metrics, err := h.scheduleService.Metrics()
	if err != nil {
		h.log.Error("GetMetrics failed", "error", err)
		RespondServiceError(c, "load_metrics_failed", err)
		return
	}
	RespondOK(c, metrics)
}

func (h *ScheduleHandler) UpdateRow(c *gin.Context) {
	rowID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_row_id", err)
		return
	}
	var req services.RowUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	if err := h.scheduleService.UpdateRow(rowID, req); err != nil {
		RespondServiceError(c, "update_row_failed", err)
		return
	}

	table, err := h.scheduleService.Table()
	if err != nil {
		RespondServiceError(c, "load_schedule_failed", err)
		return
	}
	RespondOK(c, gin.H{"schedule": table})
}

func (h *ScheduleHandler) SaveDaily(c *gin.Context) {
	result, err := h.scheduleService.SaveDaily()
	if err != nil {
		h.log.Error("SaveDaily failed", "error", err)
		RespondServiceError(c, "save_daily_failed", err)
		return
	}
	RespondOK(c, result)
}

// UploadMaster replaces the master schedule from an uploaded CSV file.
func (h *ScheduleHandler) UploadMaster(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer file.Close()

	result, err := h.scheduleService.UploadMasterCSV(file)
	if err != nil {
		h.log.Warn("UploadMaster rejected", "filename", fileHeader.Filename, "error", err)
		RespondServiceError(c, "upload_failed", err)
		return
	}
	h.log.Info("Master schedule uploaded", "filename", fileHeader.Filename, "rows", result.Rows)
	RespondOK(c, result)
}

// ExtractTimetable runs vision extraction on an uploaded timetable image
// and installs the result as the new master schedule.
func (h *ScheduleHandler) ExtractTimetable(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_image", err)
		return
	}
	mimeType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		RespondError(c, http.StatusBadRequest, "invalid_image", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	rows, err := h.planService.ExtractTimetable(c.Request.Context(), data, mimeType)
	if err != nil {
		RespondServiceError(c, "extract_failed", err)
		return
	}
	result, err := h.scheduleService.UploadMasterRows(rows)
	if err != nil {
		RespondServiceError(c, "upload_failed", err)
		return
	}
	h.log.Info("Timetable extracted from image", "filename", fileHeader.Filename, "rows", result.Rows)
	RespondOK(c, result)
}

func (h *ScheduleHandler) RestoreSample(c *gin.Context) {
	if err := h.scheduleService.RestoreSample(); err != nil {
		h.log.Error("RestoreSample failed", "error", err)
		RespondServiceError(c, "restore_sample_failed", err)
		return
	}
	RespondOK(c, gin.H{"restored": true})
}
