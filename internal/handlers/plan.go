package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neuralplan/neuralplan-backend/internal/logger"
	"github.com/neuralplan/neuralplan-backend/internal/services"
	"github.com/neuralplan/neuralplan-backend/internal/types"
)

type PlanHandler struct {
	log         *logger.Logger
	planService services.PlanService
}

func NewPlanHandler(log *logger.Logger, planService services.PlanService) *PlanHandler {
	return &PlanHandler{
		log:         log.With("handler", "PlanHandler"),
		planService: planService,
	}
}

// GeneratePlan always answers 200: plan failures are part of the
// payload, since the frontend renders them inline rather than as
// transport errors.
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	var req services.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result := h.planService.GeneratePlan(c.Request.Context(), req)
	RespondOK(c, result)
}

type moodEntry struct {
	ID    types.Mood `json:"id"`
	Label string     `json:"label"`
}

func (h *PlanHandler) ListMoods(c *gin.Context) {
	moods := make([]moodEntry, 0, 5)
	for _, m := range types.Moods() {
		moods = append(moods, moodEntry{ID: m, Label: m.Label()})
	}
	RespondOK(c, gin.H{"moods": moods})
}
