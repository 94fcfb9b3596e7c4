package handler

import (
	"strconv"

	"taskboard/usecase"
	"taskboard/utils"

	"github.com/gin-gonic/gin"
)

// maximum deadline window a client may ask for
const maxDeadlineDays = 366

type DashboardHandler struct {
	service *usecase.TasksService
}

func NewDashboardHandler(service *usecase.TasksService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) GetDeadlines(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxDeadlineDays {
			utils.BadRequest(c, "Invalid days parameter, must be between 1 and 366")
			return
		}
		days = n
	}

	report, err := h.service.Deadlines(c.Request.Context(), userID, days)
	if err != nil {
		respondError(c, err, "build deadline report")
		return
	}
	utils.Success(c, report)
}

func (h *DashboardHandler) GetStatusCounts(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	counts, err := h.service.StatusCounts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "count tasks")
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	utils.Success(c, gin.H{"by_status": counts, "total": total})
}
