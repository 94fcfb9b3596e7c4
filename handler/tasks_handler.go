package handler

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"taskboard/dto"
	"taskboard/model"
	"taskboard/services"
	"taskboard/usecase"
	"taskboard/utils"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	service *usecase.TasksService
}

func NewTaskHandler(service *usecase.TasksService) *TaskHandler {
	return &TaskHandler{service: service}
}

// requireUser reads the authenticated user set by the auth middleware.
func requireUser(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing user ID")
		return "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		utils.Unauthorized(c, "Missing user ID")
		return "", false
	}
	return id, true
}

// respondError maps service errors onto the response envelope.
func respondError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, usecase.ErrTaskNotFound):
		utils.NotFound(c, "Task not found")
	case errors.Is(err, usecase.ErrInvalidTask),
		errors.Is(err, dto.ErrInvalidRecurrence):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, usecase.ErrNotRecurring):
		utils.Conflict(c, "Task does not recur")
	case errors.Is(err, services.ErrNotExportable):
		utils.Conflict(c, err.Error())
	default:
		log.Printf("Error trying to %s: %v", action, err)
		utils.InternalError(c, "Failed to "+action)
	}
}

func changeResponse(change *usecase.TaskChange) gin.H {
	resp := gin.H{
		"task":         dto.ToTaskResponse(change.Task.Task, change.Task.Due),
		"series_ended": change.SeriesEnded,
	}
	if change.Next != nil {
		resp["next_occurrence"] = dto.ToTaskResponse(change.Next.Task, change.Next.Due)
	}
	return resp
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	startDate, err := dto.ParseDateField("start_date", req.StartDate)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	endDate, err := dto.ParseDateField("end_date", req.EndDate)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	rule, err := dto.ParseRecurrence(req.Recurrence)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	task := &model.Task{
		UserID:      userID,
		ProjectID:   req.ProjectID,
		TaskName:    req.TaskName,
		Description: req.Description,
		StartDate:   startDate,
		EndDate:     endDate,
		Status:      model.TaskStatus(req.Status),
		AssignedTo:  req.AssignedTo,
		Recurrence:  rule,
	}

	view, err := h.service.CreateTask(c.Request.Context(), task)
	if err != nil {
		respondError(c, err, "create task")
		return
	}
	utils.Created(c, dto.ToTaskResponse(view.Task, view.Due))
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	views, err := h.service.ListTasks(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list tasks")
		return
	}

	responses := make([]dto.TaskResponse, len(views))
	for i, view := range views {
		responses[i] = dto.ToTaskResponse(view.Task, view.Due)
	}
	utils.Success(c, gin.H{"tasks": responses, "count": len(responses)})
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	view, err := h.service.GetTask(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err, "fetch task")
		return
	}
	utils.Success(c, dto.ToTaskResponse(view.Task, view.Due))
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	update := usecase.TaskUpdate{
		TaskName:    req.TaskName,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
	}
	if req.StartDate != nil {
		if strings.TrimSpace(*req.StartDate) == "" {
			utils.BadRequest(c, "start_date cannot be cleared")
			return
		}
		start, err := dto.ParseDateField("start_date", *req.StartDate)
		if err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
		update.StartDate = start
	}
	if req.EndDate != nil {
		// an empty end_date clears it
		end, err := dto.ParseDateField("end_date", *req.EndDate)
		if err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
		update.EndDate = end
		update.ClearEndDate = end == nil
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		update.Status = &status
	}
	if req.Recurrence != nil {
		rule, err := dto.ParseRecurrence(req.Recurrence)
		if err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
		update.Recurrence = rule
	}

	change, err := h.service.UpdateTask(c.Request.Context(), userID, c.Param("id"), update)
	if err != nil {
		respondError(c, err, "update task")
		return
	}
	utils.Success(c, changeResponse(change))
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err, "delete task")
		return
	}
	utils.Success(c, gin.H{"message": "Task deleted successfully"})
}

// CompleteTask closes the current occurrence of a recurring task and returns
// the next one, if the series goes on.
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	change, err := h.service.CompleteOccurrence(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err, "complete task")
		return
	}
	utils.Success(c, changeResponse(change))
}

func (h *TaskHandler) GetOccurrences(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.BadRequest(c, "Invalid limit parameter, must be positive")
			return
		}
		limit = n
	}

	next, err := h.service.PreviewOccurrences(c.Request.Context(), userID, c.Param("id"), limit)
	if err != nil {
		respondError(c, err, "preview occurrences")
		return
	}
	utils.Success(c, gin.H{"occurrences": dto.ToOccurrenceResponses(next)})
}

func (h *TaskHandler) ExportCalendar(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	taskID := c.Param("id")
	body, err := h.service.Calendar(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, err, "export task")
		return
	}
	utils.Calendar(c, taskID+".ics", body)
}
