package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"NotesWebService/commands"
	"NotesWebService/models"
	"NotesWebService/repository"
	"NotesWebService/response"

	"github.com/prometheus/client_golang/prometheus"
)

// CreateTaskHandler handles the HTTP request for creating a new task.
// The task is stored under the account of the signed-in user; any id or account in the
// body is ignored. Titles and descriptions are trimmed and escaped against XSS attacks.
// Length limits apply to the text as sent, not to its escaped form.
// Blank titles are rejected, blank descriptions are allowed.
//
// Example request body:
//
//	{
//	  "title": "Task 1",
//	  "description": "Description of Task 1"
//	}
//
// Example response:
//
//	{
//	  "id": 1,
//	  "title": "Task 1",
//	  "description": "Description of Task 1",
//	  "completed": false,
//	  "accountId": "user1",
//	  "createdAt": "2024-03-01T10:00:00Z"
//	}
//
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param task body models.Task true "Task"
// @Success 201 {object} models.Task
// @Failure 400 {object} response.Message
// @Router /task/create [post]
func (h *TaskHandler) CreateTaskHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	const endpoint, operation = "/task/create", "Create a task"
	endPointCounter.WithLabelValues(endpoint).Inc()

	id, err := h.authorize(req)
	if err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusUnauthorized, "unauthorized user", err)
		return
	}
	task := models.Task{}
	if err := json.NewDecoder(req.Body).Decode(&task); err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	task.Id = 0
	task.AccountId = id.AccountId
	sanitizeTask(&task)
	if err := h.validateTask(task); err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusBadRequest, "Invalid request body inputs", err)
		return
	}
	if err := h.store.CreateTask(req.Context(), &task); err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusInternalServerError, "Unsuccessful insert operation", err)
		return
	}
	h.refreshStats(task.AccountId)

	h.entry(req, operation).WithField("task id", task.Id).Info("Processing request")
	response.JSON(res, http.StatusCreated, task)
}

// GetTaskHandler handles the HTTP request for retrieving a task by id.
// Users can only read their own tasks, admins can read any task.
//
// Example request:
//
//	GET /task/getid/1
//
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task id"
// @Success 200 {object} models.Task
// @Failure 404 {object} response.Message
// @Router /task/getid/{id} [get]
func (h *TaskHandler) GetTaskHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	const endpoint, operation = "/task/getid", "get task by id"
	endPointCounter.WithLabelValues(endpoint).Inc()

	id, err := h.authorize(req)
	if err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusUnauthorized, "unauthorized user", err)
		return
	}
	taskID, err := strconv.Atoi(req.PathValue("id"))
	if err != nil || taskID <= 0 {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusBadRequest, "Invalid task ID", err)
		return
	}
	task, ok := h.loadTask(res, req, errorCounter, endpoint, operation, taskID)
	if !ok {
		return
	}
	if !id.isAdmin() && task.AccountId != id.AccountId {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusForbidden, "task belongs to another account", nil)
		return
	}

	h.entry(req, operation).WithField("task id", task.Id).Info("Processing request")
	response.JSON(res, http.StatusOK, task)
}

// GetAllTasksHandler handles the HTTP request for listing tasks, newest first.
// Users see their own tasks. Admins see every account unless the "account" query
// parameter names one.
//
// Query parameters:
// - search: substring of the title or description.
// - filter: "all" (default), "active" or "completed".
// - pagesize and page: pagination, both required when either is given, page starts at 1.
//
// Example request:
//
//	GET /task/getAll?filter=active&search=milk&pagesize=10&page=1
//
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search in title and description"
// @Param filter query string false "all, active or completed"
// @Param page query int false "Page number"
// @Param pagesize query int false "Page size"
// @Param account query string false "Account id (admin only)"
// @Success 200 {array} models.Task
// @Router /task/getAll [get]
func (h *TaskHandler) GetAllTasksHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	const endpoint, operation = "/task/getAll", "get all tasks"
	endPointCounter.WithLabelValues(endpoint).Inc()

	id, err := h.authorize(req)
	if err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusUnauthorized, "unauthorized user", err)
		return
	}
	query := req.URL.Query()
	filter := models.TaskFilter{
		AccountId: id.AccountId,
		Search:    query.Get("search"),
		Status:    query.Get("filter"),
	}
	if id.isAdmin() {
		filter.AccountId = query.Get("account")
	}
	filter.Limit, filter.Offset, err = pagination(query.Get("pagesize"), query.Get("page"))
	if err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusBadRequest, err.Error(), err)
		return
	}
	if err := h.validate.Struct(filter); err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	tasks, err := h.store.ListTasks(req.Context(), filter)
	if err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusInternalServerError, "failed to load tasks", err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	h.entry(req, operation).WithField("count", len(tasks)).Info("Processing request")
	response.JSON(res, http.StatusOK, tasks)
}

// maxPageSize is the largest pagesize accepted by GetAllTasksHandler.
const maxPageSize = 1000

// pagination converts the pagesize and page query parameters to a limit and offset.
// Both empty means no pagination.
func pagination(pagesize, page string) (int, int, error) {
	if pagesize == "" && page == "" {
		return 0, 0, nil
	}
	limit, err := strconv.Atoi(pagesize)
	if err != nil || limit <= 0 {
		return 0, 0, fmt.Errorf("invalid pagesize %q", pagesize)
	}
	if limit > maxPageSize {
		return 0, 0, fmt.Errorf("pagesize %d is larger than %d", limit, maxPageSize)
	}
	number, err := strconv.Atoi(page)
	if err != nil || number <= 0 || number-1 > math.MaxInt/limit {
		return 0, 0, fmt.Errorf("invalid page %q", page)
	}
	return limit, (number - 1) * limit, nil
}

// UpdateTaskHandler handles the HTTP request for updating a task.
// Only the owner of a task can update it. Fields missing from the body keep their value.
//
// Example request body:
//
//	{
//	  "id": 1,
//	  "title": "Task 1 updated",
//	  "completed": true
//	}
//
// @Summary Update a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param task body commands.UpdateTaskCommand true "Changes"
// @Success 200 {object} models.Task
// @Failure 403 {object} response.Message
// @Failure 404 {object} response.Message
// @Router /task/update [post]
func (h *TaskHandler) UpdateTaskHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	const endpoint, operation = "/task/update", "update a task"
	endPointCounter.WithLabelValues(endpoint).Inc()

	id, err := h.authorize(req)
	if err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusUnauthorized, "unauthorized user", err)
		return
	}
	cmd := commands.UpdateTaskCommand{}
	if err := json.NewDecoder(req.Body).Decode(&cmd); err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(cmd); err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusBadRequest, "Invalid task Id", err)
		return
	}
	h.modifyTask(res, req, errorCounter, endpoint, operation, id, cmd.Id, func(task *models.Task) {
		if cmd.Title != nil {
			task.Title = sanitizeField(*cmd.Title)
		}
		if cmd.Description != nil {
			task.Description = sanitizeField(*cmd.Description)
		}
		if cmd.Completed != nil {
			task.Completed = *cmd.Completed
		}
	})
}

// CompleteTaskHandler marks a task of the signed-in user as completed.
//
// @Summary Complete a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param task body commands.TaskStatusCommand true "Task id"
// @Success 200 {object} models.Task
// @Router /task/complete [post]
func (h *TaskHandler) CompleteTaskHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	h.setCompleted(res, req, endPointCounter, errorCounter, "/task/complete", "complete a task", true)
}

// ActivateTaskHandler marks a task of the signed-in user as active again.
//
// @Summary Activate a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param task body commands.TaskStatusCommand true "Task id"
// @Success 200 {object} models.Task
// @Router /task/activate [post]
func (h *TaskHandler) ActivateTaskHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	h.setCompleted(res, req, endPointCounter, errorCounter, "/task/activate", "activate a task", false)
}

func (h *TaskHandler) setCompleted(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec, endpoint, operation string, completed bool) {
	endPointCounter.WithLabelValues(endpoint).Inc()

	id, err := h.authorize(req)
	if err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusUnauthorized, "unauthorized user", err)
		return
	}
	cmd := commands.TaskStatusCommand{}
	if err := json.NewDecoder(req.Body).Decode(&cmd); err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(cmd); err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusBadRequest, "Invalid task Id", err)
		return
	}
	h.modifyTask(res, req, errorCounter, endpoint, operation, id, cmd.Id, func(task *models.Task) {
		task.Completed = completed
	})
}

// modifyTask loads a task owned by the caller, applies change, validates and stores it.
// Stored fields are already sanitized, so change must sanitize what it brings in.
func (h *TaskHandler) modifyTask(res http.ResponseWriter, req *http.Request, errorCounter *prometheus.CounterVec, endpoint, operation string, id *Identity, taskID int, change func(*models.Task)) {
	task, ok := h.loadTask(res, req, errorCounter, endpoint, operation, taskID)
	if !ok {
		return
	}
	if task.AccountId != id.AccountId {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusForbidden, "task belongs to another account", nil)
		return
	}
	change(task)
	if err := h.validateTask(*task); err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusBadRequest, "Invalid request body inputs", err)
		return
	}
	if err := h.store.UpdateTask(req.Context(), task); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			h.fail(res, req, errorCounter, endpoint, operation, http.StatusNotFound, "Task not found", err)
			return
		}
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusInternalServerError, "Unsuccessful update operation", err)
		return
	}
	h.refreshStats(task.AccountId)

	h.entry(req, operation).WithField("task id", task.Id).Info("Processing request")
	response.JSON(res, http.StatusOK, task)
}

// loadTask fetches a task and writes the error response when it cannot.
func (h *TaskHandler) loadTask(res http.ResponseWriter, req *http.Request, errorCounter *prometheus.CounterVec, endpoint, operation string, taskID int) (*models.Task, bool) {
	task, err := h.store.GetTask(req.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			h.fail(res, req, errorCounter, endpoint, operation, http.StatusNotFound, "Task not found", err)
			return nil, false
		}
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusInternalServerError, "failed to load task", err)
		return nil, false
	}
	return task, true
}

// DeleteTaskHandler handles the HTTP request for deleting a task.
// Users can delete their own tasks, admins can delete any task.
//
// Example request body:
//
//	{
//	  "id": 1
//	}
//
// Returns:
//
//	{
//	  "message": "Successfully Deleted task with id=1"
//	}
//
// @Summary Delete a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param task body commands.DeleteTaskCommand true "Task id"
// @Success 200 {object} response.Response
// @Router /task/delete [post]
func (h *TaskHandler) DeleteTaskHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	const endpoint, operation = "/task/delete", "Delete a task"
	endPointCounter.WithLabelValues(endpoint).Inc()

	id, err := h.authorize(req)
	if err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusUnauthorized, "unauthorized user", err)
		return
	}
	deleteTaskCommand := commands.DeleteTaskCommand{}
	if err := json.NewDecoder(req.Body).Decode(&deleteTaskCommand); err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(deleteTaskCommand); err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusBadRequest, "Invalid Task Id", err)
		return
	}
	task, ok := h.loadTask(res, req, errorCounter, endpoint, operation, deleteTaskCommand.Id)
	if !ok {
		return
	}
	if !id.isAdmin() && task.AccountId != id.AccountId {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusForbidden, "task belongs to another account", nil)
		return
	}
	if err := h.store.DeleteTask(req.Context(), task.Id); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			h.fail(res, req, errorCounter, endpoint, operation, http.StatusNotFound, "Task not found", err)
			return
		}
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusInternalServerError, "Unsuccessful delete operation", err)
		return
	}
	h.refreshStats(task.AccountId)

	h.entry(req, operation).WithField("task id", task.Id).Info("Processing request")
	response.JSON(res, http.StatusOK, response.Response{
		Message: fmt.Sprintf("Successfully Deleted task with id=%d", task.Id),
	})
}

// ClearCompletedHandler deletes every completed task of the signed-in user.
//
// @Summary Clear completed tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.ClearCompleted
// @Router /task/clearCompleted [post]
func (h *TaskHandler) ClearCompletedHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	const endpoint, operation = "/task/clearCompleted", "clear completed tasks"
	endPointCounter.WithLabelValues(endpoint).Inc()

	id, err := h.authorize(req)
	if err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusUnauthorized, "unauthorized user", err)
		return
	}
	deleted, err := h.store.ClearCompletedTasks(req.Context(), id.AccountId)
	if err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusInternalServerError, "Unsuccessful delete operation", err)
		return
	}
	h.refreshStats(id.AccountId)

	h.entry(req, operation).WithField("deleted", deleted).Info("Processing request")
	response.JSON(res, http.StatusOK, response.ClearCompleted{
		Message: "Completed tasks cleared",
		Deleted: deleted,
	})
}
