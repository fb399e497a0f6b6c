// Package handlers provides the HTTP request handlers for NotesWebService.
//
// The handlers serve the task list of each signed-in account: creation, retrieval with search
// and filtering, update, completion, deletion, clearing completed tasks and the
// active/completed statistics. Every handler authorizes the request from its JWT token,
// counts calls and errors with Prometheus counters and logs with logrus.
//
// After each change to an account's tasks, the account's statistics are recomputed in the
// background and published as Prometheus gauges.
package handlers

import (
	"context"
	"html"
	"net/http"
	"strings"
	"sync"
	"time"

	"NotesWebService/middleware"
	"NotesWebService/models"
	"NotesWebService/response"
	"NotesWebService/statistics"
	"NotesWebService/validation"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	workerCount  = 5 // Number of statistics refreshes running at once
	statsTimeout = 5 * time.Second
)

// TaskStore is the data-access layer used by the handlers.
type TaskStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id int) (*models.Task, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id int) error
	ClearCompletedTasks(ctx context.Context, accountId string) (int64, error)
}

// StatsPublisher receives freshly computed statistics of an account.
type StatsPublisher interface {
	Publish(account string, result statistics.Result)
}

type TaskHandler struct {
	store     TaskStore
	auth      *Authenticator
	publisher StatsPublisher
	validate  *validator.Validate
	log       *logrus.Logger

	statsChan chan struct{}
	wg        sync.WaitGroup

	seqMu     sync.Mutex
	seq       map[string]uint64
	published map[string]uint64
}

func NewTaskHandler(store TaskStore, auth *Authenticator, publisher StatsPublisher, log *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		store:     store,
		auth:      auth,
		publisher: publisher,
		validate:  validation.MustNew(),
		log:       log,
		statsChan: make(chan struct{}, workerCount),
		seq:       make(map[string]uint64),
		published: make(map[string]uint64),
	}
}

// Wait blocks until every queued statistics refresh has finished.
func (h *TaskHandler) Wait() {
	h.wg.Wait()
}

// refreshStats recomputes the statistics of an account in the background.
// A refresh that finishes after a newer one for the same account is dropped.
func (h *TaskHandler) refreshStats(accountId string) {
	h.seqMu.Lock()
	h.seq[accountId]++
	seq := h.seq[accountId]
	h.seqMu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.statsChan <- struct{}{}
		defer func() { <-h.statsChan }()

		ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
		defer cancel()
		tasks, err := h.store.ListTasks(ctx, models.TaskFilter{AccountId: accountId})
		if err != nil {
			h.log.WithFields(logrus.Fields{
				"task operation": "refresh statistics",
				"account":        accountId,
			}).WithError(err).Warn("failed to load tasks, publishing zero statistics")
		}
		result := statistics.Compute(statistics.FromLoad(tasks, err))

		h.seqMu.Lock()
		defer h.seqMu.Unlock()
		if seq < h.published[accountId] {
			return
		}
		h.published[accountId] = seq
		h.publisher.Publish(accountId, result)
	}()
}

// entry returns a log entry carrying the operation, request line and request id.
func (h *TaskHandler) entry(req *http.Request, operation string) *logrus.Entry {
	return h.log.WithFields(logrus.Fields{
		"task operation": operation,
		"request":        req.Method + " " + req.URL.Path,
		"request_id":     middleware.RequestIDFromContext(req.Context()),
	})
}

// fail counts and logs an error and writes it to the client as a JSON message.
func (h *TaskHandler) fail(res http.ResponseWriter, req *http.Request, errorCounter *prometheus.CounterVec, endpoint, operation string, status int, msg string, err error) {
	errorCounter.WithLabelValues(endpoint).Inc()
	entry := h.entry(req, operation)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
	response.JSON(res, status, response.Message{Status: "Request Failed", Body: msg})
}

// sanitizeTask sanitizes the task fields to prevent XSS attacks.
func sanitizeTask(task *models.Task) {
	task.Title = sanitizeField(task.Title)
	task.Description = sanitizeField(task.Description)
}

func sanitizeField(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

// validateTask validates a sanitized task against the text the client sent,
// so escaping does not count towards the length limits.
func (h *TaskHandler) validateTask(task models.Task) error {
	task.Title = html.UnescapeString(task.Title)
	task.Description = html.UnescapeString(task.Description)
	return h.validate.Struct(task)
}
