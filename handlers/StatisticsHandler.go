package handlers

import (
	"net/http"

	"NotesWebService/models"
	"NotesWebService/response"
	"NotesWebService/statistics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// StatisticsHandler returns the percentages of active and completed tasks of the signed-in
// user's account. Admins may pass the "account" query parameter to read another account.
//
// A failure to load the tasks is not reported to the client: the response carries zero
// percentages, the error is logged and counted.
//
// Example response:
//
//	{
//	  "activeTasksPercent": 40,
//	  "completedTasksPercent": 60
//	}
//
// @Summary Task statistics
// @Tags statistics
// @Produce json
// @Security BearerAuth
// @Param account query string false "Account id (admin only)"
// @Success 200 {object} statistics.Result
// @Router /task/statistics [get]
func (h *TaskHandler) StatisticsHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	const endpoint, operation = "/task/statistics", "get statistics"
	endPointCounter.WithLabelValues(endpoint).Inc()

	id, err := h.authorize(req)
	if err != nil {
		h.fail(res, req, errorCounter, endpoint, operation, http.StatusUnauthorized, "unauthorized user", err)
		return
	}
	account := id.AccountId
	if requested := req.URL.Query().Get("account"); requested != "" && requested != account {
		if !id.isAdmin() {
			h.fail(res, req, errorCounter, endpoint, operation, http.StatusForbidden, "statistics of another account", nil)
			return
		}
		account = requested
	}

	in := statistics.FromLoad(h.store.ListTasks(req.Context(), models.TaskFilter{AccountId: account}))
	if err := in.Err(); err != nil {
		errorCounter.WithLabelValues(endpoint).Inc()
		h.entry(req, operation).WithError(err).Warn("failed to load tasks, returning zero statistics")
	}
	result := statistics.Compute(in)

	h.entry(req, operation).WithFields(logrus.Fields{
		"account":   account,
		"active":    result.ActivePercent,
		"completed": result.CompletedPercent,
	}).Info("Processing request")
	response.JSON(res, http.StatusOK, result)
}
