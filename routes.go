package main

import (
	"net/http"

	"NotesWebService/config"
	_ "NotesWebService/docs"
	"NotesWebService/handlers"
	"NotesWebService/metrics"
	"NotesWebService/middleware"

	"github.com/juju/ratelimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"
)

// newRouter maps every endpoint of the service to its handler.
// All task endpoints share one rate limiter; sign-in attempts are additionally throttled.
func newRouter(h *handlers.TaskHandler, limits config.RateLimitConfig) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(limits.Rate), limits.Burst)
	loginBucket := ratelimit.NewBucketWithRate(limits.LoginRate, limits.LoginCapacity)

	wrap := func(handlerFunc middleware.HandlerFuncWithMetrics) http.HandlerFunc {
		return middleware.MetricsHandler(handlerFunc, limiter, metrics.EndPointCounter, metrics.ErrorCounter)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /task/login", wrap(middleware.LoginThrottle(loginBucket, h.LoginHandler)))
	mux.HandleFunc("POST /task/logout", wrap(h.LogoutHandler))
	mux.HandleFunc("POST /task/create", wrap(h.CreateTaskHandler))
	mux.HandleFunc("POST /task/update", wrap(h.UpdateTaskHandler))
	mux.HandleFunc("POST /task/complete", wrap(h.CompleteTaskHandler))
	mux.HandleFunc("POST /task/activate", wrap(h.ActivateTaskHandler))
	mux.HandleFunc("POST /task/delete", wrap(h.DeleteTaskHandler))
	mux.HandleFunc("POST /task/clearCompleted", wrap(h.ClearCompletedHandler))
	mux.HandleFunc("GET /task/getid/{id}", wrap(h.GetTaskHandler))
	mux.HandleFunc("GET /task/getAll", wrap(h.GetAllTasksHandler))
	mux.HandleFunc("GET /task/statistics", wrap(h.StatisticsHandler))

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	return middleware.RequestID(mux)
}
