// Package middleware wraps handlers with rate limiting, login throttling, request ids and metrics.
package middleware

import (
	"context"
	"net/http"

	"NotesWebService/response"

	"github.com/google/uuid"
	"github.com/juju/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the id of a request in both directions.
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// A function type that represents a handler function with metrics.
type HandlerFuncWithMetrics func(http.ResponseWriter, *http.Request, *prometheus.CounterVec, *prometheus.CounterVec)

// RateLimiter is a middleware function that implements rate limiting for HTTP requests.
// If the request is not allowed, it returns a JSON response with an error message and HTTP status code 429 (Too Many Requests).
func RateLimiter(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if !limiter.Allow() {
			tooManyRequests(res, "The API is at capacity, try again later.")
			return
		}
		next.ServeHTTP(res, req)
	})
}

const loginEndpoint = "/task/login"

// LoginThrottle limits sign-in attempts with a token bucket shared by all clients.
// A rejected attempt is counted as a call and an error of the login endpoint.
func LoginThrottle(bucket *ratelimit.Bucket, next HandlerFuncWithMetrics) HandlerFuncWithMetrics {
	return func(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
		if bucket.TakeAvailable(1) == 0 {
			endPointCounter.WithLabelValues(loginEndpoint).Inc()
			errorCounter.WithLabelValues(loginEndpoint).Inc()
			tooManyRequests(res, "Too many login attempts, try again later.")
			return
		}
		next(res, req, endPointCounter, errorCounter)
	}
}

// MetricsHandler is a middleware function that wraps the provided handler function
// with metrics collection and rate limiting capabilities.
// It takes in a handler function, the limiter and Prometheus counter vectors for endpoint and error metrics,
// and returns an http.HandlerFunc.
func MetricsHandler(handlerFunc HandlerFuncWithMetrics, limiter *rate.Limiter, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		RateLimiter(limiter, http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			handlerFunc(res, req, endPointCounter, errorCounter)
		})).ServeHTTP(res, req)
	}
}

// RequestID assigns every request an id, keeping one sent by the client.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		res.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(req.Context(), requestIDKey{}, id)
		next.ServeHTTP(res, req.WithContext(ctx))
	})
}

// RequestIDFromContext returns the id stored by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func tooManyRequests(res http.ResponseWriter, body string) {
	message := response.Message{
		Status: "Request Failed",
		Body:   body,
	}
	response.JSON(res, http.StatusTooManyRequests, &message)
}
