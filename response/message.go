// Package response contains the JSON bodies written by the handlers.
package response

import (
	"encoding/json"
	"net/http"
)

// A struct type that represents a message with a status and body.
// Message has the following properties:
// - Status: The status of the message.
// - Body: The body of the message.
type Message struct {
	Status string
	Body   string
}

// Response carries a human readable result message.
type Response struct {
	Message string `json:"message"`
}

// ClearCompleted reports how many completed tasks were removed.
type ClearCompleted struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

// Token is returned by a successful login.
type Token struct {
	Token string `json:"token"`
}

// JSON writes v as a JSON body with the given status code.
func JSON(res http.ResponseWriter, status int, v interface{}) error {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	return json.NewEncoder(res).Encode(v)
}
