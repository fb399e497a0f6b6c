// Package models contains the data models for the application to be used in request hanlding.
package models

import "time"

// Filter values accepted by TaskFilter.Status.
const (
	FilterAll       = "all"
	FilterActive    = "active"
	FilterCompleted = "completed"
)

// Task represents a to-do item in the system.
// Task has the following properties:
// - Id: The unique identifier of the task.
// - Title: The title of the task.
// - Description: The description of the task, may be blank.
// - Completed: Whether the task is done. Tasks that are not completed are active.
// - AccountId: The account that owns the task, taken from the sign-in token.
// - CreatedAt: When the task was stored.
type Task struct {
	Id          int       `json:"id"`
	Title       string    `json:"title" validate:"required,min=1,max=100,fieldValidator"`
	Description string    `json:"description" validate:"max=1000"`
	Completed   bool      `json:"completed"`
	AccountId   string    `json:"accountId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TaskFilter narrows a task listing.
// An empty AccountId means every account and is only used for admin requests.
// Search matches a substring of the title or the description.
// Limit of zero disables pagination.
type TaskFilter struct {
	AccountId string
	Search    string
	Status    string `validate:"omitempty,filterValidator"`
	Limit     int    `validate:"gte=0"`
	Offset    int    `validate:"gte=0"`
}
