package commands

// TaskStatusCommand represents a command to mark a task as completed or active.
type TaskStatusCommand struct {
	Id int `json:"id" validate:"required,gt=0"`
}
