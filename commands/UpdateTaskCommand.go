package commands

// UpdateTaskCommand represents a command to update a task.
// Fields left out of the request body keep their stored value.
type UpdateTaskCommand struct {
	Id          int     `json:"id" validate:"required,gt=0"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}
