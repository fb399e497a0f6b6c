// Package statistics reduces a list of tasks to the share of active and completed tasks.
//
// The data-access layer hands its result to FromLoad, or builds an Input with Data, Error
// or Absent directly, and Compute turns it into a Result for display. A failed load and a
// missing list both produce zero percentages, so the statistics view degrades to 0/0
// instead of showing an error.
package statistics

import (
	"fmt"

	"NotesWebService/models"
)

type inputKind int

const (
	kindInvalid inputKind = iota
	kindData
	kindError
	kindAbsent
)

// Input is what the data-access layer produced: a task list, a load error, or nothing.
// The zero Input is not a valid value and makes Compute panic.
type Input struct {
	kind  inputKind
	tasks []models.Task
	err   error
}

// Data wraps a loaded task list. An empty or nil list is still data.
func Data(tasks []models.Task) Input {
	return Input{kind: kindData, tasks: tasks}
}

// Error reports that the task list could not be loaded.
func Error(err error) Input {
	return Input{kind: kindError, err: err}
}

// Absent reports that there is no task list yet.
func Absent() Input {
	return Input{kind: kindAbsent}
}

// FromLoad converts the (tasks, err) pair returned by a repository call.
// A nil slice without an error is treated as Absent.
func FromLoad(tasks []models.Task, err error) Input {
	switch {
	case err != nil:
		return Error(err)
	case tasks == nil:
		return Absent()
	default:
		return Data(tasks)
	}
}

// Err returns the load error carried by an Error input, or nil.
func (in Input) Err() error {
	return in.err
}

// Result holds the percentages of active and completed tasks.
type Result struct {
	ActivePercent    float64 `json:"activeTasksPercent"`
	CompletedPercent float64 `json:"completedTasksPercent"`
}

// Compute returns the active and completed percentages of the input.
// Error, Absent and empty inputs give 0 for both values.
func Compute(in Input) Result {
	switch in.kind {
	case kindError, kindAbsent:
		return Result{}
	case kindData:
	default:
		panic(fmt.Sprintf("statistics: invalid input kind %d", in.kind))
	}

	total := len(in.tasks)
	if total == 0 {
		return Result{}
	}
	completed := 0
	for i := range in.tasks {
		if in.tasks[i].Completed {
			completed++
		}
	}
	active := total - completed

	return Result{
		ActivePercent:    100 * float64(active) / float64(total),
		CompletedPercent: 100 * float64(completed) / float64(total),
	}
}
