package taskwarrior

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/pdxmph/leadbox/internal/crm"
	"github.com/pdxmph/leadbox/internal/tasks"
)

// taskwarrior's export timestamp layout
const timeLayout = "20060102T150405Z"

// taskWarriorTask represents a TaskWarrior task in its native format
type taskWarriorTask struct {
	ID          int      `json:"id"`
	UUID        string   `json:"uuid"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	Entry       string   `json:"entry"`
	Due         string   `json:"due,omitempty"`
}

// Runner executes the task CLI and returns its combined output
type Runner func(args ...string) ([]byte, error)

// Backend implements the tasks.Backend interface for TaskWarrior
type Backend struct {
	enabled bool
	run     Runner
}

// NewBackend creates a new TaskWarrior backend
func NewBackend() tasks.Backend {
	return &Backend{
		enabled: isTaskWarriorAvailable(),
		run:     execTask,
	}
}

// NewBackendWithRunner creates an enabled backend that runs commands through run
func NewBackendWithRunner(run Runner) *Backend {
	return &Backend{enabled: true, run: run}
}

// Name returns the backend identifier
func (b *Backend) Name() string {
	return "taskwarrior"
}

// IsEnabled returns whether TaskWarrior integration is available
func (b *Backend) IsEnabled() bool {
	return b.enabled
}

// CreateFollowUp adds a pending task tagged with the lead's contact id
func (b *Backend) CreateFollowUp(lead tasks.Lead) error {
	if !b.enabled {
		return fmt.Errorf("TaskWarrior not available")
	}
	if lead.ContactID == "" {
		return fmt.Errorf("lead has no contact id")
	}

	args := []string{"add", tasks.Describe(lead), "+leadbox", "+" + contactTag(lead.ContactID)}
	if lead.Status == crm.StatusScheduled {
		args = append(args, "due:tomorrow")
	}

	if output, err := b.run(args...); err != nil {
		return fmt.Errorf("creating task: %w (output: %s)", err, string(output))
	}
	return nil
}

// ListFollowUps retrieves pending tasks for a contact
func (b *Backend) ListFollowUps(contactID string) ([]tasks.Task, error) {
	if !b.enabled {
		return nil, fmt.Errorf("TaskWarrior not available")
	}

	// Filter goes before the export command
	args := []string{"tag:" + contactTag(contactID), "status:pending", "export"}
	output, err := b.run(args...)
	if err != nil {
		// If no tasks found, return empty slice
		if strings.Contains(string(output), "No matching tasks") {
			return []tasks.Task{}, nil
		}
		return nil, fmt.Errorf("getting tasks with command 'task %s': %w", strings.Join(args, " "), err)
	}

	var twTasks []taskWarriorTask
	if len(output) > 0 {
		if err := json.Unmarshal(output, &twTasks); err != nil {
			return nil, fmt.Errorf("parsing task JSON: %w", err)
		}
	}

	result := make([]tasks.Task, len(twTasks))
	for i, tw := range twTasks {
		result[i] = convertToGenericTask(tw)
	}
	return result, nil
}

// contactTag is the tag linking a task to a contact
func contactTag(contactID string) string {
	return "lead_" + contactID
}

// convertToGenericTask converts a TaskWarrior task to the generic Task type
func convertToGenericTask(tw taskWarriorTask) tasks.Task {
	task := tasks.Task{
		ID:          tw.UUID, // Use UUID as the ID for better stability
		Description: tw.Description,
		Status:      tw.Status,
		Tags:        tw.Tags,
	}

	if t, err := time.Parse(timeLayout, tw.Entry); err == nil {
		task.Created = t
	}
	if tw.Due != "" {
		if t, err := time.Parse(timeLayout, tw.Due); err == nil {
			task.Due = &t
		}
	}

	return task
}

func execTask(args ...string) ([]byte, error) {
	return exec.Command("task", args...).CombinedOutput()
}

// isTaskWarriorAvailable checks if TaskWarrior is installed and configured
func isTaskWarriorAvailable() bool {
	return exec.Command("task", "version").Run() == nil
}

// Register the TaskWarrior backend
func init() {
	tasks.Register("taskwarrior", func() tasks.Backend { return NewBackend() })
}
