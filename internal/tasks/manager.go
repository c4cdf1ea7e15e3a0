package tasks

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/pdxmph/leadbox/internal/crm"
	"github.com/pdxmph/leadbox/internal/directory"
	"github.com/pdxmph/leadbox/internal/logger"
)

// Backends tried, in order, when no backend is configured
var preferredBackends = []string{"taskwarrior"}

// queueSize bounds the follow-ups waiting for the backend, and the results
// waiting for a reader
const queueSize = 32

// Directory is what the manager needs to react to lead status changes
type Directory interface {
	Get(id string) (crm.Contact, bool)
	Subscribe(fn func(directory.Event)) func()
}

// FollowUpResult reports one follow-up created in the background by Watch
type FollowUpResult struct {
	ContactID string
	Status    crm.LeadStatus
	Err       error
}

// Manager handles task backend selection and creates follow-up tasks
// when leads change status.
type Manager struct {
	backend Backend
	logger  *slog.Logger
	results chan FollowUpResult
}

// NewManager creates a new task manager with the specified backend
// If backendName is empty, it tries common backends in order of preference
func NewManager(backendName string, log *slog.Logger) (*Manager, error) {
	if backendName != "" {
		backend, err := CreateBackend(backendName)
		if err != nil {
			return nil, fmt.Errorf("creating backend %s: %w", backendName, err)
		}
		return NewManagerWithBackend(backend, log), nil
	}

	backend, ok := defaultRegistry.FirstEnabled(preferredBackends...)
	if !ok {
		backend = NewNoopBackend()
	}
	return NewManagerWithBackend(backend, log), nil
}

// NewManagerWithBackend wraps an already constructed backend
func NewManagerWithBackend(backend Backend, log *slog.Logger) *Manager {
	return &Manager{
		backend: backend,
		logger:  logger.Named(log, "tasks").With(slog.String("backend", backend.Name())),
		results: make(chan FollowUpResult, queueSize),
	}
}

// Backend returns the current backend
func (m *Manager) Backend() Backend {
	return m.backend
}

// Name returns the name of the current backend
func (m *Manager) Name() string {
	return m.backend.Name()
}

// IsEnabled returns whether the current backend is enabled
func (m *Manager) IsEnabled() bool {
	return m.backend.IsEnabled()
}

// Results delivers the outcome of each follow-up created by Watch. Results
// nobody reads are dropped once the buffer is full.
func (m *Manager) Results() <-chan FollowUpResult {
	return m.results
}

// Watch creates a follow-up task whenever a lead in dir moves into a status
// that needs one. The backend runs on a worker goroutine, so SetStatus never
// waits on it; follow-ups for a directory are created in the order of their
// status changes. Task failures are logged and reported on Results; they
// never undo the status change.
//
// The returned func stops watching and waits for queued follow-ups.
func (m *Manager) Watch(dir Directory) func() {
	queue := make(chan Lead, queueSize)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for lead := range queue {
			m.deliver(lead, m.create(lead))
		}
	}()

	var mu sync.Mutex
	closed := false

	unsubscribe := dir.Subscribe(func(ev directory.Event) {
		if ev.Kind != directory.EventStatusChanged || ev.Transition == nil {
			return
		}
		if !NeedsFollowUp(ev.Transition.To) || !m.backend.IsEnabled() {
			return
		}
		c, ok := dir.Get(ev.ContactID)
		if !ok {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case queue <- leadFor(c):
		default:
			m.logger.Warn("follow-up queue full, task dropped", "contact", c.ID, "status", c.Status)
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			mu.Lock()
			closed = true
			close(queue)
			mu.Unlock()
			wg.Wait()
		})
	}
}

// CreateFollowUp creates a task for the contact's current status and waits
// for the backend
func (m *Manager) CreateFollowUp(c crm.Contact) error {
	if !m.backend.IsEnabled() {
		return nil
	}
	return m.create(leadFor(c))
}

func (m *Manager) create(lead Lead) error {
	if err := m.backend.CreateFollowUp(lead); err != nil {
		m.logger.Warn("follow-up task not created", "contact", lead.ContactID, "error", err)
		return fmt.Errorf("creating follow-up: %w", err)
	}
	m.logger.Info("follow-up task created", "contact", lead.ContactID, "status", lead.Status)
	return nil
}

func (m *Manager) deliver(lead Lead, err error) {
	select {
	case m.results <- FollowUpResult{ContactID: lead.ContactID, Status: lead.Status, Err: err}:
	default:
		m.logger.Debug("follow-up result dropped", "contact", lead.ContactID)
	}
}

func leadFor(c crm.Contact) Lead {
	return Lead{ContactID: c.ID, Name: c.Name, Phone: c.Phone, Status: c.Status}
}
