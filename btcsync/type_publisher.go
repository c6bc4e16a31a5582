package btcsync

import (
	"sync"
)

// PublisherService is a concurrent-safe service that
// could "Notify" channels of observers.
// Please "Register" observers via RegisterStatusObserver before Notify.
type PublisherService struct {
	StatusObservers []chan StatusChange
	mu              sync.Mutex

	done      chan struct{}
	closeOnce sync.Once
	pending   sync.WaitGroup
}

// NewPublisherService creates a new PublisherService
// Currently the observers are empty.
func NewPublisherService() *PublisherService {
	return &PublisherService{
		StatusObservers: make([]chan StatusChange, 0),
		done:            make(chan struct{}),
	}
}

// RegisterStatusObserver registers a new observer for status changes.
func (m *PublisherService) RegisterStatusObserver(observer chan StatusChange) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StatusObservers = append(m.StatusObservers, observer)
}

// NotifyStatus never blocks the tracker.
// Changes published after Close are dropped.
func (m *PublisherService) NotifyStatus(change StatusChange) {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		return
	default:
	}

	for _, observer := range m.StatusObservers {
		select {
		case observer <- change:
		default:
			// Handle the case where the observer's channel is full
			m.pending.Add(1)
			go func(obs chan StatusChange) {
				defer m.pending.Done()
				select {
				case obs <- change:
				case <-m.done:
				}
			}(observer)
		}
	}
}

// Close releases deliveries still waiting on a full observer channel
// and returns once they are gone.
func (m *PublisherService) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		close(m.done)
		m.mu.Unlock()
	})
	m.pending.Wait()
}
