package tool

import (
	"sync"
	"time"
)

// InvokeObservation captures one dispatched invocation outcome.
type InvokeObservation struct {
	Tool      string
	Transport string
	Duration  time.Duration
	Success   bool
	ErrorKind string
}

// Observer receives invocation-level observability events.
type Observer interface {
	ObserveInvoke(observation InvokeObservation)
}

type noopObserver struct{}

func (noopObserver) ObserveInvoke(InvokeObservation) {}

var (
	observerMu     sync.RWMutex
	activeObserver Observer = noopObserver{}
)

// SetObserver sets the process-wide invocation observer. Passing nil
// restores the no-op observer.
func SetObserver(observer Observer) {
	observerMu.Lock()
	defer observerMu.Unlock()
	if observer == nil {
		activeObserver = noopObserver{}
		return
	}
	activeObserver = observer
}

// EmitInvokeObservation delivers an observation to the active observer.
func EmitInvokeObservation(observation InvokeObservation) {
	observerMu.RLock()
	observer := activeObserver
	observerMu.RUnlock()
	observer.ObserveInvoke(observation)
}
