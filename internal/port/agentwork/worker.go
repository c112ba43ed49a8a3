// Package agentwork defines how an agent host turns an incoming task
// into a result. The host wires exactly one Worker per process; the
// Registry exists so cmd binaries can select one by configured name.
package agentwork

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/openagora/agora/internal/domain/task"
)

// Worker executes one task. Implementations must treat the task as
// read-only and return either a result or an error, never both.
type Worker interface {
	Work(ctx context.Context, t task.Task) (task.Result, error)
}

// WorkerFunc adapts a function to the Worker interface.
type WorkerFunc func(ctx context.Context, t task.Task) (task.Result, error)

func (f WorkerFunc) Work(ctx context.Context, t task.Task) (task.Result, error) {
	return f(ctx, t)
}

// Registry maps configured worker names to instances.
type Registry struct {
	mu      sync.RWMutex
	workers map[string]Worker
}

func NewRegistry() *Registry {
	return &Registry{workers: make(map[string]Worker)}
}

// Register stores w under name, replacing any previous entry.
func (r *Registry) Register(name string, w Worker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workers[name] = w
}

// Lookup returns the worker registered under name.
func (r *Registry) Lookup(name string) (Worker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.workers[name]
	if !ok {
		return nil, fmt.Errorf("agentwork: unknown worker %q (have: %s)", name, strings.Join(r.names(), ", "))
	}
	return w, nil
}

// Names returns the registered worker names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	out := make([]string, 0, len(r.workers))
	for name := range r.workers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Echo answers every task with its own text. It is the default worker
// for smoke tests and freshly scaffolded agents.
type Echo struct {
	// Prefix, when set, is prepended to the echoed text.
	Prefix string
}

func (e Echo) Work(_ context.Context, t task.Task) (task.Result, error) {
	text := t.Text
	if e.Prefix != "" {
		text = e.Prefix + text
	}
	return task.Result{Text: text}, nil
}

var (
	_ Worker = (WorkerFunc)(nil)
	_ Worker = Echo{}
)
