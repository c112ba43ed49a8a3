package service_test

import (
	"context"
	"sync"

	"github.com/openagora/agora/internal/adapter/inmem"
	"github.com/openagora/agora/internal/domain/card"
	"github.com/openagora/agora/internal/domain/task"
	"github.com/openagora/agora/internal/port/agentlink"
	"github.com/openagora/agora/internal/port/broadcast"
	"github.com/openagora/agora/internal/port/messagequeue"
)

// mockLink answers Invoke with a per-agent function and records every
// task it saw.
type mockLink struct {
	name       string
	card       card.Card
	resolveErr error
	invoke     func(ctx context.Context, t task.Task) (task.Result, error)

	mu    sync.Mutex
	tasks []task.Task
}

var _ agentlink.Link = (*mockLink)(nil)

func (l *mockLink) Resolve(_ context.Context) (card.Card, error) {
	if l.resolveErr != nil {
		return card.Card{}, l.resolveErr
	}
	return l.card, nil
}

func (l *mockLink) Invoke(ctx context.Context, t task.Task) (task.Result, error) {
	l.mu.Lock()
	l.tasks = append(l.tasks, t)
	l.mu.Unlock()
	if l.invoke == nil {
		return task.Result{Text: l.name + " handled: " + t.Text}, nil
	}
	return l.invoke(ctx, t)
}

func (l *mockLink) calls() []task.Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]task.Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

// mockDialer hands out mockLinks by agent name and records dial order.
type mockDialer struct {
	mu    sync.Mutex
	links map[string]*mockLink
	dials []string
}

var _ agentlink.Dialer = (*mockDialer)(nil)

func newMockDialer() *mockDialer {
	return &mockDialer{links: make(map[string]*mockLink)}
}

// stub registers a canned invoke behavior for an agent name and
// returns the link for later call assertions.
func (d *mockDialer) stub(name string, invoke func(ctx context.Context, t task.Task) (task.Result, error)) *mockLink {
	d.mu.Lock()
	defer d.mu.Unlock()
	l := &mockLink{name: name, invoke: invoke}
	d.links[name] = l
	return l
}

func (d *mockDialer) Dial(c card.Card) agentlink.Link {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, c.Name)
	if l, ok := d.links[c.Name]; ok {
		return l
	}
	l := &mockLink{name: c.Name, card: c}
	d.links[c.Name] = l
	return l
}

// totalInvokes counts invocations across every link.
func (d *mockDialer) totalInvokes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, l := range d.links {
		n += len(l.calls())
	}
	return n
}

// mockQueue records published messages.
type mockQueue struct {
	mu        sync.Mutex
	published []publishedMsg
}

type publishedMsg struct {
	subject string
	data    []byte
}

var _ messagequeue.Queue = (*mockQueue)(nil)

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, publishedMsg{subject: subject, data: data})
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *mockQueue) Drain() error      { return nil }
func (q *mockQueue) Close() error      { return nil }
func (q *mockQueue) IsConnected() bool { return true }

// subjects returns the published subjects in order.
func (q *mockQueue) subjects() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.published))
	for i, m := range q.published {
		out[i] = m.subject
	}
	return out
}

// mockBroadcaster records broadcast event types.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []string
}

var _ broadcast.Broadcaster = (*mockBroadcaster)(nil)

func (b *mockBroadcaster) BroadcastEvent(_ context.Context, eventType string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
}

func (b *mockBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	copy(out, b.events)
	return out
}

// testCard builds a valid card for the given name and skill tags.
func testCard(name string, tags ...string) card.Card {
	c := card.Card{
		Name:        name,
		Description: "test agent " + name,
		Endpoint:    "http://" + name + ".local",
		Version:     "1.0.0",
	}
	if len(tags) > 0 {
		c.Skills = []card.Skill{{
			ID:   name + "-skill",
			Name: name + " skill",
			Tags: tags,
		}}
	}
	return c
}

// testDirectory returns an in-memory directory seeded with cards.
func testDirectory(cards ...card.Card) *inmem.Directory {
	dir := inmem.NewDirectory()
	for _, c := range cards {
		if err := dir.Register(c); err != nil {
			panic(err)
		}
	}
	return dir
}
