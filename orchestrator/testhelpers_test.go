package orchestrator

import (
	"context"
	"sync"
)

// fakePublisher records every PublishIntercepted call in order.
type fakePublisher struct {
	mu    sync.Mutex
	calls []publishCall
	err   error
}

type publishCall struct {
	topic   string
	payload []byte
}

func (p *fakePublisher) PublishIntercepted(_ context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, publishCall{topic: topic, payload: payload})
	return p.err
}

func (p *fakePublisher) snapshot() []publishCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishCall(nil), p.calls...)
}

// fakeTimerTrigger records every TriggerTimer call.
type fakeTimerTrigger struct {
	mu    sync.Mutex
	calls []timerCall
}

type timerCall struct {
	node      string
	cause     TimerInput
	timestamp int64
}

func (t *fakeTimerTrigger) TriggerTimer(_ context.Context, node string, cause TimerInput, timestamp int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, timerCall{node: node, cause: cause, timestamp: timestamp})
}

func (t *fakeTimerTrigger) snapshot() []timerCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]timerCall(nil), t.calls...)
}

// mustModelSet builds a ModelSet or fails the test immediately.
func mustModelSet(models ...NodeModel) *ModelSet {
	ms, err := NewModelSet(models)
	if err != nil {
		panic(err)
	}
	return ms
}

// node is a small builder for a StaticNodeModel with one cause/effects pair,
// used where a test needs several distinct single-input nodes.
func node(name string, cause Cause, effects ...Effect) *StaticNodeModel {
	return NewStaticNodeModel(name, []Cause{cause}, map[Cause][]Effect{cause: effects})
}
