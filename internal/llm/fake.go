// internal/llm/fake.go
package llm

import (
	"context"
	"sync"

	"hr-assistant/internal/models"
)

// FakeClient is a scripted ChatClient for tests and the demo binary's
// offline mode. Responses are returned in order, the last one repeating.
type FakeClient struct {
	mu        sync.Mutex
	responses []ChatResult
	err       error
	calls     [][]models.Message
	lastOpts  SendOptions
}

func NewFakeClient(responses ...ChatResult) *FakeClient {
	if len(responses) == 0 {
		responses = []ChatResult{{Content: "ok"}}
	}
	return &FakeClient{responses: responses}
}

// Fail makes every subsequent Send return err.
func (f *FakeClient) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *FakeClient) Send(ctx context.Context, messages []models.Message, opts SendOptions) (*ChatResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	snapshot := make([]models.Message, len(messages))
	copy(snapshot, messages)
	f.calls = append(f.calls, snapshot)
	f.lastOpts = opts

	i := len(f.calls) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	resp := f.responses[i]
	return &resp, nil
}

// CallCount returns how many calls succeeded.
func (f *FakeClient) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// LastMessages returns the message payload of the most recent call.
func (f *FakeClient) LastMessages() []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

// LastOptions returns the options of the most recent call.
func (f *FakeClient) LastOptions() SendOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastOpts
}
