package analysis

import (
	"github.com/spigell/cv-recommender/internal/recommender"
)

// State is the externally observable aggregate of one controller. Callers
// must treat every field as read-only; all mutation goes through the
// controller operations.
type State struct {
	IsLoading   bool
	Progress    int
	CurrentStep string
	Result      *recommender.AnalysisResult
	// Error holds the human-readable failure message of the last cycle.
	// Result and Error are never both set.
	Error string
	// BackendHealthy stays nil until the first health probe resolves.
	BackendHealthy *bool
	Capabilities   map[string]bool
	// Version increases by one with every published change.
	Version uint64
}

func (s State) clone() State {
	copied := s
	if s.Capabilities != nil {
		copied.Capabilities = make(map[string]bool, len(s.Capabilities))
		for name, enabled := range s.Capabilities {
			copied.Capabilities[name] = enabled
		}
	}

	return copied
}

type subscriber struct {
	id int
	fn func(State)
}

// State returns a snapshot copy of the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state.clone()
}

// Subscribe registers fn to be invoked with a snapshot after every state
// change, in publish order. The returned function cancels the
// subscription.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.subs {
			if sub.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// publish applies mutate to the state under the lock and notifies
// subscribers with the resulting snapshot. notifyMu serializes
// notifications so overlapping operations cannot reorder them.
func (c *Controller) publish(mutate func(*State)) State {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	mutate(&c.state)
	c.state.Version++
	snapshot := c.state.clone()
	subs := make([]subscriber, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snapshot)
	}

	return snapshot
}
