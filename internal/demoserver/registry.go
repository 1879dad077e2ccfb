package demoserver

import "sync"

// Client is one subscriber's outbound channel: a closure the registry
// calls to push a message, independent of whatever transport
// (websocket, in this case) actually owns the connection.
type Client struct {
	Send func(kind string, payload any) error
}

// LiveQuery is one named query with a live set of subscribers; every
// poll tick re-executes the query and broadcasts the full result to
// every subscriber as a snapshot, rather than a row-level diff.
type LiveQuery struct {
	mu      sync.RWMutex
	Name    string
	clients map[*Client]struct{}
}

func newLiveQuery(name string) *LiveQuery {
	return &LiveQuery{Name: name, clients: make(map[*Client]struct{})}
}

func (lq *LiveQuery) addClient(c *Client) {
	lq.mu.Lock()
	defer lq.mu.Unlock()
	lq.clients[c] = struct{}{}
}

func (lq *LiveQuery) removeClient(c *Client) {
	lq.mu.Lock()
	defer lq.mu.Unlock()
	delete(lq.clients, c)
}

func (lq *LiveQuery) clientCount() int {
	lq.mu.RLock()
	defer lq.mu.RUnlock()
	return len(lq.clients)
}

// broadcast pushes payload to every subscriber, logging nothing itself
// -- a failed Send does not remove that client; every client whose Send
// failed is returned, and the caller decides whether a failure also
// means "unsubscribe".
func (lq *LiveQuery) broadcast(kind string, payload any) []*Client {
	lq.mu.RLock()
	defer lq.mu.RUnlock()
	var failed []*Client
	for c := range lq.clients {
		if err := c.Send(kind, payload); err != nil {
			failed = append(failed, c)
		}
	}
	return failed
}

// Registry keys live subscriptions by pkg/dbquery.Library query name
// rather than raw SQL text: a query's live subscribers are looked up
// by the same name the Library compiles it under.
type Registry struct {
	mu   sync.RWMutex
	live map[string]*LiveQuery
}

func NewRegistry() *Registry {
	return &Registry{live: make(map[string]*LiveQuery)}
}

// Subscribe registers c as a listener on name, creating the LiveQuery
// on first subscriber.
func (r *Registry) Subscribe(name string, c *Client) *LiveQuery {
	r.mu.Lock()
	lq, ok := r.live[name]
	if !ok {
		lq = newLiveQuery(name)
		r.live[name] = lq
	}
	r.mu.Unlock()
	lq.addClient(c)
	return lq
}

// Unsubscribe removes c from name's subscriber set, if present.
func (r *Registry) Unsubscribe(name string, c *Client) {
	r.mu.RLock()
	lq, ok := r.live[name]
	r.mu.RUnlock()
	if !ok {
		return
	}
	lq.removeClient(c)
}

// ForEach calls fn with every currently-registered LiveQuery. Used by
// the poll loop to re-execute and broadcast each one in turn.
func (r *Registry) ForEach(fn func(*LiveQuery)) {
	r.mu.RLock()
	snapshot := make([]*LiveQuery, 0, len(r.live))
	for _, lq := range r.live {
		snapshot = append(snapshot, lq)
	}
	r.mu.RUnlock()
	for _, lq := range snapshot {
		fn(lq)
	}
}

// CleanupOrphans drops every LiveQuery with zero subscribers.
func (r *Registry) CleanupOrphans() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, lq := range r.live {
		if lq.clientCount() == 0 {
			delete(r.live, name)
		}
	}
}

// Size reports the number of live-query subscriptions currently held.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.live)
}
