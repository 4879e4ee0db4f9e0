package services

import "sync"

// ConnectionRegistry is an in-memory bidirectional index of live channel
// connections to screen identities. A screen may hold more than one
// simultaneous connection (reconnect races); it is online while it has at
// least one. State is not persisted: a restart empties the registry and
// screens re-announce by reconnecting.
type ConnectionRegistry struct {
	mu sync.Mutex

	// connectionID -> identity
	connToIdentity map[string]string
	// identity -> set of connection ids
	identityToConns map[string]map[string]struct{}
}

// NewConnectionRegistry creates an empty registry
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		connToIdentity:  make(map[string]string),
		identityToConns: make(map[string]map[string]struct{}),
	}
}

// AddConnection registers a connection for an identity. The add-to-set-or-
// create-set step is atomic under the registry lock so it cannot race a
// concurrent remove into a lost connection id.
func (r *ConnectionRegistry) AddConnection(identity, connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connToIdentity[connectionID] = identity
	conns, ok := r.identityToConns[identity]
	if !ok {
		conns = make(map[string]struct{})
		r.identityToConns[identity] = conns
	}
	conns[connectionID] = struct{}{}
}

// RemoveConnection removes a single connection, looked up by connection id.
// It returns the owning identity and whether that identity now has zero
// connections left (the signal to flip the screen offline). Unknown
// connection ids return ("", false).
func (r *ConnectionRegistry) RemoveConnection(connectionID string) (identity string, wentOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.connToIdentity[connectionID]
	if !ok {
		return "", false
	}
	delete(r.connToIdentity, connectionID)

	conns, ok := r.identityToConns[identity]
	if !ok {
		return identity, true
	}
	delete(conns, connectionID)
	if len(conns) == 0 {
		delete(r.identityToConns, identity)
		return identity, true
	}
	return identity, false
}

// OnlineCount returns the number of identities with at least one connection
func (r *ConnectionRegistry) OnlineCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.identityToConns)
}

// IsOnline reports whether the identity holds at least one connection
func (r *ConnectionRegistry) IsOnline(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.identityToConns[identity]
	return ok
}

// ConnectedIdentities returns a snapshot of all online identities
func (r *ConnectionRegistry) ConnectedIdentities() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	identities := make([]string, 0, len(r.identityToConns))
	for identity := range r.identityToConns {
		identities = append(identities, identity)
	}
	return identities
}
