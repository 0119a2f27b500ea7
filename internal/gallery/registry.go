package gallery

// Registry owns the sessionId → Session mapping for one room, plus a
// secondary index from userId/deviceId to sessionId for duplicate
// lookup. It is not safe for concurrent use; the owning room serializes
// access.
type Registry struct {
	sessions map[string]*Session
	order    []string
	byUser   map[string]string
	byDevice map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byUser:   make(map[string]string),
		byDevice: make(map[string]string),
	}
}

func (r *Registry) Insert(s *Session) {
	if _, ok := r.sessions[s.ID]; !ok {
		r.order = append(r.order, s.ID)
	}
	r.sessions[s.ID] = s
	if s.UserID != "" {
		r.byUser[s.UserID] = s.ID
	}
	if s.DeviceID != "" {
		r.byDevice[s.DeviceID] = s.ID
	}
}

func (r *Registry) Get(sessionID string) (*Session, bool) {
	s, ok := r.sessions[sessionID]
	return s, ok
}

// Remove deletes a session and its identity index entries. Removing an
// unknown session is a no-op.
func (r *Registry) Remove(sessionID string) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)
	for i, id := range r.order {
		if id == sessionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	// The index may already point at a newer session for the same
	// identity; only drop entries that still refer to this one.
	if s.UserID != "" && r.byUser[s.UserID] == sessionID {
		delete(r.byUser, s.UserID)
	}
	if s.DeviceID != "" && r.byDevice[s.DeviceID] == sessionID {
		delete(r.byDevice, s.DeviceID)
	}
}

// FindByIdentity returns the session holding either identity string.
// Empty identifiers never match.
func (r *Registry) FindByIdentity(userID, deviceID string) (string, bool) {
	if userID != "" {
		if id, ok := r.byUser[userID]; ok {
			return id, true
		}
	}
	if deviceID != "" {
		if id, ok := r.byDevice[deviceID]; ok {
			return id, true
		}
	}
	return "", false
}

// All returns sessions in insertion order.
func (r *Registry) All() []*Session {
	out := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id])
	}
	return out
}

func (r *Registry) Len() int { return len(r.sessions) }
