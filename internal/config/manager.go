package config

import "sync"

// Patch is a partial update of the bus options. Empty strings mean the
// field was absent from the Configure request; the two bool pointers keep
// their tri-state presence (unset / true / false).
type Patch struct {
	BrokerURL            string
	Namespace            string
	IdentityName         string
	IdentityID           string
	Username             string
	Password             string
	TLSCert              string
	TLSKey               string
	VerifyServerCert     *bool
	NotFailFastIfOffline *bool
}

// Manager guards the live bus options across concurrent readers and
// Configure-driven merges.
type Manager struct {
	mu   sync.RWMutex
	opts BusOptions
}

// NewManager seeds the manager with the boot-time options.
func NewManager(opts BusOptions) *Manager {
	return &Manager{opts: opts}
}

// Bus returns a copy of the live bus options.
func (m *Manager) Bus() BusOptions {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opts
}

// FailFastIfOffline reports the live fail-fast toggle.
func (m *Manager) FailFastIfOffline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opts.FailFastIfOffline
}

// Merge applies a patch to the live options. Absent fields keep their
// prior values. It returns the merged options and whether the agent
// identity (id or name) changed, which forces a full bus client
// replacement.
func (m *Manager) Merge(p Patch) (BusOptions, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.opts
	if p.BrokerURL != "" {
		m.opts.BrokerURL = p.BrokerURL
	}
	if p.Namespace != "" {
		m.opts.Namespace = p.Namespace
	}
	if p.IdentityName != "" {
		m.opts.IdentityName = p.IdentityName
	}
	if p.IdentityID != "" {
		m.opts.IdentityID = p.IdentityID
	}
	if p.Username != "" {
		m.opts.Username = p.Username
	}
	if p.Password != "" {
		m.opts.Password = p.Password
	}
	if p.TLSCert != "" {
		m.opts.TLSCert = p.TLSCert
	}
	if p.TLSKey != "" {
		m.opts.TLSKey = p.TLSKey
	}
	if p.VerifyServerCert != nil {
		m.opts.VerifyServerCert = *p.VerifyServerCert
	}
	if p.NotFailFastIfOffline != nil {
		m.opts.FailFastIfOffline = !*p.NotFailFastIfOffline
	}

	identityChanged := prev.IdentityID != m.opts.IdentityID || prev.IdentityName != m.opts.IdentityName
	return m.opts, identityChanged
}
