// Package im defines the boundary between the workflow engine and
// instant-messaging platform adapters. Adapter implementations (protocol
// clients, webhook servers) live in external plugins; the engine only sees
// the interfaces declared here.
package im

import (
	"context"
	"fmt"
	"sync"

	"github.com/BaSui01/botflow/types"
)

// Adapter is a connected IM platform instance capable of delivering replies.
type Adapter interface {
	// Name returns the configured instance name, unique within a Manager.
	Name() string
	// SendMessage delivers a reply to the conversation the message came from.
	SendMessage(ctx context.Context, msg *types.Message, content string) error
}

// Manager tracks named adapter instances for the lifetime of the process.
type Manager struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewManager creates an empty adapter manager.
func NewManager() *Manager {
	return &Manager{adapters: make(map[string]Adapter)}
}

// Register adds an adapter instance under its name.
// Registering a duplicate name is an error.
func (m *Manager) Register(adapter Adapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := adapter.Name()
	if _, exists := m.adapters[name]; exists {
		return fmt.Errorf("adapter instance already registered: %s", name)
	}
	m.adapters[name] = adapter
	return nil
}

// Get retrieves an adapter instance by name.
func (m *Manager) Get(name string) (Adapter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	adapter, exists := m.adapters[name]
	return adapter, exists
}

// Names returns the registered instance names.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.adapters))
	for name := range m.adapters {
		names = append(names, name)
	}
	return names
}
