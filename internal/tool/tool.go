// Package tool implements the tool protocol adapter: a name-keyed
// registry of handlers for the opaque Tool/SelectTool payloads that
// ride the relay without it ever inspecting them (spec.md §4.3/§9).
package tool

import (
	"sync"

	"github.com/quantarax/netcanv/internal/wire"
)

// Tool is a single drawing tool's network-facing half: accumulating
// local state between ticks and applying state received from mates.
// Grounded on the original implementation's Tool trait's
// network_send/network_receive pair, stripped of everything
// UI/renderer-facing (icon, process_paint_canvas_input, ...) since
// this is a headless session model.
type Tool interface {
	// Name is the wire identifier used in Tool/SelectTool packets.
	Name() string

	// NetworkSend returns the bytes to broadcast this tick, if any.
	// The second return value is false when there is nothing to send.
	NetworkSend() ([]byte, bool)

	// NetworkReceive applies a payload received from a mate.
	NetworkReceive(sender wire.PeerID, payload []byte) error

	// PeerActivated is called when a mate selects this tool.
	PeerActivated(peer wire.PeerID)

	// PeerDeactivated is called when a mate switches away from this
	// tool or disconnects.
	PeerDeactivated(peer wire.PeerID)
}

// Registry is the name -> Tool dispatch table. Unknown tool names are
// dropped silently per spec.md §4.3, since a newer peer's custom tool
// is expected, deliberate extensibility, not an error.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register installs a tool under its own Name().
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns every registered tool's name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}
