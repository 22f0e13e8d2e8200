// Package keygate decides whether a usable generative-service credential
// is present before any generation call is attempted. It models
// availability as one tagged state instead of independent flags, so
// impossible combinations (loading while key-missing, for example)
// cannot be represented.
package keygate

import (
	"context"
	"errors"
	"sync"
)

// State is the credential availability state.
type State string

const (
	StateUnknown     State = "unknown"
	StateAvailable   State = "available"
	StateUnavailable State = "unavailable"
	StatePending     State = "pending"
	StateError       State = "error"
)

// placeholders are configuration values treated as "no credential".
// Build pipelines that inline missing env vars produce the literal
// strings "undefined" and "null".
var placeholders = map[string]bool{
	"":          true,
	"undefined": true,
	"null":      true,
}

// ErrNoBridge is returned by RequestConnect when the host exposes no
// credential-selection dialog. The caller should show configuration
// instructions instead.
var ErrNoBridge = errors.New("no credential selection dialog in this host: set TRIAMSOB_GEMINI_API_KEY or GEMINI_API_KEY")

// Bridge is the optional host capability for credential selection.
// Both calls may suspend on user interaction; neither is retried.
type Bridge interface {
	// HasCredential reports whether a credential has been selected
	// through this host's dialog.
	HasCredential(ctx context.Context) (bool, error)

	// OpenSelector opens the host's credential selection dialog.
	// A nil return implies the user completed the dialog.
	OpenSelector(ctx context.Context) error
}

// Gate tracks credential availability for one deployment.
type Gate struct {
	mu         sync.Mutex
	state      State
	detail     string
	credential string
	bridge     Bridge
}

// New creates a Gate over a statically configured credential and an
// optional host bridge (nil when the host has none).
func New(credential string, bridge Bridge) *Gate {
	return &Gate{
		state:      StateUnknown,
		credential: credential,
		bridge:     bridge,
	}
}

// State returns the current state and its diagnostic detail.
func (g *Gate) State() (State, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.detail
}

// Credential returns the statically configured credential, or "" when
// it is absent or a placeholder.
func (g *Gate) Credential() string {
	if placeholders[g.credential] {
		return ""
	}
	return g.credential
}

// CheckAvailability resolves the gate to Available or Unavailable
// without making a generation call. A usable static credential wins;
// otherwise the host bridge is consulted. A bridge error, or its
// absence, downgrades to Unavailable. A recorded rejection is sticky:
// the configured credential is already known bad, so re-probing cannot
// clear the obstruction; only RequestConnect can.
func (g *Gate) CheckAvailability(ctx context.Context) State {
	if s, _ := g.State(); s == StateError {
		return s
	}

	if g.Credential() != "" {
		g.set(StateAvailable, "")
		return StateAvailable
	}

	if g.bridge == nil {
		g.set(StateUnavailable, "")
		return StateUnavailable
	}

	g.set(StatePending, "")
	ok, err := g.bridge.HasCredential(ctx)
	if err != nil || !ok {
		g.set(StateUnavailable, "")
		return StateUnavailable
	}

	g.set(StateAvailable, "")
	return StateAvailable
}

// RequestConnect opens the host's credential dialog. On normal return
// the gate optimistically becomes Available: there is no synchronous
// way to confirm the new credential reached the active client, so the
// dialog's completion is treated as proof of success and correctness
// is re-validated lazily by the next service call (a rejection there
// flips the gate back through MarkRejected).
func (g *Gate) RequestConnect(ctx context.Context) error {
	if g.bridge == nil {
		return ErrNoBridge
	}

	g.set(StatePending, "")
	if err := g.bridge.OpenSelector(ctx); err != nil {
		g.set(StateUnavailable, err.Error())
		return err
	}

	g.set(StateAvailable, "")
	return nil
}

// MarkRejected records that the service refused the credential. Called
// by the serving layer when a call classifies as credential-rejected.
func (g *Gate) MarkRejected(detail string) {
	g.set(StateError, detail)
}

func (g *Gate) set(s State, detail string) {
	g.mu.Lock()
	g.state = s
	g.detail = detail
	g.mu.Unlock()
}
