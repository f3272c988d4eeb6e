// Package resource defines the contract a deterministic simulator must
// satisfy to drive the script engine, plus the slot manager that owns
// savestate handles on its behalf.
package resource

import "errors"

// SlotID identifies a live savestate inside a Resource. -1 is never a valid
// allocated id; it is reserved for the distinguished "start" handle.
type SlotID int64

// ErrSlotExhausted is returned by Resource.Save when the simulator has no
// room left for another savestate. It is fatal: callers should abort rather
// than retry.
var ErrSlotExhausted = errors.New("resource: slot exhausted")

// Resource is a deterministic per-instance simulator. Implementations must
// be fully deterministic given (initial save, input sequence); any
// non-determinism breaks the whole search. A Resource is owned by exactly
// one Script/goroutine and must never be shared across threads.
type Resource interface {
	// Advance steps the simulator by one frame, reading whatever input was
	// most recently written into the memory window Addr returns. Must not fail.
	Advance()

	// Save snapshots the full simulator state and returns a handle to it.
	// Fails only on slot exhaustion.
	Save() (SlotID, error)

	// Load restores the simulator to a previously saved state byte-exact.
	Load(id SlotID) error

	// Erase releases a slot. Load must not be called with id afterward.
	Erase(id SlotID)

	// CurrentFrame is the next frame index Advance will write.
	CurrentFrame() int64

	// Addr returns a process-local memory window for symbol, sized n bytes.
	// The returned slice aliases simulator memory: callers must not read it
	// concurrently with a call to Advance.
	Addr(symbol string, n int) []byte

	// ShouldSave is a cost-model hint: given the estimated number of future
	// advances before the next load, does creating a save now beat
	// re-advancing later.
	ShouldSave(estFutureAdvances int64) bool

	// ShouldLoad is a cost-model hint: given a forward frame delta, does
	// loading a save at the target beat advancing through it.
	ShouldLoad(frameDelta int64) bool
}
