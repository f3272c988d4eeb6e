// Package toy provides a minimal, fully deterministic resource.Resource
// implementation with no relation to any real simulator. It exists so the
// script and scattershot packages can be tested and demonstrated without a
// real game binary: PyramidUpdate.hpp-style game physics are explicitly out
// of scope here.
package toy

import (
	"encoding/binary"
	"fmt"

	"github.com/jgcodes2020/sm64-tas-scripting/internal/resource"
)

const memSize = 16

// offsets maps the only two symbols this toy resource exposes:
// gControllerPads (written by the script engine each frame) and gPosition
// (an accumulated counter a Mutation/Fitness pair can read to make search
// decisions, standing in for real simulator state).
var offsets = map[string]int{
	"gControllerPads": 0,
	"gPosition":       4,
}

type snapshot struct {
	frame int64
	mem   [memSize]byte
}

// Resource is the toy simulator. Advance mixes the pending controller
// inputs into a running position counter; it has no physics.
type Resource struct {
	frame  int64
	mem    [memSize]byte
	saves  map[resource.SlotID]snapshot
	nextID resource.SlotID
}

// New returns a Resource positioned at frame 0 with a zeroed memory window.
func New() *Resource {
	return &Resource{saves: make(map[resource.SlotID]snapshot)}
}

// Advance implements resource.Resource.
func (r *Resource) Advance() {
	buttons := binary.LittleEndian.Uint16(r.mem[0:2])
	stickX := int8(r.mem[2])
	stickY := int8(r.mem[3])
	pos := int64(binary.LittleEndian.Uint64(r.mem[4:12]))
	pos += int64(buttons) + int64(stickX) + int64(stickY)
	binary.LittleEndian.PutUint64(r.mem[4:12], uint64(pos))
	r.frame++
}

// Save implements resource.Resource.
func (r *Resource) Save() (resource.SlotID, error) {
	id := r.nextID
	r.nextID++
	r.saves[id] = snapshot{frame: r.frame, mem: r.mem}
	return id, nil
}

// Load implements resource.Resource.
func (r *Resource) Load(id resource.SlotID) error {
	snap, ok := r.saves[id]
	if !ok {
		return fmt.Errorf("toy: unknown slot %d", id)
	}
	r.frame = snap.frame
	r.mem = snap.mem
	return nil
}

// Erase implements resource.Resource.
func (r *Resource) Erase(id resource.SlotID) {
	delete(r.saves, id)
}

// CurrentFrame implements resource.Resource.
func (r *Resource) CurrentFrame() int64 { return r.frame }

// Addr implements resource.Resource. It panics on an unknown symbol, since
// that is a programmer error, not a recoverable one.
func (r *Resource) Addr(symbol string, n int) []byte {
	off, ok := offsets[symbol]
	if !ok {
		panic("toy: unknown symbol " + symbol)
	}
	return r.mem[off : off+n]
}

// ShouldSave implements resource.Resource with a fixed threshold; a real
// simulator would weigh its own save/advance costs instead.
func (r *Resource) ShouldSave(estFutureAdvances int64) bool {
	return estFutureAdvances > 30
}

// ShouldLoad implements resource.Resource with a fixed threshold.
func (r *Resource) ShouldLoad(frameDelta int64) bool {
	return frameDelta > 30
}

// Position reads the accumulated position counter, the toy resource's only
// piece of observable "game state".
func (r *Resource) Position() int64 {
	return int64(binary.LittleEndian.Uint64(r.mem[4:12]))
}
