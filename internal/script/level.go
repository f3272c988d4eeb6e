package script

import (
	"github.com/jgcodes2020/sm64-tas-scripting/internal/orderedmap"
	"github.com/jgcodes2020/sm64-tas-scripting/internal/resource"
)

// level is one ad-hoc stack frame: §3's "Script node" fields for a single
// ad-hoc level L. diff[L] lives inside status.Diff, matching the original's
// BaseStatus[adhocLevel].m64Diff.
type level struct {
	saveBank     orderedmap.Map[*resource.Handle]
	saveCache    orderedmap.Map[SaveMetadata]
	loadTracker  orderedmap.Map[struct{}]
	frameCounter orderedmap.Map[uint64]
	inputsCache  orderedmap.Map[InputsMetadata]
	status       Status
}

func newLevel() *level {
	return &level{status: *newStatus()}
}
