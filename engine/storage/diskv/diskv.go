// Package diskv implements a flow registry storage backend using the diskv key-value store.
package diskv

import (
	"path/filepath"

	"github.com/micromdm/nanointake/engine/storage/kv"
	"github.com/micromdm/nanointake/utils/kv/kvdiskv"
)

// Diskv is a a diskv-backed flow registry storage backend.
type Diskv struct {
	*kv.KV
}

func New(path string) *Diskv {
	return &Diskv{KV: kv.New(
		kvdiskv.NewFlatBucket(filepath.Join(path, "engine", "flow")),
		kvdiskv.NewFlatBucket(filepath.Join(path, "engine", "session")),
	)}
}
