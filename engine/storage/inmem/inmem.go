// Package inmem implements a flow registry storage backend using a map-based key-value store.
package inmem

import (
	"github.com/micromdm/nanointake/engine/storage/kv"
	"github.com/micromdm/nanointake/utils/kv/kvmap"
)

// InMem is an in-memory flow registry storage backend.
type InMem struct {
	*kv.KV
}

func New() *InMem {
	return &InMem{KV: kv.New(
		kvmap.NewBucket(),
		kvmap.NewBucket(),
	)}
}
