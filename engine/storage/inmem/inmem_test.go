package inmem

import (
	"testing"

	"github.com/micromdm/nanointake/engine/storage"
	"github.com/micromdm/nanointake/engine/storage/test"
)

func TestInmemStorage(t *testing.T) {
	test.TestFlowStorage(t, func() storage.AllStorage { return New() })
}
