package memory_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	contract "github.com/aretw0/arbor/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
)

func TestStateStore_Contract(t *testing.T) {
	contract.RunStateStoreContract(t, func() ports.RouterStateStore {
		return memory.NewStateStore(0)
	})
}

func TestStateStore_HistoryBound(t *testing.T) {
	store := memory.NewStateStore(2)
	for i := 1; i <= 4; i++ {
		store.SetState(map[string]domain.RouterState{"s": {Visible: true, Order: i}})
	}

	snap := store.Getter("s")()
	assert.Equal(t, 4, snap.Current.Order)
	assert.Len(t, snap.Historical, 2)
	assert.Equal(t, 3, snap.Historical[0].Order)
	assert.Equal(t, 2, snap.Historical[1].Order)
}

func TestStateStore_EqualStateKeepsHistory(t *testing.T) {
	store := memory.NewStateStore(0)
	store.SetState(map[string]domain.RouterState{"a": {Visible: true}})
	store.SetState(map[string]domain.RouterState{"a": {Visible: false}})
	store.SetState(map[string]domain.RouterState{"a": {Visible: false}})

	snap := store.Getter("a")()
	assert.Len(t, snap.Historical, 1)
	assert.True(t, snap.Historical[0].Visible)
}

func TestStateStore_DropsRemovedRouters(t *testing.T) {
	store := memory.NewStateStore(0)
	store.SetState(map[string]domain.RouterState{"a": {}, "b": {}})
	store.SetState(map[string]domain.RouterState{"a": {}})

	assert.Len(t, store.Snapshot(), 1)
	assert.Equal(t, domain.RouterSnapshot{}, store.Getter("b")())
}
