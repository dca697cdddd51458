package cart_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/velora/internal/cart"
)

var (
	tee   = cart.Product{ID: "p-1", Name: "Linen Tee", Image: "/img/tee.jpg", Category: "Tops", Price: 1000, Stock: 5}
	scarf = cart.Product{ID: "p-2", Name: "Silk Scarf", Image: "/img/scarf.jpg", Category: "Accessories", Price: 300, Stock: 2}
)

type failingStorage struct{}

func (failingStorage) Load() ([]cart.Line, error) { return nil, errors.New("disk on fire") }
func (failingStorage) Save([]cart.Line) error     { return errors.New("disk on fire") }

func TestStore_AddReplacesQuantity(t *testing.T) {
	store := cart.NewStore(cart.NewMemoryStorage())

	store.Add(tee, 1, "M")
	store.Add(tee, 4, "M")
	store.Add(tee, 2, "M")

	lines := store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "M", lines[0].Size)
}

func TestStore_AddKeepsOriginalPrice(t *testing.T) {
	store := cart.NewStore(cart.NewMemoryStorage())
	store.Add(tee, 1, "M")

	repriced := tee
	repriced.Price = 1500
	repriced.Name = "Linen Tee (new season)"
	store.Add(repriced, 3, "M")

	lines := store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 1000.0, lines[0].Price)
	assert.Equal(t, "Linen Tee", lines[0].Name)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, 3000.0, store.Quote().ItemsPrice)

	store.Add(repriced, 1, "L")
	lines = store.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 1500.0, lines[1].Price)
}

func TestStore_SizesAreDistinctLines(t *testing.T) {
	store := cart.NewStore(cart.NewMemoryStorage())

	store.Add(tee, 1, "M")
	store.Add(tee, 3, "L")
	store.Add(scarf, 1, "")

	assert.Len(t, store.Lines(), 3)
	assert.Equal(t, 5, store.Count())
}

func TestStore_QuantityBelowOneRemovesLine(t *testing.T) {
	store := cart.NewStore(cart.NewMemoryStorage())

	store.Add(tee, 2, "M")
	store.UpdateQuantity(tee.ID, 0, "M")
	assert.True(t, store.IsEmpty())

	store.Add(scarf, 0, "")
	assert.True(t, store.IsEmpty(), "adding zero must not create a line")
}

func TestStore_UpdateQuantity(t *testing.T) {
	store := cart.NewStore(cart.NewMemoryStorage())
	store.Add(tee, 1, "M")

	store.UpdateQuantity(tee.ID, 3, "M")
	store.UpdateQuantity(scarf.ID, 7, "")

	lines := store.Lines()
	require.Len(t, lines, 1, "updating an absent line must not create it")
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, tee.Price, lines[0].Price)
}

func TestStore_Remove(t *testing.T) {
	store := cart.NewStore(cart.NewMemoryStorage())
	store.Add(tee, 1, "M")
	store.Add(tee, 1, "L")

	store.Remove(tee.ID, "L")
	store.Remove("missing", "")

	lines := store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "M", lines[0].Size)
}

func TestStore_Clear(t *testing.T) {
	storage := cart.NewMemoryStorage()
	store := cart.NewStore(storage)
	store.Add(tee, 2, "")

	store.Clear()

	assert.Equal(t, 0, store.Count())
	assert.JSONEq(t, `[]`, string(storage.Raw()))
}

func TestStore_PersistenceRoundTrip(t *testing.T) {
	storage := cart.NewMemoryStorage()
	store := cart.NewStore(storage)
	store.Add(tee, 2, "M")
	store.Add(scarf, 1, "")

	restored := cart.NewStore(cart.NewMemoryStorageWith(storage.Raw()))

	if diff := cmp.Diff(store.Lines(), restored.Lines()); diff != "" {
		t.Errorf("restored cart mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_CorruptStorageDegradesToEmpty(t *testing.T) {
	store := cart.NewStore(cart.NewMemoryStorageWith([]byte(`{not json`)))
	assert.True(t, store.IsEmpty())

	store = cart.NewStore(failingStorage{})
	assert.True(t, store.IsEmpty())

	store.Add(tee, 1, "")
	assert.Equal(t, 1, store.Count(), "save failures must not block mutations")
}

func TestStore_Quote(t *testing.T) {
	store := cart.NewStore(cart.NewMemoryStorage())
	store.Add(tee, 2, "M")
	store.Add(scarf, 1, "")

	q := store.Quote()
	assert.Equal(t, float64(2300), q.ItemsPrice)
	assert.Equal(t, float64(0), q.ShippingPrice)
	assert.Equal(t, float64(2300), q.TotalPrice)
}

func TestSQLiteStorage_RoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cart.db")

	storage, err := cart.NewSQLiteStorage(dbPath)
	require.NoError(t, err)

	store := cart.NewStore(storage)
	store.Add(tee, 2, "M")
	store.Add(scarf, 1, "")
	want := store.Lines()
	require.NoError(t, storage.Close())

	reopened, err := cart.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	restored := cart.NewStore(reopened)
	if diff := cmp.Diff(want, restored.Lines()); diff != "" {
		t.Errorf("restored cart mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStorage_EmptyDatabase(t *testing.T) {
	storage, err := cart.NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "cart.db"))
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	lines, err := storage.Load()
	require.NoError(t, err)
	assert.Empty(t, lines)
}
