package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/car-rental/internal/model"
)

func sampleEntries() []model.CartEntry {
	return []model.CartEntry{
		{Kind: model.CartEntryDated, CarID: 1, CarName: "Golf", TotalCents: 9000},
		{Kind: model.CartEntryQuick, CarID: 2, CarName: "Civic", TotalCents: 4500, PerDayCents: 4500},
		{Kind: model.CartEntryDated, CarID: 3, CarName: "Model 3", TotalCents: 21000},
	}
}

func TestRemoveAt(t *testing.T) {
	entries := sampleEntries()

	removed, rest, err := removeAt(entries, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), removed.CarID)
	// Remaining entries keep their relative order.
	require.Len(t, rest, 2)
	assert.Equal(t, uint64(1), rest[0].CarID)
	assert.Equal(t, uint64(3), rest[1].CarID)
	// The input slice is not mutated.
	assert.Len(t, entries, 3)
}

func TestRemoveAtBounds(t *testing.T) {
	entries := sampleEntries()

	_, _, err := removeAt(entries, -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, _, err = removeAt(entries, len(entries))
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, _, err = removeAt(nil, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestTotal(t *testing.T) {
	assert.Equal(t, uint64(0), Total(nil))
	assert.Equal(t, uint64(34500), Total(sampleEntries()))
}
