package places

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "eiffel tower", NormalizeID("Eiffel Tower"))
	assert.Equal(t, "eiffel tower", NormalizeID("  EIFFEL   TOWER "))
	assert.Equal(t, "sagrada familia", NormalizeID("Sagrada Família"))
	assert.Equal(t, "champs-elysees", NormalizeID("Champs-Élysées"))
	assert.Empty(t, NormalizeID("   "))
}

func TestMergeGeoPrecedence(t *testing.T) {
	geo := []Record{
		{ID: "louvre", Name: "Louvre", Lat: 48.8606, Lon: 2.3376, Source: SourceGeo},
		{ID: "eiffel tower", Name: "Eiffel Tower", Lat: 48.8584, Lon: 2.2945, Source: SourceGeo},
	}
	generated := []Record{
		{ID: "eiffel tower", Name: "Eiffel Tower", Lat: 48.85, Lon: 2.35, Source: SourceGenerative},
		{ID: "notre-dame", Name: "Notre-Dame", Lat: 48.85, Lon: 2.35, Source: SourceGenerative},
	}

	merged := Merge(geo, generated)
	require.Len(t, merged, 3)

	// Geographic records first, in order, with verified coordinates kept.
	assert.Equal(t, "louvre", merged[0].ID)
	assert.Equal(t, "eiffel tower", merged[1].ID)
	assert.Equal(t, SourceGeo, merged[1].Source)
	assert.InDelta(t, 48.8584, merged[1].Lat, 1e-9)

	// The colliding generative record is dropped, the unique one appended.
	assert.Equal(t, "notre-dame", merged[2].ID)
	assert.Equal(t, SourceGenerative, merged[2].Source)
}

func TestMergeDerivesMissingIDs(t *testing.T) {
	geo := []Record{{Name: "Sagrada Família"}}
	generated := []Record{{Name: "Sagrada Familia"}, {Name: "Park Güell"}}

	merged := Merge(geo, generated)
	require.Len(t, merged, 2)
	assert.Equal(t, "sagrada familia", merged[0].ID)
	assert.Equal(t, SourceGeo, merged[0].Source)
	assert.Equal(t, "park guell", merged[1].ID)
}

func TestMergeCollapsesInPoolDuplicates(t *testing.T) {
	geo := []Record{
		{ID: "louvre", Name: "Louvre"},
		{ID: "louvre", Name: "Louvre Museum"},
	}

	merged := Merge(geo, nil)
	require.Len(t, merged, 1)
	assert.Equal(t, "Louvre", merged[0].Name)
}

func TestMergeSingleSource(t *testing.T) {
	generated := []Record{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
	}

	merged := Merge(nil, generated)
	require.Len(t, merged, 2)
	assert.Equal(t, SourceGenerative, merged[0].Source)

	assert.Empty(t, Merge(nil, nil))
}

func pool(n int) []Record {
	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		id := string(rune('a' + i))
		records = append(records, Record{ID: id, Name: id})
	}
	return records
}

func TestSelectBatchRotation(t *testing.T) {
	p := pool(20)

	first, exhausted := SelectBatch(p, nil, 8)
	require.Len(t, first, 8)
	assert.False(t, exhausted)

	shown := IDs(first)
	second, exhausted := SelectBatch(p, shown, 8)
	require.Len(t, second, 8)
	assert.False(t, exhausted)

	shown = append(shown, IDs(second)...)
	third, exhausted := SelectBatch(p, shown, 8)
	require.Len(t, third, 4)
	assert.True(t, exhausted)

	// The three batches are disjoint and cover the pool.
	all := append(append(IDs(first), IDs(second)...), IDs(third)...)
	seen := make(map[string]struct{})
	for _, id := range all {
		_, dup := seen[id]
		assert.False(t, dup, "id %s repeated", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 20)
}

func TestSelectBatchDeterministic(t *testing.T) {
	p := pool(12)
	shown := []string{"a", "c"}

	b1, e1 := SelectBatch(p, shown, 8)
	b2, e2 := SelectBatch(p, shown, 8)
	assert.Equal(t, b1, b2)
	assert.Equal(t, e1, e2)

	// Pool order is preserved.
	assert.Equal(t, []string{"b", "d", "e", "f", "g", "h", "i", "j"}, IDs(b1))
	assert.False(t, e1)
}

func TestSelectBatchAllShown(t *testing.T) {
	p := pool(5)

	batch, exhausted := SelectBatch(p, IDs(p), 8)
	assert.Empty(t, batch)
	assert.True(t, exhausted)
}

func TestSelectBatchEmptyPool(t *testing.T) {
	batch, exhausted := SelectBatch(nil, nil, 8)
	assert.Empty(t, batch)
	assert.True(t, exhausted)
}

func TestSelectBatchDefaultSize(t *testing.T) {
	p := pool(20)

	batch, exhausted := SelectBatch(p, nil, 0)
	assert.Len(t, batch, DefaultBatchSize)
	assert.False(t, exhausted)
}

func TestSelectBatchIgnoresUnknownShownIDs(t *testing.T) {
	p := pool(10)

	batch, exhausted := SelectBatch(p, []string{"zz", "yy"}, 8)
	assert.Len(t, batch, 8)
	assert.False(t, exhausted)
}
