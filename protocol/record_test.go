package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataset_IDs_Sorted(t *testing.T) {
	d := Dataset{
		"30":  {ID: "30"},
		"101": {ID: "101"},
		"2":   {ID: "2"},
	}
	assert.Equal(t, []string{"101", "2", "30"}, d.IDs())
}

func TestDataset_Merge_LastWriteWins(t *testing.T) {
	d := Dataset{
		"1": {ID: "1", Name: "Aave", SourceFile: "data.ts"},
		"2": {ID: "2", Name: "Compound", SourceFile: "data.ts"},
	}
	collisions := d.Merge(Dataset{
		"2": {ID: "2", Name: "Compound V3", SourceFile: "data2.ts"},
		"3": {ID: "3", Name: "Curve", SourceFile: "data2.ts"},
	})

	require.Len(t, d, 3)
	assert.Equal(t, "Compound V3", d["2"].Name)
	assert.Equal(t, "data2.ts", d["2"].SourceFile)

	require.Len(t, collisions, 1)
	assert.Equal(t, Collision{ID: "2", Shadowed: "data.ts", Winner: "data2.ts"}, collisions[0])
}

func TestDataset_Merge_NoCollisions(t *testing.T) {
	d := Dataset{"1": {ID: "1"}}
	collisions := d.Merge(Dataset{"2": {ID: "2"}})
	assert.Empty(t, collisions)
	assert.Len(t, d, 2)
}
