package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID      int
	Name    string
	Score   *float64
	Active  bool
	Created time.Time
}

func f(v float64) *float64 { return &v }

var testCatalog = NewCatalog[row](
	Field[row]{Key: "id", Label: "ID", Type: TypeNumber, Value: func(r row) interface{} { return r.ID }, Compare: func(a, b row) int { return CompareInt(a.ID, b.ID) }},
	Field[row]{Key: "name", Value: func(r row) interface{} { return r.Name }, Compare: func(a, b row) int { return CompareString(a.Name, b.Name) }},
	Field[row]{Key: "average_score", Type: TypeNumber, Value: func(r row) interface{} { return r.Score }, Compare: func(a, b row) int { return CompareFloatPtr(a.Score, b.Score) }},
	Field[row]{Key: "active", Type: TypeBoolean, Value: func(r row) interface{} { return r.Active }},
	Field[row]{Key: "created_at", Type: TypeDate, Value: func(r row) interface{} { return r.Created }, Compare: func(a, b row) int { return CompareTime(a.Created, b.Created) }},
)

func sample() []row {
	return []row{
		{ID: 2, Name: "beta", Score: f(7)},
		{ID: 1, Name: "alpha", Score: nil},
		{ID: 3, Name: "gamma", Score: f(9)},
	}
}

func ids(rows []row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestProjectDefaultsToAllFieldsInCanonicalOrder(t *testing.T) {
	res := testCatalog.Project(sample(), nil, "")

	assert.Equal(t, []string{"id", "name", "average_score", "active", "created_at"}, res.Fields)
	require.Len(t, res.Columns, 5)
	assert.Equal(t, Column{Key: "name", Label: "Name", Type: TypeString, Sortable: true}, res.Columns[1])
	assert.Equal(t, "Average Score", res.Columns[2].Label)
	assert.False(t, res.Columns[3].Sortable)
	assert.Equal(t, TypeDate, res.Columns[4].Type)
	assert.Equal(t, []int{2, 1, 3}, ids(res.Rows))
	assert.Empty(t, res.AppliedSort)
}

func TestProjectDropsUnknownFields(t *testing.T) {
	res := testCatalog.Project(sample(), []string{"name", "password_hash", " id ", "name"}, "")

	assert.Equal(t, []string{"name", "id"}, res.Fields)
	for _, col := range res.Columns {
		assert.NotEqual(t, "password_hash", col.Key)
	}
	records := testCatalog.Records(res.Rows, res.Fields)
	require.Len(t, records, 3)
	assert.NotContains(t, records[0], "password_hash")
	assert.NotContains(t, records[0], "average_score")
}

func TestProjectOnlyUnknownFieldsFallsBackToAll(t *testing.T) {
	res := testCatalog.Project(sample(), []string{"nope"}, "")
	assert.Equal(t, testCatalog.Keys(), res.Fields)
}

func TestProjectSortsAscendingAndDescending(t *testing.T) {
	res := testCatalog.Project(sample(), nil, "name")
	assert.Equal(t, []int{1, 2, 3}, ids(res.Rows))
	assert.Equal(t, "name", res.AppliedSort)

	res = testCatalog.Project(sample(), nil, "-average_score")
	assert.Equal(t, []int{3, 2, 1}, ids(res.Rows))
	assert.Equal(t, "-average_score", res.AppliedSort)
}

func TestProjectIgnoresSortOutsideEffectiveFields(t *testing.T) {
	cases := []string{"name; DROP TABLE courses", "-unknown", "average_score", "active", "-"}
	for _, raw := range cases {
		res := testCatalog.Project(sample(), []string{"id", "name"}, raw)
		assert.Equal(t, []int{2, 1, 3}, ids(res.Rows), raw)
		assert.Empty(t, res.AppliedSort, raw)
	}
}

func TestSortableFlagFollowsAllowedSet(t *testing.T) {
	res := testCatalog.Project(sample(), []string{"active", "id"}, "")
	require.Len(t, res.Columns, 2)
	assert.False(t, res.Columns[0].Sortable)
	assert.True(t, res.Columns[1].Sortable)
}

func TestTitleLabel(t *testing.T) {
	assert.Equal(t, "Solved Tasks Count", TitleLabel("solved_tasks_count"))
	assert.Equal(t, "Id", TitleLabel("id"))
	assert.Equal(t, "", TitleLabel(""))
}

func TestNewCatalogPanicsOnDuplicate(t *testing.T) {
	assert.Panics(t, func() {
		NewCatalog[row](
			Field[row]{Key: "id", Value: func(r row) interface{} { return r.ID }},
			Field[row]{Key: "id", Value: func(r row) interface{} { return r.ID }},
		)
	})
}
