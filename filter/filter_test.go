package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataview-go/dataview/item"
)

func TestCompare_Passes(t *testing.T) {
	doc := item.Item{
		"category": item.String("tech"),
		"score":    item.Int(75),
		"ratio":    item.Float(0.5),
		"active":   item.Bool(true),
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "eq string match", filter: Eq("category", item.String("tech")), want: true},
		{name: "eq string no match", filter: Eq("category", item.String("sports")), want: false},
		{name: "eq cross numeric", filter: Eq("score", item.Float(75)), want: true},
		{name: "ne", filter: Ne("category", item.String("sports")), want: true},
		{name: "ne missing property fails", filter: Ne("missing", item.String("x")), want: false},
		{name: "gt", filter: Gt("score", item.Int(50)), want: true},
		{name: "gt false", filter: Gt("score", item.Int(80)), want: false},
		{name: "gt non numeric", filter: Gt("category", item.String("a")), want: false},
		{name: "gte equal", filter: Gte("score", item.Int(75)), want: true},
		{name: "lt", filter: Lt("ratio", item.Float(0.75)), want: true},
		{name: "lte equal", filter: Lte("ratio", item.Float(0.5)), want: true},
		{name: "in hit", filter: In("category", item.String("tech"), item.String("news")), want: true},
		{name: "in miss", filter: In("category", item.String("news")), want: false},
		{name: "contains", filter: Contains("category", "ec"), want: true},
		{name: "contains miss", filter: Contains("category", "xyz"), want: false},
		{name: "contains non string", filter: Contains("score", "7"), want: false},
		{name: "eq missing property", filter: Eq("missing", item.Null()), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Passes(doc))
		})
	}
}

func TestCompare_AppliesTo(t *testing.T) {
	f := Eq("category", item.String("tech"))
	assert.True(t, f.AppliesTo("category"))
	assert.False(t, f.AppliesTo("score"))
}

func TestCompare_KeyStable(t *testing.T) {
	a := Eq("category", item.String("tech"))
	b := Eq("category", item.String("tech"))
	c := Ne("category", item.String("tech"))

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestLogic(t *testing.T) {
	doc := item.Item{"a": item.Int(1), "b": item.Int(2)}

	and := NewAnd(Eq("a", item.Int(1)), Eq("b", item.Int(2)))
	assert.True(t, and.Passes(doc))
	assert.True(t, and.AppliesTo("b"))
	assert.False(t, and.AppliesTo("c"))

	or := NewOr(Eq("a", item.Int(9)), Eq("b", item.Int(2)))
	assert.True(t, or.Passes(doc))
	assert.False(t, NewOr().Passes(doc))

	not := NewNot(Eq("a", item.Int(1)))
	assert.False(t, not.Passes(doc))
	assert.True(t, not.AppliesTo("a"))

	assert.NotEqual(t, and.Key(), or.Key())
	assert.Equal(t, "not(cmp:a:eq:i:1)", not.Key())
}

func TestFunc(t *testing.T) {
	f := &Func{
		ID:         "score-above-10",
		Properties: []string{"score"},
		Fn: func(it item.Item) bool {
			v, ok := it["score"].AsInt64()
			return ok && v > 10
		},
	}

	assert.True(t, f.Passes(item.Item{"score": item.Int(11)}))
	assert.False(t, f.Passes(item.Item{"score": item.Int(9)}))
	assert.True(t, f.AppliesTo("score"))
	assert.False(t, f.AppliesTo("other"))

	unbounded := &Func{ID: "anything", Fn: func(item.Item) bool { return true }}
	assert.True(t, unbounded.AppliesTo("whatever"))
}

func TestSet_AddDeduplicates(t *testing.T) {
	s := NewSet()

	assert.True(t, s.Add(Eq("a", item.Int(1))))
	assert.False(t, s.Add(Eq("a", item.Int(1))))
	assert.True(t, s.Add(Eq("a", item.Int(2))))
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Add(nil))
}

func TestSet_RemoveByProperty(t *testing.T) {
	s := NewSet(
		Eq("a", item.Int(1)),
		Gt("b", item.Int(0)),
		Lt("a", item.Int(10)),
	)

	removed := s.RemoveByProperty("a")
	require.Len(t, removed, 2)
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.All()[0].AppliesTo("b"))

	assert.Empty(t, s.RemoveByProperty("missing"))
}

func TestSet_PassesAllInOrder(t *testing.T) {
	s := NewSet()
	doc := item.Item{"a": item.Int(5)}

	assert.True(t, s.PassesAll(doc), "empty set passes everything")

	s.Add(Gt("a", item.Int(1)))
	s.Add(Lt("a", item.Int(10)))
	assert.True(t, s.PassesAll(doc))

	s.Add(Eq("a", item.Int(6)))
	assert.False(t, s.PassesAll(doc))
}

func TestSet_Clear(t *testing.T) {
	s := NewSet(Eq("a", item.Int(1)), Eq("b", item.Int(2)))

	removed := s.Clear()
	assert.Len(t, removed, 2)
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Clear())
}

func TestSet_AppliesToAny(t *testing.T) {
	s := NewSet(Eq("a", item.Int(1)))

	assert.True(t, s.AppliesToAny([]string{"z", "a"}))
	assert.False(t, s.AppliesToAny([]string{"z"}))
	assert.False(t, s.AppliesToAny(nil))
}
