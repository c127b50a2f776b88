package invindex

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataview-go/dataview/filter"
	"github.com/dataview-go/dataview/item"
)

func TestIndex_SetGetDelete(t *testing.T) {
	x := New[string]()

	x.Set("a", item.Item{"category": item.String("tech")})
	x.Set("b", item.Item{"category": item.String("news")})

	it, ok := x.Get("a")
	require.True(t, ok)
	assert.Equal(t, "tech", it["category"].StringValue())

	assert.Equal(t, 2, x.Len())

	x.Delete("a")
	_, ok = x.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, x.Len())

	// Deleting twice is harmless.
	x.Delete("a")
	assert.Equal(t, 1, x.Len())
}

func TestIndex_SetReplacesPostings(t *testing.T) {
	x := New[string]()

	x.Set("a", item.Item{"category": item.String("tech")})
	x.Set("a", item.Item{"category": item.String("news")})

	fs := filter.NewSet(filter.Eq("category", item.String("tech")))
	bm := x.Compile(fs)
	require.NotNil(t, bm)
	assert.True(t, bm.IsEmpty(), "old posting must be gone")

	fs = filter.NewSet(filter.Eq("category", item.String("news")))
	bm = x.Compile(fs)
	require.NotNil(t, bm)
	assert.Equal(t, uint64(1), bm.GetCardinality())
}

func TestIndex_SlotReuse(t *testing.T) {
	x := New[int]()

	x.Set(1, item.Item{"v": item.Int(1)})
	slot1, ok := x.Slot(1)
	require.True(t, ok)

	x.Delete(1)
	_, ok = x.Slot(1)
	assert.False(t, ok)

	x.Set(2, item.Item{"v": item.Int(2)})
	slot2, ok := x.Slot(2)
	require.True(t, ok)
	assert.Equal(t, slot1, slot2, "freed slot is reused")
}

func TestIndex_Compile(t *testing.T) {
	x := New[string]()
	x.Set("a", item.Item{"category": item.String("tech"), "tier": item.String("gold"), "score": item.Int(10)})
	x.Set("b", item.Item{"category": item.String("news"), "tier": item.String("silver"), "score": item.Int(20)})
	x.Set("c", item.Item{"category": item.String("tech"), "tier": item.String("bronze"), "score": item.Int(30)})
	x.Set("d", item.Item{"tier": item.String("gold"), "score": item.Int(40)})

	contains := func(bmIDs []string, id string) bool {
		for _, v := range bmIDs {
			if v == id {
				return true
			}
		}
		return false
	}

	matchingIDs := func(fs *filter.Set) []string {
		bm := x.Compile(fs)
		if bm == nil {
			return nil
		}
		var ids []string
		for _, id := range []string{"a", "b", "c", "d"} {
			slot, ok := x.Slot(id)
			if ok && bm.Contains(slot) {
				ids = append(ids, id)
			}
		}
		return ids
	}

	t.Run("eq", func(t *testing.T) {
		ids := matchingIDs(filter.NewSet(filter.Eq("category", item.String("tech"))))
		assert.ElementsMatch(t, []string{"a", "c"}, ids)
	})

	t.Run("eq no postings", func(t *testing.T) {
		bm := x.Compile(filter.NewSet(filter.Eq("missing", item.String("x"))))
		require.NotNil(t, bm)
		assert.True(t, bm.IsEmpty())
	})

	t.Run("in", func(t *testing.T) {
		ids := matchingIDs(filter.NewSet(filter.In("tier", item.String("gold"), item.String("bronze"))))
		assert.ElementsMatch(t, []string{"a", "c", "d"}, ids)
	})

	t.Run("conjunction of set members", func(t *testing.T) {
		ids := matchingIDs(filter.NewSet(
			filter.Eq("category", item.String("tech")),
			filter.In("tier", item.String("gold"), item.String("silver")),
		))
		assert.ElementsMatch(t, []string{"a"}, ids)
	})

	t.Run("and node", func(t *testing.T) {
		ids := matchingIDs(filter.NewSet(filter.NewAnd(
			filter.Eq("category", item.String("tech")),
			filter.Eq("tier", item.String("bronze")),
		)))
		assert.ElementsMatch(t, []string{"c"}, ids)
	})

	t.Run("empty and passes everything", func(t *testing.T) {
		ids := matchingIDs(filter.NewSet(filter.NewAnd()))
		assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, ids)
	})

	t.Run("or node", func(t *testing.T) {
		ids := matchingIDs(filter.NewSet(filter.NewOr(
			filter.Eq("category", item.String("news")),
			filter.Eq("tier", item.String("bronze")),
		)))
		assert.ElementsMatch(t, []string{"b", "c"}, ids)
	})

	t.Run("not includes items missing the property", func(t *testing.T) {
		ids := matchingIDs(filter.NewSet(filter.NewNot(filter.Eq("category", item.String("tech")))))
		assert.ElementsMatch(t, []string{"b", "d"}, ids)
		assert.True(t, contains(ids, "d"), "d has no category and passes the negation")
	})

	t.Run("gt falls back", func(t *testing.T) {
		assert.Nil(t, x.Compile(filter.NewSet(filter.Gt("score", item.Int(15)))))
	})

	t.Run("numeric eq falls back", func(t *testing.T) {
		assert.Nil(t, x.Compile(filter.NewSet(filter.Eq("score", item.Int(10)))))
		assert.Nil(t, x.Compile(filter.NewSet(filter.Eq("score", item.Float(10)))))
	})

	t.Run("in with numeric alternative falls back", func(t *testing.T) {
		assert.Nil(t, x.Compile(filter.NewSet(
			filter.In("tier", item.String("gold"), item.Int(1)),
		)))
	})

	t.Run("mixed compilable and not falls back", func(t *testing.T) {
		assert.Nil(t, x.Compile(filter.NewSet(
			filter.Eq("category", item.String("tech")),
			filter.Gt("score", item.Int(15)),
		)))
	})

	t.Run("empty set", func(t *testing.T) {
		assert.Nil(t, x.Compile(filter.NewSet()))
		assert.Nil(t, x.Compile(nil))
	})
}

func TestIndex_MatcherFastAndSlowPathsAgree(t *testing.T) {
	x := New[int]()

	rng := rand.New(rand.NewSource(42))
	categories := []string{"tech", "news", "sports"}
	for id := range 500 {
		x.Set(id, item.Item{
			"category": item.String(categories[rng.Intn(len(categories))]),
			"score":    item.Int(int64(rng.Intn(100))),
		})
	}

	sets := map[string]*filter.Set{
		"compiled eq":         filter.NewSet(filter.Eq("category", item.String("tech"))),
		"compiled in":         filter.NewSet(filter.In("category", item.String("tech"), item.String("news"))),
		"fallback numeric eq": filter.NewSet(filter.Eq("score", item.Int(50))),
		"fallback gt":         filter.NewSet(filter.Gt("score", item.Int(50))),
		"mixed": filter.NewSet(
			filter.Eq("category", item.String("news")),
			filter.Lt("score", item.Int(30)),
		),
	}

	for name, fs := range sets {
		t.Run(name, func(t *testing.T) {
			matcher := x.Matcher(fs)
			require.NotNil(t, matcher)

			for id := range 500 {
				it, ok := x.Get(id)
				require.True(t, ok)
				assert.Equal(t, fs.PassesAll(it), matcher(id), "id %d", id)
			}
		})
	}
}

func TestIndex_MatcherEmptySet(t *testing.T) {
	x := New[string]()
	assert.Nil(t, x.Matcher(nil))
	assert.Nil(t, x.Matcher(filter.NewSet()))
}

func TestIndex_MatcherUnknownID(t *testing.T) {
	x := New[string]()
	x.Set("a", item.Item{"v": item.String("x")})

	matcher := x.Matcher(filter.NewSet(filter.Eq("v", item.String("x"))))
	require.NotNil(t, matcher)
	assert.True(t, matcher("a"))
	assert.False(t, matcher("ghost"))
}

func TestIndex_MatcherNumericEqualityCrossesKinds(t *testing.T) {
	x := New[string]()
	x.Set("i", item.Item{"n": item.Int(5)})
	x.Set("f", item.Item{"n": item.Float(5)})
	x.Set("o", item.Item{"n": item.Int(7)})

	fs := filter.NewSet(filter.Eq("n", item.Float(5)))
	require.Nil(t, x.Compile(fs), "posting keys separate int and float")

	matcher := x.Matcher(fs)
	require.NotNil(t, matcher)
	assert.True(t, matcher("i"))
	assert.True(t, matcher("f"))
	assert.False(t, matcher("o"))
}

func TestIndex_CompileArrayOperands(t *testing.T) {
	x := New[string]()
	x.Set("a", item.Item{"tags": item.Array([]item.Value{item.String("go"), item.String("db")})})

	fs := filter.NewSet(filter.Eq("tags", item.Array([]item.Value{item.String("go"), item.String("db")})))
	bm := x.Compile(fs)
	require.NotNil(t, bm)
	assert.Equal(t, uint64(1), bm.GetCardinality())

	// An array carrying a numeric element is not answerable from postings.
	fs = filter.NewSet(filter.Eq("tags", item.Array([]item.Value{item.String("go"), item.Int(1)})))
	assert.Nil(t, x.Compile(fs))
}

func TestIndex_Clear(t *testing.T) {
	x := New[string]()
	for i := range 10 {
		x.Set(fmt.Sprintf("id-%d", i), item.Item{"v": item.Int(int64(i))})
	}

	x.Clear()
	assert.Zero(t, x.Len())
	stats := x.GetStats()
	assert.Zero(t, stats.BitmapCount)

	// Slots restart after clearing.
	x.Set("fresh", item.Item{"v": item.Int(1)})
	slot, ok := x.Slot("fresh")
	require.True(t, ok)
	assert.Equal(t, uint32(0), slot)
}

func TestIndex_GetStats(t *testing.T) {
	x := New[string]()
	x.Set("a", item.Item{"category": item.String("tech"), "score": item.Int(1)})
	x.Set("b", item.Item{"category": item.String("tech"), "score": item.Int(2)})

	stats := x.GetStats()
	assert.Equal(t, 2, stats.ItemCount)
	assert.Equal(t, 2, stats.PropertyCount)
	// category:tech plus two distinct score postings.
	assert.Equal(t, 3, stats.BitmapCount)
	assert.Equal(t, uint64(4), stats.TotalCardinality)
	assert.NotZero(t, stats.MemoryBytes)
}
