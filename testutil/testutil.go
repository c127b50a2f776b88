package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/dataview-go/dataview/filter"
	"github.com/dataview-go/dataview/item"
)

// Statuses is the status catalog used by generated items.
var Statuses = []string{"draft", "open", "paid", "shipped", "cancelled"}

// Regions is the region catalog used by generated items.
var Regions = []string{"eu-west", "eu-north", "us-east", "us-west", "apac"}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float64 returns, as a float64, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Bool returns a pseudo-random bool with probability p of being true.
func (r *RNG) Bool(p float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64() < p
}

// Pick returns a random element of options.
func (r *RNG) Pick(options []string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return options[r.rand.Intn(len(options))]
}

// Word returns a random lowercase word of length n.
func (r *RNG) Word(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + r.rand.Intn(26))
	}
	return string(b)
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// Item generates a random item over the default property catalog:
// a status and region from small enumerations, a priority in [0,5), a
// rounded monetary total, and a random name. Roughly one item in ten has
// no total, so filters over it see missing properties.
func (r *RNG) Item() item.Item {
	it := item.Item{
		"status":   item.String(r.Pick(Statuses)),
		"region":   item.String(r.Pick(Regions)),
		"priority": item.Int(int64(r.Intn(5))),
		"name":     item.String(r.Word(3 + r.Intn(8))),
	}
	if !r.Bool(0.10) {
		it["total"] = item.Float(math.Round(r.Float64()*10000) / 100)
	}
	return it
}

// Items generates n random items.
func (r *RNG) Items(n int) []item.Item {
	items := make([]item.Item, n)
	for i := range items {
		items[i] = r.Item()
	}
	return items
}

// MatchingIDs performs a brute-force filter scan for ground truth. It
// returns, in input order, the identifiers whose items pass every filter
// in the set.
func MatchingIDs[ID comparable](ids []ID, items map[ID]item.Item, fs *filter.Set) []ID {
	out := make([]ID, 0, len(ids))
	for _, id := range ids {
		if fs.PassesAll(items[id]) {
			out = append(out, id)
		}
	}
	return out
}
