// Package testutil provides testing utilities for dataview.
//
// This package is intended for use in tests and benchmarks only.
// It provides a deterministic, thread-safe random source, generators for
// random items over a small property catalog, and a brute-force filter
// scan for ground truth.
//
// # Random Item Generation
//
//	rng := testutil.NewRNG(seed)
//	items := rng.Items(1000)
//
// # Ground Truth
//
//	want := testutil.MatchingIDs(ids, byID, filters)
package testutil
