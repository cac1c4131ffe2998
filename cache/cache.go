// Package cache stores enhancement results keyed by a content signature.
//
// A signature covers everything that can influence the output (source code,
// brand pack identity, engine and ruleset versions, overrides, environment
// flags), so a hit can be returned without touching the pipeline at all.
package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"
)

// Entry is one cached enhancement result. Created on first miss and read
// only afterward except for HitCount; a changed signature produces a new
// entry rather than mutating an old one.
type Entry struct {
	Signature      string
	Code           string          // enhanced source text
	Changes        json.RawMessage // serialized changelog, opaque to the cache
	EngineVersion  string
	RulesetVersion string
	CreatedAt      time.Time
	HitCount       int64
}

// Stats are lifetime counters for one store instance.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int64
}

// Store is a result cache backend. Put is idempotent: re-putting an existing
// signature leaves the stored entry alone.
type Store interface {
	Get(ctx context.Context, signature string) (*Entry, bool, error)
	Put(ctx context.Context, entry *Entry) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Null is the always-miss store backing "backend: off".
type Null struct {
	misses atomic.Int64
}

func (n *Null) Get(_ context.Context, _ string) (*Entry, bool, error) {
	n.misses.Add(1)
	return nil, false, nil
}

func (n *Null) Put(_ context.Context, _ *Entry) error { return nil }

func (n *Null) Stats(_ context.Context) (Stats, error) {
	return Stats{Misses: n.misses.Load()}, nil
}

func (n *Null) Close() error { return nil }
