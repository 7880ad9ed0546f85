// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/custody/cache"
)

const (
	// snapshotCacheSize bounds the number of per-height snapshots retained
	// for blocks still in flight.
	snapshotCacheSize = 64

	// verdictTTL is how long a block's verdicts are served from cache when
	// the same finalized block is reported again.
	verdictTTL = 10 * time.Minute
)

// BlockJob is one finalized block to evaluate: its closed vote tally and
// its candidate oraclizations in block order.
type BlockJob struct {
	Tally         *Tally
	Oraclizations []*Oraclization
}

// BlockResult carries the verdicts for one evaluated block.
type BlockResult struct {
	Height   uint64
	Verdicts []Verdict
	Err      error
}

// Pipeline evaluates finalized blocks on a pool of workers. Each block is
// evaluated against a snapshot captured for its height, so concurrent
// blocks never observe each other's membership changes; cross-block
// ordering is the BFT layer's responsibility.
type Pipeline struct {
	log      log.Logger
	engine   *Engine
	registry *Registry
	workers  int

	jobs      chan BlockJob
	results   chan BlockResult
	snapshots *cache.FIFOCache[uint64, *Snapshot]
	verdicts  *cache.TTLCache[uint64, []Verdict]

	startOnce sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewPipeline returns an unstarted pipeline with the given worker count.
func NewPipeline(logger log.Logger, engine *Engine, registry *Registry, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		log:       logger,
		engine:    engine,
		registry:  registry,
		workers:   workers,
		jobs:      make(chan BlockJob),
		results:   make(chan BlockResult),
		snapshots: cache.NewFIFOCache[uint64, *Snapshot](snapshotCacheSize),
		verdicts:  cache.NewTTLCache[uint64, []Verdict](verdictTTL),
	}
}

// Start launches the workers. The results channel is closed once the
// pipeline is closed and all in-flight blocks have been evaluated.
func (p *Pipeline) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker(ctx)
		}
		go func() {
			p.wg.Wait()
			close(p.results)
		}()
	})
}

// Submit queues a finalized block for evaluation.
func (p *Pipeline) Submit(ctx context.Context, job BlockJob) error {
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to submit block %d: %w", job.Tally.Height, ctx.Err())
	}
}

// Results returns the channel delivering evaluated blocks.
func (p *Pipeline) Results() <-chan BlockResult {
	return p.results
}

// Close stops accepting blocks. Workers drain queued jobs and exit.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
	})
}

func (p *Pipeline) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			result := p.evaluate(job)
			select {
			case p.results <- result:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pipeline) evaluate(job BlockJob) BlockResult {
	height := job.Tally.Height

	verdicts, err := p.verdicts.Get(height, func(h uint64) ([]Verdict, error) {
		snapshot, err := p.snapshots.Get(h, func(h uint64) (*Snapshot, error) {
			return p.registry.Snapshot(h), nil
		})
		if err != nil {
			return nil, err
		}
		return p.engine.EvaluateBlock(snapshot, job.Tally, job.Oraclizations)
	}, false)
	if err != nil {
		p.log.Error(
			"block evaluation failed",
			log.Uint64("height", height),
			log.Err(err),
		)
		return BlockResult{Height: height, Err: err}
	}

	return BlockResult{Height: height, Verdicts: verdicts}
}
