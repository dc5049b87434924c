package pdftext

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// renderPages runs the per-page render function over indices with up to
// workers goroutines and reassembles results in index order, so parallel
// output is byte-identical to sequential output.
func renderPages(ctx context.Context, indices []int, workers int, render func(context.Context, int) (string, error)) ([]string, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(indices) {
		workers = len(indices)
	}
	if len(indices) == 0 {
		return nil, nil
	}

	if workers == 1 {
		out := make([]string, len(indices))
		for i, idx := range indices {
			text, err := render(ctx, idx)
			if err != nil {
				return nil, err
			}
			out[i] = text
		}
		return out, nil
	}

	type result struct {
		slot int
		text string
		err  error
	}

	jobs := make(chan int, len(indices))
	results := make(chan result, len(indices))
	slots := make(map[int]int, len(indices))
	for slot, idx := range indices {
		slots[idx] = slot
		jobs <- idx
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				text, err := render(ctx, idx)
				results <- result{slot: slots[idx], text: text, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]string, len(indices))
	var firstErr error
	for res := range results {
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		out[res.slot] = res.text
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// Processor extracts text from many documents with bounded concurrency:
// a semaphore caps documents in flight and each document uses a fixed
// number of page workers.
type Processor struct {
	cfg *Config
	sem *semaphore.Weighted
}

// NewProcessor validates the configuration and builds a processor.
func NewProcessor(cfg *Config) (*Processor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("processor config: %w", err)
	}
	return &Processor{
		cfg: cfg,
		sem: semaphore.NewWeighted(int64(cfg.MaxConcurrentDocs)),
	}, nil
}

// Extract pulls the full text of one document, honoring the processor's
// concurrency bounds and page timeout.
func (p *Processor) Extract(ctx context.Context, path string) (string, []Warning, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", nil, fmt.Errorf("acquire document slot: %w", err)
	}
	defer p.sem.Release(1)

	ex := Open(path).Workers(p.cfg.WorkersPerDoc).PageTimeout(p.cfg.PageTimeout)
	if p.cfg.Strict {
		ex = ex.Strict()
	}
	return ex.TextContext(ctx)
}
