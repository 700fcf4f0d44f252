package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ProcessFunc handles one batch target (a file path or URL)
type ProcessFunc[T any] func(ctx context.Context, target string) (T, error)

// TargetJob runs a ProcessFunc for one target
type TargetJob[T any] struct {
	Index   int
	Target  string
	Process ProcessFunc[T]
}

// Execute runs the job
func (j *TargetJob[T]) Execute(ctx context.Context) Result {
	value, err := j.Process(ctx, j.Target)
	return &TargetResult[T]{
		Index:  j.Index,
		Target: j.Target,
		Value:  value,
		Error:  err,
	}
}

// TargetResult is the outcome of one batch target
type TargetResult[T any] struct {
	Index  int
	Target string
	Value  T
	Error  error
}

// GetError returns the error from processing the target
func (r *TargetResult[T]) GetError() error {
	return r.Error
}

// BatchProcessor processes many targets concurrently on a Pool
type BatchProcessor[T any] struct {
	process     ProcessFunc[T]
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor[T any](process ProcessFunc[T], concurrency int) *BatchProcessor[T] {
	return &BatchProcessor[T]{
		process:     process,
		concurrency: concurrency,
	}
}

// ProcessTargets runs every target and returns results in input order.
// Targets skipped because ctx was cancelled are reported with ctx's error.
func (b *BatchProcessor[T]) ProcessTargets(ctx context.Context, targets []string) []*TargetResult[T] {
	if len(targets) == 0 {
		return []*TargetResult[T]{}
	}

	jobs := make([]Job, len(targets))
	for i, target := range targets {
		jobs[i] = &TargetJob[T]{Index: i, Target: target, Process: b.process}
	}

	done := NewPool(b.concurrency).Run(ctx, jobs)

	results := make([]*TargetResult[T], len(targets))
	for _, r := range done {
		tr := r.(*TargetResult[T])
		results[tr.Index] = tr
	}
	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("target not processed")
			}
			results[i] = &TargetResult[T]{Index: i, Target: targets[i], Error: err}
		}
	}

	return results
}

// ProcessFile reads targets from a file and processes them
func (b *BatchProcessor[T]) ProcessFile(ctx context.Context, filePath string) ([]*TargetResult[T], error) {
	targets, err := ReadTargetsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}

	return b.ProcessTargets(ctx, targets), nil
}

// ReadTargetsFromFile reads one target per line, skipping blanks, '#'
// comments and duplicates
func ReadTargetsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var targets []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			targets = append(targets, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return targets, nil
}

// Failed returns the results that carry an error, sorted by target
func Failed[T any](results []*TargetResult[T]) []*TargetResult[T] {
	var out []*TargetResult[T]
	for _, r := range results {
		if r.Error != nil {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	return out
}
