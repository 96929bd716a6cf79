package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result is the aggregate of every round of one kind and case.
type Result struct {
	Kind     Kind          `yaml:"kind"`
	Size     int           `yaml:"size"`
	Reads    int           `yaml:"reads"`
	Bytes    int64         `yaml:"bytes"`
	Duration time.Duration `yaml:"duration"`
	// Throughput is in bytes per second.
	Throughput float64 `yaml:"throughput"`
}

// Report holds the results of a run in execution order.
type Report struct {
	Timestamp string   `yaml:"timestamp"`
	Results   []Result `yaml:"results"`
}

// Run executes every case of cfg against every kind.
func Run(ctx context.Context, cfg Config, logger *slog.Logger) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	report := &Report{Timestamp: time.Now().Format(time.RFC3339)}
	for _, kind := range cfg.Kinds {
		open, err := Open(kind)
		if err != nil {
			return report, err
		}
		for _, tc := range cfg.Cases {
			res := Result{Kind: kind, Size: tc.Size, Reads: tc.Reads}
			for round := range cfg.Rounds {
				n, d, err := RunCase(ctx, open, tc, cfg.Total)
				if err != nil {
					return report, fmt.Errorf("bench: %s size=%d reads=%d round %d: %w",
						kind, tc.Size, tc.Reads, round, err)
				}
				res.Bytes += n
				res.Duration += d
			}
			if res.Duration > 0 {
				res.Throughput = float64(res.Bytes) / res.Duration.Seconds()
			}
			logger.Debug("bench case finished",
				"kind", kind,
				"size", tc.Size,
				"reads", tc.Reads,
				"bytes", res.Bytes,
				"duration", res.Duration)
			report.Results = append(report.Results, res)
		}
	}
	return report, nil
}

// RunCase sends total bytes, rounded down to a multiple of tc.Size, through
// one freshly opened pipe and returns how many bytes the consumer received
// and how long the transfer took.
func RunCase(ctx context.Context, open Opener, tc Case, total int) (int64, time.Duration, error) {
	payload := make([]byte, tc.Size)
	for i := range payload {
		payload[i] = byte(i)
	}
	writes := total / tc.Size
	want := int64(writes * tc.Size)

	start := time.Now()
	r, w, err := open()
	if err != nil {
		return 0, 0, err
	}

	var received int64
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer r.Close()
		buf := make([]byte, max(tc.Size/tc.Reads, 1))
		for {
			n, err := io.ReadFull(r, buf)
			received += int64(n)
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read: %w", err)
			}
		}
	})
	g.Go(func() error {
		defer w.Close()
		for range writes {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := w.Write(payload); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return received, time.Since(start), err
	}
	elapsed := time.Since(start)

	if received != want {
		return received, elapsed, fmt.Errorf("received %d bytes, want %d", received, want)
	}
	return received, elapsed, nil
}
