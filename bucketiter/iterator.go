// Package bucketiter implements a parallel producer/consumer pipeline that
// enumerates keys under a prefix and fans out downloads across a worker
// pool: a lister goroutine feeds a bounded channel of keys, a pool of
// downloader goroutines drain it with per-key retry, and a collector
// goroutine closes the results channel once every downloader has exited.
package bucketiter

import (
	"context"
	"io"
	"sync"

	"github.com/flowstore/streamio"
	"github.com/flowstore/streamio/internal/backoff"
)

// Options configures one Iterate call.
type Options struct {
	// AcceptKey filters listed keys before they're queued for download. A
	// nil AcceptKey accepts everything.
	AcceptKey func(key string) bool

	// KeyLimit stops the lister after this many accepted keys. 0 means no
	// limit.
	KeyLimit int

	// Workers is the number of concurrent downloaders. Default 16.
	Workers int

	// Retries is the number of retry attempts per key on transient
	// download failure, with base-1s/factor-2/cap-32s backoff. Default 3.
	Retries int
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 16
	}
	if o.Retries <= 0 {
		o.Retries = 3
	}
	return o
}

// Result is one downloaded object, or a terminal per-key failure.
type Result struct {
	Key  string
	Data []byte
	Err  error
}

// Iterate lists prefix on backend and downloads every accepted key in
// parallel, returning a channel of results in completion order (no
// ordering guarantee across keys). The channel closes once every accepted
// key has been yielded or reported as failed, or ctx is cancelled. Callers
// that abandon the returned channel (stop reading before it closes) should
// cancel ctx so in-flight downloaders can exit; outstanding keys are never
// retried after that point.
func Iterate(ctx context.Context, backend streamio.Backend, prefix string, opts Options) <-chan Result {
	opts = opts.withDefaults()

	keys := make(chan string, 2*opts.Workers)
	results := make(chan Result, 2*opts.Workers)

	go runLister(ctx, backend, prefix, opts, keys)

	var wg sync.WaitGroup
	wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go func() {
			defer wg.Done()
			runDownloader(ctx, backend, opts, keys, results)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// runLister pushes accepted keys onto keys, blocking (the queue's
// boundedness is the backpressure mechanism) when the queue is full. It
// closes keys when done so downloaders know to stop.
func runLister(ctx context.Context, backend streamio.Backend, prefix string, opts Options, keys chan<- string) {
	defer close(keys)

	listed, err := backend.List(ctx, prefix)
	if err != nil {
		return
	}

	accepted := 0
	for _, key := range listed {
		if opts.AcceptKey != nil && !opts.AcceptKey(key) {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case keys <- key:
		}
		accepted++
		if opts.KeyLimit > 0 && accepted >= opts.KeyLimit {
			return
		}
	}
}

// runDownloader pulls keys until the queue is drained and closed, fetching
// each object body fully into memory with retry on transient failure.
func runDownloader(ctx context.Context, backend streamio.Backend, opts Options, keys <-chan string, results chan<- Result) {
	cfg := backoff.Default()
	cfg.MaxRetries = opts.Retries
	cfg.Retryable = backoff.IsTemporary

	for {
		select {
		case <-ctx.Done():
			return
		case key, ok := <-keys:
			if !ok {
				return
			}

			data, err := downloadOne(ctx, backend, cfg, key)
			select {
			case <-ctx.Done():
				return
			case results <- Result{Key: key, Data: data, Err: err}:
			}
		}
	}
}

func downloadOne(ctx context.Context, backend streamio.Backend, cfg backoff.Config, key string) ([]byte, error) {
	var data []byte
	err := backoff.Run(ctx, cfg, func() error {
		r, err := backend.NewReader(ctx, key, 0)
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()

		buf, err := readAll(r)
		if err != nil {
			return err
		}
		data = buf
		return nil
	})
	return data, err
}

func readAll(r streamio.Stream) ([]byte, error) {
	var buf []byte
	chunk := make([]byte, 32*1024)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				return buf, nil
			}
			return buf, err
		}
	}
}
