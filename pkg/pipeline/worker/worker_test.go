package worker_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shpitdev/cast-image-enricher/pkg/pipeline/worker"
)

func TestProcessAll_PreservesSubmissionOrder(t *testing.T) {
	t.Parallel()

	// Earlier items finish last.
	delays := map[string]time.Duration{
		"a": 40 * time.Millisecond,
		"b": 20 * time.Millisecond,
		"c": 0,
	}
	fn := func(_ context.Context, in string) (string, error) {
		time.Sleep(delays[in])
		return strings.ToUpper(in), nil
	}

	out, err := worker.ProcessAll(context.Background(), []string{"a", "b", "c"}, fn, worker.Options{Workers: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := make([]string, 0, len(out))
	for i, res := range out {
		if res.Index != i {
			t.Fatalf("out[%d].Index=%d", i, res.Index)
		}
		got = append(got, res.Output)
	}
	if !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestProcessAll_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	fn := func(_ context.Context, _ int) (int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return 0, nil
	}

	items := make([]int, 30)
	out, err := worker.ProcessAll(context.Background(), items, fn, worker.Options{Workers: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(items) {
		t.Fatalf("expected %d outputs, got %d", len(items), len(out))
	}
	if got := peak.Load(); got > 3 {
		t.Fatalf("expected at most 3 in flight, saw %d", got)
	}
}

func TestProcessAll_ErrorsDoNotStopRun(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := 0

	fn := func(_ context.Context, name string) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		if name == "bad" {
			return "", errors.New("boom")
		}
		return "ok", nil
	}

	out, err := worker.ProcessAll(context.Background(), []string{"bad", "good"}, fn, worker.Options{Workers: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(out))
	}
	if out[0].Err == nil || out[0].Err.Error() != "boom" {
		t.Fatalf("unexpected out[0]: %#v", out[0])
	}
	if out[1].Err != nil || out[1].Output != "ok" {
		t.Fatalf("unexpected out[1]: %#v", out[1])
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected 2 calls (no retries), got %d", calls)
	}
}

func TestProcessAll_AppliesRequestTimeout(t *testing.T) {
	t.Parallel()

	fn := func(ctx context.Context, _ string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(2 * time.Second):
			return "late", nil
		}
	}

	out, err := worker.ProcessAll(context.Background(), []string{"hung"}, fn, worker.Options{
		Workers:        1,
		RequestTimeout: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(out[0].Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %#v", out[0])
	}
}

func TestProcessAll_RateLimitKeepsAllResults(t *testing.T) {
	t.Parallel()

	fn := func(_ context.Context, in string) (string, error) {
		return in, nil
	}

	start := time.Now()
	out, err := worker.ProcessAll(context.Background(), []string{"a", "b", "c"}, fn, worker.Options{
		Workers:      3,
		RateLimitRPS: 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 || out[2].Output != "c" {
		t.Fatalf("unexpected output: %#v", out)
	}
	// Burst of 1 at 50 rps: the third call waits roughly 40ms.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("expected rate limiting to delay the run, took %s", elapsed)
	}
}

func TestProcessAll_CanceledParentContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := worker.ProcessAll(ctx, []string{"a"}, func(context.Context, string) (string, error) {
		return "a", nil
	}, worker.Options{Workers: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProcessAllWithCallback_CompletesInCompletionOrder(t *testing.T) {
	t.Parallel()

	releaseSlow := make(chan struct{})
	startedSlow := make(chan struct{})
	var firstCallbackInput atomic.Value
	firstCallbackInput.Store("")

	fn := func(_ context.Context, name string) (string, error) {
		if name == "Slow Actor" {
			close(startedSlow)
			<-releaseSlow
		}
		return name, nil
	}

	var mu sync.Mutex
	var seen []string
	type runResult struct {
		out []worker.Result[string, string]
		err error
	}
	doneCh := make(chan runResult, 1)
	go func() {
		out, err := worker.ProcessAllWithCallback(
			context.Background(),
			[]string{"Slow Actor", "Fast Actor"},
			fn,
			func(res worker.Result[string, string]) error {
				mu.Lock()
				defer mu.Unlock()
				seen = append(seen, res.Input)
				if len(seen) == 1 {
					firstCallbackInput.Store(res.Input)
				}
				return nil
			},
			worker.Options{Workers: 2},
		)
		doneCh <- runResult{out: out, err: err}
	}()

	select {
	case <-startedSlow:
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for slow task to start")
	}

	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		if firstCallbackInput.Load().(string) == "Fast Actor" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := firstCallbackInput.Load().(string); got != "Fast Actor" {
		t.Fatalf("expected fast callback first, got %q", got)
	}

	close(releaseSlow)
	var res runResult
	select {
	case res = <-doneCh:
		if res.err != nil {
			t.Fatalf("unexpected error: %v", res.err)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for completion")
	}

	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(seen, []string{"Fast Actor", "Slow Actor"}) {
		t.Fatalf("unexpected callback order: %v", seen)
	}
	if res.out[0].Output != "Slow Actor" || res.out[1].Output != "Fast Actor" {
		t.Fatalf("returned slice must keep submission order: %#v", res.out)
	}
}

func TestProcessAllWithCallback_CallbackErrorStopsRun(t *testing.T) {
	t.Parallel()

	callbackErr := errors.New("callback failed")
	_, err := worker.ProcessAllWithCallback(
		context.Background(),
		[]string{"Tom Hanks"},
		func(_ context.Context, name string) (string, error) {
			return name, nil
		},
		func(worker.Result[string, string]) error {
			return callbackErr
		},
		worker.Options{Workers: 1},
	)
	if !errors.Is(err, callbackErr) {
		t.Fatalf("expected callback error, got %v", err)
	}
}
