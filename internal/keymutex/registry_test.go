package keymutex

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecuteSameKeySerializes(t *testing.T) {
	r := New()
	var running int32
	var maxConcurrent int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Execute("shared", func() (any, error) {
				n := atomic.AddInt32(&running, 1)
				if n > atomic.LoadInt32(&maxConcurrent) {
					atomic.StoreInt32(&maxConcurrent, n)
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil, nil
			})
		}()
	}
	wg.Wait()

	if maxConcurrent != 1 {
		t.Errorf("max concurrent executions for shared key = %d, want 1", maxConcurrent)
	}
}

func TestExecuteDistinctKeysRunConcurrently(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make(chan string, 2)

	for _, key := range []string{"a", "b"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			<-start
			_, _ = r.Execute(key, func() (any, error) {
				results <- key
				return nil, nil
			})
		}(key)
	}
	close(start)
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for key := range results {
		seen[key] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Errorf("expected both keys to execute, got %v", seen)
	}
}

func TestExecuteReturnsValueAndError(t *testing.T) {
	r := New()
	val, err := r.Execute("k", func() (any, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val.(int) != 42 {
		t.Errorf("val = %v, want 42", val)
	}
}
