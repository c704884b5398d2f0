package utils

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	added := s.Add("https://www.olx.pl/d/oferta/rower-1")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("https://www.olx.pl/d/oferta/rower-1")
	if added {
		t.Error("second Add of same URL should return false")
	}

	if !s.Contains("https://www.olx.pl/d/oferta/rower-1") {
		t.Error("Contains should report an added URL")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		url := "https://www.olx.pl/d/oferta/same"
		pool.Submit(func() {
			if s.Add(url) {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	var (
		mu         sync.Mutex
		timestamps []time.Time
	)

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	if len(timestamps) != 3 {
		t.Fatalf("expected 3 jobs to run, got %d", len(timestamps))
	}

	// Two intervals separate the first and the last start; allow a little
	// scheduling slack on the first job.
	span := timestamps[2].Sub(timestamps[0])
	min := 2*time.Duration(rateLimitMs)*time.Millisecond - 10*time.Millisecond
	if span < min {
		t.Errorf("span between first and last job: %v < minimum %v", span, min)
	}
}

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(4, 0)
	var ran int64
	for i := 0; i < 20; i++ {
		pool.Submit(func() { atomic.AddInt64(&ran, 1) })
	}
	pool.Wait()

	if ran != 20 {
		t.Errorf("ran: got %d, want 20", ran)
	}
}
