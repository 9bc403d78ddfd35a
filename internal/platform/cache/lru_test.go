package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLRU_BasicOperations(t *testing.T) {
	c := NewLRU[string](3, 0)

	c.Add("a", "1")
	c.Add("b", "2")
	c.Add("c", "3")

	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("Get(a): got %q, %v", v, ok)
	}
	if c.Len() != 3 {
		t.Errorf("Len: got %d want 3", c.Len())
	}
	if !c.Remove("b") {
		t.Error("Remove(b): want true")
	}
	if c.Remove("b") {
		t.Error("Remove(b) again: want false")
	}
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[string](3, 0)

	c.Add("a", "1")
	c.Add("b", "2")
	c.Add("c", "3")
	c.Get("a") // make a most recently used
	c.Add("d", "4")

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("expected %q to be present", k)
		}
	}
}

func TestLRU_TTLExpiration(t *testing.T) {
	c := NewLRU[string](10, 30*time.Millisecond)

	c.Add("a", "1")
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a immediately")
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to expire")
	}
	if c.Len() != 0 {
		t.Errorf("Len after expiry read: got %d want 0", c.Len())
	}
}

func TestLRU_GetOrAdd(t *testing.T) {
	c := NewLRU[*sync.Mutex](2, 0)

	m1 := c.GetOrAdd("actor-1", func() *sync.Mutex { return &sync.Mutex{} })
	m2 := c.GetOrAdd("actor-1", func() *sync.Mutex { return &sync.Mutex{} })
	if m1 != m2 {
		t.Error("GetOrAdd must return the same value for the same key")
	}
}

func TestLRU_EvictGuardSkipsHeldLocks(t *testing.T) {
	c := NewLRU[*sync.Mutex](2, 0)
	c.SetEvictGuard(func(m *sync.Mutex) bool {
		if m.TryLock() {
			m.Unlock()
			return true
		}
		return false
	})

	held := &sync.Mutex{}
	held.Lock()
	defer held.Unlock()

	c.Add("held", held)
	c.Add("idle", &sync.Mutex{})
	c.Add("new", &sync.Mutex{}) // over capacity; must evict idle, not held

	if _, ok := c.Get("held"); !ok {
		t.Error("held lock must never be evicted")
	}
	if _, ok := c.Get("idle"); ok {
		t.Error("idle lock should have been evicted")
	}
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := NewLRU[int](64, 0)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := fmt.Sprintf("k-%d", i%100)
				c.Add(k, g)
				c.Get(k)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 64 {
		t.Errorf("Len exceeded capacity: %d", c.Len())
	}
}
