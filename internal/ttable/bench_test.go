package ttable

import (
	"math/rand"
	"testing"

	lru "github.com/hashicorp/golang-lru/v2"
)

const benchTableBytes = 1 << 20

func benchKeys(n int) []uint64 {
	rng := rand.New(rand.NewSource(1))
	keys := make([]uint64, n)
	for i := range keys {
		keys[i] = rng.Uint64()
	}
	return keys
}

func BenchmarkWrite(b *testing.B) {
	tt := New(benchTableBytes)
	keys := benchKeys(1 << 16)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fp := keys[i&(len(keys)-1)]
		tt.Write(tt.Read(fp, 0), 8, int(fp%1000)-500, -600, 600, 0, false)
	}
}

func BenchmarkRead(b *testing.B) {
	tt := New(benchTableBytes)
	keys := benchKeys(1 << 16)
	for _, fp := range keys {
		tt.Write(tt.Read(fp, 0), 8, int(fp%1000)-500, -600, 600, 0, false)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tt.Read(keys[i&(len(keys)-1)], 0)
	}
}

func BenchmarkReadParallel(b *testing.B) {
	tt := New(benchTableBytes)
	keys := benchKeys(1 << 16)
	for _, fp := range keys {
		tt.Write(tt.Read(fp, 0), 8, int(fp%1000)-500, -600, 600, 0, false)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			tt.Read(keys[i&(len(keys)-1)], 0)
			i++
		}
	})
}

// BenchmarkLRUBaseline runs the same probe/store mix against a locked LRU
// cache of equal capacity, as a reference point for what the lockless
// design buys.
func BenchmarkLRUBaseline(b *testing.B) {
	cache, err := lru.New[uint64, int](benchTableBytes / slotBytes)
	if err != nil {
		b.Fatal(err)
	}
	keys := benchKeys(1 << 16)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fp := keys[i&(len(keys)-1)]
		if _, ok := cache.Get(fp); !ok {
			cache.Add(fp, int(fp%1000)-500)
		}
	}
}
