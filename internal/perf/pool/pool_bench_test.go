package pool

import "testing"

// BenchmarkPool_AcquireRelease measures the steady-state recycle path.
// Expected: 0 allocs/op once warmed.
func BenchmarkPool_AcquireRelease(b *testing.B) {
	p, err := New(func() *bullet { return &bullet{} }, Config{Name: "bench", InitialSize: 64, MaxSize: 128})
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		obj := p.Acquire()
		p.Release(obj)
	}
}
