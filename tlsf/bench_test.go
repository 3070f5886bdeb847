package tlsf

import (
	"testing"

	"github.com/tlsf-go/tlsfpool/regionpool"
)

// BenchmarkAllocateDeallocate measures the steady-state cost of a single
// allocate/free pair against a warm pool.
func BenchmarkAllocateDeallocate(b *testing.B) {
	region := regionpool.ForPool(1 << 20)
	defer regionpool.Put(region)
	p, err := Init(region, nil)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf, aerr := p.Allocate(128)
		if aerr != nil {
			b.Fatal(aerr)
		}
		if derr := p.Deallocate(buf); derr != nil {
			b.Fatal(derr)
		}
	}
}

// BenchmarkInit measures the cost of formatting a fresh pool, pulling each
// iteration's backing region from regionpool instead of paying a fresh
// make()+page-fault cost b.N times over.
func BenchmarkInit(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		region := regionpool.ForPool(1 << 16)
		if _, err := Init(region, nil); err != nil {
			b.Fatal(err)
		}
		regionpool.Put(region)
	}
}
