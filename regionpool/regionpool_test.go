package regionpool

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/tlsf-go/tlsfpool/tlsf"
)

func TestGetPut(t *testing.T) {
	for sz := 4000; sz < 1<<20; sz += 97411 {
		r := Get(sz)
		require.Len(t, r, sz)
		Put(r)
	}
}

func TestGetCapacityRounding(t *testing.T) {
	r := Get(minRegionSize)
	require.Greater(t, cap(r), minRegionSize)
	Put(r)

	r = Get(minRegionSize - footerLen)
	require.Equal(t, minRegionSize-footerLen, len(r))
	require.Equal(t, minRegionSize, cap(r))
	Put(r)
}

func TestPutIgnoresForeignSlices(t *testing.T) {
	Put(nil)
	Put(make([]byte, 0, minRegionSize+1))   // not a power of two
	Put(make([]byte, minRegionSize-1, minRegionSize)) // below footerLen slack

	b := make([]byte, minRegionSize-footerLen, minRegionSize)
	Put(b) // magic absent, silently dropped

	footer := make([]byte, footerLen)
	*(*uint64)(unsafe.Pointer(&footer[0])) = footerMagic | 1
	b = append(b, footer...)
	Put(b[:minRegionSize-footerLen]) // wrong index for its own capacity class, silently dropped

	b = b[:minRegionSize-footerLen]
	*(*uint64)(unsafe.Pointer(&footer[0])) = footerMagic | 0
	b = append(b, footer...)
	Put(b[:minRegionSize-footerLen]) // well-formed, accepted
}

func TestForPoolYieldsAnInitializablePool(t *testing.T) {
	region := ForPool(1 << 16)
	require.GreaterOrEqual(t, len(region), 1<<16)
	defer Put(region)

	p, err := tlsf.Init(region, nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, p.PoolSize(), int64(1<<16))
}

func TestForPoolEnforcesTLSFsOwnMinimum(t *testing.T) {
	region := ForPool(0)
	require.GreaterOrEqual(t, int64(len(region)), tlsf.MinRegionSize())
	defer Put(region)

	_, err := tlsf.Init(region, nil)
	require.NoError(t, err)
}
