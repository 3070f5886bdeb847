/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package regionpool pools the backing []byte regions handed to tlsf.Init
// during tests and benchmarks, so repeatedly standing up a pool does not pay
// a fresh make()+page-fault cost every time. It is test/embedder tooling,
// never used from the tlsf package's own production code paths: the engine
// is handed a region, it never asks for one.
package regionpool

import (
	"math/bits"
	"sync"
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"

	"github.com/tlsf-go/tlsfpool/tlsf"
)

type regionClass struct {
	sync.Pool

	Size int
}

var classes []*regionClass

const (
	minRegionSize = 4 << 10   // 4KB
	maxRegionSize = 128 << 30 // 128GB, Get panics above this
)

const (
	// Regions are tagged with a footer instead of a header so that Put is
	// always safe regardless of what slice is handed back to it: a footer
	// byte range only exists past len(region), which a caller that mutated
	// region[:len] in place can never have clobbered.
	footerLen = 8

	footerMagicMask = uint64(0xFFFFFFFFFFFFFFC0) // 58 bits
	footerIndexMask = uint64(0x000000000000003F) // 6 bits
	footerMagic     = uint64(0xA110CA7EDBEEF1C0) // ends in 6 zero bits for the index
)

// bits2idx maps bits.Len to the index into `classes` holding that size.
var bits2idx [64]int

func init() {
	i := 0
	for sz := minRegionSize; sz <= maxRegionSize; sz <<= 1 {
		c := &regionClass{Size: sz}
		c.New = func() interface{} {
			b := dirtmake.Bytes(c.Size, c.Size)
			return &b[0]
		}
		classes = append(classes, c)
		bits2idx[bits.Len(uint(c.Size))] = i
		i++
	}
}

func classIndex(sz int) int {
	if sz <= minRegionSize {
		return 0
	}
	i := bits2idx[bits.Len(uint(sz))]
	if uint(sz)&(uint(sz)-1) == 0 {
		return i
	}
	return i + 1
}

type sliceHeader struct {
	Data unsafe.Pointer
	Len  int
	Cap  int
}

// Get returns a region of at least size usable bytes (size + footerLen is
// reserved from the class's full capacity for bookkeeping). The returned
// bytes are not zeroed — tlsf.Init overwrites its own header area and never
// reads uninitialized bytes before writing them, so there is nothing to gain
// from zeroing a multi-megabyte region just to hand it to Init.
func Get(size int) []byte {
	if size <= 0 {
		return nil
	}
	c := size + footerLen
	if c > maxRegionSize {
		panic("regionpool: region size exceeds maxRegionSize")
	}
	i := classIndex(c)
	class := classes[i]
	p := class.Get().(*byte)

	ret := []byte{}
	h := (*sliceHeader)(unsafe.Pointer(&ret))
	h.Data = unsafe.Pointer(p)
	h.Len = size
	h.Cap = class.Size

	*(*uint64)(unsafe.Add(h.Data, h.Cap-footerLen)) = footerMagic | uint64(i)
	return ret
}

// Put returns a region obtained from Get back to its pool. Anything not
// recognizably produced by Get (wrong capacity, missing/garbled footer) is
// silently dropped rather than pooled, so a caller can always call Put
// defensively on a region of unknown provenance.
func Put(region []byte) {
	c := cap(region)
	if c < minRegionSize || uint(c)&uint(c-1) != 0 {
		return
	}
	if c-len(region) < footerLen {
		return
	}
	footer := getFooter(region)
	if footer&footerMagicMask != footerMagic {
		return
	}
	i := int(footer & footerIndexMask)
	if i < len(classes) {
		if class := classes[i]; class.Size == c {
			class.Put(&region[0])
		}
	}
}

func getFooter(region []byte) uint64 {
	h := (*sliceHeader)(unsafe.Pointer(&region))
	return *(*uint64)(unsafe.Add(h.Data, h.Cap-footerLen))
}

// ForPool returns a region sized to give a pool at least minPoolSize usable
// payload bytes once tlsf.Init has carved its Control header and edge words
// off the front and back: callers ask for the pool size they want to test
// against, not the region size tlsf.Init actually requires, and ForPool adds
// tlsf's own fixed overhead on top before delegating to Get.
func ForPool(minPoolSize int) []byte {
	// Init rounds the pool size down to 8 bytes, so round the request up first.
	want := (int64(minPoolSize)+7)&^7 + tlsf.RegionOverhead()
	if want < tlsf.MinRegionSize() {
		want = tlsf.MinRegionSize()
	}
	if want < 0 || want > int64(maxRegionSize) {
		return nil
	}
	return Get(int(want))
}
