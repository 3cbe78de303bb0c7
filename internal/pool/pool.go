// Package pool provides size-classed pooled byte buffers, used by transport
// for frame reads and writes.
package pool

import "sync"

var classSizes = [...]int{64, 256, 1024, 4096, 16384, 65536}

var pools = [...]*sync.Pool{
	newPool(classSizes[0]),
	newPool(classSizes[1]),
	newPool(classSizes[2]),
	newPool(classSizes[3]),
	newPool(classSizes[4]),
	newPool(classSizes[5]),
}

func newPool(size int) *sync.Pool {
	return &sync.Pool{
		New: func() any {
			b := make([]byte, 0, size)
			return &b
		},
	}
}

// Get returns a zero-length slice with capacity at least n.
func Get(n int) []byte {
	for i, size := range classSizes {
		if n > size {
			continue
		}
		b := pools[i].Get().(*[]byte)
		return (*b)[:0]
	}
	return make([]byte, 0, n)
}

// Put returns buf to the pool whose class size equals its capacity, and
// drops it if its capacity matches no class.
func Put(buf []byte) {
	if buf == nil {
		return
	}
	c := cap(buf)
	for i, size := range classSizes {
		if c == size {
			b := buf[:0]
			pools[i].Put(&b)
			return
		}
	}
}
