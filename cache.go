// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Regression Segment Costs for Change-Point Detection
// Class: 02-613 at Caregie Mellon University

package costmatrix

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/mat"
)

// fingerprint hashes everything a cost table depends on: both matrices and
// the numeric options.
func fingerprint(y, x mat.Matrix, o Options) uint64 {
	h := xxhash.New()
	var buf [8]byte

	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
	writeFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	writeMatrix := func(m mat.Matrix) {
		r, c := m.Dims()
		writeInt(r)
		writeInt(c)
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				writeFloat(m.At(i, j))
			}
		}
	}

	writeMatrix(y)
	writeMatrix(x)
	writeInt(o.MinLength)
	writeInt(int(o.Divisor))
	writeFloat(o.PinvTolerance)
	writeFloat(o.ResidualFloor)

	return h.Sum64()
}

// tableCache keeps finished tables, oldest evicted first. Tables go in and
// come out as copies so every caller owns what it receives.
type tableCache struct {
	mu      sync.Mutex
	size    int
	entries map[uint64]*CostTable
	order   []uint64
}

func newTableCache(size int) *tableCache {
	return &tableCache{
		size:    size,
		entries: make(map[uint64]*CostTable, size),
	}
}

func (c *tableCache) get(key uint64) (*CostTable, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return cloneTable(t), true
}

func (c *tableCache) put(key uint64, t *CostTable) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = cloneTable(t)
		return
	}
	for len(c.order) >= c.size {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = cloneTable(t)
	c.order = append(c.order, key)
}

func (c *tableCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cloneTable(t *CostTable) *CostTable {
	return &CostTable{
		C:          mat.DenseCopyOf(t.C),
		MinLength:  t.MinLength,
		Evaluated:  t.Evaluated,
		Degenerate: t.Degenerate,
	}
}
