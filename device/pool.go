package device

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/notargets/picgrid/utils"
)

// Pool shards each loop over up to Workers goroutines.
type Pool struct {
	*residency
	Workers int
}

func NewPool(workers int) *Pool {
	return &Pool{
		residency: newResidency(),
		Workers:   utils.ParallelDegreeFor(workers, math.MaxInt32),
	}
}

func (p *Pool) Name() string     { return fmt.Sprintf("pool[%d]", p.Workers) }
func (p *Pool) Concurrent() bool { return p.Workers > 1 }

func (p *Pool) ParallelFor(n int, body func(lo, hi int)) {
	if n <= 0 {
		return
	}
	var (
		pm = utils.NewPartitionMap(utils.ParallelDegreeFor(p.Workers, n), n)
		wg = sync.WaitGroup{}
	)
	if pm.ParallelDegree == 1 {
		body(0, n)
		return
	}
	for np := 0; np < pm.ParallelDegree; np++ {
		wg.Add(1)
		go func(np int) {
			lo, hi := pm.GetBucketRange(np)
			body(lo, hi)
			wg.Done()
		}(np)
	}
	wg.Wait()
}

// AtomicAdd is a compare-and-swap loop on the IEEE bits of dst[i].
func (p *Pool) AtomicAdd(dst []float64, i int, v float64) {
	addr := (*uint64)(unsafe.Pointer(&dst[i]))
	for {
		old := atomic.LoadUint64(addr)
		sum := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(addr, old, sum) {
			return
		}
	}
}
