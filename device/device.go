// Package device models the execution environment that data-parallel grid and
// particle loops run on. A Device runs a loop over an index range, accumulates
// into shared cells atomically when its loop bodies run concurrently, and keeps
// track of which host buffers are mirrored ("mapped") in its memory.
//
// Two environments are provided: Host runs every loop in order on the calling
// goroutine, Pool shards loops across goroutines. Algorithms are written once
// against the Device interface and do not know which one they run on.
package device

import (
	"fmt"
	"strings"
	"sync"
)

type Device interface {
	Name() string
	// Concurrent is true when ParallelFor bodies may run at the same time, in
	// which case shared output cells must be written through AtomicAdd.
	Concurrent() bool
	// ParallelFor calls body over disjoint sub-ranges covering [0,n) and
	// returns when all of them are done.
	ParallelFor(n int, body func(lo, hi int))
	AtomicAdd(dst []float64, i int, v float64)
	Residency
}

// Residency tracks host buffers mirrored on the device.
type Residency interface {
	Map(name string, buf []float64)
	Unmap(buf []float64)
	IsMapped(buf []float64) bool
	MappedElements() int
}

type Kind uint8

const (
	HOST Kind = iota
	POOL
)

var KindNameMap = map[string]Kind{
	"host":   HOST,
	"cpu":    HOST,
	"pool":   POOL,
	"thread": POOL,
}

func (k Kind) Print() string {
	switch k {
	case HOST:
		return "Host (sequential)"
	case POOL:
		return "Pool (goroutines, atomic accumulation)"
	}
	return "Unknown"
}

func NewKind(label string) (k Kind, err error) {
	var ok bool
	if k, ok = KindNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown device type: %q", label)
	}
	return
}

// New returns the device for kind; workers only matters for POOL, zero
// meaning one goroutine per CPU.
func New(kind Kind, workers int) Device {
	switch kind {
	case POOL:
		return NewPool(workers)
	default:
		return NewHost()
	}
}

// residency is the shared bookkeeping behind Map/Unmap. Buffers are keyed by
// the address of their first element.
type residency struct {
	mu     sync.Mutex
	mapped map[*float64]mapping
}

type mapping struct {
	name string
	size int
}

func newResidency() *residency {
	return &residency{mapped: make(map[*float64]mapping)}
}

func key(buf []float64) *float64 {
	if len(buf) == 0 {
		return nil
	}
	return &buf[0]
}

func (r *residency) Map(name string, buf []float64) {
	k := key(buf)
	if k == nil {
		return
	}
	r.mu.Lock()
	r.mapped[k] = mapping{name: name, size: len(buf)}
	r.mu.Unlock()
}

func (r *residency) Unmap(buf []float64) {
	k := key(buf)
	if k == nil {
		return
	}
	r.mu.Lock()
	delete(r.mapped, k)
	r.mu.Unlock()
}

func (r *residency) IsMapped(buf []float64) (ok bool) {
	k := key(buf)
	if k == nil {
		return false
	}
	r.mu.Lock()
	_, ok = r.mapped[k]
	r.mu.Unlock()
	return
}

func (r *residency) MappedElements() (n int) {
	r.mu.Lock()
	for _, m := range r.mapped {
		n += m.size
	}
	r.mu.Unlock()
	return
}
