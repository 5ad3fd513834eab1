package device

type Host struct {
	*residency
}

func NewHost() *Host {
	return &Host{residency: newResidency()}
}

func (h *Host) Name() string     { return "host" }
func (h *Host) Concurrent() bool { return false }

func (h *Host) ParallelFor(n int, body func(lo, hi int)) {
	if n <= 0 {
		return
	}
	body(0, n)
}

func (h *Host) AtomicAdd(dst []float64, i int, v float64) {
	dst[i] += v
}
