package pcore

import "sync"

// Metrics accumulates counters and a streaming quantile estimate of
// macro-step transition counts, grounded in eventloop/metrics.go and
// eventloop/psquare.go's P² estimator (Jain & Chlamtac), reused here to
// avoid retaining a full histogram of cycle sizes.
type Metrics struct {
	mu          sync.Mutex
	cycles      uint64
	transitions uint64
	quantile    *pSquare
}

func NewMetrics() *Metrics {
	return &Metrics{quantile: newPSquare(0.9)}
}

func (m *Metrics) ObserveCycle(transitions int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles++
	m.transitions += uint64(transitions)
	m.quantile.observe(float64(transitions))
}

// Snapshot reports the current counters plus the P90 estimate of
// per-cycle transition counts.
func (m *Metrics) Snapshot() (cycles, transitions uint64, p90Transitions float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cycles, m.transitions, m.quantile.value()
}

// pSquare implements the P² algorithm for streaming quantile
// estimation in O(1) space, tracking a single quantile p.
type pSquare struct {
	p          float64
	n          [5]int
	npos       [5]float64
	dn         [5]float64
	q          [5]float64
	count      int
}

func newPSquare(p float64) *pSquare {
	ps := &pSquare{p: p}
	for i := 0; i < 5; i++ {
		ps.n[i] = i + 1
	}
	ps.dn = [5]float64{0, p / 2, p, (1 + p) / 2, 1}
	return ps
}

func (ps *pSquare) observe(x float64) {
	ps.count++
	if ps.count <= 5 {
		ps.q[ps.count-1] = x
		if ps.count == 5 {
			// sort the first five observations into place
			for i := 1; i < 5; i++ {
				for j := i; j > 0 && ps.q[j-1] > ps.q[j]; j-- {
					ps.q[j-1], ps.q[j] = ps.q[j], ps.q[j-1]
				}
			}
			for i := 0; i < 5; i++ {
				ps.npos[i] = float64(i + 1)
			}
		}
		return
	}

	k := 0
	switch {
	case x < ps.q[0]:
		ps.q[0] = x
		k = 0
	case x >= ps.q[4]:
		ps.q[4] = x
		k = 3
	default:
		for i := 0; i < 4; i++ {
			if x < ps.q[i+1] {
				k = i
				break
			}
		}
	}
	for i := k + 1; i < 5; i++ {
		ps.n[i]++
	}
	for i := 0; i < 5; i++ {
		ps.npos[i] += ps.dn[i]
	}
	for i := 1; i < 4; i++ {
		d := ps.npos[i] - float64(ps.n[i])
		if (d >= 1 && ps.n[i+1]-ps.n[i] > 1) || (d <= -1 && ps.n[i-1]-ps.n[i] < -1) {
			sign := 1
			if d < 0 {
				sign = -1
			}
			qp := ps.parabolic(i, sign)
			if ps.q[i-1] < qp && qp < ps.q[i+1] {
				ps.q[i] = qp
			} else {
				ps.q[i] = ps.linear(i, sign)
			}
			ps.n[i] += sign
		}
	}
}

func (ps *pSquare) parabolic(i, d int) float64 {
	fd := float64(d)
	return ps.q[i] + fd/float64(ps.n[i+1]-ps.n[i-1])*
		((float64(ps.n[i]-ps.n[i-1])+fd)*(ps.q[i+1]-ps.q[i])/float64(ps.n[i+1]-ps.n[i])+
			(float64(ps.n[i+1]-ps.n[i])-fd)*(ps.q[i]-ps.q[i-1])/float64(ps.n[i]-ps.n[i-1]))
}

func (ps *pSquare) linear(i, d int) float64 {
	return ps.q[i] + float64(d)*(ps.q[i+d]-ps.q[i])/float64(ps.n[i+d]-ps.n[i])
}

func (ps *pSquare) value() float64 {
	if ps.count == 0 {
		return 0
	}
	if ps.count < 5 {
		return ps.q[ps.count-1]
	}
	return ps.q[2]
}
