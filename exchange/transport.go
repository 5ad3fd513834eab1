// Package exchange moves halo buffers between the patches of a domain held
// in one process. Each patch runs in its own goroutine, buffers go through a
// utils.MailBox in bulk synchronous phases: every patch extracts and posts,
// then after a barrier every patch receives and injects.
package exchange

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/notargets/picgrid/field"
	"github.com/notargets/picgrid/patch"
	"github.com/notargets/picgrid/types"
	"github.com/notargets/picgrid/utils"
)

// Picker selects the exchanged quantities of a field set, in the same order
// on every patch.
type Picker func(em *patch.ElectroMagn) []*field.Field

var (
	Densities Picker = (*patch.ElectroMagn).Currents
	Magnetic  Picker = (*patch.ElectroMagn).Magnetic
)

type message struct {
	field, face int
	data        []float64
	packed      []byte
}

type Transport struct {
	dom   *patch.Domain
	mb    *utils.MailBox[message]
	codec *Codec // Raw copies when nil
	// Traffic counters: payload as float64 and as sent
	rawBytes, sentBytes atomic.Int64
}

func NewTransport(dom *patch.Domain, codec *Codec) *Transport {
	return &Transport{
		dom:   dom,
		mb:    utils.NewMailBox[message](len(dom.Patches)),
		codec: codec,
	}
}

// Traffic reports the bytes moved so far, before and after compression.
func (tr *Transport) Traffic() (raw, sent int64) {
	return tr.rawBytes.Load(), tr.sentBytes.Load()
}

// SumDensities folds the deposits made in ghost cells back into the
// neighbours, so that Jx, Jy, Jz and Rho hold the full sum on every point
// shared by two patches.
func (tr *Transport) SumDensities() {
	tr.Sum(Densities, tr.dom.Params.Oversize)
}

// ExchangeFields refreshes the ghost layers of the magnetic field.
func (tr *Transport) ExchangeFields() {
	tr.Exchange(Magnetic, tr.dom.Params.Oversize)
}

// Sum runs the overlap-add exchange one axis after the other. Slabs span the
// full extent of the other axes, so the corner contributions are carried by
// the later axes.
func (tr *Transport) Sum(pick Picker, ghost []int) {
	for axis := 0; axis < tr.dom.Params.NDim(); axis++ {
		g := ghost[axis]
		tr.parallel(func(p *patch.Patch) {
			fields := pick(p.EM)
			for _, f := range fields {
				for side := 0; side < 2; side++ {
					f.CreateSumSubFields(axis, side, g)
					f.ExtractFieldsSum(axis, side, g)
				}
			}
			tr.post(p, fields, axis)
		})
		tr.parallel(func(p *patch.Patch) {
			fields := pick(p.EM)
			tr.receive(p, fields)
			for _, f := range fields {
				for side := 0; side < 2; side++ {
					if tr.receives(p, axis, side) {
						f.InjectFieldsSum(axis, side, g)
					}
				}
			}
		})
	}
}

// Exchange overwrites the ghost layers of every axis with the neighbours'
// interior points.
func (tr *Transport) Exchange(pick Picker, ghost []int) {
	for axis := 0; axis < tr.dom.Params.NDim(); axis++ {
		g := ghost[axis]
		tr.parallel(func(p *patch.Patch) {
			fields := pick(p.EM)
			for _, f := range fields {
				for side := 0; side < 2; side++ {
					f.CreateSubFields(axis, side, g)
					f.ExtractFieldsExch(axis, side, g)
				}
			}
			tr.post(p, fields, axis)
		})
		tr.parallel(func(p *patch.Patch) {
			fields := pick(p.EM)
			tr.receive(p, fields)
			for _, f := range fields {
				for side := 0; side < 2; side++ {
					if tr.receives(p, axis, side) {
						f.InjectFieldsExch(axis, side, g)
					}
				}
			}
		})
	}
}

// receives reports whether a neighbour sends toward side into p, that is
// whether p has a neighbour on the opposite side.
func (tr *Transport) receives(p *patch.Patch, axis, side int) bool {
	return p.Neighbours[2*axis+1-side] != patch.NoNeighbour
}

// parallel runs fn once per patch and returns when all have finished.
func (tr *Transport) parallel(fn func(p *patch.Patch)) {
	var wg sync.WaitGroup
	for _, p := range tr.dom.Patches {
		wg.Add(1)
		go func(p *patch.Patch) {
			defer wg.Done()
			fn(p)
		}(p)
	}
	wg.Wait()
}

// post sends the send slab of each face to the neighbour there, addressed
// to the receive slab of the opposite face.
func (tr *Transport) post(p *patch.Patch, fields []*field.Field, axis int) {
	for k, f := range fields {
		for side := 0; side < 2; side++ {
			nb := p.Neighbours[2*axis+side]
			if nb == patch.NoNeighbour {
				continue
			}
			var (
				buf = f.SendField(axis, side).Data()
				msg = message{field: k, face: 2*axis + 1 - side, data: buf}
			)
			tr.rawBytes.Add(int64(8 * len(buf)))
			if tr.codec != nil {
				var err error
				if msg.packed, err = tr.codec.Encode(buf); err != nil {
					panic(fmt.Errorf("patch %d, field %s: %w", p.Number, f.Name, err))
				}
				msg.data = nil
				tr.sentBytes.Add(int64(len(msg.packed)))
			} else {
				tr.sentBytes.Add(int64(8 * len(buf)))
			}
			tr.mb.PostMessage(p.Number, nb, msg)
		}
	}
	tr.mb.DeliverMyMessages(p.Number)
}

func (tr *Transport) receive(p *patch.Patch, fields []*field.Field) {
	for _, msg := range tr.mb.ReceiveMyMessages(p.Number) {
		var (
			f   = fields[msg.field]
			dst = f.RecvField(msg.face/2, msg.face%2).Data()
		)
		if msg.packed != nil {
			if err := tr.codec.Decode(msg.packed, dst); err != nil {
				panic(fmt.Errorf("patch %d, field %s, face %s: %w",
					p.Number, f.Name, types.FaceNames[msg.face], err))
			}
			continue
		}
		if len(msg.data) != len(dst) {
			panic(fmt.Errorf("patch %d, field %s, face %s: received %d values into a buffer of %d",
				p.Number, f.Name, types.FaceNames[msg.face], len(msg.data), len(dst)))
		}
		copy(dst, msg.data)
	}
	tr.mb.ClearMyMessages(p.Number)
}
