package facet

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/soypat/axial"
	"github.com/soypat/axial/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// FixFace returns a repaired copy of f. Trimmed and planar loops are made
// counter-clockwise in parameter space and gaps between consecutive edges
// larger than precision are reported.
func (k *Kernel) FixFace(f kernel.Face, precision float64) (kernel.Face, error) {
	ff, ok := asFace(f)
	if !ok {
		return nil, errForeign("fix face")
	}
	nf := *ff
	nf.loop = append([]coedge(nil), ff.loop...)
	nf.tess = nil
	if nf.kind == revolvedFace || nf.kind == blendFace {
		// Loops of swept faces are open across the seam.
		return &nf, nil
	}
	for i, c := range nf.loop {
		next := nf.loop[(i+1)%len(nf.loop)]
		if gap := r3.Norm(r3.Sub(c.end(), next.start())); gap > precision {
			return nil, fmt.Errorf("fix face: gap %g between edges %d and %d exceeds %g: %w",
				gap, i, (i+1)%len(nf.loop), precision, axial.ErrConstruction)
		}
	}
	if nf.kind == patchFace {
		return &nf, nil
	}
	area, err := nf.loopArea()
	if err != nil {
		return nil, fmt.Errorf("fix face: %w", err)
	}
	if area < 0 {
		reverseLoop(nf.loop)
	}
	return &nf, nil
}

func reverseLoop(loop []coedge) {
	for i, j := 0, len(loop)-1; i < j; i, j = i+1, j-1 {
		loop[i], loop[j] = loop[j], loop[i]
	}
	for i := range loop {
		loop[i].rev = !loop[i].rev
	}
}

// FixSolid returns a repaired copy of s. Vertices closer than precision are
// welded and each solid is oriented so that its enclosed volume is positive.
func (k *Kernel) FixSolid(s kernel.Shape, precision float64) (kernel.Shape, error) {
	sh, ok := asShape(s)
	if !ok {
		return nil, errForeign("fix solid")
	}
	cp, _ := sh.clone()
	moved := weldShape(cp, precision, 1)
	for i, so := range cp.solids {
		if err := orient(so); err != nil {
			return nil, fmt.Errorf("fix solid %d: %w", i, err)
		}
	}
	log.WithFields(log.Fields{"solids": len(cp.solids), "welded": moved}).Debug("fix solid")
	return cp, nil
}

// orient flips every face of so when its tessellation encloses a negative
// volume.
func orient(so *solid) error {
	m, err := meshFaces(so.faces())
	if err != nil {
		return err
	}
	if m.Volume() >= 0 {
		return nil
	}
	for _, sh := range so.shells {
		for _, f := range sh.faces {
			f.flip = !f.flip
			f.tess = nil
		}
	}
	return nil
}
