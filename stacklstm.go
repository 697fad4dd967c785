// Package stacklstm implements recurrent sequence
// transducers which control a continuous, differentiable
// memory structure such as a stack of vectors.
//
// The memory structures in this package never physically
// remove entries.
// Instead, every entry carries a strength, and pop
// operations reduce the strengths of existing entries.
// This way, gradients can flow through the entire history
// of push and pop decisions.
package stacklstm

import (
	"github.com/unixpickle/anydiff"
)

// A Struct is a differentiable data structure which is
// advanced by one entry per timestep.
//
// A Struct itself is stateless; callers thread the entry
// values and strengths through successive calls to Step.
// All arguments are batched: values and pushVal contain n
// rows of DataSize components, while strengths, push, and
// pop contain one component per batch element.
type Struct interface {
	// DataSize returns the width of stored vectors.
	DataSize() int

	// Step applies one timestep.
	//
	// It takes the values and strengths of the existing
	// entries, the vector being written this timestep, and
	// the push/pop strengths (each in [0, 1]).
	//
	// It returns the updated strengths, including the
	// strength of the newly-written entry as the final
	// element, and the read vector summarizing the
	// structure after the update.
	Step(values, strengths []anydiff.Res, pushVal, push, pop anydiff.Res,
		n int) (newStrengths []anydiff.Res, read anydiff.Res)
}

// minStrength computes the component-wise minimum,
// min(a,b) = a - relu(a-b).
func minStrength(a, b anydiff.Res) anydiff.Res {
	return anydiff.Sub(a, anydiff.ClipPos(anydiff.Sub(a, b)))
}

// scaleRows scales each of the n rows of vec by the
// corresponding component of scales.
func scaleRows(vec, scales anydiff.Res, n int) anydiff.Res {
	c := vec.Output().Creator()
	cols := vec.Output().Len() / n
	onesData := make([]float64, cols)
	for i := range onesData {
		onesData[i] = 1
	}
	ones := anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(onesData)))
	scaleMat := &anydiff.Matrix{Data: scales, Rows: n, Cols: 1}
	onesMat := &anydiff.Matrix{Data: ones, Rows: 1, Cols: cols}
	rep := anydiff.MatMul(false, false, scaleMat, onesMat)
	return anydiff.Mul(rep.Data, vec)
}

// popStrengths reduces the entries' strengths by a total
// of pop units of mass.
//
// The pop budget is consumed starting at the last entry if
// fromBack is true, and at the first entry otherwise.
// Whatever budget an entry cannot absorb carries over to
// its neighbor.
func popStrengths(strengths []anydiff.Res, pop anydiff.Res,
	fromBack bool) []anydiff.Res {
	res := make([]anydiff.Res, len(strengths))
	budget := pop
	for j := range strengths {
		i := j
		if fromBack {
			i = len(strengths) - 1 - j
		}
		res[i] = anydiff.ClipPos(anydiff.Sub(strengths[i], budget))
		budget = anydiff.ClipPos(anydiff.Sub(budget, strengths[i]))
	}
	return res
}

// readHead computes the weighted sum of entry values where
// only the first unit of cumulative strength contributes.
//
// The unit of strength is gathered starting at the last
// entry if fromBack is true, and at the first entry
// otherwise.
func readHead(values, strengths []anydiff.Res, n int, fromBack bool) anydiff.Res {
	c := values[0].Output().Creator()
	read := anydiff.Res(anydiff.NewConst(c.MakeVector(values[0].Output().Len())))
	coverage := anydiff.Res(anydiff.NewConst(c.MakeVector(n)))
	for j := range values {
		i := j
		if fromBack {
			i = len(values) - 1 - j
		}
		weight := minStrength(strengths[i],
			anydiff.ClipPos(anydiff.Complement(coverage)))
		read = anydiff.Add(read, scaleRows(values[i], weight, n))
		coverage = anydiff.Add(coverage, strengths[i])
	}
	return read
}
