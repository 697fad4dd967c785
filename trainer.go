package stacklstm

import (
	"fmt"
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
)

// A Batch is a batch of equally-long sequences arranged
// symbol-major: Inputs[t] holds the input-side index of
// every sequence at timestep t, and Outputs[t] the
// output-side index.
type Batch struct {
	Inputs  [][]int
	Outputs [][]int
}

// NewBatch arranges sequences into a Batch.
//
// All sequences must have the same source length, so that
// the batch can be stepped in lockstep.
func NewBatch(v Vocab, seqs []Sequence) *Batch {
	length := len(seqs[0].Source)
	for _, s := range seqs {
		if len(s.Source) != length {
			panic("sequence lengths must match")
		}
	}
	b := &Batch{
		Inputs:  make([][]int, length+2),
		Outputs: make([][]int, length+1),
	}
	for i := range b.Inputs {
		b.Inputs[i] = make([]int, len(seqs))
	}
	for i := range b.Outputs {
		b.Outputs[i] = make([]int, len(seqs))
	}
	for j, s := range seqs {
		for i, sym := range s.InputSequence() {
			b.Inputs[i][j] = v.InputIndex(sym)
		}
		for i, sym := range s.OutputSequence() {
			b.Outputs[i][j] = v.OutputIndex(sym)
		}
	}
	return b
}

// A Trainer computes gradients of the total negative
// log-likelihood of a Batch under a Block.
//
// The prediction for an output symbol is read before the
// symbol itself is fed back in, so training uses teacher
// forcing.
type Trainer struct {
	Block  *Block
	Cost   anynet.Cost
	Params []*anydiff.Var

	// LastCost is the total cost from the previous call to
	// Gradient, summed over symbols and batch elements.
	LastCost anyvec.Numeric
}

// Gradient computes the gradient of the batch's total cost
// with respect to t.Params.
//
// It also sets t.LastCost.
func (t *Trainer) Gradient(b *Batch) anydiff.Grad {
	grad := anydiff.NewGrad(t.Params...)
	c := t.Block.creator()
	n := len(b.Inputs[0])

	state := t.Block.Start(n)
	var reses []*Res
	var upstreams []anyvec.Vector
	step := func(syms []int, mode Mode) {
		r := t.Block.Step(state, syms, mode)
		reses = append(reses, r)
		upstreams = append(upstreams, nil)
		state = r.State()
	}
	for _, syms := range b.Inputs {
		step(syms, InputMode)
	}
	total := c.MakeVector(n)
	for _, syms := range b.Outputs {
		u, cost := t.costUpstream(reses[len(reses)-1], syms, n)
		upstreams[len(upstreams)-1] = u
		total.Add(cost)
		step(syms, OutputMode)
	}
	t.LastCost = anyvec.Sum(total)

	var sg *Grad
	for i := len(reses) - 1; i >= 0; i-- {
		if sg == nil && upstreams[i] == nil {
			continue
		}
		sg = reses[i].Propagate(upstreams[i], sg, grad)
	}
	t.Block.PropagateStart(sg, grad)
	return grad
}

// costUpstream computes the upstream gradient for a step's
// output log-probabilities given the target indices, along
// with the per-sequence cost values.
func (t *Trainer) costUpstream(r *Res, targets []int,
	n int) (anyvec.Vector, anyvec.Vector) {
	c := t.Block.creator()
	outLen := r.Output().Len()
	cols := outLen / n
	desired := make([]float64, outLen)
	for i, idx := range targets {
		desired[i*cols+idx] = 1
	}
	desiredRes := anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(desired)))
	outPool := anydiff.NewVar(r.Output())
	cost := t.Cost.Cost(desiredRes, outPool, n)

	g := anydiff.Grad{outPool: c.MakeVector(outLen)}
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	cost.Propagate(c.MakeVectorData(c.MakeNumericList(ones)), g)
	return g[outPool], cost.Output()
}

// A Clipper is an anysgd.Transformer which scales down
// gradients whose overall euclidean norm exceeds
// Threshold.
type Clipper struct {
	Threshold float64
}

// Transform clips the gradient in place.
func (c *Clipper) Transform(g anydiff.Grad) anydiff.Grad {
	var squares float64
	var creator anyvec.Creator
	for _, v := range g {
		creator = v.Creator()
		norm := numericToFloat(anyvec.Norm(v))
		squares += norm * norm
	}
	norm := math.Sqrt(squares)
	if norm > c.Threshold {
		g.Scale(creator.MakeNumeric(c.Threshold / norm))
	}
	return g
}

func numericToFloat(num anyvec.Numeric) float64 {
	switch num := num.(type) {
	case float32:
		return float64(num)
	case float64:
		return num
	}
	panic(fmt.Sprintf("unsupported numeric type: %T", num))
}
