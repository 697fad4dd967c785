package stacklstm

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anyrnn"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var b Block
	serializer.RegisterTypedDeserializer(b.SerializerType(), DeserializeBlock)
}

// A Mode determines which side of a transduction a
// timestep belongs to.
type Mode int

const (
	// InputMode consumes input-side symbol indices.
	// The output distribution is still computed, but
	// callers ignore it.
	InputMode Mode = iota

	// OutputMode consumes output-side symbol indices: the
	// previous target symbol during training, or the
	// model's previous prediction during decoding.
	OutputMode
)

// A Block is a recurrent transducer whose controller
// drives a differentiable memory Struct.
//
// At every timestep, the controller reads a symbol
// embedding alongside the memory's current read vector,
// and produces a vector to write, push/pop strengths, and
// a log-probability distribution over output symbols.
type Block struct {
	// InSymbols and OutSymbols are embedding tables with
	// one row of EmbeddingSize components per vocabulary
	// index.
	InSymbols  *anydiff.Var
	OutSymbols *anydiff.Var

	EmbeddingSize int

	// Controller consumes the row-wise concatenation of a
	// symbol embedding and the memory read vector.
	Controller anyrnn.Block

	// The heads applied to the controller output.
	PushVal anynet.Layer
	Push    anynet.Layer
	Pop     anynet.Layer
	Out     anynet.Layer

	Memory Struct
}

// NewBlock creates a Block with randomized parameters.
//
// The controller is a single-layer LSTM with hidden units
// as its state size.
// The push/pop heads squash their outputs with a logistic
// sigmoid, so the two strengths gate independently.
func NewBlock(c anyvec.Creator, vocab Vocab, embeddingSize, hiddenUnits int,
	memory Struct) *Block {
	inSymbols := anydiff.NewVar(c.MakeVector(vocab.InputSize() * embeddingSize))
	outSymbols := anydiff.NewVar(c.MakeVector(vocab.OutputSize() * embeddingSize))
	anyvec.Rand(inSymbols.Vector, anyvec.Normal, nil)
	anyvec.Rand(outSymbols.Vector, anyvec.Normal, nil)
	return &Block{
		InSymbols:     inSymbols,
		OutSymbols:    outSymbols,
		EmbeddingSize: embeddingSize,
		Controller: anyrnn.NewLSTM(c, embeddingSize+memory.DataSize(),
			hiddenUnits),
		PushVal: anynet.Net{
			anynet.NewFC(c, hiddenUnits, memory.DataSize()),
			anynet.Tanh,
		},
		Push: anynet.Net{
			anynet.NewFC(c, hiddenUnits, 1),
			anynet.Sigmoid,
		},
		Pop: anynet.Net{
			anynet.NewFC(c, hiddenUnits, 1),
			anynet.Sigmoid,
		},
		Out: anynet.Net{
			anynet.NewFC(c, hiddenUnits, vocab.OutputSize()),
			anynet.LogSoftmax,
		},
		Memory: memory,
	}
}

// DeserializeBlock deserializes a Block.
func DeserializeBlock(d []byte) (*Block, error) {
	var res Block
	var embSize serializer.Int
	var inSymbols, outSymbols *anyvecsave.S
	err := serializer.DeserializeAny(d, &embSize, &inSymbols, &outSymbols,
		&res.Controller, &res.Memory, &res.PushVal, &res.Push, &res.Pop,
		&res.Out)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Block", err)
	}
	res.EmbeddingSize = int(embSize)
	res.InSymbols = anydiff.NewVar(inSymbols.Vector)
	res.OutSymbols = anydiff.NewVar(outSymbols.Vector)
	return &res, nil
}

// Start produces the start state for a batch of n
// sequences: a fresh controller state, an empty memory,
// and a zero read vector.
func (b *Block) Start(n int) *State {
	c := b.creator()
	return &State{
		Controller: b.Controller.Start(n),
		Read:       c.MakeVector(n * b.Memory.DataSize()),
		N:          n,
	}
}

// Step applies the block for one timestep to a batch of
// symbol indices, one per batch element.
//
// The mode selects which embedding table the indices refer
// to.
// Step does not modify s; it returns a Res from which the
// new state and the output distribution can be read.
func (b *Block) Step(s *State, symbols []int, mode Mode) *Res {
	if len(symbols) != s.N {
		panic(fmt.Sprintf("batch size should be %d, but got %d", s.N,
			len(symbols)))
	}
	n := s.N
	res := &Res{
		readPool: anydiff.NewVar(s.Read),
		valPools: poolVars(s.Values),
		strPools: poolVars(s.Strengths),
	}
	emb := b.embed(mode, symbols)
	res.mixed = anynet.ConcatMixer{}.Mix(emb, res.readPool, n)
	res.ctrlRes = b.Controller.Step(s.Controller, res.mixed.Output())
	res.hiddenPool = anydiff.NewVar(res.ctrlRes.Output())

	res.pushVal = b.PushVal.Apply(res.hiddenPool, n)
	push := b.Push.Apply(res.hiddenPool, n)
	pop := b.Pop.Apply(res.hiddenPool, n)
	res.out = b.Out.Apply(res.hiddenPool, n)

	res.newStrengths, res.read = b.Memory.Step(poolReses(res.valPools),
		poolReses(res.strPools), res.pushVal, push, pop, n)

	values := make([]anyvec.Vector, 0, len(s.Values)+1)
	values = append(values, s.Values...)
	values = append(values, res.pushVal.Output())
	strengths := make([]anyvec.Vector, len(res.newStrengths))
	for i, x := range res.newStrengths {
		strengths[i] = x.Output()
	}
	res.outState = &State{
		Controller: res.ctrlRes.State(),
		Values:     values,
		Strengths:  strengths,
		Read:       res.read.Output(),
		N:          n,
	}
	res.v = anydiff.MergeVarSets(res.ctrlRes.Vars(), res.mixed.Vars(),
		res.out.Vars(), res.read.Vars())
	res.v.Del(res.readPool)
	res.v.Del(res.hiddenPool)
	for _, p := range res.valPools {
		res.v.Del(p)
	}
	for _, p := range res.strPools {
		res.v.Del(p)
	}
	return res
}

// PropagateStart back-propagates through the start state.
//
// The start read vector is a constant and the memory
// starts empty, so only the controller's initial state
// receives gradients.
func (b *Block) PropagateStart(s *Grad, g anydiff.Grad) {
	if s == nil || s.Controller == nil {
		return
	}
	b.Controller.PropagateStart(s.Controller, g)
}

// Parameters returns the block's parameters, starting
// with the embedding tables.
func (b *Block) Parameters() []*anydiff.Var {
	res := []*anydiff.Var{b.InSymbols, b.OutSymbols}
	return append(res, anynet.AllParameters(b.Controller, b.PushVal, b.Push,
		b.Pop, b.Out)...)
}

// SerializerType returns the unique ID used to serialize
// Blocks with the serializer package.
func (b *Block) SerializerType() string {
	return "github.com/unixpickle/stacklstm.Block"
}

// Serialize serializes the block.
//
// The controller, memory, and heads must all be
// serializer.Serializers.
func (b *Block) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		serializer.Int(b.EmbeddingSize),
		&anyvecsave.S{Vector: b.InSymbols.Vector},
		&anyvecsave.S{Vector: b.OutSymbols.Vector},
		b.Controller,
		b.Memory,
		b.PushVal,
		b.Push,
		b.Pop,
		b.Out,
	)
}

func (b *Block) creator() anyvec.Creator {
	return b.InSymbols.Vector.Creator()
}

// embed looks up a batch of symbol indices in the
// embedding table selected by mode.
func (b *Block) embed(mode Mode, symbols []int) anydiff.Res {
	table := b.InSymbols
	if mode == OutputMode {
		table = b.OutSymbols
	}
	rows := make([]anydiff.Res, len(symbols))
	for i, idx := range symbols {
		start := idx * b.EmbeddingSize
		rows[i] = anydiff.Slice(table, start, start+b.EmbeddingSize)
	}
	return anydiff.Concat(rows...)
}

// A State is the state of a Block for a batch of n
// sequences.
//
// States are immutable: stepping a Block produces a new
// State and leaves the old one usable.
type State struct {
	Controller anyrnn.State

	// One entry per elapsed timestep, ordered by insertion
	// time.
	// Values are n rows of DataSize components; strengths
	// have one component per batch element.
	Values    []anyvec.Vector
	Strengths []anyvec.Vector

	// Read is the memory's read vector after the last
	// timestep.
	Read anyvec.Vector

	N int
}

// A Grad is an upstream gradient for a State, used while
// back-propagating through a sequence of steps.
type Grad struct {
	Controller anyrnn.StateGrad

	// Per-entry gradients, aligned with State.Values and
	// State.Strengths.
	Values    []anyvec.Vector
	Strengths []anyvec.Vector

	Read anyvec.Vector
}

// A Res is the output of one Block step.
type Res struct {
	outState *State

	readPool   *anydiff.Var
	valPools   []*anydiff.Var
	strPools   []*anydiff.Var
	hiddenPool *anydiff.Var

	mixed   anydiff.Res
	ctrlRes anyrnn.Res

	pushVal      anydiff.Res
	newStrengths []anydiff.Res
	read         anydiff.Res
	out          anydiff.Res

	v anydiff.VarSet
}

// State returns the state after the step.
func (r *Res) State() *State {
	return r.outState
}

// Output returns the batch of output log-probabilities,
// one OutputSize row per batch element.
func (r *Res) Output() anyvec.Vector {
	return r.out.Output()
}

// Vars returns the variables upon which the step depends.
func (r *Res) Vars() anydiff.VarSet {
	return r.v
}

// Propagate back-propagates through the step.
//
// The upstream vector u is for the output
// log-probabilities and may be nil.
// The upstream s is for the output state and may also be
// nil; it should not be used again after the call.
//
// Propagate returns the downstream gradient for the state
// before the step.
// Entry value gradients are carried backward through time
// until they reach the step which wrote the entry.
func (r *Res) Propagate(u anyvec.Vector, s *Grad, g anydiff.Grad) *Grad {
	pools := make([]*anydiff.Var, 0, len(r.valPools)+len(r.strPools)+2)
	pools = append(pools, r.readPool, r.hiddenPool)
	pools = append(pools, r.valPools...)
	pools = append(pools, r.strPools...)
	for _, p := range pools {
		g[p] = p.Vector.Creator().MakeVector(p.Vector.Len())
	}

	if u != nil {
		r.out.Propagate(u, g)
	}
	if s != nil {
		if s.Read != nil {
			r.read.Propagate(s.Read, g)
		}
		for i, ns := range r.newStrengths {
			if s.Strengths[i] != nil {
				ns.Propagate(s.Strengths[i], g)
			}
		}
		if last := len(s.Values) - 1; s.Values[last] != nil {
			r.pushVal.Propagate(s.Values[last], g)
		}
	}

	var ctrlUp anyrnn.StateGrad
	if s != nil {
		ctrlUp = s.Controller
	}
	mixedDown, ctrlDown := r.ctrlRes.Propagate(g[r.hiddenPool], ctrlUp, g)
	r.mixed.Propagate(mixedDown, g)

	down := &Grad{
		Controller: ctrlDown,
		Read:       g[r.readPool],
		Values:     make([]anyvec.Vector, len(r.valPools)),
		Strengths:  make([]anyvec.Vector, len(r.strPools)),
	}
	for i, p := range r.valPools {
		down.Values[i] = g[p]
		if s != nil && s.Values[i] != nil {
			down.Values[i].Add(s.Values[i])
		}
	}
	for i, p := range r.strPools {
		down.Strengths[i] = g[p]
	}
	for _, p := range pools {
		delete(g, p)
	}
	return down
}

func poolVars(vecs []anyvec.Vector) []*anydiff.Var {
	res := make([]*anydiff.Var, len(vecs))
	for i, v := range vecs {
		res[i] = anydiff.NewVar(v)
	}
	return res
}

func poolReses(vars []*anydiff.Var) []anydiff.Res {
	res := make([]anydiff.Res, len(vars))
	for i, v := range vars {
		res[i] = v
	}
	return res
}
