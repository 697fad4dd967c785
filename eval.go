package stacklstm

import (
	"math/rand"

	"github.com/unixpickle/anyvec"
)

// EvalConfig configures an accuracy measurement.
type EvalConfig struct {
	// TestDataSize is the number of sampled sequences.
	TestDataSize int

	// Source sequence lengths are drawn uniformly from
	// [MinLength, MaxLength].
	MinLength int
	MaxLength int
}

// Evaluate measures greedy decoding accuracy on randomly
// sampled reversal sequences.
//
// Decoding feeds the model's own predictions back in and
// stops at the first mistake.
// Fine accuracy averages the fraction of each output
// sequence produced before the first mistake; coarse
// accuracy is the fraction of sequences reproduced
// perfectly.
func Evaluate(b *Block, v Vocab, cfg EvalConfig, rng *rand.Rand) (fine,
	coarse float64) {
	for i := 0; i < cfg.TestDataSize; i++ {
		length := cfg.MinLength + rng.Intn(cfg.MaxLength-cfg.MinLength+1)
		seq := RandomSequence(rng, length, v.SourceAlphabetSize)
		state := b.Start(1)
		var out anyvec.Vector
		for _, sym := range seq.InputSequence() {
			res := b.Step(state, []int{v.InputIndex(sym)}, InputMode)
			state = res.State()
			out = res.Output()
		}
		correct := 0
		for _, sym := range seq.OutputSequence() {
			predicted := anyvec.MaxIndex(out)
			if v.OutputSymbol(predicted) != sym {
				break
			}
			correct++
			res := b.Step(state, []int{predicted}, OutputMode)
			state = res.State()
			out = res.Output()
		}
		total := seq.OutputLen()
		fine += float64(correct) / float64(total)
		if correct == total {
			coarse++
		}
	}
	fine /= float64(cfg.TestDataSize)
	coarse /= float64(cfg.TestDataSize)
	return
}
