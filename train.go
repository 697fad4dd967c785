package stacklstm

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anysgd"
)

// TrainConfig configures a training run.
type TrainConfig struct {
	// Iterations is the number of batch groups.
	Iterations int

	BatchSize      int
	BatchGroupSize int

	// Source sequence lengths are drawn uniformly from
	// [MinLength, MaxLength].
	MinLength int
	MaxLength int

	LearningRate  float64
	ClipThreshold float64
}

// Train trains the block with RMSProp on randomly sampled
// reversal batches, logging progress as it goes.
//
// Every sequence in a batch shares one sampled length.
//
// It returns the average loss per sequence of each batch
// group.
// Training stops early with an error if the loss stops
// being finite.
func Train(b *Block, v Vocab, cfg TrainConfig, rng *rand.Rand) ([]float64, error) {
	t := &Trainer{
		Block:  b,
		Cost:   anynet.DotCost{},
		Params: b.Parameters(),
	}
	clipper := &Clipper{Threshold: cfg.ClipThreshold}
	rmsProp := &anysgd.RMSProp{}
	c := b.creator()
	scaler := c.MakeNumeric(-cfg.LearningRate)

	var avgs []float64
	for group := 0; group < cfg.Iterations; group++ {
		fmt.Printf("batch group #%d...\n", group+1)
		var groupLoss float64
		for i := 0; i < cfg.BatchGroupSize; i++ {
			length := cfg.MinLength + rng.Intn(cfg.MaxLength-cfg.MinLength+1)
			seqs := make([]Sequence, cfg.BatchSize)
			for j := range seqs {
				seqs[j] = RandomSequence(rng, length, v.SourceAlphabetSize)
			}
			grad := t.Gradient(NewBatch(v, seqs))
			cost := numericToFloat(t.LastCost)
			if math.IsNaN(cost) || math.IsInf(cost, 0) {
				return avgs, fmt.Errorf("batch group %d: cost is not finite",
					group+1)
			}
			groupLoss += cost
			grad = rmsProp.Transform(clipper.Transform(grad))
			grad.Scale(scaler)
			grad.AddToVars()
		}
		avg := groupLoss / float64(cfg.BatchSize*cfg.BatchGroupSize)
		fmt.Printf("  average loss: %.2f\n", avg)
		avgs = append(avgs, avg)
	}
	return avgs, nil
}
