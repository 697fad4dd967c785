package stacklstm

import (
	"math"
	"math/rand"
	"testing"
)

func TestTrain(t *testing.T) {
	b, v := testBlock(&Stack{VectorSize: 3})
	cfg := TrainConfig{
		Iterations:     2,
		BatchSize:      2,
		BatchGroupSize: 2,
		MinLength:      1,
		MaxLength:      2,
		LearningRate:   0.001,
		ClipThreshold:  1,
	}
	avgs, err := Train(b, v, cfg, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatal(err)
	}
	if len(avgs) != cfg.Iterations {
		t.Fatalf("expected %d averages but got %d", cfg.Iterations, len(avgs))
	}
	for i, avg := range avgs {
		if math.IsNaN(avg) || math.IsInf(avg, 0) || avg < 0 {
			t.Errorf("bad average loss at group %d: %v", i, avg)
		}
	}
}
