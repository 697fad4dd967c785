// Command reverse trains a stack-augmented LSTM to
// reverse random sequences of symbols, then measures its
// accuracy on longer sequences than it was trained on.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
	"github.com/unixpickle/stacklstm"
)

func main() {
	var hiddenUnits int
	var learningRate float64
	var iterations int
	var alphabetSize int
	var embeddingSize int
	var stackVecSize int
	var clipThreshold float64
	var batchSize int
	var batchGroupSize int
	var trainLens string
	var testLens string
	var testDataSize int
	var memory string
	var inFile string
	var outFile string
	var seed int64
	var use64Bit bool

	flag.IntVar(&hiddenUnits, "hidden", 256,
		"hidden units in the LSTM controller")
	flag.Float64Var(&learningRate, "rate", 0.001, "RMSProp learning rate")
	flag.IntVar(&iterations, "iters", 20, "number of batch groups to train")
	flag.IntVar(&alphabetSize, "alphabet", 128, "source alphabet size")
	flag.IntVar(&embeddingSize, "embedding", 64, "symbol embedding size")
	flag.IntVar(&stackVecSize, "stackvec", 256,
		"size of vectors stored in the memory structure")
	flag.Float64Var(&clipThreshold, "clip", 1, "gradient clipping threshold")
	flag.IntVar(&batchSize, "batch", 10, "batch size")
	flag.IntVar(&batchGroupSize, "groupsize", 100,
		"number of batches per batch group")
	flag.StringVar(&trainLens, "trainlens", "8,64",
		"range of source lengths during training")
	flag.StringVar(&testLens, "testlens", "65,128",
		"range of source lengths during testing")
	flag.IntVar(&testDataSize, "testsize", 1000, "number of test sequences")
	flag.StringVar(&memory, "memory", "stack",
		"memory structure (stack or queue)")
	flag.StringVar(&inFile, "in", "", "model file to resume from")
	flag.StringVar(&outFile, "out", "", "output file for trained parameters")
	flag.Int64Var(&seed, "seed", 0, "random seed (0 means use the clock)")
	flag.BoolVar(&use64Bit, "float64", false, "use 64-bit precision")
	flag.Parse()

	trainMin, trainMax, err := stacklstm.ParseRange(trainLens)
	if err != nil {
		essentials.Die(err)
	}
	testMin, testMax, err := stacklstm.ParseRange(testLens)
	if err != nil {
		essentials.Die(err)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var creator anyvec.Creator = anyvec32.CurrentCreator()
	if use64Bit {
		creator = anyvec64.CurrentCreator()
	}

	vocab := stacklstm.Vocab{SourceAlphabetSize: alphabetSize}
	var block *stacklstm.Block
	if inFile != "" {
		data, err := os.ReadFile(inFile)
		if err != nil {
			essentials.Die(err)
		}
		if err := serializer.DeserializeAny(data, &block); err != nil {
			essentials.Die(err)
		}
	} else {
		var memStruct stacklstm.Struct
		switch memory {
		case "stack":
			memStruct = &stacklstm.Stack{VectorSize: stackVecSize}
		case "queue":
			memStruct = &stacklstm.Queue{VectorSize: stackVecSize}
		default:
			essentials.Die("unknown memory structure:", memory)
		}
		block = stacklstm.NewBlock(creator, vocab, embeddingSize, hiddenUnits,
			memStruct)
	}

	cfg := stacklstm.TrainConfig{
		Iterations:     iterations,
		BatchSize:      batchSize,
		BatchGroupSize: batchGroupSize,
		MinLength:      trainMin,
		MaxLength:      trainMax,
		LearningRate:   learningRate,
		ClipThreshold:  clipThreshold,
	}
	if _, err := stacklstm.Train(block, vocab, cfg, rng); err != nil {
		essentials.Die(err)
	}

	if outFile != "" {
		data, err := serializer.SerializeAny(block)
		if err != nil {
			essentials.Die(err)
		}
		if err := os.WriteFile(outFile, data, 0644); err != nil {
			essentials.Die(err)
		}
		fmt.Printf("parameters saved to %s\n", outFile)
	}

	fmt.Println("testing...")
	fine, coarse := stacklstm.Evaluate(block, vocab, stacklstm.EvalConfig{
		TestDataSize: testDataSize,
		MinLength:    testMin,
		MaxLength:    testMax,
	}, rng)
	fmt.Printf("fine accuracy:   %.2f\n", fine)
	fmt.Printf("coarse accuracy: %.2f\n", coarse)
}
