package stacklstm

import (
	"math"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec/anyvec64"
)

type structOp struct {
	Value []float64
	Push  float64
	Pop   float64
}

func TestStackReads(t *testing.T) {
	runStructOps(t, &Stack{VectorSize: 2}, []structOp{
		{[]float64{1, 2}, 1, 0},
		{[]float64{3, 4}, 1, 0},
		{[]float64{5, 6}, 0.5, 1},
		{[]float64{0, 0}, 0, 0},
	}, [][]float64{
		{1, 2},
		{3, 4},
		{3, 4},
		{3, 4},
	})
}

func TestStackZeroPush(t *testing.T) {
	runStructOps(t, &Stack{VectorSize: 2}, []structOp{
		{[]float64{7, 8}, 0, 0.3},
	}, [][]float64{
		{0, 0},
	})
}

func TestStackPopMonotonic(t *testing.T) {
	for _, test := range []struct {
		Pop      float64
		Expected []float64
	}{
		{0.7, []float64{0.5, 1}},
		{0.9, []float64{0.3, 0.6}},
	} {
		runStructOps(t, &Stack{VectorSize: 2}, []structOp{
			{[]float64{1, 2}, 1, 0},
			{[]float64{3, 4}, 0.2, 0},
			{[]float64{0, 0}, 0, test.Pop},
		}, [][]float64{
			{1, 2},
			{0.8 + 3*0.2, 1.6 + 4*0.2},
			test.Expected,
		})
	}
}

func TestStackGrad(t *testing.T) {
	testStructGrad(t, &Stack{VectorSize: 3})
}

func runStructOps(t *testing.T, st Struct, ops []structOp, expected [][]float64) {
	c := anyvec64.DefaultCreator{}
	var values, strengths []anydiff.Res
	for i, op := range ops {
		pushVal := anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(op.Value)))
		push := anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(
			[]float64{op.Push})))
		pop := anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(
			[]float64{op.Pop})))
		newStrengths, read := st.Step(values, strengths, pushVal, push, pop, 1)
		strengths = newStrengths
		values = append(values, pushVal)
		actual := read.Output().Data().([]float64)
		for j, x := range expected[i] {
			if math.Abs(actual[j]-x) > 1e-5 {
				t.Errorf("time %d: expected %v but got %v", i, expected[i],
					actual)
				break
			}
		}
	}
}

func testStructGrad(t *testing.T, st Struct) {
	c := anyvec64.DefaultCreator{}
	mkvar := func(d []float64) *anydiff.Var {
		return anydiff.NewVar(c.MakeVectorData(c.MakeNumericList(d)))
	}
	values := []*anydiff.Var{
		mkvar([]float64{1, -2, 0.5, 0.3, 1.2, -0.7}),
		mkvar([]float64{0.9, 0.1, -0.3, 2, -1, 0.25}),
	}
	strengths := []*anydiff.Var{
		mkvar([]float64{0.8, 0.6}),
		mkvar([]float64{0.3, 0.2}),
	}
	pushVal := mkvar([]float64{0.5, 1.5, -0.25, -1, 0.75, 2})
	push := mkvar([]float64{0.6, 0.4})
	pop := mkvar([]float64{0.45, 0.35})
	vars := append(append([]*anydiff.Var{}, values...), strengths...)
	vars = append(vars, pushVal, push, pop)

	ch := anydifftest.ResChecker{
		F: func() anydiff.Res {
			valReses := []anydiff.Res{values[0], values[1]}
			strReses := []anydiff.Res{strengths[0], strengths[1]}
			newStrengths, read := st.Step(valReses, strReses, pushVal, push,
				pop, 2)
			return anydiff.Concat(append([]anydiff.Res{read},
				newStrengths...)...)
		},
		V: vars,
	}
	ch.FullCheck(t)
}
