package stacklstm

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestSequence(t *testing.T) {
	seq := Sequence{Source: []int{3, 4, 5}}
	if in := seq.InputSequence(); !reflect.DeepEqual(in, []int{0, 3, 4, 5, 1}) {
		t.Errorf("unexpected input sequence: %v", in)
	}
	if out := seq.OutputSequence(); !reflect.DeepEqual(out, []int{5, 4, 3, 2}) {
		t.Errorf("unexpected output sequence: %v", out)
	}
	if seq.OutputLen() != 4 {
		t.Errorf("unexpected output length: %d", seq.OutputLen())
	}
}

func TestEmptySequence(t *testing.T) {
	seq := Sequence{}
	if in := seq.InputSequence(); !reflect.DeepEqual(in, []int{0, 1}) {
		t.Errorf("unexpected input sequence: %v", in)
	}
	if out := seq.OutputSequence(); !reflect.DeepEqual(out, []int{2}) {
		t.Errorf("unexpected output sequence: %v", out)
	}
	if seq.OutputLen() != 1 {
		t.Errorf("unexpected output length: %d", seq.OutputLen())
	}
}

func TestRandomSequence(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seq := RandomSequence(rng, 50, 4)
	if len(seq.Source) != 50 {
		t.Fatalf("unexpected length: %d", len(seq.Source))
	}
	for _, sym := range seq.Source {
		if sym < FirstOrdinarySymbol || sym >= FirstOrdinarySymbol+4 {
			t.Errorf("symbol out of range: %d", sym)
		}
	}
}

func TestVocab(t *testing.T) {
	v := Vocab{SourceAlphabetSize: 4}
	if v.InputSize() != 7 {
		t.Errorf("unexpected input size: %d", v.InputSize())
	}
	if v.OutputSize() != 5 {
		t.Errorf("unexpected output size: %d", v.OutputSize())
	}
	if v.OutputIndex(EndSymbol) != 4 {
		t.Errorf("unexpected end index: %d", v.OutputIndex(EndSymbol))
	}
	for _, sym := range []int{3, 4, 5, 6, EndSymbol} {
		if s := v.OutputSymbol(v.OutputIndex(sym)); s != sym {
			t.Errorf("symbol %d mapped to %d", sym, s)
		}
	}
}

func TestParseRange(t *testing.T) {
	min, max, err := ParseRange("8,64")
	if err != nil || min != 8 || max != 64 {
		t.Errorf("got %d,%d (err %v)", min, max, err)
	}
	if _, _, err := ParseRange("0,0"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, bad := range []string{"5", "a,b", "9,3", "-1,5", "1,2,3"} {
		if _, _, err := ParseRange(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
