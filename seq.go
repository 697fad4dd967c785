package stacklstm

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Reserved symbols.
// Ordinary symbols start at FirstOrdinarySymbol and are
// drawn from a configurable alphabet.
const (
	StartSymbol     = 0
	SeparatorSymbol = 1
	EndSymbol       = 2

	FirstOrdinarySymbol = 3
)

// A Vocab maps symbols to dense indices for the input and
// output sides of a transduction.
//
// The input side covers the reserved symbols and the
// ordinary alphabet.
// The output side covers the ordinary alphabet and the end
// marker, since a model never emits StartSymbol or
// SeparatorSymbol.
//
// A Vocab is immutable and should be constructed once per
// run.
type Vocab struct {
	SourceAlphabetSize int
}

// InputSize returns the number of input-side indices.
func (v Vocab) InputSize() int {
	return v.SourceAlphabetSize + FirstOrdinarySymbol
}

// OutputSize returns the number of output-side indices.
func (v Vocab) OutputSize() int {
	return v.SourceAlphabetSize + 1
}

// InputIndex returns the input-side index of a symbol.
func (v Vocab) InputIndex(symbol int) int {
	return symbol
}

// OutputIndex returns the output-side index of a symbol.
// The symbol must be an ordinary symbol or EndSymbol.
func (v Vocab) OutputIndex(symbol int) int {
	if symbol == EndSymbol {
		return v.SourceAlphabetSize
	}
	return symbol - FirstOrdinarySymbol
}

// OutputSymbol is the inverse of OutputIndex.
func (v Vocab) OutputSymbol(index int) int {
	if index == v.SourceAlphabetSize {
		return EndSymbol
	}
	return index + FirstOrdinarySymbol
}

// A Sequence is a list of ordinary symbols together with
// the transduction it induces: the model reads the source
// bracketed by StartSymbol and SeparatorSymbol, and must
// produce the source reversed, followed by EndSymbol.
type Sequence struct {
	Source []int
}

// RandomSequence samples a Sequence of the given length
// with symbols drawn uniformly from the alphabet.
func RandomSequence(r *rand.Rand, length, alphabetSize int) Sequence {
	source := make([]int, length)
	for i := range source {
		source[i] = FirstOrdinarySymbol + r.Intn(alphabetSize)
	}
	return Sequence{Source: source}
}

// InputSequence returns the symbols fed to the model.
func (s Sequence) InputSequence() []int {
	res := make([]int, 0, len(s.Source)+2)
	res = append(res, StartSymbol)
	res = append(res, s.Source...)
	return append(res, SeparatorSymbol)
}

// OutputSequence returns the symbols the model must emit.
func (s Sequence) OutputSequence() []int {
	res := make([]int, 0, len(s.Source)+1)
	for i := len(s.Source) - 1; i >= 0; i-- {
		res = append(res, s.Source[i])
	}
	return append(res, EndSymbol)
}

// OutputLen returns the length of the output sequence.
func (s Sequence) OutputLen() int {
	return len(s.Source) + 1
}

// ParseRange parses a string of the form "min,max" into an
// inclusive range of sequence lengths.
func ParseRange(s string) (min, max int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("parse range %q: expected min,max", s)
	}
	min, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parse range %q: %s", s, err)
	}
	max, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("parse range %q: %s", s, err)
	}
	if min < 0 || max < min {
		return 0, 0, fmt.Errorf("parse range %q: bad bounds", s)
	}
	return
}
