package stacklstm

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var s Stack
	serializer.RegisterTypedDeserializer(s.SerializerType(), DeserializeStack)
}

// Stack is a Struct which implements a continuous stack
// of vectors.
//
// Pushed entries are appended at the top.
// Pop operations remove strength starting at the top, and
// reads summarize the topmost unit of strength.
type Stack struct {
	VectorSize int
}

// DeserializeStack deserializes a Stack.
func DeserializeStack(d []byte) (*Stack, error) {
	var size serializer.Int
	if err := serializer.DeserializeAny(d, &size); err != nil {
		return nil, essentials.AddCtx("deserialize Stack", err)
	}
	return &Stack{VectorSize: int(size)}, nil
}

// DataSize returns the vector size.
func (s *Stack) DataSize() int {
	return s.VectorSize
}

// Step applies a pop followed by a push, then reads the
// top of the stack.
//
// The pop budget is propagated downward from the top: each
// entry absorbs what it can of the requested pop strength,
// and the remainder continues to the next-older entry.
// The read is the strength-weighted sum of the topmost
// unit of cumulative strength.
func (s *Stack) Step(values, strengths []anydiff.Res, pushVal, push,
	pop anydiff.Res, n int) ([]anydiff.Res, anydiff.Res) {
	newStrengths := append(popStrengths(strengths, pop, true), push)
	allValues := append(append([]anydiff.Res{}, values...), pushVal)
	read := readHead(allValues, newStrengths, n, true)
	return newStrengths, read
}

// SerializerType returns the unique ID used to serialize
// Stacks with the serializer package.
func (s *Stack) SerializerType() string {
	return "github.com/unixpickle/stacklstm.Stack"
}

// Serialize serializes the Stack.
func (s *Stack) Serialize() ([]byte, error) {
	return serializer.SerializeAny(serializer.Int(s.VectorSize))
}
