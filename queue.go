package stacklstm

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var q Queue
	serializer.RegisterTypedDeserializer(q.SerializerType(), DeserializeQueue)
}

// Queue is a Struct which implements a continuous FIFO
// queue of vectors.
//
// Pushed entries are appended at the back.
// Pop operations remove strength starting at the front,
// and reads summarize the frontmost unit of strength.
type Queue struct {
	VectorSize int
}

// DeserializeQueue deserializes a Queue.
func DeserializeQueue(d []byte) (*Queue, error) {
	var size serializer.Int
	if err := serializer.DeserializeAny(d, &size); err != nil {
		return nil, essentials.AddCtx("deserialize Queue", err)
	}
	return &Queue{VectorSize: int(size)}, nil
}

// DataSize returns the vector size.
func (q *Queue) DataSize() int {
	return q.VectorSize
}

// Step applies a pop followed by a push, then reads the
// front of the queue.
func (q *Queue) Step(values, strengths []anydiff.Res, pushVal, push,
	pop anydiff.Res, n int) ([]anydiff.Res, anydiff.Res) {
	newStrengths := append(popStrengths(strengths, pop, false), push)
	allValues := append(append([]anydiff.Res{}, values...), pushVal)
	read := readHead(allValues, newStrengths, n, false)
	return newStrengths, read
}

// SerializerType returns the unique ID used to serialize
// Queues with the serializer package.
func (q *Queue) SerializerType() string {
	return "github.com/unixpickle/stacklstm.Queue"
}

// Serialize serializes the Queue.
func (q *Queue) Serialize() ([]byte, error) {
	return serializer.SerializeAny(serializer.Int(q.VectorSize))
}
