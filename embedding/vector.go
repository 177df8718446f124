package embedding

import (
	"fmt"

	"github.com/viant/bintly"
)

// Vector is a stored embedding together with the identity of the provider
// that produced it. Vectors from different providers are not comparable.
type Vector struct {
	Provider string
	Values   []float32
}

// EncodeBinary encodes the vector to a binary stream.
func (v *Vector) EncodeBinary(stream *bintly.Writer) error {
	stream.String(v.Provider)
	stream.Int(len(v.Values))
	for _, f := range v.Values {
		stream.Float32(f)
	}
	return nil
}

// DecodeBinary decodes the vector from a binary stream.
func (v *Vector) DecodeBinary(stream *bintly.Reader) error {
	stream.String(&v.Provider)
	var n int
	stream.Int(&n)
	if n < 0 {
		return fmt.Errorf("invalid vector length %d", n)
	}
	v.Values = make([]float32, n)
	for i := 0; i < n; i++ {
		stream.Float32(&v.Values[i])
	}
	return nil
}

// Marshal serializes the vector to a byte buffer for storage.
func (v *Vector) Marshal() ([]byte, error) {
	writers := bintly.NewWriters()
	w := writers.Get()
	defer writers.Put(w)

	if err := v.EncodeBinary(w); err != nil {
		return nil, fmt.Errorf("encode vector: %w", err)
	}
	return w.Bytes(), nil
}

// Unmarshal restores a vector from its serialized form.
func (v *Vector) Unmarshal(data []byte) error {
	readers := bintly.NewReaders()
	r := readers.Get()
	defer readers.Put(r)

	if err := r.FromBytes(data); err != nil {
		return fmt.Errorf("read vector bytes: %w", err)
	}
	return v.DecodeBinary(r)
}
