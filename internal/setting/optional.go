package setting

import (
	"bytes"
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// noner is implemented by Optional. Set removes the key for values that
// report IsNone.
type noner interface {
	IsNone() bool
}

// Optional holds either a value of U or nothing. The zero Optional is
// empty. All codecs encode an empty Optional as null and a present one as
// the bare inner value.
type Optional[U any] struct {
	value U
	valid bool
}

func Some[U any](v U) Optional[U] {
	return Optional[U]{value: v, valid: true}
}

func None[U any]() Optional[U] {
	return Optional[U]{}
}

func (o Optional[U]) IsNone() bool { return !o.valid }

// Get returns the inner value and whether it is present.
func (o Optional[U]) Get() (U, bool) {
	return o.value, o.valid
}

// OrElse returns the inner value, or fallback when o is empty.
func (o Optional[U]) OrElse(fallback U) U {
	if !o.valid {
		return fallback
	}
	return o.value
}

func (o Optional[U]) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional[U]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[U]{}
		return nil
	}
	var v U
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

const (
	cborNull      = 0xf6
	cborUndefined = 0xf7
)

func (o Optional[U]) MarshalCBOR() ([]byte, error) {
	if !o.valid {
		return []byte{cborNull}, nil
	}
	return cborEnc.Marshal(o.value)
}

func (o *Optional[U]) UnmarshalCBOR(data []byte) error {
	if len(data) == 1 && (data[0] == cborNull || data[0] == cborUndefined) {
		*o = Optional[U]{}
		return nil
	}
	var v U
	if err := cborDec.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

func (o Optional[U]) MarshalYAML() (any, error) {
	if !o.valid {
		return nil, nil
	}
	return o.value, nil
}

func (o *Optional[U]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		*o = Optional[U]{}
		return nil
	}
	var v U
	if err := node.Decode(&v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

var _ cbor.Marshaler = Optional[int]{}
