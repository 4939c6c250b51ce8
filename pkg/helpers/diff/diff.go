// Package diff compares two YAML documents structurally.
package diff

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/google/go-cmp/cmp"
	"github.com/telekom/das-schiff-network-topology/pkg/helpers/slice"
	"gopkg.in/yaml.v2"
)

type (
	// YAML has three fundamental types. When unmarshaled into interface{},
	// they're represented like this.
	mapping  = map[interface{}]interface{}
	sequence = []interface{}
)

// Changes returns the parts of origin missing from final and the parts of
// final missing from origin, both as YAML. Empty buffers mean both documents
// are equal.
func Changes(origin, final []byte) (removed, added *bytes.Buffer, err error) {
	originContents, err := decode(origin)
	if err != nil {
		return nil, nil, err
	}
	finalContents, err := decode(final)
	if err != nil {
		return nil, nil, err
	}
	if removed, err = encode(missing(originContents, finalContents)); err != nil {
		return nil, nil, err
	}
	if added, err = encode(missing(finalContents, originContents)); err != nil {
		return nil, nil, err
	}
	return removed, added, nil
}

func decode(source []byte) (interface{}, error) {
	var contents interface{}
	if err := yaml.NewDecoder(bytes.NewReader(source)).Decode(&contents); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("couldn't decode source: %w", err)
	}
	return contents, nil
}

func encode(contents interface{}) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	if contents == nil {
		return buf, nil
	}
	if err := yaml.NewEncoder(buf).Encode(contents); err != nil {
		return nil, fmt.Errorf("couldn't serialize difference: %w", err)
	}
	return buf, nil
}

// missing returns the parts of from that into does not hold. Mappings are
// compared key by key, sequences element by element and scalars by value.
// Values of different YAML types never match.
func missing(from, into interface{}) interface{} {
	switch {
	case from == nil:
		return nil
	case into == nil:
		return from
	case IsMapping(from) && IsMapping(into):
		return missingMapping(from.(mapping), into.(mapping))
	case IsSequence(from) && IsSequence(into):
		return missingSequence(from.(sequence), into.(sequence))
	case IsScalar(from) && IsScalar(into) && cmp.Equal(from, into):
		return nil
	}
	return from
}

func missingSequence(from, into sequence) interface{} {
	result := sequence{}
	for _, item := range from {
		if !slice.Contains(into, item) {
			result = append(result, item)
		}
	}
	if len(result) > 0 {
		return result
	}
	return nil
}

func missingMapping(from, into mapping) interface{} {
	result := mapping{}
	for k, v := range from {
		other, ok := into[k]
		if !ok {
			result[k] = v
			continue
		}
		if m := missing(v, other); m != nil {
			result[k] = m
		}
	}
	if len(result) > 0 {
		return result
	}
	return nil
}

// IsMapping reports whether a type is a mapping in YAML, represented as a
// map[interface{}]interface{}.
func IsMapping(i interface{}) bool {
	_, is := i.(mapping)
	return is
}

// IsSequence reports whether a type is a sequence in YAML, represented as an
// []interface{}.
func IsSequence(i interface{}) bool {
	_, is := i.(sequence)
	return is
}

// IsScalar reports whether a type is a scalar value in YAML.
func IsScalar(i interface{}) bool {
	return !IsMapping(i) && !IsSequence(i)
}
