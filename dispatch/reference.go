package dispatch

import (
	"fmt"

	"bridge-rpc/objects"
	"bridge-rpc/types"
)

// referenceConverter gives a registered interface its wire representation:
// marshalling an instance inserts it into the object registry and emits the
// fresh id; unmarshalling resolves an id back to the live instance.
type referenceConverter struct {
	iface   string
	objects *objects.Registry
}

var _ types.Converter = (*referenceConverter)(nil)

func (c *referenceConverter) Marshal(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return c.objects.Add(c.iface, v), nil
}

func (c *referenceConverter) Unmarshal(wire any) (any, error) {
	id, err := asObjectID(wire)
	if err != nil {
		return nil, fmt.Errorf("reference %q: %w", c.iface, err)
	}
	return c.objects.Get(id)
}

// asObjectID coerces the wire form of an object id. JSON decoding yields
// float64 for numbers; locally produced values may already be integers.
func asObjectID(wire any) (uint64, error) {
	switch n := wire.(type) {
	case uint64:
		return n, nil
	case float64:
		if n < 0 || n != float64(uint64(n)) {
			return 0, fmt.Errorf("%w: %v is not an object id", ErrMarshal, n)
		}
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("%w: %v is not an object id", ErrMarshal, n)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("%w: %v is not an object id", ErrMarshal, n)
		}
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("%w: object id has type %T", ErrMarshal, wire)
	}
}
