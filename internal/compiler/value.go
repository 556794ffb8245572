package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/vk/gridflow/internal/component"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// plainValue turns a known cty value into plain Go data (string, int64,
// float64, bool, []any, map[string]any) that every back end encodes the same way.
func plainValue(v cty.Value) (any, error) {
	b, err := ctyjson.SimpleJSONValue{Value: v}.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return decodePlain(b)
}

func decodePlain(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return nil, err
	}
	return normalize(x), nil
}

// normalize folds the numeric types decoders produce into int64 and float64
// so documents compare equal regardless of the back end they came from.
func normalize(x any) any {
	switch v := x.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return normalizeFloat(f)
	case int:
		return int64(v)
	case int64:
		return v
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v)
		}
		return float64(v)
	case float64:
		return normalizeFloat(v)
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = normalize(v[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = normalize(e)
		}
		return out
	default:
		return x
	}
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

// LiteralValue converts a plain document value back into a cty value of the
// type named by tag.
func LiteralValue(x any, tag component.TypeTag) (cty.Value, error) {
	ty, err := component.LiteralType(tag)
	if err != nil {
		return cty.NilVal, err
	}
	b, err := json.Marshal(x)
	if err != nil {
		return cty.NilVal, fmt.Errorf("encoding literal: %w", err)
	}
	implied, err := ctyjson.ImpliedType(b)
	if err != nil {
		return cty.NilVal, fmt.Errorf("decoding literal: %w", err)
	}
	v, err := ctyjson.Unmarshal(b, implied)
	if err != nil {
		return cty.NilVal, fmt.Errorf("decoding literal: %w", err)
	}
	out, err := convert.Convert(v, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("literal is not %s: %w", tag, err)
	}
	return out, nil
}
