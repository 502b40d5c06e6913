package cache

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BaSui01/assetflow/types"
)

// DecodeAsset reverses json.Marshal of an asset into the shapes a fresh run
// produces: integral numbers become int, nested objects become types.Asset and
// arrays of objects become []types.Asset. Other numbers stay float64.
func DecodeAsset(data []byte) (types.Asset, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode cached asset: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode cached asset: null payload")
	}
	return normalizeObject(raw), nil
}

func normalizeObject(m map[string]any) types.Asset {
	out := make(types.Asset, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		return normalizeObject(t)
	case []any:
		assets := make([]types.Asset, 0, len(t))
		for _, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				return normalizeSlice(t)
			}
			assets = append(assets, normalizeObject(m))
		}
		return assets
	default:
		return v
	}
}

func normalizeSlice(s []any) []any {
	out := make([]any, len(s))
	for i, e := range s {
		out[i] = normalizeValue(e)
	}
	return out
}
