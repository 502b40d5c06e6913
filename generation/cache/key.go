package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/BaSui01/assetflow/types"
)

// KeyFor derives the memo key of a pipeline run from the pipeline identity,
// the prompt and the canonical parameter encoding.
func KeyFor(modality, prompt string, params types.Params) string {
	h := sha256.New()
	h.Write([]byte(modality))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	if params != nil {
		h.Write([]byte(params.CacheKey()))
	}
	sum := h.Sum(nil)
	return "asset:" + modality + ":" + hex.EncodeToString(sum[:16])
}
