package deepface

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// validateManifest checks a weights manifest: a non-empty array of groups,
// each listing shard paths and the tensors they hold. It returns the total
// number of weight tensors.
func validateManifest(raw []byte) (int, error) {
	if !gjson.ValidBytes(raw) {
		return 0, fmt.Errorf("%w: not valid JSON", ErrInvalidManifest)
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() || len(doc.Array()) == 0 {
		return 0, fmt.Errorf("%w: expected a non-empty array of weight groups", ErrInvalidManifest)
	}

	tensors := 0
	for i, group := range doc.Array() {
		paths := group.Get("paths")
		if !paths.IsArray() || len(paths.Array()) == 0 {
			return 0, fmt.Errorf("%w: group %d has no paths", ErrInvalidManifest, i)
		}

		weights := group.Get("weights")
		if !weights.IsArray() || len(weights.Array()) == 0 {
			return 0, fmt.Errorf("%w: group %d has no weights", ErrInvalidManifest, i)
		}

		for j, w := range weights.Array() {
			if w.Get("name").String() == "" || !w.Get("shape").IsArray() {
				return 0, fmt.Errorf("%w: group %d weight %d lacks name or shape", ErrInvalidManifest, i, j)
			}
			tensors++
		}
	}

	return tensors, nil
}
