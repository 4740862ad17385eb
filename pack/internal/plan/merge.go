package plan

import (
	"fmt"

	"dario.cat/mergo"
)

// Derive builds a target from base and fragments without touching either.
//
// Merge law, applied fragment by fragment in argument order:
//   - a non-zero scalar in a later fragment replaces the earlier value;
//     zero values mean "unset" and never override
//   - maps merge key by key, later keys winning
//   - slices concatenate, earlier elements first, with no de-duplication
//   - nested structs and pointers merge recursively
//
// Downstream engines must apply ModuleRules in the resulting order.
func Derive(base Descriptor, fragments ...Descriptor) (Descriptor, error) {
	out := base.Clone()
	for i, f := range fragments {
		if err := mergo.Merge(&out, f.Clone(), mergo.WithOverride, mergo.WithAppendSlice); err != nil {
			return Descriptor{}, fmt.Errorf("merge fragment %d: %w", i, err)
		}
	}
	return out.Clone(), nil
}
