package directory

import (
	"strings"

	"github.com/maniacs-sfa/orleans/internal/model"
)

// Query snapshots the directory and returns every ordinary entry whose
// owning grain type name contains substr (case-sensitive). System-target
// and client keys are excluded before type resolution, so a synthetic
// system type name matching substr can never leak into the result. The
// empty substring matches every ordinary entry with a non-empty type
// name. A missing type binding
// for a live ordinary entry propagates as an error from the registry.
func Query(d *Directory, types *TypeRegistry, substr string) (map[model.GrainID]model.GrainInfo, error) {
	result := make(map[model.GrainID]model.GrainInfo)
	var rangeErr error
	d.Range(func(id model.GrainID, info model.GrainInfo) bool {
		if !id.IsOrdinary() {
			return true
		}
		name, err := types.TypeName(id)
		if err != nil {
			rangeErr = err
			return false
		}
		if name != "" && strings.Contains(name, substr) {
			result[id] = info
		}
		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	return result, nil
}
