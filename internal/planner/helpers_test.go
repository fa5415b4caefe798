package planner

import (
	"encoding/json"

	"github.com/kingrea/monorelease/internal/model"
)

func jsonIndent(m *model.PendingManifest) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
