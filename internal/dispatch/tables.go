package dispatch

import (
	"github.com/dineflow/hookbridge/internal/provider"
)

// actionTables map each provider's raw action vocabulary (lowercased, with
// separators collapsed to underscores) onto the canonical action set.
// Anything not listed here is an unknown action and gets dropped.
var actionTables = map[provider.Provider]map[string]string{
	provider.Careem:    careemActions,
	provider.Deliveroo: deliverooActions,
	provider.Talabat:   talabatActions,
	provider.Jahez:     jahezActions,
}
