package chi

import (
	"encoding/json"
	"net/http"

	"github.com/marcelsud/webhook-guard/breaker"
	"github.com/marcelsud/webhook-guard/outbound"
)

// dependencyResponse represents a guarded dependency in the API
type dependencyResponse struct {
	Name     string        `json:"name"`
	InFlight int           `json:"in_flight"`
	Breaker  breaker.Stats `json:"breaker"`
}

// getDependencies handles GET /v1/dependencies
func getDependencies(registry *outbound.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callers := registry.List()

		responses := make([]dependencyResponse, 0, len(callers))
		for _, caller := range callers {
			responses = append(responses, dependencyResponse{
				Name:     caller.Name(),
				InFlight: caller.InFlight(),
				Breaker:  caller.BreakerStats(),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(responses); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
