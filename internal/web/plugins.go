package web

import (
	"net/http"

	apierrors "github.com/nimbusgit/nimbus/internal/shared/errors"
)

type PluginInfo struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
}

// handleListPlugins returns the registered subscribers and their health.
func (s *Service) handleListPlugins(w http.ResponseWriter, r *http.Request) {
	registry := s.bus.Registry()
	healthStatus := registry.HealthStatus(r.Context())

	names := registry.Names()
	out := make([]PluginInfo, 0, len(names))
	for _, name := range names {
		out = append(out, PluginInfo{
			Name:    name,
			Healthy: healthStatus[name],
		})
	}

	writeJSON(w, http.StatusOK, out)
}

// handleUnsubscribePlugin removes a subscriber from the bus.
func (s *Service) handleUnsubscribePlugin(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	registry := s.bus.Registry()
	found := false
	for _, existing := range registry.Names() {
		if existing == name {
			found = true
			break
		}
	}
	if !found {
		apierrors.NewNotFoundError("plugin").WriteJSON(w)
		return
	}

	if err := s.bus.Unsubscribe(name); err != nil {
		s.logger.Error("failed to unsubscribe plugin", "name", name, "error", err)
		apierrors.NewInternalError("failed to unsubscribe plugin").WriteJSON(w)
		return
	}

	s.logger.Info("plugin unsubscribed via API", "name", name)
	w.WriteHeader(http.StatusNoContent)
}
