package alert

import (
	"net/http"
	"strings"

	"alerthub/internal/handler/http/auth"
	"alerthub/internal/handler/http/respond"
	"alerthub/internal/usecase/alertops"
)

// Register mounts the alert control routes. All of them mutate or expose
// delivery state, so every route goes through the auth middleware.
func Register(mux *http.ServeMux, svc *alertops.Service) {
	mux.Handle("POST /alerts/", auth.Authz(dispatchByAction(svc)))
	mux.Handle("GET /alerts/", auth.Authz(DeliveriesHandler{Svc: svc}))
}

// dispatchByAction routes POST /alerts/{id}/send and /alerts/{id}/retry by
// path suffix.
func dispatchByAction(svc *alertops.Service) http.Handler {
	send := SendHandler{Svc: svc}
	retry := RetryHandler{Svc: svc}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/send"):
			send.ServeHTTP(w, r)
		case strings.HasSuffix(r.URL.Path, "/retry"):
			retry.ServeHTTP(w, r)
		default:
			respond.JSON(w, http.StatusNotFound, map[string]string{"error": "unknown alert action"})
		}
	})
}
