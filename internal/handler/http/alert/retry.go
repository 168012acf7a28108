package alert

import (
	"net/http"

	"alerthub/internal/handler/http/pathutil"
	"alerthub/internal/handler/http/respond"
	"alerthub/internal/usecase/alertops"
)

// RetryHandler handles POST /alerts/{id}/retry: re-dispatch exactly the
// deliveries currently marked failed for the alert.
type RetryHandler struct {
	Svc *alertops.Service
}

func (h RetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/alerts/", "/retry")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := h.Svc.RetryFailed(r.Context(), id)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, report)
}
