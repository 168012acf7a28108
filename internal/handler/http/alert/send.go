package alert

import (
	"errors"
	"log/slog"
	"net/http"

	"alerthub/internal/domain/entity"
	"alerthub/internal/handler/http/pathutil"
	"alerthub/internal/handler/http/respond"
	"alerthub/internal/observability/logging"
	"alerthub/internal/usecase/alertops"
)

// SendHandler handles POST /alerts/{id}/send: dispatch the alert to every
// resolved recipient immediately.
type SendHandler struct {
	Svc *alertops.Service
}

func (h SendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/alerts/", "/send")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := h.Svc.SendAlert(r.Context(), id)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}

	logging.FromContext(r.Context()).Info("manual dispatch completed",
		slog.Int64("alert_id", id),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed))
	respond.JSON(w, http.StatusOK, report)
}

// statusFor maps usecase errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
