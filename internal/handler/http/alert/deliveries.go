package alert

import (
	"net/http"

	"alerthub/internal/handler/http/pathutil"
	"alerthub/internal/handler/http/respond"
	"alerthub/internal/usecase/alertops"
)

// DeliveriesHandler handles GET /alerts/{id}/deliveries: the audit log of
// delivery attempts for the alert.
type DeliveriesHandler struct {
	Svc *alertops.Service
}

func (h DeliveriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/alerts/", "/deliveries")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	deliveries, err := h.Svc.ListDeliveries(r.Context(), id)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}

	dtos := make([]DeliveryDTO, 0, len(deliveries))
	for _, d := range deliveries {
		dtos = append(dtos, toDeliveryDTO(d))
	}
	respond.JSON(w, http.StatusOK, DeliveryListResponse{AlertID: id, Deliveries: dtos})
}
