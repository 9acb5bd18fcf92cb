package controllers

import (
	"net/http"

	"github.com/zidir/medcom-backend/api/responses"
	"github.com/zidir/medcom-backend/internal/monitor"
	pkgerrors "github.com/zidir/medcom-backend/pkg/errors"
	"github.com/zidir/medcom-backend/pkg/logger"
)

// TriggerMonitorRun starts one availability cycle on demand. The request
// competes for the scheduler's lock, so a 409 means a cycle is in flight.
func TriggerMonitorRun(svc *monitor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "monitor service unavailable"))
			return
		}

		ran, err := svc.RunOnce(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "monitor run"))
			return
		}
		if !ran {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "a monitor cycle is already running"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "completed"})
	}
}
