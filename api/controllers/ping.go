package controllers

import (
	"net/http"

	"github.com/zidir/medcom-backend/api/middleware"
	"github.com/zidir/medcom-backend/api/responses"
)

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if pharmacy := middleware.PharmacyIDFromContext(r.Context()); pharmacy != "" {
			payload["pharmacy_id"] = pharmacy
		}
		responses.WriteSuccess(w, payload)
	}
}

func AdminPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "admin", "status": "ok"})
	}
}
