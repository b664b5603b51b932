package handler

import (
	"net/http"
	"railbook/internal/vehicles/service"
	httputil "railbook/pkg/http"
	"railbook/pkg/logger"
	"railbook/pkg/middleware"
	"railbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type VehicleHandler struct {
	service service.VehicleService
	secret  string
	log     *logger.Logger
}

// NewVehicleHandler serves the route definition webhook. When secret is set
// every PUT must carry a valid X-Signature-256.
func NewVehicleHandler(service service.VehicleService, secret string, log *logger.Logger) *VehicleHandler {
	return &VehicleHandler{
		service: service,
		secret:  secret,
		log:     log,
	}
}

func (h *VehicleHandler) Define(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var def model.VehicleDefinition
	if err := httputil.DecodeJSON(r, &def); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Define", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	result, err := h.service.Define(r.Context(), id, &def)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Define", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if result.Created {
		if err := httputil.WriteCreated(w, result); err != nil {
			h.log.Error("failed to write created response", "handler", "Define", "operation", "WriteCreated", "error", err)
		}
		return
	}
	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Define", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VehicleHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	vehicle, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, vehicle); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VehicleHandler) RegisterRoutes(router *httprouter.Router) {
	var define http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Define(w, r, httprouter.ParamsFromContext(r.Context()))
	})
	if h.secret != "" {
		define = middleware.WebhookSignatureVerification(h.secret, h.log)(define)
	} else {
		h.log.Warn("Vehicle webhook signature verification disabled, WEBHOOK_SECRET is empty")
	}

	router.Handler(http.MethodPut, "/api/v1/vehicles/id/:id", define)
	router.GET("/api/v1/vehicles/id/:id", h.GetByID)
}
