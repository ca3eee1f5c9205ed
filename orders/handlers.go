package orders

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"storefront/globals"
	"storefront/identity"
	"storefront/models"
	"storefront/utils"
)

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// PlaceOrder checks out. A signed-in customer orders as themselves
// regardless of the ids in the body.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req PlaceRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if utils.GetRoleFromRequest(r) == globals.RoleCustomer {
		if id := utils.GetUserIDFromRequest(r); id != "" {
			req.UserID, req.GuestUserID = id, ""
		}
	}

	order, err := h.svc.Place(ctx, req)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, order)
}

func (h *Handler) GetAllOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orders, err := h.svc.All(ctx)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrdersByStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := models.OrderStatus(ps.ByName("status"))
	orders, err := h.svc.ByStatus(ctx, status)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if len(orders) == 0 {
		utils.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("No orders found with status '%s'", status))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := h.svc.ByID(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, order)
}

func (h *Handler) GetOrdersByOwner(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		UserID      string `json:"user_id"`
		GuestUserID string `json:"guest_user_id"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if utils.GetRoleFromRequest(r) == globals.RoleCustomer {
		body.UserID, body.GuestUserID = utils.GetUserIDFromRequest(r), ""
	}
	owner, err := identity.ResolveOrderOwner(body.UserID, body.GuestUserID)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	orders, err := h.svc.ByOwner(ctx, owner)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		OrderStatus models.OrderStatus `json:"order_status"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	if _, err := h.svc.UpdateStatus(ctx, ps.ByName("id"), body.OrderStatus); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Order status updated"})
}

func (h *Handler) UpdateOrderReason(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		OrderID string `json:"order_id"`
		Reason  string `json:"reason"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	order, err := h.svc.UpdateReason(ctx, body.OrderID, body.Reason)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, order)
}
