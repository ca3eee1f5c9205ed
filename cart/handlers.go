package cart

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"storefront/globals"
	"storefront/identity"
	"storefront/utils"
)

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type ownerFields struct {
	CartID      string `json:"cart_id"`
	CustomerID  string `json:"customer_id"`
	GuestUserID string `json:"guest_user_id"`
}

// owner resolves the cart owner. A signed-in customer always wins over
// whatever ids the client sent.
func (f ownerFields) owner(r *http.Request) (identity.Owner, error) {
	if utils.GetRoleFromRequest(r) == globals.RoleCustomer {
		if id := utils.GetUserIDFromRequest(r); id != "" {
			return identity.Customer(id), nil
		}
	}
	return identity.Resolve(f.CustomerID, f.GuestUserID, f.CartID)
}

// AddToCart adds one or more items, merging with lines already in the cart.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		ownerFields
		Items []LineRequest `json:"items"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	owner, err := body.owner(r)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	view, err := h.svc.AddItems(ctx, owner, body.Items)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, view)
}

// GetCart looks the cart up by ?customer_id=, ?guest_user_id= or ?cart_id=.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := r.URL.Query()
	f := ownerFields{CartID: q.Get("cart_id"), CustomerID: q.Get("customer_id"), GuestUserID: q.Get("guest_user_id")}
	owner, err := f.owner(r)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	view, err := h.svc.Get(ctx, owner)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view)
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		CartID   string `json:"cart_id"`
		ItemID   string `json:"item_id"`
		Quantity int    `json:"quantity"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	view, err := h.svc.UpdateQuantity(ctx, body.CartID, body.ItemID, body.Quantity)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		ownerFields
		ItemID string `json:"item_id"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	owner, err := body.owner(r)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	view, err := h.svc.RemoveItem(ctx, owner, body.ItemID)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view)
}

func (h *Handler) DeleteCart(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.svc.DeleteCart(ctx, ps.ByName("cartid")); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Cart deleted"})
}

// MergeCarts moves a temporary cart into a customer's or guest's cart.
func (h *Handler) MergeCarts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		TempCartID  string `json:"temp_cart_id"`
		CustomerID  string `json:"customer_id"`
		GuestUserID string `json:"guest_user_id"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	f := ownerFields{CustomerID: body.CustomerID, GuestUserID: body.GuestUserID}
	target, err := f.owner(r)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	view, err := h.svc.Merge(ctx, body.TempCartID, target)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view)
}
