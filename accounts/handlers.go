package accounts

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"storefront/apperr"
	"storefront/globals"
	"storefront/models"
	"storefront/utils"
)

// Handler serves one role's account routes plus the shared guest and
// address routes.
type Handler struct {
	svc  *Service
	log  *zap.Logger
	role string
}

func NewHandler(svc *Service, log *zap.Logger, role string) *Handler {
	return &Handler{svc: svc, log: log, role: role}
}

type emailBody struct {
	Email string `json:"email"`
}

// self rejects a customer touching another customer's record. Vendors
// may read any record.
func self(r *http.Request, id string) error {
	if utils.GetRoleFromRequest(r) == globals.RoleCustomer && utils.GetUserIDFromRequest(r) != id {
		return apperr.Forbidden("Access denied")
	}
	return nil
}

func (h *Handler) RequestOTP(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body emailBody
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if err := h.svc.RequestOTP(ctx, h.role, body.Email); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to your email address."})
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if err := h.svc.VerifyOTP(ctx, h.role, body.Email, body.OTP); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "OTP verified successfully."})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req RegisterRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	acct, err := h.svc.Register(ctx, h.role, req)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, acct)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	res, err := h.svc.Login(ctx, h.role, body.Email, body.Password)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body emailBody
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if err := h.svc.RequestPasswordReset(ctx, h.role, body.Email); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to your email for password reset."})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"new_password"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if err := h.svc.ResetPassword(ctx, h.role, body.Email, body.OTP, body.NewPassword); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully."})
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := ps.ByName("id")
	if err := self(r, id); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	acct, err := h.svc.Account(ctx, h.role, id)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, acct)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	accts, err := h.svc.Accounts(ctx, h.role)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, accts)
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := ps.ByName("id")
	if err := self(r, id); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	var p models.AccountPatch
	if err := utils.DecodeJSON(r, &p); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	acct, err := h.svc.UpdateAccount(ctx, h.role, id, p)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, acct)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := ps.ByName("id")
	if err := self(r, id); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if err := h.svc.DeleteAccount(ctx, h.role, id); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

func (h *Handler) CreateGuest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var g models.GuestUser
	if err := utils.DecodeJSON(r, &g); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	created, err := h.svc.CreateGuest(ctx, g)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetGuest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	g, err := h.svc.Guest(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, g)
}

func (h *Handler) GetGuestByPhone(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	g, err := h.svc.GuestByPhone(ctx, ps.ByName("phone"))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, g)
}

func (h *Handler) ListGuests(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	guests, err := h.svc.Guests(ctx)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, guests)
}

func (h *Handler) UpdateGuest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var p models.GuestPatch
	if err := utils.DecodeJSON(r, &p); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	g, err := h.svc.UpdateGuest(ctx, ps.ByName("id"), p)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, g)
}

// CreateAddress files the address under the signed-in customer.
func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var a models.Address
	if err := utils.DecodeJSON(r, &a); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if id := utils.GetUserIDFromRequest(r); id != "" {
		a.CustomerID = id
	}
	created, err := h.svc.CreateAddress(ctx, a)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var p models.AddressPatch
	if err := utils.DecodeJSON(r, &p); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	a, err := h.svc.UpdateAddress(ctx, ps.ByName("id"), p)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, a)
}

func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := ps.ByName("id")
	if err := self(r, id); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	addrs, err := h.svc.Addresses(ctx, id)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, addrs)
}
