package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sidhync-maker/workshop/internal/application"
)

func (h *Handler) apiRoutes(api chi.Router) {
	api.Post("/auth/login", h.handleAPILogin)
	api.With(h.requireAuthAPI(application.PageHome)).Get("/auth/whoami", h.handleAPIWhoAmI)
	api.With(h.requireAuthAPI(application.PageHome)).Post("/auth/logout", h.handleAPILogout)

	api.With(h.requireAuthAPI(application.PageUsers)).Get("/users", h.handleAPIListUsers)
	api.With(h.requireAuthAPI(application.PageUsers)).Post("/users", h.handleAPICreateUser)

	api.With(h.requireAuthAPI(application.PagePurchases)).Get("/purchases", h.handleAPIListPurchases)
	api.With(h.requireAuthAPI(application.PagePurchases)).Post("/purchases", h.handleAPIAddPurchase)
	api.With(h.requireAuthAPI(application.PageData)).Post("/purchases/import", h.handleAPIImportPurchases)
	api.With(h.requireAuthAPI(application.PageStock)).Get("/stock", h.handleAPIListStock)

	api.With(h.requireAuthAPI(application.PageBilling)).Get("/billing", h.handleAPIListBilling)
	api.With(h.requireAuthAPI(application.PageBilling)).Post("/billing", h.handleAPIAddBilling)
	api.With(h.requireAuthAPI(application.PageBilling)).Post("/billing/purchase-amount", h.handleAPIPurchaseAmount)

	api.With(h.requireAuthAPI(application.PageMechanics)).Get("/mechanics", h.handleAPIListMechanicEntries)
	api.With(h.requireAuthAPI(application.PageMechanics)).Post("/mechanics", h.handleAPIAddMechanicEntry)
	api.With(h.requireAuthAPI(application.PageMechanics)).Get("/mechanics/earnings", h.handleAPIMechanicEarnings)

	api.With(h.requireAuthAPI(application.PageCarModels)).Get("/car-models", h.handleAPIListCarModels)
	api.With(h.requireAuthAPI(application.PageCarModels)).Post("/car-models", h.handleAPIAddCarModel)

	api.With(h.requireAuthAPI(application.PageData)).Get("/export/{dataset}", h.handleAPIExport)
}

type apiLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	var req apiLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	sess, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{"error": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleAPIWhoAmI(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleAPILogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		h.service.Logout(r.Context(), token)
	}
	c, err := r.Cookie(sessionCookieName)
	if err == nil && c.Value != "" {
		h.service.Logout(r.Context(), c.Value)
		h.clearSessionCookie(w)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleAPIListUsers(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleAPICreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	u, ok, err := h.service.CreateUser(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "username already exists"})
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) handleAPIListPurchases(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListPurchases(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleAPIAddPurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemCode string  `json:"item_code"`
		ItemName string  `json:"item_name"`
		Qty      int     `json:"qty"`
		Rate     float64 `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	p, err := h.service.AddPurchase(r.Context(), req.ItemCode, req.ItemName, req.Qty, req.Rate)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// handleAPIImportPurchases takes either a multipart upload in field "file" or
// the CSV as the raw request body.
func (h *Handler) handleAPIImportPurchases(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid multipart payload"})
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "file is required"})
			return
		}
		defer func() { _ = file.Close() }()
		src = file
	}

	report, err := h.service.ImportPurchases(r.Context(), src)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleAPIListStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListStock(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleAPIListBilling(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListBilling(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type apiBillingRequest struct {
	application.BillingInput
	PurchaseIDs []uint `json:"purchase_ids"`
}

func (h *Handler) handleAPIAddBilling(w http.ResponseWriter, r *http.Request) {
	var req apiBillingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	if len(req.PurchaseIDs) > 0 {
		amount, err := h.service.PurchaseAmountFor(r.Context(), req.PurchaseIDs)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		req.PurchaseAmount = amount
	}
	b, err := h.service.AddBilling(r.Context(), req.BillingInput)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) handleAPIPurchaseAmount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PurchaseIDs []uint `json:"purchase_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	amount, err := h.service.PurchaseAmountFor(r.Context(), req.PurchaseIDs)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchase_amt": amount})
}

func (h *Handler) handleAPIListMechanicEntries(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	items, err := h.service.VisibleMechanicEntries(r.Context(), sess, r.URL.Query().Get("username"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleAPIAddMechanicEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string  `json:"username"`
		WorkDate string  `json:"work_date"`
		Activity string  `json:"activity"`
		Earning  float64 `json:"earning"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	sess, _ := sessionFromContext(r.Context())
	username, err := h.service.MechanicFor(sess, req.Username)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}
	e, err := h.service.AddMechanicEntry(r.Context(), username, req.WorkDate, req.Activity, req.Earning)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) handleAPIMechanicEarnings(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	if !sess.IsManager() {
		writeJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden"})
		return
	}
	items, err := h.service.MechanicEarnings(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleAPIListCarModels(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListCarModels(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleAPIAddCarModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	inserted, err := h.service.AddCarModel(r.Context(), req.Model)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"model": strings.TrimSpace(req.Model), "inserted": inserted})
}

func (h *Handler) handleAPIExport(w http.ResponseWriter, r *http.Request) {
	h.writeCSV(w, r, strings.TrimSuffix(chi.URLParam(r, "dataset"), ".csv"))
}
