package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sidhync-maker/workshop/internal/application"
	"github.com/sidhync-maker/workshop/internal/domain"
	"github.com/sidhync-maker/workshop/internal/logger"
	"github.com/sidhync-maker/workshop/internal/ui"
	"github.com/starfederation/datastar-go/datastar"
)

const sessionCookieName = "workshop_session"

const maxImportBytes = 10 << 20

type contextKey string

const sessionKey contextKey = "session"

type Handler struct {
	service *application.WorkshopService
}

func NewRouter(service *application.WorkshopService) http.Handler {
	h := &Handler{service: service}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, logger.Middleware, middleware.Recoverer)

	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Route("/api", h.apiRoutes)

	r.With(h.requireAuthGUI(application.PageHome)).Get("/", h.handleHomeRedirect)
	r.With(h.requireAuthGUI(application.PageHome)).Get("/home", h.handleHome)
	r.With(h.requireAuthGUI(application.PagePurchases)).Get("/purchases", h.handlePurchases)
	r.With(h.requireAuthGUI(application.PageStock)).Get("/stock", h.handleStock)
	r.With(h.requireAuthGUI(application.PageBilling)).Get("/billing", h.handleBilling)
	r.With(h.requireAuthGUI(application.PageMechanics)).Get("/mechanics", h.handleMechanics)
	r.With(h.requireAuthGUI(application.PageCarModels)).Get("/car-models", h.handleCarModels)
	r.With(h.requireAuthGUI(application.PageData)).Get("/data", h.handleData)
	r.With(h.requireAuthGUI(application.PageUsers)).Get("/users", h.handleUsers)

	r.With(h.requireAuthGUI(application.PagePurchases)).Post("/commands/purchases", h.handleAddPurchase)
	r.With(h.requireAuthGUI(application.PageBilling)).Post("/commands/billing", h.handleAddBilling)
	r.With(h.requireAuthGUI(application.PageBilling)).Post("/queries/billing/preview", h.handleBillingPreview)
	r.With(h.requireAuthGUI(application.PageMechanics)).Post("/commands/mechanics", h.handleAddMechanicEntry)
	r.With(h.requireAuthGUI(application.PageCarModels)).Post("/commands/car-models", h.handleAddCarModel)
	r.With(h.requireAuthGUI(application.PageUsers)).Post("/commands/users", h.handleCreateUser)

	r.With(h.requireAuthGUI(application.PageData)).Get("/export/{file}", h.handleExport)
	r.With(h.requireAuthGUI(application.PageData)).Post("/import/purchases", h.handleImport)

	return r
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if err := ui.LoginPage("").Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.Form.Get("username"))
	password := r.Form.Get("password")

	sess, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = ui.LoginPage("invalid credentials").Render(r.Context(), w)
		return
	}

	h.setSessionCookie(w, sess.Token)
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(sessionCookieName)
	if err == nil && c.Value != "" {
		h.service.Logout(r.Context(), c.Value)
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) handleHomeRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, ui.HomePage(h.viewer(r.Context())))
}

func (h *Handler) handlePurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.service.ListPurchases(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.renderPage(w, r, ui.PurchasesPage(h.viewer(r.Context()), purchases))
}

func (h *Handler) handleStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.service.ListStock(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.renderPage(w, r, ui.StockPage(h.viewer(r.Context()), stock))
}

func (h *Handler) handleBilling(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.service.ListPurchases(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	models, err := h.service.ListCarModels(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	bills, err := h.service.ListBilling(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.renderPage(w, r, ui.BillingPage(h.viewer(r.Context()), ui.BillingView{
		Purchases: purchases,
		CarModels: models,
		Bills:     bills,
	}))
}

func (h *Handler) handleMechanics(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	view, err := h.mechanicsView(r.Context(), sess)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.renderPage(w, r, ui.MechanicsPage(h.viewer(r.Context()), view))
}

func (h *Handler) handleCarModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.service.ListCarModels(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.renderPage(w, r, ui.CarModelsPage(h.viewer(r.Context()), models))
}

func (h *Handler) handleData(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, ui.DataPage(h.viewer(r.Context()), application.Datasets, nil, ""))
}

func (h *Handler) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.renderPage(w, r, ui.UsersPage(h.viewer(r.Context()), users))
}

type purchaseSignals struct {
	ItemCode string      `json:"itemCode"`
	ItemName string      `json:"itemName"`
	Qty      signalValue `json:"qty"`
	Rate     signalValue `json:"rate"`
}

func (h *Handler) handleAddPurchase(w http.ResponseWriter, r *http.Request) {
	var sig purchaseSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		h.renderFlash(r.Context(), w, http.StatusBadRequest, "invalid signals")
		return
	}
	qty, err := parseIntSignal(string(sig.Qty), "qty")
	if err != nil {
		h.renderFlash(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	rate, err := parseAmountSignal(string(sig.Rate), "rate")
	if err != nil {
		h.renderFlash(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.AddPurchase(r.Context(), sig.ItemCode, sig.ItemName, qty, rate)
	if err != nil {
		h.renderFlash(r.Context(), w, statusFor(err), err.Error())
		return
	}
	purchases, err := h.service.ListPurchases(r.Context())
	if err != nil {
		logger.Error(r.Context(), "list purchases after insert", logger.ErrorF(err))
	}
	renderHTMLFragments(r.Context(), w, http.StatusOK,
		ui.Flash(fmt.Sprintf("Purchase #%d saved (%s x%d, total %.2f)", p.ID, p.ItemCode, p.Qty, p.Total), "info"),
		ui.PurchasesTable(purchases),
	)
}

type billingSignals struct {
	CarModel    string      `json:"billCarModel"`
	Complaints  string      `json:"billComplaints"`
	StartDate   string      `json:"billStartDate"`
	EndDate     string      `json:"billEndDate"`
	Labour      signalValue `json:"billLabour"`
	PurchaseIDs idList      `json:"billPurchaseIds"`
}

func (h *Handler) readBillingSignals(r *http.Request) (billingSignals, float64, []uint, error) {
	var sig billingSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		return billingSignals{}, 0, nil, errors.New("invalid signals")
	}
	labour, err := parseAmountSignal(string(sig.Labour), "labour")
	if err != nil {
		return billingSignals{}, 0, nil, err
	}
	ids, err := sig.PurchaseIDs.uints()
	if err != nil {
		return billingSignals{}, 0, nil, err
	}
	return sig, labour, ids, nil
}

func (h *Handler) handleBillingPreview(w http.ResponseWriter, r *http.Request) {
	_, labour, ids, err := h.readBillingSignals(r)
	if err != nil {
		h.renderFlash(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := h.service.PurchaseAmountFor(r.Context(), ids)
	if err != nil {
		h.renderFlash(r.Context(), w, http.StatusInternalServerError, err.Error())
		return
	}
	renderHTMLFragments(r.Context(), w, http.StatusOK, ui.BillingPreview(amount, labour))
}

func (h *Handler) handleAddBilling(w http.ResponseWriter, r *http.Request) {
	sig, labour, ids, err := h.readBillingSignals(r)
	if err != nil {
		h.renderFlash(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := h.service.PurchaseAmountFor(r.Context(), ids)
	if err != nil {
		h.renderFlash(r.Context(), w, http.StatusInternalServerError, err.Error())
		return
	}

	b, err := h.service.AddBilling(r.Context(), application.BillingInput{
		CarModel:       sig.CarModel,
		Complaints:     sig.Complaints,
		StartDate:      sig.StartDate,
		EndDate:        sig.EndDate,
		Labour:         labour,
		PurchaseAmount: amount,
	})
	if err != nil {
		h.renderFlash(r.Context(), w, statusFor(err), err.Error())
		return
	}
	bills, err := h.service.ListBilling(r.Context())
	if err != nil {
		logger.Error(r.Context(), "list bills after insert", logger.ErrorF(err))
	}
	renderHTMLFragments(r.Context(), w, http.StatusOK,
		ui.Flash(fmt.Sprintf("Bill #%d saved, total %.2f", b.ID, b.Total), "info"),
		ui.BillReceipt(b),
		ui.BillingTable(bills),
	)
}

type mechanicSignals struct {
	Username string      `json:"mechUsername"`
	WorkDate string      `json:"mechWorkDate"`
	Activity string      `json:"mechActivity"`
	Earning  signalValue `json:"mechEarning"`
}

func (h *Handler) handleAddMechanicEntry(w http.ResponseWriter, r *http.Request) {
	var sig mechanicSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		h.renderFlash(r.Context(), w, http.StatusBadRequest, "invalid signals")
		return
	}
	sess, _ := sessionFromContext(r.Context())
	username, err := h.service.MechanicFor(sess, sig.Username)
	if err != nil {
		h.renderFlash(r.Context(), w, statusFor(err), err.Error())
		return
	}
	earning, err := parseAmountSignal(string(sig.Earning), "earning")
	if err != nil {
		h.renderFlash(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.service.AddMechanicEntry(r.Context(), username, sig.WorkDate, sig.Activity, earning)
	if err != nil {
		h.renderFlash(r.Context(), w, statusFor(err), err.Error())
		return
	}

	view, err := h.mechanicsView(r.Context(), sess)
	if err != nil {
		logger.Error(r.Context(), "list mechanic entries after insert", logger.ErrorF(err))
	}
	fragments := []templ.Component{
		ui.Flash(fmt.Sprintf("Logged %s for %s on %s", e.Activity, e.Username, e.WorkDate), "info"),
		ui.MechanicsTable(view.Entries),
	}
	if sess.IsManager() {
		fragments = append(fragments, ui.EarningsTable(view.Earnings))
	}
	renderHTMLFragments(r.Context(), w, http.StatusOK, fragments...)
}

type carModelSignals struct {
	CarModel string `json:"carModel"`
}

func (h *Handler) handleAddCarModel(w http.ResponseWriter, r *http.Request) {
	var sig carModelSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		h.renderFlash(r.Context(), w, http.StatusBadRequest, "invalid signals")
		return
	}
	inserted, err := h.service.AddCarModel(r.Context(), sig.CarModel)
	if err != nil {
		h.renderFlash(r.Context(), w, statusFor(err), err.Error())
		return
	}
	message := fmt.Sprintf("Added car model %s", strings.TrimSpace(sig.CarModel))
	if !inserted {
		message = fmt.Sprintf("Car model %s is already listed", strings.TrimSpace(sig.CarModel))
	}
	models, err := h.service.ListCarModels(r.Context())
	if err != nil {
		logger.Error(r.Context(), "list car models after insert", logger.ErrorF(err))
	}
	renderHTMLFragments(r.Context(), w, http.StatusOK,
		ui.Flash(message, "info"),
		ui.CarModelsTable(models),
	)
}

type createUserSignals struct {
	Username string `json:"newUsername"`
	Password string `json:"newPassword"`
	Role     string `json:"newRole"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var sig createUserSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		h.renderFlash(r.Context(), w, http.StatusBadRequest, "invalid signals")
		return
	}
	u, ok, err := h.service.CreateUser(r.Context(), sig.Username, sig.Password, sig.Role)
	if err != nil {
		h.renderFlash(r.Context(), w, statusFor(err), err.Error())
		return
	}
	if !ok {
		h.renderFlash(r.Context(), w, http.StatusConflict, fmt.Sprintf("username %s already exists", strings.TrimSpace(sig.Username)))
		return
	}
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		logger.Error(r.Context(), "list users after insert", logger.ErrorF(err))
	}
	renderHTMLFragments(r.Context(), w, http.StatusOK,
		ui.Flash(fmt.Sprintf("Created %s %s", u.Role, u.Username), "info"),
		ui.UsersTable(users),
	)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	dataset, ok := strings.CutSuffix(file, ".csv")
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.writeCSV(w, r, dataset)
}

func (h *Handler) writeCSV(w http.ResponseWriter, r *http.Request, dataset string) {
	data, err := h.service.ExportCSV(r.Context(), dataset)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dataset+".csv"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	v := h.viewer(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = ui.DataPage(v, application.Datasets, nil, "upload a CSV file").Render(r.Context(), w)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = ui.DataPage(v, application.Datasets, nil, "upload a CSV file").Render(r.Context(), w)
		return
	}
	defer func() { _ = file.Close() }()

	report, err := h.service.ImportPurchases(r.Context(), file)
	if err != nil {
		w.WriteHeader(statusFor(err))
		_ = ui.DataPage(v, application.Datasets, nil, err.Error()).Render(r.Context(), w)
		return
	}
	h.renderPage(w, r, ui.DataPage(v, application.Datasets, &report, ""))
}

func (h *Handler) mechanicsView(ctx context.Context, sess application.Session) (ui.MechanicsView, error) {
	entries, err := h.service.VisibleMechanicEntries(ctx, sess, "")
	if err != nil {
		return ui.MechanicsView{}, err
	}
	view := ui.MechanicsView{Entries: entries}
	if sess.IsManager() {
		view.Earnings = application.SummarizeEarnings(entries)
		users, err := h.service.ListUsers(ctx)
		if err != nil {
			return ui.MechanicsView{}, err
		}
		view.Users = users
	}
	return view, nil
}

func (h *Handler) requireAuthGUI(page string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := h.authenticateRequest(r)
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !h.service.CanAccessPage(sess.Role, page) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
		})
	}
}

func (h *Handler) requireAuthAPI(page string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := h.authenticateRequest(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
				return
			}
			if !h.service.CanAccessPage(sess.Role, page) {
				writeJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden"})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
		})
	}
}

func (h *Handler) authenticateRequest(r *http.Request) (application.Session, bool) {
	if token := bearerToken(r); token != "" {
		sess, err := h.service.Authenticate(r.Context(), token)
		if err == nil {
			return sess, true
		}
	}

	c, err := r.Cookie(sessionCookieName)
	if err == nil && strings.TrimSpace(c.Value) != "" {
		sess, authErr := h.service.Authenticate(r.Context(), c.Value)
		if authErr == nil {
			return sess, true
		}
	}

	return application.Session{}, false
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

func sessionFromContext(ctx context.Context) (application.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(application.Session)
	return sess, ok
}

func (h *Handler) viewer(ctx context.Context) ui.Viewer {
	sess, _ := sessionFromContext(ctx)
	nav := make([]ui.NavItem, 0, len(ui.Pages))
	for _, item := range ui.Pages {
		if h.service.CanAccessPage(sess.Role, item.Page) {
			nav = append(nav, item)
		}
	}
	return ui.Viewer{Username: sess.Username, Role: sess.Role, Nav: nav}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

// signalValue accepts a datastar signal sent either as a JSON string or as a
// bare number.
type signalValue string

func (v *signalValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = signalValue(s)
		return nil
	}
	if string(b) == "null" {
		*v = ""
		return nil
	}
	*v = signalValue(b)
	return nil
}

// idList holds checkbox selections. Datastar sends an array; a comma
// separated string is accepted too.
type idList []string

func (l *idList) UnmarshalJSON(b []byte) error {
	var values []signalValue
	if err := json.Unmarshal(b, &values); err == nil {
		out := make(idList, 0, len(values))
		for _, v := range values {
			out = append(out, string(v))
		}
		*l = out
		return nil
	}
	var single signalValue
	if err := json.Unmarshal(b, &single); err != nil {
		return err
	}
	*l = splitCSV(string(single))
	return nil
}

func (l idList) uints() ([]uint, error) {
	out := make([]uint, 0, len(l))
	for _, raw := range l {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		id, err := parseRequiredUintSignal(raw, "purchase id")
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func parseRequiredUintSignal(raw string, field string) (uint, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	return uint(parsed), nil
}

func parseIntSignal(raw string, field string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", field)
	}
	return parsed, nil
}

func parseAmountSignal(raw string, field string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", field)
	}
	return parsed, nil
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		logger.Error(r.Context(), "render page", logger.String("path", r.URL.Path), logger.ErrorF(err))
	}
}

func renderHTMLFragments(ctx context.Context, w http.ResponseWriter, status int, fragments ...templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	for _, fragment := range fragments {
		if fragment == nil {
			continue
		}
		_ = fragment.Render(ctx, w)
	}
}

func (h *Handler) renderFlash(ctx context.Context, w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if status >= 400 {
		_ = ui.Flash(message, "error").Render(ctx, w)
		return
	}
	_ = ui.Flash(message, "info").Render(ctx, w)
}
