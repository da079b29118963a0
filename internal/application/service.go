package application

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sidhync-maker/workshop/internal/domain"
	"github.com/sidhync-maker/workshop/internal/logger"
)

const (
	PageHome      = "home"
	PagePurchases = "purchases"
	PageStock     = "stock"
	PageBilling   = "billing"
	PageMechanics = "mechanics"
	PageCarModels = "car-models"
	PageData      = "data"
	PageUsers     = "users"
)

var mechanicPages = map[string]struct{}{
	PageHome:      {},
	PageMechanics: {},
}

type WorkshopService struct {
	repo     domain.WorkshopRepository
	sessions *SessionStore
	now      func() time.Time
}

func NewWorkshopService(repo domain.WorkshopRepository, sessions *SessionStore) *WorkshopService {
	if sessions == nil {
		sessions = NewSessionStore(0)
	}
	return &WorkshopService{
		repo:     repo,
		sessions: sessions,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// BootstrapManager seeds the default manager account unless some manager
// already exists. Safe to call on every start.
func (s *WorkshopService) BootstrapManager(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return errors.New("bootstrap username and password are required")
	}

	exists, err := s.repo.ManagerExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	u, err := s.repo.CreateUser(ctx, domain.User{
		Username:     strings.TrimSpace(username),
		PasswordHash: HashPassword(password),
		Role:         domain.RoleManager,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "bootstrap manager created", logger.String("username", u.Username))
	return nil
}

func (s *WorkshopService) VerifyCredentials(ctx context.Context, username, password string) (domain.User, error) {
	u, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if !VerifyPassword(password, u.PasswordHash) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return u, nil
}

func (s *WorkshopService) Login(ctx context.Context, username, password string) (Session, error) {
	u, err := s.VerifyCredentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			logger.Warn(ctx, "login rejected", logger.String("username", strings.TrimSpace(username)))
		}
		return Session{}, err
	}
	sess, err := s.sessions.Create(u)
	if err != nil {
		return Session{}, err
	}
	logger.Info(ctx, "login", logger.String("username", u.Username), logger.String("role", u.Role))
	return sess, nil
}

func (s *WorkshopService) Authenticate(_ context.Context, token string) (Session, error) {
	return s.sessions.Get(token)
}

func (s *WorkshopService) Logout(_ context.Context, token string) {
	s.sessions.Delete(token)
}

// CanAccessPage reports whether role may open the named page. Managers see
// every page; mechanics only home and their own work log.
func (s *WorkshopService) CanAccessPage(role, page string) bool {
	if role == domain.RoleManager {
		return true
	}
	if role != domain.RoleMechanic {
		return false
	}
	_, ok := mechanicPages[page]
	return ok
}

func (s *WorkshopService) Authorize(sess Session, page string) error {
	if !s.CanAccessPage(sess.Role, page) {
		return fmt.Errorf("%w: %s may not open %s", domain.ErrForbidden, sess.Role, page)
	}
	return nil
}

// MechanicFor resolves whose work log an entry is written to. Managers name
// the mechanic; mechanics may only write for themselves.
func (s *WorkshopService) MechanicFor(sess Session, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if sess.IsManager() {
		if requested == "" {
			return "", domain.Invalid("username is required")
		}
		return requested, nil
	}
	if requested != "" && requested != sess.Username {
		return "", fmt.Errorf("%w: mechanics can only log their own work", domain.ErrForbidden)
	}
	return sess.Username, nil
}

// VisibleMechanicEntries limits mechanics to their own entries. Managers see
// everything, or one mechanic when filter is set.
func (s *WorkshopService) VisibleMechanicEntries(ctx context.Context, sess Session, filter string) ([]domain.MechanicEntry, error) {
	if !sess.IsManager() {
		filter = sess.Username
	}
	return s.repo.ListMechanicEntries(ctx, strings.TrimSpace(filter))
}

// CreateUser returns ok=false without an error when the username is taken.
func (s *WorkshopService) CreateUser(ctx context.Context, username, password, role string) (domain.User, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, false, domain.Invalid("username and password are required")
	}
	if role == "" {
		role = domain.RoleMechanic
	}
	if !domain.ValidRole(role) {
		return domain.User{}, false, domain.Invalid("role must be %q or %q", domain.RoleManager, domain.RoleMechanic)
	}

	u, err := s.repo.CreateUser(ctx, domain.User{
		Username:     username,
		PasswordHash: HashPassword(password),
		Role:         role,
		CreatedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	logger.Info(ctx, "user created", logger.String("username", u.Username), logger.String("role", u.Role))
	return u, true, nil
}

func (s *WorkshopService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *WorkshopService) AddPurchase(ctx context.Context, itemCode, itemName string, qty int, rate float64) (domain.Purchase, error) {
	itemCode = strings.TrimSpace(itemCode)
	itemName = strings.TrimSpace(itemName)
	if itemCode == "" || itemName == "" {
		return domain.Purchase{}, domain.Invalid("item_code and item_name are required")
	}
	if qty < 1 {
		return domain.Purchase{}, domain.Invalid("qty must be at least 1")
	}
	if !validAmount(rate) {
		return domain.Purchase{}, domain.Invalid("rate must be zero or more")
	}

	p, err := s.repo.CreatePurchase(ctx, domain.Purchase{
		ItemCode:    itemCode,
		ItemName:    itemName,
		Qty:         qty,
		Rate:        rate,
		Total:       float64(qty) * rate,
		PurchasedAt: s.now(),
	})
	if err != nil {
		return domain.Purchase{}, err
	}
	logger.Info(ctx, "purchase recorded",
		logger.String("item_code", p.ItemCode),
		logger.Int("qty", p.Qty),
		logger.Float64("total", p.Total),
	)
	return p, nil
}

func (s *WorkshopService) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	return s.repo.ListPurchases(ctx)
}

func (s *WorkshopService) ListStock(ctx context.Context) ([]domain.StockItem, error) {
	return s.repo.ListStock(ctx)
}

// PurchaseAmountFor sums the totals of the selected purchases. Unknown ids
// contribute nothing.
func (s *WorkshopService) PurchaseAmountFor(ctx context.Context, ids []uint) (float64, error) {
	ids = lo.Uniq(lo.Filter(ids, func(id uint, _ int) bool { return id != 0 }))
	return s.repo.SumPurchaseTotals(ctx, ids)
}

func (s *WorkshopService) AddBilling(ctx context.Context, in BillingInput) (domain.Billing, error) {
	in.CarModel = strings.TrimSpace(in.CarModel)
	if in.CarModel == "" {
		return domain.Billing{}, domain.Invalid("car_model is required")
	}
	if !validAmount(in.Labour) {
		return domain.Billing{}, domain.Invalid("labour must be zero or more")
	}
	if !validAmount(in.PurchaseAmount) {
		return domain.Billing{}, domain.Invalid("purchase amount must be zero or more")
	}

	b, err := s.repo.CreateBilling(ctx, domain.Billing{
		CarModel:    in.CarModel,
		Complaints:  strings.TrimSpace(in.Complaints),
		StartDate:   strings.TrimSpace(in.StartDate),
		EndDate:     strings.TrimSpace(in.EndDate),
		Labour:      in.Labour,
		PurchaseAmt: in.PurchaseAmount,
		Total:       in.Labour + in.PurchaseAmount,
		BilledAt:    s.now(),
	})
	if err != nil {
		return domain.Billing{}, err
	}
	logger.Info(ctx, "bill saved",
		logger.String("car_model", b.CarModel),
		logger.Float64("total", b.Total),
	)
	return b, nil
}

type BillingInput struct {
	CarModel       string  `json:"car_model"`
	Complaints     string  `json:"complaints"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	Labour         float64 `json:"labour"`
	PurchaseAmount float64 `json:"purchase_amt"`
}

func (s *WorkshopService) ListBilling(ctx context.Context) ([]domain.Billing, error) {
	return s.repo.ListBilling(ctx)
}

func (s *WorkshopService) AddMechanicEntry(ctx context.Context, username, workDate, activity string, earning float64) (domain.MechanicEntry, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.MechanicEntry{}, domain.Invalid("username is required")
	}
	workDate = strings.TrimSpace(workDate)
	if workDate == "" {
		workDate = s.now().Format(time.DateOnly)
	}
	if !validAmount(earning) {
		return domain.MechanicEntry{}, domain.Invalid("earning must be zero or more")
	}

	e, err := s.repo.CreateMechanicEntry(ctx, domain.MechanicEntry{
		Username: username,
		WorkDate: workDate,
		Activity: strings.TrimSpace(activity),
		Earning:  earning,
	})
	if err != nil {
		return domain.MechanicEntry{}, err
	}
	logger.Info(ctx, "work logged",
		logger.String("username", e.Username),
		logger.String("work_date", e.WorkDate),
		logger.Float64("earning", e.Earning),
	)
	return e, nil
}

// ListMechanicEntries returns one mechanic's entries, or everyone's when
// username is empty.
func (s *WorkshopService) ListMechanicEntries(ctx context.Context, username string) ([]domain.MechanicEntry, error) {
	return s.repo.ListMechanicEntries(ctx, username)
}

func (s *WorkshopService) MechanicEarnings(ctx context.Context) ([]domain.MechanicEarning, error) {
	entries, err := s.repo.ListMechanicEntries(ctx, "")
	if err != nil {
		return nil, err
	}
	return SummarizeEarnings(entries), nil
}

// SummarizeEarnings groups entries by username, sorted by username.
func SummarizeEarnings(entries []domain.MechanicEntry) []domain.MechanicEarning {
	grouped := lo.GroupBy(entries, func(e domain.MechanicEntry) string { return e.Username })
	names := lo.Keys(grouped)
	slices.Sort(names)

	result := make([]domain.MechanicEarning, 0, len(names))
	for _, name := range names {
		rows := grouped[name]
		sum := lo.Reduce(rows, func(acc decimal.Decimal, e domain.MechanicEntry, _ int) decimal.Decimal {
			return acc.Add(decimal.NewFromFloat(e.Earning))
		}, decimal.Zero)
		result = append(result, domain.MechanicEarning{
			Username:     name,
			Entries:      len(rows),
			TotalEarning: sum.InexactFloat64(),
		})
	}
	return result
}

// AddCarModel treats an existing model name as success.
func (s *WorkshopService) AddCarModel(ctx context.Context, model string) (bool, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return false, domain.Invalid("model is required")
	}
	inserted, err := s.repo.CreateCarModel(ctx, model)
	if err != nil {
		return false, err
	}
	if inserted {
		logger.Info(ctx, "car model added", logger.String("model", model))
	}
	return inserted, nil
}

func (s *WorkshopService) ListCarModels(ctx context.Context) ([]domain.CarModel, error) {
	return s.repo.ListCarModels(ctx)
}

// HashPassword is the lowercase hex SHA-256 of the UTF-8 password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func VerifyPassword(password, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(HashPassword(password)), []byte(strings.ToLower(digest))) == 1
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
