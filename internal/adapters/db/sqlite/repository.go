package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sidhync-maker/workshop/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

type WorkshopRepository struct {
	db *gorm.DB
}

func Open(path string) (*gorm.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        dsn,
	}, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
}

func NewWorkshopRepository(db *gorm.DB) *WorkshopRepository {
	return &WorkshopRepository{db: db}
}

func (r *WorkshopRepository) CreateUser(ctx context.Context, value domain.User) (domain.User, error) {
	m := UserModel{
		Username:     strings.TrimSpace(value.Username),
		PasswordHash: value.PasswordHash,
		Role:         value.Role,
		CreatedAt:    nowOr(value.CreatedAt),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.User{}, mapError(err)
	}
	return toUser(m), nil
}

func (r *WorkshopRepository) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&m).Error; err != nil {
		return domain.User{}, mapError(err)
	}
	return toUser(m), nil
}

func (r *WorkshopRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows := make([]UserModel, 0)
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.User, 0, len(rows))
	for _, m := range rows {
		result = append(result, toUser(m))
	}
	return result, nil
}

func (r *WorkshopRepository) ManagerExists(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserModel{}).Where("role = ?", domain.RoleManager).Count(&count).Error
	return count > 0, err
}

func (r *WorkshopRepository) CreatePurchase(ctx context.Context, value domain.Purchase) (domain.Purchase, error) {
	m := PurchaseModel{
		ItemCode:    value.ItemCode,
		ItemName:    value.ItemName,
		Qty:         value.Qty,
		Rate:        value.Rate,
		Total:       value.Total,
		PurchasedAt: nowOr(value.PurchasedAt),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		stock := StockModel{ItemCode: value.ItemCode, ItemName: value.ItemName, Qty: value.Qty}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_code"}},
			DoUpdates: clause.Assignments(map[string]any{"qty": gorm.Expr("stock.qty + excluded.qty")}),
		}).Create(&stock).Error
	})
	if err != nil {
		return domain.Purchase{}, mapError(err)
	}
	return toPurchase(m), nil
}

func (r *WorkshopRepository) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	rows := make([]PurchaseModel, 0)
	if err := r.db.WithContext(ctx).Order("purchased_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Purchase, 0, len(rows))
	for _, m := range rows {
		result = append(result, toPurchase(m))
	}
	return result, nil
}

func (r *WorkshopRepository) SumPurchaseTotals(ctx context.Context, ids []uint) (float64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var sum float64
	err := r.db.WithContext(ctx).
		Model(&PurchaseModel{}).
		Select("COALESCE(SUM(total), 0)").
		Where("id IN ?", ids).
		Scan(&sum).Error
	return sum, err
}

func (r *WorkshopRepository) ListStock(ctx context.Context) ([]domain.StockItem, error) {
	rows := make([]StockModel, 0)
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.StockItem, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.StockItem{ID: m.ID, ItemCode: m.ItemCode, ItemName: m.ItemName, Qty: m.Qty})
	}
	return result, nil
}

func (r *WorkshopRepository) CreateBilling(ctx context.Context, value domain.Billing) (domain.Billing, error) {
	m := BillingModel{
		CarModel:    value.CarModel,
		Complaints:  value.Complaints,
		StartDate:   value.StartDate,
		EndDate:     value.EndDate,
		Labour:      value.Labour,
		PurchaseAmt: value.PurchaseAmt,
		Total:       value.Total,
		BilledAt:    nowOr(value.BilledAt),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Billing{}, mapError(err)
	}
	return toBilling(m), nil
}

func (r *WorkshopRepository) ListBilling(ctx context.Context) ([]domain.Billing, error) {
	rows := make([]BillingModel, 0)
	if err := r.db.WithContext(ctx).Order("billed_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Billing, 0, len(rows))
	for _, m := range rows {
		result = append(result, toBilling(m))
	}
	return result, nil
}

func (r *WorkshopRepository) CreateMechanicEntry(ctx context.Context, value domain.MechanicEntry) (domain.MechanicEntry, error) {
	m := MechanicEntryModel{Username: value.Username, WorkDate: value.WorkDate, Activity: value.Activity, Earning: value.Earning}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.MechanicEntry{}, mapError(err)
	}
	return toMechanicEntry(m), nil
}

func (r *WorkshopRepository) ListMechanicEntries(ctx context.Context, username string) ([]domain.MechanicEntry, error) {
	q := r.db.WithContext(ctx).Model(&MechanicEntryModel{})
	if strings.TrimSpace(username) != "" {
		q = q.Where("username = ?", strings.TrimSpace(username))
	}
	rows := make([]MechanicEntryModel, 0)
	if err := q.Order("work_date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.MechanicEntry, 0, len(rows))
	for _, m := range rows {
		result = append(result, toMechanicEntry(m))
	}
	return result, nil
}

func (r *WorkshopRepository) CreateCarModel(ctx context.Context, model string) (bool, error) {
	m := CarModelModel{Model: model}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if res.Error != nil {
		return false, mapError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *WorkshopRepository) ListCarModels(ctx context.Context) ([]domain.CarModel, error) {
	rows := make([]CarModelModel, 0)
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.CarModel, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.CarModel{ID: m.ID, Model: m.Model})
	}
	return result, nil
}

func toUser(m UserModel) domain.User {
	return domain.User{ID: m.ID, Username: m.Username, PasswordHash: m.PasswordHash, Role: m.Role, CreatedAt: m.CreatedAt}
}

func toPurchase(m PurchaseModel) domain.Purchase {
	return domain.Purchase{
		ID:          m.ID,
		ItemCode:    m.ItemCode,
		ItemName:    m.ItemName,
		Qty:         m.Qty,
		Rate:        m.Rate,
		Total:       m.Total,
		PurchasedAt: m.PurchasedAt,
	}
}

func toBilling(m BillingModel) domain.Billing {
	return domain.Billing{
		ID:          m.ID,
		CarModel:    m.CarModel,
		Complaints:  m.Complaints,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		Labour:      m.Labour,
		PurchaseAmt: m.PurchaseAmt,
		Total:       m.Total,
		BilledAt:    m.BilledAt,
	}
}

func toMechanicEntry(m MechanicEntryModel) domain.MechanicEntry {
	return domain.MechanicEntry{ID: m.ID, Username: m.Username, WorkDate: m.WorkDate, Activity: m.Activity, Earning: m.Earning}
}

func nowOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", domain.ErrDuplicate, err)
	}
	return err
}
