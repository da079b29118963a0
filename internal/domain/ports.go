package domain

import "context"

type WorkshopRepository interface {
	CreateUser(ctx context.Context, value User) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ManagerExists(ctx context.Context) (bool, error)

	// CreatePurchase stores the purchase and increments the stock row for its
	// item code in one transaction.
	CreatePurchase(ctx context.Context, value Purchase) (Purchase, error)
	ListPurchases(ctx context.Context) ([]Purchase, error)
	SumPurchaseTotals(ctx context.Context, ids []uint) (float64, error)
	ListStock(ctx context.Context) ([]StockItem, error)

	CreateBilling(ctx context.Context, value Billing) (Billing, error)
	ListBilling(ctx context.Context) ([]Billing, error)

	CreateMechanicEntry(ctx context.Context, value MechanicEntry) (MechanicEntry, error)
	ListMechanicEntries(ctx context.Context, username string) ([]MechanicEntry, error)

	// CreateCarModel ignores duplicates and reports whether a row was inserted.
	CreateCarModel(ctx context.Context, model string) (bool, error)
	ListCarModels(ctx context.Context) ([]CarModel, error)
}
