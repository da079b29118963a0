package application_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/sidhync-maker/workshop/internal/adapters/db/sqlite"
	"github.com/sidhync-maker/workshop/internal/application"
	"github.com/sidhync-maker/workshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*application.WorkshopService, *gorm.DB) {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "workshop_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := sqlite.RunMigrations(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	svc := application.NewWorkshopService(sqlite.NewWorkshopRepository(db), application.NewSessionStore(0))
	if err := svc.BootstrapManager(ctx, "manager", "admin123"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return svc, db
}

func TestBootstrapIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	before, err := svc.VerifyCredentials(ctx, "manager", "admin123")
	require.NoError(t, err)

	require.NoError(t, sqlite.RunMigrations(ctx, db))
	require.NoError(t, svc.BootstrapManager(ctx, "manager", "admin123"))

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, before.ID, users[0].ID)
	assert.Equal(t, before.PasswordHash, users[0].PasswordHash)
	assert.Equal(t, domain.RoleManager, users[0].Role)
}

func TestBootstrapSkipsWhenAnotherManagerExists(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, ok, err := svc.CreateUser(ctx, "boss2", "pw", domain.RoleManager)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.BootstrapManager(ctx, "someone-else", "pw"))
	_, err = svc.VerifyCredentials(ctx, "someone-else", "pw")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestHashPasswordIsHexSHA256(t *testing.T) {
	assert.Equal(t,
		"240be518fabd2724ddb6f04eeb1da5967448d7e831c08c8fa822809f74c720a9",
		application.HashPassword("admin123"),
	)
	assert.True(t, application.VerifyPassword("admin123", strings.ToUpper(application.HashPassword("admin123"))))
	assert.False(t, application.VerifyPassword("admin124", application.HashPassword("admin123")))
}

func TestVerifyCredentialsSameErrorForUnknownUserAndWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, errWrong := svc.VerifyCredentials(ctx, "manager", "wrong")
	_, errUnknown := svc.VerifyCredentials(ctx, "ghost", "admin123")

	require.Error(t, errWrong)
	require.Error(t, errUnknown)
	assert.ErrorIs(t, errWrong, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, domain.ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())

	u, err := svc.VerifyCredentials(ctx, "manager", "admin123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, u.Role)
}

func TestLoginSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sess, err := svc.Login(ctx, "manager", "admin123")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	assert.Equal(t, "manager", sess.Username)
	assert.True(t, sess.IsManager())

	got, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "manager", got.Username)
	assert.Empty(t, got.Token)

	svc.Logout(ctx, sess.Token)
	_, err = svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Login(ctx, "manager", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestCreateUserDuplicateFailsWithoutMutation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	alice, ok, err := svc.CreateUser(ctx, "alice", "pw1", domain.RoleMechanic)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.RoleMechanic, alice.Role)

	_, ok, err = svc.CreateUser(ctx, "alice", "pw2", domain.RoleManager)
	require.NoError(t, err)
	assert.False(t, ok)

	u, err := svc.VerifyCredentials(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMechanic, u.Role)
}

func TestCreateUserValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, _, err := svc.CreateUser(ctx, "", "pw", domain.RoleMechanic)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = svc.CreateUser(ctx, "bob", "", domain.RoleMechanic)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = svc.CreateUser(ctx, "bob", "pw", "owner")
	assert.ErrorIs(t, err, domain.ErrValidation)

	u, ok, err := svc.CreateUser(ctx, "bob", "pw", "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.RoleMechanic, u.Role)
}

func TestPurchasesAccumulateStock(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	p1, err := svc.AddPurchase(ctx, "BRK01", "Brake pad", 4, 250)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, p1.Total)

	p2, err := svc.AddPurchase(ctx, "BRK01", "Brake pad", 6, 240)
	require.NoError(t, err)
	assert.Equal(t, 1440.0, p2.Total)

	stock, err := svc.ListStock(ctx)
	require.NoError(t, err)
	require.Len(t, stock, 1)
	assert.Equal(t, "BRK01", stock[0].ItemCode)
	assert.Equal(t, 10, stock[0].Qty)

	purchases, err := svc.ListPurchases(ctx)
	require.NoError(t, err)
	assert.Len(t, purchases, 2)
}

func TestPurchaseTotalIsQtyTimesRate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	qty, rate := 3, 0.1
	p, err := svc.AddPurchase(ctx, "FLT1", "Filter", qty, rate)
	require.NoError(t, err)
	assert.Equal(t, float64(qty)*rate, p.Total)
	assert.Equal(t, 0.30000000000000004, p.Total)

	free, err := svc.AddPurchase(ctx, "FREE", "Sample", 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, free.Total)
}

func TestAddPurchaseValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	cases := []struct {
		name     string
		code     string
		itemName string
		qty      int
		rate     float64
	}{
		{"missing code", "", "Brake pad", 1, 10},
		{"missing name", "BRK01", " ", 1, 10},
		{"zero qty", "BRK01", "Brake pad", 0, 10},
		{"negative rate", "BRK01", "Brake pad", 1, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddPurchase(ctx, tc.code, tc.itemName, tc.qty, tc.rate)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	stock, err := svc.ListStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, stock)
}

func TestBillingTotalFromSelectedPurchases(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	p1, err := svc.AddPurchase(ctx, "BRK01", "Brake pad", 4, 250)
	require.NoError(t, err)
	_, err = svc.AddPurchase(ctx, "OIL5", "Oil", 2, 400)
	require.NoError(t, err)

	amount, err := svc.PurchaseAmountFor(ctx, []uint{p1.ID, p1.ID, 0, 9999})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, amount)

	zero, err := svc.PurchaseAmountFor(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, zero)

	bill, err := svc.AddBilling(ctx, application.BillingInput{
		CarModel:       "Sedan X",
		Complaints:     "squeaky brakes",
		StartDate:      "2024-05-01",
		EndDate:        "2024-05-02",
		Labour:         500,
		PurchaseAmount: amount,
	})
	require.NoError(t, err)
	assert.Equal(t, 1500.0, bill.Total)

	// billing never touches stock
	stock, err := svc.ListStock(ctx)
	require.NoError(t, err)
	require.Len(t, stock, 2)
	assert.Equal(t, 4, stock[0].Qty)

	bills, err := svc.ListBilling(ctx)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, "Sedan X", bills[0].CarModel)
}

func TestAddBillingValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.AddBilling(ctx, application.BillingInput{CarModel: "", Labour: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.AddBilling(ctx, application.BillingInput{CarModel: "Sedan X", Labour: -5})
	assert.ErrorIs(t, err, domain.ErrValidation)

	b, err := svc.AddBilling(ctx, application.BillingInput{CarModel: "Sedan X"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.Total)
}

func TestBillingTotalIsLabourPlusParts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	in := application.BillingInput{CarModel: "Sedan X", Labour: 0.1, PurchaseAmount: 0.2}
	b, err := svc.AddBilling(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in.Labour+in.PurchaseAmount, b.Total)
}

func TestAddCarModelIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	inserted, err := svc.AddCarModel(ctx, "Sedan X")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = svc.AddCarModel(ctx, " Sedan X ")
	require.NoError(t, err)
	assert.False(t, inserted)

	models, err := svc.ListCarModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 1)

	_, err = svc.AddCarModel(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMechanicEntriesAndEarnings(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.AddMechanicEntry(ctx, "alice", "2024-05-01", "Oil change", 300)
	require.NoError(t, err)
	_, err = svc.AddMechanicEntry(ctx, "alice", "2024-05-01", "Brake job", 500)
	require.NoError(t, err)
	_, err = svc.AddMechanicEntry(ctx, "bob", "2024-05-02", gofakeit.Sentence(4), 150)
	require.NoError(t, err)

	alice, err := svc.ListMechanicEntries(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	all, err := svc.ListMechanicEntries(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	earnings, err := svc.MechanicEarnings(ctx)
	require.NoError(t, err)
	require.Len(t, earnings, 2)
	assert.Equal(t, domain.MechanicEarning{Username: "alice", Entries: 2, TotalEarning: 800}, earnings[0])
	assert.Equal(t, domain.MechanicEarning{Username: "bob", Entries: 1, TotalEarning: 150}, earnings[1])
}

func TestListMechanicEntriesUnknownUserIsEmpty(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.AddMechanicEntry(ctx, "alice", "2024-05-01", "Oil change", 300)
	require.NoError(t, err)

	bob, err := svc.ListMechanicEntries(ctx, "bob")
	require.NoError(t, err)
	assert.NotNil(t, bob)
	assert.Empty(t, bob)
}

func TestAddMechanicEntryDefaultsWorkDate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	e, err := svc.AddMechanicEntry(ctx, "alice", "", "Wash", 0)
	require.NoError(t, err)
	assert.Len(t, e.WorkDate, len("2006-01-02"))

	_, err = svc.AddMechanicEntry(ctx, "alice", "2024-05-01", "Wash", -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.AddMechanicEntry(ctx, " ", "2024-05-01", "Wash", 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCanAccessPage(t *testing.T) {
	svc := application.NewWorkshopService(nil, nil)

	for _, page := range []string{
		application.PageHome, application.PagePurchases, application.PageStock, application.PageBilling,
		application.PageMechanics, application.PageCarModels, application.PageData, application.PageUsers,
	} {
		assert.True(t, svc.CanAccessPage(domain.RoleManager, page), page)
	}

	assert.True(t, svc.CanAccessPage(domain.RoleMechanic, application.PageHome))
	assert.True(t, svc.CanAccessPage(domain.RoleMechanic, application.PageMechanics))
	assert.False(t, svc.CanAccessPage(domain.RoleMechanic, application.PagePurchases))
	assert.False(t, svc.CanAccessPage(domain.RoleMechanic, application.PageUsers))
	assert.False(t, svc.CanAccessPage("", application.PageHome))
}

func TestSummarizeEarningsEmpty(t *testing.T) {
	assert.Empty(t, application.SummarizeEarnings(nil))
}

func TestErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(domain.ErrInvalidCredentials, domain.ErrUnauthorized))
	assert.True(t, errors.Is(domain.Invalid("x"), domain.ErrValidation))
	assert.Equal(t, "x", domain.Invalid("x").Error())
}

func TestMechanicOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	manager := application.Session{Username: "manager", Role: domain.RoleManager}
	alice := application.Session{Username: "alice", Role: domain.RoleMechanic}

	target, err := svc.MechanicFor(alice, "")
	require.NoError(t, err)
	assert.Equal(t, "alice", target)

	_, err = svc.MechanicFor(alice, "bob")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	target, err = svc.MechanicFor(manager, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", target)

	_, err = svc.MechanicFor(manager, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.AddMechanicEntry(ctx, "alice", "2024-05-01", "Oil change", 300)
	require.NoError(t, err)
	_, err = svc.AddMechanicEntry(ctx, "bob", "2024-05-01", "Tyres", 100)
	require.NoError(t, err)

	own, err := svc.VisibleMechanicEntries(ctx, alice, "bob")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "alice", own[0].Username)

	all, err := svc.VisibleMechanicEntries(ctx, manager, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.NoError(t, svc.Authorize(manager, application.PageUsers))
	assert.ErrorIs(t, svc.Authorize(alice, application.PageUsers), domain.ErrForbidden)
}
