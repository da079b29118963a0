package ui

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/sidhync-maker/workshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func managerViewer() Viewer {
	return Viewer{Username: "manager", Role: domain.RoleManager, Nav: Pages}
}

func TestPagesRender(t *testing.T) {
	v := managerViewer()
	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	purchases := []domain.Purchase{{ID: 1, ItemCode: "BRK01", ItemName: "Brake pad", Qty: 4, Rate: 250, Total: 1000, PurchasedAt: at}}
	pages := map[string]templ.Component{
		"home":       HomePage(v),
		"purchases":  PurchasesPage(v, purchases),
		"stock":      StockPage(v, []domain.StockItem{{ID: 1, ItemCode: "BRK01", ItemName: "Brake pad", Qty: 10}}),
		"billing":    BillingPage(v, BillingView{Purchases: purchases, CarModels: []domain.CarModel{{ID: 1, Model: "Sedan X"}}}),
		"mechanics":  MechanicsPage(v, MechanicsView{Earnings: []domain.MechanicEarning{{Username: "alice", Entries: 2, TotalEarning: 800}}}),
		"car-models": CarModelsPage(v, []domain.CarModel{{ID: 1, Model: "Sedan X"}}),
		"data":       DataPage(v, []string{"purchases", "stock"}, &domain.ImportReport{BatchID: "b-1", Imported: 2, Failed: []domain.ImportRowError{{Line: 3, Message: "bad qty"}}}, ""),
		"users":      UsersPage(v, []domain.User{{ID: 1, Username: "manager", Role: domain.RoleManager, CreatedAt: at}}),
	}
	for name, page := range pages {
		html := render(t, page)
		assert.Contains(t, html, "<!doctype html>", name)
		assert.Contains(t, html, `id="flash"`, name)
		assert.Contains(t, html, `class="active"`, name)
	}

	assert.Contains(t, render(t, pages["purchases"]), "1000.00")
	assert.Contains(t, render(t, pages["purchases"]), "2024-05-01 10:30")
	assert.Contains(t, render(t, pages["billing"]), "Sedan X")
	assert.Contains(t, render(t, pages["mechanics"]), "earnings-table")
	assert.Contains(t, render(t, pages["data"]), "/export/stock.csv")
	assert.Contains(t, render(t, pages["data"]), "bad qty")
}

func TestMechanicViewHidesEarnings(t *testing.T) {
	v := Viewer{Username: "alice", Role: domain.RoleMechanic, Nav: Pages[:1]}
	html := render(t, MechanicsPage(v, MechanicsView{
		Entries: []domain.MechanicEntry{{ID: 1, Username: "alice", WorkDate: "2024-05-01", Activity: "Oil change", Earning: 300}},
	}))
	assert.NotContains(t, html, "earnings-table")
	assert.Contains(t, html, "Oil change")
	assert.Contains(t, html, "mechUsername: &#39;alice&#39;")
}

func TestFragmentsEscapeContent(t *testing.T) {
	html := render(t, Flash("<b>nope</b>", "error"))
	assert.Contains(t, html, `class="flash error"`)
	assert.Contains(t, html, "&lt;b&gt;nope&lt;/b&gt;")

	assert.Contains(t, render(t, BillingPreview(1000, 500)), "1500.00")
	assert.Contains(t, render(t, BillingPreview(0.2, 0.1)), "<strong>0.30</strong>")
	assert.Contains(t, render(t, CarModelsTable([]domain.CarModel{{ID: 2, Model: `"Coupe"`}})), "&#34;Coupe&#34;")
	assert.Contains(t, render(t, LoginPage("invalid credentials")), "invalid credentials")
	assert.Contains(t, render(t, StockTable(nil)), "Stock is empty.")
	assert.Contains(t, render(t, BillReceipt(domain.Billing{ID: 7, CarModel: "Sedan X", Total: 1500})), "Bill #7")
}
