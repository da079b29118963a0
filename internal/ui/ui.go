package ui

import (
	"strconv"
	"time"

	"github.com/sidhync-maker/workshop/internal/domain"
)

type NavItem struct {
	Page   string
	Path   string
	Label  string
	Active bool
}

// Pages is the full navigation in display order. Callers filter it by role.
var Pages = []NavItem{
	{Page: "home", Path: "/home", Label: "Home"},
	{Page: "purchases", Path: "/purchases", Label: "Purchase"},
	{Page: "stock", Path: "/stock", Label: "Stock"},
	{Page: "billing", Path: "/billing", Label: "Billing"},
	{Page: "mechanics", Path: "/mechanics", Label: "Mechanics"},
	{Page: "car-models", Path: "/car-models", Label: "Car Models"},
	{Page: "data", Path: "/data", Label: "Export/Import"},
	{Page: "users", Path: "/users", Label: "Users"},
}

type Viewer struct {
	Username string
	Role     string
	Nav      []NavItem
}

func (v Viewer) IsManager() bool {
	return v.Role == domain.RoleManager
}

type chrome struct {
	Title  string
	Viewer Viewer
}

func (v Viewer) chrome(title, active string) chrome {
	nav := make([]NavItem, 0, len(v.Nav))
	for _, item := range v.Nav {
		item.Active = item.Page == active
		nav = append(nav, item)
	}
	v.Nav = nav
	return chrome{Title: title, Viewer: v}
}

type BillingView struct {
	Purchases []domain.Purchase
	CarModels []domain.CarModel
	Bills     []domain.Billing
}

type MechanicsView struct {
	Entries  []domain.MechanicEntry
	Earnings []domain.MechanicEarning
	Users    []domain.User
}

func mechanicSignals(v Viewer) string {
	username := ""
	if !v.IsManager() {
		username = v.Username
	}
	return "{mechUsername: '" + username + "', mechWorkDate: '', mechActivity: '', mechEarning: '0'}"
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func datetime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}
