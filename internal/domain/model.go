package domain

import "time"

const (
	RoleManager  = "manager"
	RoleMechanic = "mechanic"
)

func ValidRole(role string) bool {
	return role == RoleManager || role == RoleMechanic
}

type User struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Purchase struct {
	ID          uint      `json:"id"`
	ItemCode    string    `json:"item_code"`
	ItemName    string    `json:"item_name"`
	Qty         int       `json:"qty"`
	Rate        float64   `json:"rate"`
	Total       float64   `json:"total"`
	PurchasedAt time.Time `json:"purchased_at"`
}

type StockItem struct {
	ID       uint   `json:"id"`
	ItemCode string `json:"item_code"`
	ItemName string `json:"item_name"`
	Qty      int    `json:"qty"`
}

type Billing struct {
	ID          uint      `json:"id"`
	CarModel    string    `json:"car_model"`
	Complaints  string    `json:"complaints"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Labour      float64   `json:"labour"`
	PurchaseAmt float64   `json:"purchase_amt"`
	Total       float64   `json:"total"`
	BilledAt    time.Time `json:"billed_at"`
}

type MechanicEntry struct {
	ID       uint    `json:"id"`
	Username string  `json:"username"`
	WorkDate string  `json:"work_date"`
	Activity string  `json:"activity"`
	Earning  float64 `json:"earning"`
}

// MechanicEarning is the per-username sum over the work log. It is never stored.
type MechanicEarning struct {
	Username     string  `json:"username"`
	Entries      int     `json:"entries"`
	TotalEarning float64 `json:"total_earning"`
}

type CarModel struct {
	ID    uint   `json:"id"`
	Model string `json:"model"`
}

type ImportRowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type ImportReport struct {
	BatchID  string           `json:"batch_id"`
	Imported int              `json:"imported"`
	Failed   []ImportRowError `json:"failed"`
}
