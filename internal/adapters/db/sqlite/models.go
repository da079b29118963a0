package sqlite

import "time"

type UserModel struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null"`
	CreatedAt    time.Time
}

func (UserModel) TableName() string { return "users" }

type PurchaseModel struct {
	ID          uint `gorm:"primaryKey"`
	ItemCode    string
	ItemName    string
	Qty         int
	Rate        float64
	Total       float64
	PurchasedAt time.Time `gorm:"index"`
}

func (PurchaseModel) TableName() string { return "purchases" }

type StockModel struct {
	ID       uint   `gorm:"primaryKey"`
	ItemCode string `gorm:"uniqueIndex"`
	ItemName string
	Qty      int
}

func (StockModel) TableName() string { return "stock" }

type BillingModel struct {
	ID          uint `gorm:"primaryKey"`
	CarModel    string
	Complaints  string
	StartDate   string
	EndDate     string
	Labour      float64
	PurchaseAmt float64
	Total       float64
	BilledAt    time.Time `gorm:"index"`
}

func (BillingModel) TableName() string { return "billing" }

type MechanicEntryModel struct {
	ID       uint `gorm:"primaryKey"`
	Username string
	WorkDate string
	Activity string
	Earning  float64
}

func (MechanicEntryModel) TableName() string { return "mechanics" }

type CarModelModel struct {
	ID    uint   `gorm:"primaryKey"`
	Model string `gorm:"column:model;uniqueIndex"`
}

func (CarModelModel) TableName() string { return "car_models" }
