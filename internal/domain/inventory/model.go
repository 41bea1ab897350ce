package inventory

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeReagent    = "reagent"
	TypeConsumable = "consumable"
)

// Days before expiry at which an item shows up in the expiring-soon alert.
const expiryAlertWindowDays = 30

type Item struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ItemName     string    `db:"item_name" json:"item_name"`
	ItemType     string    `db:"item_type" json:"item_type"`
	LotNumber    string    `db:"lot_number" json:"lot_number"`
	Quantity     int       `db:"quantity" json:"quantity"`
	Unit         string    `db:"unit" json:"unit"`
	ExpiryDate   time.Time `db:"expiry_date" json:"expiry_date"`
	MinimumStock int       `db:"minimum_stock" json:"minimum_stock"`
	Supplier     string    `db:"supplier" json:"supplier"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ExpiringItem is an Item annotated with how many whole days remain before
// its lot expires.
type ExpiringItem struct {
	*Item
	DaysToExpire int `json:"days_to_expire"`
}

// Alerts groups the stock conditions a lab supervisor acts on.
type Alerts struct {
	LowStock     []*Item         `json:"low_stock"`
	ExpiringSoon []*ExpiringItem `json:"expiring_soon"`
}
