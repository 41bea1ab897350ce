package inventory

import (
	"context"
	"time"

	"github.com/lims/lims/internal/domain/audit"
	"github.com/lims/lims/pkg/errs"
)

type Service struct {
	repo     Repository
	recorder audit.Recorder
	now      func() time.Time
}

func NewService(repo Repository, recorder audit.Recorder) *Service {
	return &Service{repo: repo, recorder: recorder, now: time.Now}
}

func (s *Service) AddItem(ctx context.Context, item *Item) error {
	if item.ItemName == "" {
		return errs.Validation("inventory item", "item_name", "is required")
	}
	if item.ItemType != TypeReagent && item.ItemType != TypeConsumable {
		return errs.Validation("inventory item", "item_type", "must be reagent or consumable")
	}
	if item.Quantity < 0 {
		return errs.Validation("inventory item", "quantity", "must not be negative")
	}
	if item.MinimumStock < 0 {
		return errs.Validation("inventory item", "minimum_stock", "must not be negative")
	}
	if item.ExpiryDate.IsZero() {
		return errs.Validation("inventory item", "expiry_date", "is required")
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return err
	}
	return s.recorder.Record(ctx, &audit.Event{
		Action:   audit.ActionCreate,
		Module:   "inventory",
		RecordID: item.ID.String(),
		Details:  map[string]interface{}{"item_name": item.ItemName, "lot_number": item.LotNumber},
	})
}

func (s *Service) ListItems(ctx context.Context, params map[string]string, limit, offset int) ([]*Item, int, error) {
	return s.repo.List(ctx, params, limit, offset)
}

// StockAlerts scans the inventory for lots at or below minimum stock and
// lots expiring within the alert window. Already-expired lots are excluded;
// they are a disposal problem, not a reorder one.
func (s *Service) StockAlerts(ctx context.Context) (*Alerts, error) {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	alerts := &Alerts{LowStock: []*Item{}, ExpiringSoon: []*ExpiringItem{}}
	for _, item := range items {
		if item.Quantity <= item.MinimumStock {
			alerts.LowStock = append(alerts.LowStock, item)
		}
		days := int(item.ExpiryDate.Sub(now).Hours() / 24)
		if days >= 0 && days <= expiryAlertWindowDays {
			alerts.ExpiringSoon = append(alerts.ExpiringSoon, &ExpiringItem{Item: item, DaysToExpire: days})
		}
	}
	return alerts, nil
}
