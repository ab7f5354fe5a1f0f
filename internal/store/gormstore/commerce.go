package gormstore

import (
	"context"
	"time"

	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ---- menu ----

func (s *Store) ListMenuCategories(ctx context.Context, branchID uint) ([]models.MenuCategory, error) {
	return byBranch[models.MenuCategory](ctx, s.db, branchID)
}

func (s *Store) GetMenuCategory(ctx context.Context, id uint) (*models.MenuCategory, error) {
	return first[models.MenuCategory](ctx, s.db, id)
}

func (s *Store) CreateMenuCategory(ctx context.Context, mc *models.MenuCategory) error {
	return translate(s.db.WithContext(ctx).Create(mc).Error)
}

func (s *Store) UpdateMenuCategory(ctx context.Context, mc *models.MenuCategory) error {
	return update(s.db.WithContext(ctx), mc)
}

func (s *Store) ListMenuItems(ctx context.Context, branchID uint) ([]models.MenuItem, error) {
	return byBranch[models.MenuItem](ctx, s.db, branchID)
}

func (s *Store) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	return first[models.MenuItem](ctx, s.db, id)
}

func (s *Store) CreateMenuItem(ctx context.Context, mi *models.MenuItem) error {
	return translate(s.db.WithContext(ctx).Create(mi).Error)
}

func (s *Store) UpdateMenuItem(ctx context.Context, mi *models.MenuItem) error {
	return update(s.db.WithContext(ctx), mi)
}

// ---- orders ----

func (s *Store) ListOrders(ctx context.Context, branchID uint) ([]models.RestaurantOrder, error) {
	return byBranch[models.RestaurantOrder](ctx, s.db, branchID)
}

func (s *Store) GetOrder(ctx context.Context, id uint) (*models.RestaurantOrder, error) {
	return first[models.RestaurantOrder](ctx, s.db, id)
}

func (s *Store) CreateOrder(ctx context.Context, o *models.RestaurantOrder) error {
	return translate(s.db.WithContext(ctx).Create(o).Error)
}

func (s *Store) UpdateOrder(ctx context.Context, o *models.RestaurantOrder) error {
	return update(s.db.WithContext(ctx), o)
}

// ---- inventory ----

func (s *Store) ListInventoryCategories(ctx context.Context, branchID uint) ([]models.InventoryCategory, error) {
	return byBranch[models.InventoryCategory](ctx, s.db, branchID)
}

func (s *Store) GetInventoryCategory(ctx context.Context, id uint) (*models.InventoryCategory, error) {
	return first[models.InventoryCategory](ctx, s.db, id)
}

func (s *Store) CreateInventoryCategory(ctx context.Context, ic *models.InventoryCategory) error {
	return translate(s.db.WithContext(ctx).Create(ic).Error)
}

func (s *Store) ListInventoryItems(ctx context.Context, branchID uint) ([]models.InventoryItem, error) {
	return byBranch[models.InventoryItem](ctx, s.db, branchID)
}

func (s *Store) GetInventoryItem(ctx context.Context, id uint) (*models.InventoryItem, error) {
	return first[models.InventoryItem](ctx, s.db, id)
}

func (s *Store) CreateInventoryItem(ctx context.Context, it *models.InventoryItem) error {
	return translate(s.db.WithContext(ctx).Create(it).Error)
}

func (s *Store) UpdateInventoryItem(ctx context.Context, it *models.InventoryItem) error {
	return update(s.db.WithContext(ctx), it)
}

func (s *Store) AdjustStock(ctx context.Context, id uint, delta decimal.Decimal, restockedAt *time.Time) (*models.InventoryItem, error) {
	var it models.InventoryItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&it, id).Error; err != nil {
			return translate(err)
		}
		next := it.CurrentStock.Add(delta)
		if next.IsNegative() {
			return store.ErrInsufficientStock
		}
		it.CurrentStock = next
		if restockedAt != nil {
			t := *restockedAt
			it.LastRestocked = &t
		}
		return update(tx, &it)
	})
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// ---- invoices ----

func (s *Store) ListInvoices(ctx context.Context, branchID uint) ([]models.Invoice, error) {
	return byBranch[models.Invoice](ctx, s.db, branchID)
}

func (s *Store) GetInvoice(ctx context.Context, id uint) (*models.Invoice, error) {
	return first[models.Invoice](ctx, s.db, id)
}

func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	return translate(s.db.WithContext(ctx).Create(inv).Error)
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	return update(s.db.WithContext(ctx), inv)
}

func (s *Store) PayInvoice(ctx context.Context, inv *models.Invoice) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// guarded on the stored status so concurrent payments credit once
		res := tx.Model(&models.Invoice{}).
			Where("id = ? AND status = ?", inv.ID, models.InvoicePending).
			Updates(map[string]any{
				"status":         inv.Status,
				"paid_date":      inv.PaidDate,
				"payment_method": inv.PaymentMethod,
			})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			if _, err := first[models.Invoice](ctx, tx, inv.ID); err != nil {
				return err
			}
			return store.ErrNotPending
		}
		if inv.ReservationID == nil {
			return nil
		}
		return addPayment(tx, *inv.ReservationID, inv.Total)
	})
}
