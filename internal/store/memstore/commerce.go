package memstore

import (
	"context"
	"time"

	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/shopspring/decimal"
)

// ---- menu ----

func (s *Store) ListMenuCategories(ctx context.Context, branchID uint) ([]models.MenuCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.menuCategories, func(mc *models.MenuCategory) bool { return mc.BranchID == branchID }), nil
}

func (s *Store) GetMenuCategory(ctx context.Context, id uint) (*models.MenuCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.menuCategories, id)
}

func (s *Store) CreateMenuCategory(ctx context.Context, mc *models.MenuCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mc.ID = s.nextID()
	s.menuCategories[mc.ID] = *mc
	return nil
}

func (s *Store) UpdateMenuCategory(ctx context.Context, mc *models.MenuCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menuCategories[mc.ID]; !ok {
		return store.ErrNotFound
	}
	s.menuCategories[mc.ID] = *mc
	return nil
}

func (s *Store) ListMenuItems(ctx context.Context, branchID uint) ([]models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.menuItems, func(mi *models.MenuItem) bool { return mi.BranchID == branchID }), nil
}

func (s *Store) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.menuItems, id)
}

func (s *Store) CreateMenuItem(ctx context.Context, mi *models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mi.ID = s.nextID()
	s.menuItems[mi.ID] = *mi
	return nil
}

func (s *Store) UpdateMenuItem(ctx context.Context, mi *models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menuItems[mi.ID]; !ok {
		return store.ErrNotFound
	}
	s.menuItems[mi.ID] = *mi
	return nil
}

// ---- orders ----

func (s *Store) ListOrders(ctx context.Context, branchID uint) ([]models.RestaurantOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.orders, func(o *models.RestaurantOrder) bool { return o.BranchID == branchID }), nil
}

func (s *Store) GetOrder(ctx context.Context, id uint) (*models.RestaurantOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.orders, id)
}

func (s *Store) CreateOrder(ctx context.Context, o *models.RestaurantOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.orders {
		if existing.OrderNumber == o.OrderNumber {
			return store.ErrDuplicate
		}
	}
	o.ID = s.nextID()
	o.CreatedAt, o.UpdatedAt = s.now(), s.now()
	s.orders[o.ID] = *o
	return nil
}

func (s *Store) UpdateOrder(ctx context.Context, o *models.RestaurantOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.orders[o.ID]
	if !ok {
		return store.ErrNotFound
	}
	o.CreatedAt, o.UpdatedAt = old.CreatedAt, s.now()
	s.orders[o.ID] = *o
	return nil
}

// ---- inventory ----

func (s *Store) ListInventoryCategories(ctx context.Context, branchID uint) ([]models.InventoryCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.invCategories, func(ic *models.InventoryCategory) bool { return ic.BranchID == branchID }), nil
}

func (s *Store) GetInventoryCategory(ctx context.Context, id uint) (*models.InventoryCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.invCategories, id)
}

func (s *Store) CreateInventoryCategory(ctx context.Context, ic *models.InventoryCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ic.ID = s.nextID()
	s.invCategories[ic.ID] = *ic
	return nil
}

func (s *Store) ListInventoryItems(ctx context.Context, branchID uint) ([]models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.invItems, func(it *models.InventoryItem) bool { return it.BranchID == branchID }), nil
}

func (s *Store) GetInventoryItem(ctx context.Context, id uint) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.invItems, id)
}

func (s *Store) CreateInventoryItem(ctx context.Context, it *models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it.ID = s.nextID()
	it.CreatedAt, it.UpdatedAt = s.now(), s.now()
	s.invItems[it.ID] = *it
	return nil
}

func (s *Store) UpdateInventoryItem(ctx context.Context, it *models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.invItems[it.ID]
	if !ok {
		return store.ErrNotFound
	}
	it.CreatedAt, it.UpdatedAt = old.CreatedAt, s.now()
	s.invItems[it.ID] = *it
	return nil
}

func (s *Store) AdjustStock(ctx context.Context, id uint, delta decimal.Decimal, restockedAt *time.Time) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.invItems[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	next := it.CurrentStock.Add(delta)
	if next.IsNegative() {
		return nil, store.ErrInsufficientStock
	}
	it.CurrentStock = next
	if restockedAt != nil {
		t := *restockedAt
		it.LastRestocked = &t
	}
	it.UpdatedAt = s.now()
	s.invItems[id] = it
	return &it, nil
}

// ---- invoices ----

func (s *Store) ListInvoices(ctx context.Context, branchID uint) ([]models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.invoices, func(inv *models.Invoice) bool { return inv.BranchID == branchID }), nil
}

func (s *Store) GetInvoice(ctx context.Context, id uint) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.invoices, id)
}

func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.invoices {
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return store.ErrDuplicate
		}
	}
	inv.ID = s.nextID()
	inv.CreatedAt, inv.UpdatedAt = s.now(), s.now()
	s.invoices[inv.ID] = *inv
	return nil
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putInvoice(inv)
}

func (s *Store) putInvoice(inv *models.Invoice) error {
	old, ok := s.invoices[inv.ID]
	if !ok {
		return store.ErrNotFound
	}
	inv.CreatedAt, inv.UpdatedAt = old.CreatedAt, s.now()
	s.invoices[inv.ID] = *inv
	return nil
}

func (s *Store) PayInvoice(ctx context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.invoices[inv.ID]
	if !ok {
		return store.ErrNotFound
	}
	if stored.Status != models.InvoicePending {
		return store.ErrNotPending
	}
	if inv.ReservationID != nil {
		if _, ok := s.reservations[*inv.ReservationID]; !ok {
			return store.ErrNotFound
		}
	}
	if err := s.putInvoice(inv); err != nil {
		return err
	}
	if inv.ReservationID != nil {
		return s.addPayment(*inv.ReservationID, inv.Total)
	}
	return nil
}
