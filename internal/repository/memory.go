package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"order_service/internal/models"
)

// MemoryStore keeps orders, coupons and dispatch settings in process memory.
// It honours the same atomicity rules as the gorm repositories and backs
// STORAGE_DRIVER=memory and the service tests.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   uint
	orders   map[string]*models.Order
	coupons  map[string]*models.Coupon
	settings *models.DispatchSettings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:  make(map[string]*models.Order),
		coupons: make(map[string]*models.Coupon),
	}
}

func (s *MemoryStore) Orders() OrderRepository {
	return &memoryOrderRepository{store: s}
}

func (s *MemoryStore) Coupons() CouponRepository {
	return &memoryCouponRepository{store: s}
}

func (s *MemoryStore) Settings() SettingsRepository {
	return &memorySettingsRepository{store: s}
}

func (s *MemoryStore) id() uint {
	s.nextID++
	return s.nextID
}

type memoryOrderRepository struct {
	store *MemoryStore
}

func (r *memoryOrderRepository) Create(ctx context.Context, order *models.Order) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.CheckoutKey != nil {
		for _, existing := range s.orders {
			if existing.CheckoutKey != nil && *existing.CheckoutKey == *order.CheckoutKey {
				return ErrDuplicateCheckout
			}
		}
	}
	if _, exists := s.orders[order.OrderNumber]; exists {
		return ErrVersionConflict
	}

	if order.CouponCode != "" {
		coupon, ok := s.coupons[order.CouponCode]
		if !ok || !coupon.IsActive || coupon.Exhausted() {
			return ErrCouponExhausted
		}
		coupon.UsedCount++
	}

	now := time.Now()
	order.ID = s.id()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	for i := range order.Items {
		order.Items[i].ID = s.id()
		order.Items[i].OrderID = order.ID
	}
	for i := range order.StatusHistory {
		order.StatusHistory[i].ID = s.id()
		order.StatusHistory[i].OrderID = order.ID
	}
	s.orders[order.OrderNumber] = order.Clone()
	return nil
}

func (r *memoryOrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	order, ok := r.store.orders[orderNumber]
	if !ok {
		return nil, ErrNotFound
	}
	return order.Clone(), nil
}

func (r *memoryOrderRepository) GetByCheckoutKey(ctx context.Context, key string) (*models.Order, error) {
	return r.find(func(o *models.Order) bool {
		return o.CheckoutKey != nil && *o.CheckoutKey == key
	})
}

func (r *memoryOrderRepository) GetByPaymentOrderRef(ctx context.Context, ref string) (*models.Order, error) {
	return r.find(func(o *models.Order) bool {
		return o.PaymentOrderRef != nil && *o.PaymentOrderRef == ref
	})
}

func (r *memoryOrderRepository) find(match func(*models.Order) bool) (*models.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, order := range r.store.orders {
		if match(order) {
			return order.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]models.Order, 0, len(r.store.orders))
	for _, order := range r.store.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		matched = append(matched, *order.Clone())
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []models.Order{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (r *memoryOrderRepository) Update(ctx context.Context, order *models.Order) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[order.OrderNumber]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != order.Version {
		return ErrVersionConflict
	}
	if stored.Courier != nil && order.Courier != nil && order.Courier.ID == 0 {
		return ErrVersionConflict
	}

	for i := range order.StatusHistory {
		if order.StatusHistory[i].ID == 0 {
			order.StatusHistory[i].ID = s.id()
			order.StatusHistory[i].OrderID = order.ID
		}
	}
	if order.Courier != nil && order.Courier.ID == 0 {
		order.Courier.ID = s.id()
		order.Courier.OrderID = order.ID
	}
	order.Version++
	order.UpdatedAt = time.Now()
	s.orders[order.OrderNumber] = order.Clone()
	return nil
}

type memoryCouponRepository struct {
	store *MemoryStore
}

func (r *memoryCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.coupons[coupon.Code]; exists {
		return ErrDuplicateCoupon
	}
	now := time.Now()
	coupon.ID = s.id()
	coupon.CreatedAt = now
	coupon.UpdatedAt = now
	stored := *coupon
	s.coupons[coupon.Code] = &stored
	return nil
}

func (r *memoryCouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	coupon, ok := r.store.coupons[code]
	if !ok {
		return nil, ErrNotFound
	}
	c := *coupon
	return &c, nil
}

func (r *memoryCouponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.coupons[coupon.Code]
	if !ok {
		return ErrNotFound
	}
	updated := *coupon
	updated.ID = stored.ID
	updated.UsedCount = stored.UsedCount
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now()
	s.coupons[coupon.Code] = &updated
	return nil
}

func (r *memoryCouponRepository) List(ctx context.Context) ([]models.Coupon, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	coupons := make([]models.Coupon, 0, len(r.store.coupons))
	for _, c := range r.store.coupons {
		coupons = append(coupons, *c)
	}
	sort.Slice(coupons, func(i, j int) bool { return coupons[i].Code < coupons[j].Code })
	return coupons, nil
}

type memorySettingsRepository struct {
	store *MemoryStore
}

func (r *memorySettingsRepository) GetDispatchSettings(ctx context.Context) (*models.DispatchSettings, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if r.store.settings == nil {
		return nil, ErrNotFound
	}
	settings := *r.store.settings
	return &settings, nil
}

func (r *memorySettingsRepository) UpdateDispatchSettings(ctx context.Context, settings *models.DispatchSettings) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if settings.ID == 0 {
		settings.ID = s.id()
		settings.CreatedAt = time.Now()
	}
	settings.IsActive = true
	settings.UpdatedAt = time.Now()
	stored := *settings
	s.settings = &stored
	return nil
}
