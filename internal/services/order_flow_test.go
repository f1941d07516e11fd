package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"order_service/internal/models"
	"order_service/internal/repository"
	"order_service/internal/services"
	"order_service/internal/services/mocks"
	"order_service/pkg/courier"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type harnessConfig struct {
	allowSkip     bool
	uberEnabled   bool
	porterEnabled bool
	timeout       time.Duration
	cache         services.TrackingCache
}

type harness struct {
	store    *repository.MemoryStore
	orders   services.OrderService
	coupons  services.CouponService
	dispatch services.DispatchService
	payments services.PaymentService
	tracking services.TrackingService
	uber     *mocks.CourierProvider
	porter   *mocks.CourierProvider

	mu     sync.Mutex
	events []models.OrderEvent
}

func newHarness(t *testing.T, cfg harnessConfig) *harness {
	t.Helper()
	h := &harness{store: repository.NewMemoryStore()}

	publisher := mocks.NewEventPublisher(t)
	publisher.On("Publish", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.events = append(h.events, args.Get(1).(models.OrderEvent))
	}).Return(nil).Maybe()

	h.uber = mocks.NewCourierProvider(t)
	h.uber.On("Name").Return("UBER").Maybe()
	h.uber.On("IsEnabled").Return(cfg.uberEnabled).Maybe()
	h.porter = mocks.NewCourierProvider(t)
	h.porter.On("Name").Return("PORTER").Maybe()
	h.porter.On("IsEnabled").Return(cfg.porterEnabled).Maybe()

	opts := services.WriterOptions{Publisher: publisher, CacheTTL: time.Minute}
	if cfg.cache != nil {
		opts.Cache = cfg.cache
	}
	writer := services.NewOrderWriter(h.store.Orders(), nil, opts)

	if cfg.timeout == 0 {
		cfg.timeout = time.Second
	}
	h.coupons = services.NewCouponService(h.store.Coupons())
	h.dispatch = services.NewDispatchService(writer, h.store.Settings(),
		[]services.CourierProvider{h.uber, h.porter}, cfg.timeout)
	h.orders = services.NewOrderService(writer, h.coupons, h.dispatch, services.OrderServiceConfig{
		AllowStateSkip: cfg.allowSkip,
		DispatchBudget: 5 * time.Second,
	})
	h.payments = services.NewPaymentService("whsec_test", writer)
	h.tracking = services.NewTrackingService(writer)
	return h
}

func (h *harness) recorded() []models.OrderEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.OrderEvent(nil), h.events...)
}

func (h *harness) place(t *testing.T, method models.PaymentMethod, coupon string) *models.Order {
	t.Helper()
	order, err := h.orders.Checkout(context.Background(), services.CheckoutRequest{
		Items: []services.CheckoutItem{
			{ItemID: "paneer-tikka", Name: "Paneer Tikka", UnitPrice: decimal.NewFromInt(200), Quantity: 2},
		},
		Customer: services.CustomerInput{
			Name:    "Asha Rao",
			Phone:   "+919800000001",
			Address: "12 Residency Road, Bengaluru",
		},
		PaymentMethod: method,
		CouponCode:    coupon,
	})
	require.NoError(t, err)
	return order
}

func (h *harness) move(t *testing.T, number string, statuses ...models.OrderStatus) {
	t.Helper()
	for _, status := range statuses {
		_, err := h.orders.Transition(context.Background(), number, status, "", false)
		require.NoError(t, err, "moving to %s", status)
	}
}

func (h *harness) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.orders.Drain(ctx))
}

func createWelcome50(t *testing.T, coupons services.CouponService) {
	t.Helper()
	maxDiscount := decimal.NewFromInt(150)
	_, err := coupons.Create(context.Background(), services.CouponInput{
		Code:          "WELCOME50",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(50),
		MaxDiscount:   &maxDiscount,
	})
	require.NoError(t, err)
}

func TestCheckout_Welcome50(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	createWelcome50(t, h.coupons)

	order := h.place(t, models.PaymentCOD, "welcome50")

	assert.True(t, decimal.NewFromInt(400).Equal(order.Subtotal))
	assert.True(t, decimal.NewFromInt(150).Equal(order.Discount))
	assert.True(t, decimal.NewFromInt(250).Equal(order.TotalAmount))
	assert.Equal(t, "WELCOME50", order.CouponCode)
	assert.Equal(t, models.StatusPlaced, order.Status)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Nil(t, order.PaymentOrderRef)

	coupon, err := h.coupons.Get(context.Background(), "WELCOME50")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.UsedCount)

	events := h.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventStatusChanged, events[0].Type)
	assert.Equal(t, models.StatusPlaced, events[0].Status)
}

func TestCheckout_RejectsInvalidRequests(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	ctx := context.Background()
	customer := services.CustomerInput{Name: "Asha", Phone: "9800000001", Address: "12 Residency Road"}
	item := services.CheckoutItem{ItemID: "dosa", Name: "Dosa", UnitPrice: decimal.NewFromInt(90), Quantity: 1}

	cases := map[string]services.CheckoutRequest{
		"no items":       {Customer: customer, PaymentMethod: models.PaymentCOD},
		"bad method":     {Items: []services.CheckoutItem{item}, Customer: customer, PaymentMethod: "CARD"},
		"zero quantity":  {Items: []services.CheckoutItem{{ItemID: "dosa", Name: "Dosa", UnitPrice: decimal.NewFromInt(90)}}, Customer: customer, PaymentMethod: models.PaymentCOD},
		"negative price": {Items: []services.CheckoutItem{{ItemID: "dosa", Name: "Dosa", UnitPrice: decimal.NewFromInt(-1), Quantity: 1}}, Customer: customer, PaymentMethod: models.PaymentCOD},
		"sub-cent price": {Items: []services.CheckoutItem{{ItemID: "mint", Name: "Mint", UnitPrice: decimal.RequireFromString("0.005"), Quantity: 1}}, Customer: customer, PaymentMethod: models.PaymentCOD},
		"no address":     {Items: []services.CheckoutItem{item}, Customer: services.CustomerInput{Name: "Asha", Phone: "9800000001"}, PaymentMethod: models.PaymentCOD},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.orders.Checkout(ctx, req)
			assert.Equal(t, services.KindValidation, services.KindOf(err))
		})
	}

	_, err := h.orders.Checkout(ctx, services.CheckoutRequest{Items: []services.CheckoutItem{item}, Customer: customer, PaymentMethod: models.PaymentCOD, CouponCode: "NOSUCH"})
	assert.Equal(t, services.KindNotFound, services.KindOf(err))

	orders, total, err := h.orders.List(ctx, repository.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Zero(t, total)
}

func TestCheckout_ReplaysCheckoutKey(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	createWelcome50(t, h.coupons)
	ctx := context.Background()

	req := services.CheckoutRequest{
		Items:         []services.CheckoutItem{{ItemID: "thali", Name: "Veg Thali", UnitPrice: decimal.NewFromInt(250), Quantity: 1}},
		Customer:      services.CustomerInput{Name: "Asha", Phone: "9800000001", Address: "12 Residency Road"},
		PaymentMethod: models.PaymentOnline,
		CouponCode:    "WELCOME50",
		CheckoutKey:   "cart-42",
	}
	first, err := h.orders.Checkout(ctx, req)
	require.NoError(t, err)
	second, err := h.orders.Checkout(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.OrderNumber, second.OrderNumber)
	coupon, err := h.coupons.Get(ctx, "WELCOME50")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.UsedCount)
}

func TestCheckout_CouponUsageLimitUnderConcurrency(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	ctx := context.Background()
	limit := 1
	_, err := h.coupons.Create(ctx, services.CouponInput{
		Code:          "FIRSTONLY",
		DiscountType:  models.DiscountFlat,
		DiscountValue: decimal.NewFromInt(50),
		UsageLimit:    &limit,
	})
	require.NoError(t, err)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.orders.Checkout(ctx, services.CheckoutRequest{
				Items:         []services.CheckoutItem{{ItemID: "biryani", Name: "Biryani", UnitPrice: decimal.NewFromInt(300), Quantity: 1}},
				Customer:      services.CustomerInput{Name: fmt.Sprintf("Guest %d", i), Phone: "9800000001", Address: "12 Residency Road"},
				PaymentMethod: models.PaymentCOD,
				CouponCode:    "FIRSTONLY",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, services.CodeCouponLimitReached, services.CodeOf(err))
	}
	assert.Equal(t, 1, succeeded)

	coupon, err := h.coupons.Get(ctx, "FIRSTONLY")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.UsedCount)
}

func TestTransition_FullSequenceWithDisabledProvider(t *testing.T) {
	h := newHarness(t, harnessConfig{uberEnabled: false})
	ctx := context.Background()
	_, err := h.dispatch.UpdateSettings(ctx, services.DispatchSettingsInput{AutoAccept: true, PreferredProvider: "UBER", UpdatedBy: "admin"})
	require.NoError(t, err)

	order := h.place(t, models.PaymentCOD, "")
	h.move(t, order.OrderNumber, models.StatusConfirmed)
	h.drain(t)
	h.move(t, order.OrderNumber, models.StatusPreparation, models.StatusOutForDelivery, models.StatusDelivered)

	final, err := h.orders.Get(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, final.Status)
	assert.Nil(t, final.Courier)
	assert.Equal(t, models.DispatchUnavailable, final.DispatchStatus)
	assert.Equal(t, "UBER is disabled", final.DispatchNote)
	assert.Equal(t, models.PaymentPaid, final.PaymentStatus)

	want := []models.OrderStatus{
		models.StatusPlaced, models.StatusConfirmed, models.StatusPreparation,
		models.StatusOutForDelivery, models.StatusDelivered,
	}
	require.Len(t, final.StatusHistory, len(want))
	for i, entry := range final.StatusHistory {
		assert.Equal(t, want[i], entry.Status)
		if i > 0 {
			assert.False(t, entry.Timestamp.Before(final.StatusHistory[i-1].Timestamp))
		}
	}

	h.uber.AssertNotCalled(t, "CreateDelivery", mock.Anything, mock.Anything)
	h.porter.AssertNotCalled(t, "CreateDelivery", mock.Anything, mock.Anything)
}

func TestTransition_AutoDispatchAssignsPreferredProvider(t *testing.T) {
	h := newHarness(t, harnessConfig{porterEnabled: true})
	ctx := context.Background()
	_, err := h.dispatch.UpdateSettings(ctx, services.DispatchSettingsInput{AutoAccept: true, PreferredProvider: "porter"})
	require.NoError(t, err)

	order := h.place(t, models.PaymentCOD, "")
	h.porter.On("CreateDelivery", mock.Anything, mock.MatchedBy(func(req courier.DeliveryRequest) bool {
		return req.OrderNumber == order.OrderNumber && req.DropAddress == "12 Residency Road, Bengaluru"
	})).Return(&courier.Delivery{
		ProviderRef:  "PRT-881",
		CourierName:  "Ravi",
		CourierPhone: "+919811111111",
		TrackingURL:  "https://porter.example/track/PRT-881",
		Vehicle:      courier.TwoWheeler,
	}, nil).Once()

	confirmed, err := h.orders.Transition(ctx, order.OrderNumber, models.StatusConfirmed, "kitchen accepted", false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	h.drain(t)

	got, err := h.orders.Get(ctx, order.OrderNumber)
	require.NoError(t, err)
	require.NotNil(t, got.Courier)
	assert.Equal(t, models.ProviderPorter, got.Courier.Provider)
	assert.Equal(t, "PRT-881", got.Courier.ProviderRef)
	assert.Equal(t, models.VehicleTwoWheeler, got.Courier.VehicleType)
	assert.Equal(t, models.DispatchAssigned, got.DispatchStatus)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, "kitchen accepted", got.StatusHistory[1].Comment)

	var types []models.EventType
	for _, event := range h.recorded() {
		types = append(types, event.Type)
	}
	assert.Equal(t, []models.EventType{
		models.EventStatusChanged, models.EventStatusChanged, models.EventCourierAssigned,
	}, types)
	h.uber.AssertNotCalled(t, "CreateDelivery", mock.Anything, mock.Anything)
}

func TestTransition_NoAutoDispatchWhenDisabled(t *testing.T) {
	h := newHarness(t, harnessConfig{uberEnabled: true})
	order := h.place(t, models.PaymentCOD, "")
	h.move(t, order.OrderNumber, models.StatusConfirmed)
	h.drain(t)

	got, err := h.orders.Get(context.Background(), order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.DispatchNone, got.DispatchStatus)
	h.uber.AssertNotCalled(t, "CreateDelivery", mock.Anything, mock.Anything)
}

func TestTransition_StrictPolicyRejectsSkips(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	ctx := context.Background()
	order := h.place(t, models.PaymentCOD, "")

	_, err := h.orders.Transition(ctx, order.OrderNumber, models.StatusOutForDelivery, "", false)
	require.Error(t, err)
	assert.Equal(t, services.KindInvalidTransition, services.KindOf(err))
	assert.Contains(t, err.Error(), "skipping states requires an admin override")

	// force alone is not enough while skipping is disabled
	_, err = h.orders.Transition(ctx, order.OrderNumber, models.StatusOutForDelivery, "", true)
	assert.Equal(t, services.KindInvalidTransition, services.KindOf(err))

	got, err := h.orders.Get(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlaced, got.Status)
	assert.Len(t, got.StatusHistory, 1)
}

func TestTransition_AdminOverrideSkipsForwardOnly(t *testing.T) {
	h := newHarness(t, harnessConfig{allowSkip: true})
	ctx := context.Background()
	order := h.place(t, models.PaymentCOD, "")

	_, err := h.orders.Transition(ctx, order.OrderNumber, models.StatusOutForDelivery, "", false)
	assert.Equal(t, services.KindInvalidTransition, services.KindOf(err))

	skipped, err := h.orders.Transition(ctx, order.OrderNumber, models.StatusOutForDelivery, "rider already here", true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOutForDelivery, skipped.Status)
	require.Len(t, skipped.StatusHistory, 2)
	assert.Equal(t, models.StatusPlaced, skipped.StatusHistory[0].Status)
	assert.Equal(t, models.StatusOutForDelivery, skipped.StatusHistory[1].Status)

	_, err = h.orders.Transition(ctx, order.OrderNumber, models.StatusConfirmed, "", true)
	assert.Equal(t, services.KindInvalidTransition, services.KindOf(err))
	assert.Contains(t, err.Error(), "transition not allowed")
}

func TestTransition_TerminalStatesAreFinal(t *testing.T) {
	h := newHarness(t, harnessConfig{allowSkip: true})
	ctx := context.Background()

	delivered := h.place(t, models.PaymentCOD, "")
	h.move(t, delivered.OrderNumber, models.StatusConfirmed, models.StatusPreparation, models.StatusOutForDelivery, models.StatusDelivered)
	for _, target := range []models.OrderStatus{models.StatusDelivered, models.StatusCancelled, models.StatusPlaced, models.StatusOutForDelivery} {
		_, err := h.orders.Transition(ctx, delivered.OrderNumber, target, "", true)
		require.Error(t, err, target)
		assert.Equal(t, services.KindInvalidTransition, services.KindOf(err))
		assert.Contains(t, err.Error(), "terminal state")
	}

	cancelled := h.place(t, models.PaymentOnline, "")
	h.move(t, cancelled.OrderNumber, models.StatusConfirmed, models.StatusPreparation, models.StatusCancelled)
	_, err := h.orders.Transition(ctx, cancelled.OrderNumber, models.StatusConfirmed, "", false)
	assert.Equal(t, services.KindInvalidTransition, services.KindOf(err))
	_, err = h.orders.Transition(ctx, cancelled.OrderNumber, models.StatusCancelled, "", false)
	assert.Equal(t, services.KindInvalidTransition, services.KindOf(err))

	got, err := h.orders.Get(ctx, cancelled.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, got.PaymentStatus)
}

func TestTransition_SameTargetIsNoop(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	ctx := context.Background()
	order := h.place(t, models.PaymentCOD, "")

	same, err := h.orders.Transition(ctx, order.OrderNumber, models.StatusPlaced, "", false)
	require.NoError(t, err)
	assert.Len(t, same.StatusHistory, 1)

	h.move(t, order.OrderNumber, models.StatusConfirmed, models.StatusConfirmed)
	got, err := h.orders.Get(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Len(t, got.StatusHistory, 2)
	assert.Len(t, h.recorded(), 2)
}

func TestTransition_ConcurrentWritersSerialise(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	ctx := context.Background()
	order := h.place(t, models.PaymentCOD, "")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.orders.Transition(ctx, order.OrderNumber, models.StatusConfirmed, "", false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := h.orders.Get(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Len(t, got.StatusHistory, 2)
	assert.Equal(t, 1, got.Version)
}

func TestTransition_UnknownOrderAndStatus(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	ctx := context.Background()

	_, err := h.orders.Transition(ctx, "ORD-20260101-DEADBEEF", models.StatusConfirmed, "", false)
	assert.Equal(t, services.KindNotFound, services.KindOf(err))

	order := h.place(t, models.PaymentCOD, "")
	_, err = h.orders.Transition(ctx, order.OrderNumber, models.OrderStatus("EATEN"), "", false)
	assert.Equal(t, services.KindValidation, services.KindOf(err))
}

func TestList_FiltersByStatus(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	ctx := context.Background()
	first := h.place(t, models.PaymentCOD, "")
	h.place(t, models.PaymentCOD, "")
	h.move(t, first.OrderNumber, models.StatusConfirmed)

	confirmed, total, err := h.orders.List(ctx, repository.OrderFilter{Status: models.StatusConfirmed})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, confirmed, 1)
	assert.Equal(t, first.OrderNumber, confirmed[0].OrderNumber)

	_, _, err = h.orders.List(ctx, repository.OrderFilter{Status: "LOST"})
	assert.Equal(t, services.KindValidation, services.KindOf(err))
}

func TestDispatch_IsIdempotent(t *testing.T) {
	h := newHarness(t, harnessConfig{uberEnabled: true})
	ctx := context.Background()
	order := h.place(t, models.PaymentCOD, "")
	h.move(t, order.OrderNumber, models.StatusConfirmed)

	h.uber.On("CreateDelivery", mock.Anything, mock.Anything).Return(&courier.Delivery{
		ProviderRef: "UB-1",
		CourierName: "Kiran",
		Vehicle:     courier.FourWheeler,
	}, nil).Once()

	var wg sync.WaitGroup
	results := make([]*services.DispatchResult, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := h.orders.Dispatch(ctx, order.OrderNumber, "")
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	again, err := h.dispatch.Assign(ctx, order.OrderNumber, models.ProviderUber)
	require.NoError(t, err)
	results = append(results, again)

	for _, res := range results {
		require.NotNil(t, res)
		require.NotNil(t, res.Assignment)
		assert.Equal(t, "UB-1", res.Assignment.ProviderRef)
	}
	h.uber.AssertNumberOfCalls(t, "CreateDelivery", 1)
}

func TestDispatch_ProviderFailureIsUnavailable(t *testing.T) {
	h := newHarness(t, harnessConfig{uberEnabled: true})
	ctx := context.Background()
	order := h.place(t, models.PaymentCOD, "")
	h.move(t, order.OrderNumber, models.StatusConfirmed)

	h.uber.On("CreateDelivery", mock.Anything, mock.Anything).
		Return(nil, &courier.StatusError{Provider: "UBER", StatusCode: 503, Body: "no riders"}).Once()

	res, err := h.orders.Dispatch(ctx, order.OrderNumber, models.ProviderUber)
	require.NoError(t, err)
	assert.True(t, res.Unavailable)
	assert.Nil(t, res.Assignment)
	assert.Contains(t, res.Reason, "no riders")

	got, err := h.orders.Get(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, models.DispatchUnavailable, got.DispatchStatus)
	assert.Nil(t, got.Courier)

	// a later attempt may still succeed
	h.uber.On("CreateDelivery", mock.Anything, mock.Anything).Return(&courier.Delivery{ProviderRef: "UB-2", Vehicle: courier.TwoWheeler}, nil).Once()
	res, err = h.orders.Dispatch(ctx, order.OrderNumber, models.ProviderUber)
	require.NoError(t, err)
	require.NotNil(t, res.Assignment)
	assert.Equal(t, "UB-2", res.Assignment.ProviderRef)
}

func TestDispatch_TimeoutIsUnavailable(t *testing.T) {
	h := newHarness(t, harnessConfig{uberEnabled: true, timeout: 50 * time.Millisecond})
	ctx := context.Background()
	order := h.place(t, models.PaymentCOD, "")

	h.uber.On("CreateDelivery", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, _ courier.DeliveryRequest) (*courier.Delivery, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}).Once()

	start := time.Now()
	res, err := h.dispatch.Assign(ctx, order.OrderNumber, models.ProviderUber)
	require.NoError(t, err)
	assert.True(t, res.Unavailable)
	assert.Contains(t, res.Reason, "did not respond")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDispatch_OrderCancelledDuringCall(t *testing.T) {
	h := newHarness(t, harnessConfig{uberEnabled: true, timeout: 5 * time.Second})
	ctx := context.Background()
	order := h.place(t, models.PaymentCOD, "")
	h.move(t, order.OrderNumber, models.StatusConfirmed)

	started := make(chan struct{})
	release := make(chan struct{})
	h.uber.On("CreateDelivery", mock.Anything, mock.Anything).Return(
		func(context.Context, courier.DeliveryRequest) (*courier.Delivery, error) {
			close(started)
			<-release
			return &courier.Delivery{ProviderRef: "UB-9", CourierName: "Ravi", Vehicle: courier.TwoWheeler}, nil
		}).Once()

	type outcome struct {
		res *services.DispatchResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := h.dispatch.Assign(ctx, order.OrderNumber, models.ProviderUber)
		done <- outcome{res, err}
	}()

	<-started
	h.move(t, order.OrderNumber, models.StatusCancelled)
	close(release)

	out := <-done
	require.NoError(t, out.err)
	assert.True(t, out.res.Unavailable)
	assert.Nil(t, out.res.Assignment)
	assert.Contains(t, out.res.Reason, "CANCELLED")

	got, err := h.orders.Get(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Nil(t, got.Courier)
	assert.Equal(t, models.DispatchUnavailable, got.DispatchStatus)
	for _, event := range h.recorded() {
		assert.NotEqual(t, models.EventCourierAssigned, event.Type)
	}
}

func TestDispatch_Rejections(t *testing.T) {
	h := newHarness(t, harnessConfig{uberEnabled: true})
	ctx := context.Background()
	order := h.place(t, models.PaymentCOD, "")

	_, err := h.dispatch.Assign(ctx, order.OrderNumber, "DUNZO")
	assert.Equal(t, services.KindValidation, services.KindOf(err))

	h.move(t, order.OrderNumber, models.StatusCancelled)
	_, err = h.dispatch.Assign(ctx, order.OrderNumber, models.ProviderUber)
	assert.Equal(t, services.KindConflict, services.KindOf(err))
	assert.Equal(t, services.CodeNotDispatchable, services.CodeOf(err))

	_, err = h.dispatch.UpdateSettings(ctx, services.DispatchSettingsInput{PreferredProvider: "DUNZO"})
	assert.Equal(t, services.KindValidation, services.KindOf(err))

	settings, err := h.dispatch.Settings(ctx)
	require.NoError(t, err)
	assert.False(t, settings.AutoAccept)
	assert.Equal(t, models.ProviderUber, settings.PreferredProvider)
	h.uber.AssertNotCalled(t, "CreateDelivery", mock.Anything, mock.Anything)
}

func TestPayment_ConfirmFlow(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	ctx := context.Background()
	order := h.place(t, models.PaymentOnline, "")
	require.NotNil(t, order.PaymentOrderRef)
	ref := *order.PaymentOrderRef

	_, err := h.payments.ConfirmPayment(ctx, services.PaymentCallback{
		OrderRef:   ref,
		PaymentRef: "gw_1",
		Signature:  h.payments.Sign(ref, "gw_other"),
	})
	assert.Equal(t, services.KindSignatureMismatch, services.KindOf(err))
	got, err := h.orders.Get(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, got.PaymentStatus)

	callback := services.PaymentCallback{OrderRef: ref, PaymentRef: "gw_1", Signature: h.payments.Sign(ref, "gw_1")}
	paid, err := h.payments.ConfirmPayment(ctx, callback)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, "gw_1", paid.PaymentRef)

	replay, err := h.payments.ConfirmPayment(ctx, callback)
	require.NoError(t, err)
	assert.Equal(t, paid.Version, replay.Version)

	_, err = h.payments.ConfirmPayment(ctx, services.PaymentCallback{OrderRef: ref, PaymentRef: "gw_2", Signature: h.payments.Sign(ref, "gw_2")})
	assert.Equal(t, services.CodeAlreadyPaid, services.CodeOf(err))

	failed, err := h.payments.RecordFailure(ctx, order.OrderNumber, "late decline")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, failed.PaymentStatus)

	_, err = h.payments.ConfirmPayment(ctx, services.PaymentCallback{OrderRef: "pay_missing", PaymentRef: "gw_3", Signature: h.payments.Sign("pay_missing", "gw_3")})
	assert.Equal(t, services.KindNotFound, services.KindOf(err))

	var paymentEvents int
	for _, event := range h.recorded() {
		if event.Type == models.EventPaymentUpdated {
			paymentEvents++
		}
	}
	assert.Equal(t, 1, paymentEvents)
}

func TestPayment_RecordFailure(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	ctx := context.Background()
	order := h.place(t, models.PaymentOnline, "")

	failed, err := h.payments.RecordFailure(ctx, order.OrderNumber, "card declined")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, failed.PaymentStatus)
	assert.Equal(t, models.StatusPlaced, failed.Status)

	_, err = h.payments.RecordFailure(ctx, "ORD-00000000-00000000", "card declined")
	assert.Equal(t, services.KindNotFound, services.KindOf(err))
}

func TestTracking_ReadsThroughCache(t *testing.T) {
	cache := mocks.NewTrackingCache(t)
	h := newHarness(t, harnessConfig{cache: cache})
	ctx := context.Background()
	order := h.place(t, models.PaymentCOD, "")

	cache.On("GetTracking", mock.Anything, order.OrderNumber, mock.Anything).Return(errors.New("cache miss")).Once()
	cache.On("SetTrackingIfAbsent", mock.Anything, order.OrderNumber, mock.AnythingOfType("*services.TrackingView"), time.Minute).Return(true, nil).Once()

	view, err := h.tracking.Get(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlaced, view.Status)
	assert.Equal(t, 15, view.PollAfterSeconds)
	assert.False(t, view.Final)
	assert.True(t, decimal.NewFromInt(400).Equal(view.TotalAmount))

	cache.On("GetTracking", mock.Anything, order.OrderNumber, mock.Anything).Run(func(args mock.Arguments) {
		dest := args.Get(2).(*services.TrackingView)
		dest.OrderNumber = order.OrderNumber
		dest.Status = models.StatusConfirmed
	}).Return(nil).Once()

	cached, err := h.tracking.Get(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, cached.Status)
	assert.Equal(t, 15, cached.PollAfterSeconds)
}

func TestTracking_WritesRefreshCache(t *testing.T) {
	cache := mocks.NewTrackingCache(t)
	h := newHarness(t, harnessConfig{cache: cache})
	order := h.place(t, models.PaymentCOD, "")

	cache.On("SetTracking", mock.Anything, order.OrderNumber, mock.MatchedBy(func(view *services.TrackingView) bool {
		return view.Status == models.StatusConfirmed && len(view.StatusHistory) == 2
	}), time.Minute).Return(nil).Once()
	h.move(t, order.OrderNumber, models.StatusConfirmed)

	// a failed refresh evicts so readers fall back to the repository
	cache.On("SetTracking", mock.Anything, order.OrderNumber, mock.Anything, time.Minute).Return(errors.New("redis down")).Once()
	cache.On("DeleteTracking", mock.Anything, order.OrderNumber).Return(nil).Once()
	h.move(t, order.OrderNumber, models.StatusPreparation)
}

func TestTracking_UnknownOrder(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	_, err := h.tracking.Get(context.Background(), "ORD-20260101-00000000")
	assert.Equal(t, services.KindNotFound, services.KindOf(err))
}
