package main

import (
	"context"
	"fmt"
	"log"

	"order_service/internal/config"
	"order_service/internal/database"
	"order_service/internal/migrations"
	"order_service/internal/models"
	"order_service/internal/repository"
	"order_service/internal/services"

	"github.com/brianvoe/gofakeit"
	"github.com/shopspring/decimal"
)

const demoOrders = 20

var menu = []services.CheckoutItem{
	{ItemID: "paneer-tikka", Name: "Paneer Tikka", UnitPrice: decimal.NewFromInt(200)},
	{ItemID: "veg-biryani", Name: "Veg Biryani", UnitPrice: decimal.NewFromInt(240)},
	{ItemID: "masala-dosa", Name: "Masala Dosa", UnitPrice: decimal.NewFromInt(120)},
	{ItemID: "dal-makhani", Name: "Dal Makhani", UnitPrice: decimal.NewFromInt(180)},
	{ItemID: "butter-naan", Name: "Butter Naan", UnitPrice: decimal.RequireFromString("45.50")},
	{ItemID: "gulab-jamun", Name: "Gulab Jamun", UnitPrice: decimal.NewFromInt(80)},
}

// lifecycle the demo orders are walked along, stopping at a random point
var lifecycle = []models.OrderStatus{
	models.StatusConfirmed,
	models.StatusPreparation,
	models.StatusOutForDelivery,
	models.StatusDelivered,
}

func main() {
	fmt.Println("Initializing database...")
	ctx := context.Background()

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Create tables and default settings
	fmt.Println("Creating tables...")
	if err := migrations.RunMigrations(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	orderRepo := repository.NewOrderRepository(db)
	if _, total, err := orderRepo.List(ctx, repository.OrderFilter{Limit: 1}); err == nil && total > 0 {
		fmt.Printf("Database already has %d orders, skipping demo data\n", total)
		return
	}

	// Demo orders go through the same services as real checkouts
	writer := services.NewOrderWriter(orderRepo, nil, services.WriterOptions{})
	couponService := services.NewCouponService(repository.NewCouponRepository(db))
	dispatchService := services.NewDispatchService(writer, repository.NewSettingsRepository(db), nil, cfg.Dispatch.Timeout)
	orderService := services.NewOrderService(writer, couponService, dispatchService, services.OrderServiceConfig{})

	fmt.Printf("Creating %d demo orders...\n", demoOrders)
	gofakeit.Seed(0)
	created := 0
	for i := 0; i < demoOrders; i++ {
		order, err := orderService.Checkout(ctx, fakeCheckout(i))
		if err != nil {
			log.Printf("Warning: Failed to create demo order: %v", err)
			continue
		}
		created++

		current := order.Status
		for _, status := range lifecycle[:gofakeit.Number(0, len(lifecycle))] {
			if _, err := orderService.Transition(ctx, order.OrderNumber, status, "demo data", false); err != nil {
				log.Printf("Warning: Failed to move %s to %s: %v", order.OrderNumber, status, err)
				break
			}
			current = status
		}
		fmt.Printf("  %s  %-8s  %s\n", order.OrderNumber, order.TotalAmount.StringFixed(2), current)
	}

	fmt.Printf("Database initialization completed successfully! (%d demo orders)\n", created)
}

func fakeCheckout(i int) services.CheckoutRequest {
	var items []services.CheckoutItem
	for n := gofakeit.Number(1, 3); n > 0; n-- {
		item := menu[gofakeit.Number(0, len(menu)-1)]
		item.Quantity = gofakeit.Number(1, 4)
		items = append(items, item)
	}

	req := services.CheckoutRequest{
		Items: items,
		Customer: services.CustomerInput{
			Name:    gofakeit.Name(),
			Phone:   "+9198" + gofakeit.Numerify("########"),
			Address: gofakeit.Address().Address,
		},
		PaymentMethod: models.PaymentCOD,
		CheckoutKey:   fmt.Sprintf("demo-%03d", i),
	}
	if gofakeit.Number(0, 1) == 1 {
		req.PaymentMethod = models.PaymentOnline
	}
	// only the first order redeems the welcome coupon so its minimum is easy to meet
	if i == 0 {
		req.Items = append(req.Items, services.CheckoutItem{ItemID: "veg-biryani", Name: "Veg Biryani", UnitPrice: decimal.NewFromInt(240), Quantity: 1})
		req.CouponCode = "WELCOME50"
	}
	return req
}
