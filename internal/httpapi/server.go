package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const handlerTimeout = 10 * time.Second

type RouterConfig struct {
	Cart      CartOperations
	Checkout  CheckoutOperations
	Inventory InventoryOperations
	Products  ProductSearcher
	Orders    OrderStore

	ToolSecret string
	ServiceKey string
	Logger     *zap.SugaredLogger
}

// NewRouter assembles the commerce-core HTTP surface. Each route body is
// a stateless request/response unit; every tool endpoint requires a
// credential header.
func NewRouter(cfg RouterConfig) *chi.Mux {
	cartHandler := NewCartHandler(cfg.Cart, handlerTimeout)
	checkoutHandler := NewCheckoutHandler(cfg.Checkout, handlerTimeout)
	inventoryHandler := NewInventoryHandler(cfg.Inventory, handlerTimeout)
	productHandler := NewProductHandler(cfg.Products, handlerTimeout)
	ordersHandler := NewOrdersHandler(cfg.Orders, handlerTimeout)

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(CORSMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.ToolSecret, cfg.ServiceKey))

		r.Route("/tools", func(r chi.Router) {
			r.Post("/cart/add", cartHandler.AddItem)
			r.Post("/cart/remove", cartHandler.RemoveItem)
			r.Post("/cart/view", cartHandler.ViewCart)
			r.Post("/checkout", checkoutHandler.CreateCheckout)
			r.Post("/inventory/adjust", inventoryHandler.AdjustInventory)
			r.Post("/products/search", productHandler.SearchProducts)
		})

		r.Get("/orders", ordersHandler.ListOrders)
		r.Get("/orders/{orderID}", ordersHandler.GetOrder)
	})

	return r
}
