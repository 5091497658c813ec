package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ardakurt/kapinda-backend/api/controllers"
	"github.com/ardakurt/kapinda-backend/api/middleware"
	addresssvc "github.com/ardakurt/kapinda-backend/internal/addresses"
	cartsvc "github.com/ardakurt/kapinda-backend/internal/cart"
	checkoutsvc "github.com/ardakurt/kapinda-backend/internal/checkout"
	notificationsvc "github.com/ardakurt/kapinda-backend/internal/notifications"
	ordersvc "github.com/ardakurt/kapinda-backend/internal/orders"
	productsvc "github.com/ardakurt/kapinda-backend/internal/products"
	storesvc "github.com/ardakurt/kapinda-backend/internal/stores"
	"github.com/ardakurt/kapinda-backend/pkg/config"
	"github.com/ardakurt/kapinda-backend/pkg/db"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
	"github.com/ardakurt/kapinda-backend/pkg/logger"
	"github.com/ardakurt/kapinda-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	ordersService ordersvc.Service,
	addressService addresssvc.Service,
	notificationService notificationsvc.Service,
	storeService storesvc.Service,
	productService productsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	cartPolicy := middleware.NewRateLimitPolicy("cart", time.Minute, 120)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/stores/{storeId}", func(r chi.Router) {
			r.Get("/", controllers.StoreDetail(storeService, logg))
			r.Get("/products", controllers.StoreProducts(productService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RateLimit(cartPolicy, redisClient, logg))
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Post("/load", controllers.CartLoad(cartService, logg))
			r.Post("/items", controllers.CartAdd(cartService, logg))
			r.Post("/items/{productId}/decrement", controllers.CartDecrement(cartService, logg))
			r.Delete("/items/{productId}", controllers.CartRemove(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/start", controllers.CheckoutStart(checkoutService, logg))
			r.Post("/address", controllers.CheckoutSelectAddress(checkoutService, logg))
			r.Post("/payment", controllers.CheckoutSelectPayment(checkoutService, logg))
			r.Post("/submit", controllers.CheckoutSubmit(checkoutService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(ordersService, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.ListAddresses(addressService, logg))
			r.Post("/", controllers.CreateAddress(addressService, logg))
			r.Post("/{addressId}/default", controllers.SetDefaultAddress(addressService, logg))
			r.Delete("/{addressId}", controllers.DeleteAddress(addressService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationService, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleVendor), logg))
			r.Get("/stores", controllers.VendorStores(storeService, logg))
			r.Get("/orders", controllers.VendorOrders(ordersService, logg))
			r.Post("/orders/{orderId}/status", controllers.VendorAdvanceOrder(ordersService, logg))
		})
	})

	return r
}
