package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/locations"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Services bundles the domain services mounted by the router. Nil entries
// answer with "service unavailable".
type Services struct {
	Products      productsvc.Service
	Cart          cart.Service
	Checkout      checkoutsvc.Service
	Payments      payments.Service
	Orders        orders.Service
	Addresses     address.Service
	Locations     locations.Service
	Users         users.Service
	Notifications notifications.Service
}

// NewRouter builds the HTTP surface. redisClient and metrics may be nil; without
// redis, idempotency replay and guest checkout throttling are disabled.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	svc Services,
	metrics http.Handler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.CORS(cfg.App.CORSAllowedOrigins))

	deps := map[string]controllers.Pinger{}
	if dbP != nil {
		deps["db"] = dbP
	}
	var (
		idemStore  redis.IdempotencyStore
		limitStore middleware.RateLimiterStore
	)
	if redisClient != nil {
		deps["redis"] = redisClient
		idemStore = redisClient
		limitStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	checkoutIdempotent := middleware.Idempotency(idemStore, middleware.CheckoutIdempotencyTTL, logg)
	paymentIdempotent := middleware.Idempotency(idemStore, middleware.PaymentIdempotencyTTL, logg)
	guestLimit := middleware.RateLimit(
		middleware.NewRateLimitPolicy(
			"guest_checkout",
			cfg.RateLimit.GuestCheckoutWindow,
			cfg.RateLimit.GuestCheckoutIPLimit,
			cfg.RateLimit.GuestCheckoutEmailLimit,
		),
		limitStore,
		logg,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/{groupId}/valid-combinations", controllers.ProductValidCombinations(svc.Products, logg))
			r.Post("/{groupId}/find-by-variants", controllers.ProductFindByVariants(svc.Products, logg))
			r.Get("/sku/{productId}", controllers.ProductDetail(svc.Products, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svc.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svc.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(svc.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(svc.Cart, logg))
			r.Post("/validate", controllers.CartValidate(svc.Cart, logg))
		})

		r.Route("/locations", func(r chi.Router) {
			r.Get("/provinces", controllers.LocationProvinces(svc.Locations, logg))
			r.Get("/regencies/{provinceCode}", controllers.LocationRegencies(svc.Locations, logg))
			r.Get("/districts/{regencyCode}", controllers.LocationDistricts(svc.Locations, logg))
			r.Get("/villages/{districtCode}", controllers.LocationVillages(svc.Locations, logg))
		})

		r.Post("/shipping/calculate", controllers.ShippingCalculate(logg))

		r.With(guestLimit, checkoutIdempotent).Post("/checkout/guest", controllers.GuestCheckout(svc.Checkout, cfg.App.IsProd(), logg))
		r.Post("/payments/notification", controllers.PaymentNotification(svc.Payments, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/auth/me", controllers.Me(svc.Users, logg))
			r.With(checkoutIdempotent).Post("/checkout", controllers.Checkout(svc.Checkout, logg))
			r.With(paymentIdempotent).Post("/payments/retry", controllers.PaymentRetry(svc.Payments, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.MyOrders(svc.Orders, logg))
				r.Get("/{orderId}", controllers.MyOrderDetail(svc.Orders, logg))
				r.Post("/{orderId}/payment/refresh", controllers.PaymentRefresh(svc.Payments, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(svc.Addresses, logg))
				r.Post("/", controllers.AddressCreate(svc.Addresses, logg))
				r.Patch("/{addressId}/default", controllers.AddressSetDefault(svc.Addresses, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(svc.Addresses, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.NotificationList(svc.Notifications, logg))
				r.Post("/read-all", controllers.NotificationMarkAllRead(svc.Notifications, logg))
				r.Patch("/{notificationId}/read", controllers.NotificationMarkRead(svc.Notifications, logg))
			})

			r.Route("/admin/orders", func(r chi.Router) {
				r.Use(middleware.RequireStaff(logg))

				r.Get("/", controllers.AdminOrderList(svc.Orders, logg))
				r.Get("/export", controllers.AdminOrderExport(svc.Orders, logg))
				r.Get("/{orderId}", controllers.AdminOrderDetail(svc.Orders, logg))
				r.Patch("/{orderId}/status", controllers.AdminOrderUpdateStatus(svc.Orders, logg))
				r.Patch("/{orderId}/notes", controllers.AdminOrderNotes(svc.Orders, logg))
			})
		})
	})

	return r
}
