package routes

import (
	"github.com/julienschmidt/httprouter"

	"storefront/accounts"
	"storefront/analytics"
	"storefront/cart"
	"storefront/catalog"
	"storefront/globals"
	"storefront/livefeed"
	"storefront/middleware"
	"storefront/offline"
	"storefront/orders"
	"storefront/ratelim"
)

// Handlers bundles everything the router serves.
type Handlers struct {
	Cart      *cart.Handler
	Orders    *orders.Handler
	Offline   *offline.Handler
	Catalog   *catalog.Handler
	Customers *accounts.Handler
	Vendors   *accounts.Handler
	Analytics *analytics.Handler
	Hub       *livefeed.Hub
}

func RoutesWrapper(router *httprouter.Router, h Handlers, mw *middleware.Middleware, rl *ratelim.RateLimiter) {
	AddCartRoutes(router, h.Cart, mw)
	AddOrderRoutes(router, h.Orders, h.Hub, mw)
	AddOfflineRoutes(router, h.Offline, mw)
	AddCatalogRoutes(router, h.Catalog, mw)
	AddAuthRoutes(router, h.Customers, globals.RoleCustomer, rl)
	AddAuthRoutes(router, h.Vendors, globals.RoleVendor, rl)
	AddAccountRoutes(router, h.Customers, h.Vendors, mw)
	AddAnalyticsRoutes(router, h.Analytics, mw)
}
