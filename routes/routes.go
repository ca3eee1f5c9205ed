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

func AddCartRoutes(router *httprouter.Router, h *cart.Handler, mw *middleware.Middleware) {
	router.POST("/api/cart", mw.OptionalAuth(h.AddToCart))
	router.GET("/api/cart", mw.OptionalAuth(h.GetCart))
	router.PUT("/api/cart/quantity", h.UpdateQuantity)
	router.DELETE("/api/cart/item", mw.OptionalAuth(h.RemoveItem))
	router.POST("/api/cart/merge", mw.OptionalAuth(h.MergeCarts))
	router.DELETE("/api/carts/:cartid", h.DeleteCart)
}

func AddOrderRoutes(router *httprouter.Router, h *orders.Handler, hub *livefeed.Hub, mw *middleware.Middleware) {
	router.POST("/api/orders", mw.OptionalAuth(h.PlaceOrder))
	router.POST("/api/orders/by-user-or-guest", mw.OptionalAuth(h.GetOrdersByOwner))
	router.GET("/api/order/:id", h.GetOrder)

	vendor := func(next httprouter.Handle) httprouter.Handle { return mw.Authenticate(globals.RoleVendor, next) }
	router.GET("/api/vendor/orders", vendor(h.GetAllOrders))
	router.GET("/api/vendor/orders/status/:status", vendor(h.GetOrdersByStatus))
	router.GET("/api/vendor/orders/live", vendor(livefeed.WebSocketHandler(hub)))
	router.PUT("/api/vendor/order/:id/status", vendor(h.UpdateOrderStatus))
	router.PUT("/api/vendor/orders/reason", vendor(h.UpdateOrderReason))
}

func AddOfflineRoutes(router *httprouter.Router, h *offline.Handler, mw *middleware.Middleware) {
	vendor := func(next httprouter.Handle) httprouter.Handle { return mw.Authenticate(globals.RoleVendor, next) }
	router.POST("/api/vendor/offline-orders", vendor(h.CreateOfflineOrder))
	router.GET("/api/vendor/offline-orders", vendor(h.ListOfflineOrders))
	router.GET("/api/vendor/offline-orders/returned", vendor(h.ListReturned))
	router.GET("/api/vendor/offline-order/:id", vendor(h.GetOfflineOrder))
	router.PUT("/api/vendor/offline-order/:id", vendor(h.UpdateOfflineOrder))
	router.PUT("/api/vendor/offline-order/:id/return", vendor(h.SetReturned))
	router.GET("/api/vendor/offline-order/:id/receipt", vendor(h.PrintReceipt))
}

func AddCatalogRoutes(router *httprouter.Router, h *catalog.Handler, mw *middleware.Middleware) {
	router.GET("/api/items", h.ListItems)
	router.GET("/api/item/:id", h.GetItem)
	router.GET("/api/categories", h.ListCategories)
	router.GET("/api/category/:id", h.GetCategory)
	router.GET("/api/category/:id/items", h.ListCategoryItems)
	router.GET("/api/menu", h.GetMenu)

	vendor := func(next httprouter.Handle) httprouter.Handle { return mw.Authenticate(globals.RoleVendor, next) }
	router.POST("/api/vendor/items", vendor(h.CreateItem))
	router.PUT("/api/vendor/item/:id", vendor(h.UpdateItem))
	router.DELETE("/api/vendor/item/:id", vendor(h.DeleteItem))
	router.POST("/api/vendor/categories", vendor(h.CreateCategory))
	router.PUT("/api/vendor/category/:id", vendor(h.UpdateCategory))
	router.DELETE("/api/vendor/category/:id", vendor(h.DeleteCategory))
}

// AddAuthRoutes registers sign-up and login for one role under /api/<role>/auth.
// Every route is rate limited per client IP.
func AddAuthRoutes(router *httprouter.Router, h *accounts.Handler, role string, rl *ratelim.RateLimiter) {
	base := "/api/" + role + "/auth"
	router.POST(base+"/request-otp", rl.Limit(h.RequestOTP))
	router.POST(base+"/verify-otp", rl.Limit(h.VerifyOTP))
	router.POST(base+"/register", rl.Limit(h.Register))
	router.POST(base+"/login", rl.Limit(h.Login))
	router.POST(base+"/forgot-password", rl.Limit(h.RequestPasswordReset))
	router.POST(base+"/reset-password", rl.Limit(h.ResetPassword))
}

func AddAccountRoutes(router *httprouter.Router, customers, vendors *accounts.Handler, mw *middleware.Middleware) {
	customer := func(next httprouter.Handle) httprouter.Handle { return mw.Authenticate(globals.RoleCustomer, next) }
	vendor := func(next httprouter.Handle) httprouter.Handle { return mw.Authenticate(globals.RoleVendor, next) }

	router.GET("/api/customer/user/:id", customer(customers.GetAccount))
	router.PUT("/api/customer/user/:id", customer(customers.UpdateAccount))
	router.DELETE("/api/customer/user/:id", customer(customers.DeleteAccount))
	router.GET("/api/customer/user/:id/addresses", customer(customers.ListAddresses))
	router.POST("/api/customer/addresses", customer(customers.CreateAddress))
	router.PUT("/api/customer/address/:id", customer(customers.UpdateAddress))

	router.GET("/api/vendor/customers", vendor(customers.ListAccounts))
	router.GET("/api/vendor/users", vendor(vendors.ListAccounts))
	router.GET("/api/vendor/user/:id", vendor(vendors.GetAccount))
	router.PUT("/api/vendor/user/:id", vendor(vendors.UpdateAccount))
	router.DELETE("/api/vendor/user/:id", vendor(vendors.DeleteAccount))

	router.POST("/api/guest-users", customers.CreateGuest)
	router.GET("/api/guest-user/:id", customers.GetGuest)
	router.PUT("/api/guest-user/:id", customers.UpdateGuest)
	router.GET("/api/guest-users/phone/:phone", customers.GetGuestByPhone)
	router.GET("/api/vendor/guest-users", vendor(customers.ListGuests))
}

func AddAnalyticsRoutes(router *httprouter.Router, h *analytics.Handler, mw *middleware.Middleware) {
	router.GET("/api/vendor/analytics", mw.Authenticate(globals.RoleVendor, h.GetAnalytics))
}
