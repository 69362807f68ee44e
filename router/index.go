package router

import (
	"ertib_delivery/handler"
	"ertib_delivery/middleware"
	"ertib_delivery/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App) {
	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1", logger.New())

	auth := v1.Group("/auth")
	auth.Post("/register", validate.Register(), handler.Register)
	auth.Post("/login", handler.Login)

	orders := v1.Group("/orders", logger.New())
	// Đặt đơn online đi qua gate availability, track/sửa/hủy theo mã là public
	orders.Post("/", middleware.OptionalJWT(), handler.ServiceAvailabilityGate(), validate.CreateOrder(), handler.CreateOrder)
	orders.Get("/track/:code", handler.TrackOrderByCode)
	orders.Put("/track/:code", validate.EditOrder(), handler.EditOrderByCode)
	orders.Post("/track/:code/cancel", handler.CancelOrderByCode)

	// Admin
	orders.Post("/manual", middleware.Protected(), middleware.AdminOnly(), validate.CreateOrder(), handler.CreateManualOrder)
	orders.Get("/", middleware.Protected(), middleware.AdminOnly(), handler.GetOrders)
	orders.Put("/:orderId/status", middleware.Protected(), middleware.AdminOnly(), validate.GetById("orderId"), validate.UpdateStatus(), handler.UpdateOrderStatus)
	orders.Post("/resend-sms", middleware.Protected(), middleware.AdminOnly(), validate.ResendSMS(), handler.ResendSMS)
	orders.Delete("/:orderId", middleware.Protected(), middleware.AdminOnly(), validate.GetById("orderId"), handler.DeleteOrder)

	availability := v1.Group("/availability", logger.New())
	availability.Get("/", handler.GetAvailability)
	availability.Post("/", middleware.Protected(), middleware.AdminOnly(), handler.SaveAvailability)

	admin := v1.Group("/admin", logger.New())
	admin.Post("/create-admin", middleware.Protected(), middleware.AdminOnly(), validate.Register(), handler.CreateAdmin)
	admin.Get("/stats", middleware.Protected(), middleware.AdminOnly(), handler.GetAdminStats)
	admin.Post("/broadcast-sms", middleware.Protected(), middleware.AdminOnly(), validate.Broadcast(), handler.BroadcastSMS)
	admin.Get("/broadcast/:slug", middleware.Protected(), middleware.AdminOnly(), handler.GetBroadcastCampaign)

	admin.Get("/orders/feed", websocket.New(handler.OrderFeedWebsocket))
}
