package main

import (
	"log"

	"ertib_delivery/config"
	"ertib_delivery/database"
	"ertib_delivery/handler"
	"ertib_delivery/helper"
	"ertib_delivery/router"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.ConfigDefault("CORS_ORIGIN", "http://localhost:5173"),
		AllowMethods: "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Authorization, Accept",
	}))

	database.ConnectDB()

	handler.StartBroadcastRetryWorker()
	defer handler.StopBroadcastRetryWorker()
	helper.StartCleanupScheduler()
	defer helper.StopCleanupScheduler()

	router.SetupRoutes(app)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Ertib Delivery API is running...")
	})

	log.Fatal(app.Listen(":" + config.ConfigDefault("PORT", "4000")))
}
