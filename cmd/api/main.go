package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/review_scheduler/configs"
	"github.com/anjiri1684/review_scheduler/cache"
	"github.com/anjiri1684/review_scheduler/database"
	"github.com/anjiri1684/review_scheduler/handlers"
	"github.com/anjiri1684/review_scheduler/jobs"
	"github.com/anjiri1684/review_scheduler/notifications"
	"github.com/anjiri1684/review_scheduler/routes"
	"github.com/anjiri1684/review_scheduler/services"
	"github.com/anjiri1684/review_scheduler/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	store := database.NewStore(database.DB)
	loc := config.Location()

	var availabilityCache services.Cache
	if rdb := cache.Connect(config.Config("REDIS_ADDR")); rdb != nil {
		ttl := time.Duration(config.ConfigInt("AVAILABILITY_CACHE_TTL", 60)) * time.Second
		availabilityCache = cache.New(rdb, ttl)
	}

	hub := websocket.NewHub()
	go hub.Run()

	senders := []notifications.Sender{hub}
	if email := notifications.NewEmailService(); email != nil {
		senders = append(senders, email)
	}
	queue := notifications.NewQueue(store, config.ConfigInt("NOTIFY_QUEUE_SIZE", 256), senders...)

	availability := services.NewAvailabilityService(store, availabilityCache, loc)
	reviews := services.NewReviewService(store, queue, availabilityCache, loc,
		config.ConfigDefault("MEETING_BASE_URL", "https://meet.jit.si"))

	reminder := &jobs.SessionReminder{Store: store, Notifier: queue, Loc: loc}
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(config.ConfigDefault("REMINDER_CRON", "*/5 * * * *"), reminder.Run); err != nil {
		log.Fatalf("🔥 Invalid REMINDER_CRON: %v", err)
	}
	c.Start()
	log.Println("✅ Cron job for session reminders scheduled successfully.")

	app := fiber.New(fiber.Config{
		AppName:       "Review Scheduler",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   loc.String(),
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.AvailabilityRoutes(app, handlers.NewAvailabilityHandler(availability, loc))
	routes.ReviewRoutes(app, handlers.NewReviewHandler(reviews))
	routes.NotificationRoutes(app, handlers.NewNotificationsHandler(hub))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		<-c.Stop().Done()
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Server shutdown: %v", err)
		}
	}()

	port := config.ConfigDefault("APP_PORT", "8080")
	log.Printf("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
	queue.Close()
	hub.Stop()
}
