package handler

import (
	"farmer-admin/internal/middleware"
	"farmer-admin/internal/model"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth      *AuthHandler
	User      *UserHandler
	Inventory *InventoryHandler
	Farmer    *FarmerHandler
	Dashboard *DashboardHandler
	Task      *TaskHandler
	Chat      *ChatHandler
}

// SetupRoutes mounts every REST route under /api.
func SetupRoutes(app *fiber.App, h Handlers, auth middleware.Authenticator) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	// ============ PUBLIC ROUTES ============
	api.Post("/auth/login", h.Auth.Login)

	// ============ PROTECTED ROUTES ============
	requireAuth := middleware.RequireAuth(auth)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	authGroup := api.Group("/auth", requireAuth)
	authGroup.Get("/me", h.Auth.Me)
	authGroup.Post("/logout", h.Auth.Logout)
	authGroup.Post("/refresh-token", h.Auth.RefreshToken)
	authGroup.Post("/register", adminOnly, h.User.CreateUser)

	users := api.Group("/users", requireAuth)
	users.Get("/", adminOnly, h.User.GetUsers)
	users.Get("/:id", h.User.GetUser)
	users.Put("/:id", h.User.UpdateUser)
	users.Delete("/:id", adminOnly, h.User.DeleteUser)

	h.Inventory.Register(api.Group("/inventory", requireAuth))
	h.Farmer.Register(api.Group("/farmers", requireAuth))

	dashboard := api.Group("/dashboard", requireAuth)
	dashboard.Get("/stats", h.Dashboard.GetDashboardStats)
	dashboard.Get("/stock-movement", h.Dashboard.GetStockMovement)

	tasks := api.Group("/tasks", requireAuth)
	tasks.Get("/", h.Task.GetTasks)
	tasks.Post("/", h.Task.CreateTask)
	tasks.Put("/:id/status", h.Task.UpdateStatus)

	chat := api.Group("/chat", requireAuth)
	chat.Get("/messages", h.Chat.GetMessages)
	chat.Post("/messages", h.Chat.SendMessage)
}
