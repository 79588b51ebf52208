package apiv1

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/memexshot/memexshot/app/repository"
	"github.com/memexshot/memexshot/internal/pkg/metrics/counter"
)

const defaultListLimit = 50

// Server exposes a read-only view of the pipeline tables for dashboards and
// operators. All mutation goes through the workers.
type Server struct {
	repos *repository.Repositories
}

// NewServer creates an API server over the given repositories
func NewServer(repos *repository.Repositories) *Server {
	return &Server{repos: repos}
}

// Register mounts the v1 routes on the app
func (s *Server) Register(app *fiber.App) {
	app.Get("/ping", s.GetPing)

	v1 := app.Group("/api/v1")
	v1.Get("/queue", s.GetQueue)
	v1.Get("/coins", s.GetCoins)
	v1.Get("/replies", s.GetReplies)
	v1.Get("/stats", s.GetStats)
}

// GetPing handles the ping endpoint
func (s *Server) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ping": "pong"})
}

// GetQueue returns recent tweet queue items, newest first
func (s *Server) GetQueue(c *fiber.Ctx) error {
	items, err := s.repos.Queue.List(listLimit(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{"count": len(items), "items": items})
}

// GetCoins returns recent coins, newest first
func (s *Server) GetCoins(c *fiber.Ctx) error {
	coins, err := s.repos.Coin.List(listLimit(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{"count": len(coins), "items": coins})
}

// GetReplies returns recent reply records, newest first
func (s *Server) GetReplies(c *fiber.Ctx) error {
	records, err := s.repos.Reply.List(listLimit(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{"count": len(records), "items": records})
}

// GetStats returns per-status counts across all three pipeline tables
func (s *Server) GetStats(c *fiber.Ctx) error {
	queue, err := s.repos.Queue.CountsByStatus()
	if err != nil {
		return internalError(c, err)
	}
	coins, err := s.repos.Coin.CountsByStatus()
	if err != nil {
		return internalError(c, err)
	}
	replies, err := s.repos.Reply.CountsByStatus()
	if err != nil {
		return internalError(c, err)
	}
	today, err := counter.Today()
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{
		"queue":   queue,
		"coins":   coins,
		"replies": replies,
		"today":   today,
	})
}

func listLimit(c *fiber.Ctx) int {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	return limit
}

func internalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "internal_error",
		"message": err.Error(),
	})
}
