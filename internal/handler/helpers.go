package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/patrykpoborca/wondernest-go-api/internal/middleware"
)

func parseUUIDParam(c *fiber.Ctx, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Params(key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", key)
	}
	return id, nil
}

func parseQueryInt(c *fiber.Ctx, key string) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return parsed
}

func queryString(c *fiber.Ctx, key string) *string {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil
	}
	return &value
}

func queryBool(c *fiber.Ctx, key string) bool {
	return c.QueryBool(key)
}

func userIDFromContext(c *fiber.Ctx) uuid.UUID {
	if v := c.Locals(middleware.LocalsUserID); v != nil {
		switch id := v.(type) {
		case uuid.UUID:
			return id
		case string:
			if parsed, err := uuid.Parse(strings.TrimSpace(id)); err == nil {
				return parsed
			}
		}
	}
	return uuid.Nil
}

// moderatorLevelFromContext reads the moderator level claim, defaulting to
// standard when absent.
func moderatorLevelFromContext(c *fiber.Ctx) string {
	if v := c.Locals(middleware.LocalsUserLevel); v != nil {
		if level, ok := v.(string); ok && strings.TrimSpace(level) != "" {
			return strings.TrimSpace(level)
		}
	}
	return "standard"
}
