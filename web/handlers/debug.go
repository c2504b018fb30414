package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/retailops/procurement/database"
)

// GetSQLLogs returns recently executed SQL queries
func GetSQLLogs(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"queries": database.SQLLogger.GetQueries(),
	})
}

// ClearSQLLogs empties the query log buffer
func ClearSQLLogs(c *fiber.Ctx) error {
	database.SQLLogger.Clear()
	return c.SendStatus(fiber.StatusNoContent)
}
