package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
)

// errInsufficientFunds aborts a money transaction that would overdraw petty
// cash; handlers translate it to the INSUFFICIENT_FUNDS error body.
var errInsufficientFunds = errors.New("insufficient funds")

// fail writes the standard {code, message} error body.
func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"code": code, "message": message})
}

// parseDate parses the YYYY-MM-DD wire format used across the API.
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// parseDatePtr returns nil for an empty string, otherwise the parsed date.
func parseDatePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// endOfDay pushes a date filter boundary to 23:59:59.999.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999000000, t.Location())
}

// startOfToday returns midnight of the current day.
func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
