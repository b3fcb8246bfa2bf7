package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// Page is a parsed listing window.
type Page struct {
	Offset     int
	Limit      int
	Descending bool
}

// ParsePage reads offset, limit and sort from the query string.
// Defaults are offset 0, limit 50 and ascending order; limit is capped at 100.
func ParsePage(c *gin.Context) (Page, error) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return Page{}, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit < 1 || limit > maxPageLimit {
		return Page{}, fmt.Errorf("invalid limit parameter: must be between 1 and %d", maxPageLimit)
	}

	var descending bool
	switch c.DefaultQuery("sort", "asc") {
	case "asc":
	case "desc":
		descending = true
	default:
		return Page{}, fmt.Errorf("invalid sort parameter: must be asc or desc")
	}

	return Page{Offset: offset, Limit: limit, Descending: descending}, nil
}
