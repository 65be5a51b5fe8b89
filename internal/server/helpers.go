package server

import (
	"errors"
	"sort"
	"strings"

	"creatorpulse/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseUsername extracts the username route parameter. A leading "@" is
// stripped so profile handles can be pasted verbatim.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func parseUsername(c *fiber.Ctx) (string, error) {
	username := strings.TrimSpace(c.Params("username"))
	username = strings.TrimPrefix(username, "@")
	if username == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username is required"))
		return "", errResponseWritten
	}
	return username, nil
}

// parseSort extracts and validates sort_by/order query parameters against the
// allowed column set. On failure it writes a 400 JSON response and returns
// errResponseWritten.
func parseSort(c *fiber.Ctx, columns map[string]string, defaultField string) (string, string, error) {
	sortBy := c.Query("sort_by", defaultField)
	if _, ok := columns[sortBy]; !ok {
		fields := make([]string, 0, len(columns))
		for field := range columns {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid sort_by field. Must be one of: "+strings.Join(fields, ", ")))
		return "", "", errResponseWritten
	}

	order := c.Query("order", "desc")
	if order != "asc" && order != "desc" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid order. Must be 'asc' or 'desc'"))
		return "", "", errResponseWritten
	}

	return sortBy, order, nil
}

// respondServiceError translates service-layer errors into HTTP responses.
func respondServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		status := fiber.StatusInternalServerError
		switch appErr.Code {
		case "NOT_FOUND":
			status = fiber.StatusNotFound
		case "VALIDATION_ERROR":
			status = fiber.StatusBadRequest
		case "UNAUTHORIZED":
			status = fiber.StatusUnauthorized
		case "UNAVAILABLE":
			status = fiber.StatusServiceUnavailable
		}
		return models.RespondWithError(c, status, appErr)
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}
