package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"creatorpulse/internal/models"
	"creatorpulse/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type scrapeRequest struct {
	Username string `json:"username" validate:"required,max=100"`
}

// parseScrapeRequest parses and validates the JSON body shared by all scrape
// endpoints. On failure it writes a 400 JSON response and returns
// errResponseWritten.
func parseScrapeRequest(c *fiber.Ctx) (string, error) {
	var req scrapeRequest
	if err := c.BodyParser(&req); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return "", errResponseWritten
	}

	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Struct(&req); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(scrapeRequestMessage(err)))
		return "", errResponseWritten
	}

	return req.Username, nil
}

func scrapeRequestMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if verrs[0].Tag() == "max" {
			return "Username must be at most 100 characters"
		}
		return "Username is required"
	}
	return "Invalid request body"
}

// ScrapeTikTokContent handles POST /tiktok/scrape-posts
// @Summary Scrape TikTok videos
// @Description Launch a scrape of the user's recent videos and persist the new ones
// @Tags tiktok
// @Accept json
// @Produce json
// @Param request body object{username=string} true "Scrape request"
// @Success 200 {object} models.TikTokScrapeResult
// @Failure 400 {object} models.ErrorResponse
// @Router /tiktok/scrape-posts [post]
func (s *Server) ScrapeTikTokContent(c *fiber.Ctx) error {
	username, err := parseScrapeRequest(c)
	if err != nil {
		return nil
	}

	// Scrapes block on the provider run, so they inherit the request span
	// context without the short read timeout.
	result := s.tiktokService.ScrapeContent(c.UserContext(), username)
	return c.JSON(result)
}

// ScrapeTikTokProfile handles POST /tiktok/scrape-profile
// @Summary Scrape a TikTok profile
// @Description Refresh the stored profile snapshot for a user
// @Tags tiktok
// @Accept json
// @Produce json
// @Param request body object{username=string} true "Scrape request"
// @Success 200 {object} models.TikTokProfileResult
// @Failure 400 {object} models.ErrorResponse
// @Router /tiktok/scrape-profile [post]
func (s *Server) ScrapeTikTokProfile(c *fiber.Ctx) error {
	username, err := parseScrapeRequest(c)
	if err != nil {
		return nil
	}

	result := s.tiktokService.ScrapeProfile(c.UserContext(), username)
	return c.JSON(result)
}

// GetTikTokRecommendations handles POST /tiktok/recommendations
func (s *Server) GetTikTokRecommendations(c *fiber.Ctx) error {
	username, err := parseScrapeRequest(c)
	if err != nil {
		return nil
	}

	result, err := s.recommendations.ContentIdeas(c.UserContext(), username)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(result)
}

// GetTikTokProfile handles GET /tiktok/profile/:username
func (s *Server) GetTikTokProfile(c *fiber.Ctx) error {
	username, err := parseUsername(c)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	profile, err := s.tiktokService.GetProfile(ctx, username)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(profile)
}

// GetTikTokVideos handles GET /tiktok/videos/:username?sort_by=...&order=...
func (s *Server) GetTikTokVideos(c *fiber.Ctx) error {
	username, err := parseUsername(c)
	if err != nil {
		return nil
	}

	sortBy, order, err := parseSort(c, repository.VideoSortColumns, "publish_date")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	videos, err := s.tiktokService.GetVideos(ctx, username, sortBy, order, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(videos)
}
