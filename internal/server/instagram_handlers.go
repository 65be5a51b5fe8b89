package server

import (
	"context"
	"time"

	"creatorpulse/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// ScrapeInstagramContent handles POST /instagram/scrape-posts
func (s *Server) ScrapeInstagramContent(c *fiber.Ctx) error {
	username, err := parseScrapeRequest(c)
	if err != nil {
		return nil
	}

	result := s.igService.ScrapeContent(c.UserContext(), username)
	return c.JSON(result)
}

// GetInstagramProfile handles GET /instagram/profile/:username
func (s *Server) GetInstagramProfile(c *fiber.Ctx) error {
	username, err := parseUsername(c)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	profile, err := s.igService.GetProfile(ctx, username)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(profile)
}

// GetInstagramPosts handles GET /instagram/posts/:username?sort_by=...&order=...
func (s *Server) GetInstagramPosts(c *fiber.Ctx) error {
	username, err := parseUsername(c)
	if err != nil {
		return nil
	}

	sortBy, order, err := parseSort(c, repository.PostSortColumns, "timestamp")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	posts, err := s.igService.GetPosts(ctx, username, sortBy, order, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(posts)
}
