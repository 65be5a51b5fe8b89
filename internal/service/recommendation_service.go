package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"creatorpulse/internal/groq"
	"creatorpulse/internal/models"
	"creatorpulse/internal/observability"
	"creatorpulse/internal/repository"
)

// topVideosForPrompt caps how many stored videos feed the idea prompt.
const topVideosForPrompt = 30

const recommendationSystemMessage = "You are a TikTok content strategist who provides creative and engaging content ideas."

// Recommender is the slice of the Groq client the service depends on.
type Recommender interface {
	ChatJSON(ctx context.Context, messages []groq.Message, temperature float64) (string, error)
}

// RecommendationService generates content ideas from a creator's
// best-performing stored videos.
type RecommendationService struct {
	videos repository.VideoRepository
	llm    Recommender
}

// NewRecommendationService creates a new RecommendationService. llm may be
// nil when no API key is configured; ContentIdeas then reports unavailable.
func NewRecommendationService(videos repository.VideoRepository, llm Recommender) *RecommendationService {
	return &RecommendationService{videos: videos, llm: llm}
}

// ContentIdeas ranks the user's stored videos by combined engagement and asks
// the model for three new ideas grounded in the top performers.
func (s *RecommendationService) ContentIdeas(ctx context.Context, username string) (*models.RecommendationResult, error) {
	if s.llm == nil {
		return nil, models.NewUnavailableError("Recommendation service is not configured")
	}
	username = strings.Trim(username, "@")

	span, ctx := observability.NewSpan(ctx, "recommendations.content_ideas")
	defer span.End()
	span.AddAttributes(attribute.String("username", username))

	videos, err := s.videos.TopByEngagement(ctx, username, topVideosForPrompt)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if len(videos) == 0 {
		return nil, models.NewNotFoundError("Videos", username)
	}

	content, err := s.llm.ChatJSON(ctx, []groq.Message{
		{Role: "system", Content: recommendationSystemMessage},
		{Role: "user", Content: buildRecommendationPrompt(username, videos)},
	}, 0.8)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("generate recommendations: %w", err)
	}

	var parsed struct {
		Ideas []models.ContentIdea `json:"ideas"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}

	return &models.RecommendationResult{Username: username, Ideas: parsed.Ideas}, nil
}

func buildRecommendationPrompt(username string, videos []models.TikTokVideo) string {
	lines := make([]string, 0, len(videos))
	for i, v := range videos {
		line := fmt.Sprintf("%d. %q (%d likes, %d comments, %d shares, %d views)",
			i+1, v.Caption, v.Likes, v.Comments, v.Shares, v.Views)
		if len(v.Hashtags) > 0 {
			line += " - hashtags: #" + strings.Join(v.Hashtags, " #")
		}
		if v.Music != "" {
			line += " - music by " + v.Music
		}
		lines = append(lines, line)
	}

	return fmt.Sprintf(`You are a TikTok content strategist.
The following are the most successful videos from the creator @%s:

%s

Based on these videos, suggest 3 new content ideas for the creator. Each idea should include:
- A short title
- A description (what the video could show)
- Optional hashtags

Format your response as a JSON object with the following structure:
{
    "ideas": [
        {
            "title": "string",
            "description": "string",
            "hashtags": ["string"]
        }
    ]
}`, username, strings.Join(lines, "\n"))
}
