package seed

import (
	"fmt"
	"log"

	"creatorpulse/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumCreators      int
	VideosPerCreator int
	PostsPerProfile  int
	ShouldClean      bool
}

// Seed populates the database with demo creators and their content.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding %d creators with %d videos and %d posts each...",
		opts.NumCreators, opts.VideosPerCreator, opts.PostsPerProfile)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}
		log.Println("✓ existing data cleared")
	}

	factory := NewFactory(db)

	for i := 0; i < opts.NumCreators; i++ {
		profile, err := factory.CreateTikTokProfile()
		if err != nil {
			return fmt.Errorf("failed to create tiktok profile: %w", err)
		}
		for j := 0; j < opts.VideosPerCreator; j++ {
			if _, err := factory.CreateTikTokVideo(profile); err != nil {
				return fmt.Errorf("failed to create tiktok video: %w", err)
			}
		}
	}
	log.Printf("✓ %d TikTok creators created", opts.NumCreators)

	for i := 0; i < opts.NumCreators; i++ {
		profile, err := factory.CreateInstagramProfile()
		if err != nil {
			return fmt.Errorf("failed to create instagram profile: %w", err)
		}
		for j := 0; j < opts.PostsPerProfile; j++ {
			if _, err := factory.CreateInstagramPost(profile); err != nil {
				return fmt.Errorf("failed to create instagram post: %w", err)
			}
		}
	}
	log.Printf("✓ %d Instagram accounts created", opts.NumCreators)

	return nil
}

// clearData removes all scraped content. Posts go before profiles so rows
// never reference a deleted account.
func clearData(db *gorm.DB) error {
	session := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []interface{}{
		&models.TikTokVideo{},
		&models.TikTokProfile{},
		&models.InstagramPost{},
		&models.InstagramProfile{},
	} {
		if err := session.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
