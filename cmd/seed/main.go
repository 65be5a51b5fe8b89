// Command main runs the database seeder for CreatorPulse.
package main

import (
	"flag"
	"log"

	"creatorpulse/internal/config"
	"creatorpulse/internal/database"
	"creatorpulse/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	// Parse command line flags
	numCreators := flag.Int("creators", 10, "Number of creators to create per platform")
	numVideos := flag.Int("videos", 20, "Number of TikTok videos per creator")
	numPosts := flag.Int("posts", 12, "Number of Instagram posts per account")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d creators, %d videos each, %d posts each, clean=%v\n",
		*numCreators, *numVideos, *numPosts, *shouldClean)

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumCreators:      *numCreators,
		VideosPerCreator: *numVideos,
		PostsPerProfile:  *numPosts,
		ShouldClean:      *shouldClean,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with demo creators.")
}
