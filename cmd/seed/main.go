// Command seed populates the database with demo users, posts and engagement.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/rmeditanala/blogml/internal/config"
	"github.com/rmeditanala/blogml/internal/database"
	"github.com/rmeditanala/blogml/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 60, "Number of posts to create")
	numComments := flag.Int("comments", 6, "Maximum top-level comments per post")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, *randSeed)
	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if err := s.Run(context.Background(), seed.Options{
		Users:    *numUsers,
		Posts:    *numPosts,
		Comments: *numComments,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users and %d posts. All users have the password: %s", *numUsers, *numPosts, seed.DefaultPassword)
}
