// Command seed populates the database with a demo community and the workout catalog.
package main

import (
	"context"
	"flag"
	"log"

	"fitstream/internal/bootstrap"
	"fitstream/internal/config"
	"fitstream/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of members to create")
	numPosts := flag.Int("posts", 80, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Delete members and their content before seeding")
	catalogPath := flag.String("catalog", "", "Catalog YAML file (defaults to CATALOG_FILE, then the built-in catalog)")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = random)")
	catalogOnly := flag.Bool("catalog-only", false, "Only import the workout catalog")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *catalogPath != "" {
		cfg.CatalogFile = *catalogPath
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ImportCatalog: true, SkipRedis: true})
	if err != nil {
		log.Fatalf("❌ Runtime setup failed: %v", err)
	}

	if *catalogOnly {
		return
	}

	s, err := seed.NewSeeder(db, seed.Options{
		NumUsers: *numUsers,
		NumPosts: *numPosts,
		RandSeed: *randSeed,
	})
	if err != nil {
		log.Fatalf("❌ Seeder setup failed: %v", err)
	}

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	res, err := s.SeedCommunity(ctx)
	if err != nil {
		log.Fatalf("❌ Community seeding failed: %v", err)
	}

	log.Printf("✨ Created %d users, %d posts, %d likes, %d comments\n",
		len(res.Users), len(res.Posts), res.Likes, res.Comments)
	log.Printf("📧 All demo users have the password: %s\n", seed.DemoPassword)
}
