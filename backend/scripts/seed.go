package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"flock/backend/internal/graph"
	"flock/backend/pkg/config"
	"flock/backend/pkg/logger"
)

// Seeds the graph with demo users, a random follow network and bulk
// posts. Intended for local development only.

var seedNames = []string{
	"Ada Lovelace", "Grace Hopper", "Alan Turing", "Edsger Dijkstra",
	"Barbara Liskov", "Donald Knuth", "Leslie Lamport", "Margaret Hamilton",
	"Ken Thompson", "Dennis Ritchie", "Frances Allen", "Tony Hoare",
	"Radia Perlman", "John Backus", "Niklaus Wirth", "Adele Goldberg",
}

func main() {
	userCount := flag.Int("users", 16, "Number of demo users to create")
	postCount := flag.Int("posts", 50, "Number of posts to create across random users")
	followsPerUser := flag.Int("follows", 4, "Approximate outgoing follows per user")
	reset := flag.Bool("reset", false, "Delete all User and Post nodes first")
	flag.Parse()

	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	if *reset {
		if err := wipe(ctx, driver); err != nil {
			log.Fatal("Failed to reset graph", zap.Error(err))
		}
		log.Info("Existing User and Post nodes deleted")
	}

	repo := graph.NewRepository(driver)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure graph schema", zap.Error(err))
	}

	ids, err := seedUsers(ctx, repo, *userCount)
	if err != nil {
		log.Fatal("Failed to seed users", zap.Error(err))
	}
	log.Info("Users created", zap.Int("count", len(ids)))

	edges := seedFollows(ctx, repo, ids, *followsPerUser, log)
	log.Info("Follow edges created", zap.Int("count", edges))

	created, err := seedPosts(ctx, driver, *postCount)
	if err != nil {
		log.Fatal("Failed to seed posts", zap.Error(err))
	}
	log.Info("Posts created", zap.Int64("count", created))

	log.Info("Seeding complete")
}

func wipe(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `MATCH (n) WHERE n:User OR n:Post DETACH DELETE n`, nil)
	return err
}

func seedUsers(ctx context.Context, repo *graph.Repository, count int) ([]string, error) {
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		name := seedNames[i%len(seedNames)]
		profile := graph.UserProfile{
			ID:       "user_" + uuid.NewString(),
			Name:     name,
			Username: fmt.Sprintf("demo_user_%d", i+1),
			Email:    fmt.Sprintf("demo%d@example.com", i+1),
			Bio:      fmt.Sprintf("Demo account for %s.", name),
			Avatar:   fmt.Sprintf("avatar_%d", i%10+1),
		}
		if err := repo.CreateUser(ctx, profile); err != nil {
			return nil, err
		}
		ids = append(ids, profile.ID)
	}
	return ids, nil
}

func seedFollows(ctx context.Context, repo *graph.Repository, ids []string, perUser int, log *zap.Logger) int {
	created := 0
	for _, src := range ids {
		for i := 0; i < perUser; i++ {
			dst := ids[rand.Intn(len(ids))]
			if dst == src {
				continue
			}
			if err := repo.Follow(ctx, src, dst); err != nil {
				log.Warn("Failed to create follow edge", zap.Error(err))
				continue
			}
			created++
		}
	}
	return created
}

// seedPosts creates posts for random users in a single bulk query
func seedPosts(ctx context.Context, driver neo4j.DriverWithContext, count int) (int64, error) {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (u:User)
		WITH u, rand() AS r
		ORDER BY r
		LIMIT $limit
		CREATE (u)-[:POSTED]->(:Post {
			id: randomUUID(),
			content: "This is a sample post by " + u.name + ".",
			createdAt: datetime()
		})
		RETURN count(*) AS created
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"limit": count})
	if err != nil {
		return 0, err
	}

	record, err := result.Single(ctx)
	if err != nil {
		return 0, err
	}
	created, _ := record.Get("created")
	if n, ok := created.(int64); ok {
		return n, nil
	}
	return 0, nil
}
