package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/auth"
	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/logger"
	"github.com/tableside-pos/api/internal/service"
	"go.uber.org/zap"
)

type seedItem struct {
	name, description, price string
}

type seedCategory struct {
	name, letter string
	items        []seedItem
}

var demoMenu = []seedCategory{
	{
		name:   "Burgers",
		letter: "B",
		items: []seedItem{
			{"Cheeseburger", "Beef patty, cheddar, pickles", "10.00"},
			{"Mushroom Swiss", "Beef patty, sauteed mushrooms, swiss", "12.50"},
		},
	},
	{
		name:   "Sides",
		letter: "S",
		items: []seedItem{
			{"Fries", "Hand cut, sea salt", "5.00"},
			{"Onion Rings", "Beer battered", "6.00"},
		},
	},
	{
		name:   "Drinks",
		letter: "D",
		items: []seedItem{
			{"Lemonade", "Fresh squeezed", "3.50"},
			{"Iced Tea", "Unsweetened", "3.00"},
		},
	},
}

func main() {
	userID := flag.String("user", "admin", "User id to embed in the development token")
	role := flag.Int("role", enum.RoleAdmin, "Role rank for the development token (0 admin .. 4 guest)")
	ttl := flag.Duration("ttl", 24*time.Hour, "Development token lifetime")
	migrate := flag.Bool("migrate", true, "Apply migrations before seeding")
	flag.Parse()

	log, err := logger.Init("development", "")
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		zap.S().Fatalw("load config", "error", err)
	}

	if *migrate {
		if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			zap.S().Fatalw("migrate", "error", err)
		}
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		zap.S().Fatalw("unable to connect to database", "error", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		zap.S().Fatalw("unable to ping database", "error", err)
	}

	catalog := service.NewCatalogService(pool, database.New(pool), func(db database.DBTX) service.CatalogStore {
		return database.New(db)
	})

	if err := seedMenu(ctx, catalog); err != nil {
		zap.S().Fatalw("seed menu", "error", err)
	}

	token, err := auth.GenerateToken(cfg.JWTSecret, *userID, *role, *ttl)
	if err != nil {
		zap.S().Fatalw("generate token", "error", err)
	}
	zap.S().Infow("seed completed", "user", *userID, "role", *role)
	fmt.Println(token)
}

// seedMenu is idempotent: items and categories that already exist are reused.
func seedMenu(ctx context.Context, catalog *service.CatalogService) error {
	existing, err := catalog.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	byName := make(map[string]uuid.UUID, len(existing))
	for _, it := range existing {
		byName[it.Name] = it.ID
	}

	for _, cat := range demoMenu {
		ids := make([]uuid.UUID, 0, len(cat.items))
		for _, it := range cat.items {
			if id, ok := byName[it.name]; ok {
				ids = append(ids, id)
				continue
			}
			created, err := catalog.CreateItem(ctx, service.CreateItemRequest{
				Name:        it.name,
				Description: it.description,
				Price:       decimal.RequireFromString(it.price),
				Active:      true,
			})
			if err != nil {
				return fmt.Errorf("create item %q: %w", it.name, err)
			}
			byName[it.name] = created.ID
			ids = append(ids, created.ID)
			zap.S().Infow("created item", "name", it.name, "id", created.ID)
		}

		_, err := catalog.CreateCategory(ctx, service.CreateCategoryRequest{
			Name:    cat.name,
			Letter:  cat.letter,
			ItemIDs: ids,
			Active:  true,
		})
		switch {
		case errors.Is(err, service.ErrDuplicateName):
			zap.S().Infow("category exists, skipping", "name", cat.name)
		case err != nil:
			return fmt.Errorf("create category %q: %w", cat.name, err)
		default:
			zap.S().Infow("created category", "name", cat.name, "items", len(ids))
		}
	}
	return nil
}
