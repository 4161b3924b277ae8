package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"marketplace-promotions/internal/config"
	"marketplace-promotions/internal/domain/model"
	"marketplace-promotions/internal/domain/ports/repository"
	pg "marketplace-promotions/internal/infra/db/postgres"
)

// Seeds a handful of sales in known states so the admin tool and the webhook
// flow can be exercised locally. Saves are upserts keyed on fixed ids, so the
// command is safe to re-run.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	saleRepo := pg.NewSaleRepo(pool)

	now := time.Now()
	nextWeek := now.Add(7 * 24 * time.Hour)
	nextMonth := now.Add(30 * 24 * time.Hour)

	seed := []*model.Sale{
		{
			ID:        "11111111-1111-4111-8111-111111111111",
			OwnerID:   "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa",
			Title:     "Neighborhood estate sale",
			Status:    model.SaleStatusPublished,
			StartsAt:  &nextWeek,
			CreatedAt: now,
		},
		{
			ID:        "22222222-2222-4222-8222-222222222222",
			OwnerID:   "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa",
			Title:     "Garage clear-out, undated",
			Status:    model.SaleStatusPublished,
			CreatedAt: now,
		},
		{
			ID:        "33333333-3333-4333-8333-333333333333",
			OwnerID:   "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb",
			Title:     "Draft listing, not yet published",
			Status:    model.SaleStatusDraft,
			StartsAt:  &nextMonth,
			CreatedAt: now,
		},
		{
			ID:        "44444444-4444-4444-8444-444444444444",
			OwnerID:   "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb",
			Title:     "Completed moving sale",
			Status:    model.SaleStatusCompleted,
			CreatedAt: now,
		},
	}

	for _, s := range seed {
		if err := saleRepo.Save(ctx, repository.NoTX, s); err != nil {
			log.Fatalf("seed sale %q: %v", s.Title, err)
		}
		fmt.Printf("seeded: %s (id=%s, status=%s)\n", s.Title, s.ID, s.Status)
	}

	fmt.Println("Seeding complete.")
}
