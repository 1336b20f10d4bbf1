// Command seed fills the pantry store with sample Fruits and Vegetables items.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"smart-pantry-api/internal/config"
	"smart-pantry-api/internal/logging"
	"smart-pantry-api/internal/model"
	"smart-pantry-api/internal/repository"
	"smart-pantry-api/pkg/uid"

	"go.uber.org/zap"
)

const chunkSize = 100

var (
	fruitNames     = []string{"Apple", "Banana", "Orange", "Strawberry", "Grapes", "Watermelon", "Blueberry", "Peach", "Pear", "Cherry", "Mango", "Pineapple", "Kiwi", "Plum", "Raspberry", "Blackberry"}
	vegetableNames = []string{"Carrot", "Broccoli", "Spinach", "Tomato", "Cucumber", "Potato", "Onion", "Garlic", "Bell Pepper", "Lettuce", "Cabbage", "Cauliflower", "Eggplant", "Zucchini", "Celery", "Asparagus"}
	adjectives     = []string{"Fresh", "Organic", "Sweet", "Crunchy", "Ripe", "Succulent", "Large", "Small", "Green", "Red", "Seasonal"}
)

func main() {
	count := flag.Int("n", 1000, "number of items to generate")
	flag.Parse()

	cfg := config.MustLoad()
	logger, err := logging.Setup(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), cfg, *count, logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, count int, logger *zap.Logger) error {
	store, err := repository.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	fruits, _, err := store.CreateOrGetCategory(ctx, model.Category{ID: uid.New(), Name: "Fruits"})
	if err != nil {
		return err
	}
	vegetables, _, err := store.CreateOrGetCategory(ctx, model.Category{ID: uid.New(), Name: "Vegetables"})
	if err != nil {
		return err
	}

	logger.Info("generating items", zap.Int("count", count))
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	items := generateItems(rng, count, fruits, vegetables, time.Now().UTC(), uid.New)

	for start := 0; start < len(items); start += chunkSize {
		end := min(start+chunkSize, len(items))
		if err := store.BulkInsertItems(ctx, items[start:end]); err != nil {
			return fmt.Errorf("failed to insert items %d-%d: %w", start, end-1, err)
		}
		logger.Info("uploaded items", zap.Int("total", end))
	}

	logger.Info("database seeded", zap.Int("items", len(items)))
	return nil
}

// generateItems builds n items split randomly between the two categories,
// with quantities 1-20 and expiration dates from 10 days ago to 50 days ahead.
func generateItems(rng *rand.Rand, n int, fruits, vegetables model.Category, now time.Time, newID func() string) []model.PantryItem {
	items := make([]model.PantryItem, 0, n)
	for i := 0; i < n; i++ {
		cat, names := vegetables, vegetableNames
		if rng.Float64() > 0.5 {
			cat, names = fruits, fruitNames
		}

		expires := now.AddDate(0, 0, rng.IntN(61)-10)
		items = append(items, model.PantryItem{
			ID:             newID(),
			Name:           fmt.Sprintf("%s %s %d", adjectives[rng.IntN(len(adjectives))], names[rng.IntN(len(names))], i+1),
			Quantity:       rng.IntN(20) + 1,
			CategoryID:     cat.ID,
			ExpirationDate: &expires,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return items
}
