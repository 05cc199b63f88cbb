// Command seed loads discount rules from a YAML file through the admin service.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"pricing-service/internal/domains/discount/seed"
	"pricing-service/pkg/container"
)

func main() {
	path := flag.String("file", "rules.yaml", "seed file")
	flag.Parse()

	_ = godotenv.Load()

	f, err := os.Open(*path)
	if err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("Failed to open seed file")
	}
	defer f.Close()

	reqs, err := seed.Load(f)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid seed file")
	}

	c, err := container.NewContainer()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize container")
	}
	defer c.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := seed.Apply(ctx, c.DiscountService, reqs)
	if err != nil {
		log.Error().Err(err).Int("created", n).Msg("Seeding stopped")
		return
	}
	log.Info().Int("created", n).Msg("Seeding finished")
}
