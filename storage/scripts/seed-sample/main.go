package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/cardify/storefront/storage"
	"github.com/cardify/storefront/storage/db"
	"github.com/oklog/ulid/v2"
)

// Seeds a local database with marketplace listings so checkout can be
// exercised without a Supabase project.
func main() {
	dbPath := flag.String("db", "./db/cardify.db", "path to the sqlite database")
	count := flag.Int("listings", 10, "number of listings to create")
	seed := flag.Uint64("seed", 0, "faker seed (0 picks a random one)")
	flag.Parse()

	faker := gofakeit.New(*seed)

	store, err := storage.New(*dbPath)
	if err != nil {
		log.Fatal("Error opening database:", err)
	}
	defer store.Close()

	ctx := context.Background()
	q := store.Queries

	for i := 0; i < *count; i++ {
		var seriesID sql.NullString
		if faker.Bool() {
			total := int64(faker.IntRange(10, 250))
			seriesID = sql.NullString{String: ulid.Make().String(), Valid: true}
			err := q.CreateSeries(ctx, db.CreateSeriesParams{
				ID:              seriesID.String,
				Name:            faker.AppName(),
				TotalSupply:     total,
				RemainingSupply: int64(faker.IntRange(0, int(total))),
			})
			if err != nil {
				log.Fatal("Error creating series:", err)
			}
		}

		sellerID := faker.UUID()
		assetID := ulid.Make().String()
		err := q.CreateUserAsset(ctx, db.CreateUserAssetParams{
			ID:       assetID,
			OwnerID:  sellerID,
			Title:    fmt.Sprintf("%s %s", faker.Adjective(), faker.Animal()),
			ImageUrl: faker.URL() + "/card.png",
			SeriesID: seriesID,
		})
		if err != nil {
			log.Fatal("Error creating asset:", err)
		}

		status := "active"
		if faker.Float32() < 0.2 {
			status = "sold"
		}

		listingID := ulid.Make().String()
		price := int64(faker.IntRange(5, 60)) * 100
		err = q.CreateListing(ctx, db.CreateListingParams{
			ID:         listingID,
			SellerID:   sellerID,
			AssetID:    assetID,
			PriceCents: price,
			Status:     status,
		})
		if err != nil {
			log.Fatal("Error creating listing:", err)
		}

		fmt.Printf("Created listing %s (%s) - $%.2f\n", listingID, status, float64(price)/100)
	}

	fmt.Println("\nSample listings created successfully!")
}
