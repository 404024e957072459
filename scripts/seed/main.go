// Command seed loads the sample Mumbai and Panvel hospital directory into MongoDB.
// Hospitals are upserted by their numeric id, so it is safe to run more than once.
//
// Usage: DB_URI=mongodb://localhost:27017 go run ./scripts/seed
package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/chetak-health/chetak-api/config"
	"github.com/chetak-health/chetak-api/databases"
	"github.com/chetak-health/chetak-api/models"
)

// capabilities are illustrative, not live data
//
//go:embed hospitals.json
var hospitalsJSON []byte

func main() {
	conf := config.New()
	if conf.URL == "" {
		conf.URL = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, conf); err != nil {
		zap.S().Errorw("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, conf *config.Config) error {
	hospitals, err := loadHospitals(hospitalsJSON)
	if err != nil {
		return err
	}

	client, err := databases.NewClient(conf)
	if err != nil {
		return err
	}
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("could not connect to mongodb: %w", err)
	}
	defer client.Disconnect(context.Background())

	db := databases.NewHospitalDatabase(databases.NewDatabase(conf, client))
	return seed(ctx, db, hospitals)
}

// loadHospitals decodes the directory and rejects entries that could never be matched
func loadHospitals(data []byte) ([]models.Hospital, error) {
	var hospitals []models.Hospital
	if err := json.Unmarshal(data, &hospitals); err != nil {
		return nil, fmt.Errorf("failed to decode hospitals: %w", err)
	}
	seen := map[int]bool{}
	for _, h := range hospitals {
		if h.HospitalID == 0 || h.Name == "" {
			return nil, fmt.Errorf("hospital %q is missing an id or name", h.Name)
		}
		if seen[h.HospitalID] {
			return nil, fmt.Errorf("duplicate hospital id %d", h.HospitalID)
		}
		seen[h.HospitalID] = true
		if err := h.Location.Validate(); err != nil {
			return nil, fmt.Errorf("hospital %d (%s): %w", h.HospitalID, h.Name, err)
		}
	}
	return hospitals, nil
}

func seed(ctx context.Context, db databases.HospitalDatabase, hospitals []models.Hospital) error {
	if err := db.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}

	now := time.Now().UTC()
	var inserted, updated int64
	for _, h := range hospitals {
		res, err := db.UpdateOne(ctx, bson.M{"id": h.HospitalID}, bson.M{
			"$set": bson.M{
				"name":        h.Name,
				"location":    h.Location,
				"hasICU":      h.HasICU,
				"specialists": h.Specialists,
				"equipment":   h.Equipment,
				"updatedAt":   now,
			},
			"$setOnInsert": bson.M{"createdAt": now},
		}, options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("failed to upsert hospital %d: %w", h.HospitalID, err)
		}
		inserted += res.UpsertedCount
		updated += res.ModifiedCount
	}

	total, err := db.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	zap.S().Infow("hospital directory seeded",
		"inserted", inserted,
		"updated", updated,
		"total", total)
	return nil
}
