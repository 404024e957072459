package databases

// go generate: mockery --name HospitalDatabase

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chetak-health/chetak-api/geo"
	"github.com/chetak-health/chetak-api/models"
	"github.com/chetak-health/chetak-api/ranking"
)

const hospitalName = "hospitals"

// Search defaults
const (
	DefaultSearchRadiusMeters = 50000
	DefaultSearchLimit        = 15
	DefaultNearbyMeters       = 10000
)

// HospitalDatabase contains the methods to use with the hospital database
type HospitalDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Hospital, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Hospital, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	InsertOne(ctx context.Context, h models.Hospital) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	FindSuitable(ctx context.Context, q SuitabilityQuery) ([]models.RankedHospital, error)
	EnsureIndexes(ctx context.Context) error
}

type hospitalDatabase struct {
	db DatabaseHelper
}

// NewHospitalDatabase initializes a new instance of hospital database with the provided db connection
func NewHospitalDatabase(db DatabaseHelper) HospitalDatabase {
	return &hospitalDatabase{
		db: db,
	}
}

func (h *hospitalDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Hospital, error) {
	hospital := &models.Hospital{}
	err := h.db.Collection(hospitalName).FindOne(ctx, filter, opts...).Decode(&hospital)
	if err != nil {
		return nil, err
	}
	return hospital, nil
}

func (h *hospitalDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Hospital, error) {
	var hospitals []models.Hospital
	cursor, err := h.db.Collection(hospitalName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cursor.Decode(&hospitals)
	if err != nil {
		return nil, err
	}
	if hospitals == nil {
		hospitals = []models.Hospital{}
	}
	return hospitals, nil
}

func (h *hospitalDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return h.db.Collection(hospitalName).CountDocuments(ctx, filter)
}

func (h *hospitalDatabase) InsertOne(ctx context.Context, hospital models.Hospital) (interface{}, error) {
	res, err := h.db.Collection(hospitalName).InsertOne(ctx, hospital)
	if err != nil {
		return nil, err
	}
	return res.Decode(), nil
}

func (h *hospitalDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return h.db.Collection(hospitalName).UpdateOne(ctx, filter, update, opts...)
}

// FindSuitable runs the $geoNear search described by q. Results come back nearest first
// with distance_km rounded to two decimals and without password hashes.
func (h *hospitalDatabase) FindSuitable(ctx context.Context, q SuitabilityQuery) ([]models.RankedHospital, error) {
	var ranked []models.RankedHospital
	cursor, err := h.db.Collection(hospitalName).Aggregate(ctx, q.Pipeline())
	if err != nil {
		return nil, err
	}
	err = cursor.Decode(&ranked)
	if err != nil {
		return nil, err
	}
	if ranked == nil {
		ranked = []models.RankedHospital{}
	}
	return ranked, nil
}

// EnsureIndexes creates the 2dsphere location index and the unique email and license
// indexes. Creating an index that already exists is a no-op.
func (h *hospitalDatabase) EnsureIndexes(ctx context.Context) error {
	_, err := h.db.Collection(hospitalName).CreateIndexes(ctx, HospitalIndexes())
	return err
}

// HospitalIndexes returns the index models for the hospitals collection
func HospitalIndexes() []mongo.IndexModel {
	// sparse so seeded hospitals without credentials do not collide on the unique keys
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "licenseNumber", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	}
}

// SuitabilityQuery describes a server side search for hospitals that can treat a patient
type SuitabilityQuery struct {
	Origin       geo.Coordinate
	Needs        models.MedicalNeeds
	Policy       ranking.Policy
	RadiusMeters float64
	Limit        int64
}

// Filter returns the capability filter, built from the same tag sets the in-memory
// ranker uses.
func (q SuitabilityQuery) Filter() bson.M {
	filter := bson.M{}
	if q.Needs.NeedsICU {
		filter["hasICU"] = true
	}
	if tags := ranking.SpecialistTags(q.Needs, q.Policy); tags != nil {
		filter["specialists"] = bson.M{"$in": lower(tags)}
	}
	if tags := ranking.EquipmentTags(q.Needs); tags != nil {
		filter["equipment"] = bson.M{"$in": lower(tags)}
	}
	return filter
}

// Pipeline returns the aggregation pipeline. $geoNear has to be the first stage.
func (q SuitabilityQuery) Pipeline() mongo.Pipeline {
	radius := q.RadiusMeters
	if radius <= 0 {
		radius = DefaultSearchRadiusMeters
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.M{
			"near":          geo.NewPoint(q.Origin),
			"distanceField": "distance_meters",
			"maxDistance":   radius,
			"query":         q.Filter(),
			"spherical":     true,
		}}},
		{{Key: "$addFields", Value: bson.M{
			"distance_km": bson.M{"$round": bson.A{bson.M{"$divide": bson.A{"$distance_meters", 1000}}, 2}},
		}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{"password": 0, "distance_meters": 0}}},
	}
}

// NearbyFilter returns a $near filter for hospitals within maxMeters of the point
func NearbyFilter(origin geo.Coordinate, maxMeters float64) bson.M {
	if maxMeters <= 0 {
		maxMeters = DefaultNearbyMeters
	}
	return bson.M{
		"location": bson.M{
			"$near": bson.M{
				"$geometry":    geo.NewPoint(origin),
				"$maxDistance": maxMeters,
			},
		},
	}
}

func lower(tags []string) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = strings.ToLower(strings.TrimSpace(t))
	}
	return out
}
