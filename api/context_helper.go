package api

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

type contextKey int

const (
	hospitalIDKey contextKey = iota
	tokenKey
)

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

// WithHospitalID stores the authenticated hospital ID on the context
func WithHospitalID(ctx context.Context, id primitive.ObjectID) context.Context {
	return context.WithValue(ctx, hospitalIDKey, id)
}

// HospitalIDFromContext returns the authenticated hospital ID, if any
func HospitalIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	id, ok := ctx.Value(hospitalIDKey).(primitive.ObjectID)
	return id, ok
}

// WithToken stores the raw bearer token on the context
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the raw bearer token, if any
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}
