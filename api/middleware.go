package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/chetak-health/chetak-api/databases"
	"github.com/chetak-health/chetak-api/models"
)

// authCacheTTL bounds how long a verified token skips the database lookup
const authCacheTTL = 5 * time.Minute

// DefaultTokenTTL is the lifetime of an issued token
const DefaultTokenTTL = 24 * time.Hour

var errTokenRevoked = errors.New("token has been revoked")

// Claims are the JWT claims issued to a hospital
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Auth authenticates hospital requests with bearer JWTs
type Auth struct {
	DB     databases.HospitalDatabase
	secret []byte
	ttl    time.Duration

	authenticator auth.Authenticator
	strategy      auth.Strategy
	revoked       store.Cache
}

// NewAuth sets up go-guardian with a cached bearer strategy that verifies tokens
// against secret and loads the hospital from db.
func NewAuth(db databases.HospitalDatabase, secret string, ttl time.Duration) *Auth {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	a := &Auth{
		DB:      db,
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: store.NewFIFO(context.Background(), ttl),
	}

	cache := store.NewFIFO(context.Background(), authCacheTTL)
	a.strategy = bearer.New(a.verify, cache)
	a.authenticator = auth.New()
	a.authenticator.EnableStrategy(bearer.CachedStrategyKey, a.strategy)
	return a
}

// Middleware rejects requests without a valid bearer token and puts the hospital ID
// and token on the request context.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		info, err := a.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Debugw("unauthorized", "url", r.URL.String(), "error", err)
			WriteError(w, http.StatusUnauthorized, "Please authenticate.")
			return
		}
		token := bearerToken(r)
		// a cache hit skips verify, so expiry is checked on every request
		if _, err := a.ParseToken(token); err != nil {
			_ = auth.Revoke(a.strategy, token, r)
			zap.S().Debugw("unauthorized", "url", r.URL.String(), "error", err)
			WriteError(w, http.StatusUnauthorized, "Please authenticate.")
			return
		}
		id, err := primitive.ObjectIDFromHex(info.ID())
		if err != nil {
			WriteError(w, http.StatusUnauthorized, "Please authenticate.")
			return
		}
		ctx := WithHospitalID(r.Context(), id)
		ctx = WithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IssueToken signs a token for the hospital
func (a *Auth) IssueToken(h models.Hospital) (string, error) {
	now := time.Now()
	claims := Claims{
		ID:    h.ID.Hex(),
		Email: h.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// RevokeToken drops the request's token from the auth cache and refuses it from now on
func (a *Auth) RevokeToken(r *http.Request) error {
	token := bearerToken(r)
	if token == "" {
		return errors.New("no bearer token")
	}
	if err := a.revoked.Store(token, true, r); err != nil {
		return err
	}
	return auth.Revoke(a.strategy, token, r)
}

// ParseToken validates a signed token and returns its claims
func (a *Auth) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (a *Auth) verify(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	if _, ok, _ := a.revoked.Load(token, r); ok {
		return nil, errTokenRevoked
	}
	claims, err := a.ParseToken(token)
	if err != nil {
		return nil, err
	}
	id, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid hospital id in token: %w", err)
	}

	qctx, cancel := WithQueryTimeout(ctx)
	defer cancel()
	h, err := a.DB.FindOne(qctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("hospital not found: %w", err)
	}
	return auth.NewDefaultUser(h.Email, h.ID.Hex(), nil, nil), nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}
