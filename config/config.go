package config

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chetak-health/chetak-api/models"
)

// Default values used when the matching environment variable is unset or invalid
const (
	DefaultDatabaseName      = "chetak"
	DefaultPort              = "5000"
	DefaultOSRMURL           = "https://router.project-osrm.org"
	DefaultEmergencyHelpline = "8329227255"
	DefaultDirectoryCron     = "@every 5m"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Env          string

	JWTSecret string
	TokenTTL  time.Duration

	OSRMURL       string
	OSRMRPS       float64
	RouteTimeout  time.Duration
	RedisAddr     string
	RedisPassword string
	RouteCacheTTL time.Duration

	SearchRadiusMeters    float64
	SearchLimit           int64
	EmergencyHelpline     string
	PermissiveSpecialists bool
	DirectoryRefreshCron  string

	SendgridAPIKey string
	MailFrom       string
}

// New sets up all config related services
func New() *Config {
	env := os.Getenv("ENV")

	//setup zap logger and replace default logger
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:          os.Getenv("DB_URI"),
		DatabaseName: getString("DB_NAME", DefaultDatabaseName),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         getString("PORT", DefaultPort),
		Env:          env,

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  time.Duration(getInt("TOKEN_TTL_HOURS", 24)) * time.Hour,

		OSRMURL:       getString("OSRM_URL", DefaultOSRMURL),
		OSRMRPS:       getRate("OSRM_RPS", 1),
		RouteTimeout:  time.Duration(getInt("ROUTE_TIMEOUT_SECONDS", 10)) * time.Second,
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RouteCacheTTL: time.Duration(getInt("ROUTE_CACHE_TTL_MINUTES", 60)) * time.Minute,

		SearchRadiusMeters:    getFloat("SEARCH_RADIUS_METERS", 50000),
		SearchLimit:           int64(getInt("SEARCH_LIMIT", 15)),
		EmergencyHelpline:     getString("EMERGENCY_HELPLINE", DefaultEmergencyHelpline),
		PermissiveSpecialists: getBool("PERMISSIVE_SPECIALISTS", true),
		DirectoryRefreshCron:  getString("DIRECTORY_REFRESH_CRON", DefaultDirectoryCron),

		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       os.Getenv("MAIL_FROM"),
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	body := models.ErrorMessageResponse{Response: models.MessageError{Message: message}}
	if err != nil {
		body.Response.Error = err.Error()
	}
	_ = json.NewEncoder(w).Encode(body)
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// getRate is getFloat that also accepts 0, which turns the limit off
func getRate(key string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}
