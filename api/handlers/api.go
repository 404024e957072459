package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chetak-health/chetak-api/api"
	"github.com/chetak-health/chetak-api/api/scheduler"
	"github.com/chetak-health/chetak-api/config"
	"github.com/chetak-health/chetak-api/databases"
	"github.com/chetak-health/chetak-api/directory"
	"github.com/chetak-health/chetak-api/mailer"
	"github.com/chetak-health/chetak-api/observability"
	"github.com/chetak-health/chetak-api/ranking"
	"github.com/chetak-health/chetak-api/recommend"
	"github.com/chetak-health/chetak-api/routing"
	"github.com/chetak-health/chetak-api/triage"
)

const requestTimeout = 30 * time.Second

// App stores the router and db connection, so it can be reused
type App struct {
	Router *mux.Router
	Config config.Config

	HospitalDB databases.HospitalDatabase
	Directory  directory.Directory
	Routes     routing.Provider
	Mailer     mailer.Mailer
	Registry   *prometheus.Registry

	client    databases.ClientHelper
	redis     *redis.Client
	snapshot  *directory.Snapshot
	scheduler *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	policy := ranking.Policy{PermissiveSpecialists: a.Config.PermissiveSpecialists}
	classifier := triage.NewRuleBasedClassifier()

	if a.Registry == nil {
		a.Registry = observability.InitRegistry()
	}
	if a.Directory == nil {
		a.Directory = directory.Static{}
	}

	authn := api.NewAuth(a.HospitalDB, a.Config.JWTSecret, a.Config.TokenTTL)
	h := Hospital{DB: a.HospitalDB, Auth: authn, Mailer: a.Mailer}
	s := Suitable{DB: a.HospitalDB, Policy: policy, RadiusMeters: a.Config.SearchRadiusMeters, Limit: a.Config.SearchLimit}
	as := Assessment{
		Classifier: classifier,
		Service: &recommend.Service{
			Classifier: classifier,
			Directory:  a.Directory,
			Ranker:     ranking.New(policy),
			Presenter: recommend.Presenter{
				Routes:           a.Routes,
				RouteTimeout:     a.Config.RouteTimeout,
				EmergencyContact: a.Config.EmergencyHelpline,
			},
		},
	}

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)
	r.Use(api.TimeoutMiddleware(requestTimeout))

	// healthchex
	r.HandleFunc("/health", api.HealthCheckHandler).Methods("GET")
	r.Handle("/metrics", observability.MetricsHandler(a.Registry)).Methods("GET")

	r.HandleFunc("/api/find-suitable", s.FindSuitableHandler).Methods("GET")

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/assessments", as.CreateAssessmentHandler).Methods("POST")
	v1.HandleFunc("/needs", as.NeedsHandler).Methods("POST")

	hospital := r.PathPrefix("/api/hospital").Subrouter()
	hospital.HandleFunc("/register", h.RegisterHandler).Methods("POST")
	hospital.HandleFunc("/login", h.LoginHandler).Methods("POST")
	hospital.HandleFunc("/nearby", h.NearbyHandler).Methods("GET")
	hospital.Handle("/profile", authn.Middleware(http.HandlerFunc(h.ProfileHandler))).Methods("GET")
	hospital.Handle("/profile", authn.Middleware(http.HandlerFunc(h.UpdateProfileHandler))).Methods("PATCH")
	hospital.Handle("/emergency-capacity", authn.Middleware(http.HandlerFunc(h.EmergencyCapacityHandler))).Methods("PATCH")
	hospital.Handle("/facilities", authn.Middleware(http.HandlerFunc(h.FacilitiesHandler))).Methods("POST")
	hospital.Handle("/specialties", authn.Middleware(http.HandlerFunc(h.SpecialtiesHandler))).Methods("POST")
	hospital.Handle("/logout", authn.Middleware(http.HandlerFunc(h.LogoutHandler))).Methods("DELETE")

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize(ctx context.Context) error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		zap.S().With(err).Error("failed to create new client")
		return err
	}
	a.client = client

	dbHelper := databases.NewDatabase(&a.Config, client)
	err = client.Connect(ctx)
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("chetak-api has connected to the database")

	a.HospitalDB = databases.NewHospitalDatabase(dbHelper)
	if err := a.HospitalDB.EnsureIndexes(ctx); err != nil {
		zap.S().Errorw("failed to ensure hospital indexes", "error", err)
	}

	a.snapshot = directory.NewSnapshot(a.HospitalDB)
	if err := a.snapshot.Refresh(ctx); err != nil {
		// assessments report no_match until the next scheduled refresh succeeds
		zap.S().Errorw("initial directory load failed", "error", err)
	}
	a.Directory = a.snapshot
	a.scheduler = scheduler.NewScheduler(a.snapshot, a.Config.DirectoryRefreshCron)
	if err := a.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	a.Routes = a.routingProvider(ctx)
	a.Mailer = mailer.New(a.Config.SendgridAPIKey, a.Config.MailFrom)
	a.Registry = observability.InitRegistry()

	// initialize api router
	a.initializeRoutes()
	return nil
}

// routingProvider builds the OSRM client, wrapped in the redis cache when one is configured
func (a *App) routingProvider(ctx context.Context) routing.Provider {
	var p routing.Provider = routing.NewOSRMClient(a.Config.OSRMURL, a.Config.OSRMRPS, &http.Client{Timeout: a.Config.RouteTimeout})
	if a.Config.RedisAddr == "" {
		return p
	}

	a.redis = redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr, Password: a.Config.RedisPassword})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		zap.S().Warnw("redis unreachable, route cache will miss until it recovers", "addr", a.Config.RedisAddr, "error", err)
	}
	return routing.NewCachedProvider(p, a.redis, a.Config.RouteCacheTTL)
}

// Shutdown stops background jobs and closes external connections
func (a *App) Shutdown(ctx context.Context) {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			zap.S().Warnw("failed to close redis", "error", err)
		}
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}
