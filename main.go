package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"calendrunAPI/handlers"
	"calendrunAPI/internal/backend"
	"calendrunAPI/internal/flowcore"
	"calendrunAPI/internal/ratelimit"
	"calendrunAPI/middleware"
	"calendrunAPI/services"

	_ "net/http/pprof"
)

const inviteAttemptWindow = time.Hour

var (
	dbPool             *pgxpool.Pool
	backendClient      *backend.Client
	flowcoreClient     *flowcore.Client
	attemptStore       ratelimit.AttemptStore
	challengeService   *services.ChallengeService
	runService         *services.RunService
	leaderboardService *services.LeaderboardService
	clubService        *services.ClubService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)

	backendURL := os.Getenv("BACKEND_API_URL")
	if backendURL == "" {
		log.Fatal("BACKEND_API_URL environment variable is not set")
	}
	backendClient = backend.NewClient(backendURL, os.Getenv("BACKEND_API_KEY"))

	flowcoreURL := os.Getenv("FLOWCORE_URL")
	if flowcoreURL == "" {
		log.Fatal("FLOWCORE_URL environment variable is not set")
	}
	flowcoreClient = flowcore.NewClient(
		flowcoreURL,
		os.Getenv("FLOWCORE_TENANT"),
		os.Getenv("FLOWCORE_DATA_CORE"),
		os.Getenv("FLOWCORE_API_KEY"),
	)

	// Invite attempts go into postgres when a database is configured, so
	// multiple instances share one budget. Without one, the in-memory
	// store is good enough for a single process.
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			log.Fatal("Failed to create connection pool:", err)
		}
		if err := pool.Ping(ctx); err != nil {
			log.Fatal("Failed to ping database:", err)
		}
		dbPool = pool
		attemptStore = ratelimit.NewPostgresStore(pool, inviteAttemptWindow)
		log.Println("Using postgres-backed invite attempt store")
	} else {
		memStore := ratelimit.NewMemoryStore(inviteAttemptWindow)
		go memStore.Cleanup()
		attemptStore = memStore
		log.Println("Using in-memory invite attempt store")
	}

	challengeService = services.NewChallengeService(backendClient, flowcoreClient)
	runService = services.NewRunService(backendClient, flowcoreClient)
	leaderboardService = services.NewLeaderboardService(backendClient)
	clubService = services.NewClubService(backendClient, attemptStore)

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		if dbPool != nil {
			log.Println("Closing database connection pool...")
			dbPool.Close()
		}
	}()

	challengeHandler := handlers.NewChallengeHandler(challengeService)
	runHandler := handlers.NewRunHandler(runService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	clubHandler := handlers.NewClubHandler(clubService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "calendrun-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER (everything requires auth)
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.AuthMiddleware)

	api.HandleFunc("/templates/current", challengeHandler.GetCurrentTemplate).Methods("GET")

	api.HandleFunc("/challenges/join", challengeHandler.JoinChallenge).Methods("POST")
	api.HandleFunc("/challenges/validate-token", clubHandler.ValidateToken).Methods("POST")
	api.HandleFunc("/challenges/{id}", challengeHandler.GetChallenge).Methods("GET")
	api.HandleFunc("/challenges/{id}", challengeHandler.UpdateChallenge).Methods("PATCH")
	api.HandleFunc("/challenges/{id}/runs", runHandler.LogRun).Methods("POST")
	api.HandleFunc("/challenges/{id}/runs/{runId}", runHandler.UpdateRun).Methods("PATCH")
	api.HandleFunc("/challenges/{id}/runs/{runId}", runHandler.DeleteRun).Methods("DELETE")

	api.HandleFunc("/leaderboards/everybody", leaderboardHandler.GetGlobalLeaderboard).Methods("GET")
	api.HandleFunc("/leaderboards/club/{clubId}", leaderboardHandler.GetClubLeaderboard).Methods("GET")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:    port,
		Handler: corsHandler(r),
		// Join polls the read API for up to 30s, so the write timeout
		// has to outlast it.
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
