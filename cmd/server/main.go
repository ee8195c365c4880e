package main

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/certprep/backend/internal/auth"
	"github.com/certprep/backend/internal/config"
	"github.com/certprep/backend/internal/database"
	"github.com/certprep/backend/internal/middleware"
	"github.com/certprep/backend/internal/quiz"
	"github.com/certprep/backend/internal/readiness"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Wire services
	quizService := quiz.NewService(quiz.NewPostgresStore(db))
	quizHandler := quiz.NewHandler(quizService)
	readinessService := readiness.NewService(readiness.NewPostgresStore(db))
	readinessHandler := readiness.NewHandler(readinessService)
	authHandler := auth.NewHandler(db, cfg.JWTSecret)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(cfg.JWTSecret))
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	protected.HandleFunc("/quiz/start", quizHandler.StartSession).Methods("POST")
	protected.HandleFunc("/quiz/current", quizHandler.CurrentQuestion).Methods("GET")
	protected.HandleFunc("/quiz/answer", quizHandler.SubmitAnswer).Methods("POST")
	protected.HandleFunc("/quiz/abandon", quizHandler.AbandonSession).Methods("POST")
	protected.HandleFunc("/quiz/progress", quizHandler.Progress).Methods("GET")
	protected.HandleFunc("/quiz/sessions/{id:[0-9]+}/results", quizHandler.Results).Methods("GET")

	protected.HandleFunc("/readiness", readinessHandler.GetReadiness).Methods("GET")
	protected.HandleFunc("/readiness/revision-plan", readinessHandler.GetRevisionPlan).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	log.Printf("Server starting on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
