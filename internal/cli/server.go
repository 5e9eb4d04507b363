package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"recapp-sync-service/internal/app"
	"recapp-sync-service/internal/config"
	"recapp-sync-service/internal/domain"
	"recapp-sync-service/internal/infra/memory"
	pgstore "recapp-sync-service/internal/infra/postgres"
	redisstore "recapp-sync-service/internal/infra/redis"
	transport "recapp-sync-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the synchronization server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	stores, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	wsHandler := transport.NewWSHandler(stores)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting sync service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildStores wires the collaborator set: Redis-backed stores with an
// optional Postgres durability layer when configured, otherwise fully
// in-memory with a demo quiz.
func buildStores(ctx context.Context, cfg config.Config) (app.Stores, func(), error) {
	cleanup := func() {}

	if cfg.Redis.Addr == "" {
		quizzes := memory.NewQuizStore()
		names := memory.NewNameStore()
		seedDemo(quizzes, names)
		return app.Stores{
			Quizzes:   quizzes,
			Comments:  memory.NewCommentStore(),
			Questions: memory.NewQuestionStore(),
			Runs:      memory.NewRunStore(),
			Names:     names,
		}, cleanup, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	var loader redisstore.Loader
	var saver redisstore.Saver
	quizTTL := time.Duration(0)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return app.Stores{}, cleanup, err
		}
		cleanup = pool.Close
		pg := pgstore.NewQuizStore(pool)
		loader = pg
		saver = pg
		quizTTL = config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	}

	return app.Stores{
		Quizzes:   redisstore.NewQuizStore(client, loader, saver, quizTTL),
		Comments:  redisstore.NewCommentStore(client),
		Questions: redisstore.NewQuestionStore(client),
		Runs:      redisstore.NewRunStore(client),
		Names:     memory.NewNameStore(),
	}, cleanup, nil
}

// seedDemo provides a minimal quiz so the in-memory mode is usable out of
// the box.
func seedDemo(quizzes *memory.QuizStore, names *memory.NameStore) {
	now := time.Now()
	quizzes.Put(domain.Quiz{
		UID:         "quiz-demo",
		Title:       "Demo quiz",
		Description: "A small quiz to try the service without external stores",
		State:       domain.QuizEditing,
		UniqueLink:  "/quiz/quiz-demo",
		Groups: []domain.Group{
			{Name: "General", Questions: []string{}},
		},
		Teachers:         []string{"teacher-demo"},
		Students:         []string{},
		Comments:         []string{},
		StudentQuestions: true,
		StudentComments:  true,
		StudentParticipation: domain.ParticipationSettings{
			Anonymous: true, Name: true, Nickname: true,
		},
		AllowedQuestionTypes: domain.QuestionTypeSettings{
			Single: true, Multiple: true, Text: true,
		},
		Created: now,
		Updated: now,
	})
	names.Put("teacher-demo", domain.UserName{Username: "demo-teacher"})
}
