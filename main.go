package main

import (
	"context"
	"log"
	"net/http"
	"time"

	gorilla "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	_redis "github.com/remotecollab/api/cache/redis"
	"github.com/remotecollab/api/config"
	handler "github.com/remotecollab/api/handler"
	auth "github.com/remotecollab/api/handler/auth"
	_pg "github.com/remotecollab/api/repository/pg"
	"github.com/remotecollab/api/token"
	util "github.com/remotecollab/api/util"
	"github.com/remotecollab/api/util/middleware"
)

func initDatabase(cfg *config.Config) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalln("Unable to parse DATABASE_URL. error:", err)
	}

	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.Logger = &util.DatabaseLogger{}
	poolConfig.ConnConfig.LogLevel = pgx.LogLevelError

	ctx, cancel := util.GetContextWithTimeout(context.Background())
	defer cancel()
	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		log.Fatalln("Unable to create connection pool. error:", err)
	}

	queries := []string{
		_pg.CreateUserTable(),
		_pg.CreateProjectTable(),
		_pg.CreateProjectMemberTable(),
		_pg.CreateTaskTable(),
		_pg.CreateDocumentTable(),
		_pg.CreateActivityTable(),
	}

	for _, q := range queries {
		ctx, cancel := util.GetContextWithTimeout(context.Background())
		defer cancel()
		if _, err := pool.Exec(ctx, q); err != nil {
			log.Fatalln(err)
		}
	}

	return pool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalln(err)
	}

	pool := initDatabase(cfg)
	defer pool.Close()

	rdb := _redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, _redis.REDIS_DATABASE_AUTH)
	authCache := _redis.NewAuthRedisCache(rdb)

	userRepo := _pg.NewUserPostgresRepository(pool)
	projectRepo := _pg.NewProjectPostgresRepository(pool)
	taskRepo := _pg.NewTaskPostgresRepository(pool)
	docRepo := _pg.NewDocumentPostgresRepository(pool)
	activityRepo := _pg.NewActivityPostgresRepository(pool)

	tokens := token.NewService(cfg.TokenSecret, cfg.TokenTTL)

	r := mux.NewRouter()
	r.Use(middleware.LoggerMiddleware)
	api := r.PathPrefix("/api").Subrouter()

	authHandler := auth.NewAuthHandler(
		api,
		userRepo,
		activityRepo,
		tokens,
		authCache,
		"/auth",
	)

	handler.NewUserHandler(
		api,
		authHandler.Middleware,
		userRepo,
		"/users",
	)

	handler.NewProjectHandler(
		api,
		authHandler.Middleware,
		projectRepo,
		userRepo,
		activityRepo,
		"/projects",
	)

	handler.NewTaskHandler(
		api,
		authHandler.Middleware,
		taskRepo,
		projectRepo,
		userRepo,
		activityRepo,
		"/tasks",
	)

	handler.NewDocumentHandler(
		api,
		authHandler.Middleware,
		docRepo,
		projectRepo,
		activityRepo,
		"/documents",
	)

	handler.NewActivityHandler(
		api,
		authHandler.Middleware,
		activityRepo,
		"/activities",
	)

	cors := gorilla.CORS(
		gorilla.AllowedOrigins(cfg.AllowedOrigins),
		gorilla.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilla.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      gorilla.RecoveryHandler()(cors(r)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Println("listening on", cfg.ListenAddr)
	log.Fatal(srv.ListenAndServe())
}
