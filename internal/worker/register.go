package worker

import (
	"migration-web/internal/config"
	"migration-web/internal/handler"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

func RegisterHandlers(mux *asynq.ServeMux, db *sqlx.DB, redisClient *redis.Client, cfg *config.Config) {
	executeHandler := NewExecuteHandler(db, redisClient, cfg)
	mux.HandleFunc(handler.TaskTypeExecuteMigration, executeHandler.Handle)
}
