package util

import (
	"context"
	"log"

	"github.com/jackc/pgx/v4"
)

type DatabaseLogger struct{}

func (d *DatabaseLogger) Log(ctx context.Context, level pgx.LogLevel, msg string, data map[string]interface{}) {
	if data["err"] != nil {
		log.Println("DatabaseLogger:", msg, data["sql"], "Error:", data["err"])
		return
	}
	log.Println("DatabaseLogger:", msg, data["sql"])
}
