package main

import (
	"context"
	"log"
	"time"

	"github.com/ha583/cuddly-chainsaw/internal/chat"
	"github.com/ha583/cuddly-chainsaw/internal/config"
	"github.com/ha583/cuddly-chainsaw/internal/db"
	"github.com/ha583/cuddly-chainsaw/internal/httpapi"
	"github.com/ha583/cuddly-chainsaw/internal/store/rabbitmq"
	"github.com/ha583/cuddly-chainsaw/internal/store/redisstore"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	if err := gdb.AutoMigrate(&chat.Session{}, &chat.Message{}, &chat.Job{}); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rds.Ping(pingCtx); err != nil {
		log.Printf("redis unavailable, model cache disabled: %v", err)
		_ = rds.Close()
		rds = nil
	}
	cancel()

	rabbit, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Printf("rabbit unavailable, async generation disabled: %v", err)
		rabbit = nil
	} else {
		defer rabbit.Close()
	}

	r := httpapi.NewRouter(gdb, cfg, rds, rabbit)

	log.Printf("server listening on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("server: %v", err)
	}
}
