// tarunet-notifier consumes friend events from the Redis queue and persists
// them to Postgres. Run it alongside the API server.
package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"

	"github.com/anirudhnegi03/tarunet/internal/database"
	"github.com/anirudhnegi03/tarunet/internal/notifier"
)

func main() {
	database.ConnectDB()

	svc := notifier.New(notifier.Options{
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		QueueName:  os.Getenv("FRIEND_EVENT_QUEUE_NAME"),
		BatchSize:  getEnvInt("NOTIFIER_BATCH_SIZE", 20),
		FlushDelay: time.Duration(getEnvInt("NOTIFIER_FLUSH_MS", 500)) * time.Millisecond,
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		s := <-sig
		log.Infof("received %v, stopping", s)
		svc.Stop()
	}()

	svc.Run()
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
