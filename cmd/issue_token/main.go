package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"boostd/internal/logger"
	"boostd/internal/service"

	"github.com/joho/godotenv"
)

// issue_token prints a signed JWT for a local user id, for manual testing
// against the REST and websocket endpoints.
func main() {
	userID := flag.String("user", "", "user id to put in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	if *userID == "" {
		logger.Fatal("-user is required")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal("JWT_SECRET not set")
	}

	service.InitJWT(secret)
	token, err := service.GenerateJWT(*userID, *ttl)
	if err != nil {
		logger.Fatal("failed to generate token", "error", err)
	}
	fmt.Println(token)
}
