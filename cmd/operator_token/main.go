package main

import (
	"flag"
	"fmt"
	"time"

	"cyber_cricket/internal/config"
	"cyber_cricket/internal/logger"
	"cyber_cricket/internal/service"
)

// Prints an operator token for the management endpoints.
func main() {
	name := flag.String("name", "operator", "operator name recorded in the audit log")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()
	service.InitJWT(cfg.JWTSecret)

	token, err := service.GenerateOperatorToken(*name, *ttl)
	if err != nil {
		logger.Fatal("failed to generate token", "error", err)
	}
	fmt.Println(token)
}
