// Package main provides a small tool to issue JWT tokens scoped to one restaurant.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/narvanalabs/sitebuilder/internal/auth"
	"github.com/narvanalabs/sitebuilder/pkg/logger"
)

func main() {
	restaurantID := flag.String("restaurant", "", "Restaurant ID the token grants access to")
	subject := flag.String("subject", "", "Token subject, e.g. the owner's email")
	secret := flag.String("secret", "", "JWT secret (or set JWT_SECRET env var)")
	expiry := flag.Duration("expiry", 24*time.Hour, "Token expiry duration")
	flag.Parse()

	if *restaurantID == "" {
		fmt.Fprintln(os.Stderr, "Error: -restaurant is required")
		os.Exit(1)
	}

	jwtSecret := *secret
	if jwtSecret == "" {
		jwtSecret = os.Getenv("JWT_SECRET")
	}
	if len(jwtSecret) < 32 {
		fmt.Fprintln(os.Stderr, "Error: JWT secret of at least 32 characters required. Use -secret or set JWT_SECRET")
		os.Exit(1)
	}

	svc := auth.NewService(&auth.Config{
		JWTSecret:   []byte(jwtSecret),
		TokenExpiry: *expiry,
	}, logger.Discard().Logger)

	token, err := svc.GenerateToken(*restaurantID, *subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
