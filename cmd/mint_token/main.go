package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"guardians/internal/config"
	"guardians/internal/domain"
	"guardians/internal/dto"
	"guardians/internal/service"
)

// mint_token issues an access token signed with the configured secret, for
// operators and local development. Identities are not checked.
func main() {
	userID := flag.String("user", "", "user id placed in the token (required)")
	role := flag.String("role", string(domain.RoleEmployee), "admin or employee")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to jwt.access_ttl")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	lifetime := cfg.JWT.AccessTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	authService, err := service.NewAuthService(cfg.JWT)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create auth service: %v\n", err)
		os.Exit(1)
	}

	token, err := authService.CreateJWT(context.Background(), *userID, domain.Role(*role), lifetime, service.TokenTypeAccess)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create token: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(lifetime.Seconds()),
	})
}
