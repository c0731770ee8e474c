// Package main mints identity tokens for local development. Production
// tokens come from the identity provider that shares the signing secret.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tinysteps/smart-explorer/internal/config"
	"github.com/tinysteps/smart-explorer/internal/service/auth"
)

func main() {
	subject := flag.String("sub", "", "external subject to put in the token")
	ttl := flag.Duration("ttl", 0, "token lifetime (default: auth.token_lifetime_minutes)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := mint(os.Stdout, cfg.Auth, *subject, *ttl, time.Now); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func mint(out io.Writer, cfg config.AuthConfig, subject string, ttl time.Duration, now func() time.Time) error {
	if ttl <= 0 {
		ttl = cfg.TokenLifetime()
	}
	svc, err := auth.NewJWTServiceWithClock(cfg.JWTSecret, ttl, now)
	if err != nil {
		return err
	}
	token, err := svc.GenerateToken(context.Background(), subject)
	if err != nil {
		return fmt.Errorf("failed to mint token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
