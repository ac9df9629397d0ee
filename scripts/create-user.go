package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shelfapi/shelf/internal/auth"
	"github.com/shelfapi/shelf/internal/model"
	"github.com/shelfapi/shelf/internal/repository"
)

type output struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token,omitempty"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "", "User email")
		password    = flag.String("password", os.Getenv("SHELF_USER_PASSWORD"), "User password (default $SHELF_USER_PASSWORD)")
		issueToken  = flag.Bool("issue-token", false, "Also issue an access token (requires JWT_SECRET)")
		tokenTTL    = flag.Duration("token-ttl", 8760*time.Hour, "Lifetime of the issued token")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	addr := strings.TrimSpace(*email)
	if addr == "" || !strings.Contains(addr, "@") {
		fmt.Fprintln(os.Stderr, "a valid --email is required")
		os.Exit(1)
	}
	if *password == "" {
		fmt.Fprintln(os.Stderr, "--password or SHELF_USER_PASSWORD is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL, repository.Options{MaxConns: 2})
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash password:", err)
		os.Exit(1)
	}

	user := &model.User{
		Email:        addr,
		PasswordHash: hash,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			fmt.Fprintf(os.Stderr, "a user with email %s already exists\n", addr)
		} else {
			fmt.Fprintln(os.Stderr, "create user:", err)
		}
		os.Exit(1)
	}

	out := output{
		UserID: user.ID,
		Email:  user.Email,
	}

	if *issueToken {
		secret := os.Getenv("JWT_SECRET")
		if len(secret) < 32 {
			fmt.Fprintln(os.Stderr, "JWT_SECRET of at least 32 bytes is required to issue a token")
			os.Exit(1)
		}

		provider := auth.NewProvider(repo, nil, auth.NewTokenIssuer(secret, *tokenTTL), nil)
		out.Token, err = provider.IssueToken(ctx, user.ID, user.Email)
		if err != nil {
			fmt.Fprintln(os.Stderr, "issue token:", err)
			os.Exit(1)
		}
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Printf("created user %d (%s)\n", out.UserID, out.Email)
		if out.Token != "" {
			fmt.Println(out.Token)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}
