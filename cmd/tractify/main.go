// Command tractify is a terminal client for the dormitory parcel service.
// It drives the session lifecycle (login, restore, refresh, logout) and the
// collection caches against a configured backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tractify/tractify-go/internal/backend"
	"github.com/tractify/tractify-go/internal/bootstrap"
	"github.com/tractify/tractify-go/internal/domain/nav"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	email := flag.String("email", "", "sign in with this email (uses -password)")
	password := flag.String("password", "", "password for -email")
	resource := flag.String("list", "parcels", "collection to list after sign-in")
	flag.Parse()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting tractify client",
		"auth_mode", cfg.Auth.Mode,
		"backend", cfg.Backend.BaseURL,
	)

	manager := bootstrap.BuildSessionManager(ctx, bootstrap.SessionOptions{
		Config: cfg,
		Logger: logger,
	})
	if manager == nil {
		return errors.New("session manager unavailable: check auth configuration")
	}

	client, err := backend.NewClient(backend.ClientOptions{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	stores := bootstrap.BuildStores(manager, client, logger)

	if *email != "" {
		result := manager.Login(ctx, *email, *password)
		if result.Err != nil {
			return fmt.Errorf("login: %w", result.Err)
		}
		logger.InfoContext(ctx, "signed in",
			"identity_id", result.Session.IdentityID,
			"landing", result.Route,
		)
	} else if !manager.RestoreSession(ctx) {
		return errors.New("no restorable session: sign in with -email and -password")
	}

	defer manager.Logout(ctx)

	if decision := manager.Guard(ctx, nav.RouteParcels); !decision.Allow {
		return fmt.Errorf("navigation denied, redirected to %s", decision.Redirect)
	}

	return listResource(ctx, logger, stores, *resource)
}

func listResource(ctx context.Context, logger *slog.Logger, stores *bootstrap.Stores, resource string) error {
	var count int
	var err error

	switch resource {
	case "parcels":
		parcels, listErr := stores.Parcels.List(ctx)
		count, err = len(parcels), listErr
	case "members":
		members, listErr := stores.Members.List(ctx)
		count, err = len(members), listErr
	case "staff":
		staff, listErr := stores.Staff.List(ctx)
		count, err = len(staff), listErr
	case "announcements":
		notices, listErr := stores.Announcements.List(ctx)
		count, err = len(notices), listErr
	case "profiles":
		profiles, listErr := stores.Profiles.List(ctx)
		count, err = len(profiles), listErr
	default:
		return fmt.Errorf("unknown resource %q", resource)
	}
	if err != nil {
		return fmt.Errorf("list %s: %w", resource, err)
	}

	logger.InfoContext(ctx, "listed collection", "resource", resource, "count", count)
	return nil
}
