// Command authflow-server runs the embedded sign-in HTTP endpoints around a
// flow manager: login start, OAuth callback, sign-out and diagnostics. The
// provider and storage tiers are configured from the environment.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/cropgenius/authflow/flows"
	"github.com/cropgenius/authflow/httpapi"
	"github.com/cropgenius/authflow/identity"
	"github.com/cropgenius/authflow/internal/config"
	"github.com/cropgenius/authflow/pkce"
	"github.com/cropgenius/authflow/storagetier"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error running server: %s\n", err)
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	settings := config.FromEnv()
	displayAppname("authflow")

	client, err := identity.NewOAuthClient(context.Background(), settings.ProviderConfig())
	if err != nil {
		return err
	}

	store, err := pkce.NewStore(storageTiers(settings), settings.StorageKeyPrefix)
	if err != nil {
		return err
	}
	state, err := pkce.NewStateManager(pkce.NewCrypto(), store, settings.PKCEConfig())
	if err != nil {
		return err
	}
	manager, err := flows.NewManager(state, client, settings.Provider,
		flows.WithPreferredFlow(flows.Type(settings.PreferredFlow)))
	if err != nil {
		return err
	}
	api, err := httpapi.New(manager, client)
	if err != nil {
		return err
	}

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go pkce.NewSweeper(state, 0).Run(sweepCtx)

	server := &http.Server{Addr: settings.ListenAddr, Handler: api}
	go listenAndServe(server)
	waitForStopSignal()
	return shutdown(server)
}

// storageTiers selects the persistent tier: Redis when an address is
// configured, the local file store otherwise. Session and memory fallbacks
// are always present.
func storageTiers(settings config.Settings) []storagetier.Tier {
	var persistent storagetier.Tier
	if settings.RedisAddr != "" {
		persistent = storagetier.NewRedisTier(
			redis.NewClient(&redis.Options{Addr: settings.RedisAddr}),
			storagetier.Persistent, 0)
	} else {
		persistent = storagetier.NewFileTier(settings.StateDir, storagetier.Persistent)
	}

	return []storagetier.Tier{
		persistent,
		storagetier.NewMemoryTier(storagetier.Session),
		storagetier.NewMemoryTier(storagetier.Memory),
	}
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
