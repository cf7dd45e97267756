// Command authdiag prints the flow manager's environment diagnostics:
// which OAuth flow strategies this machine supports, which one would be
// selected, and the raw capability probes behind that decision.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/cropgenius/authflow/flows"
	"github.com/cropgenius/authflow/identity/identityfakes"
	"github.com/cropgenius/authflow/internal/config"
	"github.com/cropgenius/authflow/pkce"
	"github.com/cropgenius/authflow/storagetier"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("authdiag: %s\n", err)
	}
}

func run() error {
	displayAppname("authdiag")
	settings := config.FromEnv()

	tiers := []storagetier.Tier{
		storagetier.NewFileTier(settings.StateDir, storagetier.Persistent),
		storagetier.NewMemoryTier(storagetier.Session),
		storagetier.NewMemoryTier(storagetier.Memory),
	}
	store, err := pkce.NewStore(tiers, settings.StorageKeyPrefix)
	if err != nil {
		return err
	}
	state, err := pkce.NewStateManager(pkce.NewCrypto(), store, settings.PKCEConfig())
	if err != nil {
		return err
	}

	// Diagnostics never call out, so a fake identity client suffices.
	manager, err := flows.NewManager(state, identityfakes.NewFakeClient(), settings.Provider,
		flows.WithPreferredFlow(flows.Type(settings.PreferredFlow)))
	if err != nil {
		return err
	}

	report, err := json.MarshalIndent(manager.RunDiagnostics(), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(report))
	return err
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
