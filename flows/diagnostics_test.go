package flows_test

import (
	"testing"

	"github.com/cropgenius/authflow/flows"
	"github.com/cropgenius/authflow/pkce"
	"github.com/cropgenius/authflow/storagetier"
	"github.com/stretchr/testify/assert"
)

func TestRunDiagnosticsHealthyEnvironment(t *testing.T) {
	f := setupFlows(t, fixtureConfig{})

	report := f.manager.RunDiagnostics()

	assert.Equal(t, []flows.Type{flows.TypePKCE, flows.TypeHybrid, flows.TypeImplicit}, report.SupportedStrategies)
	assert.Equal(t, flows.TypePKCE, report.OptimalStrategy)
	assert.Equal(t, flows.TypeAuto, report.PreferredFlow)

	assert.True(t, report.Capabilities.SecureRandom)
	assert.True(t, report.Capabilities.Digest)
	assert.True(t, report.Capabilities.PersistentStorage)
	assert.True(t, report.Capabilities.SessionStorage)
	assert.True(t, report.Capabilities.MemoryStorage)
	assert.True(t, report.Capabilities.URLPrimitives)
	assert.True(t, report.Capabilities.TextEncoding)
}

func TestRunDiagnosticsDegradedEnvironment(t *testing.T) {
	f := setupFlows(t, fixtureConfig{
		cryptoOpts: []pkce.CryptoOption{pkce.WithRandSource(brokenRand{})},
		tiers: []storagetier.Tier{
			offlineTier{name: storagetier.Persistent},
			storagetier.NewMemoryTier(storagetier.Memory),
		},
	})

	report := f.manager.RunDiagnostics()

	assert.Equal(t, []flows.Type{flows.TypeImplicit}, report.SupportedStrategies)
	assert.Equal(t, flows.TypeImplicit, report.OptimalStrategy)

	assert.False(t, report.Capabilities.SecureRandom)
	assert.True(t, report.Capabilities.Digest)
	assert.False(t, report.Capabilities.PersistentStorage)
	assert.False(t, report.Capabilities.SessionStorage, "no session tier configured")
	assert.True(t, report.Capabilities.MemoryStorage)
}

func TestRunDiagnosticsReflectsPreference(t *testing.T) {
	f := setupFlows(t, fixtureConfig{})
	f.manager.SetPreferredFlow(flows.TypeHybrid)

	report := f.manager.RunDiagnostics()
	assert.Equal(t, flows.TypeHybrid, report.PreferredFlow)
	assert.Equal(t, flows.TypeHybrid, report.OptimalStrategy)
}
