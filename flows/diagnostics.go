package flows

import (
	"unicode/utf8"

	"github.com/cropgenius/authflow/storagetier"
)

// Capabilities is a snapshot of the raw environment probes the strategies
// build their support checks from.
type Capabilities struct {
	SecureRandom      bool `json:"secureRandom"`
	Digest            bool `json:"digest"`
	PersistentStorage bool `json:"persistentStorage"`
	SessionStorage    bool `json:"sessionStorage"`
	MemoryStorage     bool `json:"memoryStorage"`
	URLPrimitives     bool `json:"urlPrimitives"`
	TextEncoding      bool `json:"textEncoding"`
}

// Diagnostics is a read-only report of the manager's current view of the
// environment. Producing it has no side effects.
type Diagnostics struct {
	SupportedStrategies []Type       `json:"supportedStrategies"`
	OptimalStrategy     Type         `json:"optimalStrategy,omitempty"`
	PreferredFlow       Type         `json:"preferredFlow"`
	Capabilities        Capabilities `json:"capabilities"`
}

// RunDiagnostics reports supported strategies, the current selection, the
// preference setting, and the raw capability flags.
func (m *Manager) RunDiagnostics() Diagnostics {
	diagnostics := Diagnostics{
		PreferredFlow: m.PreferredFlow(),
		Capabilities:  m.probeCapabilities(),
	}

	for _, strategy := range m.SupportedStrategies() {
		diagnostics.SupportedStrategies = append(diagnostics.SupportedStrategies, strategy.Name())
	}
	if optimal := m.OptimalStrategy(); optimal != nil {
		diagnostics.OptimalStrategy = optimal.Name()
	}
	return diagnostics
}

func (m *Manager) probeCapabilities() Capabilities {
	availability := m.state.Store().TierAvailability()
	crypto := m.state.Crypto()

	return Capabilities{
		SecureRandom:      crypto.RandomAvailable(),
		Digest:            crypto.DigestAvailable(),
		PersistentStorage: availability[storagetier.Persistent],
		SessionStorage:    availability[storagetier.Session],
		MemoryStorage:     availability[storagetier.Memory],
		URLPrimitives:     urlPrimitivesAvailable(),
		TextEncoding:      utf8.ValidString("probe"),
	}
}
