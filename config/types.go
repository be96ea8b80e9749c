package config

// Rent mirrors the host rent schedule. Zero values select the runtime
// defaults.
type Rent struct {
	LamportsPerByteYear uint64 `toml:"LamportsPerByteYear"`
	ExemptionThreshold  uint64 `toml:"ExemptionThreshold"`
}

// Telemetry controls the OTLP exporters.
type Telemetry struct {
	ServiceName string `toml:"ServiceName"`
	Endpoint    string `toml:"Endpoint"`
	Insecure    bool   `toml:"Insecure"`
	// Headers is a comma-separated key=value list.
	Headers string `toml:"Headers"`
	Traces  bool   `toml:"Traces"`
	Metrics bool   `toml:"Metrics"`
}

// Enabled reports whether any exporter is switched on.
func (t Telemetry) Enabled() bool {
	return t.Traces || t.Metrics
}

// GenesisAlloc credits lamports to an address when the store is empty.
type GenesisAlloc struct {
	Address  string `toml:"Address"`
	Lamports uint64 `toml:"Lamports"`
}

// Bootstrap describes the config record the node creates on first start.
type Bootstrap struct {
	AdminKeystore        string   `toml:"AdminKeystore"`
	PassphraseEnv        string   `toml:"PassphraseEnv"`
	FeeWallet            string   `toml:"FeeWallet"`
	Paused               bool     `toml:"Paused"`
	AllowedPaymentTokens []string `toml:"AllowedPaymentTokens"`
}
