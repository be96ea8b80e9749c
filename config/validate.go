package config

import (
	"fmt"
	"strings"

	gethmath "github.com/ethereum/go-ethereum/common/math"

	"farmercore/crypto"
)

// maxRentedSpace is the largest account the rent schedule must be able to
// price without overflowing.
const maxRentedSpace = 128 + 10<<20

// Validate checks that every address decodes and the scalar knobs are sane.
// Allowlist capacity is enforced by the program, not here.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir required")
	}
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("config: HTTPAddress required")
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown LogLevel %q", c.LogLevel)
	}
	if c.ProgramID != "" {
		if _, err := crypto.DecodePubkey(c.ProgramID); err != nil {
			return fmt.Errorf("config: ProgramID: %w", err)
		}
	}
	if c.Rent.LamportsPerByteYear != 0 && c.Rent.ExemptionThreshold == 0 {
		return fmt.Errorf("rent: ExemptionThreshold must be set with LamportsPerByteYear")
	}
	if perYear, overflow := gethmath.SafeMul(maxRentedSpace, c.Rent.LamportsPerByteYear); overflow {
		return fmt.Errorf("rent: LamportsPerByteYear %d overflows", c.Rent.LamportsPerByteYear)
	} else if _, overflow := gethmath.SafeMul(perYear, c.Rent.ExemptionThreshold); overflow {
		return fmt.Errorf("rent: ExemptionThreshold %d overflows", c.Rent.ExemptionThreshold)
	}
	if c.Telemetry.Enabled() && strings.TrimSpace(c.Telemetry.ServiceName) == "" {
		return fmt.Errorf("telemetry: ServiceName required")
	}
	seen := make(map[string]bool, len(c.Genesis))
	for i, alloc := range c.Genesis {
		if _, err := crypto.DecodePubkey(alloc.Address); err != nil {
			return fmt.Errorf("genesis[%d]: %w", i, err)
		}
		if seen[alloc.Address] {
			return fmt.Errorf("genesis[%d]: duplicate address %s", i, alloc.Address)
		}
		seen[alloc.Address] = true
	}
	if b := c.Bootstrap; b != nil {
		if strings.TrimSpace(b.AdminKeystore) == "" {
			return fmt.Errorf("bootstrap: AdminKeystore required")
		}
		if _, err := crypto.DecodePubkey(b.FeeWallet); err != nil {
			return fmt.Errorf("bootstrap: FeeWallet: %w", err)
		}
		for i, mint := range b.AllowedPaymentTokens {
			if _, err := crypto.DecodePubkey(mint); err != nil {
				return fmt.Errorf("bootstrap: AllowedPaymentTokens[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// ProgramPubkey returns the configured program ID, or fallback when unset.
func (c *Config) ProgramPubkey(fallback crypto.Pubkey) (crypto.Pubkey, error) {
	if c.ProgramID == "" {
		return fallback, nil
	}
	return crypto.DecodePubkey(c.ProgramID)
}

// FeeWalletPubkey decodes the bootstrap fee wallet.
func (b *Bootstrap) FeeWalletPubkey() (crypto.Pubkey, error) {
	return crypto.DecodePubkey(b.FeeWallet)
}

// AllowedMints decodes the bootstrap allowlist, preserving order.
func (b *Bootstrap) AllowedMints() ([]crypto.Pubkey, error) {
	out := make([]crypto.Pubkey, 0, len(b.AllowedPaymentTokens))
	for i, raw := range b.AllowedPaymentTokens {
		pk, err := crypto.DecodePubkey(raw)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: AllowedPaymentTokens[%d]: %w", i, err)
		}
		out = append(out, pk)
	}
	return out, nil
}

// GenesisAccounts decodes the genesis allocations.
func (c *Config) GenesisAccounts() (map[crypto.Pubkey]uint64, error) {
	out := make(map[crypto.Pubkey]uint64, len(c.Genesis))
	for i, alloc := range c.Genesis {
		pk, err := crypto.DecodePubkey(alloc.Address)
		if err != nil {
			return nil, fmt.Errorf("genesis[%d]: %w", i, err)
		}
		out[pk] = alloc.Lamports
	}
	return out, nil
}
