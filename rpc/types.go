package rpc

import (
	"farmercore/crypto"
	"farmercore/native/farmer"
)

// ConfigResponse is the JSON view of the config record.
type ConfigResponse struct {
	Address              string   `json:"address"`
	Bump                 uint8    `json:"bump"`
	Admin                string   `json:"admin"`
	FeeWallet            string   `json:"feeWallet"`
	Paused               bool     `json:"paused"`
	AllowedPaymentTokens []string `json:"allowedPaymentTokens"`
	Slot                 uint64   `json:"slot"`
}

type AddressResponse struct {
	ProgramID string   `json:"programId"`
	Address   string   `json:"address"`
	Bump      uint8    `json:"bump"`
	Seeds     []string `json:"seeds"`
}

// ErrorResponse carries the program error code when one applies.
type ErrorResponse struct {
	Code    uint32 `json:"code,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

func newConfigResponse(addr crypto.Pubkey, bump uint8, cfg *farmer.ProgramConfig, slot uint64) ConfigResponse {
	mints := make([]string, len(cfg.AllowedPaymentTokens))
	for i, mint := range cfg.AllowedPaymentTokens {
		mints[i] = mint.String()
	}
	return ConfigResponse{
		Address:              addr.String(),
		Bump:                 bump,
		Admin:                cfg.Admin.String(),
		FeeWallet:            cfg.FeeWallet.String(),
		Paused:               cfg.Paused,
		AllowedPaymentTokens: mints,
		Slot:                 slot,
	}
}
