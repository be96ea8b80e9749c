package farmer

import (
	"strconv"

	"farmercore/core/types"
	"farmercore/crypto"
)

const EventTypeConfigInitialized = "farmer.config.initialized"

// ConfigInitialized is emitted once, when the config record is created.
type ConfigInitialized struct {
	Address              crypto.Pubkey
	Bump                 uint8
	Admin                crypto.Pubkey
	FeeWallet            crypto.Pubkey
	Paused               bool
	AllowedPaymentTokens int
}

func (ConfigInitialized) EventType() string { return EventTypeConfigInitialized }

func (e ConfigInitialized) Event() *types.Event {
	return types.NewEvent(EventTypeConfigInitialized).
		With("address", e.Address.String()).
		With("bump", strconv.FormatUint(uint64(e.Bump), 10)).
		With("admin", e.Admin.String()).
		With("feeWallet", e.FeeWallet.String()).
		With("paused", strconv.FormatBool(e.Paused)).
		With("allowedPaymentTokens", strconv.Itoa(e.AllowedPaymentTokens))
}
