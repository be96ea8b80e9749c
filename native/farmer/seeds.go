package farmer

import (
	"fmt"

	"farmercore/core/pda"
	"farmercore/crypto"
)

// ProgramID is the deployed address of the marketplace program.
var ProgramID = crypto.MustPubkey("5NzjPYN5PUGNVkTRfh8naDqD7K3hTQbYyZb5YhtCArxV")

// Domain tags. Every entity kind derives its address from exactly one tag so
// records of different kinds can never collide.
var (
	SeedConfig    = []byte("config")
	SeedWarehouse = []byte("warehouse")
	SeedFarmer    = []byte("farmer")
	SeedCustomer  = []byte("customer")
	SeedWCustomer = []byte("wcustomer")
	SeedPack      = []byte("pack")
	SeedOffer     = []byte("offer")
	SeedOrder     = []byte("order")
	SeedEscrow    = []byte("escrow")
)

// SeedTags lists every reserved domain tag.
func SeedTags() [][]byte {
	return [][]byte{
		SeedConfig,
		SeedWarehouse,
		SeedFarmer,
		SeedCustomer,
		SeedWCustomer,
		SeedPack,
		SeedOffer,
		SeedOrder,
		SeedEscrow,
	}
}

// DeriveAddress locates the record identified by tag and optional key
// material under programID.
func DeriveAddress(programID crypto.Pubkey, tag []byte, keys ...[]byte) (crypto.Pubkey, uint8, error) {
	if len(tag) == 0 {
		return crypto.Pubkey{}, 0, fmt.Errorf("farmer: empty domain tag")
	}
	seeds := make([][]byte, 0, len(keys)+1)
	seeds = append(seeds, tag)
	seeds = append(seeds, keys...)
	addr, bump, err := pda.FindProgramAddress(seeds, programID)
	if err != nil {
		return crypto.Pubkey{}, 0, fmt.Errorf("farmer: derive %q address: %w", tag, err)
	}
	return addr, bump, nil
}

// ConfigAddress returns the singleton configuration address and its bump.
// The config record carries no key material beyond its tag.
func ConfigAddress(programID crypto.Pubkey) (crypto.Pubkey, uint8, error) {
	return DeriveAddress(programID, SeedConfig)
}
