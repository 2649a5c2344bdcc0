package types

// Methods accepted by the fee pool call router.
const (
	MethodSetBurnPct           = "setBurnPct"
	MethodSetTreasury          = "setTreasury"
	MethodSetTreasuryAllowlist = "setTreasuryAllowlist"
	MethodSetContributor       = "setContributor"
	MethodTransferOwnership    = "transferOwnership"
	MethodSetPauser            = "setPauser"
	MethodPause                = "pause"
	MethodUnpause              = "unpause"
)

type SetBurnPctArgs struct {
	Pct uint32 `json:"pct"`
}

type AddressArgs struct {
	Address string `json:"address"`
}

type AllowlistArgs struct {
	Address string `json:"address"`
	Allowed bool   `json:"allowed"`
}
