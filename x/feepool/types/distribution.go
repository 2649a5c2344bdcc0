package types

import sdkmath "cosmossdk.io/math"

// Distribution is the outcome of one Distribute call.
type Distribution struct {
	Burned      sdkmath.Int `json:"burned"`
	Distributed sdkmath.Int `json:"distributed"`
	Treasury    string      `json:"treasury"`
}
