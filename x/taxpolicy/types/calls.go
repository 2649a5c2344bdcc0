package types

// Methods accepted by the tax policy call router.
const (
	MethodSetPolicyURI       = "setPolicyURI"
	MethodSetAcknowledgement = "setAcknowledgement"
	MethodSetPolicy          = "setPolicy"
	MethodSetAcknowledger    = "setAcknowledger"
	MethodTransferOwnership  = "transferOwnership"
	MethodAcceptOwnership    = "acceptOwnership"
	MethodSetPauser          = "setPauser"
	MethodPause              = "pause"
	MethodUnpause            = "unpause"
)

type SetPolicyURIArgs struct {
	URI string `json:"uri"`
}

type SetAcknowledgementArgs struct {
	Text string `json:"text"`
}

type SetPolicyArgs struct {
	URI  string `json:"uri"`
	Text string `json:"text"`
}

type SetAcknowledgerArgs struct {
	Acknowledger string `json:"acknowledger"`
	Allowed      bool   `json:"allowed"`
}

type AddressArgs struct {
	Address string `json:"address"`
}
