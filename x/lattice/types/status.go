package types

// ModuleStatus is the ownership and pause view of one wired module.
type ModuleStatus struct {
	Address string `json:"address"`
	Owner   string `json:"owner"`
	Pauser  string `json:"pauser"`
	Paused  bool   `json:"paused"`
}
