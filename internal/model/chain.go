package model

// ChainConfig is a registered chain the faucet distributes on.
type ChainConfig struct {
	Name    string `json:"name"`
	ChainID uint64 `json:"chainId"`
	RPCURL  string `json:"rpcUrl"`
}
