package model

// TokenConfig is a registered token and the amount handed out per claim.
// Address is stored lowercased; DistributionAmount is a base-10 integer in the token's smallest unit.
type TokenConfig struct {
	Name               string `json:"name"`
	Address            string `json:"address"`
	ChainID            uint64 `json:"chainId"`
	DistributionAmount string `json:"distributionAmount"`
}
