package model

import "time"

// ClaimRecord marks an IP address and a wallet as having claimed.
type ClaimRecord struct {
	ID            string    `json:"id"`
	IPAddress     string    `json:"ipAddress"`
	WalletAddress string    `json:"walletAddress"`
	CreatedAt     time.Time `json:"createdAt"`
}
