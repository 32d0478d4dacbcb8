package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tokenFaucet/internal/model"
	"tokenFaucet/internal/registry"
)

const maxBodyBytes = 1 << 20

type addChainRequest struct {
	Name    *string `json:"name"`
	ChainID *uint64 `json:"chainId"`
	RPCURL  string  `json:"rpcUrl"`
}

func (r addChainRequest) validate() (registry.AddChainRequest, error) {
	var missing []string
	if r.Name == nil || strings.TrimSpace(*r.Name) == "" {
		missing = append(missing, "name")
	}
	if r.ChainID == nil || *r.ChainID == 0 {
		missing = append(missing, "chainId")
	}
	if len(missing) > 0 {
		return registry.AddChainRequest{}, missingFields(model.ErrInvalidConfiguration, missing)
	}
	return registry.AddChainRequest{Name: *r.Name, ChainID: *r.ChainID, RPCURL: r.RPCURL}, nil
}

type addTokenRequest struct {
	Name         string  `json:"name"`
	TokenAddress *string `json:"tokenAddress"`
	Decimals     *uint8  `json:"decimals"`
	ChainID      *uint64 `json:"chainId"`
	Amount       *string `json:"amount"`
}

func (r addTokenRequest) validate() (registry.AddTokenRequest, error) {
	var missing []string
	if r.TokenAddress == nil || *r.TokenAddress == "" {
		missing = append(missing, "tokenAddress")
	}
	if r.ChainID == nil {
		missing = append(missing, "chainId")
	}
	if r.Amount == nil || *r.Amount == "" {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return registry.AddTokenRequest{}, missingFields(model.ErrInvalidConfiguration, missing)
	}
	return registry.AddTokenRequest{
		Name:         r.Name,
		TokenAddress: *r.TokenAddress,
		Decimals:     r.Decimals,
		ChainID:      *r.ChainID,
		Amount:       *r.Amount,
	}, nil
}

type requestTokensRequest struct {
	WalletAddress string `json:"walletAddress"`
}

func (r requestTokensRequest) validate() error {
	if strings.TrimSpace(r.WalletAddress) == "" {
		return fmt.Errorf("%w: no wallet address passed with request", model.ErrInvalidWallet)
	}
	return nil
}

func missingFields(kind error, fields []string) error {
	return fmt.Errorf("%w: missing %s", kind, strings.Join(fields, ", "))
}

// decodeBody decodes a single JSON object into dst, rejecting unknown fields
// and mistyped values.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: no body passed with request", model.ErrInvalidRequest)
		}
		return fmt.Errorf("%w: %v", model.ErrInvalidRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: body must hold a single JSON object", model.ErrInvalidRequest)
	}
	return nil
}
