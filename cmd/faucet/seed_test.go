package main

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"tokenFaucet/internal/config"
	"tokenFaucet/internal/registry"
	"tokenFaucet/internal/storage/memory"
)

func TestSeedRegistryIsRerunnable(t *testing.T) {
	file, err := config.DecodeRegistryFile(strings.NewReader(`
chains:
  - name: Local
    chainId: 31337
    rpcUrl: http://127.0.0.1:8545
tokens:
  - name: TEST
    address: "0xAbCdEf0123456789aBcDeF0123456789AbCdEf01"
    chainId: 31337
    decimals: 6
    amount: "2.5"
`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	store := memory.NewStore()
	svc := registry.NewService(store, nil, "", nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := seedRegistry(ctx, svc, file, zap.NewNop()); err != nil {
			t.Fatalf("seed run %d: %v", i+1, err)
		}
	}

	tokens, err := svc.Tokens(ctx)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	if len(tokens) != 1 || tokens[0].DistributionAmount != "2500000" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
	if tokens[0].Address != "0xabcdef0123456789abcdef0123456789abcdef01" {
		t.Fatalf("address not normalized: %s", tokens[0].Address)
	}
}
