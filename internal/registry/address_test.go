package registry

import (
	"errors"
	"testing"

	"tokenFaucet/internal/model"
)

func TestNormalizeAddress(t *testing.T) {
	got, err := NormalizeAddress("0xAbCdEf0123456789aBcDeF0123456789AbCdEf01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0xabcdef0123456789abcdef0123456789abcdef01" {
		t.Fatalf("not lowercased: %s", got)
	}
	if _, err := NormalizeAddress("0x1234"); err == nil {
		t.Fatalf("expected error for short address")
	}
}

func TestNormalizeWallet(t *testing.T) {
	valid := []string{
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED",
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	}
	for _, input := range valid {
		got, err := NormalizeWallet(input)
		if err != nil {
			t.Fatalf("%s: %v", input, err)
		}
		if got != "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed" {
			t.Fatalf("%s normalized to %s", input, got)
		}
	}

	invalid := []string{"", "not-an-address", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD"}
	for _, input := range invalid {
		if _, err := NormalizeWallet(input); !errors.Is(err, model.ErrInvalidWallet) {
			t.Fatalf("%q: expected invalid wallet, got %v", input, err)
		}
	}
}
