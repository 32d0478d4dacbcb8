package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenFaucet/internal/model"
	"tokenFaucet/internal/storage"
	"tokenFaucet/internal/storage/memory"
)

type fakeDecimals struct {
	value uint8
	err   error
	calls int
}

func (f *fakeDecimals) TokenDecimals(context.Context, model.ChainConfig, common.Address) (uint8, error) {
	f.calls++
	return f.value, f.err
}

func newTestService(t *testing.T, decimals DecimalsSource) *Service {
	t.Helper()
	svc := NewService(memory.NewStore(), decimals, "http://default.local:8545", nil)
	_, err := svc.AddChain(context.Background(), AddChainRequest{Name: "Local", ChainID: 31337, RPCURL: "http://127.0.0.1:8545"})
	require.NoError(t, err)
	return svc
}

func u8(v uint8) *uint8 { return &v }

func TestAddChainRejectsDuplicate(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.AddChain(context.Background(), AddChainRequest{Name: "Again", ChainID: 31337, RPCURL: "http://other"})
	assert.ErrorIs(t, err, ErrChainExists)
}

func TestAddChainDefaultsRPC(t *testing.T) {
	svc := newTestService(t, nil)
	chainCfg, err := svc.AddChain(context.Background(), AddChainRequest{Name: "Second", ChainID: 2})
	require.NoError(t, err)
	assert.Equal(t, "http://default.local:8545", chainCfg.RPCURL)
}

func TestAddChainValidation(t *testing.T) {
	svc := newTestService(t, nil)
	cases := []AddChainRequest{
		{Name: "", ChainID: 5, RPCURL: "http://x"},
		{Name: "no id", RPCURL: "http://x"},
		{Name: "bad url", ChainID: 5, RPCURL: "ftp://x"},
	}
	for _, req := range cases {
		_, err := svc.AddChain(context.Background(), req)
		assert.ErrorIs(t, err, model.ErrInvalidConfiguration, "%+v", req)
	}
}

func TestAddTokenNormalizesAddress(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	token, err := svc.AddToken(ctx, AddTokenRequest{
		Name:         "Test",
		TokenAddress: "0xAbCdEf0123456789aBcDeF0123456789AbCdEf01",
		Decimals:     u8(18),
		ChainID:      31337,
		Amount:       "1",
	})
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", token.Address)
	assert.Equal(t, "1000000000000000000", token.DistributionAmount)

	_, err = svc.AddToken(ctx, AddTokenRequest{
		Name:         "Test",
		TokenAddress: "0xABCDEF0123456789ABCDEF0123456789ABCDEF01",
		Decimals:     u8(18),
		ChainID:      31337,
		Amount:       "2",
	})
	assert.ErrorIs(t, err, ErrTokenExists)

	tokens, err := svc.Tokens(ctx)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)

	for _, variant := range []string{
		"0xabcdef0123456789abcdef0123456789abcdef01",
		"0xABCDEF0123456789ABCDEF0123456789ABCDEF01",
		"0xAbCdEf0123456789aBcDeF0123456789AbCdEf01",
	} {
		found, err := svc.Token(ctx, variant, 31337)
		require.NoError(t, err)
		assert.Equal(t, token, found)
	}
}

func TestAddTokenReadsDecimalsFromContract(t *testing.T) {
	source := &fakeDecimals{value: 6}
	svc := newTestService(t, source)

	token, err := svc.AddToken(context.Background(), AddTokenRequest{
		Name:         "USDC",
		TokenAddress: "0x1111111111111111111111111111111111111111",
		ChainID:      31337,
		Amount:       "2.5",
	})
	require.NoError(t, err)
	assert.Equal(t, "2500000", token.DistributionAmount)
	assert.Equal(t, 1, source.calls)
}

func TestAddTokenRejectsInvalidInput(t *testing.T) {
	source := &fakeDecimals{err: errors.New("execution reverted")}
	svc := newTestService(t, source)
	ctx := context.Background()

	cases := []AddTokenRequest{
		{TokenAddress: "0x123", Decimals: u8(18), ChainID: 31337, Amount: "1"},
		{TokenAddress: "0x1111111111111111111111111111111111111111", Decimals: u8(18), ChainID: 99, Amount: "1"},
		{TokenAddress: "0x1111111111111111111111111111111111111111", Decimals: u8(2), ChainID: 31337, Amount: "1.001"},
		{TokenAddress: "0x1111111111111111111111111111111111111111", Decimals: u8(18), ChainID: 31337, Amount: "0"},
		{TokenAddress: "0x1111111111111111111111111111111111111111", Decimals: u8(18), ChainID: 31337, Amount: "120000000000000000000000000000000000000000000000000000000000"},
		{TokenAddress: "0x1111111111111111111111111111111111111111", ChainID: 31337, Amount: "1"},
	}
	for _, req := range cases {
		_, err := svc.AddToken(ctx, req)
		assert.ErrorIs(t, err, model.ErrInvalidConfiguration, "%+v", req)
	}

	_, err := svc.Token(ctx, "0x1111111111111111111111111111111111111111", 31337)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
