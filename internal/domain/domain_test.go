package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddressNormalizesCase(t *testing.T) {
	addr, err := ParseAddress("0xAbCdEf0123456789aBcDeF0123456789ABCDEF01")
	require.NoError(t, err)
	assert.Equal(t, Address("0xabcdef0123456789abcdef0123456789abcdef01"), addr)
}

func TestParseAddressRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "missing prefix", raw: "abcdef0123456789abcdef0123456789abcdef01"},
		{name: "too short", raw: "0xabcdef"},
		{name: "too long", raw: "0xabcdef0123456789abcdef0123456789abcdef0123"},
		{name: "non-hex digit", raw: "0xabcdef0123456789abcdef0123456789abcdefg1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.raw)
			require.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
}

func TestAddressShort(t *testing.T) {
	addr := Address("0xabcdef0123456789abcdef0123456789abcdef01")
	assert.Equal(t, "0xabcd..ef01", addr.Short())
}

func TestParseSlotSelection(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    SlotSelection
		wantErr bool
	}{
		{name: "all keyword", raw: "all", want: SlotSelection{All: true}},
		{name: "all uppercase", raw: "ALL", want: SlotSelection{All: true}},
		{name: "empty means all", raw: "", want: SlotSelection{All: true}},
		{name: "single id", raw: "42", want: SlotSelection{IDs: []SlotID{42}}},
		{name: "list", raw: "3,1,2", want: SlotSelection{IDs: []SlotID{1, 2, 3}}},
		{name: "range", raw: "10-12", want: SlotSelection{IDs: []SlotID{10, 11, 12}}},
		{name: "mixed with duplicates", raw: "5,4-6", want: SlotSelection{IDs: []SlotID{4, 5, 6}}},
		{name: "reversed range", raw: "6-4", wantErr: true},
		{name: "trailing comma", raw: "1,", wantErr: true},
		{name: "negative id", raw: "-1", wantErr: true},
		{name: "garbage", raw: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSlotSelection(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidSlotSelection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInstanceNameRoundTrip(t *testing.T) {
	name := InstanceName(1234, "mainnet", "UNISWAPV2", "")
	assert.Equal(t, "slot-node-1234-mainnet-uniswapv2", name)

	parsed, err := ParseInstanceName(name)
	require.NoError(t, err)
	assert.Equal(t, ParsedInstanceName{Slot: 1234, Chain: "mainnet", Market: "uniswapv2"}, parsed)
}

func TestInstanceNameRoundTripWithRole(t *testing.T) {
	name := InstanceName(7, "devnet", "aavev3", "collector")
	assert.Equal(t, "slot-node-7-devnet-aavev3-collector", name)

	parsed, err := ParseInstanceName(name)
	require.NoError(t, err)
	assert.Equal(t, ParsedInstanceName{Slot: 7, Chain: "devnet", Market: "aavev3", Role: "collector"}, parsed)
}

func TestParseInstanceNameRejectsForeignNames(t *testing.T) {
	tests := []struct {
		name     string
		resource string
	}{
		{name: "unrelated container", resource: "nginx-proxy"},
		{name: "missing segments", resource: "slot-node-55-mainnet"},
		{name: "non-numeric slot", resource: "slot-node-abc-mainnet-uniswapv2"},
		{name: "too many segments", resource: "slot-node-1-mainnet-uniswapv2-collector-extra"},
		{name: "empty market", resource: "slot-node-1-mainnet-"},
		{name: "prefix only", resource: "slot-node"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInstanceName(tt.resource)
			require.ErrorIs(t, err, ErrInvalidInstanceName)
		})
	}
}

func TestConfigBundleValidateReportsAllMissingFields(t *testing.T) {
	err := ConfigBundle{SourceRPCURL: "https://rpc.example.com"}.Validate()
	require.ErrorIs(t, err, ErrConfigIncomplete)
	assert.Contains(t, err.Error(), "wallet_address")
	assert.Contains(t, err.Error(), "signer_address")
	assert.Contains(t, err.Error(), "signer_key_ref")
	assert.Contains(t, err.Error(), "chain_rpc_url")
	assert.Contains(t, err.Error(), "image")
	assert.NotContains(t, err.Error(), "source_rpc_url")
}

func TestConfigBundleValidateCompleteBundle(t *testing.T) {
	bundle := ConfigBundle{
		WalletAddress: "0xabcdef0123456789abcdef0123456789abcdef01",
		SignerAddress: "0xabcdef0123456789abcdef0123456789abcdef02",
		SignerKeyRef:  "keyring://signer",
		SourceRPCURL:  "https://eth.example.com",
		ChainRPCURL:   "https://rpc.example.com",
		Image:         "slotwise/slot-node:latest",
	}
	require.NoError(t, bundle.Validate())
}

func TestFormatSlotIDs(t *testing.T) {
	assert.Equal(t, "-", FormatSlotIDs(nil))
	assert.Equal(t, "1, 2, 30", FormatSlotIDs([]SlotID{1, 2, 30}))
}
