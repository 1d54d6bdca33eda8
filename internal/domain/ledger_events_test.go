package domain_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/sharehub/sharehub/internal/domain"
)

func TestLedgerEventValid(t *testing.T) {
	alice := common.HexToAddress("0x01")
	bob := common.HexToAddress("0x02")
	zero := common.Address{}

	tests := []struct {
		name  string
		event domain.LedgerEvent
		want  bool
	}{
		{
			name:  "valid mint",
			event: domain.LedgerEvent{Type: domain.LedgerEventMinted, TokenID: 1, To: &alice, Amount: 100, TotalShares: 100},
			want:  true,
		},
		{
			name:  "mint without recipient",
			event: domain.LedgerEvent{Type: domain.LedgerEventMinted, TokenID: 1, Amount: 100, TotalShares: 100},
			want:  false,
		},
		{
			name:  "mint to zero address",
			event: domain.LedgerEvent{Type: domain.LedgerEventMinted, TokenID: 1, To: &zero, Amount: 100, TotalShares: 100},
			want:  false,
		},
		{
			name:  "mint without total shares",
			event: domain.LedgerEvent{Type: domain.LedgerEventMinted, TokenID: 1, To: &alice, Amount: 100},
			want:  false,
		},
		{
			name:  "valid transfer",
			event: domain.LedgerEvent{Type: domain.LedgerEventTransferred, TokenID: 1, From: &alice, To: &bob, Amount: 10},
			want:  true,
		},
		{
			name:  "transfer without accounts",
			event: domain.LedgerEvent{Type: domain.LedgerEventTransferred, TokenID: 1, Amount: 10},
			want:  false,
		},
		{
			name:  "zero amount",
			event: domain.LedgerEvent{Type: domain.LedgerEventTransferred, TokenID: 1, From: &alice, To: &bob, Amount: 0},
			want:  false,
		},
		{
			name:  "unknown type",
			event: domain.LedgerEvent{Type: "burned", TokenID: 1, From: &alice, Amount: 10},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Valid())
		})
	}
}
