package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/notewallet/internal/core/domain"
)

func TestFrontProjection(t *testing.T) {
	accounts := []domain.Account{
		{PublicKey: "pk0", Name: "Private Account 1", WalletType: domain.WalletTypeOffChain},
		{PublicKey: "pk1", Name: "Public Account 2", IsPublic: true, WalletType: domain.WalletTypeOnChain, HDIndex: 1},
	}
	state := domain.WalletState{
		Status:                  domain.StatusReady,
		Accounts:                accounts,
		CurrentAccountPublicKey: "pk1",
		Settings:                domain.Settings{"theme": "dark"},
		OwnMnemonic:             true,
	}
	require.True(t, state.IsConsistent())

	front := state.Front()
	require.Equal(t, domain.StatusReady, front.Status)
	require.Equal(t, accounts, front.Accounts)
	require.NotNil(t, front.CurrentAccount)
	require.Equal(t, "pk1", front.CurrentAccount.PublicKey)
	require.Equal(t, "dark", front.Settings["theme"])
	require.True(t, front.OwnMnemonic)

	// The projection doesn't share memory with the state.
	front.Accounts[0].Name = "changed"
	front.Settings["theme"] = "light"
	require.Equal(t, "Private Account 1", state.Accounts[0].Name)
	require.Equal(t, "dark", state.Settings["theme"])

	for _, status := range []domain.Status{domain.StatusLocked, domain.StatusIdle} {
		state.Status = status
		front := state.Front()
		require.Equal(t, status, front.Status)
		require.Empty(t, front.Accounts)
		require.Nil(t, front.CurrentAccount)
		require.Empty(t, front.Settings)
	}
}

func TestIsConsistent(t *testing.T) {
	tests := []struct {
		name  string
		state domain.WalletState
		ok    bool
	}{
		{"idle", domain.WalletState{Status: domain.StatusIdle}, true},
		{"locked", domain.WalletState{Status: domain.StatusLocked}, true},
		{"ready without accounts", domain.WalletState{Status: domain.StatusReady}, false},
		{
			"ready with unknown current account",
			domain.WalletState{
				Status:                  domain.StatusReady,
				Accounts:                []domain.Account{{PublicKey: "pk"}},
				CurrentAccountPublicKey: "other",
			},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.ok, tt.state.IsConsistent())
		})
	}
}

func TestSettingsMerge(t *testing.T) {
	settings := domain.Settings{"a": 1, "b": map[string]interface{}{"x": 1}}
	merged := settings.Merge(domain.Settings{"b": map[string]interface{}{"y": 2}, "c": true})

	require.Equal(t, domain.Settings{
		"a": 1,
		"b": map[string]interface{}{"y": 2},
		"c": true,
	}, merged)
	require.Len(t, settings, 2)
}

func TestDefaultAccountName(t *testing.T) {
	require.Equal(t, "Public Account 2", domain.DefaultAccountName(domain.WalletTypeOnChain, 2))
	require.Equal(t, "Private Account 1", domain.DefaultAccountName(domain.WalletTypeOffChain, 1))
}
