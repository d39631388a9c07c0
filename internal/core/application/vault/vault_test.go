package vault_test

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/notewallet/internal/core/application/vault"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/pkg/securestore"
	inmemorystore "github.com/tdex-network/notewallet/pkg/securestore/inmemory"
	"github.com/tdex-network/notewallet/pkg/wallet"
)

const (
	password = "Sup3rS3cr3t!"
	mnemonic = "leave dice fine decrease dune ribbon ocean earn lunar account silver admit cheap fringe disorder trade because trade steak clock grace video jacket equal"
)

var (
	ctx      = context.Background()
	testOpts = vault.Options{Iterations: 100, LegacyIterations: 50}
)

func newStorage(t *testing.T) securestore.SecureStorage {
	storage, err := securestore.NewAdapter(inmemorystore.NewStore())
	require.NoError(t, err)
	return storage
}

func newVault(t *testing.T) (*vault.Vault, securestore.SecureStorage) {
	storage := newStorage(t)
	err := vault.Spawn(ctx, storage, password, mnemonic, true, testOpts)
	require.NoError(t, err)

	v, err := vault.Setup(ctx, storage, password, testOpts)
	require.NoError(t, err)
	return v, storage
}

func TestSpawnAndSetup(t *testing.T) {
	storage := newStorage(t)

	exists, err := vault.IsExist(ctx, storage)
	require.NoError(t, err)
	require.False(t, exists)

	err = vault.Spawn(ctx, storage, password, "", false, testOpts)
	require.NoError(t, err)

	exists, err = vault.IsExist(ctx, storage)
	require.NoError(t, err)
	require.True(t, exists)

	err = vault.Spawn(ctx, storage, password, "", false, testOpts)
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	v, err := vault.Setup(ctx, storage, password, testOpts)
	require.NoError(t, err)

	state, err := v.State(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusReady, state.Status)
	require.Len(t, state.Accounts, 1)
	require.Equal(t, uint32(0), state.Accounts[0].HDIndex)
	require.Equal(t, "Private Account 1", state.Accounts[0].Name)
	require.Equal(t, state.Accounts[0].PublicKey, state.CurrentAccountPublicKey)
	require.False(t, state.OwnMnemonic)
	require.True(t, state.IsConsistent())

	words, err := v.RevealMnemonic(ctx, password)
	require.NoError(t, err)
	require.True(t, wallet.IsMnemonicValid(words))
}

func TestFailingSpawnAndSetup(t *testing.T) {
	storage := newStorage(t)

	err := vault.Spawn(ctx, storage, "", mnemonic, true, testOpts)
	require.ErrorIs(t, err, domain.ErrNullPassword)

	err = vault.Spawn(ctx, storage, password, "notaword", true, testOpts)
	require.Error(t, err)

	_, err = vault.Setup(ctx, storage, password, testOpts)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	err = vault.Spawn(ctx, storage, password, mnemonic, true, testOpts)
	require.NoError(t, err)

	_, err = vault.Setup(ctx, storage, "wrong password", testOpts)
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
}

func TestAccounts(t *testing.T) {
	v, _ := newVault(t)

	accounts, err := v.CreateHDAccount(ctx, domain.WalletTypeOnChain, "")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, "Public Account 2", accounts[1].Name)
	require.Equal(t, uint32(1), accounts[1].HDIndex)
	require.True(t, accounts[1].IsPublic)

	w, err := wallet.NewWalletFromMnemonic(wallet.NewWalletFromMnemonicOpts{
		Mnemonic: mnemonic,
	})
	require.NoError(t, err)
	expected, err := w.DeriveAccount(1)
	require.NoError(t, err)
	require.Equal(t, expected.PublicKey(), accounts[1].PublicKey)

	accounts, err = v.CreateHDAccount(ctx, domain.WalletTypeOffChain, " savings ")
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	require.Equal(t, "savings", accounts[2].Name)
	require.Equal(t, uint32(2), accounts[2].HDIndex)

	_, err = v.CreateHDAccount(ctx, domain.WalletType("unknown"), "")
	require.ErrorIs(t, err, domain.ErrInvalidWalletType)

	accounts, err = v.EditAccountName(ctx, accounts[1].PublicKey, "renamed")
	require.NoError(t, err)
	require.Equal(t, "renamed", accounts[1].Name)

	_, err = v.EditAccountName(ctx, accounts[1].PublicKey, "  ")
	require.ErrorIs(t, err, domain.ErrInvalidAccountName)
	_, err = v.EditAccountName(ctx, "unknown", "name")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	current, err := v.SetCurrentAccount(ctx, accounts[2].PublicKey)
	require.NoError(t, err)
	require.Equal(t, accounts[2], *current)

	_, err = v.SetCurrentAccount(ctx, "unknown")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = v.RemoveAccount(ctx, accounts[2].PublicKey, "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidPassword)

	remaining, err := v.RemoveAccount(ctx, accounts[2].PublicKey, password)
	require.NoError(t, err)
	require.Len(t, remaining, 2)

	current, err = v.GetCurrentAccount(ctx)
	require.NoError(t, err)
	require.Equal(t, remaining[0].PublicKey, current.PublicKey)

	// A removed index is never reused.
	accounts, err = v.CreateHDAccount(ctx, domain.WalletTypeOffChain, "")
	require.NoError(t, err)
	require.Equal(t, uint32(3), accounts[2].HDIndex)
	require.Equal(t, "Private Account 4", accounts[2].Name)

	for _, acc := range accounts[1:] {
		_, err = v.RemoveAccount(ctx, acc.PublicKey, password)
		require.NoError(t, err)
	}
	_, err = v.RemoveAccount(ctx, accounts[0].PublicKey, password)
	require.ErrorIs(t, err, domain.ErrLastAccount)
}

func TestImportAccount(t *testing.T) {
	v, _ := newVault(t)

	other, err := wallet.NewWallet(wallet.NewWalletOpts{})
	require.NoError(t, err)
	otherAcc, err := other.DeriveAccount(5)
	require.NoError(t, err)

	accounts, err := v.ImportAccount(
		ctx, otherAcc.PrivateKey(), domain.WalletTypeOffChain, "",
	)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.True(t, accounts[1].Imported)
	require.Equal(t, otherAcc.PublicKey(), accounts[1].PublicKey)
	require.Equal(t, "Private Account 2", accounts[1].Name)

	_, err = v.ImportAccount(
		ctx, otherAcc.PrivateKey(), domain.WalletTypeOffChain, "",
	)
	require.ErrorIs(t, err, domain.ErrAccountAlreadyExists)

	_, err = v.ImportAccount(ctx, "zz", domain.WalletTypeOffChain, "")
	require.ErrorIs(t, err, wallet.ErrInvalidPrivateKey)

	accounts, err = v.ImportMnemonicAccount(
		ctx, other.Mnemonic(), "m/44'/0'/5'/0'", domain.WalletTypeOnChain, "mine",
	)
	require.ErrorIs(t, err, domain.ErrAccountAlreadyExists)
	require.Nil(t, accounts)

	accounts, err = v.ImportMnemonicAccount(
		ctx, other.Mnemonic(), "", domain.WalletTypeOnChain, "mine",
	)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	require.Equal(t, "mine", accounts[2].Name)

	_, err = v.ImportMnemonicAccount(
		ctx, other.Mnemonic(), "m/44'/", domain.WalletTypeOnChain, "",
	)
	require.Error(t, err)

	// Imported accounts don't move the HD index.
	accounts, err = v.CreateHDAccount(ctx, domain.WalletTypeOffChain, "")
	require.NoError(t, err)
	require.Equal(t, uint32(1), accounts[3].HDIndex)
}

func TestSignAndSecrets(t *testing.T) {
	v, _ := newVault(t)

	current, err := v.GetCurrentAccount(ctx)
	require.NoError(t, err)

	inputs := hex.EncodeToString([]byte("signing inputs"))
	sig, err := v.SignTransaction(ctx, current.PublicKey, inputs)
	require.NoError(t, err)

	sigBytes, err := hex.DecodeString(sig)
	require.NoError(t, err)
	ok, err := wallet.VerifySignature(
		current.PublicKey, []byte("signing inputs"), sigBytes,
	)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = v.SignTransaction(ctx, current.PublicKey, "not hex")
	require.Error(t, err)
	_, err = v.SignTransaction(ctx, "unknown", inputs)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	secret, err := v.GetAuthSecretKey(ctx, "dapp.example")
	require.NoError(t, err)
	again, err := v.GetAuthSecretKey(ctx, "dapp.example")
	require.NoError(t, err)
	require.Equal(t, secret, again)
	other, err := v.GetAuthSecretKey(ctx, "other.example")
	require.NoError(t, err)
	require.NotEqual(t, secret, other)

	viewKey, err := v.RevealViewKey(ctx, current.PublicKey, password)
	require.NoError(t, err)
	_, err = v.RevealViewKey(ctx, current.PublicKey, "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidPassword)

	viewKeys, err := v.ViewKeys(ctx)
	require.NoError(t, err)
	require.Len(t, viewKeys, 1)
	require.Equal(t, viewKey, viewKeys[0].ViewKey)
	address, err := wallet.AddressFromViewKey(viewKey)
	require.NoError(t, err)
	require.Equal(t, address, viewKeys[0].Address)
}

func TestSettings(t *testing.T) {
	v, _ := newVault(t)

	settings, err := v.FetchSettings(ctx)
	require.NoError(t, err)
	require.Empty(t, settings)

	settings, err = v.UpdateSettings(ctx, domain.Settings{
		"currency": "usd", "hideBalance": true,
	})
	require.NoError(t, err)
	require.Equal(t, "usd", settings["currency"])

	settings, err = v.UpdateSettings(ctx, domain.Settings{"currency": "eur"})
	require.NoError(t, err)
	require.Equal(t, "eur", settings["currency"])
	require.Equal(t, true, settings["hideBalance"])

	stored, err := v.FetchSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, settings, stored)
}

func TestChangePassword(t *testing.T) {
	v, storage := newVault(t)

	_, err := v.CreateHDAccount(ctx, domain.WalletTypeOnChain, "")
	require.NoError(t, err)

	err = v.ChangePassword(ctx, "wrong", "next")
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
	err = v.ChangePassword(ctx, password, "")
	require.ErrorIs(t, err, domain.ErrNullPassword)

	err = v.ChangePassword(ctx, password, "n3wP4ssw0rd")
	require.NoError(t, err)

	accounts, err := v.FetchAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	_, err = vault.Setup(ctx, storage, password, testOpts)
	require.ErrorIs(t, err, domain.ErrInvalidPassword)

	reopened, err := vault.Setup(ctx, storage, "n3wP4ssw0rd", testOpts)
	require.NoError(t, err)
	words, err := reopened.RevealMnemonic(ctx, "n3wP4ssw0rd")
	require.NoError(t, err)
	require.Equal(t, mnemonic, words)
}

func TestLock(t *testing.T) {
	v, _ := newVault(t)

	require.False(t, v.IsLocked())
	v.Lock()
	require.True(t, v.IsLocked())
	v.Lock()

	_, err := v.FetchAccounts(ctx)
	require.ErrorIs(t, err, domain.ErrLocked)
	_, err = v.CreateHDAccount(ctx, domain.WalletTypeOnChain, "")
	require.ErrorIs(t, err, domain.ErrLocked)
	_, err = v.SignTransaction(ctx, "pub", "00")
	require.ErrorIs(t, err, domain.ErrLocked)
	_, err = v.RevealMnemonic(ctx, password)
	require.ErrorIs(t, err, domain.ErrLocked)
	_, err = v.State(ctx)
	require.ErrorIs(t, err, domain.ErrLocked)
}

func TestAddress(t *testing.T) {
	v, _ := newVault(t)

	current, err := v.GetCurrentAccount(ctx)
	require.NoError(t, err)

	address, err := v.Address(ctx, current.PublicKey)
	require.NoError(t, err)

	viewKeys, err := v.ViewKeys(ctx)
	require.NoError(t, err)
	require.Equal(t, viewKeys[0].Address, address)

	_, err = v.Address(ctx, "unknown")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}
