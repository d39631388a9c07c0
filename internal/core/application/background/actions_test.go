package background_test

import (
	"context"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/notewallet/internal/core/application/background"
	"github.com/tdex-network/notewallet/internal/core/application/vault"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/pkg/securestore"
	inmemorystore "github.com/tdex-network/notewallet/pkg/securestore/inmemory"
	"github.com/tdex-network/notewallet/pkg/wallet"
)

const (
	password = "Password123!"
	mnemonic = "leave dice fine decrease dune ribbon ocean earn lunar account silver admit cheap fringe disorder trade because trade steak clock grace video jacket equal"
	network  = "testnet"
)

var ctx = context.Background()

func newActions(t *testing.T) (*background.Actions, *background.Store, *mockSessionRepository) {
	storage, err := securestore.NewAdapter(inmemorystore.NewStore())
	require.NoError(t, err)

	store, err := background.NewStore(
		storage, vault.Options{Iterations: 100, LegacyIterations: 50},
	)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	sessions := &mockSessionRepository{}
	actions, err := background.NewActions(store, sessions, []string{network})
	require.NoError(t, err)
	return actions, store, sessions
}

func TestNewActionsMissingDeps(t *testing.T) {
	storage, err := securestore.NewAdapter(inmemorystore.NewStore())
	require.NoError(t, err)
	store, err := background.NewStore(storage, vault.Options{})
	require.NoError(t, err)
	defer store.Close()

	_, err = background.NewActions(nil, &mockSessionRepository{}, []string{network})
	require.Error(t, err)
	_, err = background.NewActions(store, nil, []string{network})
	require.Error(t, err)
	_, err = background.NewActions(store, &mockSessionRepository{}, nil)
	require.Error(t, err)

	_, err = background.NewStore(nil, vault.Options{})
	require.Error(t, err)
}

func TestWalletLifecycle(t *testing.T) {
	actions, store, _ := newActions(t)

	events, unsubscribe := store.Subscribe()
	defer unsubscribe()

	require.NoError(t, actions.Init(ctx))
	front, err := actions.GetFrontState(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusIdle, front.Status)
	<-events

	// Illegal transitions from Idle.
	require.ErrorIs(t, actions.Lock(ctx), domain.ErrInvalidState)
	require.ErrorIs(t, actions.Unlock(ctx, password), domain.ErrInvalidState)
	_, err = actions.SignTransaction(ctx, "pub", "00")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	err = actions.RegisterNewWallet(ctx, password, mnemonic, true)
	require.NoError(t, err)
	event := <-events
	require.Equal(t, domain.StatusReady, event.State.Status)

	front, err = actions.GetFrontState(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusReady, front.Status)
	require.Len(t, front.Accounts, 1)
	require.Equal(t, uint32(0), front.Accounts[0].HDIndex)
	require.Equal(t, front.Accounts[0], *front.CurrentAccount)
	require.True(t, front.OwnMnemonic)
	accounts := front.Accounts

	err = actions.RegisterNewWallet(ctx, password, mnemonic, true)
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	require.ErrorIs(t, actions.Unlock(ctx, password), domain.ErrInvalidState)

	require.NoError(t, actions.Lock(ctx))
	front, err = actions.GetFrontState(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusLocked, front.Status)
	require.Empty(t, front.Accounts)
	require.Nil(t, front.CurrentAccount)
	require.ErrorIs(t, actions.Lock(ctx), domain.ErrInvalidState)

	_, err = actions.SignTransaction(ctx, accounts[0].PublicKey, "00")
	require.ErrorIs(t, err, domain.ErrLocked)

	start := time.Now()
	err = actions.Unlock(ctx, "wrong password")
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
	require.GreaterOrEqual(t, time.Since(start), background.UnlockFailureDelay)

	front, err = actions.GetFrontState(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusLocked, front.Status)

	require.NoError(t, actions.Unlock(ctx, password))
	front, err = actions.GetFrontState(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusReady, front.Status)
	require.Equal(t, accounts, front.Accounts)
}

func TestAccountActions(t *testing.T) {
	actions, _, sessions := newActions(t)
	require.NoError(t, actions.RegisterNewWallet(ctx, password, mnemonic, false))

	accounts, err := actions.CreateHDAccount(ctx, domain.WalletTypeOffChain, "")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, "Private Account 2", accounts[1].Name)
	require.Equal(t, uint32(1), accounts[1].HDIndex)

	_, err = actions.CreateHDAccount(
		ctx, domain.WalletTypeOffChain, "a name way too long for an account",
	)
	require.ErrorIs(t, err, domain.ErrInvalidAccountName)

	accounts, err = actions.EditAccount(ctx, accounts[1].PublicKey, "savings")
	require.NoError(t, err)
	require.Equal(t, "savings", accounts[1].Name)
	_, err = actions.EditAccount(ctx, accounts[1].PublicKey, "")
	require.ErrorIs(t, err, domain.ErrInvalidAccountName)

	current, err := actions.UpdateCurrentAccount(ctx, accounts[1].PublicKey)
	require.NoError(t, err)
	require.Equal(t, accounts[1].PublicKey, current.PublicKey)

	front, err := actions.GetFrontState(ctx)
	require.NoError(t, err)
	require.Equal(t, accounts[1].PublicKey, front.CurrentAccount.PublicKey)
	require.Equal(t, "savings", front.CurrentAccount.Name)

	other, err := wallet.NewWallet(wallet.NewWalletOpts{})
	require.NoError(t, err)
	otherAcc, err := other.DeriveAccount(0)
	require.NoError(t, err)
	accounts, err = actions.ImportAccount(
		ctx, otherAcc.PrivateKey(), domain.WalletTypeOnChain, "imported",
	)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	require.True(t, accounts[2].IsPublic)

	sessions.On("GetAllSessions", mock.Anything).Return([]domain.DAppSession{
		{Origin: "https://a.example", AccountPublicKey: accounts[1].PublicKey},
		{Origin: "https://b.example", AccountPublicKey: accounts[0].PublicKey},
	}, nil)
	sessions.On(
		"DeleteSession", mock.Anything, "https://a.example", accounts[1].PublicKey,
	).Return(nil)

	remaining, err := actions.RemoveAccount(ctx, accounts[1].PublicKey, password)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	sessions.AssertNumberOfCalls(t, "DeleteSession", 1)

	front, err = actions.GetFrontState(ctx)
	require.NoError(t, err)
	require.Equal(t, remaining, front.Accounts)
	require.Equal(t, remaining[0].PublicKey, front.CurrentAccount.PublicKey)

	settings, err := actions.UpdateSettings(ctx, domain.Settings{"theme": "dark"})
	require.NoError(t, err)
	require.Equal(t, "dark", settings["theme"])
	front, err = actions.GetFrontState(ctx)
	require.NoError(t, err)
	require.Equal(t, "dark", front.Settings["theme"])
}

func TestSecretActions(t *testing.T) {
	actions, _, _ := newActions(t)
	require.NoError(t, actions.RegisterNewWallet(ctx, password, mnemonic, true))

	current, err := actions.GetCurrentAccount(ctx)
	require.NoError(t, err)

	inputs := []byte("transfer 10 to bob")
	sig, err := actions.SignTransaction(ctx, current.PublicKey, hex.EncodeToString(inputs))
	require.NoError(t, err)
	sigBytes, err := hex.DecodeString(sig)
	require.NoError(t, err)
	ok, err := wallet.VerifySignature(current.PublicKey, inputs, sigBytes)
	require.NoError(t, err)
	require.True(t, ok)

	secret, err := actions.GetAuthSecretKey(ctx, "key")
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	words, err := actions.RevealMnemonic(ctx, password)
	require.NoError(t, err)
	require.Equal(t, mnemonic, words)
	_, err = actions.RevealMnemonic(ctx, "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidPassword)

	viewKey, err := actions.RevealViewKey(ctx, current.PublicKey, password)
	require.NoError(t, err)
	keys, err := actions.ViewKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, viewKey, keys[0].ViewKey)

	require.NoError(t, actions.ChangePassword(ctx, password, "an0therOne"))
	require.NoError(t, actions.Lock(ctx))
	require.ErrorIs(t, actions.Unlock(ctx, password), domain.ErrInvalidPassword)
	require.NoError(t, actions.Unlock(ctx, "an0therOne"))
}

func TestConcurrentActions(t *testing.T) {
	actions, _, _ := newActions(t)
	require.NoError(t, actions.RegisterNewWallet(ctx, password, mnemonic, false))

	wg := &sync.WaitGroup{}
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := actions.CreateHDAccount(ctx, domain.WalletTypeOffChain, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	front, err := actions.GetFrontState(ctx)
	require.NoError(t, err)
	require.Len(t, front.Accounts, 6)

	indexes := make(map[uint32]bool)
	for _, acc := range front.Accounts {
		require.False(t, indexes[acc.HDIndex])
		indexes[acc.HDIndex] = true
	}
}

func TestStoreClose(t *testing.T) {
	actions, store, _ := newActions(t)
	require.NoError(t, actions.RegisterNewWallet(ctx, password, mnemonic, false))

	events, _ := store.Subscribe()
	store.Close()
	store.Close()

	_, open := <-events
	require.False(t, open)

	_, err := actions.GetFrontState(ctx)
	require.ErrorIs(t, err, background.ErrStoreClosed)
}
