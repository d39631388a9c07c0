package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tdex-network/notewallet/internal/core/domain"
	intercominterface "github.com/tdex-network/notewallet/internal/interfaces/intercom"
)

var (
	accountFlag = cli.StringFlag{
		Name:     "account",
		Usage:    "the public key of the account",
		Required: true,
	}
	walletTypeFlag = cli.StringFlag{
		Name:  "wallet_type",
		Usage: "the type of the account, either OnChain or OffChain",
		Value: string(domain.WalletTypeOnChain),
	}
	nameFlag = cli.StringFlag{
		Name:  "name",
		Usage: "the name of the account",
	}
)

var account = cli.Command{
	Name:  "account",
	Usage: "manage the accounts of the wallet",
	Subcommands: []*cli.Command{
		{
			Name:   "create",
			Usage:  "derive a new account at the next index",
			Flags:  []cli.Flag{&walletTypeFlag, &nameFlag},
			Action: createAccountAction,
		},
		{
			Name:  "import",
			Usage: "import an account from its private key",
			Flags: []cli.Flag{
				&walletTypeFlag, &nameFlag,
				&cli.StringFlag{
					Name:     "private_key",
					Usage:    "the hex encoded private key",
					Required: true,
				},
			},
			Action: importAccountAction,
		},
		{
			Name:  "import-mnemonic",
			Usage: "import an account from another mnemonic",
			Flags: []cli.Flag{
				&walletTypeFlag, &nameFlag,
				&cli.StringFlag{
					Name:     "mnemonic",
					Usage:    "the mnemonic to derive the account from",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "derivation_path",
					Usage: "the derivation path of the account",
				},
			},
			Action: importMnemonicAccountAction,
		},
		{
			Name:   "select",
			Usage:  "select the current account",
			Flags:  []cli.Flag{&accountFlag},
			Action: selectAccountAction,
		},
		{
			Name:  "rename",
			Usage: "rename an account",
			Flags: []cli.Flag{
				&accountFlag,
				&cli.StringFlag{Name: "name", Usage: "the new name", Required: true},
			},
			Action: renameAccountAction,
		},
		{
			Name:   "remove",
			Usage:  "remove an account",
			Flags:  []cli.Flag{&accountFlag, &passwordFlag},
			Action: removeAccountAction,
		},
	},
}

func createAccountAction(ctx *cli.Context) error {
	return printAccounts(intercominterface.Request{
		Type:       intercominterface.CreateAccountRequest,
		WalletType: domain.WalletType(ctx.String("wallet_type")),
		Name:       ctx.String("name"),
	})
}

func importAccountAction(ctx *cli.Context) error {
	return printAccounts(intercominterface.Request{
		Type:       intercominterface.ImportAccountRequest,
		PrivateKey: ctx.String("private_key"),
		WalletType: domain.WalletType(ctx.String("wallet_type")),
		Name:       ctx.String("name"),
	})
}

func importMnemonicAccountAction(ctx *cli.Context) error {
	return printAccounts(intercominterface.Request{
		Type:           intercominterface.ImportMnemonicAccountRequest,
		Mnemonic:       ctx.String("mnemonic"),
		DerivationPath: ctx.String("derivation_path"),
		WalletType:     domain.WalletType(ctx.String("wallet_type")),
		Name:           ctx.String("name"),
	})
}

func selectAccountAction(ctx *cli.Context) error {
	res, err := request(intercominterface.Request{
		Type:             intercominterface.UpdateCurrentAccountRequest,
		AccountPublicKey: ctx.String("account"),
	})
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Printf("Current account is %s\n", res.Account.Name)
	return nil
}

func renameAccountAction(ctx *cli.Context) error {
	return printAccounts(intercominterface.Request{
		Type:             intercominterface.EditAccountRequest,
		AccountPublicKey: ctx.String("account"),
		Name:             ctx.String("name"),
	})
}

func removeAccountAction(ctx *cli.Context) error {
	return printAccounts(intercominterface.Request{
		Type:             intercominterface.RemoveAccountRequest,
		AccountPublicKey: ctx.String("account"),
		Password:         ctx.String("password"),
	})
}

func printAccounts(req intercominterface.Request) error {
	res, err := request(req)
	if err != nil {
		return err
	}
	printJSON(res.Accounts)
	return nil
}
