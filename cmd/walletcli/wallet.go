package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	intercominterface "github.com/tdex-network/notewallet/internal/interfaces/intercom"
)

var passwordFlag = cli.StringFlag{
	Name:     "password",
	Usage:    "the password used to encrypt the vault",
	Required: true,
}

var status = cli.Command{
	Name:   "status",
	Usage:  "print the current state of the wallet",
	Action: statusAction,
}

var create = cli.Command{
	Name:  "create",
	Usage: "create a new wallet, optionally restoring it from a mnemonic",
	Flags: []cli.Flag{
		&passwordFlag,
		&cli.StringFlag{
			Name:  "mnemonic",
			Usage: "the mnemonic to restore, a new one is generated if omitted",
		},
	},
	Action: createAction,
}

var unlock = cli.Command{
	Name:   "unlock",
	Usage:  "unlock the wallet with the given password",
	Flags:  []cli.Flag{&passwordFlag},
	Action: unlockAction,
}

var lock = cli.Command{
	Name:   "lock",
	Usage:  "lock the wallet",
	Action: lockAction,
}

var changepassword = cli.Command{
	Name:  "changepassword",
	Usage: "change the password of the vault",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "current_password",
			Usage:    "the current password",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "new_password",
			Usage:    "the new password",
			Required: true,
		},
	},
	Action: changePasswordAction,
}

var settings = cli.Command{
	Name:  "settings",
	Usage: "update a wallet setting",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "key", Usage: "the setting key", Required: true},
		&cli.StringFlag{Name: "value", Usage: "the setting value"},
	},
	Action: settingsAction,
}

var sign = cli.Command{
	Name:  "sign",
	Usage: "sign the given hex encoded inputs with the key of an account",
	Flags: []cli.Flag{
		&accountFlag,
		&cli.StringFlag{
			Name:     "inputs",
			Usage:    "the hex encoded signing inputs",
			Required: true,
		},
	},
	Action: signAction,
}

var reveal = cli.Command{
	Name:  "reveal",
	Usage: "reveal the secrets of the wallet",
	Subcommands: []*cli.Command{
		{
			Name:   "mnemonic",
			Usage:  "reveal the mnemonic of the wallet",
			Flags:  []cli.Flag{&passwordFlag},
			Action: revealMnemonicAction,
		},
		{
			Name:   "viewkey",
			Usage:  "reveal the view key of an account",
			Flags:  []cli.Flag{&passwordFlag, &accountFlag},
			Action: revealViewKeyAction,
		},
	},
}

func statusAction(ctx *cli.Context) error {
	res, err := request(intercominterface.Request{
		Type: intercominterface.GetStateRequest,
	})
	if err != nil {
		return err
	}
	printJSON(res.State)
	return nil
}

func createAction(ctx *cli.Context) error {
	mnemonic := ctx.String("mnemonic")
	if _, err := request(intercominterface.Request{
		Type:        intercominterface.NewWalletRequest,
		Password:    ctx.String("password"),
		Mnemonic:    mnemonic,
		OwnMnemonic: mnemonic != "",
	}); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Wallet is created and unlocked")
	return nil
}

func unlockAction(ctx *cli.Context) error {
	if _, err := request(intercominterface.Request{
		Type:     intercominterface.UnlockRequest,
		Password: ctx.String("password"),
	}); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Wallet is unlocked")
	return nil
}

func lockAction(ctx *cli.Context) error {
	if _, err := request(intercominterface.Request{
		Type: intercominterface.LockRequest,
	}); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Wallet is locked")
	return nil
}

func changePasswordAction(ctx *cli.Context) error {
	if _, err := request(intercominterface.Request{
		Type:        intercominterface.ChangePasswordRequest,
		Password:    ctx.String("current_password"),
		NewPassword: ctx.String("new_password"),
	}); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Password changed")
	return nil
}

func settingsAction(ctx *cli.Context) error {
	res, err := request(intercominterface.Request{
		Type:     intercominterface.UpdateSettingsRequest,
		Settings: map[string]interface{}{ctx.String("key"): ctx.String("value")},
	})
	if err != nil {
		return err
	}
	printJSON(res.Settings)
	return nil
}

func signAction(ctx *cli.Context) error {
	res, err := request(intercominterface.Request{
		Type:             intercominterface.SignTransactionRequest,
		AccountPublicKey: ctx.String("account"),
		SigningInputs:    ctx.String("inputs"),
	})
	if err != nil {
		return err
	}
	fmt.Println(res.Signature)
	return nil
}

func revealMnemonicAction(ctx *cli.Context) error {
	res, err := request(intercominterface.Request{
		Type:     intercominterface.RevealMnemonicRequest,
		Password: ctx.String("password"),
	})
	if err != nil {
		return err
	}
	fmt.Println(res.Mnemonic)
	return nil
}

func revealViewKeyAction(ctx *cli.Context) error {
	res, err := request(intercominterface.Request{
		Type:             intercominterface.RevealViewKeyRequest,
		Password:         ctx.String("password"),
		AccountPublicKey: ctx.String("account"),
	})
	if err != nil {
		return err
	}
	fmt.Println(res.ViewKey)
	return nil
}
