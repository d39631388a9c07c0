package main

import (
	"github.com/urfave/cli/v2"

	"github.com/tdex-network/notewallet/internal/core/application/background"
	intercominterface "github.com/tdex-network/notewallet/internal/interfaces/intercom"
)

var dappOriginFlag = cli.StringFlag{
	Name:     "dapp_origin",
	Usage:    "the origin of the dapp",
	Required: true,
}

var dapp = cli.Command{
	Name:  "dapp",
	Usage: "manage dapp sessions",
	Subcommands: []*cli.Command{
		{
			Name:   "ping",
			Usage:  "check the wallet is reachable from a page",
			Flags:  []cli.Flag{&dappOriginFlag},
			Action: dappPingAction,
		},
		{
			Name:  "connect",
			Usage: "request the permission to connect a dapp",
			Flags: []cli.Flag{
				&dappOriginFlag,
				&cli.StringFlag{Name: "app_name", Usage: "the name of the dapp", Required: true},
				&cli.StringFlag{Name: "network", Usage: "the network of the dapp", Required: true},
			},
			Action: dappConnectAction,
		},
		{
			Name:   "sessions",
			Usage:  "list the connected dapps",
			Action: dappSessionsAction,
		},
		{
			Name:   "disconnect",
			Usage:  "remove the session of a dapp",
			Flags:  []cli.Flag{&dappOriginFlag},
			Action: dappDisconnectAction,
		},
	},
}

func dappPingAction(ctx *cli.Context) error {
	res, err := pageRequest(ctx.String("dapp_origin"), background.PageRequestPing)
	if err != nil {
		return err
	}
	printJSON(res)
	return nil
}

func dappConnectAction(ctx *cli.Context) error {
	res, err := pageRequest(ctx.String("dapp_origin"), background.DAppRequest{
		Type:    background.DAppPermissionRequest,
		AppName: ctx.String("app_name"),
		Network: ctx.String("network"),
	})
	if err != nil {
		return err
	}
	printJSON(res)
	return nil
}

func dappSessionsAction(ctx *cli.Context) error {
	res, err := request(intercominterface.Request{
		Type: intercominterface.DAppGetAllSessionsRequest,
	})
	if err != nil {
		return err
	}
	printJSON(res.Sessions)
	return nil
}

func dappDisconnectAction(ctx *cli.Context) error {
	_, err := request(intercominterface.Request{
		Type:   intercominterface.DAppRemoveSessionRequest,
		Origin: ctx.String("dapp_origin"),
	})
	return err
}
