package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	intercominterface "github.com/tdex-network/notewallet/internal/interfaces/intercom"
)

var records = cli.Command{
	Name:  "records",
	Usage: "inspect the owned records",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "list the owned records",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "address",
					Usage: "list only the records of the given address",
				},
			},
			Action: listRecordsAction,
		},
		{
			Name:   "sync",
			Usage:  "trigger a records sync",
			Action: syncRecordsAction,
		},
	},
}

func listRecordsAction(ctx *cli.Context) error {
	res, err := request(intercominterface.Request{
		Type:    intercominterface.GetOwnedRecordsRequest,
		Address: ctx.String("address"),
	})
	if err != nil {
		return err
	}
	printJSON(res.Records)
	return nil
}

func syncRecordsAction(ctx *cli.Context) error {
	if _, err := request(intercominterface.Request{
		Type: intercominterface.SyncRecordsRequest,
	}); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Records sync triggered")
	return nil
}
