package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tdex-network/notewallet/internal/core/domain"
	intercominterface "github.com/tdex-network/notewallet/internal/interfaces/intercom"
)

var transaction = cli.Command{
	Name:  "tx",
	Usage: "manage the transaction queue",
	Subcommands: []*cli.Command{
		{
			Name:  "queue",
			Usage: "queue a new transaction",
			Flags: []cli.Flag{
				&accountFlag,
				&cli.StringFlag{
					Name:  "type",
					Usage: "the type of transaction, one of Send, Consume, Custom",
					Value: string(domain.TransactionTypeSend),
				},
				&cli.StringFlag{
					Name:     "payload",
					Usage:    "the JSON payload of the transaction",
					Required: true,
				},
			},
			Action: queueTransactionAction,
		},
		{
			Name:  "list",
			Usage: "list the transactions",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "outstanding",
					Usage: "list only the transactions not yet completed or failed",
				},
			},
			Action: listTransactionsAction,
		},
		{
			Name:  "cancel",
			Usage: "cancel a queued transaction",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "id", Usage: "the transaction id", Required: true},
			},
			Action: cancelTransactionAction,
		},
		{
			Name:   "monitor",
			Usage:  "print the state of the transaction monitor",
			Action: transactionMonitorAction,
		},
	},
}

func queueTransactionAction(ctx *cli.Context) error {
	payload := ctx.String("payload")
	if !json.Valid([]byte(payload)) {
		return fmt.Errorf("payload must be valid JSON")
	}

	res, err := request(intercominterface.Request{
		Type:             intercominterface.QueueTransactionRequest,
		AccountPublicKey: ctx.String("account"),
		TxType:           domain.TransactionType(ctx.String("type")),
		TxPayload:        json.RawMessage(payload),
	})
	if err != nil {
		return err
	}
	printJSON(res.Transaction)
	return nil
}

func listTransactionsAction(ctx *cli.Context) error {
	res, err := request(intercominterface.Request{
		Type:            intercominterface.GetTransactionsRequest,
		OutstandingOnly: ctx.Bool("outstanding"),
	})
	if err != nil {
		return err
	}
	printJSON(res.Transactions)
	return nil
}

func cancelTransactionAction(ctx *cli.Context) error {
	if _, err := request(intercominterface.Request{
		Type: intercominterface.CancelTransactionRequest,
		ID:   ctx.String("id"),
	}); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Transaction cancelled")
	return nil
}

func transactionMonitorAction(ctx *cli.Context) error {
	res, err := request(intercominterface.Request{
		Type: intercominterface.GetTransactionMonitorRequest,
	})
	if err != nil {
		return err
	}
	printJSON(res.Monitor)
	return nil
}
