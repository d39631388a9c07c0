package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	intercominterface "github.com/tdex-network/notewallet/internal/interfaces/intercom"
)

var webhook = cli.Command{
	Name:  "webhook",
	Usage: "manage the webhooks notified on wallet events",
	Subcommands: []*cli.Command{
		{
			Name:  "add",
			Usage: "add a webhook registered for some event",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "endpoint",
					Usage:    "the endpoint where to notify the webhook",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "secret",
					Usage: "the eventual secret to authenticate requests",
				},
				&cli.StringFlag{
					Name:  "event",
					Usage: "the event for which the webhook gets notified, * for all",
					Value: "*",
				},
			},
			Action: addWebhookAction,
		},
		{
			Name:  "remove",
			Usage: "remove a webhook",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "id", Usage: "the webhook id", Required: true},
			},
			Action: removeWebhookAction,
		},
		{
			Name:  "list",
			Usage: "list the webhooks registered for some event",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "event", Usage: "the event to filter by"},
			},
			Action: listWebhooksAction,
		},
	},
}

func addWebhookAction(ctx *cli.Context) error {
	res, err := request(intercominterface.Request{
		Type:     intercominterface.AddWebhookRequest,
		Event:    ctx.String("event"),
		Endpoint: ctx.String("endpoint"),
		Secret:   ctx.String("secret"),
	})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("hook id:", res.WebhookID)
	return nil
}

func removeWebhookAction(ctx *cli.Context) error {
	if _, err := request(intercominterface.Request{
		Type: intercominterface.RemoveWebhookRequest,
		ID:   ctx.String("id"),
	}); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Webhook removed")
	return nil
}

func listWebhooksAction(ctx *cli.Context) error {
	res, err := request(intercominterface.Request{
		Type:  intercominterface.ListWebhooksRequest,
		Event: ctx.String("event"),
	})
	if err != nil {
		return err
	}
	printJSON(res.Webhooks)
	return nil
}
