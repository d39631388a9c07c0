package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/urfave/cli/v2"

	intercominterface "github.com/tdex-network/notewallet/internal/interfaces/intercom"
	"github.com/tdex-network/notewallet/pkg/intercom"
	websocketport "github.com/tdex-network/notewallet/pkg/intercom/websocket"
)

var (
	version = "dev"

	walletCliDataDir = btcutil.AppDataDir("notewallet-cli", false)
	statePath        = filepath.Join(walletCliDataDir, "state.json")
)

func main() {
	app := cli.NewApp()

	app.Version = version
	app.Name = "notewallet CLI"
	app.Usage = "Command line interface for walletd users"
	app.Commands = append(
		app.Commands,
		&config,
		&status,
		&create,
		&unlock,
		&lock,
		&changepassword,
		&account,
		&settings,
		&sign,
		&reveal,
		&dapp,
		&transaction,
		&records,
		&webhook,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(statePath)
	if err != nil {
		return nil, errors.New("get config state error: try 'config init'")
	}
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, fmt.Errorf("invalid config state: %w", err)
	}

	return data, nil
}

func setState(data map[string]string) error {
	if _, err := os.Stat(walletCliDataDir); os.IsNotExist(err) {
		if err := os.MkdirAll(walletCliDataDir, os.ModeDir|0755); err != nil {
			return err
		}
	}

	currentData, err := getState()
	if err != nil {
		currentData = map[string]string{}
	}

	mergedData := merge(currentData, data)

	jsonString, err := json.Marshal(mergedData)
	if err != nil {
		return err
	}
	if err := os.WriteFile(statePath, jsonString, 0600); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merge := make(map[string]string, 0)
	for _, m := range maps {
		for k, v := range m {
			merge[k] = v
		}
	}
	return merge
}

func printJSON(resp interface{}) {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}
	fmt.Println(string(jsonBytes))
}

func getClient() (*intercom.Client, func(), error) {
	state, err := getState()
	if err != nil {
		return nil, nil, err
	}
	address, ok := state["rpcserver"]
	if !ok {
		return nil, nil, errors.New("set rpcserver with `config set rpcserver`")
	}
	origin, ok := state["origin"]
	if !ok {
		return nil, nil, errors.New("set origin with `config set origin`")
	}

	port, err := websocketport.Dial(
		context.Background(),
		fmt.Sprintf("ws://%s%s", address, intercominterface.IntercomPath),
		origin,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to connect to walletd: %v", err)
	}
	client := intercom.NewClient(port)
	cleanup := func() { _ = client.Close() }

	return client, cleanup, nil
}

// request sends req to the daemon and returns its reply.
func request(
	req intercominterface.Request,
) (*intercominterface.Response, error) {
	client, cleanup, err := getClient()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	res := &intercominterface.Response{}
	if err := client.Request(context.Background(), req, res); err != nil {
		return nil, err
	}
	return res, nil
}

// pageRequest sends a page request on behalf of the given origin.
func pageRequest(origin string, payload interface{}) (interface{}, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	res, err := request(intercominterface.Request{
		Type:    intercominterface.PageRequest,
		Origin:  origin,
		Payload: data,
	})
	if err != nil {
		return nil, err
	}
	return res.Payload, nil
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[notewallet] %v\n", err)
	}
	os.Exit(1)
}
