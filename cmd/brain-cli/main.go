// Command brain-cli is a small interactive example that connects to a
// controller, prints connection-status transitions, and prompts for a
// PIN on the terminal when the controller asks for one.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"github.com/kramer-control/brain-client/brain"
	"github.com/kramer-control/brain-client/logadapter"
)

func main() {
	endpoint := flag.String("endpoint", "127.0.0.1:8000", "controller host[:port]")
	flag.Parse()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "brain> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create readline:", err)
		os.Exit(1)
	}
	defer rl.Close()

	logger := logadapter.NewZerolog(zerolog.New(rl.Stderr()).With().Timestamp().Logger())

	client, err := brain.GetOrCreateClient(
		brain.EndpointDescriptor{Literal: *endpoint},
		brain.WithLogger(logger),
		brain.WithPinSupplier(func() (string, error) {
			return promptPin(rl)
		}),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "could not create client:", err)
		os.Exit(1)
	}

	client.On(brain.EventConnectionStatusChanged, func(payload any) {
		fmt.Fprintf(rl.Stdout(), "status: %v\n", payload)
	})
	client.On(brain.EventPinRequired, func(payload any) {
		pin, err := promptPin(rl)
		if err != nil {
			return
		}
		client.SubmitPin(pin)
	})

	fmt.Fprintf(rl.Stdout(), "connecting to %s — type 'quit' to exit\n", *endpoint)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			client.Disconnect()
			return
		}

		switch strings.TrimSpace(line) {
		case "quit", "exit":
			client.Disconnect()
			return
		case "status":
			fmt.Fprintln(rl.Stdout(), client.ConnectionState())
		case "devices":
			devs, err := client.GetDevices(context.Background())
			if err != nil {
				fmt.Fprintln(rl.Stdout(), "error:", err)
				continue
			}
			for id, d := range devs {
				fmt.Fprintf(rl.Stdout(), "  %s  %s\n", id, d.Name())
			}
		case "snapshot":
			snap := client.Snapshot()
			fmt.Fprintf(rl.Stdout(), "%s  %s\n", snap.Endpoint, snap.ConnectionState)
			for _, d := range snap.Devices {
				fmt.Fprintf(rl.Stdout(), "  %s  %s  watching=%v  states=%d  commands=%d\n",
					d.ID, d.Name, d.IsWatching, len(d.StateIDs), len(d.CommandIDs))
			}
		default:
			fmt.Fprintln(rl.Stdout(), "commands: status, devices, snapshot, quit")
		}
	}
}

func promptPin(rl *readline.Instance) (string, error) {
	rl.SetPrompt("PIN> ")
	defer rl.SetPrompt("brain> ")
	return rl.Readline()
}
