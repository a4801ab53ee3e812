package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/gwillem/graphrec/pkg/api"
	"github.com/gwillem/graphrec/pkg/session"
)

type Options struct {
	Record RecordCommand `command:"record" description:"Run an interactive map recording session"`
	Watch  WatchCommand  `command:"watch" description:"Live view of the recording status"`
	Power  PowerCommand  `command:"power" description:"Send a power command to the robot"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "graphrec - Interactive graph-nav map recording CLI"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// connect builds an authenticated client for host. Host falls back to the
// saved config when the flag is empty; credentials come from ROBOT_USER and
// ROBOT_PASSWORD (a .env file is honored) or an interactive prompt.
func connect(ctx context.Context, host string) (*api.Client, string, error) {
	godotenv.Load()

	if host == "" {
		if cfg, err := session.LoadConfig(); err == nil {
			host = cfg.Host
		}
	}
	if host == "" {
		return nil, "", fmt.Errorf("no robot host given; pass --host or run record first")
	}

	user, pass, err := credentials()
	if err != nil {
		return nil, "", err
	}

	client := api.NewClient(host)
	if err := client.Authenticate(ctx, user, pass); err != nil {
		return nil, "", err
	}
	return client, host, nil
}

func credentials() (user, pass string, err error) {
	user = os.Getenv("ROBOT_USER")
	pass = os.Getenv("ROBOT_PASSWORD")
	if user != "" && pass != "" {
		return user, pass, nil
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Username").Value(&user),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&pass),
		),
	)
	if err := form.Run(); err != nil {
		return "", "", err
	}
	return user, pass, nil
}
