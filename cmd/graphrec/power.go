package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gwillem/graphrec/pkg/api"
)

type PowerCommand struct {
	Host    string `long:"host" description:"Robot hostname or IP (defaults to the last recorded host)"`
	Timeout int    `long:"timeout" default:"30" description:"Seconds to wait for the command to complete"`

	Args struct {
		Request string `positional-arg-name:"request" description:"on, off or cycle" required:"true"`
	} `positional-args:"true"`
}

func (c *PowerCommand) Execute(args []string) error {
	req := c.Args.Request
	switch req {
	case "on", "off", "cycle":
	default:
		return fmt.Errorf("unknown power request %q (want on, off or cycle)", req)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(c.Timeout)*time.Second)
	defer cancel()

	client, _, err := connect(ctx, c.Host)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to robot: %v\n", err)
		os.Exit(1)
	}

	commandID, err := client.Power.PowerCommand(ctx, api.PowerRequest{Request: req})
	if err != nil {
		return fmt.Errorf("power %s: %w", req, err)
	}
	fmt.Printf("Issued power %s (command %d), waiting for completion...\n", req, commandID)

	// Poll feedback once a second until the service reports a final status.
	var final *api.PowerFeedback
	poll := func() error {
		fb, err := client.Power.PowerCommandFeedback(ctx, commandID)
		if err != nil {
			return backoff.Permanent(err)
		}
		if fb.Status == "in_progress" {
			return fmt.Errorf("power %s still in progress", req)
		}
		final = fb
		return nil
	}
	bo := backoff.WithContext(backoff.NewConstantBackOff(time.Second), ctx)
	if err := backoff.Retry(poll, bo); err != nil {
		return fmt.Errorf("power %s feedback: %w", req, err)
	}

	if final.Status != "success" {
		return fmt.Errorf("power %s finished with status %s", req, final.Status)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Power %s complete.", req)))
	return nil
}
