package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/gwillem/graphrec/pkg/api"
	"github.com/gwillem/graphrec/pkg/session"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type RecordCommand struct {
	Host         string `long:"host" description:"Robot hostname or IP"`
	DownloadPath string `long:"download-path" default:"." description:"Directory for downloaded maps"`
	SessionName  string `long:"session-name" description:"Recording session name (defaults to the download directory name)"`
	UserName     string `long:"user-name" description:"Session user name (defaults to the authenticated user)"`
	ImageSource  string `long:"image-source" description:"Camera source for object capture"`
}

func (c *RecordCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Graph Recording"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━"))
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, host, err := connect(ctx, c.Host)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to robot: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(successStyle.Render("Authenticated as " + client.User()))

	downloadPath, err := filepath.Abs(c.DownloadPath)
	if err != nil {
		return fmt.Errorf("resolve download path: %w", err)
	}
	sessionName := c.SessionName
	if sessionName == "" {
		sessionName = filepath.Base(downloadPath)
	}
	userName := c.UserName
	if userName == "" {
		userName = client.User()
	}

	cfg := &session.Config{
		Host:         host,
		DownloadPath: downloadPath,
		SessionName:  sessionName,
		UserName:     userName,
		ImageSource:  c.ImageSource,
	}
	if err := cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save config: %v\n", err)
	}

	s := session.New(session.Params{
		GraphNav:      client.GraphNav,
		Recording:     client.Recording,
		MapProcessing: client.MapProcessing,
		Image:         client.Image,
		DownloadPath:  downloadPath,
		Meta: api.SessionMetadata{
			SessionName: sessionName,
			UserName:    userName,
			ClientID:    "graphrec",
		},
		ImageSource: c.ImageSource,
		UI:          huhUI{},
	})
	return s.Run(ctx)
}

// huhUI backs the session's interactive choices with huh forms.
type huhUI struct{}

func (huhUI) Select(title string, choices []session.Choice) (string, error) {
	options := make([]huh.Option[string], 0, len(choices))
	for _, c := range choices {
		options = append(options, huh.NewOption(c.Label, c.Value))
	}

	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(options...).
				Value(&value),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return value, nil
}

func (huhUI) Input(prompt string) (string, error) {
	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(prompt).Value(&value),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return value, nil
}
