package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/graphrec/pkg/api"
)

type WatchCommand struct {
	Host     string `long:"host" description:"Robot hostname or IP (defaults to the last recorded host)"`
	Interval int    `long:"interval" default:"1" description:"Poll interval in seconds"`
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	recStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const waypointSeries = "waypoints"

type watchTickMsg time.Time

type watchModel struct {
	client   *api.Client
	interval time.Duration
	chart    *streamlinechart.Model

	status   *api.RecordStatus
	loc      *api.LocalizationState
	pollErr  error
	width    int
	height   int
	quitting bool
}

func newWatchModel(client *api.Client, interval time.Duration) watchModel {
	chart := streamlinechart.New(80, 16,
		streamlinechart.WithYRange(0, 20),
	)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	chart.SetDataSetStyles(waypointSeries, runes.ThinLineStyle, style)
	return watchModel{
		client:   client,
		interval: interval,
		chart:    &chart,
	}
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

func (m watchModel) Init() tea.Cmd {
	return m.tick()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := m.width - 4
		if w < 40 {
			w = 40
		}
		h := m.height - 9
		if h < 8 {
			h = 8
		}
		m.chart.Resize(w, h)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case watchTickMsg:
		ctx, cancel := context.WithTimeout(context.Background(), m.interval)
		status, err := m.client.Recording.GetRecordStatus(ctx)
		if err == nil {
			m.status = status
			m.loc, _ = m.client.GraphNav.GetLocalizationState(ctx)
			m.chart.PushDataSet(waypointSeries, float64(status.WaypointCount))
			m.chart.DrawAll()
			m.pollErr = nil
		} else {
			m.pollErr = err
		}
		cancel()
		return m, m.tick()
	}

	return m, nil
}

func (m watchModel) View() string {
	if m.quitting {
		return "Watch stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Recording Status"))
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	switch {
	case m.status == nil:
		sb.WriteString(statusStyle.Render("Waiting for first status..."))
	case m.status.IsRecording:
		sb.WriteString(recStyle.Render("● recording"))
		if m.status.SessionName != "" {
			sb.WriteString("  session: " + m.status.SessionName)
		}
	default:
		sb.WriteString(idleStyle.Render("○ not recording"))
	}
	if m.status != nil {
		sb.WriteString(fmt.Sprintf("  waypoints: %d", m.status.WaypointCount))
	}
	if m.loc != nil && m.loc.WaypointID != "" {
		sb.WriteString("  localized: " + m.loc.WaypointID)
	}
	sb.WriteString("\n")
	if m.pollErr != nil {
		sb.WriteString(idleStyle.Render(fmt.Sprintf("poll error: %v", m.pollErr)))
		sb.WriteString("\n")
	}
	sb.WriteString(statusStyle.Render("Press 'q' to quit"))
	sb.WriteString("\n")

	return sb.String()
}

func (c *WatchCommand) Execute(args []string) error {
	ctx := context.Background()
	client, _, err := connect(ctx, c.Host)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to robot: %v\n", err)
		os.Exit(1)
	}

	interval := time.Duration(c.Interval) * time.Second
	if interval <= 0 {
		interval = time.Second
	}

	p := tea.NewProgram(newWatchModel(client, interval), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run watch: %w", err)
	}
	return nil
}
