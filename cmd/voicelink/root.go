package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/VoiceLink/internal/adapters/device"
	"github.com/dkeye/VoiceLink/internal/app/orch"
	"github.com/dkeye/VoiceLink/internal/config"
	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
	"github.com/dkeye/VoiceLink/internal/logging"
	"github.com/dkeye/VoiceLink/internal/protocol"
)

var (
	wsURL   string
	verbose bool
	withCam bool
	noMic   bool
)

var rootCmd = &cobra.Command{
	Use:   "voicelink",
	Short: "Talk to a voice agent from the terminal",
	Long: `voicelink opens a session with a voice agent, completes the ready
handshake and sends every line typed on stdin as user text.

Quick Start:
  voicelink --url ws://localhost:8765/ws
  voicelink devices`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return runSession(ctx, cfg)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&wsURL, "url", "", "agent websocket URL (overrides ws_url)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&withCam, "cam", false, "capture the camera too")
	rootCmd.Flags().BoolVar(&noMic, "no-mic", false, "start with the microphone muted")
	rootCmd.AddCommand(devicesCmd)
}

func loadConfig() (*config.Config, error) {
	logging.Setup("info", nil)
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logging.Setup(level, nil)
	if wsURL != "" {
		cfg.WSURL = wsURL
	}
	if withCam {
		cfg.EnableCam = true
	}
	return cfg, nil
}

func runSession(ctx context.Context, cfg *config.Config) error {
	media := device.NewVirtual(cfg.Devices)
	client := orch.New(orch.OptionsFromConfig(cfg), media, core.Callbacks{
		Connected:    func() { fmt.Println(statusStyle.Render("connected")) },
		Disconnected: func() { fmt.Println(statusStyle.Render("disconnected")) },
		Error:        func(err error) { fmt.Println(errorStyle.Render(err.Error())) },
		TransportStateChanged: func(s domain.SessionState) {
			log.Debug().Str("module", "cli").Str("state", s.String()).Msg("transport state")
		},
		MicUpdated: func(d domain.Device) {
			log.Info().Str("module", "cli").Str("mic", d.Label).Msg("mic updated")
		},
		BotReady: func(env protocol.Envelope) {
			fmt.Println(statusStyle.Render("bot ready"))
		},
		UserTranscript: func(t protocol.Transcript) {
			if t.Final {
				fmt.Println(userStyle.Render("you") + " " + t.Text)
			}
		},
		BotText: func(t protocol.BotText) {
			fmt.Println(botStyle.Render("bot") + " " + t.Text)
		},
		LatencyUpdated: func(d time.Duration) {
			log.Debug().Str("module", "cli").Dur("latency", d).Msg("latency")
		},
	})

	mics, err := client.GetAllMics(ctx)
	if err != nil {
		log.Warn().Err(err).Str("module", "cli").Msg("mic enumeration failed")
	} else if len(mics) > 0 {
		client.UpdateMic(mics[0].DeviceID)
	}

	if err := client.Connect(ctx, domain.ConnectionParams{URL: cfg.WSURL}); err != nil {
		return fmt.Errorf("connect %s: %w", cfg.WSURL, err)
	}
	defer client.Disconnect()
	if noMic {
		client.EnableMic(false)
	}

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line == "" {
				continue
			}
			if err := client.SendMessage(protocol.TypeUserText, map[string]string{"text": line}); err != nil {
				log.Warn().Err(err).Str("module", "cli").Msg("send failed")
			}
		}
	}
}
