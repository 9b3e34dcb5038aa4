package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dkeye/VoiceLink/internal/adapters/device"
	"github.com/dkeye/VoiceLink/internal/app/orch"
	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List capture and playback devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := orch.New(orch.OptionsFromConfig(cfg), device.NewVirtual(cfg.Devices), core.Callbacks{})
		ctx := cmd.Context()

		mics, err := client.GetAllMics(ctx)
		if err != nil {
			return err
		}
		cams, err := client.GetAllCams(ctx)
		if err != nil {
			return err
		}
		speakers, err := client.GetAllSpeakers(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		printGroup(w, "Microphones", mics)
		printGroup(w, "Cameras", cams)
		printGroup(w, "Speakers", speakers)
		return w.Flush()
	},
}

func printGroup(w *tabwriter.Writer, title string, devices []domain.Device) {
	fmt.Fprintln(w, headerStyle.Render(title))
	if len(devices) == 0 {
		fmt.Fprintln(w, "  "+dimStyle.Render("none"))
		return
	}
	for _, d := range devices {
		fmt.Fprintf(w, "  %s\t%s\n", d.Label, dimStyle.Render(d.DeviceID))
	}
}
