package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"spine_treats/internal/harness"
	"spine_treats/internal/spine"
)

var (
	infoAtlas  string
	infoScale  float32
	infoOutput string
)

var infoCmd = &cobra.Command{
	Use:   "info <skeleton>",
	Short: "Describe a skeleton file without opening a window",
	Long:  `Read a skeleton (.json or binary) and print its bones, slots, skins, events and animations.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().StringVar(&infoAtlas, "atlas", "", "atlas used to resolve attachment regions")
	infoCmd.Flags().Float32Var(&infoScale, "scale", 1, "skeleton scale")
	infoCmd.Flags().StringVar(&infoOutput, "output", "table", "output format: table or yaml")
}

func runInfo(cmd *cobra.Command, args []string) error {
	var atlas *spine.Atlas
	if infoAtlas != "" {
		var err error
		if atlas, err = spine.NewAtlasFromFile(infoAtlas, nil); err != nil {
			return err
		}
		defer atlas.Dispose()
	}
	data, err := harness.LoadSkeletonData(args[0], atlas, infoScale)
	if err != nil {
		return err
	}
	summary := harness.Summarize(data)
	out := cmd.OutOrStdout()
	switch infoOutput {
	case "yaml":
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		return encoder.Encode(summary)
	case "table":
		return printSummary(out, summary)
	default:
		return fmt.Errorf("unknown output format %q (table or yaml)", infoOutput)
	}
}

func printSummary(out io.Writer, summary harness.Summary) error {
	fmt.Fprintf(out, "%s  spine %s  hash %s  size %.0fx%.0f\n", summary.Name, summary.Version, summary.Hash,
		summary.Width, summary.Height)
	fmt.Fprintf(out, "bones %d  slots %d  constraints %d\n", summary.Bones, summary.Slots, summary.Constraints)
	fmt.Fprintf(out, "skins: %s\n", strings.Join(summary.Skins, ", "))
	fmt.Fprintf(out, "events: %s\n\n", strings.Join(summary.Events, ", "))

	if len(summary.Animations) == 0 {
		fmt.Fprintln(out, "No animations")
		return nil
	}
	table := tablewriter.NewWriter(out)
	table.Header("Animation", "Duration", "Timelines")
	for _, item := range summary.Animations {
		if err := table.Append(item.Name, fmt.Sprintf("%.3f", item.Duration), fmt.Sprintf("%d", item.Timelines)); err != nil {
			return err
		}
	}
	return table.Render()
}
