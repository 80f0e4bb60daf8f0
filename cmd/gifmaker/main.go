package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/keagan/gifmaker/internal/config"
	"github.com/keagan/gifmaker/internal/logging"
	"github.com/keagan/gifmaker/internal/pipeline"
	"github.com/keagan/gifmaker/pkg/util"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	width   int
	decoder string

	logger zerolog.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gifmaker <input-video> <output-name> <interval> [interval...]",
	Short: "gifmaker - cut time intervals out of a video into one animated gif",
	Long: `Collects the frames inside each interval and writes them, in order, to
<input dir>/gifmaker/<output-name>.gif at the source frame rate.

Intervals are written as start-end, each side mm:ss or hh:mm:ss:

  gifmaker holiday.mp4 beach 0:00-0:20 10:00-10:20`,
	Args:         cobra.MinimumNArgs(3),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.New(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Flags win over the config file and environment
		if cmd.Flags().Changed("width") {
			cfg.Output.Width = width
		}
		if cmd.Flags().Changed("decoder") {
			cfg.Decoder = decoder
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe := pipeline.New(logger, cfg)
		res, err := pipe.Run(cmd.Context(), pipeline.RunOptions{
			Input:      args[0],
			OutputName: args[1],
			Intervals:  args[2:],
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), res.OutputPath)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := config.FromContext(cmd.Context()).YAML()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the effective configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "gifmaker.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if util.FileExists(path) {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.FromContext(cmd.Context()).Save(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		logger.Info().Str("path", path).Msg("config written")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./gifmaker.yaml or ~/.gifmaker/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().IntVar(&width, "width", 0, "downscale frames to this width (0 keeps the source size)")
	rootCmd.PersistentFlags().StringVar(&decoder, "decoder", config.DecoderAuto, "video decoder: auto, ffmpeg or mpeg")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
