package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// globalFlags override values read from the project configuration.
type globalFlags struct {
	logLevel string
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:          "curio",
		Short:        "Layer linking and level aggregation engine for urban visual analytics",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(resolveCmd(&flags))
	rootCmd.AddCommand(validateCmd(&flags))
	rootCmd.AddCommand(layersCmd(&flags))
	rootCmd.AddCommand(sceneCmd(&flags))
	rootCmd.AddCommand(serveCmd(&flags))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func resolveCmd(flags *globalFlags) *cobra.Command {
	var knot string

	cmd := &cobra.Command{
		Use:   "resolve [project-path]",
		Short: "Resolve every knot of the grammar and print the function buffers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), args[0], knot, flags)
		},
	}

	cmd.Flags().StringVar(&knot, "knot", "", "resolve only this knot or ex_knot")
	return cmd
}

func validateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Check the grammar and join chains without computing values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), args[0], flags)
		},
	}
}

func layersCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "layers [project-path]",
		Short: "List loaded layers with their element counts per geometry level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayers(cmd.Context(), args[0], flags)
		},
	}
}

func sceneCmd(flags *globalFlags) *cobra.Command {
	var (
		bbox     string
		plan     bool
		timestep int
	)

	cmd := &cobra.Command{
		Use:   "scene [project-path]",
		Short: "Resolve every knot and print the assembled render scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScene(cmd.Context(), args[0], sceneOptions{bbox: bbox, plan: plan, timestep: timestep}, flags)
		},
	}

	cmd.Flags().StringVar(&bbox, "bbox", "", "filter box minx,miny,maxx,maxy")
	cmd.Flags().BoolVar(&plan, "plan", false, "print the top-down 2D plan instead of the full scene")
	cmd.Flags().IntVarP(&timestep, "timestep", "t", 0, "timestep of the plan values")
	return cmd
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Start the local dev server for the browser renderer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), args[0], port, flags)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (default from config, 3000)")
	return cmd
}
