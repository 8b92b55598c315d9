package main

import (
	"fmt"
	"log/slog"

	configloader "github.com/foxseedlab/s2t/external/config"
	"github.com/foxseedlab/s2t/internal/config"
	"github.com/foxseedlab/s2t/internal/session"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "s2t",
		Short:         "Transcribe .wav files with a cloud speech-to-text service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newTranscribeCommand(), newRecognizeCommand())
	return root
}

func newTranscribeCommand() *cobra.Command {
	opts := config.TranscribeOptions()
	cmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Continuously transcribe a .wav file into a text file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, sess, err := prepare(cmd, opts)
			if err != nil {
				return err
			}
			o, err := sess.RunContinuous(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if o.IsError() {
				return fmt.Errorf("%w: %s", session.ErrCanceledWithError, o.ErrorCode)
			}
			return nil
		},
	}
	registerFlags(cmd, opts)
	return cmd
}

func newRecognizeCommand() *cobra.Command {
	opts := config.RecognizeOptions()
	cmd := &cobra.Command{
		Use:   "recognize",
		Short: "Recognize the first utterance of a .wav file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, sess, err := prepare(cmd, opts)
			if err != nil {
				return err
			}
			o, err := sess.RunOnce(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if o.IsError() {
				return fmt.Errorf("%w: %s", session.ErrCanceledWithError, o.ErrorCode)
			}
			return nil
		},
	}
	registerFlags(cmd, opts)
	return cmd
}

func prepare(cmd *cobra.Command, opts []config.Option) (*config.Config, *session.Session, error) {
	cfg, err := configloader.Load(opts, changedFlags(cmd, opts))
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("configuration loaded", "env", cfg.Env, "backend", cfg.Backend, "region", cfg.Region, "language", cfg.Language, "file", cfg.InputFile)

	injector := setupDI(cfg)
	sess, err := do.Invoke[*session.Session](injector)
	if err != nil {
		return nil, nil, fmt.Errorf("build session: %w", err)
	}
	return cfg, sess, nil
}

// registerFlags adds one flag per option. Flag defaults are for help output
// only; config.Resolve applies them after the environment.
func registerFlags(cmd *cobra.Command, opts []config.Option) {
	flags := cmd.Flags()
	for _, o := range opts {
		usage := o.Usage
		if o.Env != "" {
			usage += fmt.Sprintf(" [$%s]", o.Env)
		}
		if o.Required {
			usage += " (required)"
		}
		if o.Bool {
			flags.BoolP(o.Long, o.Short, o.Default == "true", usage)
			continue
		}
		flags.StringP(o.Long, o.Short, o.Default, usage)
	}
}

// changedFlags returns the options set explicitly on the command line.
func changedFlags(cmd *cobra.Command, opts []config.Option) map[string]string {
	values := make(map[string]string, len(opts))
	for _, o := range opts {
		f := cmd.Flags().Lookup(o.Long)
		if f == nil || !f.Changed {
			continue
		}
		values[o.Long] = f.Value.String()
	}
	return values
}
