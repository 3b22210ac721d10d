package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/speakerkit/audio"
	"github.com/kbukum/speakerkit/diarization"
	"github.com/kbukum/speakerkit/errors"
	"github.com/kbukum/speakerkit/logger"
	"github.com/kbukum/speakerkit/pipeline"
	"github.com/kbukum/speakerkit/version"
)

type rootOptions struct {
	configPath  string
	output      string
	backend     string
	numSpeakers int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          serviceName,
		Short:        "Speaker diarization for audio files and URLs",
		SilenceUsage: true,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default: search cmd/diarize/config.yml, ./config.yml)")
	flags.StringVarP(&opts.output, "output", "o", "", "output format: json or yaml")
	flags.StringVar(&opts.backend, "backend", "", "diarization backend: local, remote or auto")
	flags.IntVar(&opts.numSpeakers, "num-speakers", 0, "number of speakers to cluster into")

	root.AddCommand(
		newRunCmd(opts),
		newFileCmd(opts),
		newHealthCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

// resolve loads configuration and applies flag overrides.
func (o *rootOptions) resolve() (*Config, error) {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.output != "" {
		cfg.Output = o.output
	}
	if o.backend != "" {
		cfg.Backend = o.backend
	}
	if o.numSpeakers != 0 {
		cfg.Pipeline.NumSpeakers = o.numSpeakers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withApp builds the application for one command invocation and tears it
// down afterwards.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(context.Context, *app) error) error {
	cfg, err := o.resolve()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.Background()); cerr != nil {
			a.log.Warn("shutdown failed", logger.ErrorFields("close", cerr))
		}
	}()
	return fn(ctx, a)
}

// locationResult is one entry of a multi-location run.
type locationResult struct {
	Location string              `json:"location" yaml:"location"`
	Result   *diarization.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error    *errors.Body        `json:"error,omitempty" yaml:"error,omitempty"`

	err *errors.AppError
}

func (r *locationResult) fail(err *errors.AppError) {
	r.err = err
	body := err.Body()
	r.Error = &body
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		language    string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "run <location>...",
		Short: "Diarize one or more audio URLs or local paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if concurrency <= 0 {
					concurrency = a.cfg.Concurrency
				}
				results := diarizeAll(ctx, a, args, language, concurrency)
				if len(results) == 1 {
					if results[0].err != nil {
						return results[0].err
					}
					return writeOutput(cmd.OutOrStdout(), a.cfg.Output, results[0].Result)
				}
				if err := writeOutput(cmd.OutOrStdout(), a.cfg.Output, results); err != nil {
					return err
				}
				failed := 0
				for _, r := range results {
					if r.err != nil {
						failed++
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d locations failed", failed, len(results))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "language hint passed to the backend")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "locations diarized at once (default from config)")
	return cmd
}

// diarizeAll runs every location through the selected provider and returns
// the results in argument order. Per-location failures are carried in the
// result rather than aborting the batch.
func diarizeAll(ctx context.Context, a *app, locations []string, language string, concurrency int) []locationResult {
	p := pipeline.ParallelIndexed(pipeline.Enumerate(locations), concurrency, func(ctx context.Context, _ int, loc string) (locationResult, error) {
		return diarizeOne(ctx, a, loc, language), nil
	})
	p = pipeline.Tap(p, func(_ context.Context, r pipeline.Indexed[locationResult]) error {
		fields := logger.Fields("location", r.Value.Location)
		if r.Value.err != nil {
			fields[logger.FieldError] = r.Value.err.Error()
			a.log.Warn("location failed", fields)
		} else {
			fields["speakers"] = r.Value.Result.SpeakerCount
			a.log.Info("location diarized", fields)
		}
		return nil
	})

	// Workers never fail, so Gather only errors on cancellation.
	out, err := pipeline.Gather(ctx, p, len(locations))
	if err != nil {
		for i := range out {
			if out[i].Result == nil && out[i].err == nil {
				out[i] = locationResult{Location: locations[i]}
				out[i].fail(errors.Internal(err))
			}
		}
	}
	return out
}

func diarizeOne(ctx context.Context, a *app, location, language string) locationResult {
	res := locationResult{Location: location}
	p, err := a.provider(ctx)
	if err != nil {
		res.fail(errors.ServiceUnavailable("diarization backend").WithCause(err))
		return res
	}
	result, err := p.Diarize(ctx, diarization.DiarizationRequest{FileURL: location, LanguageHint: language})
	if err != nil {
		appErr, ok := errors.AsAppError(err)
		if !ok {
			appErr = errors.Internal(err)
		}
		res.fail(appErr)
		return res
	}
	res.Result = result
	return res
}

func newFileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "file <wav>",
		Short: "Diarize a canonical 16 kHz mono WAV file in-process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				buf, err := audio.ReadFile(args[0])
				if err != nil {
					return err
				}
				result, err := a.runner.Run(ctx, buf, a.log)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), a.cfg.Output, result)
			})
		},
	}
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Report the health of the configured backends",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				sh := a.health(ctx)
				if err := writeOutput(cmd.OutOrStdout(), a.cfg.Output, sh); err != nil {
					return err
				}
				if !sh.Healthy() {
					return fmt.Errorf("service %s is down", sh.Service)
				}
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "health probe timeout")
	return cmd
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if short {
				_, err := fmt.Fprintln(w, version.Short())
				return err
			}
			info := version.Get()
			if opts.output != "" {
				return writeOutput(w, opts.output, info)
			}
			_, err := fmt.Fprintln(w, info)
			return err
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version and commit")
	return cmd
}
