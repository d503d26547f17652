package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hibiken/asynq"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// Env is the subset of the service configuration the CLI needs.
type Env struct {
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// ExitError carries a non-zero exit code out of a cobra command.
type ExitError struct {
	Code int
}

func (e ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewRootCommand assembles the dashboardctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "dashboardctl",
		Short:         "Operate the Soule Smart KPI dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newKPICommand(), newJobsCommand(), newCacheCommand())
	return root
}

func newKPICommand() *cobra.Command {
	var opts KPIOptions
	cmd := &cobra.Command{
		Use:   "kpi",
		Short: "Derive KPIs from a YAML fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			if code := KPICommand(cmd.Context(), opts); code != 0 {
				return ExitError{Code: code}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Fixture, "fixture", "", "YAML dataset (defaults to the embedded demo data)")
	cmd.Flags().StringVar(&opts.Range, "range", "", "trend range: 3m, 6m or 12m")
	cmd.Flags().StringVar(&opts.Segment, "segment", "", "segment: All, SMB, Mid-Market or Enterprise")
	cmd.Flags().StringVarP(&opts.Format, "output", "o", FormatTable, "output format: table, json or csv")
	return cmd
}

func newJobsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "jobs", Short: "Inspect and trigger background jobs"}

	trigger := &cobra.Command{
		Use:   "trigger <warmup|cache-bump>",
		Short: "Enqueue a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := jobsCLI()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			info, err := c.Trigger(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show queue statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := jobsCLI()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			s, err := c.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), s)
		},
	}

	cmd.AddCommand(trigger, stats)
	return cmd
}

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Manage the dashboard cache"}

	run := func(op func(*CacheCLI, context.Context) (int64, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			c, err := cacheCLI()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			version, err := op(c, ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cache version %d\n", version)
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "bump", Short: "Invalidate cached datasets", Args: cobra.NoArgs, RunE: run((*CacheCLI).Bump)},
		&cobra.Command{Use: "version", Short: "Print the cache version", Args: cobra.NoArgs, RunE: run((*CacheCLI).Version)},
	)
	return cmd
}

func loadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, err
	}
	return env, nil
}

func jobsCLI() (*JobsCLI, error) {
	env, err := loadEnv()
	if err != nil {
		return nil, err
	}
	return NewJobsCLI(asynq.RedisClientOpt{Addr: env.RedisAddr, Password: env.RedisPassword, DB: env.RedisDB})
}

func cacheCLI() (*CacheCLI, error) {
	env, err := loadEnv()
	if err != nil {
		return nil, err
	}
	return NewCacheCLI(redis.NewClient(&redis.Options{Addr: env.RedisAddr, Password: env.RedisPassword, DB: env.RedisDB}))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
