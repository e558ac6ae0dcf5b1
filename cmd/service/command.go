package service

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/docpile-ai/docpile/app/core"
	"github.com/docpile-ai/docpile/app/logic/v1/process"
)

type Options struct {
	ConfigPath string
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.ConfigPath, "config", "c", "", "init api by given config")
}

func NewCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "service",
		Short: "document qa service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func Run(opts *Options) error {
	app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))
	if err := app.Store().VerifyEmbeddingDimension(app.Cfg().AI.EmbeddingDimension); err != nil {
		return err
	}
	process.NewProcess(app).Start()
	serve(app)

	return nil
}

// NewProcessCommand runs only the background workers, for deployments that
// split the API from the retry sweep.
func NewProcessCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "process",
		Short: "background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunProcess(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunProcess(opts *Options) error {
	app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))
	if err := app.Store().VerifyEmbeddingDimension(app.Cfg().AI.EmbeddingDimension); err != nil {
		return err
	}
	process.NewProcess(app).Start()
	fmt.Println("Process starting...")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs
	return nil
}

// NewMigrateCommand applies the embedded schema to the configured database.
func NewMigrateCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "install or update database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunMigrate(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunMigrate(opts *Options) error {
	app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))
	if err := app.Store().Install(app.Cfg().AI.EmbeddingDimension); err != nil {
		return err
	}
	fmt.Println("migrations applied")
	return nil
}
