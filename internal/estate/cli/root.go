// Package cli is the estate command line.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/estate/internal/estate/app"
	"github.com/aussiebroadwan/estate/pkg/slogx"
	"github.com/aussiebroadwan/estate/pkg/storage"
)

// Factory builds the Application for a command invocation.
type Factory func(ctx context.Context, cfg app.Config) (*app.Application, error)

type options struct {
	envFile string
	role    string
	json    bool

	factory Factory
	app     *app.Application
}

// NewRootCommand returns the estate command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(app.New)
}

func newRootCommand(factory Factory) *cobra.Command {
	opts := &options{factory: factory}

	cmd := &cobra.Command{
		Use:           "estate",
		Short:         "Browse the estate marketplace and manage role sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       app.BuildVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.open(cmd.Context()); err != nil {
				return err
			}
			cmd.SetContext(slogx.WithAttrs(cmd.Context(), opts.app.Logger, "command", cmd.CommandPath()))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.close()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "read configuration from this .env file")
	cmd.PersistentFlags().StringVar(&opts.role, "role", string(storage.RoleConsumer), "session role (consumer, agent, company, admin)")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of tables")

	cmd.AddCommand(
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
		newTokenCommand(opts),
		newPropertiesCommand(opts),
		newPropertyCommand(opts),
		newProjectsCommand(opts),
		newPhasesCommand(opts),
		newInquiryCommand(opts),
		newVisitCommand(opts),
		newFavoritesCommand(opts),
	)
	opts.closeOnError(cmd)
	return cmd
}

func (o *options) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := app.LoadConfig(o.envFile)
	if err != nil {
		return err
	}
	a, err := o.factory(ctx, cfg)
	if err != nil {
		return err
	}
	o.app = a
	return nil
}

func (o *options) close() error {
	if o.app == nil {
		return nil
	}
	err := o.app.Close()
	o.app = nil
	return err
}

// closeOnError wraps every RunE in the tree so a failing command still
// releases the application; cobra skips PersistentPostRunE in that case.
func (o *options) closeOnError(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		o.closeOnError(sub)
	}
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := run(cmd, args); err != nil {
			return errors.Join(err, o.close())
		}
		return nil
	}
}

func (o *options) parseRole() (storage.Role, error) {
	return storage.ParseRole(o.role)
}
