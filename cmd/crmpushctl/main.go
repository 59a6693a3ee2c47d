// Command crmpushctl provisions API clients and inspects push jobs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"crmpush/internal/auth"
	"crmpush/internal/config"
	"crmpush/internal/crm"
	"crmpush/internal/crm/hubspot"
	"crmpush/internal/db"
	"crmpush/internal/logging"
	"crmpush/internal/push"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type clientStore interface {
	Create(ctx context.Context, name string) (*auth.APIClient, string, error)
	Get(ctx context.Context, name string) (*auth.APIClient, error)
}

type jobService interface {
	GetJob(ctx context.Context, jobID uint64) (*push.PushJob, error)
	ListJobs(ctx context.Context, status push.JobStatus, limit int) ([]push.PushJob, error)
	ProcessJob(ctx context.Context, jobID uint64) (push.SyncResult, error)
}

type backend struct {
	Clients clientStore
	Jobs    jobService
	// nil when JWT_SECRET is unset
	JWT *auth.JWT
}

type app struct {
	out  io.Writer
	open func() (*backend, error)

	b *backend
}

func main() {
	a := &app{out: os.Stdout, open: openBackend}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

func openBackend() (*backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logging.New(os.Stderr, cfg.LogLevel, "console")

	gdb, err := db.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	b := &backend{
		Clients: &auth.Clients{DB: gdb},
		Jobs: &push.Service{
			UoW: &push.GormUnitOfWork{DB: gdb},
			CRM: newCRM(cfg, log),
			Log: log,
		},
	}
	if cfg.AuthEnabled() {
		b.JWT = auth.NewJWT(cfg.JWTSecret, cfg.JWTTTL)
	}
	return b, nil
}

func newCRM(cfg config.Config, log zerolog.Logger) crm.Client {
	if cfg.HubSpotToken == "" {
		return crm.NewSeededMemory()
	}
	return hubspot.NewClient(cfg.HubSpotToken,
		hubspot.WithBaseURL(cfg.HubSpotBaseURL),
		hubspot.WithTimeout(cfg.HubSpotTimeout),
		hubspot.WithPageSize(cfg.HubSpotPageSize),
		hubspot.WithLogger(log),
	)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "crmpushctl",
		Short:         "Operate the crmpush service",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.b != nil {
				return nil
			}
			b, err := a.open()
			if err != nil {
				return err
			}
			a.b = b
			return nil
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.out)

	root.AddCommand(newClientsCmd(a), newTokenCmd(a), newJobsCmd(a))
	return root
}

func newClientsCmd(a *app) *cobra.Command {
	clients := &cobra.Command{
		Use:   "clients",
		Short: "Manage API clients",
	}

	var name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API client and print its secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, secret, err := a.b.Clients.Create(cmd.Context(), name)
			if errors.Is(err, auth.ErrClientExists) {
				return fmt.Errorf("client %q already exists", name)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "client_id:     %s\n", c.Name)
			fmt.Fprintf(a.out, "client_secret: %s\n", secret)
			fmt.Fprintln(a.out, "The secret is not stored and cannot be shown again.")
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "client name")
	_ = create.MarkFlagRequired("name")

	clients.AddCommand(create)
	return clients
}

func newTokenCmd(a *app) *cobra.Command {
	var client string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an existing client",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.b.JWT == nil {
				return errors.New("JWT_SECRET not set")
			}
			c, err := a.b.Clients.Get(cmd.Context(), client)
			if err != nil {
				return err
			}
			tok, exp, err := a.b.JWT.Sign(c.Name)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, tok)
			fmt.Fprintf(a.out, "expires: %s\n", exp.UTC().Format("2006-01-02T15:04:05Z"))
			return nil
		},
	}
	cmd.Flags().StringVar(&client, "client", "", "client name")
	_ = cmd.MarkFlagRequired("client")
	return cmd
}
