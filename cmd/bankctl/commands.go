package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/config"
	"github.com/iho/bankledger/internal/infrastructure/logger"
	"github.com/iho/bankledger/internal/infrastructure/postgres"
	"github.com/iho/bankledger/internal/usecase"
)

type cli struct {
	envFile string
	stderr  io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stderr: stderr}

	rootCmd := &cobra.Command{
		Use:           "bankctl",
		Short:         "bankledger command line",
		Long:          `Create accounts, move money and inspect balances in a bankledger data store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&c.envFile, "env-file", "", "Read configuration from this file instead of ./.env")

	rootCmd.AddCommand(
		c.createCmd(),
		c.loginCmd(),
		c.depositCmd(),
		c.withdrawCmd(),
		c.balanceCmd(),
		c.historyCmd(),
		c.transferCmd(),
		c.deleteCmd(),
		c.migrateCmd(),
	)

	return rootCmd
}

// withApp loads configuration, opens the ledger, runs fn and closes the
// ledger. A save that failed during fn but succeeded on the final flush is
// not reported.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.LoadFile(c.envFile)
	if err != nil {
		return &startupError{err: err}
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cfg, c.stderr)
	if err != nil {
		return &startupError{err: err}
	}

	runErr := fn(ctx, a)
	closeErr := a.close(ctx)

	if errors.Is(runErr, domain.ErrPersistenceFailure) && closeErr == nil {
		a.logger.Info().Msg("ledger saved on final flush")
		return nil
	}
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// sessionFlags authenticate commands that act on the caller's own account.
type sessionFlags struct {
	token    string
	id       string
	password string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.token, "token", "", "Session token printed by login")
	cmd.Flags().StringVar(&f.id, "id", "", "Account number")
	cmd.Flags().StringVar(&f.password, "password", "", "Account password")
}

func (f *sessionFlags) session(ctx context.Context, a *app) (*usecase.Session, error) {
	if f.token != "" {
		if a.sessions == nil {
			return nil, errSessionsDisabled
		}

		claims, err := a.sessions.Verify(f.token)
		if err != nil {
			return nil, err
		}

		return a.ledger.RestoreSession(ctx, claims.AccountID(), claims.AccountCreatedAt(), claims.IssuedTime())
	}

	if f.id == "" {
		return nil, errNotLoggedIn
	}

	return a.ledger.Login(ctx, f.id, f.password)
}

func (c *cli) createCmd() *cobra.Command {
	var input usecase.CreateAccountInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				_, err := a.ledger.CreateAccount(ctx, input)
				if err != nil && !errors.Is(err, domain.ErrPersistenceFailure) {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Account created successfully!")
				return err
			})
		},
	}

	cmd.Flags().StringVar(&input.ID, "id", "", "Account number")
	cmd.Flags().StringVar(&input.HolderName, "holder", "", "Account holder name")
	cmd.Flags().StringVar(&input.Credential, "password", "", "Account password")
	cmd.Flags().StringVar(&input.InitialBalance, "balance", "0", "Initial balance")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("holder")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var id, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials and print a session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				session, err := a.ledger.Login(ctx, id, password)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "Login successful!")

				if a.sessions == nil {
					a.logger.Debug().Msg("SESSION_SECRET not set, no session token issued")
					return nil
				}

				token, err := a.sessions.Generate(session.AccountID(), session.AccountCreatedAt(), session.IssuedAt())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, token)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Account number")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func (c *cli) depositCmd() *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "deposit AMOUNT",
		Short: "Deposit into your account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				session, err := flags.session(ctx, a)
				if err != nil {
					return err
				}

				balance, err := a.ledger.Deposit(ctx, session, args[0])
				if err != nil && !errors.Is(err, domain.ErrPersistenceFailure) {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deposited! New Balance: %s\n", domain.FormatAmount(balance))
				return err
			})
		},
	}
	flags.register(cmd)

	return cmd
}

func (c *cli) withdrawCmd() *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "withdraw AMOUNT",
		Short: "Withdraw from your account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				session, err := flags.session(ctx, a)
				if err != nil {
					return err
				}

				balance, err := a.ledger.Withdraw(ctx, session, args[0])
				if err != nil && !errors.Is(err, domain.ErrPersistenceFailure) {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Withdrawn! New Balance: %s\n", domain.FormatAmount(balance))
				return err
			})
		},
	}
	flags.register(cmd)

	return cmd
}

func (c *cli) balanceCmd() *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show your balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				session, err := flags.session(ctx, a)
				if err != nil {
					return err
				}

				balance, err := a.ledger.CheckBalance(ctx, session)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Current Balance: %s\n", domain.FormatAmount(balance))
				return nil
			})
		},
	}
	flags.register(cmd)

	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show your transaction history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				session, err := flags.session(ctx, a)
				if err != nil {
					return err
				}

				history, err := a.ledger.TransactionHistory(ctx, session)
				if err != nil {
					return err
				}
				if len(history) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), strings.Join(history, "\n"))
				}
				return nil
			})
		},
	}
	flags.register(cmd)

	return cmd
}

func (c *cli) transferCmd() *cobra.Command {
	var input usecase.TransferInput

	cmd := &cobra.Command{
		Use:   "transfer AMOUNT",
		Short: "Transfer funds to another account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Amount = args[0]
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				err := a.ledger.Transfer(ctx, input)
				if err != nil && !errors.Is(err, domain.ErrPersistenceFailure) {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Transfer successful!")
				return err
			})
		},
	}

	cmd.Flags().StringVar(&input.SenderID, "from", "", "Sender account number")
	cmd.Flags().StringVar(&input.Credential, "password", "", "Sender password")
	cmd.Flags().StringVar(&input.ReceiverID, "to", "", "Receiver account number")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	var id, password string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				err := a.ledger.DeleteAccount(ctx, id, password)
				if err != nil && !errors.Is(err, domain.ErrPersistenceFailure) {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Account deleted successfully!")
				return err
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Account number")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func (c *cli) migrateCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the Postgres schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(c.envFile)
			if err != nil {
				return &startupError{err: err}
			}

			log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Out: c.stderr})
			if down {
				err = postgres.RunMigrationsDown(cfg.DatabaseURL, log)
			} else {
				err = postgres.RunMigrations(cfg.DatabaseURL, log)
			}
			if err != nil {
				return &startupError{err: err}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "Roll back the last migration")

	return cmd
}
