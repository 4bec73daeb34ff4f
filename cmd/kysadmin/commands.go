package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kyschat/internal/app"
	"kyschat/internal/config"
	"kyschat/internal/service"
	"kyschat/internal/storage"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kysadmin",
		Short:         "Maintenance tasks for the student loan assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newMigrateCmd(), newUserCmd(), newIngestCmd())
	return cmd
}

// setup loads configuration with load and installs the logger on the command's stderr.
func setup(cmd *cobra.Command, load func() (*config.Config, error)) (*config.Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.SetDefault(app.NewLogger(cfg, cmd.ErrOrStderr()))
	return cfg, nil
}

// dbFunc is the body of a command that works on a migrated database.
type dbFunc func(ctx context.Context, cfg *config.Config, db *sql.DB) error

// withDB runs fn with a migrated database, reading only the database settings.
func withDB(cmd *cobra.Command, fn dbFunc) error {
	return runWithDB(cmd, config.LoadDB, fn)
}

// withFullConfig is withDB for commands that also need documents and embeddings.
func withFullConfig(cmd *cobra.Command, fn dbFunc) error {
	return runWithDB(cmd, config.Load, fn)
}

func runWithDB(cmd *cobra.Command, load func() (*config.Config, error), fn dbFunc) error {
	cfg, err := setup(cmd, load)
	if err != nil {
		return err
	}
	db, err := app.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()
	return fn(cmd.Context(), cfg, db)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the SQLite schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(ctx context.Context, cfg *config.Config, db *sql.DB) error {
				fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", cfg.DBPath)
				return nil
			})
		},
	}
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}
	cmd.AddCommand(newUserAddCmd(), newUserListCmd(), newUserDisableCmd())
	return cmd
}

func authService(cfg *config.Config, db *sql.DB) service.AuthService {
	return service.NewAuthService(storage.NewUserRepo(db), storage.NewSessionRepo(db), cfg.SessionTTL)
}

func newUserAddCmd() *cobra.Command {
	var req service.CreateUserRequest
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Create a staff account",
		Example: "kysadmin user add --username somchai --password s3cret! --role manager",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(ctx context.Context, cfg *config.Config, db *sql.DB) error {
				user, err := authService(cfg, db).CreateUser(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d, role %s)\n", user.Username, user.ID, user.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "login name")
	cmd.Flags().StringVar(&req.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&req.Role, "role", service.RoleStaff, "admin, manager or staff")
	cmd.Flags().StringVar(&req.FullName, "full-name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "contact email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staff accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(ctx context.Context, cfg *config.Config, db *sql.DB) error {
				admin := service.NewAdminService(storage.NewStatsRepo(db), storage.NewMessageRepo(db), storage.NewFeedbackRepo(db), storage.NewUserRepo(db))
				users, err := admin.ListUsers(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tACTIVE\tFULL NAME")
				for _, u := range users {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n", u.ID, u.Username, u.Role, u.IsActive, u.FullName)
				}
				return tw.Flush()
			})
		},
	}
}

func newUserDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <username>",
		Short: "Deactivate a staff account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(ctx context.Context, cfg *config.Config, db *sql.DB) error {
				if err := authService(cfg, db).DisableUser(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "disabled user %s\n", args[0])
				return nil
			})
		},
	}
}

func newIngestCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index the documents under DOCS_PATH",
		Long: "Index every PDF, Markdown and text file under DOCS_PATH. Unchanged files are skipped " +
			"unless --force clears the index first.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFullConfig(cmd, func(ctx context.Context, cfg *config.Config, db *sql.DB) error {
				vs, closer, err := app.OpenVectorStore(ctx, cfg)
				if err != nil {
					return err
				}
				defer func() {
					_ = closer.Close()
				}()

				embedder, err := app.NewEmbedder(ctx, cfg)
				if err != nil {
					return err
				}
				pipeline, err := app.NewPipeline(cfg, db, embedder, vs)
				if err != nil {
					return err
				}

				if force {
					if err := pipeline.ClearAll(ctx); err != nil {
						return err
					}
				}
				summary, err := pipeline.IndexAll(ctx)
				if summary != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "files: %d, indexed: %d, unchanged: %d, errors: %d, chunks: %d\n",
						summary.Files, summary.Indexed, summary.Unchanged, summary.Errors, summary.Chunks)
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "clear the index before ingesting")
	return cmd
}
