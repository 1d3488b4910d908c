package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/asaidimu/filterable/pkg/config"
	"github.com/asaidimu/filterable/pkg/core"
	"github.com/asaidimu/filterable/pkg/logger"
	"github.com/asaidimu/filterable/pkg/sqlite"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

type app struct {
	cfg    *config.Settings
	logger logger.Logger
	db     *sql.DB
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dsn string
	a := &app{}

	root := &cobra.Command{
		Use:   "filterctl",
		Short: "Compose and run declarative filters against SQLite tables",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init(dsn)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&dsn, "dsn", "", "SQLite DSN, overrides SQLITE_DSN")
	root.AddCommand(fieldsCmd(a), planCmd(a), sqlCmd(a), queryCmd(a))

	return root
}

func (a *app) init(dsn string) error {
	cfg, err := config.Init()
	if err != nil {
		return err
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}

	a.cfg = cfg
	a.logger = logger.New(cfg.Logging.Level, cfg.Logging.Format)

	db, err := sql.Open("sqlite3", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	a.db = db

	a.logger.Debug().
		Str("dsn", cfg.Database.DSN).
		Str("or_key_mode", cfg.Filter.OrKeyMode).
		Msg("filterctl initialized")

	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}

	return a.db.Close()
}

func (a *app) model(ctx context.Context, table string) (*core.Model[sqlite.Query], error) {
	matcher, err := a.cfg.OrKeyMatcher()
	if err != nil {
		return nil, err
	}

	return sqlite.NewModel(ctx, a.db, table,
		core.WithLogger(a.logger),
		core.WithOrKeyMatcher(matcher),
	)
}

// compile builds the model of table and compiles the JSON predicate against it.
func (a *app) compile(ctx context.Context, table, predicate string) (sqlite.Query, error) {
	model, err := a.model(ctx, table)
	if err != nil {
		return sqlite.Query{}, err
	}

	p, err := core.DecodePredicate([]byte(predicate))
	if err != nil {
		return sqlite.Query{}, err
	}

	return model.Filter(p)
}

func fieldsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fields <table>",
		Short: "List the columns and filters of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := a.model(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, field := range model.Fields() {
				fmt.Fprintf(out, "%s\t%s\n", field.Name, field.Type)
			}
			fmt.Fprintln(out)
			for _, name := range model.Filters() {
				fmt.Fprintf(out, "%s\t%s\n", name, model.Registry().Origin(name))
			}

			return nil
		},
	}
}

func planCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <table> <predicate>",
		Short: "Print the condition tree of a JSON predicate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := a.model(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			p, err := core.DecodePredicate([]byte(args[1]))
			if err != nil {
				return err
			}

			plan, err := model.Plan(p)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(plan)
		},
	}
}

func sqlCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sql <table> <predicate>",
		Short: "Print the SQL a JSON predicate compiles to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.compile(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			sqlQuery, params, err := q.ToSql()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), sqlQuery)
			fmt.Fprintf(cmd.OutOrStdout(), "%v\n", params)

			return nil
		},
	}
}

func queryCmd(a *app) *cobra.Command {
	var count bool

	cmd := &cobra.Command{
		Use:   "query <table> <predicate>",
		Short: "Run a JSON predicate and print matching rows as JSON lines",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.compile(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			exec := sqlite.NewExecutor(a.db, a.logger)

			if count {
				n, err := exec.Count(cmd.Context(), q)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			}

			rows, err := exec.Query(cmd.Context(), q)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, row := range rows {
				if err := enc.Encode(row); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&count, "count", false, "print the number of matching rows only")

	return cmd
}
