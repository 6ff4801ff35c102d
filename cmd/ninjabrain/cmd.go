package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/streetninja/ninjabrain/config"
	"github.com/streetninja/ninjabrain/internal"
	"github.com/streetninja/ninjabrain/pkg/models"
	"github.com/streetninja/ninjabrain/pkg/store/postgres"
	"github.com/streetninja/ninjabrain/pkg/store/postgres/migrations"
)

var (
	log *logrus.Logger

	cfgFile     string
	showVersion bool
	dumpConfig  bool
	generateKey bool
	externalID  int64
)

var cmd = &cobra.Command{
	Use:          "ninjabrain",
	Short:        "ninjabrain extracts entities from inbound SMS messages and stores the predictions",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema and apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := postgres.NewPostgresConn(&cfg.Store.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.CreateSchema(cmd.Context(), db); err != nil {
			return err
		}
		log.Info("Schema is up to date")
		return nil
	},
}

var dumpJsonSchemaCmd = &cobra.Command{
	Use:     "json-schema",
	Short:   "Generates JSON Schema for ninjabrain's configuration file",
	Example: "ninjabrain json-schema > ninjabrain_config_schema.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := config.JSONSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(schema))
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:     "predict [text]",
	Short:   "Extract entities from a single message and store the prediction",
	Example: `ninjabrain predict --id 42 "is there a shelter near Main st?"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		appState, cleanup, err := NewAppState(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		resp, err := appState.Predictor.Predict(
			cmd.Context(),
			&models.PredictionRequest{Text: args[0], ID: externalID},
		)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

var migrationsCmd = &cobra.Command{
	Use:   "migrations",
	Short: "List the embedded SQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := migrations.Names()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrationsCmd)
	cmd.AddCommand(migrateCmd)
	cmd.AddCommand(dumpJsonSchemaCmd)
	cmd.AddCommand(predictCmd)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.yaml)")
	cmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "print version number")
	cmd.PersistentFlags().BoolVarP(&dumpConfig, "dump-config", "d", false, "dump config")
	cmd.PersistentFlags().
		BoolVarP(&generateKey, "generate-token", "g", false, "generate a new JWT token")

	predictCmd.Flags().Int64Var(&externalID, "id", 0, "external id of the message")
}

// Execute executes the root cobra command.
func Execute() {
	log = internal.GetLogger()
	log.SetLevel(logrus.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
