package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/warp/census-engine/census"
	"github.com/warp/census-engine/config"
	"github.com/warp/census-engine/importer"
	"github.com/warp/census-engine/logger"
	"github.com/warp/census-engine/store/sqlite"
)

// app carries what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	configFile string
	v          *viper.Viper
	cfg        *config.Config
	log        *logger.Logger
	columns    importer.Columns
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "census",
		Short: "Community census member reconciliation",
		Long: `census imports voter roll and survey sheets into a household
register without duplicating residents. Re-spelled names are kept as
aliases of the resident they belong to.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default is census.yaml in . or $HOME)")
	pf.String("db", "", "SQLite database path")
	pf.String("log-mode", "", `log format: "prod" (JSON) or "dev" (console)`)
	pf.String("columns", "", "YAML file overriding sheet column headers")
	pf.Bool("name-guardian", false, "also match residents on name + guardian name")

	root.AddCommand(newServeCmd(a), newImportCmd(a), newRecountCmd(a))
	return root
}

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"db":            "db",
	"log-mode":      "log.mode",
	"columns":       "columns_file",
	"name-guardian": "match.name_guardian",
	"port":          "port",
}

func (a *app) setup(cmd *cobra.Command) error {
	a.v = config.New(a.configFile)
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := a.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = log

	a.columns = importer.DefaultColumns()
	if cfg.ColumnsFile != "" {
		if a.columns, err = importer.LoadColumns(cfg.ColumnsFile); err != nil {
			return fmt.Errorf("load columns: %w", err)
		}
	}

	a.log.Debug("config loaded", "config_file", cfg.ConfigFile, "db", cfg.DB, "name_guardian", cfg.NameGuardian)
	return nil
}

func (a *app) openStore() (*sqlite.Store, error) {
	store, err := sqlite.New(a.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", a.cfg.DB, err)
	}
	return store, nil
}

// engine builds a census engine over store with the configured matcher.
func (a *app) engine(store census.TxStore) *census.Engine {
	var matcherOpts []census.MatcherOption
	if a.cfg.NameGuardian {
		matcherOpts = append(matcherOpts, census.WithNameGuardianRule())
	}
	return census.NewEngine(store,
		census.WithMatcher(census.NewMatcher(matcherOpts...)),
		census.WithRecount(a.cfg.RecountOnWrite),
		census.WithLogger(a.log),
	)
}
