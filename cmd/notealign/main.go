package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chrissnell/notealign/internal/align"
	"github.com/chrissnell/notealign/internal/log"
	"github.com/chrissnell/notealign/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

// cli carries state resolved by the root command for its subcommands.
type cli struct {
	cfgFile    string
	cfgBackend string
	profile    string
	debug      bool

	cfg    *config.ConfigData
	params align.Params
	logger *zap.SugaredLogger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "notealign: %v\n", err)
		log.Sync()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "notealign",
		Short:         "Align timed note lists to a performance",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync()
		},
	}
	root.SetVersionTemplate("notealign {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "notealign.yaml", "path to configuration source (YAML file or SQLite database)")
	pf.StringVar(&c.cfgBackend, "config-backend", "yaml", "configuration backend: 'yaml' or 'sqlite'")
	pf.StringVar(&c.profile, "profile", "", "named alignment profile to apply over the base alignment section")
	pf.BoolVar(&c.debug, "debug", false, "turn on debugging output")

	root.AddCommand(
		newAlignCmd(c),
		newCompareCmd(c),
		newBatchCmd(c),
		newServeCmd(c),
		newRunsCmd(c),
		newConfigCmd(c),
		newMigrateCmd(c),
	)
	return root
}

// setup loads .env, initializes logging and resolves configuration.
func (c *cli) setup() error {
	_ = godotenv.Load()

	if err := log.Init(c.debug); err != nil {
		return err
	}
	c.logger = log.GetSugaredLogger()

	cfg, err := loadConfig(c.cfgFile, c.cfgBackend)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	c.cfg = cfg

	params, err := cfg.AlignParams(c.profile)
	if err != nil {
		return err
	}
	c.params = params
	return nil
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)

	provider, err := config.NewProvider(cfgBackend, filename)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config %s: %w", filename, err)
	}
	return cfgData, nil
}
