package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/infra/integration/crm"
	"github.com/xavierca1/leadflow/internal/infra/logger"
)

var (
	// Global flags
	configPath string
	token      string
	actorID    int
	timeout    time.Duration
	verbose    bool

	cfg    config.Config
	log    *zap.Logger
	client *crm.Client
)

var rootCmd = &cobra.Command{
	Use:   "leadbar",
	Short: "Move CRM leads through their status stages from the terminal",
	Long: `leadbar talks to the CRM directly and renders the status bar of a lead.

Advancing a stage collects the data that stage requires (a demo session,
a deal amount) and always ends with a remark before the status is committed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if verbose {
			log, err = logger.New("dev")
		} else {
			log = zap.NewNop()
		}
		if err != nil {
			return err
		}

		if token == "" {
			token = cfg.CRM.Token
		}
		if cfg.CRM.BaseURL == "" {
			return fmt.Errorf("crm base url is not configured (set LEADFLOW_CRM_BASE_URL)")
		}
		client = crm.NewClient(cfg.CRM.BaseURL, timeout, log).WithToken(token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "CRM bearer token (or set LEADFLOW_CRM_TOKEN)")
	rootCmd.PersistentFlags().IntVar(&actorID, "actor", envInt("LEADFLOW_ACTOR_ID"), "User id recorded as the author of actions and remarks")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "CRM request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	boardCmd.Flags().IntVar(&boardStatus, "status", 0, "Current status id of the lead")
	boardCmd.Flags().BoolVar(&boardLost, "lost", false, "The lead is marked lost")
	boardCmd.Flags().BoolVar(&boardWon, "won", false, "The lead is marked won")

	remarksCmd.Flags().StringVar(&remarksXLSX, "xlsx", "", "Write the remarks to this xlsx file instead of printing them")
	remarksCmd.Flags().IntVar(&remarksPreview, "preview", 0, "Preview length of each remark (default 80)")

	rootCmd.AddCommand(boardCmd, stagesCmd, remarksCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envInt(key string) int {
	n, _ := strconv.Atoi(os.Getenv(key))
	return n
}

func leadArg(args []string) (int, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid lead id %q", args[0])
	}
	return id, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
