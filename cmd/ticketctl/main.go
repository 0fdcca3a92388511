package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/analysis"
	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/backend"
	"github.com/spec-kit/ticket-desk/internal/catalog"
	"github.com/spec-kit/ticket-desk/internal/composer"
	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/observability"
	"github.com/spec-kit/ticket-desk/internal/repository"
	"github.com/spec-kit/ticket-desk/internal/service"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "ticketctl",
	Short:   "Ticket desk operator tool",
	Long:    `Utilities for composing support tickets against the ticketing backend.`,
	Version: version,
}

var numberCmd = &cobra.Command{
	Use:   "number",
	Short: "Print a display ticket number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), composer.NewNumberGenerator(nil, nil).Next())
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List ticket templates from the catalog",
	RunE:  runTemplates,
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Compose and submit a ticket described by a YAML draft file",
	Long: `Submit walks a draft through the composer wizard (template, details,
context, review) using the values in the draft file, then creates the
ticket on the backend.`,
	RunE: runSubmit,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development session token",
	RunE:  runToken,
}

var (
	catalogPathFlag string
	draftFileFlag   string
	ownerFlag       string
	subjectFlag     string
	emailFlag       string
	nameFlag        string
	ttlFlag         int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPathFlag, "catalog", "", "Catalog YAML path (defaults to CATALOG_PATH or the built-in catalog)")

	submitCmd.Flags().StringVarP(&draftFileFlag, "file", "f", "", "Draft YAML file (required)")
	submitCmd.Flags().StringVar(&ownerFlag, "owner", "ticketctl", "Draft owner recorded in logs")
	_ = submitCmd.MarkFlagRequired("file")

	tokenCmd.Flags().StringVar(&subjectFlag, "subject", "", "Session subject (required)")
	tokenCmd.Flags().StringVar(&emailFlag, "email", "", "Session email")
	tokenCmd.Flags().StringVar(&nameFlag, "name", "", "Session display name")
	tokenCmd.Flags().IntVar(&ttlFlag, "ttl", 60, "Token lifetime in minutes")
	_ = tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(numberCmd, templatesCmd, submitCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	path := catalogPathFlag
	if path == "" {
		path = cfg.Composer.CatalogPath
	}
	return catalog.Load(path)
}

func runTemplates(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRIORITY")
	for _, t := range cat.Templates {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Category, t.Priority)
	}
	return w.Flush()
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	token, expires, err := auth.NewTokenManager(cfg.Auth.JWTSecret, ttlFlag).GenerateToken(subjectFlag, emailFlag, nameFlag)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expires.Format("2006-01-02 15:04:05 MST"))
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	file, err := readDraftFile(draftFileFlag)
	if err != nil {
		return err
	}

	client := backend.NewClient(cfg.Backend, logger)
	var analyzer service.SentimentAnalyzer = client
	if cfg.Analyzer.OpenAIKey != "" {
		analyzer = analysis.Chain{analysis.NewOpenAIAnalyzer(cfg.Analyzer), client}
	}
	templates := repository.NewMemoryTemplateRepository(cat.Templates)
	svc := service.NewComposerService(service.ComposerDependencies{
		Backend:         client,
		Analyzer:        analyzer,
		Templates:       templates,
		Categories:      cat,
		Studios:         service.NewCatalogService(cat, templates, client, logger, nil),
		Logger:          logger,
		AnalyzerTimeout: cfg.Analyzer.Timeout(),
	})

	res, err := file.Submit(cmd.Context(), svc, ownerFlag)
	if err != nil {
		logger.Error("submit failed", zap.Error(err))
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Notice)
	fmt.Fprintf(cmd.OutOrStdout(), "sentiment: %s tags: %v\n", res.Sentiment.Sentiment, res.Sentiment.Tags)
	return nil
}
