package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zen-systems/queryflow/pkg/adapter"
	"github.com/zen-systems/queryflow/pkg/capability"
	"github.com/zen-systems/queryflow/pkg/config"
	"github.com/zen-systems/queryflow/pkg/engine"
	"github.com/zen-systems/queryflow/pkg/pipeline"
	"github.com/zen-systems/queryflow/pkg/retrieval"
)

var version = "dev"

var (
	configDirFlag    string
	capabilitiesFlag string
	debugFlag        bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "queryflow",
		Short: "Query routing and pipeline orchestration for data questions",
		Long: `Queryflow routes natural-language questions to registered capabilities
	by semantic similarity, asks for disambiguation when the match is
	ambiguous, and falls back to a generate-execute-retry pipeline when
	no capability fits.`,
	}

	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "config directory (default ~/.queryflow)")
	rootCmd.PersistentFlags().StringVar(&capabilitiesFlag, "capabilities", "", "path to capabilities file (default <config-dir>/capabilities.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(capabilitiesCmd())
	rootCmd.AddCommand(datasetsCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func askCmd() *cobra.Command {
	var targetFlags []string
	var capabilityFlag string
	var dataDirFlag string
	var evidenceFlag bool
	var offlineFlag bool

	cmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Route a query and print the answer",
		Long: `Routes the query to the best-matching capability, or through the
	generate-execute pipeline when nothing matches directly.

	When routing is ambiguous the command prints the disambiguation
	options, each with a resume token; run ask again with a token to
	continue that choice.

	Use --target for the file(s) the query is about. With several
	targets the capability runs against each concurrently.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			registry, err := loadRegistry(cfg)
			if err != nil {
				return err
			}

			opts := engine.Options{
				Registry: registry,
				Debug:    debugFlag,
			}
			if offlineFlag {
				opts.Adapter = adapter.NewMockAdapter()
			}
			if dataDirFlag != "" {
				opts.Sources = []retrieval.Source{retrieval.NewFilesystemSource(dataDirFlag)}
			}
			if evidenceFlag {
				opts.EvidenceDir = engine.DefaultEvidenceDir(cfg)
			}

			eng, err := engine.New(cfg, opts)
			if err != nil {
				return fmt.Errorf("failed to assemble engine: %w", err)
			}

			var outcome *pipeline.Outcome
			if capabilityFlag != "" {
				outcome, err = eng.AskForced(cmd.Context(), query, capabilityFlag, targetFlags)
			} else {
				outcome, err = eng.Ask(cmd.Context(), query, targetFlags)
			}
			if err != nil {
				return err
			}

			if outcome.Disambiguation != nil {
				printDisambiguation(outcome)
				return nil
			}
			fmt.Println(outcome.Response)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&targetFlags, "target", nil, "target file path (repeatable)")
	cmd.Flags().StringVar(&capabilityFlag, "capability", "", "force a specific capability")
	cmd.Flags().StringVar(&dataDirFlag, "data-dir", "", "directory searched for context documents")
	cmd.Flags().BoolVar(&evidenceFlag, "evidence", false, "write an audit bundle for this run")
	cmd.Flags().BoolVar(&offlineFlag, "offline", false, "use the mock adapter instead of a provider")

	return cmd
}

func printDisambiguation(outcome *pipeline.Outcome) {
	payload := outcome.Disambiguation
	fmt.Println(payload.Question)
	for i, opt := range payload.Options {
		fmt.Printf("  %d. %s\n     queryflow ask %q\n", i+1, opt.Label, opt.ResumeToken)
	}
}

func capabilitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "List registered capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			registry, err := loadRegistry(cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPRIORITY\tKEYWORDS\tDESCRIPTION")
			for _, entry := range registry.Entries() {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
					entry.Capability.Name(),
					entry.Priority,
					strings.Join(entry.Keywords, ", "),
					entry.Capability.Description())
			}
			return w.Flush()
		},
	}
}

func datasetsCmd() *cobra.Command {
	var dataDirFlag string

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List dataset files available as query targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			root := dataDirFlag
			if root == "" {
				root = cfg.Execution.DatasetRoot
			}
			if root == "" {
				return fmt.Errorf("no dataset root configured; set execution.dataset_root or pass --data-dir")
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tSIZE\tMODIFIED")
			err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
					return nil
				}
				info, err := d.Info()
				if err != nil {
					return err
				}
				rel, err := filepath.Rel(root, path)
				if err != nil {
					rel = path
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", rel, info.Size(), info.ModTime().Format("2006-01-02 15:04"))
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to scan %s: %w", root, err)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dataDirFlag, "data-dir", "", "dataset directory (default execution.dataset_root)")
	return cmd
}

func modelsCmd() *cobra.Command {
	var resolveFlag bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List providers, models, and aliases",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			aliases, err := config.LoadAliasesWithFallback(cfg.ConfigDir)
			if err != nil {
				return fmt.Errorf("failed to load model aliases: %w", err)
			}

			if resolveFlag {
				return showAliases(aliases)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tSTATUS")
			for _, provider := range aliases.ListProviders() {
				status := "no key"
				if cfg.HasAdapter(provider) {
					status = "ready"
				}
				fmt.Fprintf(w, "%s\t%s\n", provider, status)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&resolveFlag, "resolve", false, "show aliases and what they resolve to")
	return cmd
}

func showAliases(aliases *config.ModelAliases) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ALIAS\tMODEL\tPROVIDER")

	aliasMap := aliases.ListAliases()
	var names []string
	for name := range aliasMap {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		model := aliasMap[name]
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, model, aliases.GetProviderForModel(model))
	}
	return w.Flush()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the queryflow version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func loadConfig() (*config.Config, error) {
	if configDirFlag != "" {
		return config.LoadFromDir(configDirFlag)
	}
	return config.Load()
}

func loadRegistry(cfg *config.Config) (*capability.Registry, error) {
	path := capabilitiesFlag
	if path == "" {
		path = filepath.Join(cfg.ConfigDir, "capabilities.yaml")
	}
	registry, err := capability.LoadDefinitions(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load capabilities from %s: %w", path, err)
	}
	return registry, nil
}
