// Package app wires the cobra CLI around the four tool operations of
// spec 6, grounded on the teacher's cmd/cmd root command style (one
// root command, config loaded in PersistentPreRunE, subcommands that
// each call a single pipeline operation and print its string result).
package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"briefly/internal/config"
	"briefly/internal/extract"
	"briefly/internal/llm"
	"briefly/internal/memory"
	"briefly/internal/observability"
	"briefly/internal/pipeline"
	"briefly/internal/research"
	"briefly/internal/search"
	"briefly/internal/summarize"
	"briefly/internal/synthesize"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "briefly",
	Short: "Multi-stage research pipeline: topic in, synthesized report out.",
}

// Execute runs the root cobra command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to an optional config file")
	rootCmd.AddCommand(researchCmd, searchMemoryCmd, historyCmd, clearMemoryCmd)
}

// buildPipeline loads configuration and wires the four stages and the
// memory subsystem into one Pipeline, the same construction the four
// subcommands below share.
func buildPipeline() (*pipeline.Pipeline, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	llmClient, err := newTracedLLMClient(cfg.Research.LLMModel)
	if err != nil {
		return nil, err
	}

	registry := search.NewRegistry()
	if cfg.Research.SerperAPIKey != "" {
		registry.Register(search.NewSerperProvider(cfg.Research.SerperAPIKey))
		registry.SetPreferred("serper")
	}
	if cfg.Research.TavilyAPIKey != "" {
		registry.Register(search.NewTavilyProvider(cfg.Research.TavilyAPIKey))
	}
	if cfg.Research.BraveAPIKey != "" {
		registry.Register(search.NewBraveProvider(cfg.Research.BraveAPIKey))
	}
	registry.Register(search.NewDuckDuckGoProvider())

	researcher := research.NewStage(registry, llmClient)
	extractor := extract.NewStage(nil, extract.DefaultConfig())
	summarizer := summarize.NewStage(llmClient, summarize.DefaultOptions())
	synthesizer := synthesize.NewStage(llmClient)

	store, err := memory.Open(cfg.Research.MemoryDBPath, pipeline.NewEmbedder(llmClient))
	if err != nil {
		return nil, err
	}

	return pipeline.New(researcher, extractor, summarizer, synthesizer, store, pipeline.DefaultOptions()), nil
}

// newTracedLLMClient wraps the LLM client in a span-emitting tracer.
// Tracing is enabled whenever the app is in debug mode, matching the
// teacher's convention of routing verbose instrumentation through the
// same debug flag that controls log verbosity.
func newTracedLLMClient(modelName string) (*llm.TracedClient, error) {
	tracer := observability.NewTracer(nil, config.IsDebugMode())
	return llm.NewTracedClient(modelName, tracer)
}

var (
	maxResults int
	useCache   bool
)

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Run the complete research pipeline for a topic and print the markdown report.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline()
		if err != nil {
			return err
		}
		out := p.RunComplete(context.Background(), args[0], maxResults, useCache)
		fmt.Println(out)
		return nil
	},
}

var topK int

var searchMemoryCmd = &cobra.Command{
	Use:   "search-memory [query]",
	Short: "Search previously stored research items by semantic similarity.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline()
		if err != nil {
			return err
		}
		fmt.Println(p.SearchInMemory(args[0], topK))
		return nil
	},
}

var nLast int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the last N conversation entries recorded by the pipeline.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline()
		if err != nil {
			return err
		}
		fmt.Println(p.GetResearchHistory(nLast))
		return nil
	},
}

var confirmClear bool

var clearMemoryCmd = &cobra.Command{
	Use:   "clear-memory",
	Short: "Clear the conversation log and cache (vector store is preserved).",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline()
		if err != nil {
			return err
		}
		fmt.Println(p.ClearMemory(confirmClear))
		return nil
	},
}

func init() {
	researchCmd.Flags().IntVar(&maxResults, "max-results", 3, "maximum number of search results to gather (clamped to 2..10)")
	researchCmd.Flags().BoolVar(&useCache, "use-cache", true, "reuse a fresh cached report for the same topic if one exists")
	searchMemoryCmd.Flags().IntVar(&topK, "top-k", 5, "number of ranked results to return")
	historyCmd.Flags().IntVar(&nLast, "n-last", 5, "number of conversation entries to print")
	clearMemoryCmd.Flags().BoolVar(&confirmClear, "confirm", false, "must be set to actually clear memory")
}
