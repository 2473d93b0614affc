package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"satdmap/internal/sir"
)

var (
	rankFormat string
	rankTier   string
	rankTop    int
	rankRun    string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank SATD instances by impact score",
	Long: `Run the analysis pipeline and rank every instance by its SATD Impact
Ripple score, highest first, with the assigned priority tier.

Examples:
  satdmap rank
  satdmap rank --top=10
  satdmap rank --tier=Top
  satdmap rank --run=6f1c9a9e-...
  satdmap rank --format=json`,
	Run: runRank,
}

func init() {
	rankCmd.Flags().StringVar(&rankFormat, "format", "human", "Output format (json, human)")
	rankCmd.Flags().StringVar(&rankTier, "tier", "", "Only show instances in this tier (Top, Mid, Bottom)")
	rankCmd.Flags().IntVar(&rankTop, "top", 0, "Only show the N highest-scored instances")
	rankCmd.Flags().StringVar(&rankRun, "run", "", "Read scores from a stored run instead of re-analyzing")
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(rootFlag)
	logger := newLogger(cfg, rankFormat == "json")

	corpus, result, err := corpusAndResult(cfg, logger, rankRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing: %v\n", err)
		os.Exit(1)
	}

	scores := result.Scores
	if rankTier != "" {
		filtered := scores[:0:0]
		for _, s := range scores {
			if s.Tier == sir.Tier(rankTier) {
				filtered = append(filtered, s)
			}
		}
		scores = filtered
	}
	if rankTop > 0 && rankTop < len(scores) {
		scores = scores[:rankTop]
	}

	if rankFormat == "json" {
		printJSON(scores)
		return
	}

	for i, s := range scores {
		in := corpus.Get(s.InstanceID)
		location := s.InstanceID
		if in != nil {
			location = fmt.Sprintf("%s:%d", in.File, in.Line)
		}
		fmt.Printf("%3d. [%-6s] %.3f  %s\n", i+1, s.Tier, s.Score, location)
		if in != nil {
			fmt.Printf("     %s  (severity %.0f, out %d, in %d)\n",
				in.Content, s.Severity, s.OutgoingInfluence, s.IncomingDependency)
		}
	}
}
