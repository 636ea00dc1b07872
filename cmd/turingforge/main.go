// Command turingforge is a minimal CLI front end: it reads a CSV
// dataset, wires the default GP search, runs it to a generation or
// budget limit, and writes the best individual's text form and a
// per-generation statistics CSV. It is an external demonstration of
// the core packages, not part of the core itself.
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ealione/turingforge/internal/bench"
	"github.com/ealione/turingforge/internal/crossover"
	"github.com/ealione/turingforge/internal/creator"
	"github.com/ealione/turingforge/internal/dataset"
	"github.com/ealione/turingforge/internal/dispatch"
	"github.com/ealione/turingforge/internal/engine"
	"github.com/ealione/turingforge/internal/evaluator"
	"github.com/ealione/turingforge/internal/format"
	"github.com/ealione/turingforge/internal/function"
	"github.com/ealione/turingforge/internal/generator"
	"github.com/ealione/turingforge/internal/interp"
	"github.com/ealione/turingforge/internal/localsearch"
	"github.com/ealione/turingforge/internal/metrics"
	"github.com/ealione/turingforge/internal/mutation"
	"github.com/ealione/turingforge/internal/reinserter"
	"github.com/ealione/turingforge/internal/selector"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		csvPath     string
		targetCol   string
		outStats    string
		popSize     int
		poolSize    int
		termCount   int
		generations int
		budget      int
		seed        int64
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "turingforge",
		Short: "search for a sum-of-transformed-monomial expression fitting a CSV dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.Nop()
			if verbose {
				logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			}

			ds, target, err := loadCSV(csvPath, targetCol)
			if err != nil {
				return fmt.Errorf("loading dataset: %w", err)
			}
			trainRange, err := dataset.NewRange(0, ds.Rows())
			if err != nil {
				return err
			}

			cat := function.NewCatalog(function.Abs | function.Square | function.Cos | function.Sin | function.Exp | function.Log)
			cr, err := creator.NewBalancedCreator(creator.DefaultConfig(ds.Cols()), cat)
			if err != nil {
				return err
			}

			it := interp.New(dispatch.NewTable(), interp.DefaultBatchSize)
			evCfg := evaluator.DefaultConfig(metrics.MSE)
			evCfg.Budget = budget
			evCfg.LocalSearch, err = localsearch.NewLM(localsearch.DefaultLMConfig())
			if err != nil {
				return err
			}
			evCfg.LamarckianProbability = 0.5
			ev, err := evaluator.New(evCfg, it)
			if err != nil {
				return err
			}

			cmp := selector.SingleObjectiveComparison(0)
			female, err := selector.NewTournament(5, cmp)
			if err != nil {
				return err
			}
			male, err := selector.NewTournament(5, cmp)
			if err != nil {
				return err
			}

			// Crossover and mutation run inside the engine's worker pool, so
			// this counter is shared across goroutines and must be atomic.
			var birth atomic.Uint64
			nextBirth := func() uint64 { return birth.Add(1) }

			gcfg := generator.Config{
				Female:     female,
				Male:       male,
				Crossover:  crossover.IndividualCrossover(0.5, 50, nextBirth),
				Mutation: mutation.MultiMutationWeighted(
					[]mutation.Mutation{mutation.OnePoint(0.5), mutation.ChangeFunction(cat), mutation.ShuffleInteractions()},
					[]float64{0.6, 0.3, 0.1},
				),
				Evaluator:  ev,
				PCrossover: 0.9,
				PMutation:  0.25,
				Dataset:    ds,
				TrainRange: trainRange,
				Target:     target,
			}
			gen, err := generator.NewBasic(gcfg)
			if err != nil {
				return err
			}

			ecfg := engine.Config{
				PopulationSize: popSize,
				PoolSize:       poolSize,
				TermCount:      termCount,
				MaxGenerations: generations,
				Workers:        0,
				Creator:        cr,
				Generator:      gen,
				Reinserter:     reinserter.ReplaceWorst(cmp),
				Comparator:     cmp,
				Evaluator:      ev,
				Dataset:        ds,
				TrainRange:     trainRange,
				Target:         target,
				Logger:         logger,
			}

			gp, err := engine.New(ecfg, rand.New(rand.NewSource(seed)))
			if err != nil {
				return err
			}

			rec := bench.NewRecorder(ev)
			best, err := gp.Run(cmd.Context(), rec.Report)
			if err != nil {
				return err
			}

			fmt.Println("best:", format.Format(best))
			fmt.Printf("fitness: %g\n", best.Fitness[0])

			if outStats != "" {
				if err := bench.WriteCSV(outStats, rec.History); err != nil {
					return fmt.Errorf("writing stats: %w", err)
				}
				fmt.Println("stats written to", outStats)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&csvPath, "csv", "", "path to a CSV dataset (required)")
	flags.StringVar(&targetCol, "target", "y", "name of the target column")
	flags.StringVar(&outStats, "stats", "", "path to write per-generation statistics CSV (optional)")
	flags.IntVar(&popSize, "population", 200, "population size")
	flags.IntVar(&poolSize, "pool", 100, "offspring produced per generation")
	flags.IntVar(&termCount, "terms", 3, "number of terms per initial individual")
	flags.IntVar(&generations, "generations", 100, "generation limit")
	flags.IntVar(&budget, "budget", evaluator.DefaultEvaluationBudget, "evaluation budget")
	flags.Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	flags.BoolVar(&verbose, "verbose", false, "log per-generation debug events")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

// loadCSV reads a header row plus numeric rows from path and splits
// off targetCol as the regression target, returning the remaining
// columns as a Dataset.
func loadCSV(path, targetCol string) (*dataset.Dataset, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("turingforge: csv %q has no data rows", path)
	}
	header := rows[0]

	targetIdx := -1
	var predictorNames []string
	var predictorIdx []int
	for i, name := range header {
		if name == targetCol {
			targetIdx = i
			continue
		}
		predictorNames = append(predictorNames, name)
		predictorIdx = append(predictorIdx, i)
	}
	if targetIdx < 0 {
		return nil, nil, fmt.Errorf("turingforge: target column %q not found in header", targetCol)
	}

	n := len(rows) - 1
	target := make([]float64, n)
	columns := make([][]float64, len(predictorIdx))
	for c := range columns {
		columns[c] = make([]float64, n)
	}

	for i, row := range rows[1:] {
		v, err := strconv.ParseFloat(row[targetIdx], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("turingforge: row %d target: %w", i+1, err)
		}
		target[i] = v
		for c, idx := range predictorIdx {
			v, err := strconv.ParseFloat(row[idx], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("turingforge: row %d column %q: %w", i+1, header[idx], err)
			}
			columns[c][i] = v
		}
	}

	ds, err := dataset.NewDataset(predictorNames, columns)
	if err != nil {
		return nil, nil, err
	}
	return ds, target, nil
}
