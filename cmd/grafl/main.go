// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command grafl is a thin CLI over internal/tool and the driver
// adapters: it wires flags to a Tool instance and prints or writes the
// resulting trees. It carries no fuzzing-strategy logic of its own
// (SPEC_FULL.md §4).
package main

import (
	"fmt"
	"hash/fnv"
	"os"
	"sort"
	"strings"

	"github.com/alecthomas/repr"
	log "github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/salikh/grafl/internal/codec"
	"github.com/salikh/grafl/internal/config"
	"github.com/salikh/grafl/internal/driver/afl"
	"github.com/salikh/grafl/internal/driver/blackbox"
	"github.com/salikh/grafl/internal/gen"
	"github.com/salikh/grafl/internal/grammar"
	"github.com/salikh/grafl/internal/individual"
	"github.com/salikh/grafl/internal/model"
	"github.com/salikh/grafl/internal/ruletree"
	"github.com/salikh/grafl/internal/tool"
	"github.com/salikh/grafl/internal/trim"
)

var (
	flagGrammar     string
	flagMaxDepth    int
	flagMaxTokens   int
	flagMemoSize    int
	flagSeed        int64
	flagCount       int
	flagOutDir      string
	flagWeightsPath string
)

func registryByName(name string) (*gen.Registry, error) {
	switch name {
	case "hello-world":
		return grammar.HelloWorld(), nil
	case "recursive-depth":
		return grammar.RecursiveDepth(), nil
	case "max-tokens":
		return grammar.MaxTokens(), nil
	case "abc":
		return grammar.ABC(), nil
	default:
		return nil, fmt.Errorf("unknown --grammar %q (want one of hello-world, recursive-depth, max-tokens, abc)", name)
	}
}

func buildTool(cmd *cobra.Command) (*tool.Tool, error) {
	reg, err := registryByName(flagGrammar)
	if err != nil {
		return nil, err
	}
	limit := ruletree.Size{Depth: flagMaxDepth, Tokens: flagMaxTokens}
	m := model.New(flagSeed)
	t := tool.New(reg, m, flagSeed, limit)
	t.Memo = tool.NewMemo(flagMemoSize)
	if flagWeightsPath != "" {
		w, err := config.LoadWeightsFile(flagWeightsPath)
		if err != nil {
			return nil, fmt.Errorf("loading --weights %q: %w", flagWeightsPath, err)
		}
		known := map[string]bool{}
		for name := range reg.Rules {
			known[name] = true
		}
		weighted := model.NewWeighted(m, map[model.AltKey]float64{}, map[model.QuantKey]float64{},
			func(n *ruletree.Node) string { return n.Name })
		w.Apply(weighted, known)
		t.Model = weighted
	}
	return t, nil
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate fresh trees from the selected grammar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDriver(tool.ModeGenerate)
		},
	}
	return cmd
}

func newMutateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mutate",
		Short: "Mutate one generated tree per call",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDriver(tool.ModeMutate)
		},
	}
}

func newRecombineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recombine",
		Short: "Generate a small seed population, then recombine within it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDriver(tool.ModeRecombine)
		},
	}
}

func runDriver(mode tool.Mode) error {
	t, err := buildTool(nil)
	if err != nil {
		return err
	}
	pop := individual.NewPopulation()
	if mode == tool.ModeRecombine {
		for i := 0; i < 2; i++ {
			node := t.CreateTree(tool.ModeGenerate, nil, nil)
			if node == nil {
				return fmt.Errorf("grafl: failed to seed population for recombination")
			}
			pop.Add(individual.New(node))
		}
	}
	d := blackbox.New(t, pop, func(n *ruletree.Node) []byte { return []byte(ruletree.Text(n) + "\n") })
	d.Mode = mode
	d.OutDir = flagOutDir
	if flagOutDir != "" {
		if err := os.MkdirAll(flagOutDir, 0o755); err != nil {
			return err
		}
	}
	for i := 0; i < flagCount; i++ {
		path, err := d.CreateTest(i)
		if err != nil {
			return err
		}
		if path != "" {
			log.V(1).Infof("grafl: wrote %s", path)
		}
	}
	return nil
}

// dumpNode is an acyclic mirror of ruletree.Node, dropping the Parent
// back-pointer, for repr.Println: repr has no cycle guard, and Node's
// Parent/Children pair is cyclic.
type dumpNode struct {
	Kind       ruletree.Kind
	Name       string
	Src        string
	Depth      int
	Tokens     int
	Immutable  bool
	QuantIndex int
	Start, Stop int
	AltIndex   int
	Chosen     int
	Children   []*dumpNode
}

func toDumpNode(n *ruletree.Node) *dumpNode {
	if n == nil {
		return nil
	}
	d := &dumpNode{
		Kind: n.Kind, Name: n.Name, Src: n.Src, Depth: n.Depth, Tokens: n.Tokens,
		Immutable: n.Immutable, QuantIndex: n.QuantIndex, Start: n.Start, Stop: n.Stop,
		AltIndex: n.AltIndex, Chosen: n.Chosen,
	}
	for _, ch := range n.Children {
		d.Children = append(d.Children, toDumpNode(ch))
	}
	return d
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Generate one tree and dump its repr.Println structure",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := buildTool(nil)
			if err != nil {
				return err
			}
			node := t.CreateTree(tool.ModeGenerate, nil, nil)
			if node == nil {
				return fmt.Errorf("grafl: generation failed")
			}
			repr.Println(toDumpNode(node))
			return nil
		},
	}
}

func fnvHash(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data)
	return h.Sum64()
}

func newTrimCmd() *cobra.Command {
	var keep string
	var maxSteps int
	cmd := &cobra.Command{
		Use:   "trim",
		Short: "Generate a tree, then delta-debug its quantified repetitions against a keep-substring oracle",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := buildTool(nil)
			if err != nil {
				return err
			}
			node := t.CreateTree(tool.ModeGenerate, nil, nil)
			if node == nil {
				return fmt.Errorf("grafl: generation failed")
			}
			tr := afl.AFLCustomInitTrim(node, fnvHash, maxSteps, 256)
			for {
				data, status := tr.CustomTrim()
				if status != trim.StatusContinue {
					break
				}
				decoded, err := codec.DecodeBinary(data)
				if err != nil {
					return err
				}
				tr.CustomPostTrim(strings.Contains(ruletree.Text(decoded), keep))
			}
			result, err := tr.Result()
			if err != nil {
				return err
			}
			fmt.Println(ruletree.Text(result))
			return nil
		},
	}
	cmd.Flags().StringVar(&keep, "keep-substring", "", "delta-debugging oracle: keep reducing while the output still contains this substring")
	cmd.Flags().IntVar(&maxSteps, "max-trim-steps", 0, "bound on trim steps (0 = unbounded)")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Generate --n trees and report internal/tool.Tool.Stats counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := buildTool(nil)
			if err != nil {
				return err
			}
			for i := 0; i < flagCount; i++ {
				t.CreateUnique(tool.ModeAny, nil, nil)
			}
			s := t.Stats
			names := make([]string, 0, len(s.Attempted))
			for name := range s.Attempted {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("%-28s attempted=%-5d succeeded=%d\n", name, s.Attempted[name], s.Succeeded[name])
			}
			fmt.Printf("memo: hits=%d misses=%d\n", s.MemoHits, s.MemoMisses)
			fmt.Printf("relaxations=%d\n", s.Relaxations)
			return nil
		},
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "grafl",
		Short: "grafl drives grammar-based fuzz-input generation, mutation and recombination",
	}
	root.PersistentFlags().StringVar(&flagGrammar, "grammar", "hello-world", "compiled grammar fixture to use")
	root.PersistentFlags().IntVar(&flagMaxDepth, "max-depth", 20, "maximum derivation depth")
	root.PersistentFlags().IntVar(&flagMaxTokens, "max-tokens", 200, "maximum token count")
	root.PersistentFlags().IntVar(&flagMemoSize, "memo-size", 0, "duplicate-output memo capacity (0 disables)")
	root.PersistentFlags().Int64Var(&flagSeed, "seed", 1, "random seed")
	root.PersistentFlags().IntVar(&flagCount, "n", 1, "number of trees to produce")
	root.PersistentFlags().StringVar(&flagOutDir, "out-dir", "", "directory to write tests into (stdout if empty)")
	root.PersistentFlags().StringVar(&flagWeightsPath, "weights", "", "path to a §6 weights JSON file")
	root.AddCommand(newGenerateCmd(), newMutateCmd(), newRecombineCmd(), newTrimCmd(), newDumpCmd(), newStatsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Exitf("grafl: %v", err)
	}
}
