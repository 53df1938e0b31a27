// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

// Command rexc is manual-exploration tooling over the library: compile a
// pattern and print its strategy, run one match, or dump a compilation
// cache snapshot as YAML. It does not add matching semantics of its own.
package main

import (
	"fmt"
	"os"
	"regexp/syntax"

	"github.com/spf13/cobra"

	"github.com/relang/rex/ast"
	"github.com/relang/rex/cache"
	"github.com/relang/rex/config"
	"github.com/relang/rex/exec"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "rexc",
		Short: "Exploration CLI for the regex compiler core",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a limits YAML file (defaults built in)")

	root.AddCommand(compileCmd(), matchCmd(), dumpCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func limits() (config.Limits, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func parsePattern(pattern string, ignoreCase, multiline, dotAll, unicode bool) (ast.Node, ast.Flags, int, error) {
	synFlags := syntax.Perl
	if ignoreCase {
		synFlags |= syntax.FoldCase
	}
	re, err := syntax.Parse(pattern, synFlags)
	if err != nil {
		return nil, ast.Flags{}, 0, fmt.Errorf("parse %q: %w", pattern, err)
	}
	tree, err := ast.FromSyntax(re)
	if err != nil {
		return nil, ast.Flags{}, 0, err
	}
	flags := ast.Flags{
		IgnoreCase: ignoreCase,
		Multiline:  multiline,
		DotAll:     dotAll,
		Unicode:    unicode,
	}
	return tree, flags, re.MaxCap(), nil
}

func compileCmd() *cobra.Command {
	var ignoreCase, multiline, dotAll, unicode bool
	cmd := &cobra.Command{
		Use:   "compile <pattern>",
		Short: "Compile a pattern and report the strategy and register count it was assigned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lim, err := limits()
			if err != nil {
				return err
			}
			tree, flags, caps, err := parsePattern(args[0], ignoreCase, multiline, dotAll, unicode)
			if err != nil {
				return err
			}
			e := exec.NewEngine(lim)
			re, err := e.Compile(args[0], tree, flags, caps, nil)
			if err != nil {
				return fmt.Errorf("compile: %w", err)
			}
			fmt.Printf("pattern:  %s\n", re.Source)
			fmt.Printf("strategy: %s\n", re.Strategy)
			fmt.Printf("captures: %d\n", re.CaptureCount)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "case-insensitive matching")
	cmd.Flags().BoolVarP(&multiline, "multiline", "m", false, "^ and $ match line boundaries")
	cmd.Flags().BoolVarP(&dotAll, "dotall", "s", false, "dot matches newline")
	cmd.Flags().BoolVarP(&unicode, "unicode", "u", false, "full-unicode mode")
	return cmd
}

func matchCmd() *cobra.Command {
	var ignoreCase, multiline, dotAll, unicode, global bool
	cmd := &cobra.Command{
		Use:   "match <pattern> <subject>",
		Short: "Match pattern against subject and print capture offsets",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lim, err := limits()
			if err != nil {
				return err
			}
			tree, flags, caps, err := parsePattern(args[0], ignoreCase, multiline, dotAll, unicode)
			if err != nil {
				return err
			}
			flags.Global = global
			e := exec.NewEngine(lim)
			re, err := e.Compile(args[0], tree, flags, caps, nil)
			if err != nil {
				return fmt.Errorf("compile: %w", err)
			}

			if !global {
				return printOneMatch(e, re, args[1])
			}
			g := exec.NewGlobalCache(e, re, args[1])
			n := 0
			for {
				info, ok := g.Next()
				if !ok {
					break
				}
				printCaptures(info, re.CaptureCount)
				n++
			}
			if n == 0 {
				fmt.Println("no match")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "case-insensitive matching")
	cmd.Flags().BoolVarP(&multiline, "multiline", "m", false, "^ and $ match line boundaries")
	cmd.Flags().BoolVarP(&dotAll, "dotall", "s", false, "dot matches newline")
	cmd.Flags().BoolVarP(&unicode, "unicode", "u", false, "full-unicode mode")
	cmd.Flags().BoolVarP(&global, "global", "g", false, "find every non-overlapping match")
	return cmd
}

func printOneMatch(e *exec.Engine, re *exec.Regexp, subject string) error {
	result, info, err := e.Exec(re, subject, 0)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	switch result {
	case exec.Success:
		printCaptures(info, re.CaptureCount)
	case exec.Failure:
		fmt.Println("no match")
	case exec.Exception:
		fmt.Println("exception")
	}
	return nil
}

func printCaptures(info *exec.MatchInfo, captureCount int) {
	for i := 0; i <= captureCount; i++ {
		start, end := info.Capture(i)
		fmt.Printf("cap%d: [%d,%d]\n", i, start, end)
	}
}

func dumpCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "dump <snapshot-file>",
		Short: "Render a compilation-cache snapshot as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			snap, err := cache.LoadSnapshot(f)
			if err != nil {
				return err
			}
			yamlBytes, err := snap.DebugYAML()
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Print(string(yamlBytes))
				return nil
			}
			return os.WriteFile(out, yamlBytes, 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write YAML to this file instead of stdout")
	return cmd
}
