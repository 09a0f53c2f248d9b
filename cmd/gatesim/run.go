// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/db47h/gatesim"
	"github.com/db47h/gatesim/batch"
	"github.com/db47h/gatesim/netfile"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		sim   string
		trace bool
	)
	cmd := &cobra.Command{
		Use:   "run file",
		Short: "Run the simulations of a netfile one by one",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			f, chips, err := a.load(args[0])
			if err != nil {
				return err
			}
			sims := f.Simulations
			if sim != "" {
				s := f.Simulation(sim)
				if s == nil {
					return errors.Errorf("%s: no simulation named %s", args[0], sim)
				}
				sims = []*netfile.Simulation{s}
			}
			w := cmd.OutOrStdout()
			failed := 0
			for _, s := range sims {
				opts := a.options()
				if trace {
					opts = append(opts, gatesim.WithObserver(traceObserver(w, s.Name)))
				}
				r, err := s.Run(cmd.Context(), chips, opts...)
				if err != nil {
					return err
				}
				if !report(w, r) {
					failed++
				}
			}
			if failed > 0 {
				return errors.Errorf("%d simulation(s) failed", failed)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&sim, "sim", "s", "", "only run the named simulation")
	cmd.Flags().BoolVar(&trace, "trace-nets", false, "print net changes")
	return cmd
}

// traceObserver prints net changes, conflicts and oscillations to w.
//
func traceObserver(w io.Writer, name string) gatesim.Observer {
	return gatesim.Funcs{
		OnChange: func(tick uint64, ch []gatesim.Change) {
			var b strings.Builder
			for i, c := range ch {
				if i > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(c.Net + "=" + c.Value.String())
			}
			fmt.Fprintf(w, "%s: tick %d: %s\n", name, tick, b.String())
		},
		OnConflict: func(tick uint64, nets []string) {
			fmt.Fprintf(w, "%s: tick %d: conflict on %s\n", name, tick, strings.Join(nets, ", "))
		},
		OnHalt: func(err *gatesim.OscillationError) {
			fmt.Fprintf(w, "%s: %v\n", name, err)
		},
	}
}

// report prints the result of a simulation and returns true if it passed.
//
func report(w io.Writer, r *netfile.Result) bool {
	if r.Passed() {
		fmt.Fprintf(w, "PASS %s (%d steps, %d ticks)\n", r.Name, r.Steps, r.Ticks)
		return true
	}
	fmt.Fprintf(w, "FAIL %s\n", r.Name)
	for _, f := range r.Failures {
		fmt.Fprintf(w, "    %s\n", f)
	}
	return false
}

func newTestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test file...",
		Short: "Run all simulations of the given netfiles concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			return a.test(cmd.Context(), cmd.OutOrStdout(), args)
		}),
	}
}

// test runs all simulations found in files and prints a report.
//
func (a *app) test(ctx context.Context, w io.Writer, files []string) error {
	var (
		jobs  []batch.Job[*netfile.Result]
		names []string
	)
	for _, fn := range files {
		f, chips, err := a.load(fn)
		if err != nil {
			return err
		}
		for _, s := range f.Simulations {
			names = append(names, fn+": "+s.Name)
			jobs = append(jobs, func(ctx context.Context) (*netfile.Result, error) {
				return s.Run(ctx, chips, a.options()...)
			})
		}
	}
	res, errs := batch.Collect(ctx, a.cfg.Simulation.Parallelism, jobs)
	failed := 0
	for i, r := range res {
		if errs[i] != nil {
			fmt.Fprintf(w, "ERROR %s: %v\n", names[i], errs[i])
			failed++
			continue
		}
		if !report(w, r) {
			failed++
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d simulation(s) failed", failed, len(jobs))
	}
	return nil
}
