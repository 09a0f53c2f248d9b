// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check file...",
		Short: "Check netfiles for structural errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			for _, fn := range args {
				f, _, err := a.load(fn)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chips, %d simulations\n", fn, len(f.Chips), len(f.Simulations))
			}
			return nil
		}),
	}
}
