// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command gatesim checks and simulates circuits described in HCL netfiles.
//
//	gatesim check adder.hcl
//	gatesim test adder.hcl counter.hcl
//	gatesim run --sim half_adder --trace-nets adder.hcl
//	gatesim watch adder.hcl
//
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
