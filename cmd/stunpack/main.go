// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Command stunpack decodes Stunts/4-D Sports Driving resource containers
// (the PC/Amiga "Stunts" container, its EAC/Barchard sibling, and the
// Amiga "RPck" archiver) to stdout or a file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stunpack",
		Short:         "decode Stunts/4-D Sports Driving resource containers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(decompressCmd())
	return root
}
