/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/untillpro/goutils/cobrau"
)

//go:embed version
var version string

var (
	red   = color.New(color.FgRed).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
)

func main() {
	if err := execRootCmd(os.Args, version); err != nil {
		fmt.Println(red(err))
		os.Exit(1)
	}
}

func execRootCmd(args []string, ver string) error {
	params := &fieldflowParams{}
	rootCmd := cobrau.PrepareRootCmd(
		"fieldflow",
		"Computed fields propagation engine",
		args,
		ver,
		newRunCmd(params),
		newCheckCmd(params),
	)
	rootCmd.PersistentFlags().StringVarP(&params.ConfigFile, "config", "c", "", "path to yaml config file")
	rootCmd.PersistentFlags().StringVarP(&params.DataDir, "data", "d", "", "directory of durable storage, in-memory storage is used if empty")
	return cobrau.ExecCommandAndCatchInterrupt(rootCmd)
}
