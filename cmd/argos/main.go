// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command argos indexes a folder's text content into a local vector
// index stored inside the folder and answers questions against it.
//
// Usage:
//
//	argos ingest ./docs
//	argos ingest ./docs --dry-run
//	argos ask "how is logging configured?" -p ./docs
//	argos list -p ./docs --runs
//	argos serve -p ./docs
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/argos/pkg/config"
)

// CLI defines the command-line interface.
type CLI struct {
	Ingest  IngestCmd  `cmd:"" help:"Index a folder into a local vector index."`
	Ask     AskCmd     `cmd:"" help:"Ask a question against an indexed folder."`
	List    ListCmd    `cmd:"" help:"List indexed documents, run history, or the file tree."`
	Serve   ServeCmd   `cmd:"" help:"Serve question answering over local HTTP."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose, or json)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("argos version %s\n", version)
	return nil
}

func main() {
	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("argos"),
		kong.Description("Argos - local-first folder indexing and question answering"),
		kong.UsageOnError(),
	)

	// Initialize logger with CLI flags/env vars before any command runs.
	cleanup, err := initLoggerFromCLI(cli.LogLevel, cli.LogFile, cli.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
