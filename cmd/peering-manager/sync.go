// Copyright 2026 The Peering Manager Authors
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

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/XioNoX/peering-manager/internal/config"
	"github.com/XioNoX/peering-manager/internal/node"
	"github.com/XioNoX/peering-manager/reconcile"
	"github.com/spf13/cobra"
)

var syncFlags = struct {
	since int64
	full  bool
}{}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func syncRun(cmd *cobra.Command, cfg *config.Config) error {
	logger := quietLogger()
	db, err := node.OpenDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	synchronizer, err := reconcile.New(reconcile.Config{
		DB:     db,
		Client: node.NewRegistryClient(cfg, logger),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(
		cmd.Context(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	var res *reconcile.Result
	switch {
	case syncFlags.full:
		res, err = synchronizer.RunSince(ctx, 0)
	case syncFlags.since >= 0:
		res, err = synchronizer.RunSince(ctx, syncFlags.since)
	default:
		res, err = synchronizer.Run(ctx)
	}
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}
	return printJSON(res)
}

func syncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation pass against the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return syncRun(cmd, mustConfig(cmd))
		},
	}
	cmd.Flags().
		Int64Var(&syncFlags.since, "since", -1, "UNIX time to reconcile from (default: last checkpoint)")
	cmd.Flags().
		BoolVar(&syncFlags.full, "full", false, "reconcile every record regardless of the last checkpoint")
	return cmd
}
