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
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/XioNoX/peering-manager/internal/config"
	"github.com/XioNoX/peering-manager/internal/node"
	"github.com/XioNoX/peering-manager/resolver"
	"github.com/spf13/cobra"
)

type resolverAPI interface {
	GetNetwork(ctx context.Context, asn int64) (*resolver.Network, error)
	GetIXLANsForAsn(
		ctx context.Context,
		asn int64,
	) ([]resolver.NetworkIXLAN, error)
	GetPrefixesForIXLAN(
		ctx context.Context,
		id int64,
	) ([]resolver.PrefixPair, error)
	GetPeersForIX(ctx context.Context, ixID int64) ([]resolver.Peer, error)
}

func newResolver(
	cfg *config.Config,
	logger *slog.Logger,
) (resolverAPI, func(), error) {
	operatorAsn, err := cfg.RequireOperatorAsn()
	if err != nil {
		return nil, nil, err
	}
	db, err := node.OpenDatabase(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	r, err := resolver.New(resolver.Config{
		DB:          db,
		Client:      node.NewRegistryClient(cfg, logger),
		OperatorAsn: operatorAsn,
		Logger:      logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return r, func() { _ = db.Close() }, nil
}

// withResolver runs fn with a resolver built from the loaded config
func withResolver(
	cmd *cobra.Command,
	fn func(ctx context.Context, r resolverAPI) (any, error),
) error {
	cfg := mustConfig(cmd)
	logger := quietLogger()
	r, closeFn, err := newResolver(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()
	ret, err := fn(cmd.Context(), r)
	if err != nil {
		slog.Debug("lookup failed", "error", err)
		return err
	}
	return printJSON(ret)
}

func parseIntArg(name string, arg string) (int64, error) {
	v, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, arg)
	}
	return v, nil
}

func networkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "network <asn>",
		Short: "Show a network by ASN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asn, err := parseIntArg("asn", args[0])
			if err != nil {
				return err
			}
			return withResolver(
				cmd,
				func(ctx context.Context, r resolverAPI) (any, error) {
					return r.GetNetwork(ctx, asn)
				},
			)
		},
	}
}

func ixlansCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ixlans <asn>",
		Short: "Show the IX LANs a network is present on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asn, err := parseIntArg("asn", args[0])
			if err != nil {
				return err
			}
			return withResolver(
				cmd,
				func(ctx context.Context, r resolverAPI) (any, error) {
					return r.GetIXLANsForAsn(ctx, asn)
				},
			)
		},
	}
}

func prefixesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prefixes <netixlan-id>",
		Short: "Show the prefixes of the LAN behind an IX LAN presence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIntArg("netixlan id", args[0])
			if err != nil {
				return err
			}
			return withResolver(
				cmd,
				func(ctx context.Context, r resolverAPI) (any, error) {
					return r.GetPrefixesForIXLAN(ctx, id)
				},
			)
		},
	}
}

func peersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "peers <ix-id>",
		Short: "Show the potential peers on an IX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIntArg("ix id", args[0])
			if err != nil {
				return err
			}
			return withResolver(
				cmd,
				func(ctx context.Context, r resolverAPI) (any, error) {
					return r.GetPeersForIX(ctx, id)
				},
			)
		},
	}
}
