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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/XioNoX/peering-manager/peeringdb"
	"github.com/XioNoX/peering-manager/resolver"
	"github.com/gorilla/mux"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 1000
	maxAsn              = 4294967295
	maxID               = 1<<63 - 1
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// writeLookupError maps a resolver failure to a response
func (s *Server) writeLookupError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	switch {
	case errors.Is(err, resolver.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, peeringdb.ErrUnavailable):
		s.logger.Warn(
			"registry unavailable",
			"path", r.URL.Path,
			"error", err,
		)
		writeError(
			w,
			http.StatusBadGateway,
			"registry unavailable, try again later",
		)
	default:
		s.logger.Error(
			"lookup failed",
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "lookup failed")
	}
}

// pathInt parses a positive integer path variable no larger than upper
func pathInt(r *http.Request, name string, upper int64) (int64, error) {
	raw := mux.Vars(r)[name]
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 || v > upper {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func (s *Server) handleUnknownRoute(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "no such route")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
		Syncing:   s.sync != nil && s.sync.Running(),
	})
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	asn, err := pathInt(r, "asn", maxAsn)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	network, err := s.resolver.GetNetwork(r.Context(), asn)
	if err != nil {
		s.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, network)
}

func (s *Server) handleNetworkIXLANs(w http.ResponseWriter, r *http.Request) {
	asn, err := pathInt(r, "asn", maxAsn)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ixlans, err := s.resolver.GetIXLANsForAsn(r.Context(), asn)
	if err != nil {
		s.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NetworkIXLANsResponse{
		Asn:    asn,
		IXLANs: ixlans,
	})
}

func (s *Server) handleIXLAN(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id", maxID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ixlan, err := s.resolver.GetIXLAN(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ixlan)
}

func (s *Server) handleIXLANPrefixes(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id", maxID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	prefixes, err := s.resolver.GetPrefixesForIXLAN(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PrefixesResponse{
		IXLAN:    id,
		Prefixes: prefixes,
	})
}

func (s *Server) handleIXPeers(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id", maxID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	peers, err := s.resolver.GetPeersForIX(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PeersResponse{
		IX:    id,
		Peers: peers,
	})
}

// handleSync runs a pass, or joins the one in flight. A client going away
// does not cancel a pass other callers may be waiting on.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	res, err := s.sync.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		if errors.Is(err, peeringdb.ErrUnavailable) {
			s.writeLookupError(w, r, err)
			return
		}
		s.logger.Error("reconciliation failed", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"reconciliation failed, no changes were applied",
		)
		return
	}
	writeJSON(w, http.StatusOK, SyncResponse{
		PassID:        res.PassID,
		Since:         res.Since,
		Added:         res.Added,
		Updated:       res.Updated,
		Deleted:       res.Deleted,
		Changes:       res.Changes,
		Failures:      res.Failures,
		UnknownFields: res.UnknownFields,
		DurationMs:    res.Duration.Milliseconds(),
		Checkpointed:  res.Checkpoint != nil,
	})
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxHistoryLimit {
			writeError(
				w,
				http.StatusBadRequest,
				fmt.Sprintf("invalid limit %q", raw),
			)
			return
		}
		limit = v
	}
	checkpoints, err := s.sync.History(limit)
	if err != nil {
		s.logger.Error("failed to read sync history", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"failed to read sync history",
		)
		return
	}
	resp := SyncStatusResponse{
		Running: s.sync.Running(),
		History: make([]Checkpoint, 0, len(checkpoints)),
	}
	for _, c := range checkpoints {
		resp.History = append(resp.History, Checkpoint{
			Time:    c.Time,
			Added:   c.Added,
			Updated: c.Updated,
			Deleted: c.Deleted,
		})
	}
	if len(checkpoints) > 0 {
		resp.LastSync = checkpoints[0].Time.Unix()
	}
	writeJSON(w, http.StatusOK, resp)
}
