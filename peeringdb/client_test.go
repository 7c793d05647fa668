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

package peeringdb

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(
	t *testing.T,
	handler http.HandlerFunc,
) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestLookupDefaultsDepth(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/net" {
			t.Errorf("expected path /net, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("depth"); got != "1" {
			t.Errorf("expected depth=1, got %q", got)
		}
		if got := r.URL.Query().Get("asn"); got != "64500" {
			t.Errorf("expected asn=64500, got %q", got)
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf(
				"expected Accept application/json, got %s",
				r.Header.Get("Accept"),
			)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(
			[]byte(`{"data":[{"id":7,"asn":64500,"name":"Example","status":"ok"}]}`),
		)
	})

	client := NewClient(server.URL + "/")
	records, err := client.Lookup(
		t.Context(),
		NamespaceNetwork,
		url.Values{"asn": {"64500"}},
	)
	require.NoError(t, err)
	require.Len(t, records, 1)
	id, err := records[0].ID()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "ok", records[0].Status())
	assert.False(t, records[0].IsDeleted())
}

func TestLookupKeepsExplicitDepth(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("depth"); got != "0" {
			t.Errorf("expected depth=0, got %q", got)
		}
		if got := r.URL.Query().Get("since"); got != "1700000000" {
			t.Errorf("expected since=1700000000, got %q", got)
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	client := NewClient(server.URL)
	params := url.Values{
		"since": {"1700000000"},
		"depth": {"0"},
	}
	records, err := client.Lookup(t.Context(), NamespaceNetwork, params)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	// caller params are not modified
	assert.Len(t, params, 2)
}

func TestLookupNonOKStatus(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	})

	client := NewClient(server.URL)
	records, err := client.Lookup(t.Context(), NamespaceNetwork, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "503")
	assert.Nil(t, records)
}

func TestLookupMalformedBody(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [`))
	})

	client := NewClient(server.URL)
	_, err := client.Lookup(t.Context(), NamespaceNetwork, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLookupTimeout(t *testing.T) {
	release := make(chan struct{})
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	client := NewClient(server.URL, WithTimeout(50*time.Millisecond))
	_, err := client.Lookup(t.Context(), NamespaceNetwork, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLookupConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	serverURL := server.URL
	server.Close()

	client := NewClient(serverURL)
	_, err := client.Lookup(t.Context(), NamespaceNetwork, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHeaders(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Api-Key secret" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("unexpected User-Agent header %q", got)
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	client := NewClient(
		server.URL,
		WithAPIKey("secret"),
		WithUserAgent("test-agent"),
	)
	_, err := client.Lookup(t.Context(), NamespaceOrganization, nil)
	require.NoError(t, err)
}

func TestTypedHelpers(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/netixlan":
			_, _ = w.Write([]byte(`{"data":[{
				"id": 11, "asn": 64500, "ix_id": 3, "ixlan_id": 4,
				"ipaddr4": "192.0.2.1", "ipaddr6": null,
				"name": "Example IX", "status": "ok"
			}]}`))
		case "/ixpfx":
			_, _ = w.Write([]byte(`{"data":[
				{"id": 1, "ixlan_id": 4, "protocol": "IPv4", "prefix": "192.0.2.0/24"},
				{"id": 2, "ixlan_id": 4, "protocol": 6, "prefix": "2001:db8::/64"}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	client := NewClient(server.URL)
	netixlans, err := client.NetworkIXLANs(
		t.Context(),
		url.Values{"asn": {"64500"}},
	)
	require.NoError(t, err)
	require.Len(t, netixlans, 1)
	assert.Equal(t, int64(3), netixlans[0].IxID)
	require.NotNil(t, netixlans[0].Ipaddr4)
	assert.Equal(t, "192.0.2.1", *netixlans[0].Ipaddr4)
	assert.Nil(t, netixlans[0].Ipaddr6)
	assert.Equal(t, "Example IX", netixlans[0].Name)

	prefixes, err := client.Prefixes(
		t.Context(),
		url.Values{"ixlan_id": {"4"}},
	)
	require.NoError(t, err)
	require.Len(t, prefixes, 2)
	assert.Equal(t, ProtocolIPv4, prefixes[0].Protocol)
	assert.Equal(t, ProtocolIPv6, prefixes[1].Protocol)
}

func TestNamespaceFor(t *testing.T) {
	tests := []struct {
		kind     string
		expected Namespace
	}{
		{"network", NamespaceNetwork},
		{"network_internet_exchange_lan", NamespaceNetworkInternetExchangeLAN},
		{"internet_exchange_prefix", NamespaceInternetExchangePrefix},
		{"network_contact", NamespaceNetworkContact},
	}
	for _, tc := range tests {
		t.Run(tc.kind, func(t *testing.T) {
			ns, err := NamespaceFor(tc.kind)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ns)
		})
	}
	_, err := NamespaceFor("router")
	require.Error(t, err)
}

func TestRecordMissingID(t *testing.T) {
	rec := Record{}
	_, err := rec.ID()
	require.Error(t, err)
	assert.Empty(t, rec.Status())
}
