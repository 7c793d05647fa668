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

import "fmt"

// Namespace is the path segment the registry uses for an object kind
type Namespace string

const (
	NamespaceFacility                   Namespace = "fac"
	NamespaceInternetExchange           Namespace = "ix"
	NamespaceInternetExchangeFacility   Namespace = "ixfac"
	NamespaceInternetExchangeLAN        Namespace = "ixlan"
	NamespaceInternetExchangePrefix     Namespace = "ixpfx"
	NamespaceNetwork                    Namespace = "net"
	NamespaceNetworkFacility            Namespace = "netfac"
	NamespaceNetworkInternetExchangeLAN Namespace = "netixlan"
	NamespaceOrganization               Namespace = "org"
	NamespaceNetworkContact             Namespace = "poc"
)

var namespacesByKind = map[string]Namespace{
	"facility":                      NamespaceFacility,
	"internet_exchange":             NamespaceInternetExchange,
	"internet_exchange_facility":    NamespaceInternetExchangeFacility,
	"internet_exchange_lan":         NamespaceInternetExchangeLAN,
	"internet_exchange_prefix":      NamespaceInternetExchangePrefix,
	"network":                       NamespaceNetwork,
	"network_facility":              NamespaceNetworkFacility,
	"network_internet_exchange_lan": NamespaceNetworkInternetExchangeLAN,
	"organization":                  NamespaceOrganization,
	"network_contact":               NamespaceNetworkContact,
}

// NamespaceFor returns the registry namespace for an internal object kind
// name such as "network" or "internet_exchange_prefix".
func NamespaceFor(kind string) (Namespace, error) {
	ns, ok := namespacesByKind[kind]
	if !ok {
		return "", fmt.Errorf("unknown object kind %q", kind)
	}
	return ns, nil
}

func (n Namespace) String() string {
	return string(n)
}
