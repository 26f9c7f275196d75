package store

import (
	"fmt"
	"strings"
)

// ReadFrom is a cluster read preference.
type ReadFrom string

// Recognized read preferences. Legacy names are accepted as aliases and
// normalized to these values.
const (
	ReadFromUpstream          ReadFrom = "UPSTREAM"
	ReadFromUpstreamPreferred ReadFrom = "UPSTREAM_PREFERRED"
	ReadFromReplica           ReadFrom = "REPLICA"
	ReadFromReplicaPreferred  ReadFrom = "REPLICA_PREFERRED"
	ReadFromNearest           ReadFrom = "NEAREST"
	ReadFromAny               ReadFrom = "ANY"
	ReadFromAnyReplica        ReadFrom = "ANY_REPLICA"
	ReadFromLowestLatency     ReadFrom = "LOWEST_LATENCY"
)

var readFromTokens = map[string]ReadFrom{
	"master":            ReadFromUpstream,
	"upstream":          ReadFromUpstream,
	"masterpreferred":   ReadFromUpstreamPreferred,
	"upstreampreferred": ReadFromUpstreamPreferred,
	"slave":             ReadFromReplica,
	"replica":           ReadFromReplica,
	"slavepreferred":    ReadFromReplicaPreferred,
	"replicapreferred":  ReadFromReplicaPreferred,
	"nearest":           ReadFromNearest,
	"any":               ReadFromAny,
	"anyreplica":        ReadFromAnyReplica,
	"lowestlatency":     ReadFromLowestLatency,
}

var tokenFolder = strings.NewReplacer("_", "", "-", "")

// ParseReadFrom matches a read preference token ignoring case, underscores
// and hyphens: "replicaPreferred", "REPLICA_PREFERRED" and "replica-preferred"
// are the same token.
func ParseReadFrom(s string) (ReadFrom, error) {
	if rf, ok := readFromTokens[tokenFolder.Replace(strings.ToLower(s))]; ok {
		return rf, nil
	}
	return "", fmt.Errorf("unrecognized read preference %q", s)
}

// ReadsFromReplicas reports whether reads may be served by replica nodes.
func (r ReadFrom) ReadsFromReplicas() bool {
	return r != ReadFromUpstream
}

func (r ReadFrom) String() string { return string(r) }
