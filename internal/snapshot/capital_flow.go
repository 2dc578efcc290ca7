package snapshot

import (
	"context"
	"time"
)

// CapitalFlowSource is the injected external collaborator for a
// portfolio's daily net capital flow (deposits minus withdrawals) -- an
// inbound contract field this engine consumes but never computes, per
// spec.md's "external collaborators, interfaces only" framing. Same shape
// as internal/risk's SectorSource/BenchmarkWeightSource.
type CapitalFlowSource interface {
	NetFlow(ctx context.Context, portfolioID string, date time.Time) (float64, error)
}
