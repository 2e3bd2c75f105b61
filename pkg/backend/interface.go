// Package backend defines the client of the remote analysis service that
// assesses IP targets.
package backend

import (
	"context"

	"ipinsight/pkg/domain"
)

// Client is the abstraction over the remote analysis service.
//
//go:generate mockgen -package mockbackend -source=interface.go -destination=mock/mockbackend.go *
type Client interface {
	// Analyze requests a fresh assessment of query, which the caller has
	// already classified as t. Failures are *serrors.Error values whose code
	// is either one of the local codes or the code supplied by the service.
	Analyze(ctx context.Context, query string, t domain.TargetType) (*domain.AnalysisResult, error)
}
