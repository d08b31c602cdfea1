package upgrade

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bundlebay/giftcore/internal/repos/entitlements"
	pgentitlements "github.com/bundlebay/giftcore/internal/repos/entitlements/postgres"
)

// BundleSource supplies bundle tier definitions. The catalog service owns
// this data; we only read it.
type BundleSource interface {
	BundleForEntitlement(ctx context.Context, entitlementID string) (*Bundle, error)
}

type Service struct {
	entitlements entitlements.Entitlements
	bundles      BundleSource
	now          func() time.Time
}

func New(dbx *sql.DB, bundles BundleSource) *Service {
	return &Service{
		entitlements: pgentitlements.New(dbx),
		bundles:      bundles,
		now:          time.Now,
	}
}

type Report struct {
	Evaluation   Evaluation
	RevenueSplit RevenueSplit
}

// EvaluateUpgrade loads the entitlement snapshot and the bundle definition
// and produces the eligibility evaluation plus the revenue split. Read-only.
func (s *Service) EvaluateUpgrade(ctx context.Context, entitlementID string) (Report, error) {
	ent, err := s.entitlements.Get(ctx, entitlementID)
	if err != nil {
		return Report{}, fmt.Errorf("load entitlement: %w", err)
	}

	bundle, err := s.bundles.BundleForEntitlement(ctx, entitlementID)
	if err != nil {
		return Report{}, fmt.Errorf("load bundle: %w", err)
	}

	return Report{
		Evaluation:   Evaluate(ent, bundle, s.now()),
		RevenueSplit: ComputeRevenueSplit(ent),
	}, nil
}
