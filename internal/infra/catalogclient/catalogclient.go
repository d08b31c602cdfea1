// Package catalogclient is the HTTP client for the external catalog service,
// which owns bundle tier definitions. A missing bundle is not an error: the
// caller gets nil and treats the evaluation as indeterminate.
package catalogclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bundlebay/giftcore/internal/services/upgrade"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

type tierPayload struct {
	Type     string   `json:"type"`
	Price    int64    `json:"price"`
	Products []string `json:"products"`
}

type bundlePayload struct {
	Tiers           []tierPayload `json:"tiers"`
	UpgradeDeadline time.Time     `json:"upgradeDeadline"`
}

func (c *Client) BundleForEntitlement(ctx context.Context, entitlementID string) (*upgrade.Bundle, error) {
	u := fmt.Sprintf("%s/bundles/by-entitlement/%s", c.baseURL, entitlementID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bundle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog responded %d", resp.StatusCode)
	}

	var payload bundlePayload

	err = json.NewDecoder(resp.Body).Decode(&payload)
	if err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}

	bundle := &upgrade.Bundle{UpgradeDeadline: payload.UpgradeDeadline}
	for _, t := range payload.Tiers {
		bundle.Tiers = append(bundle.Tiers, upgrade.Tier{
			Type:     upgrade.TierType(t.Type),
			Price:    t.Price,
			Products: t.Products,
		})
	}

	return bundle, nil
}
