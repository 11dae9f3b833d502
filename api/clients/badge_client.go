package clients

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ruteri/badge-oracle/api"
	"github.com/ruteri/badge-oracle/badges"
	"github.com/ruteri/badge-oracle/interfaces"
)

// BadgeClient talks to a remote badge registry at baseURL.
type BadgeClient struct {
	httpClient
}

var _ interfaces.Issuable = (*BadgeClient)(nil)

// NewBadgeClient creates a registry stub. signer may be nil for read-only use.
func NewBadgeClient(baseURL string, signer api.RequestSigner, log *slog.Logger) *BadgeClient {
	return &BadgeClient{httpClient: newHTTPClient(baseURL, signer, log)}
}

func badgePath(id uint32, suffix string) string {
	return fmt.Sprintf("/api/badges/%s%s", badges.FormatID(id), suffix)
}

// Issue grants the next code of badgeID to dest, acting as the signer.
func (c *BadgeClient) Issue(ctx context.Context, badgeID uint32, dest interfaces.AccountID) error {
	return c.do(ctx, http.MethodPost, badgePath(badgeID, "/issue"), api.IssueRequest{Dest: dest}, true, nil)
}

func (c *BadgeClient) NewBadge(ctx context.Context, name string) (uint32, error) {
	var resp api.NewBadgeResponse
	if err := c.do(ctx, http.MethodPost, "/api/badges", api.NewBadgeRequest{Name: name}, true, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

func (c *BadgeClient) AddIssuer(ctx context.Context, badgeID uint32, issuer interfaces.AccountID) error {
	return c.do(ctx, http.MethodPost, badgePath(badgeID, "/issuers"), api.IssuerRequest{Issuer: issuer}, true, nil)
}

func (c *BadgeClient) RemoveIssuer(ctx context.Context, badgeID uint32, issuer interfaces.AccountID) error {
	return c.do(ctx, http.MethodDelete, badgePath(badgeID, "/issuers/"+issuer.String()), nil, true, nil)
}

func (c *BadgeClient) AddCode(ctx context.Context, badgeID uint32, codes []string) error {
	return c.do(ctx, http.MethodPost, badgePath(badgeID, "/codes"), api.AddCodeRequest{Codes: codes}, true, nil)
}

// Get returns the code assigned to the signer.
func (c *BadgeClient) Get(ctx context.Context, badgeID uint32) (string, error) {
	var resp api.CodeResponse
	if err := c.do(ctx, http.MethodGet, badgePath(badgeID, "/code"), nil, true, &resp); err != nil {
		return "", err
	}
	return resp.Code, nil
}

func (c *BadgeClient) TotalBadges(ctx context.Context) (uint32, error) {
	var resp api.TotalBadgesResponse
	if err := c.do(ctx, http.MethodGet, "/api/badges", nil, false, &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

func (c *BadgeClient) BadgeInfo(ctx context.Context, badgeID uint32) (badges.BadgeInfo, error) {
	var info badges.BadgeInfo
	err := c.do(ctx, http.MethodGet, badgePath(badgeID, ""), nil, false, &info)
	return info, err
}

func (c *BadgeClient) Issuers(ctx context.Context, badgeID uint32) ([]interfaces.AccountID, error) {
	var resp api.IssuersResponse
	if err := c.do(ctx, http.MethodGet, badgePath(badgeID, "/issuers"), nil, false, &resp); err != nil {
		return nil, err
	}
	return resp.Issuers, nil
}

func (c *BadgeClient) IsBadgeIssuer(ctx context.Context, badgeID uint32, account interfaces.AccountID) (bool, error) {
	var resp api.IsIssuerResponse
	if err := c.do(ctx, http.MethodGet, badgePath(badgeID, "/issuers/"+account.String()), nil, false, &resp); err != nil {
		return false, err
	}
	return resp.Issuer, nil
}
