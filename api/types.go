package api

import "github.com/ruteri/badge-oracle/interfaces"

type NewBadgeRequest struct {
	Name string `json:"name"`
}

type NewBadgeResponse struct {
	ID uint32 `json:"id"`
}

type TotalBadgesResponse struct {
	Total uint32 `json:"total"`
}

type IssuerRequest struct {
	Issuer interfaces.AccountID `json:"issuer"`
}

type IssuersResponse struct {
	Issuers []interfaces.AccountID `json:"issuers"`
}

type IsIssuerResponse struct {
	Issuer bool `json:"issuer"`
}

type AddCodeRequest struct {
	Codes []string `json:"codes"`
}

type IssueRequest struct {
	Dest interfaces.AccountID `json:"dest"`
}

type CodeResponse struct {
	Code string `json:"code"`
}

type AdminResponse struct {
	Admin interfaces.AccountID `json:"admin"`
}

// AttestRequest is the generic submittable-oracle query.
type AttestRequest struct {
	Arg string `json:"arg"`
}

type AttestGistRequest struct {
	URL string `json:"url"`
}

type CheckContractRequest struct {
	Contract interfaces.ContractLocator `json:"contract"`
	URL      string                     `json:"url"`
}

type ConfigIssuerRequest struct {
	Contract interfaces.ContractLocator `json:"contract"`
	BadgeID  uint32                     `json:"badge_id"`
}

type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}
