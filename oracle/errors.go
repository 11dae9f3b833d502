package oracle

import "github.com/ruteri/badge-oracle/interfaces"

var (
	ErrBadOrigin             = interfaces.ErrBadOrigin
	ErrInvalidParameter      = interfaces.ErrInvalidParameter
	ErrBadgeContractNotSetUp = interfaces.ErrBadgeContractNotSetUp
	ErrFailedToIssueBadge    = interfaces.ErrFailedToIssueBadge
	ErrRequestFailed         = interfaces.ErrRequestFailed
	ErrInvalidSignature      = interfaces.ErrInvalidSignature
	ErrFailedToVerify        = interfaces.ErrFailedToVerify
	ErrNoPermission          = interfaces.ErrNoPermission
	ErrUsernameAlreadyInUse  = interfaces.ErrUsernameAlreadyInUse
	ErrAlreadySubmitted      = interfaces.ErrAlreadySubmitted
)
