package badges

import "github.com/ruteri/badge-oracle/interfaces"

var (
	ErrBadOrigin     = interfaces.ErrBadOrigin
	ErrBadgeNotFound = interfaces.NewError(interfaces.KindNotFound, "BadgeNotFound", "badge not found")
	ErrNotAnIssuer   = interfaces.NewError(interfaces.KindAuthorization, "NotAnIssuer", "caller is not an issuer of the badge")
	ErrRunOutOfCode  = interfaces.NewError(interfaces.KindConflict, "RunOutOfCode", "badge has no unissued codes")
	ErrDuplicated    = interfaces.NewError(interfaces.KindConflict, "Duplicated", "account already holds the badge")
	ErrNotFound      = interfaces.NewError(interfaces.KindNotFound, "NotFound", "no code assigned to the account")
)
