// Package badges implements the badge registry: badge definitions, issuer
// sets, the redeem-code inventory and the assignment ledger.
//
// A badge is created by its admin, who loads codes and grants issuers. An
// issuer (or the admin) issues the badge to an account, which binds the
// account to the next unissued code slot. Each account receives at most one
// code per badge and each code is granted at most once.
//
// Every mutation holds the registry lock for its whole check-then-act and
// commits in a single store transaction, so a failed call leaves no trace.
package badges
