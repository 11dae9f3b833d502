package oracle

import "github.com/ruteri/badge-oracle/interfaces"

// GistQuote binds a gist owner's username to the account claimed in the gist.
type GistQuote struct {
	Username  string
	AccountID interfaces.AccountID
}

// GoodSubmission states that the oracle with account Contract, administered
// by Admin, passed the judger's check.
type GoodSubmission struct {
	Admin    interfaces.AccountID
	Contract interfaces.AccountID
}
