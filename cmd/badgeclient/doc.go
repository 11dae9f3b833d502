/*
Command badgeclient talks to a badgeserver.

Commands that change state are signed with --key (or BADGE_CALLER_KEY).
Attestations are printed as JSON and read back by redeem from a file or stdin.

	badgeclient keygen
	badgeclient --key <hex> new-badge --name hackathon
	badgeclient --key <hex> add-code --badge 0 --code a --code b
	badgeclient attest-gist --url https://gist.githubusercontent.com/... > att.json
	badgeclient --key <hex> redeem --oracle gist --attestation att.json
*/
package main
