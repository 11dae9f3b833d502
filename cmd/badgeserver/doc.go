/*
Command badgeserver runs the badge registry, the gist oracle and the judger
in one process behind a single HTTP API.

Routes:
  - /api/badges/...                  badge registry
  - /api/oracles/gist/...            gist oracle
  - /api/oracles/judger/...          submission judger
  - /livez, /readyz, /drain, /undrain

The oracle keys are derived from --master-key, so a restart with the same
key and data directory keeps the oracle accounts and all redemption state.
The accounts are logged at startup; grant them issuance on the badges they
should hand out.

Usage:

	badgeserver --admin 0x<account> --master-key <hex> --data-dir ./data
*/
package main
