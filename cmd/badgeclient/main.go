package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goccy/go-json"
	"github.com/ruteri/badge-oracle/api"
	"github.com/ruteri/badge-oracle/api/clients"
	"github.com/ruteri/badge-oracle/attestation"
	"github.com/ruteri/badge-oracle/cmd/flags"
	"github.com/ruteri/badge-oracle/interfaces"
	"github.com/urfave/cli/v2"
)

var flagBadge = &cli.UintFlag{
	Name:     "badge",
	Required: true,
	Usage:    "badge id",
}
var flagOracle = &cli.StringFlag{
	Name:  "oracle",
	Value: "gist",
	Usage: "oracle name on the server: gist or judger",
}
var flagAccount = &cli.StringFlag{
	Name:     "account",
	Required: true,
	Usage:    "hex-encoded 32-byte account",
}
var flagContract = &cli.StringFlag{
	Name:     "contract",
	Required: true,
	Usage:    "contract locator: local:<name> or a base URL",
}
var flagURL = &cli.StringFlag{
	Name:     "url",
	Required: true,
	Usage:    "raw gist URL",
}

// Client holds what every command needs.
type Client struct {
	serverURL string
	key       *clients.CallerKey
	log       *slog.Logger
	out       io.Writer
}

func NewClient(cCtx *cli.Context) (*Client, error) {
	c := &Client{
		serverURL: cCtx.String(flags.ServerURLFlag.Name),
		log:       flags.SetupLogger(cCtx),
		out:       os.Stdout,
	}
	if keyHex := cCtx.String(flags.CallerKeyFlag.Name); keyHex != "" {
		key, err := clients.NewCallerKeyFromHex(keyHex)
		if err != nil {
			return nil, err
		}
		c.key = key
	}
	return c, nil
}

func (c *Client) badges() *clients.BadgeClient {
	if c.key == nil {
		return clients.NewBadgeClient(c.serverURL, nil, c.log)
	}
	return clients.NewBadgeClient(c.serverURL, c.key, c.log)
}

func (c *Client) oracle(name string) *clients.OracleClient {
	baseURL := c.serverURL + "/api/oracles/" + name
	if c.key == nil {
		return clients.NewOracleClient(baseURL, nil, c.log)
	}
	return clients.NewOracleClient(baseURL, c.key, c.log)
}

func (c *Client) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readAttestation(path string) (attestation.Attestation, error) {
	var (
		raw []byte
		err error
	)
	if path == "" || path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return attestation.Attestation{}, fmt.Errorf("could not read attestation: %w", err)
	}

	var att attestation.Attestation
	if err := json.Unmarshal(raw, &att); err != nil {
		return attestation.Attestation{}, fmt.Errorf("could not parse attestation: %w", err)
	}
	return att, nil
}

// run builds the client and passes it to fn with a background context.
func run(fn func(ctx context.Context, cCtx *cli.Context, c *Client) error) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		c, err := NewClient(cCtx)
		if err != nil {
			return err
		}
		return fn(cCtx.Context, cCtx, c)
	}
}

func main() {
	app := &cli.App{
		Name:  "badgeclient",
		Usage: "Manage badges and redeem oracle attestations",
		Flags: append([]cli.Flag{flags.ServerURLFlag, flags.CallerKeyFlag, flags.LogServiceFlagFn("badge-client")}, flags.LogFlags...),
		Commands: []*cli.Command{
			{
				Name:  "keygen",
				Usage: "generate a caller key and print it with its account",
				Action: func(cCtx *cli.Context) error {
					key, err := clients.GenerateCallerKey()
					if err != nil {
						return err
					}
					fmt.Printf("key:     %s\naccount: %s\n", key.Hex(), hexutil.Encode(key.Account().Bytes()))
					return nil
				},
			},
			{
				Name:  "account",
				Usage: "print the account of --key",
				Action: run(func(_ context.Context, _ *cli.Context, c *Client) error {
					if c.key == nil {
						return clients.ErrNoSigner
					}
					fmt.Fprintln(c.out, hexutil.Encode(c.key.Account().Bytes()))
					return nil
				}),
			},
			{
				Name:  "new-badge",
				Usage: "create a badge administered by --key",
				Flags: []cli.Flag{&cli.StringFlag{Name: "name", Required: true}},
				Action: run(func(ctx context.Context, cCtx *cli.Context, c *Client) error {
					id, err := c.badges().NewBadge(ctx, cCtx.String("name"))
					if err != nil {
						return err
					}
					fmt.Fprintln(c.out, id)
					return nil
				}),
			},
			{
				Name:  "badge-info",
				Usage: "show a badge",
				Flags: []cli.Flag{flagBadge},
				Action: run(func(ctx context.Context, cCtx *cli.Context, c *Client) error {
					info, err := c.badges().BadgeInfo(ctx, uint32(cCtx.Uint(flagBadge.Name)))
					if err != nil {
						return err
					}
					return c.printJSON(info)
				}),
			},
			{
				Name:  "add-code",
				Usage: "append codes to a badge",
				Flags: []cli.Flag{flagBadge, &cli.StringSliceFlag{Name: "code", Required: true}},
				Action: run(func(ctx context.Context, cCtx *cli.Context, c *Client) error {
					return c.badges().AddCode(ctx, uint32(cCtx.Uint(flagBadge.Name)), cCtx.StringSlice("code"))
				}),
			},
			{
				Name:  "add-issuer",
				Usage: "grant issuance of a badge to an account",
				Flags: []cli.Flag{flagBadge, flagAccount},
				Action: run(func(ctx context.Context, cCtx *cli.Context, c *Client) error {
					account, err := interfaces.NewAccountIDFromHex(cCtx.String(flagAccount.Name))
					if err != nil {
						return err
					}
					return c.badges().AddIssuer(ctx, uint32(cCtx.Uint(flagBadge.Name)), account)
				}),
			},
			{
				Name:  "list-issuers",
				Usage: "list the accounts allowed to issue a badge",
				Flags: []cli.Flag{flagBadge},
				Action: run(func(ctx context.Context, cCtx *cli.Context, c *Client) error {
					issuers, err := c.badges().Issuers(ctx, uint32(cCtx.Uint(flagBadge.Name)))
					if err != nil {
						return err
					}
					return c.printJSON(api.IssuersResponse{Issuers: issuers})
				}),
			},
			{
				Name:  "remove-issuer",
				Usage: "revoke issuance of a badge from an account",
				Flags: []cli.Flag{flagBadge, flagAccount},
				Action: run(func(ctx context.Context, cCtx *cli.Context, c *Client) error {
					account, err := interfaces.NewAccountIDFromHex(cCtx.String(flagAccount.Name))
					if err != nil {
						return err
					}
					return c.badges().RemoveIssuer(ctx, uint32(cCtx.Uint(flagBadge.Name)), account)
				}),
			},
			{
				Name:  "issue",
				Usage: "issue the next code of a badge to an account",
				Flags: []cli.Flag{flagBadge, flagAccount},
				Action: run(func(ctx context.Context, cCtx *cli.Context, c *Client) error {
					account, err := interfaces.NewAccountIDFromHex(cCtx.String(flagAccount.Name))
					if err != nil {
						return err
					}
					return c.badges().Issue(ctx, uint32(cCtx.Uint(flagBadge.Name)), account)
				}),
			},
			{
				Name:  "get-code",
				Usage: "print the code assigned to --key",
				Flags: []cli.Flag{flagBadge},
				Action: run(func(ctx context.Context, cCtx *cli.Context, c *Client) error {
					code, err := c.badges().Get(ctx, uint32(cCtx.Uint(flagBadge.Name)))
					if err != nil {
						return err
					}
					fmt.Fprintln(c.out, code)
					return nil
				}),
			},
			{
				Name:  "oracle-info",
				Usage: "show an oracle's admin and signing account",
				Flags: []cli.Flag{flagOracle},
				Action: run(func(ctx context.Context, cCtx *cli.Context, c *Client) error {
					o := c.oracle(cCtx.String(flagOracle.Name))
					admin, err := o.Admin(ctx)
					if err != nil {
						return err
					}
					verifier, err := o.Verifier(ctx)
					if err != nil {
						return err
					}
					account, err := verifier.Account()
					if err != nil {
						return err
					}
					return c.printJSON(map[string]interfaces.AccountID{"admin": admin, "account": account})
				}),
			},
			{
				Name:  "attest-gist",
				Usage: "ask the gist oracle to attest a gist",
				Flags: []cli.Flag{flagURL},
				Action: run(func(ctx context.Context, cCtx *cli.Context, c *Client) error {
					att, err := c.oracle("gist").AttestGist(ctx, cCtx.String(flagURL.Name))
					if err != nil {
						return err
					}
					return c.printJSON(att)
				}),
			},
			{
				Name:  "check-contract",
				Usage: "ask the judger to check a submitted oracle",
				Flags: []cli.Flag{flagContract, flagURL},
				Action: run(func(ctx context.Context, cCtx *cli.Context, c *Client) error {
					att, err := c.oracle("judger").CheckContract(ctx, interfaces.ContractLocator(cCtx.String(flagContract.Name)), cCtx.String(flagURL.Name))
					if err != nil {
						return err
					}
					return c.printJSON(att)
				}),
			},
			{
				Name:  "redeem",
				Usage: "redeem an attestation as --key",
				Flags: []cli.Flag{flagOracle, &cli.StringFlag{Name: "attestation", Value: "-", Usage: "attestation JSON file, - for stdin"}},
				Action: run(func(ctx context.Context, cCtx *cli.Context, c *Client) error {
					att, err := readAttestation(cCtx.String("attestation"))
					if err != nil {
						return err
					}
					return c.oracle(cCtx.String(flagOracle.Name)).Redeem(ctx, att)
				}),
			},
			{
				Name:  "config-issuer",
				Usage: "set the badge an oracle issues on redemption",
				Flags: []cli.Flag{flagOracle, flagContract, flagBadge},
				Action: run(func(ctx context.Context, cCtx *cli.Context, c *Client) error {
					return c.oracle(cCtx.String(flagOracle.Name)).ConfigIssuer(ctx, interfaces.ContractLocator(cCtx.String(flagContract.Name)), uint32(cCtx.Uint(flagBadge.Name)))
				}),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
