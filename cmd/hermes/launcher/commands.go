package launcher

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-hermes/auth"
	"github.com/rony4d/go-hermes/distributor"
	"github.com/rony4d/go-hermes/flags"
	"github.com/rony4d/go-hermes/inter"
	"github.com/rony4d/go-hermes/ledger"
)

func commands() []cli.Command {
	return []cli.Command{
		{
			Name:  "distribute",
			Usage: "Pay one batch of a delegate's rewards for an epoch",
			Flags: []cli.Flag{
				flags.DelegateFlag,
				flags.EpochFlag,
				flags.RecipientsFlag,
				flags.AmountsFlag,
				flags.ValueFlag,
			},
			Action: withServices(distributeAction),
		},
		{
			Name:  "commit",
			Usage: "Snapshot and reset the live counters of delegates for an epoch",
			Flags: []cli.Flag{
				flags.EpochFlag,
				flags.DelegatesFlag,
			},
			Action: withServices(commitAction),
		},
		{
			Name:  "run",
			Usage: "Distribute and commit a whole epoch from a plan file, resuming an interrupted run",
			Flags: []cli.Flag{
				flags.PlanFlag,
				flags.ChunkSizeFlag,
			},
			Action: withServices(runAction),
		},
		{
			Name:  "register",
			Usage: "Authorize a forwarder for a recipient with the recipient's signature",
			Flags: []cli.Flag{
				flags.RecipientFlag,
				flags.ForwarderFlag,
				flags.NonceFlag,
				flags.ExpiryFlag,
				flags.SignatureFlag,
				flags.ExpirySignatureFlag,
			},
			Action: withServices(registerAction),
		},
		{
			Name:  "deregister",
			Usage: "Remove a recipient's forwarder with the forwarder's signature",
			Flags: []cli.Flag{
				flags.RecipientFlag,
				flags.NonceFlag,
				flags.SignatureFlag,
			},
			Action: withServices(deregisterAction),
		},
		{
			Name:  "resolve",
			Usage: "Print the address a recipient's rewards are paid to",
			Flags: []cli.Flag{
				flags.RecipientFlag,
				flags.EpochFlag,
			},
			Action: withServices(resolveAction),
		},
		{
			Name:  "status",
			Usage: "Print a delegate's live counters and, optionally, an epoch snapshot and a recipient's last epoch",
			Flags: []cli.Flag{
				flags.DelegateFlag,
				flags.EpochFlag,
				flags.RecipientFlag,
			},
			Action: withServices(statusAction),
		},
		{
			Name:   "history",
			Usage:  "Print the committed-epoch history",
			Action: withServices(historyAction),
		},
		{
			Name:      "endpoint",
			Usage:     "Print the analytics endpoint, or replace it",
			ArgsUsage: "[url]",
			Action:    withServices(endpointAction),
		},
		{
			Name:  "sign",
			Usage: "Sign a register, deregister or expiry message for this network's registry",
			Flags: []cli.Flag{
				flags.KeyFlag,
				flags.ActionFlag,
				flags.AddressFlag,
				flags.NonceFlag,
				flags.ExpiryFlag,
			},
			Action: signAction,
		},
		{
			Name:   "rules",
			Usage:  "Print the effective network rules",
			Action: rulesAction,
		},
	}
}

func distributeAction(ctx context.Context, c *cli.Context, s *services) error {
	delegate, err := delegateFlag(c)
	if err != nil {
		return err
	}
	epoch, err := epochFlag(c)
	if err != nil {
		return err
	}
	recipients, err := addressesFlag(c, "recipients")
	if err != nil {
		return err
	}
	amounts, err := amountsFlag(c, "amounts")
	if err != nil {
		return err
	}
	var value *big.Int
	if c.IsSet("value") {
		if value, err = parseAmount(c.String("value")); err != nil {
			return fmt.Errorf("--value: %w", err)
		}
	} else {
		value = s.batcher.Required(amounts)
	}

	rcpt, err := s.ledger.DistributeRewards(ctx, delegate, epoch, recipients, amounts, value)
	if err != nil {
		return err
	}
	live, err := s.ledger.Counters(delegate)
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "batch:   %s\n", rcpt.ID.Hex())
	fmt.Fprintf(w, "payees:  %d\n", rcpt.Payees)
	fmt.Fprintf(w, "total:   %s\n", rcpt.Total)
	fmt.Fprintf(w, "tips:    %s\n", rcpt.Tips)
	fmt.Fprintf(w, "live:    %s\n", live)
	return nil
}

func commitAction(ctx context.Context, c *cli.Context, s *services) error {
	epoch, err := epochFlag(c)
	if err != nil {
		return err
	}
	delegates, err := delegatesFlag(c)
	if err != nil {
		return err
	}
	rec, err := s.ledger.CommitDistributions(ctx, epoch, delegates)
	if err != nil {
		return err
	}
	printCommit(c, rec)
	return nil
}

func runAction(ctx context.Context, c *cli.Context, s *services) error {
	path, err := requireString(c, "plan")
	if err != nil {
		return err
	}
	plan, err := distributor.LoadPlan(path)
	if err != nil {
		return err
	}
	if c.IsSet("chunksize") {
		plan.ChunkSize = c.Int("chunksize")
	}

	report, err := distributor.New(s.ledger, s.log).Run(ctx, plan)
	w := c.App.Writer
	if report != nil {
		fmt.Fprintf(w, "epoch %d, chunk size %d\n", report.Epoch, report.ChunkSize)
		for _, dr := range report.Delegates {
			switch {
			case dr.AlreadyCommitted:
				fmt.Fprintf(w, "  %s: already committed\n", dr.Delegate)
			default:
				fmt.Fprintf(w, "  %s: %d recipients, total %s, %d batches paid, %d resumed\n",
					dr.Delegate, dr.Recipients, dr.Total, dr.Batches, dr.Resumed)
			}
		}
		if report.Commit != nil {
			printCommit(c, *report.Commit)
		}
	}
	return err
}

func registerAction(ctx context.Context, c *cli.Context, s *services) error {
	recipient, err := addressFlag(c, "recipient")
	if err != nil {
		return err
	}
	forwarder, err := addressFlag(c, "forwarder")
	if err != nil {
		return err
	}
	sig, err := signatureFlag(c)
	if err != nil {
		return err
	}
	expiry, err := epochValue(c, "expiry")
	if err != nil {
		return err
	}
	var expirySig []byte
	if expiry != 0 {
		v, err := requireString(c, "expiry.signature")
		if err != nil {
			return err
		}
		if expirySig, err = hexutil.Decode(v); err != nil {
			return fmt.Errorf("--expiry.signature: %w", err)
		}
	}
	if err := s.registry.Register(recipient, forwarder, c.Uint64("nonce"), expiry, sig, expirySig); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "registered %s -> %s\n", recipient.Hex(), forwarder.Hex())
	return nil
}

func deregisterAction(ctx context.Context, c *cli.Context, s *services) error {
	recipient, err := addressFlag(c, "recipient")
	if err != nil {
		return err
	}
	sig, err := signatureFlag(c)
	if err != nil {
		return err
	}
	if err := s.registry.Deregister(recipient, c.Uint64("nonce"), sig); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deregistered %s\n", recipient.Hex())
	return nil
}

func resolveAction(ctx context.Context, c *cli.Context, s *services) error {
	recipient, err := addressFlag(c, "recipient")
	if err != nil {
		return err
	}
	rec, err := s.registry.Record(recipient)
	if err != nil {
		return err
	}
	// without --epoch expiry is judged by the latest committed epoch
	var (
		payee common.Address
		ref   idx.Epoch
	)
	if c.IsSet("epoch") {
		if ref, err = epochFlag(c); err != nil {
			return err
		}
		payee, err = s.registry.ResolveAt(recipient, ref)
	} else {
		ref, err = s.ledger.LastEndEpoch()
		if errors.Is(err, ledger.ErrNoHistory) {
			ref, err = 0, nil
		}
		if err != nil {
			return err
		}
		payee, err = s.registry.Resolve(recipient)
	}
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "payee:   %s\n", payee.Hex())
	fmt.Fprintf(w, "nonce:   %d\n", rec.Nonce)
	if rec.Active() {
		state := "active"
		if !rec.ActiveAt(ref) {
			state = "expired"
		}
		fmt.Fprintf(w, "expiry:  %d (%s at epoch %d)\n", rec.Expiry, state, ref)
	}
	return nil
}

func statusAction(ctx context.Context, c *cli.Context, s *services) error {
	delegate, err := delegateFlag(c)
	if err != nil {
		return err
	}
	live, err := s.ledger.Counters(delegate)
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "delegate: %s\n", delegate)
	fmt.Fprintf(w, "live:     %s\n", live)

	if c.IsSet("epoch") {
		epoch, err := epochFlag(c)
		if err != nil {
			return err
		}
		committed, err := s.ledger.Committed(delegate, epoch)
		if err != nil {
			return err
		}
		snap, err := s.ledger.Distribution(delegate, epoch)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "epoch %d: committed=%t %s\n", epoch, committed, snap)
	}
	if c.IsSet("recipient") {
		recipient, err := addressFlag(c, "recipient")
		if err != nil {
			return err
		}
		last, err := s.ledger.RecipientEpoch(delegate, recipient)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "recipient %s: last epoch %d\n", recipient.Hex(), last)
	}
	return nil
}

func historyAction(ctx context.Context, c *cli.Context, s *services) error {
	n, err := s.ledger.EndEpochCount()
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "start epoch: %d\n", s.ledger.StartEpoch())
	fmt.Fprintf(w, "commits:     %d\n", n)
	last, err := s.ledger.LastEndEpoch()
	switch {
	case errors.Is(err, ledger.ErrNoHistory):
	case err != nil:
		return err
	default:
		fmt.Fprintf(w, "last epoch:  %d\n", last)
	}
	for i := uint64(0); i < n; i++ {
		rec, err := s.ledger.CommitRecord(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "#%d ", i)
		printCommit(c, rec)
	}
	return nil
}

func endpointAction(ctx context.Context, c *cli.Context, s *services) error {
	switch c.NArg() {
	case 0:
	case 1:
		if err := s.ledger.SetAnalyticsEndpoint(c.Args().First()); err != nil {
			return err
		}
	default:
		return fmt.Errorf("expected at most one argument, got %d", c.NArg())
	}
	ep, err := s.ledger.AnalyticsEndpoint()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, ep)
	return nil
}

// signAction needs the registry address only, so it does not open the store.
func signAction(c *cli.Context) error {
	cfg, err := MakeAllConfigs(c)
	if err != nil {
		return err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return err
	}
	keyHex, err := requireString(c, "key")
	if err != nil {
		return err
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return fmt.Errorf("--key: %w", err)
	}
	addr, err := addressFlag(c, "address")
	if err != nil {
		return err
	}

	var msg string
	switch action := c.String("action"); action {
	case "register":
		msg = auth.RegisterMessage(c.Uint64("nonce"), addr, rules.Registry.Address)
	case "deregister":
		msg = auth.DeregisterMessage(c.Uint64("nonce"), addr, rules.Registry.Address)
	case "expiry":
		expiry, err := epochValue(c, "expiry")
		if err != nil {
			return err
		}
		if expiry == 0 {
			return errors.New("--expiry is required")
		}
		msg = auth.ExpiryMessage(c.Uint64("nonce"), addr, uint64(expiry), rules.Registry.Address)
	default:
		return fmt.Errorf("--action: unknown action %q", action)
	}
	sig, err := auth.Sign(key, msg)
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "signer:    %s\n", auth.Address(key).Hex())
	fmt.Fprintf(w, "message:   %s\n", msg)
	fmt.Fprintf(w, "signature: %s\n", hexutil.Encode(sig))
	return nil
}

func rulesAction(c *cli.Context) error {
	cfg, err := MakeAllConfigs(c)
	if err != nil {
		return err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, rules.String())
	return nil
}

func printCommit(c *cli.Context, rec inter.CommitRecord) {
	w := c.App.Writer
	fmt.Fprintf(w, "committed epoch %d, %d delegates, digest %s\n", rec.Epoch, len(rec.Delegates), rec.Digest().Hex())
	for i, d := range rec.Delegates {
		fmt.Fprintf(w, "  %s: %s\n", d, rec.Snapshots[i])
	}
}
