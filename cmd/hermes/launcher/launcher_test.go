package launcher

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-hermes/hermes"
	"github.com/rony4d/go-hermes/ledger"
	"github.com/rony4d/go-hermes/multisend"
	"github.com/rony4d/go-hermes/registry"
)

// Development accounts (truffle/ganache mnemonic), index 1 and 2.
const (
	recipientKey = "ae6ae8e5ccbfb04590405997ee2d52d2b330726137b875053c36d94e974d162f"
	forwarderKey = "0dbbe8e4ae425a6d2687f1a7e3ba17bc98c673636790f1b8ad91193c05875ef1"
)

var (
	recipient = common.HexToAddress("0xf17f52151EbEF6C7334FAD080c5704D77216b732")
	forwarder = common.HexToAddress("0xC5fdf4076b8F3A5357c5E395ab970B5B54098Fef")
	payeeA    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	payeeB    = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	payeeC    = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

// cliRunner runs hermes commands against one bolt store on the fake network.
type cliRunner struct {
	t       *testing.T
	dataDir string
}

func newRunner(t *testing.T) *cliRunner {
	return &cliRunner{t: t, dataDir: t.TempDir()}
}

// run executes one process worth of hermes and returns what it printed.
func (r *cliRunner) run(args ...string) (string, error) {
	r.t.Helper()
	var out bytes.Buffer
	app := NewApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	full := append([]string{"hermes", "--datadir", r.dataDir, "--network", "fake", "--log.verbosity", "1"}, args...)
	err := app.Run(full)
	return out.String(), err
}

func (r *cliRunner) mustRun(args ...string) string {
	r.t.Helper()
	out, err := r.run(args...)
	require.NoError(r.t, err, "hermes %v", args)
	return out
}

var signatureLine = regexp.MustCompile(`signature: (0x[0-9a-f]{130})`)

func (r *cliRunner) sign(key, action string, addr common.Address, nonce string, extra ...string) string {
	r.t.Helper()
	args := append([]string{"sign", "--key", key, "--action", action, "--address", addr.Hex(), "--nonce", nonce}, extra...)
	out := r.mustRun(args...)
	m := signatureLine.FindStringSubmatch(out)
	require.NotNil(r.t, m, out)
	return m[1]
}

func TestSignRegisterResolve(t *testing.T) {
	require := require.New(t)
	r := newRunner(t)

	out := r.mustRun("sign", "--key", recipientKey, "--address", forwarder.Hex(), "--nonce", "2")
	require.Contains(out, "signer:    "+recipient.Hex())
	require.Contains(out, "message:   2I authorize 0xc5fdf4076b8f3a5357c5e395ab970b5b54098fef to register in "+
		"0x345ca3e014aaf5dca488057592ee47305d9b3e10")

	sig := r.sign(recipientKey, "register", forwarder, "2")
	out = r.mustRun("register", "--recipient", recipient.Hex(), "--forwarder", forwarder.Hex(), "--nonce", "2", "--signature", sig)
	require.Contains(out, "registered")

	out = r.mustRun("resolve", "--recipient", recipient.Hex())
	require.Contains(out, "payee:   "+forwarder.Hex())
	require.Contains(out, "nonce:   2")

	// replaying the same message is rejected
	_, err := r.run("register", "--recipient", recipient.Hex(), "--forwarder", forwarder.Hex(), "--nonce", "2", "--signature", sig)
	require.ErrorIs(err, registry.ErrInvalidNonce)

	// a signature by somebody else
	bad := r.sign(forwarderKey, "register", forwarder, "3")
	_, err = r.run("register", "--recipient", recipient.Hex(), "--forwarder", forwarder.Hex(), "--nonce", "3", "--signature", bad)
	require.ErrorIs(err, registry.ErrInvalidSignature)

	// the forwarder releases the recipient
	sig = r.sign(forwarderKey, "deregister", recipient, "3")
	out = r.mustRun("deregister", "--recipient", recipient.Hex(), "--nonce", "3", "--signature", sig)
	require.Contains(out, "deregistered")

	out = r.mustRun("resolve", "--recipient", recipient.Hex())
	require.Contains(out, "payee:   "+recipient.Hex())
	require.Contains(out, "nonce:   3")

	_, err = r.run("deregister", "--recipient", recipient.Hex(), "--nonce", "4", "--signature", sig)
	require.ErrorIs(err, registry.ErrNotRegistered)
}

func TestRegisterWithExpiry(t *testing.T) {
	require := require.New(t)
	r := newRunner(t)

	sig := r.sign(recipientKey, "register", forwarder, "1")
	register := func(expiry string, extra ...string) error {
		args := append([]string{"register", "--recipient", recipient.Hex(), "--forwarder", forwarder.Hex(),
			"--nonce", "1", "--expiry", expiry, "--signature", sig}, extra...)
		_, err := r.run(args...)
		return err
	}

	// the recipient's signature alone cannot set an expiry
	require.EqualError(register("1500"), "--expiry.signature is required")
	short := r.sign(forwarderKey, "expiry", recipient, "1", "--expiry", "1500")
	require.ErrorIs(register("1", "--expiry.signature", short), registry.ErrInvalidSignature)
	require.ErrorIs(register("1500", "--expiry.signature", r.sign(recipientKey, "expiry", recipient, "1", "--expiry", "1500")), registry.ErrInvalidSignature)

	out := r.mustRun("sign", "--key", forwarderKey, "--action", "expiry", "--address", recipient.Hex(), "--nonce", "1", "--expiry", "1500")
	require.Contains(out, "message:   1I accept "+strings.ToLower(recipient.Hex())+" until epoch 1500 in ")
	require.NoError(register("1500", "--expiry.signature", short))

	out = r.mustRun("resolve", "--recipient", recipient.Hex(), "--epoch", "1500")
	require.Contains(out, "payee:   "+forwarder.Hex())
	require.Contains(out, "expiry:  1500 (active at epoch 1500)")

	out = r.mustRun("resolve", "--recipient", recipient.Hex(), "--epoch", "1501")
	require.Contains(out, "payee:   "+recipient.Hex())
	require.Contains(out, "expiry:  1500 (expired at epoch 1501)")

	// without --epoch the latest committed epoch decides
	out = r.mustRun("resolve", "--recipient", recipient.Hex())
	require.Contains(out, "payee:   "+forwarder.Hex())
	r.mustRun("commit", "--epoch", "1501", "--delegates", "robotbp00000")
	out = r.mustRun("resolve", "--recipient", recipient.Hex())
	require.Contains(out, "payee:   "+recipient.Hex())
	require.Contains(out, "expiry:  1500 (expired at epoch 1501)")
}

func TestDistributeCommitHistory(t *testing.T) {
	require := require.New(t)
	r := newRunner(t)

	distribute := func(epoch string, extra ...string) (string, error) {
		args := append([]string{"distribute", "--delegate", "robotbp00000", "--epoch", epoch}, extra...)
		return r.run(args...)
	}
	pair := []string{"--recipients", payeeA.Hex() + "," + payeeB.Hex(), "--amounts", "100,200"}

	out, err := distribute("1000", pair...)
	require.NoError(err)
	require.Contains(out, "payees:  2")
	require.Contains(out, "total:   300")
	require.Contains(out, "tips:    9876543210")
	require.Contains(out, "live:    (2, 300)")

	// state survives the process: the same recipients cannot be paid again
	_, err = distribute("1000", pair...)
	require.ErrorIs(err, ledger.ErrDuplicateCredit)

	_, err = distribute("1000", "--recipients", payeeC.Hex(), "--amounts", "5", "--value", "1")
	require.ErrorIs(err, multisend.ErrInsufficientFee)

	_, err = distribute("1001", "--recipients", payeeA.Hex()+","+payeeB.Hex()+","+payeeC.Hex(), "--amounts", "1,2,3")
	require.ErrorIs(err, multisend.ErrCapacityExceeded)

	_, err = distribute("999", "--recipients", payeeC.Hex(), "--amounts", "5")
	require.ErrorIs(err, ledger.ErrEpochBeforeStart)

	_, err = distribute("1000", "--recipients", payeeC.Hex(), "--amounts", "5,6")
	require.ErrorIs(err, ledger.ErrLengthMismatch)

	out = r.mustRun("status", "--delegate", "robotbp00000", "--recipient", payeeA.Hex())
	require.Contains(out, "live:     (2, 300)")
	require.Contains(out, "last epoch 1000")

	out = r.mustRun("commit", "--epoch", "1000", "--delegates", "robotbp00000")
	require.Contains(out, "committed epoch 1000, 1 delegates")
	require.Contains(out, "robotbp00000: (2, 300)")

	_, err = r.run("commit", "--epoch", "1000", "--delegates", "robotbp00000")
	require.ErrorIs(err, ledger.ErrAlreadyCommitted)

	out = r.mustRun("status", "--delegate", "robotbp00000", "--epoch", "1000")
	require.Contains(out, "live:     (0, 0)")
	require.Contains(out, "epoch 1000: committed=true (2, 300)")

	out = r.mustRun("history")
	require.Contains(out, "start epoch: 1000")
	require.Contains(out, "commits:     1")
	require.Contains(out, "last epoch:  1000")
	require.Contains(out, "#0 committed epoch 1000")
}

func TestDistributeMissingFlags(t *testing.T) {
	r := newRunner(t)

	_, err := r.run("distribute", "--epoch", "1000")
	require.EqualError(t, err, "--delegate is required")

	_, err = r.run("distribute", "--delegate", "robotbp00000")
	require.EqualError(t, err, "--epoch is required")

	_, err = r.run("commit", "--epoch", "1000")
	require.EqualError(t, err, "--delegates is required")
}

const testPlan = `
epoch = 1600
chunk_size = 2

[[delegate]]
name = "iotexlab"

  [[delegate.recipient]]
  address = "0x00000000000000000000000000000000000000a1"
  amount = "100"

  [[delegate.recipient]]
  address = "0x00000000000000000000000000000000000000b2"
  amount = 200

  [[delegate.recipient]]
  address = "0x00000000000000000000000000000000000000c3"
  amount = "300"
`

func TestRunPlan(t *testing.T) {
	require := require.New(t)
	r := newRunner(t)

	path := filepath.Join(t.TempDir(), "plan.toml")
	require.NoError(os.WriteFile(path, []byte(testPlan), 0o600))

	out := r.mustRun("run", "--plan", path)
	require.Contains(out, "epoch 1600, chunk size 2")
	require.Contains(out, "iotexlab: 3 recipients, total 600, 2 batches paid, 0 resumed")
	require.Contains(out, "committed epoch 1600, 1 delegates")

	// a second run finds everything done
	out = r.mustRun("run", "--plan", path)
	require.Contains(out, "iotexlab: already committed")
	require.NotContains(out, "committed epoch")

	out = r.mustRun("history")
	require.Contains(out, "commits:     1")

	// the fake network allows at most two payees per batch
	_, err := r.run("run", "--plan", path, "--chunksize", "3")
	require.Error(err)
}

func TestEndpoint(t *testing.T) {
	require := require.New(t)
	r := newRunner(t)

	require.Equal(hermes.DefaultAnalyticsEndpoint+"\n", r.mustRun("endpoint"))
	require.Equal("https://analytics.example.org/\n", r.mustRun("endpoint", "https://analytics.example.org/"))

	// the stored endpoint wins over the configured seed
	require.Equal("https://analytics.example.org/\n", r.mustRun("--analytics.endpoint", "https://other.example.org/", "endpoint"))

	_, err := r.run("endpoint", "a", "b")
	require.Error(err)
}

func TestRules(t *testing.T) {
	require := require.New(t)
	r := newRunner(t)

	out := r.mustRun("--batcher.limit", "5", "rules")
	require.Contains(out, `"Name":"fake"`)
	require.Contains(out, `"Limit":5`)
}

func TestMemoryStore(t *testing.T) {
	require := require.New(t)
	r := newRunner(t)

	args := []string{"--store", "memory", "distribute", "--delegate", "robotbp00000", "--epoch", "1000",
		"--recipients", payeeA.Hex(), "--amounts", "1"}
	r.mustRun(args...)
	// nothing survives the process
	r.mustRun(args...)

	_, err := os.Stat(filepath.Join(r.dataDir, "hermes.db"))
	require.True(os.IsNotExist(err))
}
