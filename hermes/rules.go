// Package hermes defines the deployment rules of a Hermes network: the epoch
// the ledger starts at, the payment batcher parameters, the registry address
// that signed messages name and the initial analytics endpoint.
//
// Rules are construction parameters. They are fixed for the lifetime of a
// store: changing StartEpoch or the registry address on an existing database
// changes which calls are accepted and which signatures verify.
package hermes

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
)

// Network identification constants
const (
	MainNetworkID uint64 = 0x1251 // 4689
	TestNetworkID uint64 = 0x1252 // 4690
	FakeNetworkID uint64 = 0x1253

	// DefaultAnalyticsEndpoint is where bookkeeping data is published.
	DefaultAnalyticsEndpoint = "https://analytics.iotexscan.io/"
)

var (
	// MainRegistryAddress names the mainnet forward registry in signed messages.
	MainRegistryAddress = common.HexToAddress("0x4e2b000000000000000000000000000000000001")
	// TestRegistryAddress names the testnet forward registry.
	TestRegistryAddress = common.HexToAddress("0x4e2b000000000000000000000000000000000002")
	// FakeRegistryAddress is the first contract a fresh development chain deploys.
	FakeRegistryAddress = common.HexToAddress("0x345cA3e014Aaf5dcA488057592ee47305D9B3e10")

	// DefaultOperator receives batch tips unless configured otherwise.
	DefaultOperator = common.HexToAddress("0x627306090abaB3A6e1400e9345bC60c78a8BEf57")
)

// Rules describes a Hermes deployment.
type Rules struct {
	Name      string // "main", "test" or "fake"
	NetworkID uint64

	Ledger   LedgerRules
	Batcher  BatcherRules
	Registry RegistryRules
}

// LedgerRules are the construction parameters of the distribution ledger.
type LedgerRules struct {
	// StartEpoch is the first epoch distributions may be made for.
	StartEpoch idx.Epoch
	// AnalyticsEndpoint seeds the endpoint of a fresh store.
	AnalyticsEndpoint string
}

// BatcherRules configure the payment batcher.
type BatcherRules struct {
	// Operator receives whatever a batch carries beyond its amounts.
	Operator common.Address
	// MinTips is the fee every batch must carry on top of its amounts.
	MinTips *big.Int
	// Limit is the maximum number of payees per batch.
	Limit int
}

// RegistryRules configure the forward registry.
type RegistryRules struct {
	// Address is rendered into every register/deregister message.
	Address common.Address
}

// MainNetRules returns the production deployment.
func MainNetRules() Rules {
	return Rules{
		Name:      "main",
		NetworkID: MainNetworkID,
		Ledger: LedgerRules{
			StartEpoch:        1000,
			AnalyticsEndpoint: DefaultAnalyticsEndpoint,
		},
		Batcher:  DefaultBatcherRules(),
		Registry: RegistryRules{Address: MainRegistryAddress},
	}
}

// TestNetRules returns the testnet deployment. It differs from mainnet only
// in identity.
func TestNetRules() Rules {
	r := MainNetRules()
	r.Name = "test"
	r.NetworkID = TestNetworkID
	r.Registry.Address = TestRegistryAddress
	return r
}

// FakeNetRules returns a development deployment with a tiny batch limit and
// a large tip, so that chunking and fee checks are exercised by small inputs.
func FakeNetRules() Rules {
	return Rules{
		Name:      "fake",
		NetworkID: FakeNetworkID,
		Ledger: LedgerRules{
			StartEpoch:        1000,
			AnalyticsEndpoint: DefaultAnalyticsEndpoint,
		},
		Batcher: BatcherRules{
			Operator: DefaultOperator,
			MinTips:  big.NewInt(9876543210),
			Limit:    2,
		},
		Registry: RegistryRules{Address: FakeRegistryAddress},
	}
}

// DefaultBatcherRules returns the batcher parameters of mainnet and testnet.
func DefaultBatcherRules() BatcherRules {
	return BatcherRules{
		Operator: DefaultOperator,
		MinTips:  big.NewInt(1000),
		Limit:    100,
	}
}

// RulesByName returns the rules of a named network.
func RulesByName(name string) (Rules, error) {
	switch name {
	case "main":
		return MainNetRules(), nil
	case "test":
		return TestNetRules(), nil
	case "fake":
		return FakeNetRules(), nil
	}
	return Rules{}, fmt.Errorf("unknown network %q", name)
}

// String returns the JSON representation of the rules.
func (r Rules) String() string {
	b, _ := json.Marshal(&r)
	return string(b)
}
