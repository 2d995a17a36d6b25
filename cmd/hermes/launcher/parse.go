package launcher

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-hermes/inter"
)

func parseAddress(name, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", name, s)
	}
	return common.HexToAddress(s), nil
}

// parseAmount accepts a non-negative decimal, or a 0x-prefixed hex number.
func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	return v, nil
}

func requireString(ctx *cli.Context, name string) (string, error) {
	v := ctx.String(name)
	if v == "" {
		return "", fmt.Errorf("--%s is required", name)
	}
	return v, nil
}

func addressFlag(ctx *cli.Context, name string) (common.Address, error) {
	v, err := requireString(ctx, name)
	if err != nil {
		return common.Address{}, err
	}
	return parseAddress("--"+name, v)
}

func addressesFlag(ctx *cli.Context, name string) ([]common.Address, error) {
	var out []common.Address
	for _, s := range splitCSV(ctx.String(name)) {
		addr, err := parseAddress("--"+name, s)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

func amountsFlag(ctx *cli.Context, name string) ([]*big.Int, error) {
	var out []*big.Int
	for _, s := range splitCSV(ctx.String(name)) {
		v, err := parseAmount(s)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func delegateFlag(ctx *cli.Context) (inter.Delegate, error) {
	v, err := requireString(ctx, "delegate")
	if err != nil {
		return inter.Delegate{}, err
	}
	return inter.ParseDelegate(v)
}

func delegatesFlag(ctx *cli.Context) ([]inter.Delegate, error) {
	names := splitCSV(ctx.String("delegates"))
	if len(names) == 0 {
		return nil, errors.New("--delegates is required")
	}
	out := make([]inter.Delegate, len(names))
	for i, name := range names {
		d, err := inter.ParseDelegate(name)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func epochFlag(ctx *cli.Context) (idx.Epoch, error) {
	if !ctx.IsSet("epoch") {
		return 0, errors.New("--epoch is required")
	}
	return epochValue(ctx, "epoch")
}

// epochValue reads an optional epoch flag; unset reads as zero.
func epochValue(ctx *cli.Context, name string) (idx.Epoch, error) {
	v := ctx.Uint64(name)
	if v > uint64(^idx.Epoch(0)) {
		return 0, fmt.Errorf("--%s %d out of range", name, v)
	}
	return idx.Epoch(v), nil
}

func signatureFlag(ctx *cli.Context) ([]byte, error) {
	v, err := requireString(ctx, "signature")
	if err != nil {
		return nil, err
	}
	sig, err := hexutil.Decode(v)
	if err != nil {
		return nil, fmt.Errorf("--signature: %w", err)
	}
	return sig, nil
}
