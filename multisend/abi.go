package multisend

import (
	"bytes"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ContractABI describes the batch payment entry point:
//
//	multiSend(address[] recipients, uint256[] amounts) payable
const ContractABI = `[{"constant":false,"inputs":[{"name":"recipients","type":"address[]"},{"name":"amounts","type":"uint256[]"}],"name":"multiSend","outputs":[],"payable":true,"stateMutability":"payable","type":"function"}]`

var (
	contractABI abi.ABI

	// MultiSendMethodID is the 4 byte selector of multiSend(address[],uint256[]).
	MultiSendMethodID []byte
)

func init() {
	var err error
	contractABI, err = abi.JSON(strings.NewReader(ContractABI))
	if err != nil {
		panic(err)
	}
	method, ok := contractABI.Methods["multiSend"]
	if !ok {
		panic("unknown multisend method")
	}
	MultiSendMethodID = common.CopyBytes(method.ID)
}

// PackCall returns the call data of a multiSend invocation.
func PackCall(recipients []common.Address, amounts []*big.Int) ([]byte, error) {
	return contractABI.Pack("multiSend", recipients, amounts)
}

// UnpackCall decodes call data produced by PackCall.
func UnpackCall(data []byte) (recipients []common.Address, amounts []*big.Int, err error) {
	if len(data) < 4 || !bytes.Equal(data[:4], MultiSendMethodID) {
		return nil, nil, ErrNotMultiSend
	}
	args, err := contractABI.Methods["multiSend"].Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	recipients = *abi.ConvertType(args[0], new([]common.Address)).(*[]common.Address)
	amounts = *abi.ConvertType(args[1], new([]*big.Int)).(*[]*big.Int)
	return recipients, amounts, nil
}
