package auth

import (
	"crypto/ecdsa"
	"errors"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the size of an r || s || v signature.
const SignatureLength = crypto.SignatureLength

var (
	// ErrSignatureLength is returned for signatures that are not 65 bytes.
	ErrSignatureLength = errors.New("signature must be 65 bytes")
	// ErrRecoveryID is returned when v is not one of 0, 1, 27 or 28.
	ErrRecoveryID = errors.New("invalid signature recovery id")
)

// Hash returns the personal-message hash of msg, i.e.
// keccak256("\x19Ethereum Signed Message:\n" + len(msg) + msg).
func Hash(msg string) []byte {
	return accounts.TextHash([]byte(msg))
}

// Sign signs msg with key and returns a 65 byte signature whose last byte is
// 27 or 28, the form produced by web3 and most wallets.
func Sign(key *ecdsa.PrivateKey, msg string) ([]byte, error) {
	sig, err := crypto.Sign(Hash(msg), key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// Recover returns the address whose key produced sig over msg.
// The input slice is not modified.
func Recover(msg string, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, ErrSignatureLength
	}
	normalized := common.CopyBytes(sig)
	switch v := normalized[crypto.RecoveryIDOffset]; v {
	case 0, 1:
	case 27, 28:
		normalized[crypto.RecoveryIDOffset] = v - 27
	default:
		return common.Address{}, ErrRecoveryID
	}
	pub, err := crypto.SigToPub(Hash(msg), normalized)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify reports whether sig is a valid signature of msg by signer.
// Malformed signatures simply fail verification.
func Verify(signer common.Address, msg string, sig []byte) bool {
	if signer == (common.Address{}) {
		return false
	}
	got, err := Recover(msg, sig)
	if err != nil {
		return false
	}
	return got == signer
}

// Address returns the account address of key.
func Address(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}
