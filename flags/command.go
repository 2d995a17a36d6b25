package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// Flags of individual commands.
var (
	DelegateFlag = cli.StringFlag{
		Name:  "delegate",
		Usage: "Delegate name, or its 0x-prefixed 32 byte identifier",
	}
	DelegatesFlag = cli.StringFlag{
		Name:  "delegates",
		Usage: "Comma-separated delegates",
	}
	EpochFlag = cli.Uint64Flag{
		Name:  "epoch",
		Usage: "Reward epoch",
	}
	RecipientsFlag = cli.StringFlag{
		Name:  "recipients",
		Usage: "Comma-separated recipient addresses",
	}
	AmountsFlag = cli.StringFlag{
		Name:  "amounts",
		Usage: "Comma-separated amounts, one per recipient",
	}
	ValueFlag = cli.StringFlag{
		Name:  "value",
		Usage: "Value attached to the batch (default: minimum tips plus the amounts)",
	}
	RecipientFlag = cli.StringFlag{
		Name:  "recipient",
		Usage: "Recipient address",
	}
	ForwarderFlag = cli.StringFlag{
		Name:  "forwarder",
		Usage: "Forwarder address",
	}
	NonceFlag = cli.Uint64Flag{
		Name:  "nonce",
		Usage: "Nonce of the signed message",
	}
	ExpiryFlag = cli.Uint64Flag{
		Name:  "expiry",
		Usage: "Last epoch the registration applies to (0 = never expires)",
	}
	SignatureFlag = cli.StringFlag{
		Name:  "signature",
		Usage: "Hex encoded 65 byte signature",
	}
	ExpirySignatureFlag = cli.StringFlag{
		Name:  "expiry.signature",
		Usage: "Forwarder's signature accepting --expiry (required when --expiry is set)",
	}
	KeyFlag = cli.StringFlag{
		Name:   "key",
		Usage:  "Hex encoded secp256k1 private key of the signer",
		EnvVar: EnvVar("key"),
	}
	ActionFlag = cli.StringFlag{
		Name:  "action",
		Usage: "Message to sign (register|deregister|expiry)",
		Value: "register",
	}
	AddressFlag = cli.StringFlag{
		Name:  "address",
		Usage: "Address named in the message: the forwarder to register, or the recipient to deregister or accept",
	}
	PlanFlag = cli.StringFlag{
		Name:  "plan",
		Usage: "TOML distribution plan",
	}
	ChunkSizeFlag = cli.IntFlag{
		Name:  "chunksize",
		Usage: "Recipients per batch (0 = the batcher limit)",
	}
)
