package assembler

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/ordinals-go/btcman/network"
	"github.com/TEENet-io/ordinals-go/btcman/utxo"
)

// value locked in the inscription carrying output.
const DefaultCarrierValue = int64(10000)

var (
	ErrNoUtxos        = errors.New("no utxos to spend")
	ErrInvalidFeeRate = errors.New("fee rate must be at least 1 sat/vB")
)

// InsufficientFundsError is returned before anything is signed.
type InsufficientFundsError struct {
	Available int64
	Required  int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: have %d sat, need %d sat", e.Available, e.Required)
}

// Assembler builds the commit/reveal transaction pair of an inscription.
//
// The commit tx spends every supplied UTXO into a P2TR output that commits
// to the inscription leaf, plus change. The reveal tx spends that output by
// script path, so the envelopes end up in its witness, and pays the carrier
// value to the recipient.
type Assembler struct {
	Network      network.Network
	Op           ScriptPathUnlocker
	CarrierValue int64 // satoshi, DefaultCarrierValue if 0
}

type InscriptionRequest struct {
	Utxos         []*utxo.UTXO // all of them are spent
	ChangeAddress string       // receives the change and the inscription
	Metadata      []byte       // json document
	ContentType   string       // of Image
	Image         []byte
	FeeRate       int64 // sat/vB
}

type InscriptionTxs struct {
	Commit     *wire.MsgTx
	Reveal     *wire.MsgTx
	Commitment *ScriptCommitment
	CommitFee  int64
	RevealFee  int64
	Carrier    int64
	Change     int64 // 0 if the commit has no change output
}

// Txid of the reveal tx, which is the inscription's genesis tx.
func (t *InscriptionTxs) Txid() string {
	return t.Reveal.TxHash().String()
}

func (t *InscriptionTxs) CommitTxid() string {
	return t.Commit.TxHash().String()
}

// InscriptionID is "<reveal txid>i0".
func (t *InscriptionTxs) InscriptionID() string {
	return t.Txid() + "i0"
}

func (t *InscriptionTxs) Fees() int64 {
	return t.CommitFee + t.RevealFee
}

// Size is the serialized length of both txs, in bytes.
func (t *InscriptionTxs) Size() int {
	return t.Commit.SerializeSize() + t.Reveal.SerializeSize()
}

func (t *InscriptionTxs) VirtualSize() int64 {
	return TxVirtualSize(t.Commit) + TxVirtualSize(t.Reveal)
}

func NewAssembler(net network.Network, op ScriptPathUnlocker) *Assembler {
	return &Assembler{Network: net, Op: op, CarrierValue: DefaultCarrierValue}
}

func (a *Assembler) carrier() int64 {
	if a.CarrierValue > 0 {
		return a.CarrierValue
	}
	return DefaultCarrierValue
}

// MakeInscriptionTxs builds and signs the commit and reveal txs.
// They still need to be broadcast, commit first.
func (a *Assembler) MakeInscriptionTxs(req *InscriptionRequest) (*InscriptionTxs, error) {
	if len(req.Utxos) == 0 {
		return nil, ErrNoUtxos
	}
	if req.FeeRate < 1 {
		return nil, ErrInvalidFeeRate
	}
	changeScript, err := AddressScript(req.ChangeAddress, a.Network)
	if err != nil {
		return nil, fmt.Errorf("invalid change address: %w", err)
	}
	if op, ok := a.Op.(*TaprootOperator); ok && op.P2TR.EncodeAddress() != req.ChangeAddress {
		logger.WithFields(logger.Fields{
			"address":    req.ChangeAddress,
			"keyAddress": op.P2TR.EncodeAddress(),
		}).Warn("sender address is not the key path address of the signing key")
	}

	metaEnvelope, err := BuildEnvelope(MetadataContentType, req.Metadata)
	if err != nil {
		return nil, err
	}
	imageEnvelope, err := BuildEnvelope(req.ContentType, req.Image)
	if err != nil {
		return nil, err
	}
	script, err := BuildInscriptionScript(a.Op.XOnlyPubKey(), metaEnvelope, imageEnvelope)
	if err != nil {
		return nil, err
	}
	commitment, err := a.Op.NewScriptCommitment(script)
	if err != nil {
		return nil, err
	}

	carrier := a.carrier()
	prevOutputs := utxo.WithDefaultPkScript(req.Utxos, changeScript)

	// The reveal size does not depend on the commit txid.
	revealTmpl, err := a.craftReveal(&chainhash.Hash{}, carrier, req.ChangeAddress)
	if err != nil {
		return nil, err
	}
	revealTmpl.TxIn[0].Witness = dummyScriptPathWitness(commitment)
	revealFee := CalculateFee(TxVirtualSize(revealTmpl), req.FeeRate)
	commitValue := carrier + revealFee

	// Fee is estimated with the change output in place.
	commitTmpl := a.craftCommit(commitment.PkScript, commitValue, changeScript, 0, true)
	appendInputs(commitTmpl, prevOutputs)
	for _, in := range commitTmpl.TxIn {
		in.Witness = dummyKeyPathWitness()
	}
	commitFee := CalculateFee(TxVirtualSize(commitTmpl), req.FeeRate)

	sum := utxo.Sum(prevOutputs)
	change := sum - commitValue - commitFee
	if change < 0 {
		return nil, &InsufficientFundsError{Available: sum, Required: commitValue + commitFee}
	}

	logger.WithFields(logger.Fields{
		"network":   a.Network.String(),
		"inputs":    len(prevOutputs),
		"sum":       sum,
		"carrier":   carrier,
		"commitFee": commitFee,
		"revealFee": revealFee,
		"change":    change,
	}).Debug("Crafting inscription txs")

	commit := a.craftCommit(commitment.PkScript, commitValue, changeScript, change, change > 0)
	if _, err := a.Op.Unlock(commit, prevOutputs); err != nil {
		return nil, err
	}

	commitHash := commit.TxHash()
	reveal, err := a.craftReveal(&commitHash, carrier, req.ChangeAddress)
	if err != nil {
		return nil, err
	}
	if _, err := a.Op.UnlockScriptPath(reveal, 0, commit.TxOut[0], commitment); err != nil {
		return nil, err
	}

	return &InscriptionTxs{
		Commit:     commit,
		Reveal:     reveal,
		Commitment: commitment,
		CommitFee:  commitFee,
		RevealFee:  revealFee,
		Carrier:    carrier,
		Change:     change,
	}, nil
}

// craftCommit makes the outputs of the commit tx.
// output #1, the inscription commitment.
// output #2, change back to the sender, when withChange.
func (a *Assembler) craftCommit(commitPkScript []byte, commitValue int64, changeScript []byte, change int64, withChange bool) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	AppendPayToScript(tx, commitPkScript, commitValue)
	if withChange {
		AppendPayToScript(tx, changeScript, change)
	}
	return tx
}

// craftReveal spends output 0 of the commit tx into the carrier output,
// paid to the recipient address.
func (a *Assembler) craftReveal(commitHash *chainhash.Hash, carrier int64, recipient string) (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(commitHash, 0), nil, nil))
	return AppendPayToAddress(tx, a.Network, recipient, carrier)
}
