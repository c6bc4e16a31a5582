package assembler

/*
Inscription envelope.

An envelope is the marker "ord", one byte holding the content type length,
the content type and the raw payload, concatenated.

Inside a tapscript leaf every envelope sits in a branch that never runs:

	<x-only pubkey> OP_CHECKSIG
	OP_FALSE OP_IF <push> <push> ... OP_ENDIF   (metadata)
	OP_FALSE OP_IF <push> <push> ... OP_ENDIF   (image)

Pushes are at most 520 bytes each.
*/

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

const (
	EnvelopeMarker      = "ord"
	MaxContentTypeLen   = 255
	MetadataContentType = "application/json"
)

var (
	ErrContentTypeTooLong = fmt.Errorf("content type longer than %d bytes", MaxContentTypeLen)
	ErrMalformedEnvelope  = errors.New("malformed inscription envelope")
)

// BuildEnvelope encodes a (content type, payload) pair.
func BuildEnvelope(contentType string, payload []byte) ([]byte, error) {
	if len(contentType) > MaxContentTypeLen {
		return nil, ErrContentTypeTooLong
	}
	out := make([]byte, 0, len(EnvelopeMarker)+1+len(contentType)+len(payload))
	out = append(out, EnvelopeMarker...)
	out = append(out, byte(len(contentType)))
	out = append(out, contentType...)
	out = append(out, payload...)
	return out, nil
}

// DecodeEnvelope is the inverse of BuildEnvelope.
func DecodeEnvelope(b []byte) (string, []byte, error) {
	head := len(EnvelopeMarker) + 1
	if len(b) < head || string(b[:len(EnvelopeMarker)]) != EnvelopeMarker {
		return "", nil, ErrMalformedEnvelope
	}
	ctLen := int(b[len(EnvelopeMarker)])
	if len(b) < head+ctLen {
		return "", nil, fmt.Errorf("%w: content type truncated", ErrMalformedEnvelope)
	}
	return string(b[head : head+ctLen]), b[head+ctLen:], nil
}

// BuildInscriptionScript makes the tapscript leaf that locks to xOnlyPubKey
// and carries the envelopes as unexecuted data.
func BuildInscriptionScript(xOnlyPubKey []byte, envelopes ...[]byte) ([]byte, error) {
	head, err := txscript.NewScriptBuilder().
		AddData(xOnlyPubKey).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	if err != nil {
		return nil, err
	}

	// ScriptBuilder refuses scripts over txscript.MaxScriptSize, which
	// tapscript does not have, so the body is assembled push by push.
	var buf bytes.Buffer
	buf.Write(head)
	for _, env := range envelopes {
		buf.WriteByte(txscript.OP_FALSE)
		buf.WriteByte(txscript.OP_IF)
		for _, chunk := range chunk(env, txscript.MaxScriptElementSize) {
			push, err := txscript.NewScriptBuilder().AddData(chunk).Script()
			if err != nil {
				return nil, err
			}
			buf.Write(push)
		}
		buf.WriteByte(txscript.OP_ENDIF)
	}
	return buf.Bytes(), nil
}

// ExtractEnvelopes returns the concatenated data of every
// OP_FALSE OP_IF ... OP_ENDIF block in script, in order.
func ExtractEnvelopes(script []byte) ([][]byte, error) {
	var (
		envelopes [][]byte
		current   []byte
		inside    bool
		prevFalse bool
	)
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		op := tokenizer.Opcode()
		if !inside {
			if prevFalse && op == txscript.OP_IF {
				inside = true
				current = []byte{}
				prevFalse = false
				continue
			}
			prevFalse = op == txscript.OP_FALSE
			continue
		}
		if op == txscript.OP_ENDIF {
			envelopes = append(envelopes, current)
			inside = false
			continue
		}
		data, ok := pushedData(op, tokenizer.Data())
		if !ok {
			return nil, fmt.Errorf("%w: opcode 0x%02x inside envelope", ErrMalformedEnvelope, op)
		}
		current = append(current, data...)
	}
	if err := tokenizer.Err(); err != nil {
		return nil, err
	}
	if inside {
		return nil, fmt.Errorf("%w: missing OP_ENDIF", ErrMalformedEnvelope)
	}
	return envelopes, nil
}

// pushedData maps a push opcode to the bytes it places on the stack.
// Single byte pushes may be encoded as small integer opcodes.
func pushedData(op byte, data []byte) ([]byte, bool) {
	switch {
	case op == txscript.OP_0:
		return nil, true
	case op >= txscript.OP_DATA_1 && op <= txscript.OP_PUSHDATA4:
		return data, true
	case op == txscript.OP_1NEGATE:
		return []byte{0x81}, true
	case op >= txscript.OP_1 && op <= txscript.OP_16:
		return []byte{op - txscript.OP_1 + 1}, true
	}
	return nil, false
}

// chunk splits b into pieces of at most size bytes. No piece is a single
// byte, since a one byte push is encoded as a small integer opcode and
// 0x00 would become an empty push.
func chunk(b []byte, size int) [][]byte {
	var out [][]byte
	for len(b) > size {
		n := size
		if len(b)-size == 1 {
			n = size - 1
		}
		out = append(out, b[:n])
		b = b[n:]
	}
	return append(out, b)
}
