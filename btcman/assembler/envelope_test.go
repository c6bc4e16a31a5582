package assembler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/ordinals-go/btcman/network"
)

func TestBuildEnvelopeLayout(t *testing.T) {
	env, err := BuildEnvelope("image/png", []byte{0xde, 0xad})
	require.NoError(t, err)
	assert.Equal(t, []byte("ord"), env[:3])
	assert.Equal(t, byte(9), env[3])
	assert.Equal(t, "image/png", string(env[4:13]))
	assert.Equal(t, []byte{0xde, 0xad}, env[13:])

	again, err := BuildEnvelope("image/png", []byte{0xde, 0xad})
	require.NoError(t, err)
	assert.Equal(t, env, again)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte{0x00, 0x01, 0xff}, 100)
	for _, n := range []int{0, 1, 10, 254, 255} {
		contentType := strings.Repeat("a", n)
		env, err := BuildEnvelope(contentType, payload)
		require.NoError(t, err, n)

		ct, got, err := DecodeEnvelope(env)
		require.NoError(t, err, n)
		assert.Equal(t, contentType, ct)
		assert.Equal(t, payload, got)
	}

	_, err := BuildEnvelope(strings.Repeat("a", 256), payload)
	assert.ErrorIs(t, err, ErrContentTypeTooLong)
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	for _, b := range [][]byte{
		nil,
		[]byte("or"),
		[]byte("abc\x00"),
		[]byte("ord\x05ima"),
	} {
		_, _, err := DecodeEnvelope(b)
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
	}
}

func TestInscriptionScriptRoundTrip(t *testing.T) {
	op, _ := newTestOperator(t, network.Mainnet)

	meta, err := BuildEnvelope(MetadataContentType, []byte(`{"name":"Test"}`))
	require.NoError(t, err)
	// big enough for several pushes, sized so the tail would be a single 0x00 byte
	image := make([]byte, 2*txscript.MaxScriptElementSize+1-4-len("image/png"))
	img, err := BuildEnvelope("image/png", image)
	require.NoError(t, err)
	require.Equal(t, 2*txscript.MaxScriptElementSize+1, len(img))

	script, err := BuildInscriptionScript(op.XOnlyPubKey(), meta, img)
	require.NoError(t, err)

	envelopes, err := ExtractEnvelopes(script)
	require.NoError(t, err)
	require.Len(t, envelopes, 2)
	assert.Equal(t, meta, envelopes[0])
	assert.Equal(t, img, envelopes[1])

	ct, payload, err := DecodeEnvelope(envelopes[1])
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, image, payload)
}

func TestExtractEnvelopesUnterminated(t *testing.T) {
	script := []byte{txscript.OP_FALSE, txscript.OP_IF, txscript.OP_DATA_1, 0x07}
	_, err := ExtractEnvelopes(script)
	assert.ErrorIs(t, err, ErrMalformedEnvelope)

	envelopes, err := ExtractEnvelopes([]byte{txscript.OP_TRUE})
	assert.NoError(t, err)
	assert.Empty(t, envelopes)
}

func TestChunk(t *testing.T) {
	chunks := chunk(make([]byte, 1041), 520)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 520)
		assert.Greater(t, len(c), 1)
	}
	assert.Len(t, chunk(make([]byte, 4), 520), 1)
}
