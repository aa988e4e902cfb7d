package entity

import (
	"testing"

	"github.com/ordmarket/orderbook-engine/common/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validOrderJSON = `{
	"ts": 1700000000,
	"type": "sell",
	"location": "5e0ab322a29be1e3a5868b06cad2ffca4c6d9f20bbda619c5e0eade9dc522736:0",
	"maker": "bc1qmaker",
	"satoshis": 50000,
	"signature": "deadbeef"
}`

func TestParseOrderContent(t *testing.T) {
	content, err := ParseOrderContent([]byte(validOrderJSON))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), content.Timestamp)
	assert.Equal(t, SideSell, content.Side)
	assert.Equal(t, "bc1qmaker", content.Maker)
	assert.Equal(t, int64(50000), content.Satoshis)
	assert.Equal(t, uint32(0), content.Location.Index)
}

func TestParseOrderContentMissingFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `"just a string"`},
		{name: "missing signature", raw: `{"ts":1,"type":"sell","location":"5e0ab322a29be1e3a5868b06cad2ffca4c6d9f20bbda619c5e0eade9dc522736:0","maker":"m","satoshis":1}`},
		{name: "missing maker", raw: `{"ts":1,"type":"sell","location":"5e0ab322a29be1e3a5868b06cad2ffca4c6d9f20bbda619c5e0eade9dc522736:0","satoshis":1,"signature":"s"}`},
		{name: "invalid side", raw: `{"ts":1,"type":"hold","location":"5e0ab322a29be1e3a5868b06cad2ffca4c6d9f20bbda619c5e0eade9dc522736:0","maker":"m","satoshis":1,"signature":"s"}`},
		{name: "zero price", raw: `{"ts":1,"type":"sell","location":"5e0ab322a29be1e3a5868b06cad2ffca4c6d9f20bbda619c5e0eade9dc522736:0","maker":"m","satoshis":0,"signature":"s"}`},
		{name: "invalid location", raw: `{"ts":1,"type":"sell","location":"nonsense","maker":"m","satoshis":1,"signature":"s"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOrderContent([]byte(tt.raw))
			assert.ErrorIs(t, err, errs.ContentMalformed)
		})
	}
}

func TestOrderContentSigningPayload(t *testing.T) {
	content, err := ParseOrderContent([]byte(validOrderJSON))
	require.NoError(t, err)
	assert.Equal(t, "1700000000|sell|5e0ab322a29be1e3a5868b06cad2ffca4c6d9f20bbda619c5e0eade9dc522736:0|bc1qmaker|50000", content.SigningPayload())
}

func TestParseOfferContent(t *testing.T) {
	content, err := ParseOfferContent([]byte(`{
		"ts": 1700000001,
		"origin": "bafyorder1",
		"offer": "0200000000",
		"taker": "bc1qtaker"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "bafyorder1", content.Origin)
	assert.Equal(t, "bc1qtaker", content.Taker)
	assert.Nil(t, content.Signature)
}

func TestParseOfferContentMissingFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `[]`},
		{name: "missing origin", raw: `{"ts":1,"offer":"00","taker":"t"}`},
		{name: "empty origin", raw: `{"ts":1,"origin":"","offer":"00","taker":"t"}`},
		{name: "empty transaction", raw: `{"ts":1,"origin":"x","offer":"","taker":"t"}`},
		{name: "missing taker", raw: `{"ts":1,"origin":"x","offer":"00"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOfferContent([]byte(tt.raw))
			assert.ErrorIs(t, err, errs.ContentMalformed)
		})
	}
}
