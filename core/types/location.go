package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
)

// Location addresses a specific transaction output as "txid:outputIndex".
// It is the sole addressing scheme for marketplace assets.
type Location struct {
	TxHash chainhash.Hash
	Index  uint32
}

func NewLocation(txHash chainhash.Hash, index uint32) Location {
	return Location{
		TxHash: txHash,
		Index:  index,
	}
}

var ErrLocationInvalidSeparator = fmt.Errorf("invalid location: must contain exactly one separator")

func NewLocationFromString(s string) (Location, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Location{}, errors.WithStack(ErrLocationInvalidSeparator)
	}
	txHash, err := chainhash.NewHashFromStr(parts[0])
	if err != nil {
		return Location{}, errors.Wrap(err, "invalid location: cannot parse txid")
	}
	index, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Location{}, errors.Wrap(err, "invalid location: cannot parse output index")
	}
	return Location{
		TxHash: *txHash,
		Index:  uint32(index),
	}, nil
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.TxHash.String(), l.Index)
}

// MarshalJSON implements json.Marshaler
func (l Location) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(l.String())), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (l *Location) UnmarshalJSON(data []byte) error {
	unquoted, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.Wrap(err, "location must be a JSON string")
	}
	parsed, err := NewLocationFromString(unquoted)
	if err != nil {
		return errors.WithStack(err)
	}
	*l = parsed
	return nil
}
