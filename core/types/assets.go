package types

// Rarity classifies an ordinal by the significance of its satoshi.
// Values follow the conventional rarity ladder; anything above common
// must never be treated as a plain spendable value.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
)

func (r Rarity) IsCommon() bool {
	return r == RarityCommon || r == ""
}

// Ordinal is a rarity-classified sub-asset attached to a transaction
// output by the external annotation service. The payload is opaque to
// the engine; only presence and rarity drive resolution logic.
type Ordinal struct {
	Number int64  `json:"number"`
	Rarity Rarity `json:"rarity"`
	Offset int64  `json:"offset"`
}

// Inscription is a media attachment bound to a transaction output.
// Treated as a black-box presence fact.
type Inscription struct {
	Id          string `json:"id"`
	ContentType string `json:"contentType"`
	ContentSize int64  `json:"contentSize"`
}
