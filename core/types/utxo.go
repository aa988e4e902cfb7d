package types

// UnspentOutput is a spendable output owned by an address, annotated
// with any attached assets.
type UnspentOutput struct {
	Location Location
	Output   *TxOut
}

// IsSafeToSpend reports whether the output carries nothing beyond plain
// common-rarity value. Outputs holding rare ordinals or inscriptions
// must never be selected as funding inputs.
func (u *UnspentOutput) IsSafeToSpend() bool {
	if len(u.Output.Inscriptions) > 0 {
		return false
	}
	for _, ordinal := range u.Output.Ordinals {
		if !ordinal.Rarity.IsCommon() {
			return false
		}
	}
	return true
}
