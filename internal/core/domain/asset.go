package domain

// ReferencePrecision is the number of decimal places of the common unit of
// account every contribution is normalized to before entries are counted.
const ReferencePrecision = 6

const (
	// WorthParityBp is the relative worth of an asset pegged 1:1 to the
	// common unit of account.
	WorthParityBp uint64 = 10_000
	// MaxWorthBp caps the relative worth of a whitelisted asset.
	MaxWorthBp uint64 = 50_000
	// MaxPrecision bounds the decimal places an asset may declare.
	MaxPrecision uint32 = 18
)

// SupportedAsset is a whitelisted fungible-asset type accepted as round
// contribution. RelativeWorthBp adjusts its normalized value relative to
// parity with the unit of account.
type SupportedAsset struct {
	Id              string
	Precision       uint32
	Active          bool
	MinContribution uint64
	RelativeWorthBp uint64
}

func (a SupportedAsset) Validate() error {
	if len(a.Id) <= 0 {
		return ErrAssetNotWhitelisted
	}
	if a.RelativeWorthBp <= 0 || a.RelativeWorthBp > MaxWorthBp {
		return ErrInvalidWorth
	}
	if a.Precision > MaxPrecision {
		return ErrInvalidWorth
	}
	return nil
}

// NormalizedValue converts a raw asset amount into the common unit of
// account: the amount is rescaled to ReferencePrecision by exact power-of-ten
// scaling (wider precisions truncate, narrower ones multiply), then weighted
// by the asset's relative worth. Both divisions floor.
func (a SupportedAsset) NormalizedValue(rawAmount uint64) uint64 {
	value := rawAmount
	if a.Precision > ReferencePrecision {
		value /= pow10(a.Precision - ReferencePrecision)
	} else if a.Precision < ReferencePrecision {
		value *= pow10(ReferencePrecision - a.Precision)
	}
	return value * a.RelativeWorthBp / WorthParityBp
}

func pow10(exp uint32) uint64 {
	result := uint64(1)
	for i := uint32(0); i < exp; i++ {
		result *= 10
	}
	return result
}
