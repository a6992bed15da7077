package fees

import (
	"math"
	"math/bits"

	"DocLedger/internal/transition"
)

// FeeParams holds protocol-level fee constants.
type FeeParams struct {
	PricePerByte uint64 // PricePerByte is the credit price of one byte of serialized transition
	MinFee       uint64 // MinFee is the minimum fee of any transition (anti-spam)
}

// DefaultFeeParams returns the default fee parameters.
func DefaultFeeParams() FeeParams {
	return FeeParams{
		PricePerByte: 1,
		MinFee:       100,
	}
}

// Calculator computes the fee of a state transition in credits.
type Calculator func(st transition.StateTransition) (uint64, error)

// DefaultCalculator charges size * PricePerByte, at least MinFee.
func DefaultCalculator(params FeeParams) Calculator {
	return func(st transition.StateTransition) (uint64, error) {
		size, err := transition.Size(st)
		if err != nil {
			return 0, err
		}

		return CalculateFee(uint64(size), params), nil
	}
}

// CalculateFee computes the fee of a transition of the given serialized size.
func CalculateFee(size uint64, params FeeParams) uint64 {
	return max(safeMul(size, params.PricePerByte), params.MinFee)
}

// safeMul returns a * b, capping at MaxUint64 on overflow.
func safeMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}

	hi, _ := bits.Mul64(a, b)
	if hi > 0 {
		return math.MaxUint64
	}

	return a * b
}

// safeAdd returns a + b, capping at MaxUint64 on overflow.
func safeAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return math.MaxUint64
	}

	return sum
}
