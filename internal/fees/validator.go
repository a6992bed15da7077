package fees

import (
	"fmt"

	"DocLedger/internal/identifier"
	"DocLedger/internal/identity"
	"DocLedger/internal/transition"
	"DocLedger/internal/validation"
)

// IdentityFetcher loads identities from chain state.
// It returns nil, nil when the identity does not exist.
type IdentityFetcher interface {
	FetchIdentity(id identifier.Identifier) (*identity.Identity, error)
}

// Validator checks that the payer of a transition can afford its fee.
type Validator struct {
	identities IdentityFetcher
	calculate  Calculator
}

// NewValidator creates a fee validator.
func NewValidator(identities IdentityFetcher, calculate Calculator) *Validator {
	return &Validator{identities: identities, calculate: calculate}
}

// Validate compares the fee of st with the balance available to its payer.
// Unsupported transition types return *validation.InvalidStateTransitionTypeError
// as the error: they indicate protocol misuse, not an invalid transition.
// Repository and fee calculation failures are also returned as errors.
func (v *Validator) Validate(st transition.StateTransition) (*validation.Result, error) {
	balance, result, err := v.availableBalance(st)
	if err != nil || !result.IsValid() {
		return result, err
	}

	fee, err := v.calculate(st)
	if err != nil {
		return nil, fmt.Errorf("calculate %s fee:\n%w", st.Type(), err)
	}

	if balance < fee {
		result.AddError(&validation.BalanceIsNotEnoughError{Balance: balance, Fee: fee})
	}

	return result, nil
}

// availableBalance returns the credits the payer of st can spend.
func (v *Validator) availableBalance(st transition.StateTransition) (uint64, *validation.Result, error) {
	switch st.Type() {
	case transition.IdentityCreate, transition.IdentityTopUp:
		funded, ok := st.(transition.Funded)
		if !ok {
			return 0, nil, invalidType(st)
		}

		balance := transition.CreditsFromSatoshis(funded.AssetLock().Satoshis)

		if st.Type() == transition.IdentityCreate {
			return balance, validation.NewResult(), nil
		}

		current, result, err := v.identityBalance(funded.IdentityID())
		if err != nil || !result.IsValid() {
			return 0, result, err
		}

		return safeAdd(balance, current), result, nil

	case transition.DataContractCreate, transition.DocumentsBatch:
		owned, ok := st.(transition.Owned)
		if !ok {
			return 0, nil, invalidType(st)
		}

		return v.identityBalance(owned.OwnerID())

	default:
		return 0, nil, invalidType(st)
	}
}

// identityBalance returns the balance of an existing identity.
func (v *Validator) identityBalance(id identifier.Identifier) (uint64, *validation.Result, error) {
	ident, err := v.identities.FetchIdentity(id)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch identity %s:\n%w", id, err)
	}

	if ident == nil {
		return 0, validation.NewResult(&validation.IdentityNotFoundError{IdentityID: id}), nil
	}

	return ident.Balance, validation.NewResult(), nil
}

func invalidType(st transition.StateTransition) error {
	return &validation.InvalidStateTransitionTypeError{
		Type:          uint8(st.Type()),
		RawTransition: st.ToObject(),
	}
}
