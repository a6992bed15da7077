package api

import (
	"fmt"

	"DocLedger/internal/document"
	"DocLedger/internal/transition"
	"DocLedger/internal/validation"
)

// BatchValidator judges the structure of a documents batch.
type BatchValidator interface {
	Validate(raw document.RawBatch) *validation.Result
}

// FeeValidator judges whether the payer of a transition can afford it.
type FeeValidator interface {
	Validate(st transition.StateTransition) (*validation.Result, error)
}

// Service runs the validators a documents batch goes through.
type Service struct {
	structure BatchValidator
	fees      FeeValidator // fees may be nil when fees are not checked
	contracts document.ContractFetcher
}

// NewService creates a service. fees may be nil.
func NewService(structure BatchValidator, fees FeeValidator, contracts document.ContractFetcher) *Service {
	return &Service{structure: structure, fees: fees, contracts: contracts}
}

// Check validates raw. The fee is checked only if checkFee is set, the
// service has a fee validator and the structure is valid.
func (s *Service) Check(raw document.RawBatch, checkFee bool) (*validation.Result, error) {
	result := s.structure.Validate(raw)
	if !result.IsValid() || !checkFee || s.fees == nil {
		return result, nil
	}

	batch, err := document.LoadBatchTransition(raw, s.contracts)
	if err != nil {
		return nil, fmt.Errorf("build documents batch:\n%w", err)
	}

	result, err = s.fees.Validate(batch)
	if err != nil {
		return nil, fmt.Errorf("check fee:\n%w", err)
	}

	return result, nil
}
