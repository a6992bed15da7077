package main

import (
	"encoding/json"
	"fmt"
	"os"

	"DocLedger/internal/contract"
	"DocLedger/internal/document"
	"DocLedger/internal/identity"
)

// readBatch loads a documents batch from a JSON file.
func readBatch(path string) (document.RawBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file:\n%w", err)
	}

	return document.DecodeBatchJSON(data)
}

// readContract loads a data contract from a JSON file with hex identifiers.
func readContract(path string) (*contract.DataContract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contract file:\n%w", err)
	}

	c, err := contract.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s:\n%w", path, err)
	}

	return c, nil
}

// readIdentity loads an identity from a JSON file.
// The id is hex, key data is base64.
func readIdentity(path string) (*identity.Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read identity file:\n%w", err)
	}

	var ident identity.Identity
	if err := json.Unmarshal(data, &ident); err != nil {
		return nil, fmt.Errorf("decode identity %s:\n%w", path, err)
	}

	return &ident, nil
}
