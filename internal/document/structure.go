package document

import (
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"DocLedger/internal/canonical"
	"DocLedger/internal/contract"
	"DocLedger/internal/identifier"
	"DocLedger/internal/identity"
	"DocLedger/internal/logger"
	"DocLedger/internal/validation"
)

// maxParallelGroups bounds the contract groups validated at once.
const maxParallelGroups = 4

// ContractFetcher loads data contracts from chain state.
// It returns nil, nil when the contract does not exist.
type ContractFetcher interface {
	FetchDataContract(id identifier.Identifier) (*contract.DataContract, error)
}

// IdentityExistenceValidator checks that an identity exists and is usable.
type IdentityExistenceValidator interface {
	Validate(id identifier.Identifier) *validation.Result
}

// SignatureValidator checks a transition signature against an identity's keys.
type SignatureValidator interface {
	Validate(st identity.Signable, signerID identifier.Identifier) *validation.Result
}

// StructureValidator validates the structure of documents batches.
type StructureValidator struct {
	contracts  ContractFetcher
	schemas    validation.SchemaValidator
	existence  IdentityExistenceValidator
	signatures SignatureValidator
}

// NewStructureValidator creates a validator over its collaborators.
// schemas must be safe for concurrent use.
func NewStructureValidator(
	contracts ContractFetcher,
	schemas validation.SchemaValidator,
	existence IdentityExistenceValidator,
	signatures SignatureValidator,
) *StructureValidator {
	return &StructureValidator{
		contracts:  contracts,
		schemas:    schemas,
		existence:  existence,
		signatures: signatures,
	}
}

// contractGroup is the slice of a batch targeting one data contract.
type contractGroup struct {
	id          identifier.Identifier
	transitions []RawTransition
}

// groupOutcome is what validating one contract group produced.
type groupOutcome struct {
	contract *contract.DataContract
	result   *validation.Result
}

// Validate checks a raw documents batch:
//   - the envelope schema, failing fast;
//   - every contract group, concurrently, merged in contract id order;
//   - the owner identity's existence;
//   - the batch signature.
//
// Each stage runs only if all previous stages produced no error.
func (v *StructureValidator) Validate(raw RawBatch) *validation.Result {
	start := time.Now()

	result := v.validateEnvelope(raw)
	if !result.IsValid() {
		return result
	}

	ownerID, err := identifier.From(raw["ownerId"])
	if err != nil {
		return validation.NewResult(&validation.InvalidIdentifierError{Name: "ownerId", Cause: err})
	}

	log := logger.With("owner", ownerID.String())

	groups := groupByContract(rawTransitions(raw["transitions"]), result)

	outcomes := make([]groupOutcome, len(groups))

	// Fetch failures are reported per group as consensus errors, so tasks
	// never fail and the group only bounds and joins the fan-out.
	var g errgroup.Group
	g.SetLimit(maxParallelGroups)
	for i, group := range groups {
		g.Go(func() error {
			outcomes[i] = v.validateGroup(group, ownerID)
			return nil
		})
	}
	g.Wait()

	contracts := make([]*contract.DataContract, 0, len(outcomes))
	for _, o := range outcomes {
		result.Merge(o.result)
		if o.contract != nil {
			contracts = append(contracts, o.contract)
		}
	}

	if !result.IsValid() {
		log.Debug("documents batch rejected",
			"contracts", len(groups),
			"errors", len(result.Errors()),
			logger.Timed(start),
		)
		return result
	}

	batch, err := NewBatchTransition(raw, contracts)
	if err != nil {
		log.Warn("build documents batch", "error", err)
		return validation.NewResult(&validation.JSONSchemaError{Schema: batchSchemaID, Message: err.Error()})
	}

	result.Merge(v.existence.Validate(batch.OwnerID()))
	if !result.IsValid() {
		return result
	}

	result.Merge(v.signatures.Validate(batch, batch.OwnerID()))

	log.Debug("documents batch validated",
		"transitions", len(batch.Transitions()),
		"valid", result.IsValid(),
		logger.Timed(start),
	)

	return result
}

// validateEnvelope checks the batch against the documents batch schema.
func (v *StructureValidator) validateEnvelope(raw RawBatch) *validation.Result {
	instance, err := canonical.Normalize(raw)
	if err != nil {
		return validation.NewResult(&validation.JSONSchemaError{Message: err.Error()})
	}

	return v.schemas.Validate(batchSchema, instance, nil)
}

// groupByContract partitions transitions by $dataContractId, sorted by id.
// Transitions without a valid contract id are reported into result.
func groupByContract(transitions []RawTransition, result *validation.Result) []contractGroup {
	index := make(map[identifier.Identifier]int)
	var groups []contractGroup

	for _, t := range transitions {
		rawID, present := t["$dataContractId"]
		if !present {
			result.AddError(&validation.MissingDataContractIDError{Transition: t})
			continue
		}

		id, err := identifier.From(rawID)
		if err != nil {
			result.AddError(&validation.InvalidIdentifierError{Name: "$dataContractId", Cause: err})
			continue
		}

		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, contractGroup{id: id})
		}

		groups[i].transitions = append(groups[i].transitions, t)
	}

	sort.Slice(groups, func(a, b int) bool {
		return groups[a].id.Compare(groups[b].id) < 0
	})

	return groups
}

// validateGroup fetches the group's contract and validates its transitions.
// A missing contract suppresses every other error of the group.
func (v *StructureValidator) validateGroup(group contractGroup, ownerID identifier.Identifier) groupOutcome {
	c, err := v.contracts.FetchDataContract(group.id)
	if err != nil {
		logger.Warn("fetch data contract failed", "contract", group.id.String(), "error", err)
		return groupOutcome{result: validation.NewResult(&validation.DataContractFetchError{
			DataContractID: group.id,
			Cause:          err,
		})}
	}

	if c == nil {
		return groupOutcome{result: validation.NewResult(&validation.DataContractNotPresentError{
			DataContractID: group.id,
		})}
	}

	return groupOutcome{
		contract: c,
		result:   v.validateTransitions(c, ownerID, group.transitions),
	}
}

// enrichedViews holds the action-scoped schema views of one contract.
type enrichedViews struct {
	create  *contract.Enriched
	replace *contract.Enriched
}

func newEnrichedViews(c *contract.DataContract) enrichedViews {
	base := contract.Enrich(c, baseSchema, contract.PrefixBase)

	return enrichedViews{
		create:  contract.Enrich(base, createSchema, contract.PrefixCreate),
		replace: contract.Enrich(base, replaceSchema, contract.PrefixReplace, "$createdAt"),
	}
}

// validateTransitions runs the per-transition checks of one contract group,
// then duplicate detection if every transition passed.
func (v *StructureValidator) validateTransitions(c *contract.DataContract, ownerID identifier.Identifier, transitions []RawTransition) *validation.Result {
	result := validation.NewResult()
	views := newEnrichedViews(c)

	for _, t := range transitions {
		result.Merge(v.validateTransition(c, views, ownerID, t))
	}

	if !result.IsValid() {
		return result
	}

	if duplicates := FindDuplicatesByID(transitions); len(duplicates) > 0 {
		result.AddError(&validation.DuplicateDocumentTransitionsError{Transitions: duplicates})
	}

	duplicates, indexResult := FindDuplicatesByIndices(transitions, c, ownerID)
	result.Merge(indexResult)
	if len(duplicates) > 0 {
		result.AddError(&validation.DuplicateDocumentTransitionsError{Transitions: duplicates})
	}

	return result
}

// validateTransition checks type, action, schema and, for CREATE, the derived id.
func (v *StructureValidator) validateTransition(c *contract.DataContract, views enrichedViews, ownerID identifier.Identifier, t RawTransition) *validation.Result {
	rawType, present := t["$type"]
	if !present {
		return validation.NewResult(&validation.MissingDocumentTypeError{Transition: t})
	}

	docType, _ := rawType.(string)
	if !c.IsDocumentDefined(docType) {
		return validation.NewResult(&validation.InvalidDocumentTypeError{Type: rawType, Contract: c})
	}

	rawAction, present := t["$action"]
	if !present {
		return validation.NewResult(&validation.MissingDocumentTransitionActionError{Transition: t})
	}

	action, ok := ParseAction(rawAction)
	if !ok {
		return validation.NewResult(&validation.InvalidDocumentTransitionActionError{
			Action:     rawAction,
			Transition: t,
		})
	}

	instance, err := canonical.Normalize(t)
	if err != nil {
		return validation.NewResult(&validation.JSONSchemaError{Message: err.Error()})
	}

	switch action {
	case ActionDelete:
		return v.schemas.Validate(baseSchema, instance, nil)

	case ActionReplace:
		return v.validateAgainst(views.replace, docType, instance)

	default:
		result := v.validateAgainst(views.create, docType, instance)
		if !result.IsValid() {
			return result
		}

		return validateCreateID(c.ID, ownerID, docType, t)
	}
}

// validateAgainst validates instance against a document type of an enriched view.
func (v *StructureValidator) validateAgainst(view *contract.Enriched, docType string, instance any) *validation.Result {
	additional := map[string]map[string]any{
		view.URI(): view.ToJSON(),
	}

	return v.schemas.Validate(view.DocumentSchemaRef(docType), instance, additional)
}

// validateCreateID requires the submitted $id to equal the derived document id.
func validateCreateID(contractID, ownerID identifier.Identifier, docType string, t RawTransition) *validation.Result {
	entropy, err := identifier.Bytes(t["$entropy"])
	if err != nil {
		return validation.NewResult(&validation.InvalidIdentifierError{Name: "$entropy", Cause: err})
	}

	id, err := identifier.From(t["$id"])
	if err != nil {
		return validation.NewResult(&validation.InvalidIdentifierError{Name: "$id", Cause: err})
	}

	expected := GenerateID(contractID, ownerID, docType, entropy)
	if id != expected {
		return validation.NewResult(&validation.InvalidDocumentTransitionIDError{
			Transition: t,
			ExpectedID: expected,
		})
	}

	return validation.NewResult()
}
