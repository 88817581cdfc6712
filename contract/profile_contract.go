package contract

import (
	"fmt"

	"talentchain/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("talentchain.profilecontract")

// Object types used for composite keys, also stored as 'objectType' on each
// record for CouchDB queries.
const (
	profileObjectType     = "Profile"
	projectObjectType     = "Project"
	certificateObjectType = "Certificate"
)

// Constants for input validation and limits
const (
	maxStringInputLength = 256
	maxDescriptionLength = 1024
	maxURLLength         = 512
	maxArrayElements     = 50 // Limit for arrays like SocialLinks and Tags
)

// ProfileSmartContract manages profiles, their project sub-records and
// endorsed certificates.
// @contract:ProfileSmartContract
type ProfileSmartContract struct {
	contractapi.Contract
}

// Instantiate is called during chaincode instantiation.
// It's a lifecycle method of the contract.
func (s *ProfileSmartContract) Instantiate(ctx contractapi.TransactionContextInterface) {
	logger.Info("ProfileSmartContract Instantiated/Upgraded")
}

// --- Uniqueness Registry Wrappers (Delegating to RegistryManager) ---
// These are direct pass-throughs keeping the contract API clean.

// HasMinted reports whether the given principal has ever created a profile.
func (s *ProfileSmartContract) HasMinted(ctx contractapi.TransactionContextInterface, principal string) (bool, error) {
	logger.Debugf("Chaincode Call: HasMinted for '%s'", principal)
	return NewRegistryManager(ctx).IsMinted(principal)
}

// GetTotalProfiles returns the running count of profiles ever created.
func (s *ProfileSmartContract) GetTotalProfiles(ctx contractapi.TransactionContextInterface) (uint64, error) {
	logger.Debug("Chaincode Call: GetTotalProfiles")
	return NewRegistryManager(ctx).TotalProfiles()
}

// GetMintRecord returns the registry entry for a principal.
func (s *ProfileSmartContract) GetMintRecord(ctx contractapi.TransactionContextInterface, principal string) (*model.MintRecord, error) {
	logger.Debugf("Chaincode Call: GetMintRecord for '%s'", principal)
	rec, err := NewRegistryManager(ctx).GetMintRecord(principal)
	if err != nil {
		return nil, fmt.Errorf("GetMintRecord: %w", err)
	}
	return rec, nil
}
