package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"talentchain/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var regLogger = flogging.MustGetLogger("talentchain.registrymanager")

// Object types for registry composite keys.
const (
	mintRecordObjectType = "MintRecord" // One entry per principal that has created a profile. Attribute: principal.
	counterObjectType    = "Counter"    // Monotone uint64 counters. Attribute: counter name.
)

// Counter names. The profiles counter is both the total_profiles figure and
// the profile ID allocator; certificates get an independent ID space.
const (
	counterProfiles     = "profiles"
	counterCertificates = "certificates"
)

// RegistryManager enforces the one-profile-per-principal invariant and
// allocates record identifiers. It is injected with the transaction context
// rather than living as process state: the registry itself is the world
// state under the MintRecord and Counter namespaces.
type RegistryManager struct {
	Ctx contractapi.TransactionContextInterface
}

// NewRegistryManager creates a new instance of RegistryManager.
func NewRegistryManager(ctx contractapi.TransactionContextInterface) *RegistryManager {
	return &RegistryManager{Ctx: ctx}
}

// --- Key Creation Helpers (using Composite Keys) ---

func (rm *RegistryManager) createMintRecordCompositeKey(principal string) (string, error) {
	principal = strings.TrimSpace(principal)
	if principal == "" {
		return "", errors.New("principal cannot be empty")
	}
	return rm.Ctx.GetStub().CreateCompositeKey(mintRecordObjectType, []string{principal})
}

func (rm *RegistryManager) createCounterCompositeKey(name string) (string, error) {
	return rm.Ctx.GetStub().CreateCompositeKey(counterObjectType, []string{name})
}

// --- Counter Helpers ---

func (rm *RegistryManager) readCounter(name string) (uint64, error) {
	key, err := rm.createCounterCompositeKey(name)
	if err != nil {
		return 0, fmt.Errorf("failed to create counter key for '%s': %w", name, err)
	}
	raw, err := rm.Ctx.GetStub().GetState(key)
	if err != nil {
		return 0, fmt.Errorf("failed to read counter '%s': %w", name, err)
	}
	if raw == nil {
		return 0, nil
	}
	value, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt counter '%s' value '%s': %w", name, string(raw), err)
	}
	return value, nil
}

func (rm *RegistryManager) writeCounter(name string, value uint64) error {
	key, err := rm.createCounterCompositeKey(name)
	if err != nil {
		return fmt.Errorf("failed to create counter key for '%s': %w", name, err)
	}
	if err := rm.Ctx.GetStub().PutState(key, []byte(strconv.FormatUint(value, 10))); err != nil {
		return fmt.Errorf("failed to write counter '%s': %w", name, err)
	}
	return nil
}

// --- Public Registry Functions ---

// Register records that the principal has created its profile and allocates
// the profile's identifier. The read-check-write runs inside one transaction,
// so two racing registrations for the same principal conflict on the
// MintRecord key and at most one commits. Fails with ErrAlreadyMinted if the
// principal is already registered; no operation ever removes an entry.
func (rm *RegistryManager) Register(principal string, now time.Time) (string, error) {
	mintKey, err := rm.createMintRecordCompositeKey(principal)
	if err != nil {
		return "", fmt.Errorf("failed to create mint record key: %w", err)
	}
	existing, err := rm.Ctx.GetStub().GetState(mintKey)
	if err != nil {
		return "", fmt.Errorf("failed to check mint record for '%s': %w", principal, err)
	}
	if existing != nil {
		return "", fmt.Errorf("principal '%s': %w", principal, ErrAlreadyMinted)
	}

	total, err := rm.readCounter(counterProfiles)
	if err != nil {
		return "", err
	}
	total++
	profileID := strconv.FormatUint(total, 10)

	record := model.MintRecord{
		ObjectType: mintRecordObjectType,
		Principal:  principal,
		ProfileID:  profileID,
		MintedAt:   now,
	}
	recordBytes, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal mint record for '%s': %w", principal, err)
	}
	if err := rm.Ctx.GetStub().PutState(mintKey, recordBytes); err != nil {
		return "", fmt.Errorf("failed to save mint record for '%s': %w", principal, err)
	}
	if err := rm.writeCounter(counterProfiles, total); err != nil {
		return "", err
	}

	regLogger.Infof("Registered principal '%s' as profile '%s' (total profiles: %d)", principal, profileID, total)
	return profileID, nil
}

// IsMinted reports whether the principal has ever created a profile. Pure
// read, no side effect.
func (rm *RegistryManager) IsMinted(principal string) (bool, error) {
	mintKey, err := rm.createMintRecordCompositeKey(principal)
	if err != nil {
		return false, fmt.Errorf("failed to create mint record key: %w", err)
	}
	existing, err := rm.Ctx.GetStub().GetState(mintKey)
	if err != nil {
		return false, fmt.Errorf("failed to check mint record for '%s': %w", principal, err)
	}
	return existing != nil, nil
}

// GetMintRecord returns the registry entry for the principal, or ErrNotFound.
func (rm *RegistryManager) GetMintRecord(principal string) (*model.MintRecord, error) {
	mintKey, err := rm.createMintRecordCompositeKey(principal)
	if err != nil {
		return nil, fmt.Errorf("failed to create mint record key: %w", err)
	}
	recordBytes, err := rm.Ctx.GetStub().GetState(mintKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read mint record for '%s': %w", principal, err)
	}
	if recordBytes == nil {
		return nil, fmt.Errorf("mint record for principal '%s': %w", principal, ErrNotFound)
	}
	var record model.MintRecord
	if err := json.Unmarshal(recordBytes, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mint record for '%s': %w", principal, err)
	}
	return &record, nil
}

// TotalProfiles returns the number of profiles ever created.
func (rm *RegistryManager) TotalProfiles() (uint64, error) {
	return rm.readCounter(counterProfiles)
}

// NextCertificateID allocates the next certificate identifier. Certificates
// draw from their own counter, independent of the profile ID space.
func (rm *RegistryManager) NextCertificateID() (string, error) {
	value, err := rm.readCounter(counterCertificates)
	if err != nil {
		return "", err
	}
	value++
	if err := rm.writeCounter(counterCertificates, value); err != nil {
		return "", err
	}
	return strconv.FormatUint(value, 10), nil
}
