package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"talentchain/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Query Functions ---
// All reads here are side-effect free; referencing a nonexistent record is a
// caller precondition violation surfaced as ErrNotFound.

// getProfileByID is an internal helper to retrieve and unmarshal a profile.
// It also ensures schema compliance.
func (s *ProfileSmartContract) getProfileByID(ctx contractapi.TransactionContextInterface, profileID string) (*model.Profile, error) {
	if strings.TrimSpace(profileID) == "" {
		return nil, errors.New("getProfileByID: profileID cannot be empty")
	}
	profileKey, err := s.createProfileCompositeKey(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("getProfileByID: failed to create key for profile '%s': %w", profileID, err)
	}

	profileBytes, err := ctx.GetStub().GetState(profileKey)
	if err != nil {
		return nil, fmt.Errorf("getProfileByID: failed to read profile '%s' from ledger: %w", profileID, err)
	}
	if profileBytes == nil {
		return nil, fmt.Errorf("profile with ID '%s': %w", profileID, ErrNotFound)
	}

	var profile model.Profile
	if err = json.Unmarshal(profileBytes, &profile); err != nil {
		return nil, fmt.Errorf("getProfileByID: failed to unmarshal profile '%s' data: %w", profileID, err)
	}
	ensureProfileSchemaCompliance(&profile)
	return &profile, nil
}

// getCertificateByID is an internal helper to retrieve and unmarshal a certificate.
func (s *ProfileSmartContract) getCertificateByID(ctx contractapi.TransactionContextInterface, certificateID string) (*model.Certificate, error) {
	if strings.TrimSpace(certificateID) == "" {
		return nil, errors.New("getCertificateByID: certificateID cannot be empty")
	}
	certKey, err := s.createCertificateCompositeKey(ctx, certificateID)
	if err != nil {
		return nil, fmt.Errorf("getCertificateByID: failed to create key for certificate '%s': %w", certificateID, err)
	}

	certBytes, err := ctx.GetStub().GetState(certKey)
	if err != nil {
		return nil, fmt.Errorf("getCertificateByID: failed to read certificate '%s' from ledger: %w", certificateID, err)
	}
	if certBytes == nil {
		return nil, fmt.Errorf("certificate with ID '%s': %w", certificateID, ErrNotFound)
	}

	var cert model.Certificate
	if err = json.Unmarshal(certBytes, &cert); err != nil {
		return nil, fmt.Errorf("getCertificateByID: failed to unmarshal certificate '%s' data: %w", certificateID, err)
	}
	return &cert, nil
}

// GetProfile returns the full profile record.
func (s *ProfileSmartContract) GetProfile(ctx contractapi.TransactionContextInterface, profileID string) (*model.Profile, error) {
	logger.Debugf("GetProfile: Querying profile '%s'", profileID)
	return s.getProfileByID(ctx, profileID)
}

// GetMyProfile resolves the caller's profile through the uniqueness registry.
func (s *ProfileSmartContract) GetMyProfile(ctx contractapi.TransactionContextInterface) (*model.Profile, error) {
	principal, err := s.getCurrentPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetMyProfile: %w", err)
	}
	record, err := NewRegistryManager(ctx).GetMintRecord(principal)
	if err != nil {
		return nil, fmt.Errorf("GetMyProfile: %w", err)
	}
	return s.getProfileByID(ctx, record.ProfileID)
}

// GetProfileOwner returns the principal that owns the profile.
func (s *ProfileSmartContract) GetProfileOwner(ctx contractapi.TransactionContextInterface, profileID string) (string, error) {
	profile, err := s.getProfileByID(ctx, profileID)
	if err != nil {
		return "", err
	}
	return profile.Owner, nil
}

// IsProfileVerified returns the verified flag of the profile.
func (s *ProfileSmartContract) IsProfileVerified(ctx contractapi.TransactionContextInterface, profileID string) (bool, error) {
	profile, err := s.getProfileByID(ctx, profileID)
	if err != nil {
		return false, err
	}
	return profile.Verified, nil
}

// GetProjectCount returns the number of project slots ever allocated for the
// profile. Vacant slots stay counted.
func (s *ProfileSmartContract) GetProjectCount(ctx contractapi.TransactionContextInterface, profileID string) (uint64, error) {
	profile, err := s.getProfileByID(ctx, profileID)
	if err != nil {
		return 0, err
	}
	return profile.ProjectCount, nil
}

// GetCertificateCount returns the lifetime number of certificates minted
// against the profile.
func (s *ProfileSmartContract) GetCertificateCount(ctx contractapi.TransactionContextInterface, profileID string) (uint64, error) {
	profile, err := s.getProfileByID(ctx, profileID)
	if err != nil {
		return 0, err
	}
	return profile.CertificateCount, nil
}

// ProjectExists reports whether the project slot is currently occupied.
// Vacant and never-allocated indices both report false.
func (s *ProfileSmartContract) ProjectExists(ctx contractapi.TransactionContextInterface, profileID string, indexStr string) (bool, error) {
	index, err := parseProjectIndex(indexStr)
	if err != nil {
		return false, fmt.Errorf("ProjectExists: %w", err)
	}
	projectKey, err := s.createProjectCompositeKey(ctx, profileID, index)
	if err != nil {
		return false, fmt.Errorf("ProjectExists: failed to create key for project %d of profile '%s': %w", index, profileID, err)
	}
	projectBytes, err := ctx.GetStub().GetState(projectKey)
	if err != nil {
		return false, fmt.Errorf("ProjectExists: failed to read project %d of profile '%s': %w", index, profileID, err)
	}
	return projectBytes != nil, nil
}

// GetProject returns the project at the given index, or ErrNotFound if the
// slot is vacant or was never allocated.
func (s *ProfileSmartContract) GetProject(ctx contractapi.TransactionContextInterface, profileID string, indexStr string) (*model.Project, error) {
	index, err := parseProjectIndex(indexStr)
	if err != nil {
		return nil, fmt.Errorf("GetProject: %w", err)
	}
	projectKey, err := s.createProjectCompositeKey(ctx, profileID, index)
	if err != nil {
		return nil, fmt.Errorf("GetProject: failed to create key for project %d of profile '%s': %w", index, profileID, err)
	}
	projectBytes, err := ctx.GetStub().GetState(projectKey)
	if err != nil {
		return nil, fmt.Errorf("GetProject: failed to read project %d of profile '%s': %w", index, profileID, err)
	}
	if projectBytes == nil {
		return nil, fmt.Errorf("project %d of profile '%s': %w", index, profileID, ErrNotFound)
	}
	var project model.Project
	if err = json.Unmarshal(projectBytes, &project); err != nil {
		return nil, fmt.Errorf("GetProject: failed to unmarshal project %d of profile '%s': %w", index, profileID, err)
	}
	ensureProjectSchemaCompliance(&project)
	return &project, nil
}

// GetCertificate returns the full certificate record.
func (s *ProfileSmartContract) GetCertificate(ctx contractapi.TransactionContextInterface, certificateID string) (*model.Certificate, error) {
	logger.Debugf("GetCertificate: Querying certificate '%s'", certificateID)
	return s.getCertificateByID(ctx, certificateID)
}

// parsePageSize applies the default/cap policy to a page size argument.
func parsePageSize(pageSizeStr string) int32 {
	pageSize, err := strconv.ParseInt(pageSizeStr, 10, 32)
	if err != nil || pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return int32(pageSize)
}

// GetAllProfiles returns a page of all profiles.
func (s *ProfileSmartContract) GetAllProfiles(ctx contractapi.TransactionContextInterface, pageSizeStr string, bookmark string) (*model.PaginatedProfileResponse, error) {
	pageSize := parsePageSize(pageSizeStr)
	logger.Infof("GetAllProfiles: pageSize: %d, bookmark: '%s'", pageSize, bookmark)

	resultsIterator, metadata, err := ctx.GetStub().GetStateByPartialCompositeKeyWithPagination(profileObjectType, []string{}, pageSize, bookmark)
	if err != nil {
		return nil, fmt.Errorf("GetAllProfiles: failed to get profiles iterator: %w", err)
	}
	defer resultsIterator.Close()

	profiles := []*model.Profile{}
	fetchedCount := int32(0)

	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			logger.Warningf("GetAllProfiles: Error iterating results: %v. Skipping.", iterErr)
			continue
		}
		var profile model.Profile
		if errUnmarshal := json.Unmarshal(queryResponse.Value, &profile); errUnmarshal != nil {
			logger.Warningf("GetAllProfiles: Error unmarshalling profile (key: %s): %v. Skipping.", queryResponse.Key, errUnmarshal)
			continue
		}
		ensureProfileSchemaCompliance(&profile)
		profiles = append(profiles, &profile)
		fetchedCount++
	}

	logger.Infof("GetAllProfiles: Retrieved %d profiles for this page.", fetchedCount)
	return &model.PaginatedProfileResponse{
		Profiles:     profiles, // Will be [] if empty, not null
		NextBookmark: metadata.GetBookmark(),
		FetchedCount: fetchedCount,
	}, nil
}

// GetProjects returns a page of the occupied project slots of one profile.
// Vacant indices simply do not appear; callers wanting the full index space
// should use GetProjectCount and probe ProjectExists.
func (s *ProfileSmartContract) GetProjects(ctx contractapi.TransactionContextInterface, profileID string, pageSizeStr string, bookmark string) (*model.PaginatedProjectResponse, error) {
	if err := s.validateRequiredString(profileID, "profileID", maxStringInputLength); err != nil {
		return nil, err
	}
	pageSize := parsePageSize(pageSizeStr)
	logger.Debugf("GetProjects: profile '%s', pageSize: %d, bookmark: '%s'", profileID, pageSize, bookmark)

	resultsIterator, metadata, err := ctx.GetStub().GetStateByPartialCompositeKeyWithPagination(projectObjectType, []string{profileID}, pageSize, bookmark)
	if err != nil {
		return nil, fmt.Errorf("GetProjects: failed to get projects iterator for profile '%s': %w", profileID, err)
	}
	defer resultsIterator.Close()

	projects := []*model.Project{}
	fetchedCount := int32(0)

	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			logger.Warningf("GetProjects: Error iterating results: %v. Skipping.", iterErr)
			continue
		}
		var project model.Project
		if errUnmarshal := json.Unmarshal(queryResponse.Value, &project); errUnmarshal != nil {
			logger.Warningf("GetProjects: Error unmarshalling project (key: %s): %v. Skipping.", queryResponse.Key, errUnmarshal)
			continue
		}
		ensureProjectSchemaCompliance(&project)
		projects = append(projects, &project)
		fetchedCount++
	}

	return &model.PaginatedProjectResponse{
		Projects:     projects, // Will be [] if empty, not null
		NextBookmark: metadata.GetBookmark(),
		FetchedCount: fetchedCount,
	}, nil
}
