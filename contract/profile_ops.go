package contract

import (
	"encoding/json"
	"fmt"

	"talentchain/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Lifecycle: Profile Operations ---

// CreateProfile mints the caller's one profile. The registry check and the
// profile write happen in the same transaction, so a principal can never end
// up with two profiles even under racing submissions. Fails with
// ErrAlreadyMinted if the caller already owns one.
func (s *ProfileSmartContract) CreateProfile(ctx contractapi.TransactionContextInterface, profileDataJSON string) (*model.Profile, error) {
	principal, err := s.getCurrentPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("CreateProfile: %w", err)
	}

	pdArgs, err := s.validateProfileDataArgs(profileDataJSON)
	if err != nil {
		return nil, fmt.Errorf("CreateProfile: invalid profileDataJSON: %w", err)
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return nil, fmt.Errorf("CreateProfile: failed to get transaction timestamp: %w", err)
	}

	rm := NewRegistryManager(ctx)
	profileID, err := rm.Register(principal, now)
	if err != nil {
		return nil, fmt.Errorf("CreateProfile: %w", err)
	}

	logger.Infof("Principal '%s' creating profile '%s': %s", principal, profileID, pdArgs.Name)

	profile := model.Profile{
		ObjectType:       profileObjectType,
		ID:               profileID,
		Owner:            principal,
		OwnerMSP:         s.getCurrentMSPID(ctx),
		Name:             pdArgs.Name,
		Bio:              pdArgs.Bio,
		AvatarURL:        pdArgs.AvatarURL,
		BannerURL:        pdArgs.BannerURL,
		SocialLinks:      pdArgs.SocialLinks,
		ProjectCount:     0,
		CertificateCount: 0,
		Verified:         false,
		CreatedAt:        now,
		LastUpdatedAt:    now,
	}
	ensureProfileSchemaCompliance(&profile)

	profileKey, err := s.createProfileCompositeKey(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("CreateProfile: failed to create composite key for profile '%s': %w", profileID, err)
	}
	profileBytes, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("CreateProfile: failed to marshal profile '%s': %w", profileID, err)
	}
	if err := ctx.GetStub().PutState(profileKey, profileBytes); err != nil {
		return nil, fmt.Errorf("CreateProfile: failed to save profile '%s' to ledger: %w", profileID, err)
	}

	s.emitEvent(ctx, "ProfileCreated", map[string]interface{}{
		"profileId": profile.ID,
		"owner":     profile.Owner,
		"name":      profile.Name,
	})
	logger.Infof("Profile '%s' created successfully for principal '%s'", profileID, principal)
	return &profile, nil
}

// UpdateProfile replaces all display fields of the caller's profile in one
// step. Counters, verified flag, owner and creation time are untouched.
func (s *ProfileSmartContract) UpdateProfile(ctx contractapi.TransactionContextInterface, profileID string, profileDataJSON string) error {
	principal, err := s.getCurrentPrincipal(ctx)
	if err != nil {
		return fmt.Errorf("UpdateProfile: %w", err)
	}

	profile, err := s.getProfileByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("UpdateProfile: %w", err)
	}
	if profile.Owner != principal {
		return fmt.Errorf("UpdateProfile: caller '%s' does not own profile '%s': %w", principal, profileID, ErrNotOwner)
	}

	pdArgs, err := s.validateProfileDataArgs(profileDataJSON)
	if err != nil {
		return fmt.Errorf("UpdateProfile: invalid profileDataJSON: %w", err)
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("UpdateProfile: failed to get transaction timestamp: %w", err)
	}

	profile.Name = pdArgs.Name
	profile.Bio = pdArgs.Bio
	profile.AvatarURL = pdArgs.AvatarURL
	profile.BannerURL = pdArgs.BannerURL
	profile.SocialLinks = pdArgs.SocialLinks
	profile.LastUpdatedAt = now
	ensureProfileSchemaCompliance(profile)

	if err := s.putProfile(ctx, profile); err != nil {
		return fmt.Errorf("UpdateProfile: %w", err)
	}

	s.emitEvent(ctx, "ProfileUpdated", map[string]interface{}{
		"profileId": profile.ID,
		"owner":     profile.Owner,
	})
	logger.Infof("Profile '%s' updated by owner '%s'", profileID, principal)
	return nil
}

// VerifyProfile flips the verified flag. Idempotent. There is deliberately
// no caller check here: the verification capability is an open gap in this
// design and is not patched with an ad-hoc rule. No event is emitted.
func (s *ProfileSmartContract) VerifyProfile(ctx contractapi.TransactionContextInterface, profileID string) error {
	profile, err := s.getProfileByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("VerifyProfile: %w", err)
	}
	if profile.Verified {
		logger.Debugf("VerifyProfile: profile '%s' already verified", profileID)
		return nil
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("VerifyProfile: failed to get transaction timestamp: %w", err)
	}

	profile.Verified = true
	profile.LastUpdatedAt = now
	if err := s.putProfile(ctx, profile); err != nil {
		return fmt.Errorf("VerifyProfile: %w", err)
	}
	logger.Infof("Profile '%s' marked verified", profileID)
	return nil
}

// putProfile marshals and stores a profile under its composite key.
func (s *ProfileSmartContract) putProfile(ctx contractapi.TransactionContextInterface, profile *model.Profile) error {
	profileKey, err := s.createProfileCompositeKey(ctx, profile.ID)
	if err != nil {
		return fmt.Errorf("failed to create composite key for profile '%s': %w", profile.ID, err)
	}
	profileBytes, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile '%s': %w", profile.ID, err)
	}
	if err := ctx.GetStub().PutState(profileKey, profileBytes); err != nil {
		return fmt.Errorf("failed to save profile '%s' to ledger: %w", profile.ID, err)
	}
	return nil
}
