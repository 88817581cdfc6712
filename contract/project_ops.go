package contract

import (
	"encoding/json"
	"fmt"

	"talentchain/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Lifecycle: Project Sub-Record Operations ---
//
// Projects hang off a profile as an arena of (profileId, index) slots.
// Indices are handed out sequentially from projectCount and never recycled:
// removing a slot leaves it permanently vacant and the count untouched, so
// off-chain indexers can poll [lastKnownCount, projectCount) for new entries
// without re-reading the whole collection. No events are emitted for project
// mutations.

// AddProject appends a new project to the caller's profile and returns the
// assigned index.
func (s *ProfileSmartContract) AddProject(ctx contractapi.TransactionContextInterface, profileID string, projectDataJSON string) (uint64, error) {
	principal, err := s.getCurrentPrincipal(ctx)
	if err != nil {
		return 0, fmt.Errorf("AddProject: %w", err)
	}

	profile, err := s.getProfileByID(ctx, profileID)
	if err != nil {
		return 0, fmt.Errorf("AddProject: %w", err)
	}
	if profile.Owner != principal {
		return 0, fmt.Errorf("AddProject: caller '%s' does not own profile '%s': %w", principal, profileID, ErrNotOwner)
	}

	pjArgs, err := s.validateProjectDataArgs(projectDataJSON)
	if err != nil {
		return 0, fmt.Errorf("AddProject: invalid projectDataJSON: %w", err)
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return 0, fmt.Errorf("AddProject: failed to get transaction timestamp: %w", err)
	}

	index := profile.ProjectCount
	project := model.Project{
		ObjectType:  projectObjectType,
		ProfileID:   profile.ID,
		Index:       index,
		Name:        pjArgs.Name,
		LinkDemo:    pjArgs.LinkDemo,
		Description: pjArgs.Description,
		Tags:        pjArgs.Tags,
		CreatedAt:   now,
	}
	ensureProjectSchemaCompliance(&project)

	projectKey, err := s.createProjectCompositeKey(ctx, profile.ID, index)
	if err != nil {
		return 0, fmt.Errorf("AddProject: failed to create composite key for project %d of profile '%s': %w", index, profileID, err)
	}
	projectBytes, err := json.Marshal(project)
	if err != nil {
		return 0, fmt.Errorf("AddProject: failed to marshal project %d of profile '%s': %w", index, profileID, err)
	}
	if err := ctx.GetStub().PutState(projectKey, projectBytes); err != nil {
		return 0, fmt.Errorf("AddProject: failed to save project %d of profile '%s' to ledger: %w", index, profileID, err)
	}

	profile.ProjectCount++
	profile.LastUpdatedAt = now
	if err := s.putProfile(ctx, profile); err != nil {
		return 0, fmt.Errorf("AddProject: %w", err)
	}

	logger.Infof("Project %d added to profile '%s' by owner '%s': %s", index, profileID, principal, pjArgs.Name)
	return index, nil
}

// UpdateProject replaces the project at an occupied index wholesale. This is
// delete-then-insert at a fixed key, not a field patch: nothing of the old
// record survives. Replacing an in-range but vacant slot fails with
// ErrNotFound; it does not re-create the slot.
func (s *ProfileSmartContract) UpdateProject(ctx contractapi.TransactionContextInterface, profileID string, indexStr string, projectDataJSON string) error {
	index, err := parseProjectIndex(indexStr)
	if err != nil {
		return fmt.Errorf("UpdateProject: %w", err)
	}

	principal, err := s.getCurrentPrincipal(ctx)
	if err != nil {
		return fmt.Errorf("UpdateProject: %w", err)
	}

	profile, err := s.getProfileByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("UpdateProject: %w", err)
	}
	if profile.Owner != principal {
		return fmt.Errorf("UpdateProject: caller '%s' does not own profile '%s': %w", principal, profileID, ErrNotOwner)
	}
	if index >= profile.ProjectCount {
		return fmt.Errorf("UpdateProject: index %d >= project count %d of profile '%s': %w", index, profile.ProjectCount, profileID, ErrIndexOutOfRange)
	}

	projectKey, err := s.createProjectCompositeKey(ctx, profile.ID, index)
	if err != nil {
		return fmt.Errorf("UpdateProject: failed to create composite key for project %d of profile '%s': %w", index, profileID, err)
	}
	existing, err := ctx.GetStub().GetState(projectKey)
	if err != nil {
		return fmt.Errorf("UpdateProject: failed to read project %d of profile '%s': %w", index, profileID, err)
	}
	if existing == nil {
		return fmt.Errorf("UpdateProject: project %d of profile '%s' was removed: %w", index, profileID, ErrNotFound)
	}

	pjArgs, err := s.validateProjectDataArgs(projectDataJSON)
	if err != nil {
		return fmt.Errorf("UpdateProject: invalid projectDataJSON: %w", err)
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("UpdateProject: failed to get transaction timestamp: %w", err)
	}

	project := model.Project{
		ObjectType:  projectObjectType,
		ProfileID:   profile.ID,
		Index:       index,
		Name:        pjArgs.Name,
		LinkDemo:    pjArgs.LinkDemo,
		Description: pjArgs.Description,
		Tags:        pjArgs.Tags,
		CreatedAt:   now,
	}
	ensureProjectSchemaCompliance(&project)

	projectBytes, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("UpdateProject: failed to marshal project %d of profile '%s': %w", index, profileID, err)
	}
	if err := ctx.GetStub().PutState(projectKey, projectBytes); err != nil {
		return fmt.Errorf("UpdateProject: failed to save project %d of profile '%s' to ledger: %w", index, profileID, err)
	}

	logger.Infof("Project %d of profile '%s' replaced by owner '%s'", index, profileID, principal)
	return nil
}

// RemoveProject deletes the project at an occupied index. The slot becomes
// permanently vacant; projectCount is not decremented and the index is never
// reassigned.
func (s *ProfileSmartContract) RemoveProject(ctx contractapi.TransactionContextInterface, profileID string, indexStr string) error {
	index, err := parseProjectIndex(indexStr)
	if err != nil {
		return fmt.Errorf("RemoveProject: %w", err)
	}

	principal, err := s.getCurrentPrincipal(ctx)
	if err != nil {
		return fmt.Errorf("RemoveProject: %w", err)
	}

	profile, err := s.getProfileByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("RemoveProject: %w", err)
	}
	if profile.Owner != principal {
		return fmt.Errorf("RemoveProject: caller '%s' does not own profile '%s': %w", principal, profileID, ErrNotOwner)
	}
	if index >= profile.ProjectCount {
		return fmt.Errorf("RemoveProject: index %d >= project count %d of profile '%s': %w", index, profile.ProjectCount, profileID, ErrIndexOutOfRange)
	}

	projectKey, err := s.createProjectCompositeKey(ctx, profile.ID, index)
	if err != nil {
		return fmt.Errorf("RemoveProject: failed to create composite key for project %d of profile '%s': %w", index, profileID, err)
	}
	existing, err := ctx.GetStub().GetState(projectKey)
	if err != nil {
		return fmt.Errorf("RemoveProject: failed to read project %d of profile '%s': %w", index, profileID, err)
	}
	if existing == nil {
		return fmt.Errorf("RemoveProject: project %d of profile '%s' was already removed: %w", index, profileID, ErrNotFound)
	}

	if err := ctx.GetStub().DelState(projectKey); err != nil {
		return fmt.Errorf("RemoveProject: failed to delete project %d of profile '%s' from ledger: %w", index, profileID, err)
	}

	logger.Infof("Project %d of profile '%s' removed by owner '%s'; slot stays vacant", index, profileID, principal)
	return nil
}
