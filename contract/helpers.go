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
)

// --- Core Helper Methods (used across multiple operations) ---

// getCurrentTxTimestamp retrieves the current transaction timestamp from the stub.
func (s *ProfileSmartContract) getCurrentTxTimestamp(ctx contractapi.TransactionContextInterface) (time.Time, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	return ts.AsTime(), nil
}

// getCurrentPrincipal returns the full client identity string of the
// transaction invoker. This is the Principal every ownership check runs
// against; it is immutable within an operation.
func (s *ProfileSmartContract) getCurrentPrincipal(ctx contractapi.TransactionContextInterface) (string, error) {
	id, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return "", fmt.Errorf("failed to get current principal: %w", err)
	}
	if strings.TrimSpace(id) == "" {
		return "", errors.New("current principal is empty")
	}
	return id, nil
}

// getCurrentMSPID returns the MSP of the invoker's organization. Best effort
// for display purposes; an empty MSP is not an error.
func (s *ProfileSmartContract) getCurrentMSPID(ctx contractapi.TransactionContextInterface) string {
	clientIdentity := ctx.GetClientIdentity()
	if clientIdentity == nil {
		return ""
	}
	mspID, err := clientIdentity.GetMSPID()
	if err != nil {
		logger.Warningf("Could not determine MSPID for current caller: %v. Using empty MSPID.", err)
		return ""
	}
	return mspID
}

// --- Key Creation Helpers ---

// createProfileCompositeKey creates a composite key for a profile.
func (s *ProfileSmartContract) createProfileCompositeKey(ctx contractapi.TransactionContextInterface, profileID string) (string, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return "", errors.New("profileID cannot be empty")
	}
	return ctx.GetStub().CreateCompositeKey(profileObjectType, []string{profileID})
}

// createProjectCompositeKey creates the (profileId, index) composite key for
// a project slot. Keying sub-records this way keeps lookup, insert and
// delete direct-addressed without touching the parent's other slots.
func (s *ProfileSmartContract) createProjectCompositeKey(ctx contractapi.TransactionContextInterface, profileID string, index uint64) (string, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return "", errors.New("profileID cannot be empty")
	}
	return ctx.GetStub().CreateCompositeKey(projectObjectType, []string{profileID, strconv.FormatUint(index, 10)})
}

// createCertificateCompositeKey creates a composite key for a certificate.
func (s *ProfileSmartContract) createCertificateCompositeKey(ctx contractapi.TransactionContextInterface, certificateID string) (string, error) {
	certificateID = strings.TrimSpace(certificateID)
	if certificateID == "" {
		return "", errors.New("certificateID cannot be empty")
	}
	return ctx.GetStub().CreateCompositeKey(certificateObjectType, []string{certificateID})
}

// --- Validation Helper Functions ---

func (s *ProfileSmartContract) validateRequiredString(input, field string, max int) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if len(input) > max {
		return fmt.Errorf("%s exceeds max length %d", field, max)
	}
	return nil
}

func (s *ProfileSmartContract) validateOptionalString(input, field string, max int) error {
	if input != "" && len(input) > max {
		return fmt.Errorf("%s exceeds max length %d", field, max)
	}
	return nil
}

func (s *ProfileSmartContract) validateStringArray(arr []string, field string, maxItems, maxItemLen int) error {
	if arr == nil { // nil array is valid (empty)
		return nil
	}
	if len(arr) > maxItems {
		return fmt.Errorf("%s has %d items, exceeding maximum of %d", field, len(arr), maxItems)
	}
	for i, v := range arr {
		if err := s.validateOptionalString(v, fmt.Sprintf("%s[%d]", field, i), maxItemLen); err != nil {
			return err
		}
	}
	return nil
}

// parseProjectIndex parses the project index argument. The string form is
// what crosses the chaincode boundary; range checking against the profile's
// projectCount happens at the call sites.
func parseProjectIndex(indexStr string) (uint64, error) {
	index, err := strconv.ParseUint(strings.TrimSpace(indexStr), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid project index '%s': %w", indexStr, err)
	}
	return index, nil
}

// Specific data args validators

// ValidatedProfileData holds the validated display fields of a profile.
type ValidatedProfileData struct {
	Name        string   `json:"name"`
	Bio         string   `json:"bio"`
	AvatarURL   string   `json:"avatarUrl"`
	BannerURL   string   `json:"bannerUrl"`
	SocialLinks []string `json:"socialLinks"`
}

func (s *ProfileSmartContract) validateProfileDataArgs(profileDataJSON string) (*ValidatedProfileData, error) {
	var pdArg ValidatedProfileData
	if err := json.Unmarshal([]byte(profileDataJSON), &pdArg); err != nil {
		return nil, fmt.Errorf("invalid profileDataJSON: %w. Ensure the JSON structure and all required fields are correct", err)
	}

	if err := s.validateRequiredString(pdArg.Name, "profileData.name", maxStringInputLength); err != nil {
		return nil, err
	}
	if err := s.validateOptionalString(pdArg.Bio, "profileData.bio", maxDescriptionLength); err != nil {
		return nil, err
	}
	if err := s.validateOptionalString(pdArg.AvatarURL, "profileData.avatarUrl", maxURLLength); err != nil {
		return nil, err
	}
	if err := s.validateOptionalString(pdArg.BannerURL, "profileData.bannerUrl", maxURLLength); err != nil {
		return nil, err
	}
	if err := s.validateStringArray(pdArg.SocialLinks, "profileData.socialLinks", maxArrayElements, maxURLLength); err != nil {
		return nil, err
	}
	if pdArg.SocialLinks == nil {
		pdArg.SocialLinks = []string{}
	}
	return &pdArg, nil
}

// ValidatedProjectData holds the validated fields of a project sub-record.
type ValidatedProjectData struct {
	Name        string   `json:"name"`
	LinkDemo    string   `json:"linkDemo"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (s *ProfileSmartContract) validateProjectDataArgs(projectDataJSON string) (*ValidatedProjectData, error) {
	var pjArg ValidatedProjectData
	if err := json.Unmarshal([]byte(projectDataJSON), &pjArg); err != nil {
		return nil, fmt.Errorf("invalid projectDataJSON: %w. Ensure the JSON structure and all required fields are correct", err)
	}

	if err := s.validateRequiredString(pjArg.Name, "projectData.name", maxStringInputLength); err != nil {
		return nil, err
	}
	if err := s.validateOptionalString(pjArg.LinkDemo, "projectData.linkDemo", maxURLLength); err != nil {
		return nil, err
	}
	if err := s.validateOptionalString(pjArg.Description, "projectData.description", maxDescriptionLength); err != nil {
		return nil, err
	}
	if err := s.validateStringArray(pjArg.Tags, "projectData.tags", maxArrayElements, maxStringInputLength); err != nil {
		return nil, err
	}
	if pjArg.Tags == nil {
		pjArg.Tags = []string{}
	}
	return &pjArg, nil
}

// ValidatedCertificateData holds the validated fields of a certificate.
type ValidatedCertificateData struct {
	Title          string `json:"title"`
	Issuer         string `json:"issuer"`
	IssueDate      string `json:"issueDate"`
	CertificateURL string `json:"certificateUrl"`
	Description    string `json:"description"`
	CredentialID   string `json:"credentialId"`
}

func (s *ProfileSmartContract) validateCertificateDataArgs(certDataJSON string) (*ValidatedCertificateData, error) {
	var cdArg ValidatedCertificateData
	if err := json.Unmarshal([]byte(certDataJSON), &cdArg); err != nil {
		return nil, fmt.Errorf("invalid certDataJSON: %w. Ensure the JSON structure and all required fields are correct", err)
	}

	if err := s.validateRequiredString(cdArg.Title, "certData.title", maxStringInputLength); err != nil {
		return nil, err
	}
	if err := s.validateOptionalString(cdArg.Issuer, "certData.issuer", maxStringInputLength); err != nil {
		return nil, err
	}
	if err := s.validateOptionalString(cdArg.IssueDate, "certData.issueDate", maxStringInputLength); err != nil {
		return nil, err
	}
	if err := s.validateOptionalString(cdArg.CertificateURL, "certData.certificateUrl", maxURLLength); err != nil {
		return nil, err
	}
	if err := s.validateOptionalString(cdArg.Description, "certData.description", maxDescriptionLength); err != nil {
		return nil, err
	}
	if err := s.validateOptionalString(cdArg.CredentialID, "certData.credentialId", maxStringInputLength); err != nil {
		return nil, err
	}
	return &cdArg, nil
}

// --- Other General Helper Methods ---

// ensureProfileSchemaCompliance initializes nil slices as empty so CouchDB
// documents and JSON responses never carry null arrays.
func ensureProfileSchemaCompliance(profile *model.Profile) {
	if profile == nil {
		return
	}
	if profile.SocialLinks == nil {
		profile.SocialLinks = []string{}
	}
}

func ensureProjectSchemaCompliance(project *model.Project) {
	if project == nil {
		return
	}
	if project.Tags == nil {
		project.Tags = []string{}
	}
}

// emitEvent sends a chaincode event. Events are fire-and-forget for the
// transaction: a marshal or SetEvent failure is logged, never surfaced.
func (s *ProfileSmartContract) emitEvent(ctx contractapi.TransactionContextInterface, eventName string, payload map[string]interface{}) {
	for k, v := range payload {
		if t, ok := v.(time.Time); ok {
			payload[k] = t.Format(time.RFC3339)
		}
	}
	eventBytes, err := json.Marshal(payload)
	if err != nil {
		logger.Warningf("emitEvent: Failed to marshal event payload for event '%s': %v", eventName, err)
		return
	}
	if errSet := ctx.GetStub().SetEvent(eventName, eventBytes); errSet != nil {
		logger.Warningf("emitEvent: Failed to set event '%s': %v", eventName, errSet)
	}
}
