package contract

import (
	"encoding/json"
	"fmt"
	"strings"

	"talentchain/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Lifecycle: Certificate Operations ---
//
// Certificates are transferable: after a transfer the certificate's owner
// and the endorsing profile's owner diverge, and only the certificate's
// current owner may update, transfer or burn it. The profile keeps a
// lifetime certificateCount that mint increments and burn never decrements.

// MintCertificate creates a certificate endorsed by the caller's profile and
// hands it to the caller as a transferable holding.
func (s *ProfileSmartContract) MintCertificate(ctx contractapi.TransactionContextInterface, profileID string, certDataJSON string) (*model.Certificate, error) {
	principal, err := s.getCurrentPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("MintCertificate: %w", err)
	}

	profile, err := s.getProfileByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("MintCertificate: %w", err)
	}
	if profile.Owner != principal {
		return nil, fmt.Errorf("MintCertificate: caller '%s' does not own profile '%s': %w", principal, profileID, ErrNotOwner)
	}

	cdArgs, err := s.validateCertificateDataArgs(certDataJSON)
	if err != nil {
		return nil, fmt.Errorf("MintCertificate: invalid certDataJSON: %w", err)
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return nil, fmt.Errorf("MintCertificate: failed to get transaction timestamp: %w", err)
	}

	rm := NewRegistryManager(ctx)
	certificateID, err := rm.NextCertificateID()
	if err != nil {
		return nil, fmt.Errorf("MintCertificate: failed to allocate certificate ID: %w", err)
	}

	cert := model.Certificate{
		ObjectType:     certificateObjectType,
		ID:             certificateID,
		Owner:          principal,
		ProfileID:      profile.ID,
		Title:          cdArgs.Title,
		Issuer:         cdArgs.Issuer,
		IssueDate:      cdArgs.IssueDate,
		CertificateURL: cdArgs.CertificateURL,
		Description:    cdArgs.Description,
		CredentialID:   cdArgs.CredentialID,
		CreatedAt:      now,
		LastUpdatedAt:  now,
	}

	if err := s.putCertificate(ctx, &cert); err != nil {
		return nil, fmt.Errorf("MintCertificate: %w", err)
	}

	profile.CertificateCount++
	profile.LastUpdatedAt = now
	if err := s.putProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("MintCertificate: %w", err)
	}

	s.emitEvent(ctx, "CertificateCreated", map[string]interface{}{
		"certificateId": cert.ID,
		"owner":         cert.Owner,
		"profileId":     cert.ProfileID,
		"title":         cert.Title,
	})
	logger.Infof("Certificate '%s' minted against profile '%s' by owner '%s': %s", certificateID, profileID, principal, cdArgs.Title)
	return &cert, nil
}

// UpdateCertificate replaces all descriptive fields of a certificate in one
// step. Gated on the certificate's own current owner, which may differ from
// the endorsing profile's owner after a transfer. No event is emitted.
func (s *ProfileSmartContract) UpdateCertificate(ctx contractapi.TransactionContextInterface, certificateID string, certDataJSON string) error {
	principal, err := s.getCurrentPrincipal(ctx)
	if err != nil {
		return fmt.Errorf("UpdateCertificate: %w", err)
	}

	cert, err := s.getCertificateByID(ctx, certificateID)
	if err != nil {
		return fmt.Errorf("UpdateCertificate: %w", err)
	}
	if cert.Owner != principal {
		return fmt.Errorf("UpdateCertificate: caller '%s' does not own certificate '%s': %w", principal, certificateID, ErrNotOwner)
	}

	cdArgs, err := s.validateCertificateDataArgs(certDataJSON)
	if err != nil {
		return fmt.Errorf("UpdateCertificate: invalid certDataJSON: %w", err)
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("UpdateCertificate: failed to get transaction timestamp: %w", err)
	}

	cert.Title = cdArgs.Title
	cert.Issuer = cdArgs.Issuer
	cert.IssueDate = cdArgs.IssueDate
	cert.CertificateURL = cdArgs.CertificateURL
	cert.Description = cdArgs.Description
	cert.CredentialID = cdArgs.CredentialID
	cert.LastUpdatedAt = now

	if err := s.putCertificate(ctx, cert); err != nil {
		return fmt.Errorf("UpdateCertificate: %w", err)
	}
	logger.Infof("Certificate '%s' updated by owner '%s'", certificateID, principal)
	return nil
}

// TransferCertificate hands a certificate to a new owner. The back-reference
// to the endorsing profile never changes. No event is emitted.
func (s *ProfileSmartContract) TransferCertificate(ctx contractapi.TransactionContextInterface, certificateID string, newOwner string) error {
	if strings.TrimSpace(newOwner) == "" {
		return fmt.Errorf("TransferCertificate: newOwner cannot be empty")
	}

	principal, err := s.getCurrentPrincipal(ctx)
	if err != nil {
		return fmt.Errorf("TransferCertificate: %w", err)
	}

	cert, err := s.getCertificateByID(ctx, certificateID)
	if err != nil {
		return fmt.Errorf("TransferCertificate: %w", err)
	}
	if cert.Owner != principal {
		return fmt.Errorf("TransferCertificate: caller '%s' does not own certificate '%s': %w", principal, certificateID, ErrNotOwner)
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("TransferCertificate: failed to get transaction timestamp: %w", err)
	}

	cert.Owner = newOwner
	cert.LastUpdatedAt = now
	if err := s.putCertificate(ctx, cert); err != nil {
		return fmt.Errorf("TransferCertificate: %w", err)
	}
	logger.Infof("Certificate '%s' transferred from '%s' to '%s'", certificateID, principal, newOwner)
	return nil
}

// BurnCertificate permanently destroys a certificate. The endorsing
// profile's certificateCount is not decremented; it counts lifetime mints.
func (s *ProfileSmartContract) BurnCertificate(ctx contractapi.TransactionContextInterface, certificateID string) error {
	principal, err := s.getCurrentPrincipal(ctx)
	if err != nil {
		return fmt.Errorf("BurnCertificate: %w", err)
	}

	cert, err := s.getCertificateByID(ctx, certificateID)
	if err != nil {
		return fmt.Errorf("BurnCertificate: %w", err)
	}
	if cert.Owner != principal {
		return fmt.Errorf("BurnCertificate: caller '%s' does not own certificate '%s': %w", principal, certificateID, ErrNotOwner)
	}

	certKey, err := s.createCertificateCompositeKey(ctx, certificateID)
	if err != nil {
		return fmt.Errorf("BurnCertificate: failed to create composite key for certificate '%s': %w", certificateID, err)
	}
	if err := ctx.GetStub().DelState(certKey); err != nil {
		return fmt.Errorf("BurnCertificate: failed to delete certificate '%s' from ledger: %w", certificateID, err)
	}

	logger.Infof("Certificate '%s' burned by owner '%s'", certificateID, principal)
	return nil
}

// putCertificate marshals and stores a certificate under its composite key.
func (s *ProfileSmartContract) putCertificate(ctx contractapi.TransactionContextInterface, cert *model.Certificate) error {
	certKey, err := s.createCertificateCompositeKey(ctx, cert.ID)
	if err != nil {
		return fmt.Errorf("failed to create composite key for certificate '%s': %w", cert.ID, err)
	}
	certBytes, err := json.Marshal(cert)
	if err != nil {
		return fmt.Errorf("failed to marshal certificate '%s': %w", cert.ID, err)
	}
	if err := ctx.GetStub().PutState(certKey, certBytes); err != nil {
		return fmt.Errorf("failed to save certificate '%s' to ledger: %w", cert.ID, err)
	}
	return nil
}
