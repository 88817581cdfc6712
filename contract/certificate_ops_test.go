package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProfileForCerts(t *testing.T, s *ProfileSmartContract) (*fakeStub, string) {
	t.Helper()
	stub := newFakeStub()
	ctx := newTestContext(stub, principalAlice)
	profile, err := s.CreateProfile(ctx, profileJSON(t, "Alice", "dev"))
	require.NoError(t, err)
	return stub, profile.ID
}

func TestMintCertificate(t *testing.T) {
	s := &ProfileSmartContract{}

	t.Run("happy path", func(t *testing.T) {
		stub, profileID := setupProfileForCerts(t, s)
		ctx := newTestContext(stub, principalAlice)

		cert, err := s.MintCertificate(ctx, profileID, certificateJSON(t, "CKA", "CNCF"))
		require.NoError(t, err)

		assert.Equal(t, "1", cert.ID)
		assert.Equal(t, principalAlice, cert.Owner)
		assert.Equal(t, profileID, cert.ProfileID)
		assert.Equal(t, "CKA", cert.Title)
		assert.Equal(t, "CNCF", cert.Issuer)
		assert.Equal(t, "2025-01-15", cert.IssueDate)
		assert.Equal(t, testTxTime, cert.CreatedAt)

		count, err := s.GetCertificateCount(ctx, profileID)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), count)

		name, payload := lastEvent(t, stub)
		assert.Equal(t, "CertificateCreated", name)
		assert.Equal(t, cert.ID, payload["certificateId"])
		assert.Equal(t, principalAlice, payload["owner"])
		assert.Equal(t, profileID, payload["profileId"])
		assert.Equal(t, "CKA", payload["title"])
	})

	t.Run("only the profile owner may mint", func(t *testing.T) {
		stub, profileID := setupProfileForCerts(t, s)
		ctx := newTestContext(stub, principalBob)

		_, err := s.MintCertificate(ctx, profileID, certificateJSON(t, "Fake", "Nobody"))
		require.ErrorIs(t, err, ErrNotOwner)

		count, err := s.GetCertificateCount(newTestContext(stub, principalAlice), profileID)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), count)
	})

	t.Run("a profile may endorse many certificates", func(t *testing.T) {
		stub, profileID := setupProfileForCerts(t, s)
		ctx := newTestContext(stub, principalAlice)

		for i := 1; i <= 3; i++ {
			cert, err := s.MintCertificate(ctx, profileID, certificateJSON(t, "Cert", "Issuer"))
			require.NoError(t, err)
			assert.Equal(t, profileID, cert.ProfileID)
		}
		count, err := s.GetCertificateCount(ctx, profileID)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), count)
	})

	t.Run("title required", func(t *testing.T) {
		stub, profileID := setupProfileForCerts(t, s)
		ctx := newTestContext(stub, principalAlice)

		_, err := s.MintCertificate(ctx, profileID, certificateJSON(t, "", "CNCF"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "certData.title")
	})
}

func TestUpdateCertificate(t *testing.T) {
	s := &ProfileSmartContract{}
	stub, profileID := setupProfileForCerts(t, s)
	ownerCtx := newTestContext(stub, principalAlice)

	cert, err := s.MintCertificate(ownerCtx, profileID, certificateJSON(t, "CKA", "CNCF"))
	require.NoError(t, err)

	t.Run("owner replaces fields wholesale", func(t *testing.T) {
		err := s.UpdateCertificate(ownerCtx, cert.ID, certificateJSON(t, "CKS", "CNCF"))
		require.NoError(t, err)

		updated, err := s.GetCertificate(ownerCtx, cert.ID)
		require.NoError(t, err)
		assert.Equal(t, "CKS", updated.Title)
		assert.Equal(t, profileID, updated.ProfileID, "back-reference never changes")
		assert.Equal(t, principalAlice, updated.Owner)
	})

	t.Run("non-owner rejected", func(t *testing.T) {
		err := s.UpdateCertificate(newTestContext(stub, principalBob), cert.ID, certificateJSON(t, "Hijacked", "x"))
		require.ErrorIs(t, err, ErrNotOwner)

		unchanged, err := s.GetCertificate(ownerCtx, cert.ID)
		require.NoError(t, err)
		assert.Equal(t, "CKS", unchanged.Title)
	})

	t.Run("unknown certificate", func(t *testing.T) {
		err := s.UpdateCertificate(ownerCtx, "999", certificateJSON(t, "x", "y"))
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTransferCertificate_OwnershipDiverges(t *testing.T) {
	s := &ProfileSmartContract{}
	stub, profileID := setupProfileForCerts(t, s)
	aliceCtx := newTestContext(stub, principalAlice)
	bobCtx := newTestContext(stub, principalBob)

	cert, err := s.MintCertificate(aliceCtx, profileID, certificateJSON(t, "CKA", "CNCF"))
	require.NoError(t, err)

	// Bob cannot transfer what he does not own.
	err = s.TransferCertificate(bobCtx, cert.ID, principalBob)
	require.ErrorIs(t, err, ErrNotOwner)

	// Alice hands the certificate to Bob.
	require.NoError(t, s.TransferCertificate(aliceCtx, cert.ID, principalBob))

	transferred, err := s.GetCertificate(aliceCtx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, principalBob, transferred.Owner)
	assert.Equal(t, profileID, transferred.ProfileID)

	// The endorsing profile still belongs to Alice.
	owner, err := s.GetProfileOwner(aliceCtx, profileID)
	require.NoError(t, err)
	assert.Equal(t, principalAlice, owner)

	// After the transfer only Bob may mutate the certificate, even though
	// Alice still owns the profile that endorsed it.
	err = s.UpdateCertificate(aliceCtx, cert.ID, certificateJSON(t, "Stolen back", "x"))
	require.ErrorIs(t, err, ErrNotOwner)
	require.NoError(t, s.UpdateCertificate(bobCtx, cert.ID, certificateJSON(t, "CKA renewed", "CNCF")))

	err = s.BurnCertificate(aliceCtx, cert.ID)
	require.ErrorIs(t, err, ErrNotOwner)
	require.NoError(t, s.BurnCertificate(bobCtx, cert.ID))
}

func TestBurnCertificate(t *testing.T) {
	s := &ProfileSmartContract{}
	stub, profileID := setupProfileForCerts(t, s)
	ctx := newTestContext(stub, principalAlice)

	cert, err := s.MintCertificate(ctx, profileID, certificateJSON(t, "CKA", "CNCF"))
	require.NoError(t, err)

	require.NoError(t, s.BurnCertificate(ctx, cert.ID))

	_, err = s.GetCertificate(ctx, cert.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// Lifetime counter: burn never decrements.
	count, err := s.GetCertificateCount(ctx, profileID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	err = s.BurnCertificate(ctx, cert.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
