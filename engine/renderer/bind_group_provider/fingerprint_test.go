package bind_group_provider

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFingerprintStableForSameInputs(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	fp1 := ComputeFingerprint(42, a, b)
	fp2 := ComputeFingerprint(42, a, b)
	assert.Equal(t, fp1, fp2)
}

func TestFingerprintChangesWithPhysicalID(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	regrown := uuid.New()

	before := ComputeFingerprint(42, a, b)
	after := ComputeFingerprint(42, a, regrown)
	assert.NotEqual(t, before, after, "a recreated resource must invalidate the fingerprint")
}

func TestFingerprintSensitiveToOrderAndLayout(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	assert.NotEqual(t, ComputeFingerprint(42, a, b), ComputeFingerprint(42, b, a))
	assert.NotEqual(t, ComputeFingerprint(42, a, b), ComputeFingerprint(43, a, b))
}

func TestProviderStalenessByFingerprint(t *testing.T) {
	// Simulates the growth scenario: a dependent provider built against one
	// physical id must not be treated as current once the id changes.
	p := NewBindGroupProvider("mesh")
	oldID := uuid.New()
	oldFP := ComputeFingerprint(7, oldID)
	p.SetBindGroup(nil, oldFP)

	newFP := ComputeFingerprint(7, uuid.New())
	assert.NotEqual(t, newFP, p.Fingerprint(), "cached bind group is stale for the new id")
}
