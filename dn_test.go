package dcpkdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDCinemaSubjectCarriesAllAttributes(t *testing.T) {
	name, err := dcinemaSubject("Leaf", "Example Cinema", "Projection", "q9eWbrJ8H0zUxBflDHTtmQGIbBo=")
	require.NoError(t, err)

	assert.Equal(t, "Leaf", name.CommonName)
	assert.Equal(t, []string{"Example Cinema"}, name.Organization)
	assert.Equal(t, []string{"Projection"}, name.OrganizationalUnit)
	require.Len(t, name.ExtraNames, 1)
	assert.Equal(t, dnQualifierOID, name.ExtraNames[0].Type)
	assert.Equal(t, "q9eWbrJ8H0zUxBflDHTtmQGIbBo=", name.ExtraNames[0].Value)
}

func TestDCinemaSubjectOmitsEmptyOptionalAttributes(t *testing.T) {
	name, err := dcinemaSubject("Leaf", "", "", "q9eWbrJ8H0zUxBflDHTtmQGIbBo=")
	require.NoError(t, err)

	assert.Empty(t, name.Organization)
	assert.Empty(t, name.OrganizationalUnit)
	assert.Len(t, name.ExtraNames, 1)
}

func TestDCinemaSubjectRejectsMissingRequiredAttributes(t *testing.T) {
	_, err := dcinemaSubject("", "Example Cinema", "Projection", "q9eWbrJ8H0zUxBflDHTtmQGIbBo=")
	require.Error(t, err)

	_, err = dcinemaSubject("Leaf", "Example Cinema", "Projection", "")
	require.Error(t, err)
}
