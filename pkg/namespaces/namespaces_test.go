package namespaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	uri, local, err := ISO19115_3.Resolve("mri:MD_DataIdentification")
	require.NoError(t, err)
	assert.Equal(t, "http://standards.iso.org/iso/19115/-3/mri/1.0", uri)
	assert.Equal(t, "MD_DataIdentification", local)

	_, _, err = ISO19139.Resolve("mri:MD_DataIdentification")
	require.ErrorIs(t, err, ErrUnknownPrefix)

	_, _, err = ISO19139.Resolve("MD_Metadata")
	require.ErrorIs(t, err, ErrUnknownPrefix)
}

func TestValidatePath(t *testing.T) {
	require.NoError(t, ISO19139.ValidatePath([]string{"gmd:MD_Metadata", "gmd:BLAH"}))
	require.ErrorIs(t, ISO19139.ValidatePath([]string{"gmd:MD_Metadata", "cit:BLAH"}), ErrUnknownPrefix)
}

func TestUpgradedTable(t *testing.T) {
	assert.Equal(t, "http://standards.iso.org/iso/19115/-3/mdb/2.0", ISO19115_3v2["mdb"])
	assert.Equal(t, "http://standards.iso.org/iso/19115/-3/srv/2.1", ISO19115_3v2["srv"])
	assert.Equal(t, ISO19115_3["mri"], ISO19115_3v2["mri"], "mri is not upgraded")
	assert.Equal(t, "http://standards.iso.org/iso/19115/-3/mdb/1.0", ISO19115_3["mdb"], "source table untouched")
}

func TestForISO19115_3Root(t *testing.T) {
	assert.Equal(t, ISO19115_3v2, ForISO19115_3Root("http://standards.iso.org/iso/19115/-3/mdb/2.0"))
	assert.Equal(t, ISO19115_3, ForISO19115_3Root("http://standards.iso.org/iso/19115/-3/mdb/1.0"))
	assert.Equal(t, ISO19115_3, ForISO19115_3Root(""))
}
