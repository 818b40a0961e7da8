package isoschema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/penwern/geomodel-harvest/pkg/namespaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const v1Record = `<?xml version="1.0" encoding="UTF-8"?>
<mdb:MD_Metadata xmlns:mdb="http://standards.iso.org/iso/19115/-3/mdb/1.0"
    xmlns:cit="http://standards.iso.org/iso/19115/-3/cit/1.0"
    xmlns:srv="http://standards.iso.org/iso/19115/-3/srv/2.0"
    xmlns:gco="http://standards.iso.org/iso/19115/-3/gco/1.0"
    xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
    xsi:schemaLocation="http://standards.iso.org/iso/19115/-3/mds/1.0 http://standards.iso.org/iso/19115/-3/mds/1.0/mds.xsd">
  <mdb:distributionInfo>
    <mrd:MD_Distribution xmlns:mrd="http://standards.iso.org/iso/19115/-3/mrd/1.0"
        xmlns:cit="http://standards.iso.org/iso/19115/-3/cit/1.0"/>
  </mdb:distributionInfo>
</mdb:MD_Metadata>`

func TestUpgradeNamespaces(t *testing.T) {
	out, err := UpgradeNamespaces([]byte(v1Record))
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, `xmlns:mdb="`+namespaces.ISO19115_3v2["mdb"]+`"`)
	assert.Contains(t, s, `xmlns:srv="http://standards.iso.org/iso/19115/-3/srv/2.1"`)
	assert.NotContains(t, s, "cit/1.0", "nested declarations are upgraded too")
	assert.Contains(t, s, `xmlns:gco="http://standards.iso.org/iso/19115/-3/gco/1.0"`, "gco has no newer version")
	assert.Contains(t, s, `xmlns:mrd="http://standards.iso.org/iso/19115/-3/mrd/1.0"`)
	assert.Contains(t, s, "http://standards.iso.org/iso/19115/-3/mds/2.0 http://standards.iso.org/iso/19115/-3/mds/2.0/mds.xsd")
	assert.Contains(t, s, "<?xml")
}

func TestUpgradeNamespacesIdempotent(t *testing.T) {
	once, err := UpgradeNamespaces([]byte(v1Record))
	require.NoError(t, err)
	twice, err := UpgradeNamespaces(once)
	require.NoError(t, err)
	assert.Equal(t, string(once), string(twice))
}

func TestUpgradeNamespacesMalformed(t *testing.T) {
	_, err := UpgradeNamespaces([]byte("<mdb:MD_Metadata"))
	assert.Error(t, err)
}

const noteXSD = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:note" xmlns="urn:note" elementFormDefault="qualified">
  <xs:element name="note">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="to" type="xs:string"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

func TestValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.xsd")
	require.NoError(t, os.WriteFile(path, []byte(noteXSD), 0o600))

	assert.NoError(t, Validate([]byte(`<note xmlns="urn:note"><to>you</to></note>`), path))
	assert.Error(t, Validate([]byte(`<note xmlns="urn:note"><from>me</from></note>`), path))
	assert.Error(t, Validate([]byte(`<note xmlns="urn:note"><to>you</to></note>`), filepath.Join(t.TempDir(), "missing.xsd")))
}
