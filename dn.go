package dcpkdm

import (
	"crypto/x509/pkix"
)

// dcinemaSubject assembles the subject DN for a certificate minted by the
// chain generators: the profile's CN/O/OU attributes plus the dnQualifier
// attribute SMPTE ST 430-2 requires on every digital-cinema certificate,
// carrying the base64 SHA-1 digest of the certificate's own public key.
// The qualifier is part of the subject proper, not an optional extension,
// so it is taken here rather than bolted on by the caller.
func dcinemaSubject(commonName, organisation, organisationalUnit, qualifier string) (pkix.Name, error) {
	if commonName == "" {
		return pkix.Name{}, newMiscError("certificate subject needs a common name", nil)
	}
	if qualifier == "" {
		return pkix.Name{}, newMiscError("certificate subject needs a dnQualifier", nil)
	}

	name := pkix.Name{CommonName: commonName}
	if organisation != "" {
		name.Organization = []string{organisation}
	}
	if organisationalUnit != "" {
		name.OrganizationalUnit = []string{organisationalUnit}
	}
	name.ExtraNames = []pkix.AttributeTypeAndValue{{Type: dnQualifierOID, Value: qualifier}}
	return name, nil
}
