package prep

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"go.mozilla.org/pkcs7"
	"howett.net/plist"
)

// makeTestIdentity generates a throwaway signing certificate and key pair.
func makeTestIdentity(t *testing.T, commonName string) (*x509.Certificate, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:         commonName,
			Organization:       []string{"Example Org"},
			OrganizationalUnit: []string{"TEAM123"},
		},
		NotBefore:   time.Now().Add(-time.Hour),
		NotAfter:    time.Now().Add(24 * time.Hour),
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageCodeSigning},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	return cert, key
}

// makeTestProfile builds a CMS-wrapped provisioning profile signed with the
// given identity, the same container layout Apple ships.
func makeTestProfile(t *testing.T, cert *x509.Certificate, key *rsa.PrivateKey, expiration time.Time) []byte {
	t.Helper()

	payload := map[string]interface{}{
		"Name":                        "Example Distribution",
		"TeamName":                    "Example Org",
		"TeamIdentifier":              []string{"TEAM123"},
		"ApplicationIdentifierPrefix": []string{"TEAM123"},
		"UUID":                        "00000000-1111-2222-3333-444444444444",
		"Platform":                    []string{"iOS"},
		"CreationDate":                time.Now().Add(-time.Hour),
		"ExpirationDate":              expiration,
		"DeveloperCertificates":       [][]byte{cert.Raw},
		"Entitlements": map[string]interface{}{
			"application-identifier": "TEAM123.com.example.app",
			"keychain-access-groups": []interface{}{"TEAM123.com.example.app"},
		},
	}

	payloadXML, err := plist.Marshal(payload, plist.XMLFormat)
	if err != nil {
		t.Fatalf("failed to marshal profile payload: %v", err)
	}

	signed, err := pkcs7.NewSignedData(payloadXML)
	if err != nil {
		t.Fatalf("failed to create signed data: %v", err)
	}
	if err := signed.AddSigner(cert, key, pkcs7.SignerInfoConfig{}); err != nil {
		t.Fatalf("failed to sign profile: %v", err)
	}

	data, err := signed.Finish()
	if err != nil {
		t.Fatalf("failed to finish signed data: %v", err)
	}
	return data
}
