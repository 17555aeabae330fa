package prep

import (
	"bytes"
	"crypto/x509"
	"fmt"

	gop12 "software.sslmate.com/src/go-pkcs12"
)

// LoadSigningCertificate opens a PKCS#12 archive and returns the leaf
// signing certificate. The private key is checked for presence but not
// retained; preparation never signs anything.
func LoadSigningCertificate(p12Data []byte, password string) (*x509.Certificate, error) {
	if bytes.HasPrefix(p12Data, []byte("-----BEGIN")) {
		return nil, fmt.Errorf("PEM input is not supported, expected a PKCS#12 archive")
	}

	privateKey, cert, _, err := gop12.DecodeChain(p12Data, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decode P12: %w", err)
	}
	if privateKey == nil {
		return nil, fmt.Errorf("P12 archive has no private key")
	}
	return cert, nil
}

// VerifySigningAssets checks that the provisioning profile is still valid and
// that the P12 certificate the release build will sign with is provisioned by
// it. It returns the parsed profile and certificate for reporting.
func VerifySigningAssets(profileData, p12Data []byte, password string) (*ProvisioningProfile, *x509.Certificate, error) {
	profile, err := ParseProvisioningProfile(profileData)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse provisioning profile: %w", err)
	}

	if profile.IsExpired() {
		return nil, nil, fmt.Errorf("provisioning profile %q expired on %s", profile.Name, profile.ExpirationDate.Format("2006-01-02"))
	}

	cert, err := LoadSigningCertificate(p12Data, password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load signing certificate: %w", err)
	}

	if !profile.ContainsCertificate(cert) {
		return nil, nil, fmt.Errorf("certificate %q is not provisioned by profile %q", cert.Subject.CommonName, profile.Name)
	}

	return profile, cert, nil
}
