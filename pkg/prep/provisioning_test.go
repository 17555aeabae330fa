package prep

import (
	"testing"
	"time"
)

func TestParseProvisioningProfile(t *testing.T) {
	cert, key := makeTestIdentity(t, "Apple Distribution: Example Org (TEAM123)")
	data := makeTestProfile(t, cert, key, time.Now().Add(365*24*time.Hour))

	profile, err := ParseProvisioningProfile(data)
	if err != nil {
		t.Fatalf("ParseProvisioningProfile failed: %v", err)
	}

	if profile.Name != "Example Distribution" {
		t.Errorf("unexpected profile name: %q", profile.Name)
	}
	if profile.TeamID() != "TEAM123" {
		t.Errorf("unexpected team id: %q", profile.TeamID())
	}
	if profile.UUID != "00000000-1111-2222-3333-444444444444" {
		t.Errorf("unexpected UUID: %q", profile.UUID)
	}
	if profile.IsExpired() {
		t.Error("profile should not be expired")
	}

	appID, _ := profile.Entitlements["application-identifier"].(string)
	if appID != "TEAM123.com.example.app" {
		t.Errorf("unexpected application-identifier: %q", appID)
	}
}

func TestParseProvisioningProfile_InvalidData(t *testing.T) {
	if _, err := ParseProvisioningProfile([]byte("not a profile")); err == nil {
		t.Fatal("expected an error for garbage input")
	}
}

func TestProvisioningProfile_IsExpired(t *testing.T) {
	cert, key := makeTestIdentity(t, "Apple Distribution: Example Org (TEAM123)")
	data := makeTestProfile(t, cert, key, time.Now().Add(-time.Hour))

	profile, err := ParseProvisioningProfile(data)
	if err != nil {
		t.Fatalf("ParseProvisioningProfile failed: %v", err)
	}
	if !profile.IsExpired() {
		t.Error("profile should be expired")
	}
}

func TestProvisioningProfile_Certificates(t *testing.T) {
	cert, key := makeTestIdentity(t, "Apple Distribution: Example Org (TEAM123)")
	data := makeTestProfile(t, cert, key, time.Now().Add(24*time.Hour))

	profile, err := ParseProvisioningProfile(data)
	if err != nil {
		t.Fatalf("ParseProvisioningProfile failed: %v", err)
	}

	certs, err := profile.Certificates()
	if err != nil {
		t.Fatalf("Certificates failed: %v", err)
	}
	if len(certs) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(certs))
	}
	if certs[0].Subject.CommonName != cert.Subject.CommonName {
		t.Errorf("unexpected certificate subject: %q", certs[0].Subject.CommonName)
	}

	if !profile.ContainsCertificate(cert) {
		t.Error("profile should contain its own certificate")
	}

	other, _ := makeTestIdentity(t, "Apple Development: Somebody Else")
	if profile.ContainsCertificate(other) {
		t.Error("profile should not contain an unrelated certificate")
	}
}

func TestProvisioningProfile_TeamIDFallsBackToPrefix(t *testing.T) {
	profile := &ProvisioningProfile{
		ApplicationIdentifierPrefix: []string{"PREFIX99"},
	}
	if profile.TeamID() != "PREFIX99" {
		t.Errorf("expected prefix fallback, got %q", profile.TeamID())
	}
}
