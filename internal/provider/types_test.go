package provider

import "testing"

func TestParseRepo(t *testing.T) {
	repo, err := ParseRepo("signalapp/Signal-Android")
	if err != nil {
		t.Fatalf("ParseRepo() error = %v", err)
	}
	if repo.Owner != "signalapp" {
		t.Errorf("Owner = %q, want %q", repo.Owner, "signalapp")
	}
	if repo.Name != "Signal-Android" {
		t.Errorf("Name = %q, want %q", repo.Name, "Signal-Android")
	}
	if repo.String() != "signalapp/Signal-Android" {
		t.Errorf("String() = %q, want %q", repo.String(), "signalapp/Signal-Android")
	}
}

func TestParseRepo_Invalid(t *testing.T) {
	for _, in := range []string{"", "signalapp", "/repo", "owner/", "a/b/c"} {
		if _, err := ParseRepo(in); err == nil {
			t.Errorf("ParseRepo(%q) expected error, got nil", in)
		}
	}
}
