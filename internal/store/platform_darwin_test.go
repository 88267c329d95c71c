//go:build darwin

package store

import (
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"testing"
)

func TestDefaults_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("writes to the user defaults database")
	}
	domain := fmt.Sprintf("com.kalambet.prefs.test.%d", os.Getpid())
	t.Cleanup(func() { exec.Command("defaults", "delete", domain).Run() })

	s, err := Open(Options{Backend: BackendDefaults, Domain: domain})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, ok, err := s.Read("launchCount"); err != nil || ok {
		t.Fatalf("Read on empty domain = ok %v, err %v", ok, err)
	}
	if err := s.Write("launchCount", []byte("5")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, ok, err := s.Read("launchCount")
	if err != nil || !ok || string(got) != "5" {
		t.Fatalf("Read = %q, %v, %v", got, ok, err)
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"launchCount"}) {
		t.Errorf("Keys() = %v", keys)
	}

	if err := s.Remove("launchCount"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove("launchCount"); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}
