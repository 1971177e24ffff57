package app

import (
	"os"
	"testing"

	_ "github.com/granite-erp/granite/internal/testing/guard"
)

func TestInTestModeSetByGuardImport(t *testing.T) {
	if os.Getenv("GRANITE_TEST_MODE") != "1" {
		t.Fatal("guard import should set GRANITE_TEST_MODE before tests run")
	}
	if !InTestMode() {
		t.Fatal("InTestMode() should be true inside a test binary")
	}
}

func TestRefreshTestMode(t *testing.T) {
	t.Setenv("GRANITE_TEST_MODE", "0")
	RefreshTestMode()
	if InTestMode() {
		t.Fatal("InTestMode() should track the refreshed environment")
	}
	t.Setenv("GRANITE_TEST_MODE", "1")
	RefreshTestMode()
	if !InTestMode() {
		t.Fatal("InTestMode() should be true after refresh")
	}
}
