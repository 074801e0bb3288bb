package identity

import "testing"

func TestStatic(t *testing.T) {
	caller := NewStatic("Org1", "alice")

	org, ok := caller.Attribute(AttrOrganisation)
	if !ok || org != "Org1" {
		t.Fatalf("expected organisation Org1, got %q (present=%v)", org, ok)
	}

	if !caller.AssertAttribute(AttrUserName, "alice") {
		t.Fatal("expected user assertion to pass")
	}
	if caller.AssertAttribute(AttrOrganisation, "Org2") {
		t.Fatal("expected mismatched assertion to fail")
	}
	if caller.AssertAttribute("missing", "") {
		t.Fatal("expected assertion on an absent attribute to fail")
	}

	if caller.TransactionID() == "" {
		t.Fatal("expected a transaction id")
	}
	if caller.TransactionID() != caller.TransactionID() {
		t.Fatal("transaction id must be stable within one invocation")
	}
}
