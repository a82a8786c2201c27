package enums

import "testing"

func TestLinkStatusReverse(t *testing.T) {
	pairs := map[LinkStatus]LinkStatus{
		LinkStatusBlocks:       LinkStatusBlockedBy,
		LinkStatusBlockedBy:    LinkStatusBlocks,
		LinkStatusDuplicates:   LinkStatusDuplicatedBy,
		LinkStatusDuplicatedBy: LinkStatusDuplicates,
		LinkStatusCauses:       LinkStatusCausedBy,
		LinkStatusCausedBy:     LinkStatusCauses,
		LinkStatusRelatesTo:    LinkStatusRelatesTo,
	}
	for status, want := range pairs {
		if got := status.Reverse(); got != want {
			t.Fatalf("%q reversed to %q, want %q", status, got, want)
		}
		if back := want.Reverse(); back != status {
			t.Fatalf("reverse of %q is not symmetric: got %q", want, back)
		}
	}
}

func TestParseLinkStatus(t *testing.T) {
	status, err := ParseLinkStatus("blocked by")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != LinkStatusBlockedBy {
		t.Fatalf("unexpected status %q", status)
	}

	if _, err := ParseLinkStatus("depends on"); err == nil {
		t.Fatal("expected an error for an unknown status")
	}
}
