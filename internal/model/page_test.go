package model

import (
	"slices"
	"testing"
)

func TestPageRecordUniqueOutbound(t *testing.T) {
	t.Parallel()

	p := PageRecord{Outbound: []string{"/a", "/b", "/a", "/c", "/b"}}

	if p.OutboundCount() != 5 {
		t.Errorf("expected 5, got %d", p.OutboundCount())
	}
	if got := p.UniqueOutbound(); !slices.Equal(got, []string{"/a", "/b", "/c"}) {
		t.Errorf("unexpected unique links %v", got)
	}
	if !slices.Equal(p.Outbound, []string{"/a", "/b", "/a", "/c", "/b"}) {
		t.Error("UniqueOutbound must not modify the record")
	}
}

func TestPageRecordEmpty(t *testing.T) {
	t.Parallel()

	var p PageRecord
	if p.OutboundCount() != 0 || len(p.UniqueOutbound()) != 0 {
		t.Error("expected no links")
	}
}
