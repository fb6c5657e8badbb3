package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingReferenceFormat(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	ref := newBookingReference(now)

	assert.True(t, strings.HasPrefix(ref, "BK-260901-"), ref)
	assert.Len(t, ref, len("BK-260901-")+8)
}

func TestBookingReferencesDiffer(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := newBookingReference(now)
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}
