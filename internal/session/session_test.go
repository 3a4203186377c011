package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgescan/edgescan/internal/snapshot"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		flag snapshot.Bool
		want Mode
	}{
		{"explicit regular hours", snapshot.B(true), RegularHours},
		{"explicit weekend", snapshot.B(false), Weekend},
		// An absent flag must resolve to the strict threshold set. The old
		// behavior defaulted to weekend and silently relaxed every detector.
		{"absent flag defaults to regular hours", snapshot.Bool{}, RegularHours},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &snapshot.Snapshot{Session: snapshot.Session{IsRegularHours: tt.flag}}
			assert.Equal(t, tt.want, Classify(s))
		})
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "regular_hours", RegularHours.String())
	assert.Equal(t, "weekend", Weekend.String())
}
