package deepface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateManifest(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "valid", raw: validManifest, want: 2},
		{
			name: "two groups",
			raw: `[{"paths":["a"],"weights":[{"name":"x","shape":[1]}]},
			       {"paths":["b"],"weights":[{"name":"y","shape":[2]},{"name":"z","shape":[3]}]}]`,
			want: 3,
		},
		{name: "not json", raw: `<html>`, wantErr: true},
		{name: "object instead of array", raw: `{"paths":[]}`, wantErr: true},
		{name: "empty array", raw: `[]`, wantErr: true},
		{name: "missing paths", raw: `[{"weights":[{"name":"x","shape":[1]}]}]`, wantErr: true},
		{name: "missing weights", raw: `[{"paths":["a"]}]`, wantErr: true},
		{name: "weight without shape", raw: `[{"paths":["a"],"weights":[{"name":"x"}]}]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateManifest([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidManifest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
