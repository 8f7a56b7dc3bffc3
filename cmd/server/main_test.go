package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePort(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     string
		want    int
		wantErr bool
	}{
		{name: "positional", args: []string{"9000"}, want: 9000},
		{name: "positional wins over env", args: []string{"9000"}, env: "7000", want: 9000},
		{name: "env fallback", env: "7000", want: 7000},
		{name: "missing", wantErr: true},
		{name: "not a number", args: []string{"http"}, wantErr: true},
		{name: "out of range", args: []string{"70000"}, wantErr: true},
		{name: "zero", args: []string{"0"}, wantErr: true},
		{name: "too many", args: []string{"1", "2"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePort(tt.args, tt.env)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
