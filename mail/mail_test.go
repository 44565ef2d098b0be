package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	to := []Recipient{
		{Email: "jane@selego.co"},
		{Email: "client@example.com"},
		{Email: "ops@team.selego.co"},
	}

	tests := []struct {
		name       string
		production bool
		want       []string
	}{
		{"staging keeps allowed domain", false, []string{"jane@selego.co", "ops@team.selego.co"}},
		{"production keeps everyone", true, []string{"jane@selego.co", "client@example.com", "ops@team.selego.co"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(`selego\.co`, tt.production)
			require.NoError(t, err)
			assert.Equal(t, tt.want, emails(f.Apply(to)))
		})
	}
}

func TestNilFilterAllowsEveryone(t *testing.T) {
	var f *Filter
	to := []Recipient{{Email: "a@example.com"}}
	assert.Equal(t, to, f.Apply(to))
}

func TestNewFilterRejectsBadPattern(t *testing.T) {
	_, err := NewFilter(`selego(`, false)
	assert.Error(t, err)
}
