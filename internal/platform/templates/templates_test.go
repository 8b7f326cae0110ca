package templates

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RendersEachTemplate(t *testing.T) {
	tmpl := Parse()

	tests := []struct {
		name     string
		data     any
		contains string
	}{
		{ActivateSuccess, map[string]any{"Username": "alice"}, "Thanks, alice"},
		{ActivateFailure, map[string]any{"Reason": "already verified"}, "already verified"},
		{ActivateFailure, map[string]any{}, "invalid or has expired"},
		{EmailVerification, map[string]any{"Username": "bob", "Link": "http://x/verify/MQ/tok"}, `href="http://x/verify/MQ/tok"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tmpl.ExecuteTemplate(&buf, tt.name, tt.data))
			assert.Contains(t, buf.String(), tt.contains)
		})
	}
}
