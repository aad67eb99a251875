package ai_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hmiddleton/schoolpitch/internal/ai"
)

func TestNilClientIsDegraded(t *testing.T) {
	client := ai.NewClient("", "")
	require.Nil(t, client)
	_, err := client.Complete(context.Background(), "system", "user")
	require.ErrorIs(t, err, ai.ErrNoAPIKey)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Summary string `json:"summary"`
	}
	tests := []struct {
		name       string
		completion string
		want       string
		wantErr    bool
	}{
		{
			name:       "bare object",
			completion: `{"summary": "call the head"}`,
			want:       "call the head",
		},
		{
			name:       "markdown fenced",
			completion: "```json\n{\"summary\": \"call the head\"}\n```",
			want:       "call the head",
		},
		{
			name:       "prose around the object",
			completion: `Here is the analysis: {"summary": "call the head"} Hope that helps!`,
			want:       "call the head",
		},
		{
			name:       "no object at all",
			completion: "I could not produce JSON, sorry.",
			wantErr:    true,
		},
		{
			name:       "malformed object",
			completion: `{"summary": `,
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			err := ai.DecodeJSON(tt.completion, &got)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Summary)
		})
	}
}
