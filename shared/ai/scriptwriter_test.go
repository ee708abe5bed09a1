package ai

import (
	"context"
	"errors"
	"testing"

	"podcast-agent/shared/config"
	"podcast-agent/shared/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	text   string
	err    error
	model  string
	prompt string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(f.text, genai.RoleModel)},
		},
	}, nil
}

func newTestWriter(gen *fakeGenerator) *ScriptWriter {
	return &ScriptWriter{models: gen, model: "gemini-2.5-flash", log: logging.Discard()}
}

func TestScriptWriterWrite(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"Plain", "# 데일리 브리핑\n\n안녕하세요", "# 데일리 브리핑\n\n안녕하세요"},
		{"Fenced with language", "```markdown\n# 데일리 브리핑\n본문\n```\n", "# 데일리 브리핑\n본문"},
		{"Fenced without language", "```\n본문\n```", "본문"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{text: tt.response}
			got, err := newTestWriter(gen).Write(context.Background(), "프롬프트")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "gemini-2.5-flash", gen.model)
			assert.Equal(t, "프롬프트", gen.prompt)
		})
	}
}

func TestScriptWriterErrors(t *testing.T) {
	t.Run("Empty prompt", func(t *testing.T) {
		gen := &fakeGenerator{text: "x"}
		_, err := newTestWriter(gen).Write(context.Background(), "  \n")
		assert.Error(t, err)
		assert.Empty(t, gen.model)
	})

	t.Run("Model error", func(t *testing.T) {
		_, err := newTestWriter(&fakeGenerator{err: errors.New("quota")}).Write(context.Background(), "p")
		assert.ErrorContains(t, err, "quota")
	})

	t.Run("Empty response", func(t *testing.T) {
		_, err := newTestWriter(&fakeGenerator{text: "```\n```"}).Write(context.Background(), "p")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}

func TestNewScriptWriterRequiresKey(t *testing.T) {
	_, err := NewScriptWriter(context.Background(), &config.AIConfig{Model: "gemini-2.5-flash"}, logging.Discard())
	assert.Error(t, err)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, "text", stripCodeFence("  text \n"))
	assert.Equal(t, "", stripCodeFence("```"))
	assert.Equal(t, "a\n```inner```", stripCodeFence("```md\na\n```inner```\n```"))
}
