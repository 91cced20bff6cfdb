package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		resp *MessageResponse
		want string
	}{
		{
			name: "single_text_block",
			resp: &MessageResponse{Content: []ContentBlock{
				{Type: "text", Text: "law"},
			}},
			want: "law",
		},
		{
			name: "concatenates_text_blocks",
			resp: &MessageResponse{Content: []ContentBlock{
				{Type: "text", Text: "Section 21 "},
				{Type: "text", Text: "applies here."},
			}},
			want: "Section 21 applies here.",
		},
		{
			name: "skips_non_text_blocks",
			resp: &MessageResponse{Content: []ContentBlock{
				{Type: "tool_use", Text: "ignored"},
				{Type: "text", Text: "kept"},
			}},
			want: "kept",
		},
		{
			name: "empty_content",
			resp: &MessageResponse{},
			want: "",
		},
		{
			name: "nil_response",
			resp: nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractText(tt.resp))
		})
	}
}

func TestBuildCachedSystemBlocks(t *testing.T) {
	blocks := BuildCachedSystemBlocks("You are a legal assistant.")

	require.Len(t, blocks, 1)
	assert.Equal(t, "You are a legal assistant.", blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "5m", blocks[0].CacheControl.TTL)
}

func TestToSDKMessages_Roles(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer"},
		{Role: "", Content: "defaults to user"},
	})

	require.Len(t, msgs, 3)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	assert.Equal(t, "user", string(msgs[2].Role))
}

func TestToSDKSystemBlocks_CacheControl(t *testing.T) {
	blocks := toSDKSystemBlocks([]SystemBlock{
		{Text: "cached", CacheControl: &CacheControl{TTL: "1h"}},
		{Text: "uncached"},
	})

	require.Len(t, blocks, 2)
	assert.Equal(t, "cached", blocks[0].Text)
	assert.Equal(t, "1h", string(blocks[0].CacheControl.TTL))
	assert.Equal(t, "uncached", blocks[1].Text)
}
