package notebook

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const notebookSnapshot = `<html><body>
<div class="header">
  <button class="create-new-button" aria-label="노트북 만들기"><span class="mat-icon">add</span> 새로 만들기</button>
  <div role="button" class="project-button"><mat-card><span class="title">Daily new</span></mat-card></div>
</div>
<div class="cdk-overlay-pane">
  <add-sources-dialog>
    <textarea formcontrolname="urls" aria-label="URL 입력" placeholder="링크를 붙여넣으세요."></textarea>
    <input type="hidden" name="csrf">
    <input type="text" placeholder="검색">
    <button class="mat-primary">삽입</button>
  </add-sources-dialog>
</div>
<notebook-guide><h2>노트북 가이드</h2><audio-overview class="audio-panel">오디오 개요 <button>맞춤설정</button></audio-overview></notebook-guide>
</body></html>`

func TestInspectSnapshot(t *testing.T) {
	report, err := InspectSnapshot(strings.NewReader(notebookSnapshot))
	require.NoError(t, err)

	var texts []string
	for _, c := range report.Controls {
		texts = append(texts, c.Text)
	}
	assert.Contains(t, texts, "add 새로 만들기")
	assert.Contains(t, texts, "삽입")
	assert.Contains(t, texts, "맞춤설정")
	assert.Equal(t, "노트북 만들기", report.Controls[0].AriaLabel)
	assert.Equal(t, "create-new-button", report.Controls[0].Class)

	require.Len(t, report.Inputs, 2)
	assert.Equal(t, "textarea", report.Inputs[0].Tag)
	assert.Equal(t, "urls", report.Inputs[0].FormControlName)
	assert.Equal(t, "text", report.Inputs[1].Type)

	joined := strings.Join(report.Hints, "\n")
	assert.Contains(t, joined, "<audio-overview")
	assert.Contains(t, joined, "<h2> 노트북 가이드")

	var out bytes.Buffer
	require.NoError(t, report.Write(&out))
	assert.Contains(t, out.String(), "Inputs (2)")
	assert.Contains(t, out.String(), `formcontrolname="urls"`)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "a b c", clip("  a \n b\tc "))
	long := strings.Repeat("가", 100)
	assert.Equal(t, strings.Repeat("가", 80)+"...", clip(long))
}
