package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostProcess_StripsBidiMarks(t *testing.T) {
	got := PostProcess("до‎после⁦x⁩")
	assert.Equal(t, "допослеx", got)
}

func TestPostProcess_NormalisesHardSpaces(t *testing.T) {
	got := PostProcess("a b c")
	assert.Equal(t, "a b c", got)
}

func TestPostProcess_FusesNestedEmphasis(t *testing.T) {
	assert.Equal(t, "***текст***", PostProcess("** *текст* **"))
	assert.Equal(t, "***текст***", PostProcess("* **текст** *"))
}

func TestPostProcess_CollapsesMarkerRuns(t *testing.T) {
	assert.Equal(t, "**x", PostProcess("****x"))
	assert.Equal(t, "***x", PostProcess("*****x"))
	assert.Equal(t, "**x", PostProcess("******x"))
}

func TestPostProcess_MovesEmphasisIntoLink(t *testing.T) {
	assert.Equal(t, "[**жирная ссылка**](https://example.com)",
		PostProcess("**[жирная ссылка](https://example.com)**"))
	assert.Equal(t, "[*курсив*](https://example.com)",
		PostProcess("*[курсив](https://example.com)*"))
	assert.Equal(t, "[***оба***](https://example.com)",
		PostProcess("***[оба](https://example.com)***"))
}

func TestPostProcess_StripsSpacingInsideLinkEmphasis(t *testing.T) {
	assert.Equal(t, "[**текст**](u)", PostProcess("[** текст **](u)"))
}

func TestPostProcess_QuoteSpacing(t *testing.T) {
	assert.Equal(t, "«цитата»", PostProcess("« цитата »"))
	assert.Equal(t, "„слово”", PostProcess("„ слово ”"))
}

func TestPostProcess_LeavesCleanTextAlone(t *testing.T) {
	clean := "Обычный **текст** с [ссылкой](https://example.com) и «цитатой».\n\nВторой абзац.\n"
	assert.Equal(t, clean, PostProcess(clean))
}
