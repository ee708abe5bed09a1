package synthesis

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podcast-agent/internal/models"
)

const (
	excerptThreshold = 1000
	excerptHead      = 500
	excerptTail      = 300
	promptLimit      = 8000

	// ExcerptMarker separates the head and tail of a long caption excerpt
	ExcerptMarker = "\n\n... (중략) ...\n\n"
	// TruncatedSuffix is appended to captions cut for the prompt
	TruncatedSuffix = "\n... (이하 생략)"

	noCaption = "(자막 없음)"
)

const promptTemplate = `당신은 한국의 인기 경제/투자 팟캐스트 진행자입니다.
아래 영상들의 자막을 분석하여, 청취자가 쉽게 이해할 수 있는 팟캐스트 대본을 작성해주세요.

## 작성 규칙
1. **형식**: 두 명의 진행자(A, B)가 대화하는 형식
2. **길이**: 약 3000~5000자
3. **톤**: 전문적이면서도 친근한 대화체
4. **구조**:
   - 오프닝 인사 (오늘의 주제 소개)
   - 핵심 뉴스/인사이트 정리 (영상별)
   - 심층 분석 및 의견
   - 마무리 요약 및 액션 아이템
5. **한국어**로 작성

## 오늘의 영상 자료

%s

## 지시사항
위 영상 자료를 바탕으로 팟캐스트 대본을 작성해주세요.
각 영상의 핵심 포인트를 자연스럽게 대화에 녹여내고,
청취자에게 실질적인 인사이트를 제공하는 것이 목표입니다.
`

// Excerpt keeps the head and tail of a long caption. Text at or under the
// threshold is returned unchanged.
func Excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptThreshold {
		return text
	}
	return string(runes[:excerptHead]) + ExcerptMarker + string(runes[len(runes)-excerptTail:])
}

// TruncateForPrompt cuts a caption to the prompt limit
func TruncateForPrompt(text string) string {
	runes := []rune(text)
	if len(runes) <= promptLimit {
		return text
	}
	return string(runes[:promptLimit]) + TruncatedSuffix
}

// ScriptFileName is the dated name of the generated script
func ScriptFileName(day time.Time) string {
	return "podcast_script_" + day.Format("20060102") + ".md"
}

// AIScriptFileName is the dated name of the model-written script
func AIScriptFileName(day time.Time) string {
	return "podcast_script_ai_" + day.Format("20060102") + ".md"
}

// Synthesizer turns video records and their captions into a podcast script.
// It never touches the network.
type Synthesizer struct {
	captionDir string
	outputDir  string
	log        *slog.Logger
}

func NewSynthesizer(captionDir, outputDir string, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		captionDir: captionDir,
		outputDir:  outputDir,
		log:        logger,
	}
}

// Caption returns the caption for v: the attached text first, then the caption
// file on disk. A missing file counts as no caption.
func (s *Synthesizer) Caption(v models.VideoRecord) string {
	if v.Caption != "" {
		return v.Caption
	}
	if s.captionDir == "" || v.VideoID == "" {
		return ""
	}

	data, err := os.ReadFile(filepath.Join(s.captionDir, models.CaptionFileName(v.VideoID)))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("Failed to read caption file", "video_id", v.VideoID, "error", err)
		}
		return ""
	}
	return string(data)
}

// BuildScript renders the local script: opening, one section per video, closing
func (s *Synthesizer) BuildScript(videos []models.VideoRecord, day time.Time) string {
	date := day.Format("2006년 01월 02일")
	var b strings.Builder

	fmt.Fprintf(&b, "# 데일리 투자 브리핑 | %s\n\n", date)
	b.WriteString("## 오프닝\n\n")
	fmt.Fprintf(&b, "**A**: 안녕하세요! %s 데일리 투자 브리핑입니다.\n", date)
	fmt.Fprintf(&b, "**B**: 오늘은 총 %d개의 영상에서 핵심 인사이트를 정리해봤습니다.\n\n", len(videos))

	for i, v := range videos {
		fmt.Fprintf(&b, "---\n## 영상 %d: %s\n", i+1, v.Title)
		fmt.Fprintf(&b, "*채널: %s | [영상 링크](%s)*\n\n", channelName(v), v.URL)

		caption := s.Caption(v)
		if caption == "" {
			b.WriteString("**A**: 안타깝게도 이 영상은 자막이 제공되지 않아 내용을 확인할 수 없었습니다.\n\n")
			continue
		}
		b.WriteString("**A**: 이 영상의 핵심 내용을 정리해보면...\n\n")
		fmt.Fprintf(&b, "> %s\n\n", Excerpt(caption))
		b.WriteString("**B**: 흥미로운 포인트네요. 다음 영상으로 넘어가볼까요?\n\n")
	}

	b.WriteString("---\n## 마무리\n\n")
	b.WriteString("**A**: 오늘 브리핑 내용 정리해볼까요?\n")
	fmt.Fprintf(&b, "**B**: 네, 오늘은 총 %d개 영상의 핵심을 다뤘습니다.\n", len(videos))
	b.WriteString("**A**: 내일도 새로운 인사이트로 찾아뵙겠습니다. 감사합니다!\n")
	return b.String()
}

// BuildPrompt renders the language model prompt with one section per video
func (s *Synthesizer) BuildPrompt(videos []models.VideoRecord) string {
	sections := make([]string, 0, len(videos))
	for i, v := range videos {
		caption := TruncateForPrompt(s.Caption(v))
		if caption == "" {
			caption = noCaption
		}
		sections = append(sections, fmt.Sprintf("### 영상 %d: %s\n- **채널**: %s\n- **URL**: %s\n\n**자막 내용:**\n%s\n",
			i+1, v.Title, channelName(v), v.URL, caption))
	}
	return fmt.Sprintf(promptTemplate, strings.Join(sections, "\n---\n"))
}

// Render joins the script with the prompt section stored alongside it
func (s *Synthesizer) Render(videos []models.VideoRecord, day time.Time) string {
	var b strings.Builder
	b.WriteString(s.BuildScript(videos, day))
	b.WriteString("\n---\n## LLM 프롬프트\n\n")
	b.WriteString("아래 프롬프트를 LLM에 전달하면 더 자연스러운 대본을 생성할 수 있습니다:\n\n")
	b.WriteString("```\n")
	b.WriteString(s.BuildPrompt(videos))
	b.WriteString("```\n")
	return b.String()
}

// Generate writes podcast_script_YYYYMMDD.md to the output directory
func (s *Synthesizer) Generate(videos []models.VideoRecord, day time.Time) (string, error) {
	if len(videos) == 0 {
		return "", errors.New("no videos to synthesize")
	}

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	script := s.Render(videos, day)
	path := filepath.Join(s.outputDir, ScriptFileName(day))
	if err := os.WriteFile(path, []byte(script), 0644); err != nil {
		return "", fmt.Errorf("failed to write script: %w", err)
	}

	s.log.Info("Saved podcast script", "path", path, "videos", len(videos), "chars", len([]rune(script)))
	return path, nil
}

func channelName(v models.VideoRecord) string {
	if v.Channel == "" {
		return "N/A"
	}
	return v.Channel
}
