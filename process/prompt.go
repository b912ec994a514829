package process

import (
	"bytes"
	"encoding/json"
	"strings"
	"text/template"

	"ewintr.nl/trendai/model"
)

const transcriptMissing = "Not available"

const seoPrompt = `You are a professional writer and an expert in creating content for websites.
You have watched the following YouTube video and reviewed all available information (title, description, transcript, and comments).
Your task is to write a long, creative, and detailed description of the video,
which reflects its essence and content in an engaging way, so that site visitors
become interested and clearly understand what it is about.
You are a professional writer specialized in SEO content for websites.
Do not copy the description, lyrics, or links from the video literally. Instead, write an original, creative, and descriptive summary of the video.
The text will be in English and you will not include an introduction such as "Here is the description:" but write the content directly.
Do not mention it, but the response should be formatted with line breaks for better readability.
The complete response should be in English, not any other language.

Video information:
Title: {{.Title}}
Description: {{.Description}}
Transcript: {{.Transcript}}
Top comments:
{{.Comments}}`

var seoTemplate = template.Must(template.New("seo").Parse(seoPrompt))

// SeoPrompt fills the prompt with the video details and at most
// maxComments of its comments.
func SeoPrompt(video *model.Video, maxComments int) (string, error) {
	comments := video.Comments
	if comments == nil {
		comments = []string{}
	}
	if maxComments = max(maxComments, 0); len(comments) > maxComments {
		comments = comments[:maxComments]
	}
	var cbuf bytes.Buffer
	enc := json.NewEncoder(&cbuf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(comments); err != nil {
		return "", err
	}

	transcript := transcriptMissing
	if video.Transcript != nil {
		transcript = *video.Transcript
	}

	var buf bytes.Buffer
	if err := seoTemplate.Execute(&buf, struct {
		Title       string
		Description string
		Transcript  string
		Comments    string
	}{
		Title:       video.TitleOr(""),
		Description: video.DescriptionOr(""),
		Transcript:  transcript,
		Comments:    strings.TrimSpace(cbuf.String()),
	}); err != nil {
		return "", err
	}

	return buf.String(), nil
}
