package markdown

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// Parser renders user written markdown (mod descriptions) to safe HTML
type Parser struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	return &Parser{
		md:     md,
		policy: bluemonday.UGCPolicy(),
	}
}

// Parse converts markdown and strips anything the UGC policy does not allow
func (p *Parser) Parse(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := p.md.Convert(source, &buf)
	if err != nil {
		return nil, err
	}
	return p.policy.SanitizeBytes(buf.Bytes()), nil
}

// HTML is Parse for strings; a conversion error yields an empty string
func (p *Parser) HTML(source string) string {
	out, err := p.Parse([]byte(source))
	if err != nil {
		return ""
	}
	return string(out)
}
