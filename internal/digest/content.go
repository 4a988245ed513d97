package digest

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const truncationMarker = "[...]"

// ExtractFirstImage returns the src of the first <img> carrying a non-empty src.
func ExtractFirstImage(excerpt string) (string, bool) {
	if !strings.Contains(strings.ToLower(excerpt), "<img") {
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(excerpt))
	if err != nil {
		return "", false
	}

	var src string
	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src = strings.TrimSpace(s.AttrOr("src", ""))
		return src == ""
	})

	return src, src != ""
}

// ReformatImages rewrites every <img> tag with a src into the canonical
// width-constrained form. Bytes outside rewritten tags are copied verbatim,
// including an unfinished tag at the end of the input.
func ReformatImages(excerpt string, maxWidthPx int) string {
	var b strings.Builder
	b.Grow(len(excerpt))

	var consumed int

	z := nethtml.NewTokenizer(strings.NewReader(excerpt))
	for {
		tt := z.Next()
		if tt == nethtml.ErrorToken {
			b.WriteString(excerpt[consumed:])
			return b.String()
		}

		// TagName lowercases the buffer in place, so Raw is copied first.
		raw := string(z.Raw())
		consumed += len(raw)

		if tt != nethtml.StartTagToken && tt != nethtml.SelfClosingTagToken {
			b.WriteString(raw)
			continue
		}

		token := z.Token()
		if token.DataAtom != atom.Img {
			b.WriteString(raw)
			continue
		}

		src, ok := imageSource(token)
		if !ok {
			b.WriteString(raw)
			continue
		}

		b.WriteString(imageTag(src, maxWidthPx))
	}
}

// StripTags replaces every tag with a single space. Text is kept raw, so
// entities stay encoded. An unfinished trailing tag is kept as text.
func StripTags(excerpt string) string {
	var b strings.Builder
	b.Grow(len(excerpt))

	var consumed int

	z := nethtml.NewTokenizer(strings.NewReader(excerpt))
	for {
		tt := z.Next()
		if tt == nethtml.ErrorToken {
			b.WriteString(excerpt[consumed:])
			return b.String()
		}

		raw := z.Raw()
		consumed += len(raw)

		if tt == nethtml.TextToken {
			b.Write(raw)
		} else {
			b.WriteByte(' ')
		}
	}
}

// Truncate cuts text to maxLength characters and appends a marker when text
// is longer than the limit.
func Truncate(text string, maxLength int) string {
	if maxLength < 0 {
		maxLength = 0
	}

	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}

	return string(runes[:maxLength]) + truncationMarker
}

func imageSource(token nethtml.Token) (string, bool) {
	for _, attr := range token.Attr {
		if attr.Namespace != "" || attr.Key != "src" {
			continue
		}

		src := strings.TrimSpace(attr.Val)

		return src, src != ""
	}

	return "", false
}

func imageTag(src string, maxWidthPx int) string {
	return fmt.Sprintf(`<img src="%s" style="max-width: %dpx"/>`, html.EscapeString(src), maxWidthPx)
}
