package localdump

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// imageFetcher retrieves an image by its (possibly relative) URL, returning
// raw bytes and the content type.
type imageFetcher func(ctx context.Context, ref string) ([]byte, string, error)

var (
	imageLineRe    = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)]+)\)$`)
	numberedListRe = regexp.MustCompile(`^\d+\.\s`)
)

// renderPDF typesets Markdown into a PDF document: title header, headings by
// level, paragraphs, lists, code blocks, table rows in monospace, and embedded
// images where the fetcher can supply PNG or JPEG bytes.
func renderPDF(ctx context.Context, title string, markdown string, fetch imageFetcher) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.MultiCell(0, 8, title, "", "L", false)
		pdf.Ln(4)
	}

	lines := strings.Split(markdown, "\n")
	inCodeBlock := false
	imageCount := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inCodeBlock = !inCodeBlock
			pdf.Ln(2)
			continue
		}

		if inCodeBlock {
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 4.5, line, "", "L", true)
			continue
		}

		if trimmed == "" {
			pdf.Ln(3)
			continue
		}

		// Headings.
		if strings.HasPrefix(line, "#") {
			level := 0
			for _, ch := range line {
				if ch == '#' {
					level++
				} else {
					break
				}
			}
			renderHeading(pdf, strings.TrimSpace(strings.TrimLeft(line, "# ")), level)
			continue
		}

		// Table rows: keep the pipes, render monospace so columns stay legible.
		if strings.HasPrefix(trimmed, "|") {
			pdf.SetFont("Courier", "", 8)
			pdf.MultiCell(0, 4, cleanInlineMarkdown(trimmed), "", "L", false)
			continue
		}

		// A line that is exactly one image.
		if m := imageLineRe.FindStringSubmatch(trimmed); m != nil {
			imageCount++
			if renderImage(ctx, pdf, fetch, m[2], imageCount) {
				continue
			}
			// Couldn't embed; keep the alt text so nothing silently vanishes.
			if m[1] != "" {
				pdf.SetFont("Helvetica", "I", 9)
				pdf.MultiCell(0, 5, "["+m[1]+"]", "", "L", false)
			}
			continue
		}

		// List items.
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, "• "+cleanInlineMarkdown(strings.TrimSpace(trimmed[2:])), "", "L", false)
			continue
		}
		if numberedListRe.MatchString(trimmed) {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, cleanInlineMarkdown(trimmed), "", "L", false)
			continue
		}

		// Regular paragraph text.
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, cleanInlineMarkdown(line), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

// renderImage fetches and embeds one image, reporting success.
func renderImage(ctx context.Context, pdf *gofpdf.Fpdf, fetch imageFetcher, ref string, n int) bool {
	if fetch == nil {
		return false
	}

	data, contentType, err := fetch(ctx, ref)
	if err != nil {
		return false
	}

	var imageType string
	switch {
	case strings.HasPrefix(contentType, "image/png"):
		imageType = "PNG"
	case strings.HasPrefix(contentType, "image/jpeg"):
		imageType = "JPG"
	default:
		return false
	}

	name := fmt.Sprintf("embedded-%d", n)
	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if pdf.Err() {
		// Undecodable image data; clear the error so the rest of the page
		// still renders.
		pdf.ClearError()
		return false
	}

	// Scale to the content width, aspect ratio preserved.
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	pdf.ImageOptions(name, left, pdf.GetY(), pageW-left-right, 0, true, opts, 0, "")
	pdf.Ln(3)
	return true
}

// renderHeading sets the font size based on heading level and writes text.
func renderHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, cleanInlineMarkdown(text), "", "L", false)
	pdf.Ln(2)
}

// cleanInlineMarkdown strips inline Markdown formatting for PDF rendering.
func cleanInlineMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	re := regexp.MustCompile(`(?:^|\s)\*([^*]+)\*(?:\s|$)`)
	text = re.ReplaceAllString(text, " $1 ")
	text = regexp.MustCompile("`([^`]+)`").ReplaceAllString(text, "$1")
	// Inline images degrade to their alt text.
	text = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`).ReplaceAllString(text, "$1")
	// Link syntax: keep the text, drop the target.
	text = regexp.MustCompile(`\[([^\]]*)\]\([^)]+\)`).ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
