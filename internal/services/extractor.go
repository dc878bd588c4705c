package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Format is a resume document format the extractor understands.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatDOCX
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "PDF"
	case FormatDOCX:
		return "DOCX"
	default:
		return "unknown"
	}
}

// FormatFromContentType maps a declared MIME type to a Format. Parameters such as charset are ignored.
func FormatFromContentType(contentType string) (Format, bool) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch mediaType {
	case MIMETypePDF:
		return FormatPDF, true
	case MIMETypeDOCX:
		return FormatDOCX, true
	default:
		return FormatUnknown, false
	}
}

type TextExtractor interface {
	Extract(data []byte, format Format) (string, error)
}

type textExtractor struct{}

func NewTextExtractor() TextExtractor {
	return &textExtractor{}
}

// Extract implements TextExtractor.
func (e *textExtractor) Extract(data []byte, format Format) (string, error) {
	switch format {
	case FormatPDF:
		return extractPDFText(data)
	case FormatDOCX:
		return extractDOCXText(data)
	default:
		return "", &ClientInputError{Message: "Unsupported file type. Use PDF or DOCX."}
	}
}

func extractPDFText(data []byte) (text string, err error) {
	// The parser panics on some corrupt object graphs instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &MalformedDocumentError{Format: FormatPDF, Err: fmt.Errorf("%v", r)}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &MalformedDocumentError{Format: FormatPDF, Err: err}
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()
	failedPages := 0
	var lastErr error

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			failedPages++
			lastErr = err
			continue
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n\n")
	}

	if totalPage > 0 && failedPages == totalPage {
		return "", &MalformedDocumentError{Format: FormatPDF, Err: fmt.Errorf("no readable pages: %w", lastErr)}
	}

	return strings.TrimSpace(textBuilder.String()), nil
}

const (
	docxDocumentPart      = "word/document.xml"
	docxDocumentRelsPart  = "word/_rels/document.xml.rels"
	maxDocumentPartLength = 64 << 20
)

func extractDOCXText(data []byte) (string, error) {
	documentXML, err := readDocumentXML(data)
	if err != nil {
		return "", &MalformedDocumentError{Format: FormatDOCX, Err: err}
	}

	markup, err := wordprocessingToMarkup(documentXML)
	if err != nil {
		return "", &MalformedDocumentError{Format: FormatDOCX, Err: err}
	}

	return StripMarkup(markup), nil
}

// readDocumentXML returns the main document part. The relationships part is optional for
// documents without links or images, which the docx reader does not accept, so those are
// read from the package directly.
func readDocumentXML(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		defer doc.Close()
		return doc.Editable().GetContent(), nil
	}

	pkg, zipErr := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if zipErr != nil {
		return "", zipErr
	}

	var documentPart *zip.File
	for _, f := range pkg.File {
		switch f.Name {
		case docxDocumentPart:
			documentPart = f
		case docxDocumentRelsPart:
			// The reader rejected a package that has its relationships, so the failure is real.
			return "", err
		}
	}
	if documentPart == nil {
		return "", err
	}

	rc, openErr := documentPart.Open()
	if openErr != nil {
		return "", fmt.Errorf("failed to open %s: %w", docxDocumentPart, openErr)
	}
	defer rc.Close()

	content, readErr := io.ReadAll(io.LimitReader(rc, maxDocumentPartLength))
	if readErr != nil {
		return "", fmt.Errorf("failed to read %s: %w", docxDocumentPart, readErr)
	}
	return string(content), nil
}

// wordprocessingToMarkup converts the body of a WordprocessingML document into
// paragraph-level HTML so that text runs split by Word are rejoined.
func wordprocessingToMarkup(documentXML string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(documentXML))

	var out strings.Builder
	inBody := false
	inText := false
	foundBody := false

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "body" {
				inBody, foundBody = true, true
				continue
			}
			if !inBody {
				continue
			}
			switch t.Name.Local {
			case "p":
				out.WriteString("<p>")
			case "t":
				inText = true
			case "tab":
				out.WriteString("\t")
			case "br", "cr":
				out.WriteString("<br />")
			case "tbl":
				out.WriteString("<table>")
			case "tr":
				out.WriteString("<tr>")
			case "tc":
				out.WriteString("<td>")
			}
		case xml.EndElement:
			if t.Name.Local == "body" {
				inBody = false
				continue
			}
			if !inBody {
				continue
			}
			switch t.Name.Local {
			case "p":
				out.WriteString("</p>")
			case "t":
				inText = false
			case "tbl":
				out.WriteString("</table>")
			case "tr":
				out.WriteString("</tr>")
			case "tc":
				out.WriteString("</td>")
			}
		case xml.CharData:
			if inBody && inText {
				out.WriteString(html.EscapeString(string(t)))
			}
		}
	}

	if !foundBody {
		return "", errors.New("document body not found")
	}

	return out.String(), nil
}

var markupTagPattern = regexp.MustCompile(`<[^>]*>`)

// StripMarkup replaces every tag with a single space, unescapes entities and collapses whitespace.
func StripMarkup(markup string) string {
	text := markupTagPattern.ReplaceAllString(markup, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}
