package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

const (
	contentTypesPath    = "[Content_Types].xml"
	docxDefaultBodyPath = "word/document.xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	pptxSlidePrefix     = "ppt/slides/slide"
	odfContentPath      = "content.xml"
)

var (
	// Text runs; attributes on the opening tag are allowed.
	wordText  = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	drawText  = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)
	odfPara   = regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`)
	odfSpan   = regexp.MustCompile(`<text:span[^>]*>([^<]*)</text:span>`)
	odfHeader = regexp.MustCompile(`<text:h[^>]*>([^<]*)</text:h>`)

	// The main-document Override in [Content_Types].xml, in either attribute order.
	docxPartName = []*regexp.Regexp{
		regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`),
		regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`),
	}
)

// zipDoc is an opened office package.
type zipDoc struct {
	kind string
	zr   *zip.Reader
}

func openZip(kind string, content []byte) (*zipDoc, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract %s: not a zip: %w", kind, err)
	}
	return &zipDoc{kind: kind, zr: zr}, nil
}

// read returns the named entry; ok is false when the entry does not exist.
func (d *zipDoc) read(name string) (data string, ok bool, err error) {
	for _, f := range d.zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", false, fmt.Errorf("extract %s: open %s: %w", d.kind, name, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return "", false, fmt.Errorf("extract %s: read %s: %w", d.kind, name, err)
		}
		return string(b), true, nil
	}
	return "", false, nil
}

func (d *zipDoc) mustRead(name string) (string, error) {
	data, ok, err := d.read(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("extract %s: %s not found", d.kind, name)
	}
	return data, nil
}

// joinMatches concatenates the first capture group of every match of each pattern, in
// pattern order, separated by single spaces.
func joinMatches(b *strings.Builder, xml string, patterns ...*regexp.Regexp) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(xml, -1) {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strings.TrimSpace(m[1]))
		}
	}
}

func extractDOCX(content []byte) (string, error) {
	doc, err := openZip("DOCX", content)
	if err != nil {
		return "", err
	}
	body := docxDefaultBodyPath
	if types, ok, _ := doc.read(contentTypesPath); ok {
		for _, re := range docxPartName {
			if m := re.FindStringSubmatch(types); len(m) > 1 {
				body = strings.TrimPrefix(m[1], "/")
				break
			}
		}
	}
	xml, err := doc.mustRead(body)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	joinMatches(&b, xml, wordText)
	return strings.TrimSpace(b.String()), nil
}

func extractPPTX(content []byte) (string, error) {
	doc, err := openZip("PPTX", content)
	if err != nil {
		return "", err
	}
	var slides []string
	for _, f := range doc.zr.File {
		if strings.HasPrefix(f.Name, pptxSlidePrefix) && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f.Name)
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slideNumber(slides[i]) < slideNumber(slides[j]) })

	var b strings.Builder
	for _, name := range slides {
		xml, err := doc.mustRead(name)
		if err != nil {
			return "", err
		}
		joinMatches(&b, xml, drawText)
	}
	return strings.TrimSpace(b.String()), nil
}

// slideNumber parses N from ppt/slides/slideN.xml; unparsable names sort last.
func slideNumber(name string) int {
	s := strings.TrimSuffix(strings.TrimPrefix(name, pptxSlidePrefix), ".xml")
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 1 << 30
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func extractODP(content []byte) (string, error) {
	return extractODF("ODP", content, odfPara, odfSpan, odfHeader)
}

func extractODS(content []byte) (string, error) {
	return extractODF("ODS", content, odfPara, odfSpan)
}

func extractODF(kind string, content []byte, patterns ...*regexp.Regexp) (string, error) {
	doc, err := openZip(kind, content)
	if err != nil {
		return "", err
	}
	xml, err := doc.mustRead(odfContentPath)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	joinMatches(&b, xml, patterns...)
	return strings.TrimSpace(b.String()), nil
}
