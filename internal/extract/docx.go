package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// docxParagraphs joins the text of the body paragraphs of a .docx with
// newlines. Empty paragraphs become empty lines.
type docxParagraphs struct{}

func (docxParagraphs) Name() string { return "docx" }

func (docxParagraphs) Extract(_ context.Context, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, err
	}
	defer doc.Close()

	paragraphs, err := bodyParagraphs(doc.Editable().GetContent())
	if err != nil {
		return Result{}, err
	}
	return Result{Text: strings.Join(paragraphs, "\n")}, nil
}

// bodyParagraphs returns the text of each w:p that is a direct child of
// w:body, in document order. Only the paragraph's own runs count, either
// directly under it or inside a w:hyperlink; table cells, text boxes and
// alternate content are skipped.
func bodyParagraphs(raw string) ([]string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var (
		stack      []string
		paragraphs []string
		cur        strings.Builder
		paraDepth  = -1 // stack depth of the open body paragraph
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inBody := len(stack) > 0 && stack[len(stack)-1] == "body"
			stack = append(stack, t.Name.Local)
			if paraDepth < 0 {
				if t.Name.Local == "p" && inBody {
					paraDepth = len(stack)
					cur.Reset()
				}
				continue
			}
			if !ownRunChild(stack[paraDepth:]) {
				continue
			}
			switch t.Name.Local {
			case "tab":
				cur.WriteByte('\t')
			case "br", "cr":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			if paraDepth >= 0 && len(stack) == paraDepth {
				paragraphs = append(paragraphs, cur.String())
				paraDepth = -1
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if paraDepth >= 0 && stack[len(stack)-1] == "t" && ownRunChild(stack[paraDepth:]) {
				cur.Write(t)
			}
		}
	}
	return paragraphs, nil
}

// ownRunChild reports whether rel, the element path below a paragraph,
// names a child of one of the paragraph's own runs (p/r/x or
// p/hyperlink/r/x).
func ownRunChild(rel []string) bool {
	switch len(rel) {
	case 2:
		return rel[0] == "r"
	case 3:
		return rel[0] == "hyperlink" && rel[1] == "r"
	default:
		return false
	}
}
