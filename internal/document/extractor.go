// Package document reads and writes DOCX files for translation.
//
// A DOCX file is a ZIP archive whose main part, word/document.xml, holds the
// body paragraphs and tables. Extraction and write-back share one
// deterministic walk over the raw XML token stream, so a paragraph's origin
// ID computed during extraction always resolves to the same byte range during
// write-back. Everything outside the replaced paragraph content is preserved
// byte-for-byte.
package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nerdneilsfield/docx-translator/pkg/translation"
)

const documentPart = "word/document.xml"

// File is an opened DOCX file prepared for translation
type File struct {
	path    string
	raw     []byte // full archive
	docXML  []byte // word/document.xml
	paras   []paragraphLoc
	byID    map[string]int
	segments []translation.Segment
}

// paragraphLoc ties a paragraph's origin ID to its byte range in document.xml.
// contentStart/contentEnd delimit the paragraph content after its properties
// (pPr) and before the closing tag; replacing that range swaps the runs while
// keeping the paragraph style intact.
type paragraphLoc struct {
	originID     string
	styleTag     string
	text         string
	contentStart int64
	contentEnd   int64
}

// Open reads a DOCX file and extracts its translatable segments in document
// order: body paragraphs and table cell paragraphs as they appear.
// Unreadable or corrupt input is a fatal error for the caller.
func Open(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	zipReader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to read DOCX archive: %w", err)
	}

	var docXML []byte
	for _, file := range zipReader.File {
		if file.Name == documentPart {
			reader, err := file.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open %s: %w", documentPart, err)
			}
			docXML, err = io.ReadAll(reader)
			reader.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", documentPart, err)
			}
			break
		}
	}
	if docXML == nil {
		return nil, fmt.Errorf("not a DOCX file: missing %s", documentPart)
	}

	paras, err := walkDocument(docXML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", documentPart, err)
	}

	f := &File{
		path:   path,
		raw:    raw,
		docXML: docXML,
		paras:  paras,
		byID:   make(map[string]int, len(paras)),
	}
	for i, p := range paras {
		f.byID[p.originID] = i
		f.segments = append(f.segments, translation.Segment{
			OriginID: p.originID,
			Text:     p.text,
			StyleTag: p.styleTag,
		})
	}

	return f, nil
}

// Segments returns the extracted segments in document order
func (f *File) Segments() []translation.Segment {
	return f.segments
}

// tableFrame tracks the coordinates of the innermost open table
type tableFrame struct {
	table int
	row   int
	cell  int
	para  int
}

// walkDocument scans document.xml once with raw (prefix-preserving) tokens,
// collecting each paragraph's text, style and splice range.
// WordprocessingML elements are matched by their w: prefix so that text inside
// drawings or other namespaces is left alone.
func walkDocument(docXML []byte) ([]paragraphLoc, error) {
	dec := xml.NewDecoder(bytes.NewReader(docXML))

	var (
		paras     []paragraphLoc
		tables    []tableFrame // innermost last
		bodyPara  int
		tableSeen int

		current    *paragraphLoc
		paraDepth  int   // element depth inside the open paragraph
		inText     bool  // inside w:t
		sawPPr     bool
		prevOffset int64 // offset after the previous token
		text       strings.Builder
	)

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == "w" {
				switch t.Name.Local {
				case "tbl":
					tables = append(tables, tableFrame{table: tableSeen, row: -1, cell: -1, para: -1})
					tableSeen++
				case "tr":
					if n := len(tables); n > 0 {
						tables[n-1].row++
						tables[n-1].cell = -1
					}
				case "tc":
					if n := len(tables); n > 0 {
						tables[n-1].cell++
						tables[n-1].para = -1
					}
				case "p":
					if current == nil {
						current = &paragraphLoc{originID: originID(&tables, &bodyPara)}
						// until pPr closes, the splice range starts right
						// after the paragraph start tag
						current.contentStart = dec.InputOffset()
						paraDepth = 0
						sawPPr = false
						text.Reset()
					}
				case "pPr":
					if current != nil && paraDepth == 0 {
						sawPPr = true
					}
				case "pStyle":
					if current != nil && sawPPr {
						for _, attr := range t.Attr {
							if attr.Name.Space == "w" && attr.Name.Local == "val" {
								current.styleTag = attr.Value
							}
						}
					}
				case "t":
					if current != nil {
						inText = true
					}
				case "tab":
					if current != nil {
						text.WriteString("\t")
					}
				case "br", "cr":
					if current != nil {
						text.WriteString("\n")
					}
				}
			}
			if current != nil {
				paraDepth++
			}

		case xml.EndElement:
			if current != nil {
				paraDepth--
			}
			if t.Name.Space == "w" {
				switch t.Name.Local {
				case "tbl":
					if len(tables) > 0 {
						tables = tables[:len(tables)-1]
					}
				case "pPr":
					if current != nil && paraDepth == 1 {
						current.contentStart = dec.InputOffset()
					}
				case "t":
					inText = false
				case "p":
					if current != nil && paraDepth == 0 {
						current.contentEnd = prevOffset
						current.text = text.String()
						// self-closing <w:p/> advances nothing and holds nothing
						if current.text != "" && current.contentEnd > current.contentStart {
							paras = append(paras, *current)
						}
						current = nil
					}
				}
			}

		case xml.CharData:
			if inText {
				text.Write([]byte(t))
			}
		}

		prevOffset = dec.InputOffset()
	}

	return paras, nil
}

// originID builds the structural location identifier for the next paragraph:
// "p/<i>" for body paragraphs, "tbl/<t>/r<r>/c<c>/p<i>" inside table cells.
func originID(tables *[]tableFrame, bodyPara *int) string {
	if n := len(*tables); n > 0 {
		frame := &(*tables)[n-1]
		frame.para++
		return fmt.Sprintf("tbl/%d/r%d/c%d/p%d", frame.table, frame.row, frame.cell, frame.para)
	}
	id := fmt.Sprintf("p/%d", *bodyPara)
	*bodyPara++
	return id
}
