package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/nerdneilsfield/docx-translator/pkg/translation"
)

// WriteTranslated writes the translated texts back into their paragraph
// locations and saves a new DOCX at outputPath. Each translated paragraph is
// rewritten as a single run (inline run formatting is not preserved; the
// paragraph style is, since the splice range starts after the paragraph
// properties). All other archive parts are copied unchanged.
func (f *File) WriteTranslated(outputPath string, translated []translation.TranslatedSegment) error {
	type splice struct {
		start, end  int64
		replacement []byte
	}

	splices := make([]splice, 0, len(translated))
	for _, seg := range translated {
		idx, ok := f.byID[seg.OriginID]
		if !ok {
			return fmt.Errorf("unknown origin %q", seg.OriginID)
		}
		loc := f.paras[idx]
		splices = append(splices, splice{
			start:       loc.contentStart,
			end:         loc.contentEnd,
			replacement: renderRun(seg.Text),
		})
	}

	sort.Slice(splices, func(i, j int) bool {
		return splices[i].start < splices[j].start
	})

	var out bytes.Buffer
	var pos int64
	for _, s := range splices {
		if s.start < pos {
			return fmt.Errorf("overlapping paragraph ranges at offset %d", s.start)
		}
		out.Write(f.docXML[pos:s.start])
		out.Write(s.replacement)
		pos = s.end
	}
	out.Write(f.docXML[pos:])

	return f.saveDocx(outputPath, out.Bytes())
}

// renderRun renders a single replacement run for a paragraph
func renderRun(text string) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<w:r><w:t xml:space="preserve">`)
	escapeXML(&buf, text)
	buf.WriteString(`</w:t></w:r>`)
	return buf.Bytes()
}

// escapeXML escapes character data for XML output
func escapeXML(buf *bytes.Buffer, s string) {
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '\n':
			buf.WriteString("&#xA;")
		case '\r':
			buf.WriteString("&#xD;")
		default:
			buf.WriteRune(r)
		}
	}
}

// saveDocx writes a new DOCX archive, swapping in the updated document.xml
func (f *File) saveDocx(outputPath string, docXML []byte) error {
	zipReader, err := zip.NewReader(bytes.NewReader(f.raw), int64(len(f.raw)))
	if err != nil {
		return fmt.Errorf("failed to reopen DOCX archive: %w", err)
	}

	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer output.Close()

	zipWriter := zip.NewWriter(output)

	for _, file := range zipReader.File {
		writer, err := zipWriter.Create(file.Name)
		if err != nil {
			zipWriter.Close()
			return fmt.Errorf("failed to create archive entry %s: %w", file.Name, err)
		}

		if file.Name == documentPart {
			if _, err := writer.Write(docXML); err != nil {
				zipWriter.Close()
				return fmt.Errorf("failed to write %s: %w", documentPart, err)
			}
			continue
		}

		reader, err := file.Open()
		if err != nil {
			zipWriter.Close()
			return fmt.Errorf("failed to open archive entry %s: %w", file.Name, err)
		}
		_, err = io.Copy(writer, reader)
		reader.Close()
		if err != nil {
			zipWriter.Close()
			return fmt.Errorf("failed to copy archive entry %s: %w", file.Name, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize DOCX: %w", err)
	}

	return nil
}
