package document

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/docx-translator/pkg/translation"
)

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Judul</w:t></w:r></w:p><w:p><w:r><w:t xml:space="preserve">Baris satu</w:t></w:r><w:r><w:br/><w:t>dua</w:t></w:r></w:p><w:p/><w:tbl><w:tr><w:tc><w:p><w:r><w:t>Sel A</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Sel B</w:t></w:r></w:p></w:tc></w:tr></w:tbl><w:p><w:r><w:tab/><w:t>Setelah tab</w:t></w:r></w:p></w:body></w:document>`

// writeTestDocx builds a minimal DOCX on disk from the given document.xml
func writeTestDocx(t *testing.T, documentXML string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	types, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = types.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`))
	require.NoError(t, err)

	doc, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = doc.Write([]byte(documentXML))
	require.NoError(t, err)

	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "input.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

// readDocPart reads word/document.xml back out of a written DOCX
func readDocPart(t *testing.T, path string) string {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	for _, file := range zr.File {
		if file.Name == documentPart {
			reader, err := file.Open()
			require.NoError(t, err)
			defer reader.Close()
			data, err := io.ReadAll(reader)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatalf("%s not found in %s", documentPart, path)
	return ""
}

func TestOpen_ExtractsSegmentsInDocumentOrder(t *testing.T) {
	path := writeTestDocx(t, testDocumentXML)

	file, err := Open(path)
	require.NoError(t, err)

	segments := file.Segments()
	require.Len(t, segments, 5)

	assert.Equal(t, "p/0", segments[0].OriginID)
	assert.Equal(t, "Judul", segments[0].Text)
	assert.Equal(t, "Heading1", segments[0].StyleTag)

	// 跨 run 的文本合并，w:br 归一化为换行
	assert.Equal(t, "p/1", segments[1].OriginID)
	assert.Equal(t, "Baris satu\ndua", segments[1].Text)
	assert.Empty(t, segments[1].StyleTag)

	// 自闭合 <w:p/> 不产出 Segment，但表格单元格按坐标标识
	assert.Equal(t, "tbl/0/r0/c0/p0", segments[2].OriginID)
	assert.Equal(t, "Sel A", segments[2].Text)
	assert.Equal(t, "tbl/0/r0/c1/p0", segments[3].OriginID)
	assert.Equal(t, "Sel B", segments[3].Text)

	// w:tab 归一化为制表符；自闭合段落占用了 p/2
	assert.Equal(t, "p/3", segments[4].OriginID)
	assert.Equal(t, "\tSetelah tab", segments[4].Text)
}

func TestOpen_MissingDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = entry.Write([]byte("<w:styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "empty.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a DOCX file")
}

func TestOpen_NotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.docx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip"), 0644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestOpen_FileMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.docx"))
	assert.Error(t, err)
}

func TestWriteTranslated_RoundTrip(t *testing.T) {
	path := writeTestDocx(t, testDocumentXML)

	file, err := Open(path)
	require.NoError(t, err)

	segments := file.Segments()
	translated := make([]translation.TranslatedSegment, len(segments))
	for i, seg := range segments {
		translated[i] = translation.TranslatedSegment{
			OriginID: seg.OriginID,
			Text:     strings.ToUpper(seg.Text),
			StyleTag: seg.StyleTag,
		}
	}

	outPath := filepath.Join(t.TempDir(), "output.docx")
	require.NoError(t, file.WriteTranslated(outPath, translated))

	// 重新抽取输出文件，译文和结构标识必须与回写内容一致
	outFile, err := Open(outPath)
	require.NoError(t, err)

	outSegments := outFile.Segments()
	require.Len(t, outSegments, len(segments))
	for i, seg := range outSegments {
		assert.Equal(t, segments[i].OriginID, seg.OriginID)
		assert.Equal(t, strings.ToUpper(segments[i].Text), seg.Text)
	}

	docXML := readDocPart(t, outPath)
	// 段落样式保留，自闭合段落原样保留
	assert.Contains(t, docXML, `<w:pStyle w:val="Heading1"/>`)
	assert.Contains(t, docXML, `<w:p/>`)
	// 表格骨架不被改动
	assert.Contains(t, docXML, "<w:tbl>")
}

func TestWriteTranslated_EscapesSpecialCharacters(t *testing.T) {
	path := writeTestDocx(t, testDocumentXML)

	file, err := Open(path)
	require.NoError(t, err)

	segments := file.Segments()
	translated := make([]translation.TranslatedSegment, len(segments))
	for i, seg := range segments {
		translated[i] = translation.TranslatedSegment{OriginID: seg.OriginID, Text: seg.Text}
	}
	translated[0].Text = `a <b> & "c"` + "\nbaris baru"

	outPath := filepath.Join(t.TempDir(), "escaped.docx")
	require.NoError(t, file.WriteTranslated(outPath, translated))

	docXML := readDocPart(t, outPath)
	assert.Contains(t, docXML, "a &lt;b&gt; &amp; \"c\"&#xA;baris baru")
	assert.NotContains(t, docXML, "<b>")

	outFile, err := Open(outPath)
	require.NoError(t, err)
	assert.Equal(t, `a <b> & "c"`+"\nbaris baru", outFile.Segments()[0].Text)
}

func TestWriteTranslated_UnknownOrigin(t *testing.T) {
	path := writeTestDocx(t, testDocumentXML)

	file, err := Open(path)
	require.NoError(t, err)

	err = file.WriteTranslated(filepath.Join(t.TempDir(), "bad.docx"), []translation.TranslatedSegment{
		{OriginID: "p/999", Text: "hantu"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown origin")
}

func TestWriteTranslated_PreservesUntouchedParts(t *testing.T) {
	path := writeTestDocx(t, testDocumentXML)

	file, err := Open(path)
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "copy.docx")
	require.NoError(t, file.WriteTranslated(outPath, nil))

	zr, err := zip.OpenReader(outPath)
	require.NoError(t, err)
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "[Content_Types].xml")
	assert.Contains(t, names, documentPart)

	// 没有任何拼接时 document.xml 原样复制
	assert.Equal(t, testDocumentXML, readDocPart(t, outPath))
}
