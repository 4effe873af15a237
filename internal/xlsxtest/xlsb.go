package xlsxtest

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// BIFF12 record ids used by the .xlsb writer.
const (
	recRow          = 0x0000
	recBool         = 0x0004
	recFloat        = 0x0005
	recString       = 0x0007
	recSI           = 0x0013
	recWorksheet    = 0x0181
	recWorksheetEnd = 0x0182
	recWorkbook     = 0x0183
	recWorkbookEnd  = 0x0184
	recSheets       = 0x018F
	recSheetsEnd    = 0x0190
	recSheetData    = 0x0191
	recSheetDataEnd = 0x0192
	recDimension    = 0x0194
	recSheet        = 0x019C
	recSST          = 0x019F
	recSSTEnd       = 0x01A0
)

// LegacyXLS is the committed BIFF8 fixture, relative to any package directory
// one level below the module root. Its "Data" sheet reads
//
//	id | name          | amount
//	1  | alpha         | 12.5
//	2  | needle in hay | 40
//	   (row 4 empty)
//	3  | Needle        | 7
//
// and its "Notes" sheet holds "notes" over "needle again" in column A.
const LegacyXLS = "../workbook/testdata/legacy.xls"

// CopyIn copies src to dir/name and returns the new path.
func CopyIn(t testing.TB, src, dir, name string) string {
	t.Helper()
	in, err := os.Open(src)
	require.NoError(t, err)
	defer in.Close()

	path := filepath.Join(dir, name)
	out, err := os.Create(path)
	require.NoError(t, err)
	_, err = io.Copy(out, in)
	require.NoError(t, err)
	require.NoError(t, out.Close())
	return path
}

// WriteXLSB creates dir/name as a binary workbook holding sheets. Text goes
// through the shared string table; numbers are stored as doubles with the
// default style.
func WriteXLSB(t testing.TB, dir, name string, sheets ...Sheet) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, BuildXLSB(t, sheets...), 0o644))
	return path
}

// BuildXLSB encodes sheets as an in-memory .xlsb archive.
func BuildXLSB(t testing.TB, sheets ...Sheet) []byte {
	t.Helper()
	var (
		strs  []string
		index = map[string]int{}
	)
	intern := func(s string) int {
		if i, ok := index[s]; ok {
			return i
		}
		index[s] = len(strs)
		strs = append(strs, s)
		return index[s]
	}

	var wb bytes.Buffer
	biff12WriteRec(&wb, recWorkbook, nil)
	biff12WriteRec(&wb, recSheets, nil)
	var rels bytes.Buffer
	rels.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for i, s := range sheets {
		var rec bytes.Buffer
		rec.Write(biff12Le32(0))
		rec.Write(biff12Le32(uint32(i + 1)))
		rec.Write(biff12EncStr(fmt.Sprintf("rId%d", i+1)))
		rec.Write(biff12EncStr(s.Name))
		biff12WriteRec(&wb, recSheet, rec.Bytes())
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="worksheet" Target="worksheets/sheet%d.bin"/>`, i+1, i+1)
	}
	biff12WriteRec(&wb, recSheetsEnd, nil)
	biff12WriteRec(&wb, recWorkbookEnd, nil)
	rels.WriteString(`</Relationships>`)

	parts := make([][]byte, len(sheets))
	for i, s := range sheets {
		parts[i] = worksheetBin(t, s, intern)
	}

	var sst bytes.Buffer
	count := biff12Le32(uint32(len(strs)))
	biff12WriteRec(&sst, recSST, append(count, count...))
	for _, s := range strs {
		biff12WriteRec(&sst, recSI, append([]byte{0x00}, biff12EncStr(s)...))
	}
	biff12WriteRec(&sst, recSSTEnd, nil)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zipAddFile(t, zw, "xl/_rels/workbook.bin.rels", rels.Bytes())
	zipAddFile(t, zw, "xl/workbook.bin", wb.Bytes())
	zipAddFile(t, zw, "xl/sharedStrings.bin", sst.Bytes())
	for i, part := range parts {
		zipAddFile(t, zw, fmt.Sprintf("xl/worksheets/sheet%d.bin", i+1), part)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func worksheetBin(t testing.TB, s Sheet, intern func(string) int) []byte {
	t.Helper()
	width := 1
	for _, row := range s.Rows {
		width = max(width, len(row))
	}
	var ws bytes.Buffer
	biff12WriteRec(&ws, recWorksheet, nil)
	var dim bytes.Buffer
	dim.Write(biff12Le32(0))
	dim.Write(biff12Le32(uint32(max(len(s.Rows)-1, 0))))
	dim.Write(biff12Le32(0))
	dim.Write(biff12Le32(uint32(width - 1)))
	biff12WriteRec(&ws, recDimension, dim.Bytes())
	biff12WriteRec(&ws, recSheetData, nil)

	for r, row := range s.Rows {
		if len(row) == 0 {
			continue
		}
		biff12WriteRec(&ws, recRow, biff12Le32(uint32(r)))
		for c, v := range row {
			if v == nil {
				continue
			}
			var cell bytes.Buffer
			cell.Write(biff12Le32(uint32(c)))
			cell.Write(biff12Le32(0))
			id := recFloat
			switch v := v.(type) {
			case string:
				id = recString
				cell.Write(biff12Le32(uint32(intern(v))))
			case bool:
				id = recBool
				if v {
					cell.WriteByte(1)
				} else {
					cell.WriteByte(0)
				}
			case int:
				cell.Write(biff12Le64(math.Float64bits(float64(v))))
			case float64:
				cell.Write(biff12Le64(math.Float64bits(v)))
			default:
				t.Fatalf("xlsb fixture: unsupported cell %T", v)
			}
			biff12WriteRec(&ws, id, cell.Bytes())
		}
	}
	biff12WriteRec(&ws, recSheetDataEnd, nil)
	biff12WriteRec(&ws, recWorksheetEnd, nil)
	return ws.Bytes()
}

// biff12WriteID writes a record id: every byte but the last carries the
// continuation bit.
func biff12WriteID(buf *bytes.Buffer, id int) {
	for {
		b := id & 0xFF
		id >>= 8
		if id > 0 {
			buf.WriteByte(byte(b) | 0x80)
		} else {
			buf.WriteByte(byte(b) &^ 0x80)
			break
		}
	}
}

// biff12WriteLen writes a record size as base-128.
func biff12WriteLen(buf *bytes.Buffer, n int) {
	for {
		b := n & 0x7F
		n >>= 7
		if n > 0 {
			buf.WriteByte(byte(b) | 0x80)
		} else {
			buf.WriteByte(byte(b))
			break
		}
	}
}

func biff12WriteRec(buf *bytes.Buffer, id int, payload []byte) {
	biff12WriteID(buf, id)
	biff12WriteLen(buf, len(payload))
	buf.Write(payload)
}

// biff12EncStr encodes s as a character count followed by UTF-16LE units.
func biff12EncStr(s string) []byte {
	runes := []rune(s)
	var sb bytes.Buffer
	_ = binary.Write(&sb, binary.LittleEndian, uint32(len(runes)))
	for _, r := range runes {
		_ = binary.Write(&sb, binary.LittleEndian, uint16(r))
	}
	return sb.Bytes()
}

func biff12Le32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

func biff12Le64(v uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, v)
}

func zipAddFile(t testing.TB, zw *zip.Writer, name string, data []byte) {
	t.Helper()
	f, err := zw.Create(name)
	require.NoError(t, err, "zip create %s", name)
	_, err = f.Write(data)
	require.NoError(t, err, "zip write %s", name)
}
