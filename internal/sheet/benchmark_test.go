package sheet

import (
	"fmt"
	"strings"
	"testing"
)

func BenchmarkParseCell(b *testing.B) {
	inputs := []string{
		"123",
		"-456.78",
		"1,234,567.89",
		"  999.99  ",
		"Oslo",
		"",
		"   ",
		"12-34",
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, in := range inputs {
			ParseCell(in)
		}
	}
}

func benchCSV(rows int) []byte {
	var sb strings.Builder
	sb.WriteString("\ufeffid,name,amount,city\n")
	for r := 0; r < rows; r++ {
		fmt.Fprintf(&sb, "%d,name %d,%d.5,city %d\n", r, r%50, r%1000, r%7)
	}
	return []byte(sb.String())
}

func BenchmarkDecodeCSV(b *testing.B) {
	data := benchCSV(10_000)
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeCSV(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkXLSXRoundTrip(b *testing.B) {
	t, err := DecodeCSV(benchCSV(1_000))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data, err := EncodeXLSX(t, XLSXOptions{})
		if err != nil {
			b.Fatal(err)
		}
		if _, err := DecodeXLSX(data); err != nil {
			b.Fatal(err)
		}
	}
}
