package attachment

import "bytes"

// pdfSignature corresponds to '%PDF-'
var pdfSignature = []byte{0x25, 0x50, 0x44, 0x46, 0x2D}

// IsPDF reports whether content starts with the PDF header signature.
// Entry names are never consulted; GoodNotes stores attachments without extensions.
func IsPDF(content []byte) bool {
	return bytes.HasPrefix(content, pdfSignature)
}
