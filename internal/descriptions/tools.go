package descriptions

// Tool descriptions with practical examples and use cases

const (
	ExtractPDFsDescription = `Extract the imported PDF documents from a GoodNotes export (.goodnotes) and combine them into one merged PDF.

**When to use:** A notebook was built from imported PDFs (lecture slides, papers, worksheets) and you need those documents back as plain PDF files.

**Why it's useful:** A .goodnotes export is a zip container holding every attachment under an opaque name. This tool keeps only real PDFs (by their %PDF- signature), orders them the way the notebook shows them using the attachment index, writes each one as <name>.pdf and builds merged.pdf when there are two or more.

**Examples:**
• Recover lecture slides: "Extract the PDFs from Physics.goodnotes"
• Keep only the individual files: "Extract Chemistry.goodnotes without merging"
• Choose a destination: "Extract Biology.goodnotes into exports/biology"

**Common workflows:**
1. Inspect first: goodnotes_list_attachments → check order and skipped entries → goodnotes_extract_pdfs
2. Archive a semester: extract every notebook → keep merged.pdf per course

**Notes:** A failed merge is reported but the individual PDFs are still written. Existing files are not replaced unless the server runs with --overwrite.`

	ListAttachmentsDescription = `List the attachments inside a GoodNotes export without writing anything.

**When to use:** Before extracting, to see which attachments are PDFs, which are skipped (images, ink data) and the order the PDFs will be written in.

**Why it's useful:** Shows where the order came from: "index" when the notebook's attachment index matched, "listing" when the export has no index, "fallback" when the index referenced nothing that exists. Index paths without a matching PDF are listed as unmatched.

**Examples:**
• Check contents: "What is inside Physics.goodnotes?"
• Debug ordering: "Why are the PDFs from History.goodnotes in this order?"`

	ServerInfoDescription = `Get server information, the configured root directory, limits and the available tools.

**When to use:** First call in a session, or when a path is rejected and you need to know which directory archives must live in.

**Examples:**
• "Which directory can goodnotes-pdf read from?"
• "What tools does the GoodNotes server provide?"`
)
