package mcpserver

// FormatContract describes the canonical Markdown dialect that
// LLM consumers should follow when creating documents.
const FormatContract = `# Ansuz Document Format Contract

Documents are stored as block trees and converted to/from Markdown.
Content passed to ` + "`" + `create_document` + "`" + ` MUST follow this dialect.

## Structure

` + "```" + `markdown
# Document title

Body paragraphs in standard Markdown.

## Section heading
### Sub-heading

> A quoted paragraph.

---

- Bullet item
- [ ] Open checkbox item
- [x] Done checkbox item
1. Numbered item
    - Nested item (indent with 4 spaces per level)
` + "```" + `

## Rules

1. **The first line SHOULD be a ` + "`" + `# title` + "`" + `.** It becomes the document title
   shown in search and listings. Without one an untitled document is created.
2. **Headings** go from ` + "`" + `##` + "`" + ` to ` + "`" + `###` + "`" + ` in the body. Deeper levels are
   clamped to ` + "`" + `###` + "`" + `.
3. **Lists** use ` + "`" + `- ` + "`" + ` for bullets, ` + "`" + `1. ` + "`" + ` style for numbered items and
   ` + "`" + `- [ ]` + "`" + ` / ` + "`" + `- [x]` + "`" + ` for checkboxes. Nest by indenting 4 spaces per level.
   Numbering restarts automatically; the literal numbers you write are ignored.
4. **Code blocks** use triple-backtick fences with an optional language tag.
5. **Tables** use pipe syntax with a header row and a ` + "`" + `| --- |` + "`" + ` separator row.
6. **Inline marks**: ` + "`" + `**bold**` + "`" + `, ` + "`" + `*italic*` + "`" + `, ` + "`" + `~~strikethrough~~` + "`" + `,
   ` + "`" + `` + "`" + `code` + "`" + `` + "`" + ` and ` + "`" + `[links](https://example.com)` + "`" + `.
7. **Document ids** are slash-separated paths without an extension
   (e.g. ` + "`" + `projects/roadmap` + "`" + `). Use English Latin characters for ids;
   content may use any language.
8. **Encoding** is UTF-8.
9. **No raw HTML.** Unsupported constructs are imported as plain paragraphs.

## Assets & Images

- Upload assets via the ` + "`" + `upload_asset` + "`" + ` tool. It returns a ` + "`" + `markdownImage` + "`" + `
  field ready to paste into the document body.
- Reference images with ` + "`" + `![description](/api/attachments/id.png)` + "`" + `.
- External image URLs (` + "`" + `![alt](https://...)` + "`" + `) are fetched and stored locally
  in the background after import.
- Supported formats: png, jpg, jpeg, gif, webp, svg, pdf.

## Example

` + "```" + `markdown
# Weekly standup

## Agenda

- [x] Review last week
- [ ] Plan sprint
    - Assign owners

| Topic | Owner |
| --- | --- |
| Deploys | Ada |
` + "```" + `
`
