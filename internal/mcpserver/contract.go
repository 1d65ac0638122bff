package mcpserver

// MarkupContract describes the page markup understood by the wiki renderer.
const MarkupContract = `# tinywiki Markup Format

Pages are plain Markdown files stored as <name>.md under the wiki root.

## Page names

- A name is one or more segments separated by "/", e.g. ` + "`Projects/Roadmap`" + `.
- Only letters, digits, "_" and "-" survive in a segment; everything else is dropped.
  ` + "`My Page`" + ` and ` + "`MyPage`" + ` therefore name the same file.
- Segments that are empty, "." or ".." are ignored.

## Wiki links

- ` + "`[[Page Name]]`" + ` links to another page. Spaces become "_", so
  ` + "`[[My Page]]`" + ` points at ` + "`/My_Page`" + `.
- ` + "`[[Folder/My Page]]`" + ` links into a folder.
- The text between the brackets is shown as the link label.
- An unterminated ` + "`[[`" + ` or an empty ` + "`[[ ]]`" + ` is left as literal text.

## Markdown

- Tables, fenced code blocks (highlighted by language), autolinked URLs,
  ~~strikethrough~~, ^superscript^, ==highlight==, block quotes and footnotes.
- A single newline inside a paragraph is a line break.
- The first "# " heading is the page title.
- Raw HTML is removed when the page is rendered.
- External links open in a new tab and carry rel="nofollow".

## Example

` + "```" + `markdown
# Weekly standup

Attendees: Alice, Bob.

- Review the [[Design Doc]]
- Update [[Projects/Roadmap]]

Version 2^nd^ draft, ==needs review==.
` + "```" + `
`
