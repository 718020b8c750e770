package mcpserver

// NoteFormatContract describes the canonical note format that
// LLM consumers should follow when creating or updating notes.
const NoteFormatContract = `# MindNexus Note Format Contract

Every Markdown note stored in MindNexus MUST follow this structure.
Plain-text notes (` + "`" + `.txt` + "`" + `) have no required structure; their filename stem becomes the title.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # REQUIRED – used in search, graph labels
tags:                               # OPTIONAL – YAML list; drives graph clustering
  - tag-one
  - tag-two
created: 2025-01-15                 # OPTIONAL – ISO-8601 date or datetime
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes (without .md extension).
Use [[target|alias]] for display text that differs from the target.
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory** for Markdown notes. The ` + "```" + `---` + "```" + ` fences must be
   the first thing in the file (no leading blank lines).
2. **` + "`" + `title` + "`" + ` field is required.** It is the primary display name everywhere,
   including the node label in the knowledge graph.
3. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `project-x` + "`" + `, ` + "`" + `meeting-notes` + "`" + `).
   Notes sharing a tag are connected in the graph, and every tag grows the
   note's node; choose tags deliberately.
4. **Wikilinks** use double brackets: ` + "`" + `[[other-note]]` + "`" + `. The target is the
   filename stem (no ` + "`" + `.md` + "`" + ` extension, path separators OK: ` + "`" + `[[folder/note]]` + "`" + `).
   Wikilinks feed backlink queries, not the graph; graph edges come from
   shared tags and from ` + "`" + `link_notes` + "`" + `.
5. **File paths** end with ` + "`" + `.md` + "`" + ` or ` + "`" + `.txt` + "`" + ` and use forward slashes.
6. **Encoding** is UTF-8 with a trailing newline.
7. **No HTML** unless absolutely necessary; prefer Markdown equivalents.
8. **Language policy:** file names and directory names MUST be in English (Latin characters).
   Frontmatter keys MUST be in English (they are schema fields). Frontmatter values
   (title, tags, aliases, etc.) and body content may use any language including Cyrillic.

## Semantic links

- When you judge two notes to be related beyond what their tags capture,
  record it with the ` + "`" + `link_notes` + "`" + ` tool. The link shows up as a dashed edge
  in the graph and pulls the notes together in the layout.
- Both endpoints must exist; link a note to itself and the tool refuses.
- Use ` + "`" + `unlink_notes` + "`" + ` to withdraw a link that no longer holds.

## External documents

- Import documents via the ` + "`" + `import_document` + "`" + ` tool. It returns a ` + "`" + `markdownLink` + "`" + `
  field ready to paste into a note body.
- Imported documents are stored in the shared ` + "`" + `documents/` + "`" + ` directory (flat, no sub-folders)
  and are indexed like any note, so they appear in search and in the graph.
- Reference in notes using the API path: ` + "`" + `[description](/api/documents/filename.pdf)` + "`" + `
- Supported formats: md, txt, pdf. PDF content is opaque; only its filename and
  tags participate in search and layout.

## Example

` + "```" + `markdown
---
title: Weekly standup 2025-01-20
tags:
  - meeting-notes
  - project-x
created: 2025-01-20
---

# Weekly standup 2025-01-20

Attendees: Alice, Bob.

[Original agenda](/api/documents/standup-2025-01-20.pdf)

## Action items

- [[alice]] to review the [[design-doc]]
- Bob to update [[project-x/roadmap|the roadmap]]
` + "```" + `
`
