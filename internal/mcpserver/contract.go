package mcpserver

// FormatContract describes the ADR file layout and lifecycle rules that
// LLM consumers should follow when creating or editing ADRs.
const FormatContract = `# ADR Format Contract

Every Architecture Decision Record (ADR) is one Markdown file with YAML front
matter. Create ADRs with the create_adr tool; it fills the template of the
target scope and stamps the metadata for you.

## Identity

- A global ADR lives in the project ADR folder; its slug is the file name
  without ` + "`" + `.md` + "`" + `, e.g. ` + "`" + `20240305-use-postgres` + "`" + `.
- A package ADR lives in the package ADR folder; its slug is prefixed with the
  package name, e.g. ` + "`" + `billing/20240305-use-postgres` + "`" + `.
- Generated slugs are ` + "`" + `YYYYMMDD-<kebab-title>` + "`" + `; collisions get ` + "`" + `-2` + "`" + `, ` + "`" + `-3` + "`" + `, ...
- Explicit slugs use lowercase letters, digits, ` + "`" + `.` + "`" + `, ` + "`" + `_` + "`" + ` and ` + "`" + `-` + "`" + `.
- Slugs are unique across the whole project, packages included.

## Front matter

` + "```" + `markdown
---
title: Use PostgreSQL for billing   # REQUIRED
status: draft                       # draft | proposed | accepted | rejected | deprecated | superseded
date: 2024-03-05                    # YYYY-MM-DD, creation date
package: billing                    # package ADRs only
superseded_by: billing/20240610-x   # only when status is superseded
tags:                               # OPTIONAL
  - storage
---
` + "```" + `

## Lifecycle

- New ADRs start as ` + "`" + `draft` + "`" + `.
- ` + "`" + `draft → proposed → accepted → (deprecated | superseded)` + "`" + `; ` + "`" + `rejected` + "`" + `
  from ` + "`" + `draft` + "`" + ` or ` + "`" + `proposed` + "`" + `.
- Use the supersede_adr tool to replace a decision. It sets ` + "`" + `status: superseded` + "`" + `
  and ` + "`" + `superseded_by` + "`" + ` on the old ADR. The new ADR is left unchanged and shows
  the inbound relation when rendered. Never edit these two keys by hand.

## Body

- Standard Markdown following the template headings (context, options,
  decision outcome, consequences).
- Reference other ADRs with wikilinks on their full slug: ` + "`" + `[[billing/20240305-use-postgres]]` + "`" + `.
- Files are UTF-8 with a trailing newline.
`
