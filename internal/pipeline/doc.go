// Package pipeline implements the text and HTML stages around the
// structural Markdown parse:
//   - MD++ preprocessing (line endings, code protection, callout conversion)
//   - goldmark construction with highlighting, math and diagram extensions
//   - context-aware rendering
//   - standalone page assembly (document template, CSS injection, table of
//     contents, relative path relocation)
//
// Directive resolution lives in internal/render and plugs into the engine
// as a goldmark extension.
package pipeline
