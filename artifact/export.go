package artifact

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"
	"time"
)

// ExportFormat selects the output format for artifact export.
type ExportFormat string

const (
	// FormatJSON exports the artifact as indented JSON.
	FormatJSON ExportFormat = "json"

	// FormatMarkdown exports a readable Markdown document.
	FormatMarkdown ExportFormat = "markdown"

	// FormatCSV exports the fact-check verdicts as CSV rows.
	FormatCSV ExportFormat = "csv"

	// FormatHTML exports a minimal self-contained HTML report.
	FormatHTML ExportFormat = "html"
)

// String returns the string representation of the export format.
func (f ExportFormat) String() string {
	return string(f)
}

// IsValid checks if the export format is a recognized value.
func (f ExportFormat) IsValid() bool {
	switch f {
	case FormatJSON, FormatMarkdown, FormatCSV, FormatHTML:
		return true
	default:
		return false
	}
}

// Export writes the artifact to w in the requested format.
func Export(a *Artifact, format ExportFormat, w io.Writer) error {
	if a == nil {
		return fmt.Errorf("artifact: nothing to export")
	}
	if !format.IsValid() {
		return fmt.Errorf("artifact: invalid export format: %s", format)
	}

	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(a)

	case FormatMarkdown:
		return exportMarkdown(a, w)

	case FormatCSV:
		if _, err := fmt.Fprintf(w, "Claim,Verdict,SourceRefs\n"); err != nil {
			return err
		}
		for _, v := range a.Verdicts {
			refs := make([]string, 0, len(v.SourceRefs))
			for _, ref := range v.SourceRefs {
				refs = append(refs, fmt.Sprintf("%d", ref))
			}
			if _, err := fmt.Fprintf(w, "%s,%s,%s\n",
				csvEscape(v.Claim), v.Kind, strings.Join(refs, ";")); err != nil {
				return err
			}
		}
		return nil

	case FormatHTML:
		return exportHTML(a, w)

	default:
		return fmt.Errorf("artifact: unsupported export format: %s", format)
	}
}

func exportMarkdown(a *Artifact, w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", a.Topic)
	fmt.Fprintf(&b, "_Generated: %s_\n\n", a.GeneratedAt.Format(time.RFC3339))
	if a.FactCheckIncomplete {
		b.WriteString("> **Note:** fact-checking did not complete; verdicts are best-effort.\n\n")
	}

	for _, section := range a.Narrative {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", section.Heading, section.Body)
	}

	b.WriteString("## Sources\n\n")
	for i, src := range a.Sources {
		fmt.Fprintf(&b, "%d. [%s](%s) — %s\n", i+1, src.Title, src.URL, src.Snippet)
	}
	b.WriteString("\n## Fact-Check\n\n")
	b.WriteString("| Claim | Verdict |\n|---|---|\n")
	for _, v := range a.Verdicts {
		fmt.Fprintf(&b, "| %s | %s |\n", v.Claim, v.Kind)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func exportHTML(a *Artifact, w io.Writer) error {
	topic := html.EscapeString(a.Topic)
	if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body>
<h1>%s</h1>
<p>Generated: %s</p>
`, topic, topic, a.GeneratedAt.Format(time.RFC3339)); err != nil {
		return err
	}

	for _, section := range a.Narrative {
		if _, err := fmt.Fprintf(w, "<h2>%s</h2>\n<p>%s</p>\n",
			html.EscapeString(section.Heading), html.EscapeString(section.Body)); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "<h2>Sources</h2>\n<ol>\n"); err != nil {
		return err
	}
	for _, src := range a.Sources {
		if _, err := fmt.Fprintf(w, `<li><a href="%s">%s</a> — %s</li>%s`,
			html.EscapeString(src.URL), html.EscapeString(src.Title),
			html.EscapeString(src.Snippet), "\n"); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "</ol>\n<h2>Fact-Check</h2>\n<table border=\"1\">\n<tr><th>Claim</th><th>Verdict</th></tr>\n"); err != nil {
		return err
	}
	for _, v := range a.Verdicts {
		if _, err := fmt.Fprintf(w, "<tr><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(v.Claim), v.Kind); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "</table>\n</body>\n</html>\n")
	return err
}

// csvEscape quotes a field when it contains CSV metacharacters.
func csvEscape(field string) string {
	if strings.ContainsAny(field, ",\"\n") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}
