// Package report renders audit reports as markdown text or HTML.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"skyaudit/app"
	"skyaudit/domain/verdict"
	"skyaudit/internal/errors"
)

// PreviewRows is how many black-hole rows the mass table preview lists.
const PreviewRows = 5

// Markdown renders the report as markdown-flavoured text.
func Markdown(r *app.AuditReport) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# Catalog audit %s\n\n", r.RunID)
	if !r.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Started %s, took %s.\n\n", r.StartedAt, r.Duration.Round(time.Millisecond))
	}

	writeCatalog(&b, r)
	writeFit(&b, "Anisotropy fit", "1 + A·P2(cos θ) + B·sin(l − φ0) against z / mean(z)", r.Anisotropy)
	writeFit(&b, "Radial excess fit", "γ·z^n against μ_obs − μ_ref", r.Radial)
	if r.Alignment != nil {
		writeAlignment(&b, r.Alignment)
	}
	if r.A0 != nil {
		writeA0(&b, r.A0)
	}
	if r.BlackHoles != nil {
		writeBlackHoles(&b, r.BlackHoles)
	}
	writeVerdicts(&b, r)
	return []byte(b.String())
}

// HTML renders the markdown report as a complete HTML page.
func HTML(r *app.AuditReport) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("Catalog audit %s", r.RunID),
	})
	return markdown.ToHTML(Markdown(r), p, renderer)
}

// Write renders to w, as HTML when asHTML is set.
func Write(w io.Writer, r *app.AuditReport, asHTML bool) error {
	out := Markdown(r)
	if asHTML {
		out = HTML(r)
	}
	_, err := w.Write(out)
	return err
}

func writeCatalog(b *strings.Builder, r *app.AuditReport) {
	c := r.Catalog
	fmt.Fprintf(b, "## Catalog\n\n")
	fmt.Fprintf(b, "Source `%s`: %d rows used, %d dropped. H0 = %g km/s/Mpc (configured).\n\n", c.Source, c.Rows, c.Dropped, r.Constants.H0)
	fmt.Fprintf(b, "| Column | Mean | Median | Std dev | Min | Max |\n|---|---|---|---|---|---|\n")
	fmt.Fprintf(b, "| z | %s | %s | %s | %s | %s |\n", num(c.Redshift.Mean), num(c.Redshift.Median), num(c.Redshift.StdDev), num(c.Redshift.Min), num(c.Redshift.Max))
	fmt.Fprintf(b, "| μ residual | %s | %s | %s | %s | %s |\n\n", num(c.Residual.Mean), num(c.Residual.Median), num(c.Residual.StdDev), num(c.Residual.Min), num(c.Residual.Max))
}

func writeFit(b *strings.Builder, title, model string, sec *app.FitSection) {
	fmt.Fprintf(b, "## %s\n\nModel: %s.\n\n", title, model)
	if sec == nil || sec.Result == nil {
		fmt.Fprintf(b, "Not run.\n\n")
		return
	}
	res := sec.Result
	sig := make(map[string]int, len(sec.Significance))
	for i, s := range sec.Significance {
		sig[s.Parameter] = i
	}

	fmt.Fprintf(b, "| Parameter | Estimate | Std error | t | p |\n|---|---|---|---|---|\n")
	for i, name := range res.ParamNames {
		t, p := "", ""
		if j, ok := sig[name]; ok {
			t, p = num(sec.Significance[j].T), num(sec.Significance[j].PValue)
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n", name, num(res.Params[i]), num(res.StdErr[i]), t, p)
	}
	fmt.Fprintf(b, "\nχ² = %s, dof = %d, reduced χ² = %s, %d iterations.\n\n",
		num(res.ChiSquare), res.DOF, num(res.ReducedChiSquare), res.Iterations)
}

func writeAlignment(b *strings.Builder, a *app.AlignmentSection) {
	fmt.Fprintf(b, "## Bulk flow alignment\n\n")
	switch {
	case a.Skipped:
		fmt.Fprintf(b, "Skipped: no reference vector table configured.\n\n")
		return
	case a.Err != nil:
		writeError(b, a.Err)
		return
	}
	c := a.Check
	fmt.Fprintf(b, "Fitted dipole apex (l, b) = (%.2f°, %.2f°); %s at (%.2f°, %.2f°).\n\n",
		a.Apex.L, a.Apex.B, a.Reference.Label, a.Reference.L, a.Reference.B)
	fmt.Fprintf(b, "Separation %.2f°, deviation from anti-alignment %.2f° (tolerance %.2f°): %s.\n\n",
		c.Separation, c.Deviation, c.Tolerance, yesNo(c.AntiAligned, "anti-aligned", "not anti-aligned"))
}

func writeA0(b *strings.Builder, a *app.A0Section) {
	fmt.Fprintf(b, "## a0 consistency\n\n")
	fmt.Fprintf(b, "Configured predicted a0 = %.5g m/s², configured observed a0 = %.5g m/s².\n\n", a.Predicted, a.Observed)
	fmt.Fprintf(b, "Discrepancy %.4f%% (limit %.4g%%).\n\n", a.DiscrepancyPct, a.LimitPct)
}

func writeBlackHoles(b *strings.Builder, bh *app.BlackHoleSection) {
	fmt.Fprintf(b, "## Black hole mass correction\n\n")
	switch {
	case bh.Skipped:
		fmt.Fprintf(b, "Skipped: no mass table configured.\n\n")
		return
	case bh.Err != nil:
		writeError(b, bh.Err)
		return
	}
	fmt.Fprintf(b, "`%s`: %d rows, correction %+g dex (configured).\n\n", bh.Source, len(bh.Rows), bh.Correction)
	fmt.Fprintf(b, "| ID | log M inferred | log M corrected |\n|---|---|---|\n")
	for i, row := range bh.Rows {
		if i == PreviewRows {
			break
		}
		fmt.Fprintf(b, "| %s | %.3f | %.3f |\n", row.ID, row.Inferred, row.Corrected)
	}
	b.WriteString("\n")

	if len(bh.Cases) == 0 {
		fmt.Fprintf(b, "No observed masses to audit against.\n\n")
		return
	}
	fmt.Fprintf(b, "| ID | Corrected | Observed | Δ (dex) | Within %.3g dex |\n|---|---|---|---|---|\n", bh.Tolerance)
	for _, c := range bh.Cases {
		fmt.Fprintf(b, "| %s | %.3f | %.3f | %.4f | %s |\n", c.ID, c.Corrected, c.Observed, c.Difference, yesNo(c.Passed, "yes", "no"))
	}
	b.WriteString("\n")
}

func writeVerdicts(b *strings.Builder, r *app.AuditReport) {
	fmt.Fprintf(b, "## Verdicts\n\n| Hypothesis | Status | Detail |\n|---|---|---|\n")
	for _, v := range r.Verdicts {
		fmt.Fprintf(b, "| %s | %s | %s |\n", v.Hypothesis, strings.ToUpper(string(v.Status)), escape(v.Detail))
	}
	s := verdict.Summarize(r.Verdicts)
	fmt.Fprintf(b, "\n%d validated, %d marginal, %d rejected, %d errors.\n\n",
		s[verdict.StatusValidated], s[verdict.StatusMarginal], s[verdict.StatusRejected], s[verdict.StatusError])
}

func writeError(b *strings.Builder, err error) {
	fmt.Fprintf(b, "**%s:** %s\n\n", errors.GetCode(err), escape(err.Error()))
}

func num(x float64) string {
	switch {
	case math.IsNaN(x):
		return "n/a"
	case math.IsInf(x, 1):
		return "∞"
	case math.IsInf(x, -1):
		return "-∞"
	}
	return fmt.Sprintf("%.6g", x)
}

func yesNo(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

// escape keeps table cells on one line.
func escape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
