// Package llm renders human-readable explanations for trades. The default
// implementation is a deterministic template renderer; a model-backed
// implementation can satisfy the same interface.
package llm

import (
	"strings"
	"text/template"
	"time"
)

// TradeContext carries everything an explanation needs about one fill.
type TradeContext struct {
	Ts         time.Time
	Strategy   string
	Side       string
	Size       float64
	Price      float64
	Confidence float64
	Reason     string
	Compound   float64
}

// Explainer produces a prose explanation for a trade.
type Explainer interface {
	Explain(tc TradeContext) (string, error)
}

// Disabled is the no-op explainer used when the collaborator is off.
type Disabled struct{}

func (Disabled) Explain(TradeContext) (string, error) { return "", nil }

const explainText = `{{.Side | title}} {{printf "%.6f" .Size}} at {{printf "%.2f" .Price}} on {{.Ts.Format "2006-01-02 15:04"}} UTC. ` +
	`The {{.Strategy}} strategy fired with confidence {{printf "%.2f" .Confidence}}: {{.Reason}}.` +
	`{{if gt .Compound 0.05}} News sentiment was supportive ({{printf "%+.2f" .Compound}}).{{end}}` +
	`{{if lt .Compound -0.05}} News sentiment was adverse ({{printf "%+.2f" .Compound}}).{{end}}`

// TemplateExplainer renders trade explanations from a fixed template. The
// same context always renders the same text.
type TemplateExplainer struct {
	tmpl *template.Template
}

// NewTemplateExplainer builds the default explainer.
func NewTemplateExplainer() *TemplateExplainer {
	tmpl := template.Must(template.New("trade").Funcs(template.FuncMap{
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}).Parse(explainText))
	return &TemplateExplainer{tmpl: tmpl}
}

// Explain renders the trade context.
func (e *TemplateExplainer) Explain(tc TradeContext) (string, error) {
	var sb strings.Builder
	if err := e.tmpl.Execute(&sb, tc); err != nil {
		return "", err
	}
	return sb.String(), nil
}
