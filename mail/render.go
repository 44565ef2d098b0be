package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"budgettracker/budget"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"alert", "digest"}

// Renderer turns budget alerts and digests into French HTML emails.
type Renderer struct {
	appURL    string
	printer   *message.Printer
	templates map[string]*template.Template
	now       func() time.Time
}

func NewRenderer(appURL string) *Renderer {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		templates[page] = template.Must(template.New("").ParseFS(templateFS,
			"templates/base.html",
			"templates/"+page+".html",
		))
	}
	return &Renderer{
		appURL:    strings.TrimRight(appURL, "/"),
		printer:   message.NewPrinter(language.French),
		templates: templates,
		now:       time.Now,
	}
}

type alertData struct {
	Subject      string
	Exceeded     bool
	OwnerName    string
	ProjectName  string
	Budget       string
	Spent        string
	Overspent    string
	Remaining    string
	Percentage   int
	ExpenseCount int
	Advice       string
	ProjectURL   string
}

// Alert renders the threshold email sent to the project owner.
func (r *Renderer) Alert(a budget.Alert) (Message, error) {
	p, e := a.Project, a.Evaluation

	var subject string
	switch a.Kind {
	case budget.KindExceeded:
		subject = "Budget dépassé - " + p.Name
	case budget.KindWarning:
		subject = "Attention au budget - " + p.Name
	default:
		return Message{}, fmt.Errorf("no email for alert kind %q", a.Kind)
	}

	data := alertData{
		Subject:      subject,
		Exceeded:     a.Kind == budget.KindExceeded,
		OwnerName:    p.OwnerName,
		ProjectName:  p.Name,
		Budget:       r.amount(e.Budget),
		Spent:        r.amount(e.TotalSpent),
		Overspent:    r.amount(e.Overspent()),
		Remaining:    r.amount(e.Remaining),
		Percentage:   rounded(e.Percentage),
		ExpenseCount: e.ExpenseCount,
		Advice:       r.AlertMessage(p.Name, e),
		ProjectURL:   r.appURL + "/project/" + p.ID,
	}
	html, err := r.execute("alert", data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []Recipient{{Email: p.OwnerEmail, Name: p.OwnerName}},
		Subject: subject,
		HTML:    html,
	}, nil
}

type digestRow struct {
	Name         string
	ExpenseCount int
	Budget       string
	Spent        string
	Percentage   int
	Over         bool
}

type digestData struct {
	Subject     string
	Date        string
	OwnerName   string
	OverBudget  int
	AtRisk      int
	Rows        []digestRow
	ProjectsURL string
}

// Digest renders the daily at-risk summary for one owner.
func (r *Renderer) Digest(d budget.DigestReport) (Message, error) {
	n := len(d.Projects)
	plural := ""
	if n > 1 {
		plural = "s"
	}

	data := digestData{
		Subject:     fmt.Sprintf("📊 Rapport budgétaire quotidien - %d projet%s à surveiller", n, plural),
		Date:        FrenchDate(r.now()),
		OwnerName:   d.OwnerName,
		ProjectsURL: r.appURL + "/projects",
	}
	for _, item := range d.Projects {
		over := item.Status == budget.StatusOver
		if over {
			data.OverBudget++
		} else if item.Status == budget.StatusWarning {
			data.AtRisk++
		}
		data.Rows = append(data.Rows, digestRow{
			Name:         item.Project.Name,
			ExpenseCount: item.Evaluation.ExpenseCount,
			Budget:       r.amount(item.Evaluation.Budget),
			Spent:        r.amount(item.Evaluation.TotalSpent),
			Percentage:   rounded(item.Evaluation.Percentage),
			Over:         over,
		})
	}

	html, err := r.execute("digest", data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []Recipient{{Email: d.OwnerEmail, Name: d.OwnerName}},
		Subject: data.Subject,
		HTML:    html,
	}, nil
}

// AlertMessage is the one-line advisory shown with a project's budget usage.
func (r *Renderer) AlertMessage(name string, e budget.Evaluation) string {
	pct := rounded(e.Percentage)
	switch {
	case e.Percentage >= budget.ExceededThreshold:
		return fmt.Sprintf("🚨 Attention ! Votre projet \"%s\" a dépassé son budget de %s € (%d%%). Il est temps de revoir vos dépenses !",
			name, r.amount(e.Overspent()), pct)
	case e.Percentage >= 90:
		return fmt.Sprintf("⚠️ Alerte ! Le projet \"%s\" a consommé %d%% de son budget. Il ne reste que %s €.",
			name, pct, r.amount(e.Remaining))
	case e.Percentage >= budget.WarningThreshold:
		return fmt.Sprintf("💡 Attention, le projet \"%s\" approche de son budget limite (%d%% utilisé). Restant : %s €.",
			name, pct, r.amount(e.Remaining))
	default:
		return fmt.Sprintf("✅ Le projet \"%s\" est sous contrôle (%d%% du budget utilisé).", name, pct)
	}
}

func (r *Renderer) execute(page string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.templates[page].ExecuteTemplate(&buf, "base", data); err != nil {
		return "", fmt.Errorf("render %s email: %w", page, err)
	}
	return buf.String(), nil
}

// amount formats v the French way, with grouped thousands and at most two
// decimals.
func (r *Renderer) amount(v float64) string {
	return r.printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2)))
}

func rounded(pct float64) int {
	return int(math.Round(pct))
}

var (
	frenchWeekdays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}
	frenchMonths   = [...]string{"janvier", "février", "mars", "avril", "mai", "juin",
		"juillet", "août", "septembre", "octobre", "novembre", "décembre"}
)

// FrenchDate formats t as a long French date, e.g. "jeudi 15 octobre 2026".
func FrenchDate(t time.Time) string {
	return fmt.Sprintf("%s %d %s %d", frenchWeekdays[t.Weekday()], t.Day(), frenchMonths[t.Month()-1], t.Year())
}
