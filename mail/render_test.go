package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"budgettracker/budget"
	"budgettracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var website = models.Project{
	ID:         "p1",
	Name:       "Website",
	Budget:     1000,
	OwnerID:    "u1",
	OwnerName:  "Jane",
	OwnerEmail: "jane@selego.co",
}

func TestRenderWarningAlert(t *testing.T) {
	r := NewRenderer("http://app.local/")
	msg, err := r.Alert(budget.Alert{
		Kind:       budget.KindWarning,
		Project:    website,
		Evaluation: budget.Evaluate(1000, []float64{400, 450}),
	})
	require.NoError(t, err)

	assert.Equal(t, "Attention au budget - Website", msg.Subject)
	assert.Equal(t, []Recipient{{Email: "jane@selego.co", Name: "Jane"}}, msg.To)
	assert.Contains(t, msg.HTML, "Bonjour Jane,")
	assert.Contains(t, msg.HTML, "approche de son budget limite")
	assert.Contains(t, msg.HTML, "<strong style=\"color: orange;\">85%</strong>")
	assert.Contains(t, msg.HTML, "Restant : <strong>150 €</strong>")
	assert.Contains(t, msg.HTML, "Nombre de dépenses : 2")
	assert.Contains(t, msg.HTML, "http://app.local/project/p1")
}

func TestRenderExceededAlert(t *testing.T) {
	r := NewRenderer("http://app.local")
	msg, err := r.Alert(budget.Alert{
		Kind:       budget.KindExceeded,
		Project:    website,
		Evaluation: budget.Evaluate(1000, []float64{400, 450, 200}),
	})
	require.NoError(t, err)

	assert.Equal(t, "Budget dépassé - Website", msg.Subject)
	assert.Contains(t, msg.HTML, "a dépassé son budget !")
	assert.Contains(t, msg.HTML, "+50 €</strong> (105%)")
	assert.Regexp(t, `Total dépensé : <strong>1\D050 €`, msg.HTML)
	assert.Contains(t, msg.HTML, "Nombre de dépenses : 3")
}

func TestRenderAlertEscapesNames(t *testing.T) {
	p := website
	p.Name = "<script>alert(1)</script>"
	msg, err := NewRenderer("").Alert(budget.Alert{
		Kind:       budget.KindWarning,
		Project:    p,
		Evaluation: budget.Evaluate(100, []float64{85}),
	})
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
}

func TestRenderAlertRejectsNone(t *testing.T) {
	_, err := NewRenderer("").Alert(budget.Alert{Kind: budget.KindNone, Project: website})
	assert.Error(t, err)
}

func TestRenderDigest(t *testing.T) {
	r := NewRenderer("http://app.local")
	r.now = func() time.Time { return time.Date(2026, time.October, 15, 8, 0, 0, 0, time.UTC) }

	over := website
	over.Name = "Refonte"
	warn := website
	warn.Name = "Campagne"

	msg, err := r.Digest(budget.DigestReport{
		OwnerID:    "u1",
		OwnerName:  "Jane",
		OwnerEmail: "jane@selego.co",
		Projects: []budget.ProjectReport{
			{Project: over, Evaluation: budget.Evaluate(100, []float64{120}), Status: budget.StatusOver},
			{Project: warn, Evaluation: budget.Evaluate(200, []float64{100, 70}), Status: budget.StatusWarning},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "📊 Rapport budgétaire quotidien - 2 projets à surveiller", msg.Subject)
	assert.Contains(t, msg.HTML, "jeudi 15 octobre 2026")
	assert.Contains(t, msg.HTML, "Bonjour Jane,")
	assert.Contains(t, msg.HTML, "120% - Dépassé")
	assert.Contains(t, msg.HTML, "85% - À risque")
	assert.Contains(t, msg.HTML, "2 dépenses")
	assert.Contains(t, msg.HTML, "http://app.local/projects")
	assert.Contains(t, msg.HTML, "Budget Tracker - Gestion de budget simplifiée")
	assert.Less(t, strings.Index(msg.HTML, "Refonte"), strings.Index(msg.HTML, "Campagne"))
}

func TestRenderDigestSingular(t *testing.T) {
	msg, err := NewRenderer("").Digest(budget.DigestReport{
		OwnerEmail: "jane@selego.co",
		Projects: []budget.ProjectReport{
			{Project: website, Evaluation: budget.Evaluate(100, []float64{90}), Status: budget.StatusWarning},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "📊 Rapport budgétaire quotidien - 1 projet à surveiller", msg.Subject)
}

func TestAlertMessage(t *testing.T) {
	r := NewRenderer("")
	tests := []struct {
		name    string
		amounts []float64
		want    string
	}{
		{"over", []float64{120}, "🚨 Attention ! Votre projet \"Site\" a dépassé son budget de 20 € (120%). Il est temps de revoir vos dépenses !"},
		{"critical", []float64{95}, "⚠️ Alerte ! Le projet \"Site\" a consommé 95% de son budget. Il ne reste que 5 €."},
		{"approaching", []float64{80}, "💡 Attention, le projet \"Site\" approche de son budget limite (80% utilisé). Restant : 20 €."},
		{"under control", []float64{30}, "✅ Le projet \"Site\" est sous contrôle (30% du budget utilisé)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.AlertMessage("Site", budget.Evaluate(100, tt.amounts)))
		})
	}
}

func TestFrenchDate(t *testing.T) {
	assert.Equal(t, "lundi 1 janvier 2024", FrenchDate(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "samedi 31 août 2024", FrenchDate(time.Date(2024, time.August, 31, 0, 0, 0, 0, time.UTC)))
}

type recordingSender struct {
	sent []Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestNotifier(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, NewRenderer(""))
	ctx := context.Background()

	require.NoError(t, n.SendAlert(ctx, budget.Alert{
		Kind:       budget.KindWarning,
		Project:    website,
		Evaluation: budget.Evaluate(1000, []float64{850}),
	}))
	require.NoError(t, n.SendDigest(ctx, budget.DigestReport{
		OwnerEmail: "jane@selego.co",
		Projects: []budget.ProjectReport{
			{Project: website, Evaluation: budget.Evaluate(1000, []float64{850}), Status: budget.StatusWarning},
		},
	}))
	require.Len(t, sender.sent, 2)

	sender.err = errors.New("down")
	err := n.SendAlert(ctx, budget.Alert{Kind: budget.KindWarning, Project: website})
	assert.ErrorContains(t, err, "down")

	noOwner := website
	noOwner.OwnerEmail = ""
	err = n.SendAlert(ctx, budget.Alert{Kind: budget.KindWarning, Project: noOwner})
	assert.ErrorIs(t, err, ErrNoRecipient)
	err = n.SendDigest(ctx, budget.DigestReport{OwnerID: "u1"})
	assert.ErrorIs(t, err, ErrNoRecipient)
}
