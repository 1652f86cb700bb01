package cli

import (
	"fmt"
	"io"

	"github.com/hyperjump/grantseek/internal/models"
)

// Scenario is a prepared demo query.
type Scenario struct {
	Name      string
	Situation string
	Query     string
}

// DemoScenarios are the queries run by the demo command.
var DemoScenarios = []Scenario{
	{
		Name:      "Education & youth",
		Situation: "A municipality is looking for funding to help young people in disadvantaged areas",
		Query:     "funding for education programs helping disadvantaged youth",
	},
	{
		Name:      "Environment & sustainability",
		Situation: "A municipality wants to work on climate and environmental protection",
		Query:     "environmental protection climate change sustainability",
	},
	{
		Name:      "Public health",
		Situation: "A municipality wants to invest in public and mental health",
		Query:     "community health wellness programs mental health",
	},
	{
		Name:      "Integration & community development",
		Situation: "A municipality is looking for support for integration work",
		Query:     "community development social services integration",
	},
}

// WriteScenario prints one scenario and its top matches.
func WriteScenario(w io.Writer, n int, s Scenario, results []*models.SearchResult) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "SCENARIO %d: %s\n", n, s.Name)
	fmt.Fprintf(w, "%s\n", rule)
	fmt.Fprintf(w, "Situation: %s\n", s.Situation)
	fmt.Fprintf(w, "Query:     %q\n", s.Query)
	if len(results) == 0 {
		fmt.Fprintln(w, "\nNo grants found.")
		return
	}
	fmt.Fprintf(w, "\nTop %d matches:\n\n", len(results))
	for _, r := range results {
		fmt.Fprintf(w, "%d. %s\n", r.Rank, r.Record.Title)
		fmt.Fprintf(w, "   %s\n", r.Record.Agency)
		fmt.Fprintf(w, "   Deadline: %s\n\n", FormatDate(r.Record.Deadline))
	}
}

// ChatScenario is a prepared opening message for the assistant.
type ChatScenario struct {
	Name    string
	Message string
}

// ChatScenarios are the conversations run by chat -demo, each starting fresh.
var ChatScenarios = []ChatScenario{
	{
		Name:    "Innovation & technology",
		Message: "We are a small municipality that wants to invest in innovation and digitalisation. Is there anything for us?",
	},
	{
		Name:    "Youth mental health",
		Message: "We see a growing need for youth mental health support. What is available?",
	},
	{
		Name:    "Sustainable urban development",
		Message: "We plan to make our town centre more walkable, bike friendly and sustainable. Is there funding for that?",
	},
}

// WriteChatScenario prints one scenario with the search the assistant ran and its reply.
func WriteChatScenario(w io.Writer, n int, s ChatScenario, query, reply string, matches int) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "SCENARIO %d: %s\n", n, s.Name)
	fmt.Fprintf(w, "%s\n", rule)
	fmt.Fprintf(w, "Municipality: %q\n", s.Message)
	fmt.Fprintf(w, "\n[searched: %q, %d matches]\n", query, matches)
	fmt.Fprintf(w, "Assistant:\n%s\n", reply)
}
