package ollama

import "fmt"

// The inline [Page N] citation convention is what lets the second stage
// mechanically recover page provenance, so the prose prompt insists on it
// for every clause.
func buildProsePrompt() string {
	return `You are reading a medical document.
Write an objective narrative description of every clinical fact the document contains:
diagnoses, treatments, symptoms, lab results, medications and administrative events,
together with the dates and times they refer to.
Every sentence or clause MUST end with an inline citation marker of the form [Page N]
naming the page the information comes from. If the document has a single page, cite [Page 1]
uniformly. Do not summarize, do not interpret, do not omit facts. Plain text only.`
}

func buildExtractionPrompt(prose string) string {
	return fmt.Sprintf(`You are given a narrative description of a medical document.
Each clause carries an inline [Page N] citation naming its source page.

Group every clinical fact by the date it refers to and return strict JSON:
{"entries":[{"date":"YYYY-MM-DD","summary":"one-line summary of the day","tags":["normalized concept"],"facts":[{"time_of_day":"","category":"","detail":"","page_number":0,"quote":""}]}]}

Rules:
- one entry per unique date, facts listed in the order they appear;
- category must be exactly one of: Diagnosis, Treatment, Symptom, Lab Result, Medication, Administrative, Other;
- whenever a [Page N] marker supports a fact, set page_number to N and copy a short verbatim quote from the narrative;
- omit page_number and quote when no marker supports the fact;
- tags are optional normalized medical concepts;
- no markdown, no extra keys.

Narrative:
%s`, prose)
}
