/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package overunder

// Prompt is a question with a numeric answer and the line voters guess
// against.
type Prompt struct {
	Text string  `json:"text"`
	Line float64 `json:"line"`
}

// DefaultPrompts is used when no prompt list is configured.
var DefaultPrompts = []Prompt{
	{Text: "How many cups of coffee or tea did you drink last week?", Line: 7.5},
	{Text: "How many countries have you visited?", Line: 4.5},
	{Text: "How many unread emails are in your inbox right now?", Line: 99.5},
	{Text: "How many hours did you sleep last night?", Line: 7.5},
	{Text: "How many apps are on your phone's home screen?", Line: 19.5},
	{Text: "How many times did you hit snooze this week?", Line: 3.5},
	{Text: "How many pairs of shoes do you own?", Line: 8.5},
	{Text: "How many books did you finish last year?", Line: 5.5},
	{Text: "How old were you when you learned to ride a bike?", Line: 6.5},
	{Text: "How many browser tabs do you have open right now?", Line: 12.5},
	{Text: "How many houseplants have you kept alive for more than a year?", Line: 2.5},
	{Text: "How many concerts have you been to?", Line: 10.5},
	{Text: "How many minutes does your morning routine take?", Line: 30.5},
	{Text: "How many times have you moved house?", Line: 5.5},
	{Text: "How many different jobs have you had?", Line: 4.5},
	{Text: "How many photos did you take last month?", Line: 120.5},
	{Text: "How many hot sauces are in your kitchen?", Line: 2.5},
	{Text: "How many steps did you walk yesterday, in thousands?", Line: 6.5},
	{Text: "How many video games did you play to the end last year?", Line: 3.5},
	{Text: "How many people are in your phone's favorites list?", Line: 5.5},
}
