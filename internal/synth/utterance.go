package synth

import (
	"strings"

	"github.com/mpataki/agentprobe/internal/agentscript"
)

// The utterance tables below are oracles: generated suites and the
// fix suggestions keyed off them depend on these exact phrases, so
// rule order and wording must not drift.

// TopicUtterance returns an utterance that should route to the topic.
// Matching runs over the lower-cased label (name when no label) and
// description; the first rule that hits wins.
func TopicUtterance(t *agentscript.Topic) string {
	label := strings.ToLower(t.Label)
	if t.Label == "" {
		label = strings.ToLower(t.Name)
	}
	desc := strings.ToLower(t.Description)

	switch {
	case strings.Contains(label, "faq") || strings.Contains(desc, "faq"):
		return "I have a question about your services"
	case strings.Contains(label, "menu") || strings.Contains(desc, "menu"):
		return "What's on your menu?"
	case strings.Contains(label, "book") || strings.Contains(desc, "book") || strings.Contains(label, "search"):
		return "I'm looking for a book"
	case strings.Contains(label, "order") || strings.Contains(desc, "order"):
		return "I want to check my order status"
	case strings.Contains(label, "support") || strings.Contains(desc, "support"):
		return "I need help with an issue"
	case strings.Contains(label, "account") || strings.Contains(desc, "account"):
		return "I want to update my account"
	case strings.Contains(label, "billing") || strings.Contains(desc, "billing") || strings.Contains(label, "payment"):
		return "I have a question about my bill"
	}

	if t.Description != "" {
		return "I need help with " + strings.ToLower(t.Description)
	}
	if t.Label != "" {
		return "I need help with " + t.Label
	}
	return "I need help with " + t.Name
}

// ActionUtterance returns an utterance that should invoke the action
// within its owning topic. Matching runs over the lower-cased action
// description, falling back to the action name.
func ActionUtterance(a *agentscript.Action, t *agentscript.Topic) string {
	desc := strings.ToLower(a.Description)
	if a.Description == "" {
		desc = strings.ToLower(a.Name)
	}

	if strings.Contains(desc, "search") {
		switch {
		case strings.Contains(desc, "book"):
			return "Can you search for Harry Potter?"
		case strings.Contains(desc, "product"):
			return "Search for laptops"
		}
		return "Can you search for something?"
	}

	if strings.Contains(desc, "create") || strings.Contains(desc, "add") {
		switch {
		case strings.Contains(desc, "case"), strings.Contains(desc, "ticket"):
			return "I need to create a support case"
		case strings.Contains(desc, "order"):
			return "I want to place an order"
		}
		return "I want to create a new " + t.Name
	}

	if strings.Contains(desc, "get") || strings.Contains(desc, "lookup") || strings.Contains(desc, "retriev") {
		switch {
		case strings.Contains(desc, "account"):
			return "Can you look up my account information?"
		case strings.Contains(desc, "order"):
			return "What's the status of my order?"
		}
		return "Can you get the " + spaced(a.Name) + " for me?"
	}

	if strings.Contains(desc, "update") || strings.Contains(desc, "modify") {
		return "I need to update my " + t.Name
	}

	return "Please " + spaced(a.Name) + " for me"
}

func spaced(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}
