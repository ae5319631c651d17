package synth

import (
	"testing"

	"github.com/mpataki/agentprobe/internal/agentscript"
)

func TestTopicUtterance(t *testing.T) {
	tests := []struct {
		name  string
		topic agentscript.Topic
		want  string
	}{
		{"faq label", agentscript.Topic{Name: "Help", Label: "FAQ"}, "I have a question about your services"},
		{"faq in lowercased name", agentscript.Topic{Name: "FaqTopic"}, "I have a question about your services"},
		{"menu label", agentscript.Topic{Name: "Food", Label: "Menu Items"}, "What's on your menu?"},
		{"menu description", agentscript.Topic{Name: "Food", Label: "Dining", Description: "Browse the menu"}, "What's on your menu?"},
		{"book label", agentscript.Topic{Name: "Books", Label: "Book Catalog"}, "I'm looking for a book"},
		{"search label routes to book phrase", agentscript.Topic{Name: "Find", Label: "Product Search"}, "I'm looking for a book"},
		{"order label", agentscript.Topic{Name: "Orders", Label: "Order Status"}, "I want to check my order status"},
		{"support description", agentscript.Topic{Name: "Desk", Label: "Helpdesk", Description: "customer support requests"}, "I need help with an issue"},
		{"account label", agentscript.Topic{Name: "Profile", Label: "Account Management"}, "I want to update my account"},
		{"billing label", agentscript.Topic{Name: "Billing", Label: "Billing & Payments"}, "I have a question about my bill"},
		{"payment only matches in label", agentscript.Topic{Name: "Pay", Label: "Payment Options"}, "I have a question about my bill"},
		{"payment in description does not match", agentscript.Topic{Name: "Pay", Label: "Misc", Description: "payment help"}, "I need help with payment help"},
		{"description fallback is lowercased", agentscript.Topic{Name: "Shipping", Label: "Shipping Info", Description: "Track Packages"}, "I need help with track packages"},
		{"label fallback keeps case", agentscript.Topic{Name: "Misc", Label: "General Chat"}, "I need help with General Chat"},
		{"name fallback", agentscript.Topic{Name: "Misc"}, "I need help with Misc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TopicUtterance(&tt.topic); got != tt.want {
				t.Errorf("TopicUtterance = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionUtterance(t *testing.T) {
	orders := agentscript.Topic{Name: "Orders"}
	tests := []struct {
		name   string
		action agentscript.Action
		topic  agentscript.Topic
		want   string
	}{
		{"search book", agentscript.Action{Name: "find", Description: "search for books"}, orders, "Can you search for Harry Potter?"},
		{"search product", agentscript.Action{Name: "find", Description: "search the product list"}, orders, "Search for laptops"},
		{"search generic", agentscript.Action{Name: "find", Description: "search the knowledge base"}, orders, "Can you search for something?"},
		{"search beats create", agentscript.Action{Name: "build", Description: "create a search index"}, orders, "Can you search for something?"},
		{"create case", agentscript.Action{Name: "open", Description: "create a case"}, orders, "I need to create a support case"},
		{"add ticket", agentscript.Action{Name: "open", Description: "add a ticket"}, orders, "I need to create a support case"},
		{"create order", agentscript.Action{Name: "place", Description: "create an order"}, orders, "I want to place an order"},
		{"create generic uses topic name", agentscript.Action{Name: "remind", Description: "add a reminder"}, agentscript.Topic{Name: "Reminders"}, "I want to create a new Reminders"},
		{"get account", agentscript.Action{Name: "fetch", Description: "get account details"}, orders, "Can you look up my account information?"},
		{"get order", agentscript.Action{Name: "check_status", Description: "get order status"}, orders, "What's the status of my order?"},
		{"lookup generic spaces name", agentscript.Action{Name: "lookup_shipping", Description: "lookup shipping rates"}, orders, "Can you get the lookup shipping for me?"},
		{"retrieve generic", agentscript.Action{Name: "fetch_invoice", Description: "retrieve the invoice"}, orders, "Can you get the fetch invoice for me?"},
		{"update", agentscript.Action{Name: "change", Description: "update the address"}, agentscript.Topic{Name: "Profile"}, "I need to update my Profile"},
		{"modify", agentscript.Action{Name: "change", Description: "modify preferences"}, agentscript.Topic{Name: "Profile"}, "I need to update my Profile"},
		{"default spaces name", agentscript.Action{Name: "escalate_to_human", Description: "hand off politely"}, orders, "Please escalate to human for me"},
		{"name stands in for description", agentscript.Action{Name: "search_catalog"}, orders, "Can you search for something?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ActionUtterance(&tt.action, &tt.topic); got != tt.want {
				t.Errorf("ActionUtterance = %q, want %q", got, tt.want)
			}
		})
	}
}
