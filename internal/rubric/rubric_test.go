package rubric

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const cleanApex = `/**
 * @description Queues agent callouts through the org named credential.
 */
public with sharing class AgentCalloutService implements Queueable {
    public static void enqueue(List<Id> recordIds) {
        if (recordIds.isEmpty()) {
            return;
        }
        if (!Schema.sObjectType.Case.isCreateable()) {
            return;
        }
        System.enqueueJob(new AgentCalloutService());
    }

    public void execute(QueueableContext ctx) {
        try {
            HttpRequest req = new HttpRequest();
            req.setEndpoint('callout:AgentAPI/v1/sessions');
            req.setTimeout(20000);
            HttpResponse res = new Http().send(req);
            if (res.getStatusCode() != 200) {
                System.debug('callout failed: ' + res.getStatusCode());
            }
        } catch (CalloutException e) {
            System.debug(e.getMessage());
        }
    }
}
`

const riskyApex = `public class CalloutHelper {
    private static String API_KEY = 'sk-12345';

    public static void pushAll(Account[] accounts) {
        for (Account a : accounts) {
            update a;
        }
    }
}
`

func TestScoreApexClean(t *testing.T) {
	path := writeFixture(t, "AgentCalloutService.cls", cleanApex)

	r, err := Score(path)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if r == nil {
		t.Fatal("clean apex file not graded")
	}
	if got := r.Total(); got != 100 {
		for _, c := range r.Categories {
			t.Logf("%s: %d/%d issues=%v", c.Name, c.Score, c.Max, c.Issues)
		}
		t.Errorf("total = %d, want 100", got)
	}
	if r.Rating() != "★★★★★ Excellent" {
		t.Errorf("rating = %q", r.Rating())
	}
}

func TestScoreApexRisky(t *testing.T) {
	path := writeFixture(t, "CalloutHelper.cls", riskyApex)

	r, err := Score(path)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	var issues []string
	for _, c := range r.Categories {
		issues = append(issues, c.Issues...)
	}
	joined := strings.Join(issues, "\n")

	if !strings.Contains(joined, "CRITICAL: Potential hardcoded API key detected") {
		t.Errorf("hardcoded key not flagged\n%s", joined)
	}
	if !strings.Contains(joined, "Potential SOQL/DML in loop detected") {
		t.Errorf("DML in loop not flagged\n%s", joined)
	}
	if !strings.Contains(joined, "Missing sharing keyword") {
		t.Errorf("sharing keyword not flagged\n%s", joined)
	}
	if r.Percent() >= 60 {
		t.Errorf("risky class scored %.1f%%, want below the block tier", r.Percent())
	}
	if r.Rating() != "★ Block - Critical Issues" {
		t.Errorf("rating = %q", r.Rating())
	}
}

func TestScoreNamedCredential(t *testing.T) {
	xml := `<?xml version="1.0" encoding="UTF-8"?>
<NamedCredential xmlns="http://soap.sforce.com/2006/04/metadata">
    <endpoint>https://api.example.com/v1</endpoint>
    <label>Agent API</label>
    <password>{!$Credential.Password}</password>
</NamedCredential>
`
	path := writeFixture(t, "AgentAPI.namedCredential-meta.xml", xml)

	r, err := Score(path)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got := r.Categories[catSecurity].Score; got != 25 {
		t.Errorf("security = %d, want 25", got)
	}
	if got := r.Total(); got != 95 {
		t.Errorf("total = %d, want 95", got)
	}
}

func TestScoreNamedCredentialInsecure(t *testing.T) {
	xml := `<NamedCredential>
    <endpoint>http://api.example.com/v1</endpoint>
    <password>hunter2</password>
</NamedCredential>
`
	path := writeFixture(t, "AgentAPI.namedCredential-meta.xml", xml)

	r, err := Score(path)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	sec := r.Categories[catSecurity]
	if sec.Score != 0 {
		t.Errorf("security = %d, want 0", sec.Score)
	}
	joined := strings.Join(sec.Issues, "\n")
	if !strings.Contains(joined, "{!$Credential.Password}") || !strings.Contains(joined, "HTTPS") {
		t.Errorf("issues = %v", sec.Issues)
	}
}

func TestScoreCustomObject(t *testing.T) {
	xml := `<CustomObject>
    <fields><fullName>Call_ID__c</fullName><externalId>true</externalId></fields>
    <fields><fullName>Status__c</fullName></fields>
    <fields><fullName>Phone_Number__c</fullName></fields>
    <fields><fullName>Duration__c</fullName></fields>
</CustomObject>
`
	path := writeFixture(t, "Call__c.object-meta.xml", xml)

	r, err := Score(path)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got := r.Categories[catDataManagement].Score; got != 17 {
		t.Errorf("data management = %d, want 17", got)
	}
	if r.Rating() != "★★★★★ Excellent" {
		t.Errorf("rating = %q", r.Rating())
	}
}

func TestScoreCustomObjectMissingExternalID(t *testing.T) {
	path := writeFixture(t, "Call__c.object-meta.xml", "<CustomObject><fields><fullName>Status__c</fullName></fields></CustomObject>")

	r, err := Score(path)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	dm := r.Categories[catDataManagement]
	if dm.Score != 3 {
		t.Errorf("data management = %d, want 3", dm.Score)
	}
	if len(dm.Issues) == 0 || !strings.Contains(dm.Issues[0], "External ID") {
		t.Errorf("issues = %v", dm.Issues)
	}
}

func TestScoreIrrelevantFile(t *testing.T) {
	path := writeFixture(t, "README.md", "# notes")

	r, err := Score(path)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if r != nil {
		t.Errorf("irrelevant file graded: %+v", r)
	}
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"force-app/main/default/classes/AgentCalloutService.cls", true},
		{"AgentAPI.namedCredential-meta.xml", true},
		{"Call__c.object-meta.xml", true},
		{"main.go", false},
		{"layout.xml", false},
		{"notes.cls.md", false},
	}
	for _, tt := range tests {
		if got := Relevant(tt.path); got != tt.want {
			t.Errorf("Relevant(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRatingTiers(t *testing.T) {
	tests := []struct {
		total int
		want  string
	}{
		{95, "★★★★★ Excellent"},
		{85, "★★★★ Very Good"},
		{75, "★★★ Good"},
		{65, "★★ Needs Work"},
		{30, "★ Block - Critical Issues"},
	}
	for _, tt := range tests {
		r := newReport("x.cls")
		r.Categories[catSecurity].Score = tt.total
		if got := r.Rating(); got != tt.want {
			t.Errorf("Rating at %d = %q, want %q", tt.total, got, tt.want)
		}
	}
}
