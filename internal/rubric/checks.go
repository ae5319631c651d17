package rubric

import (
	"regexp"
	"strings"
)

var (
	hardcodedKeyRe = regexp.MustCompile(`(?i)(api[_-]?key|authorization|bearer)\s*[:=]\s*["'][^"']+["']`)
	dmlInLoopRe    = regexp.MustCompile(`for\s*\([^)]+\)\s*\{[^}]*\b(insert|update|delete|undelete|upsert|SELECT)\b`)
)

// requiredCallFields are the fields a call-log custom object needs
// before org automation can key off it.
var requiredCallFields = []string{"Call_ID__c", "Status__c", "Phone_Number__c", "Duration__c"}

func scoreApex(src string, r *Report) {
	lower := strings.ToLower(src)

	if strings.Contains(src, "with sharing") || strings.Contains(src, "without sharing") {
		r.add(catSecurity, 5)
	} else {
		r.flag(catSecurity, "Missing sharing keyword (with sharing/without sharing)")
	}

	if hardcodedKeyRe.MatchString(src) {
		r.flag(catSecurity, "CRITICAL: Potential hardcoded API key detected")
	} else {
		r.add(catSecurity, 10)
	}

	if strings.Contains(src, "callout:") {
		r.add(catSecurity, 10)
	} else {
		r.flag(catSecurity, "Should use Named Credential (callout:NamedCredential)")
	}

	if strings.Contains(src, "try {") && strings.Contains(src, "catch") {
		r.add(catErrorHandling, 10)
	} else {
		r.flag(catErrorHandling, "Missing try-catch error handling")
	}

	if strings.Contains(src, "setTimeout") {
		r.add(catErrorHandling, 5)
	} else {
		r.flag(catErrorHandling, "Missing timeout configuration")
	}

	if strings.Contains(src, "isBlank") || strings.Contains(src, "isEmpty") || strings.Contains(lower, "validate") {
		r.add(catErrorHandling, 5)
	} else {
		r.flag(catErrorHandling, "Missing input validation")
	}

	if strings.Contains(src, "System.debug") || strings.Contains(lower, "log") {
		r.add(catErrorHandling, 5)
	} else {
		r.flag(catErrorHandling, "Missing error logging")
	}

	if strings.Contains(src, "isCreateable") || strings.Contains(src, "isUpdateable") || strings.Contains(src, "isAccessible") {
		r.add(catDataManagement, 10)
	} else {
		r.flag(catDataManagement, "Missing CRUD/FLS security checks")
	}

	if dmlInLoopRe.MatchString(src) {
		r.flag(catDataManagement, "Potential SOQL/DML in loop detected")
	} else {
		r.add(catDataManagement, 5)
	}

	if strings.Contains(src, "List<") {
		r.add(catDataManagement, 5)
	}

	if strings.Contains(src, "public static") || strings.Contains(src, "private static") {
		r.add(catArchitecture, 5)
	}

	if strings.Contains(src, "Queueable") || strings.Contains(src, "@future") {
		r.add(catArchitecture, 10)
	} else {
		r.flag(catArchitecture, "Consider using async patterns (Queueable) for callouts")
	}

	if strings.Contains(src, "/**") && strings.Contains(src, "@description") {
		r.add(catArchitecture, 5)
	} else {
		r.flag(catArchitecture, "Missing ApexDoc comments")
	}

	if strings.Contains(src, "CalloutException") || strings.Contains(src, "Exception") {
		r.add(catBestPractices, 5)
	}

	if strings.Contains(src, "getStatusCode") {
		r.add(catBestPractices, 5)
	} else {
		r.flag(catBestPractices, "Should check HTTP status codes")
	}
}

func scoreNamedCredential(src string, r *Report) {
	if strings.Contains(src, "<password>") && strings.Contains(src, "{!$Credential") {
		r.add(catSecurity, 15)
	} else {
		r.flag(catSecurity, "Named Credential should use {!$Credential.Password}")
	}

	if strings.Contains(src, "<endpoint>https://") {
		r.add(catSecurity, 10)
	} else {
		r.flag(catSecurity, "Endpoint should use HTTPS")
	}

	if strings.Contains(src, "<label>") {
		r.add(catBestPractices, 5)
	}

	// The remaining categories do not apply to credential metadata.
	r.grant(catErrorHandling)
	r.grant(catDataManagement)
	r.grant(catArchitecture)
}

func scoreCustomObject(src string, r *Report) {
	for _, field := range requiredCallFields {
		if strings.Contains(src, field) {
			r.add(catDataManagement, 3)
		}
	}

	if strings.Contains(src, "<externalId>true</externalId>") {
		r.add(catDataManagement, 5)
	} else {
		r.flag(catDataManagement, "Call_ID__c should be marked as External ID")
	}

	r.grant(catSecurity)
	r.grant(catErrorHandling)
	r.grant(catArchitecture)
	r.grant(catBestPractices)
}
