// internal/workers/application/send-notification/templates.go
package sendnotification

import (
	"fmt"
	"strings"
)

type template struct {
	Subject string
	Body    string
	SMS     string
}

var templates = map[string]template{
	TypeApplicationFinalized: {
		Subject: "Your loan application {{applicationId}} has been received",
		Body: "Hello {{firstName}} {{lastName}},\n\n" +
			"thank you for applying for a loan of €{{amount}} over {{terms}} months. " +
			"Your application {{applicationId}} is complete and has passed our affordability check.\n",
		SMS: "Your loan application {{applicationId}} for €{{amount}} is complete.",
	},
	TypeApplicationRejected: {
		Subject: "Your loan application {{applicationId}}",
		Body: "Hello {{firstName}} {{lastName}},\n\n" +
			"unfortunately your net monthly income is too low for a loan of €{{amount}} over {{terms}} months. " +
			"You can reduce the loan amount and submit again.\n",
		SMS: "Your loan application {{applicationId}} could not be accepted. Please check your e-mail.",
	},
}

// renderTemplate replaces {{key}} placeholders and drops any left without a value.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}
