package validation

// Payload schemas for the four intake categories. They only pin down JSON types and
// required keys; value constraints belong to the rules package.

var PersonalInfoSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"firstName":   {Type: "string"},
		"lastName":    {Type: "string"},
		"dateOfBirth": {Type: "string", Description: "ISO 8601 date"},
	},
	Required: []string{"firstName", "lastName", "dateOfBirth"},
}

var ContactInfoSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"email": {Type: "string"},
		"phone": {Type: "string"},
	},
	Required: []string{"email", "phone"},
}

var LoanInfoSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"amount":  {Type: "integer"},
		"upfront": {Type: "number"},
		"terms":   {Type: "integer", Description: "months"},
	},
	Required: []string{"amount", "upfront", "terms"},
}

var FinancialInfoSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"monthlySalary":       {Type: "number"},
		"hasAdditionalIncome": {Type: "boolean"},
		"additionalIncome":    {Type: "number", Nullable: true},
		"hasMortgage":         {Type: "boolean"},
		"mortgage":            {Type: "number", Nullable: true},
		"hasOtherCredits":     {Type: "boolean"},
		"otherCredits":        {Type: "number", Nullable: true},
	},
	Required: []string{"monthlySalary", "hasAdditionalIncome", "hasMortgage", "hasOtherCredits"},
}
