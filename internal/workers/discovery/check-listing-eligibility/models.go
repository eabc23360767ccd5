// internal/workers/discovery/check-listing-eligibility/models.go
package checklistingeligibility

type Input struct {
	SupplierID string `json:"supplierId"`
}

// Output is the publish checklist shown in the supplier console.
type Output struct {
	CanPublish bool            `json:"canPublish"`
	Checks     map[string]bool `json:"checks"`
	Reasons    []string        `json:"reasons"`
}

const inputSchema = `{
  "type": "object",
  "properties": {
    "supplierId": {"type": "string", "minLength": 1}
  },
  "required": ["supplierId"]
}`
