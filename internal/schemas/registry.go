package schemas

// The registry is immutable at runtime; schemas are configuration owned by
// this package, never mutated by the intake engine.
var registry = map[Category]*Schema{
	CategoryMedical: {
		Category: CategoryMedical,
		Fields: []Field{
			{Name: "patient_name", Description: "Patient's name", Required: true, validate: NonEmpty},
			{Name: "patient_age", Description: "Patient's age in years", Required: true, validate: Age},
			{Name: "location_address", Description: "Current address of the patient", Required: true, validate: NonEmpty},
			{Name: "symptoms", Description: "Symptoms or injury description", Required: true, validate: NonEmpty},
			{Name: "patient_phone", Description: "Patient's phone number", Required: false, validate: Phone},
			{Name: "urgency_level", Description: "Urgency: severe, moderate, or minor", Required: false, validate: OneOf("severe", "moderate", "minor")},
			{Name: "allergies", Description: "Known allergies", Required: false, validate: NonEmpty},
			{Name: "medications", Description: "Current medications", Required: false, validate: NonEmpty},
			{Name: "contact_person", Description: "Emergency contact person", Required: false, validate: NonEmpty},
		},
	},
	CategoryPolice: {
		Category: CategoryPolice,
		Fields: []Field{
			{Name: "incident_type", Description: "Type of incident", Required: true, validate: NonEmpty},
			{Name: "incident_location", Description: "Incident address", Required: true, validate: NonEmpty},
			{Name: "incident_time", Description: "When the incident occurred", Required: true, validate: NonEmpty},
			{Name: "description", Description: "What happened", Required: true, validate: NonEmpty},
			{Name: "reporter_name", Description: "Reporter's name", Required: false, validate: NonEmpty},
			{Name: "reporter_phone", Description: "Reporter's phone number", Required: false, validate: Phone},
			{Name: "suspect_details", Description: "Suspect information, if any", Required: false, validate: NonEmpty},
		},
	},
	CategoryElectricity: {
		Category: CategoryElectricity,
		Fields: []Field{
			{Name: "location", Description: "Location of the electrical issue", Required: true, validate: NonEmpty},
			{Name: "issue_type", Description: "Type of issue (outage, downed line, sparking equipment)", Required: true, validate: NonEmpty},
			{Name: "severity", Description: "Severity: critical, major, or minor", Required: true, validate: OneOf("critical", "major", "minor")},
			{Name: "reporter_name", Description: "Reporter's name", Required: false, validate: NonEmpty},
			{Name: "reporter_phone", Description: "Reporter's phone number", Required: false, validate: Phone},
			{Name: "time_started", Description: "When the issue started", Required: false, validate: NonEmpty},
			{Name: "outage_scope", Description: "Scope of the outage (single home, street, neighborhood)", Required: false, validate: NonEmpty},
		},
	},
	CategoryFire: {
		Category: CategoryFire,
		Fields: []Field{
			{Name: "location", Description: "Location of the fire", Required: true, validate: NonEmpty},
			{Name: "hazard_type", Description: "What is burning or at risk", Required: true, validate: NonEmpty},
			{Name: "people_at_risk", Description: "Whether anyone is trapped or injured", Required: false, validate: NonEmpty},
			{Name: "description", Description: "Additional detail about the fire", Required: false, validate: NonEmpty},
		},
	},
}
