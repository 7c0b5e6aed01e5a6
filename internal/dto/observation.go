package dto

// ObservationInput is the raw, untrusted data-entry submission. Which
// fields are required depends on the target's data type; the observation
// service validates everything before persistence.
type ObservationInput struct {
	// Date is ISO-8601, interpreted in Timezone then stored as UTC.
	Date     string `json:"date"`
	Timezone string `json:"timezone,omitempty"`

	// Data carries the scalar payload for Frequency, Duration (clock
	// string), Percent Correct and interval-sampling types.
	Data string `json:"data,omitempty"`

	// OrigData, combined with Data and no record ID, requests an
	// incremental counter adjustment: the stored value is the delta.
	OrigData string `json:"orig_data,omitempty"`

	// Rate fields.
	Correct      string `json:"correct,omitempty"`
	Incorrect    string `json:"incorrect,omitempty"`
	CountingTime string `json:"counting_time,omitempty"`

	// Steps carries per-step outcomes for Task Analysis targets.
	Steps []string `json:"steps,omitempty"`
}

// ObservationRow is one formatted line of the observation table.
type ObservationRow struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Value        string `json:"value"`
	CreatedBy    string `json:"created_by"`
	CreationDate string `json:"creation_date"`
}
