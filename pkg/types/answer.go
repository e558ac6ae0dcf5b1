package types

// Citation points at the exact source a piece of the answer came from.
type Citation struct {
	FileName string `json:"file_name"`
	Page     int    `json:"page"`
	URL      string `json:"url,omitempty"`
}

const (
	ALERT_TYPE_CONFLICT   = "conflicting_sources"
	ALERT_TYPE_INCOMPLETE = "incomplete_context"
	ALERT_TYPE_OUTDATED   = "possibly_outdated"
)

// Alert surfaces a problem the generator noticed in the reference material,
// such as two documents contradicting each other.
type Alert struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type QueryAnswer struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
	Alerts    []Alert    `json:"alerts,omitempty"`
}
