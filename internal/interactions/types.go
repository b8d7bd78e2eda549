package interactions

// InteractionType identifies the kind of visitor action recorded against a
// business profile.
type InteractionType string

// The closed set of accepted interaction types. Set membership is the only
// sanitization applied to the type field.
const (
	TypeView            InteractionType = "view"
	TypePhoneClick      InteractionType = "phone_click"
	TypeWhatsappClick   InteractionType = "whatsapp_click"
	TypeWebsiteClick    InteractionType = "website_click"
	TypeDirectionsClick InteractionType = "directions_click"
	TypeEmailClick      InteractionType = "email_click"
	TypeBookingClick    InteractionType = "booking_click"
)

// AllTypes lists every accepted interaction type.
var AllTypes = []InteractionType{
	TypeView,
	TypePhoneClick,
	TypeWhatsappClick,
	TypeWebsiteClick,
	TypeDirectionsClick,
	TypeEmailClick,
	TypeBookingClick,
}

// IsValidType reports whether raw is a member of the accepted set.
func IsValidType(raw string) bool {
	switch InteractionType(raw) {
	case TypeView, TypePhoneClick, TypeWhatsappClick, TypeWebsiteClick,
		TypeDirectionsClick, TypeEmailClick, TypeBookingClick:
		return true
	}
	return false
}

// counterColumn maps an interaction type to its monthly_analytics column.
// whatsapp_click is intentionally absent: it is recorded in the raw event log
// but never rolled up, matching the dashboards that ship with the directory.
// Changing this needs a product decision, not a code fix.
func counterColumn(t InteractionType) (string, bool) {
	switch t {
	case TypeView:
		return "profile_views", true
	case TypePhoneClick:
		return "phone_clicks", true
	case TypeWebsiteClick:
		return "website_clicks", true
	case TypeDirectionsClick:
		return "directions_clicks", true
	case TypeEmailClick:
		return "email_clicks", true
	case TypeBookingClick:
		return "booking_clicks", true
	}
	return "", false
}
